package procgraph

import "encoding/json"

// Process wraps a graph with the metadata needed to store it as a
// reusable, user-defined process: an id, descriptive text, and the
// declared parameters that invocations bind.
type Process struct {
	ID          string
	Summary     string
	Description string
	Parameters  []*Parameter
	Graph       *Graph
}

// parameterJSON is the wire form of a declared parameter.
type parameterJSON struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
	Optional    bool           `json:"optional,omitempty"`
	Default     any            `json:"default,omitempty"`
}

// processJSON is the wire form of a stored process.
type processJSON struct {
	ID           string          `json:"id"`
	Summary      string          `json:"summary,omitempty"`
	Description  string          `json:"description,omitempty"`
	Parameters   []parameterJSON `json:"parameters"`
	ProcessGraph FlatGraph       `json:"process_graph"`
}

// MarshalJSON flattens the graph and emits the storage form
// {id, summary?, description?, parameters, process_graph}. Flattening
// errors propagate through json.Marshal.
func (p *Process) MarshalJSON() ([]byte, error) {
	fg, err := p.Graph.Flatten()
	if err != nil {
		return nil, err
	}

	params := make([]parameterJSON, len(p.Parameters))
	for i, param := range p.Parameters {
		schema := param.Schema()
		if schema == nil {
			schema = map[string]any{}
		}
		pj := parameterJSON{
			Name:        param.Name(),
			Description: param.Description(),
			Schema:      schema,
		}
		if def, ok := param.Default(); ok {
			pj.Optional = true
			pj.Default = def
		}
		params[i] = pj
	}

	return json.Marshal(processJSON{
		ID:           p.ID,
		Summary:      p.Summary,
		Description:  p.Description,
		Parameters:   params,
		ProcessGraph: fg,
	})
}

// Invoke substitutes concrete arguments for the declared parameters and
// returns the resulting graph. Parameters with defaults may be omitted
// from args; a missing parameter without a default fails with
// *UnresolvedParameterError.
func (p *Process) Invoke(args map[string]any) (*Graph, error) {
	return p.Graph.SubstituteParameters(args)
}
