package procgraph

// Parameter is a named placeholder for a value supplied when the graph
// (or a stored process built from it) is invoked. Used as an argument
// value it becomes a from_parameter reference; the declared default, if
// any, travels with the reference to substitution time.
//
// Declare parameters before use and do not modify them afterwards; the
// With* setters are meant for the declaration site only.
type Parameter struct {
	name        string
	description string
	schema      map[string]any
	def         any
	hasDefault  bool
}

// NewParameter declares a parameter with the given name.
// Panics if name is empty.
func NewParameter(name string) *Parameter {
	if name == "" {
		panic("procgraph: parameter name cannot be empty")
	}
	return &Parameter{name: name}
}

// WithDescription sets the human-readable description and returns the
// parameter for chaining.
func (p *Parameter) WithDescription(desc string) *Parameter {
	p.description = desc
	return p
}

// WithSchema sets the structural type descriptor (a JSON-Schema-shaped
// map) and returns the parameter for chaining.
func (p *Parameter) WithSchema(schema map[string]any) *Parameter {
	p.schema = schema
	return p
}

// WithDefault sets the default value and returns the parameter for
// chaining. A parameter with a default is optional at invocation time.
func (p *Parameter) WithDefault(v any) *Parameter {
	p.def = v
	p.hasDefault = true
	return p
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Description returns the description.
func (p *Parameter) Description() string { return p.description }

// Schema returns the structural type descriptor, or nil.
func (p *Parameter) Schema() map[string]any { return p.schema }

// Default returns the declared default and whether one was set.
func (p *Parameter) Default() (any, bool) { return p.def, p.hasDefault }

// SubstituteParameters returns a new graph in which every from_parameter
// reference bound in bindings is replaced by the bound value, and every
// unbound reference with a declared default is replaced by that default.
// A remaining unbound reference without a default fails with
// *UnresolvedParameterError naming the parameter.
//
// Substitution recurses into embedded callback graphs. Implicit callback
// parameters shadow outer bindings: a reducer's local "x" is left intact
// even if a binding for "x" exists.
//
// The receiver is not modified; node names, insertion order, and the
// result designation carry over to the returned graph.
func (g *Graph) SubstituteParameters(bindings map[string]any) (*Graph, error) {
	return g.substitute(bindings, nil)
}

func (g *Graph) substitute(bindings map[string]any, shadowed map[string]bool) (*Graph, error) {
	out := &Graph{
		nodes:       make(map[string]*Node, len(g.nodes)),
		order:       append([]string(nil), g.order...),
		counters:    make(map[string]int, len(g.counters)),
		result:      g.result,
		localParams: g.localParams,
	}
	for k, v := range g.counters {
		out.counters[k] = v
	}

	for _, name := range g.order {
		node := g.nodes[name]
		args := make(map[string]any, len(node.arguments))
		for argName, v := range node.arguments {
			substituted, err := substituteValue(v, bindings, shadowed, name)
			if err != nil {
				return nil, err
			}
			args[argName] = substituted
		}
		out.nodes[name] = &Node{
			processID: node.processID,
			arguments: args,
			namespace: node.namespace,
		}
	}
	return out, nil
}

// substituteValue resolves parameter references in one normalized value.
// node is the enclosing node name, used in error messages.
func substituteValue(v any, bindings map[string]any, shadowed map[string]bool, node string) (any, error) {
	switch val := v.(type) {
	case paramRef:
		name := val.param.Name()
		if shadowed[name] {
			return val, nil
		}
		if bound, ok := bindings[name]; ok {
			return copyValue(bound), nil
		}
		if def, ok := val.param.Default(); ok {
			return copyValue(def), nil
		}
		return nil, &UnresolvedParameterError{Name: name, Node: node}
	case subGraph:
		childShadow := make(map[string]bool, len(shadowed)+len(val.graph.localParams))
		for name := range shadowed {
			childShadow[name] = true
		}
		for _, p := range val.graph.localParams {
			childShadow[p.Name()] = true
		}
		child, err := val.graph.substitute(bindings, childShadow)
		if err != nil {
			return nil, err
		}
		return subGraph{graph: child}, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			substituted, err := substituteValue(item, bindings, shadowed, node)
			if err != nil {
				return nil, err
			}
			out[k] = substituted
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			substituted, err := substituteValue(item, bindings, shadowed, node)
			if err != nil {
				return nil, err
			}
			out[i] = substituted
		}
		return out, nil
	default:
		return v, nil
	}
}
