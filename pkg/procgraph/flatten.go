package procgraph

import (
	"encoding/json"
	"fmt"
)

// FlatNode is the wire form of one node.
type FlatNode struct {
	ProcessID string         `json:"process_id"`
	Arguments map[string]any `json:"arguments"`
	Namespace string         `json:"namespace,omitempty"`
	Result    bool           `json:"result,omitempty"`
}

// FlatGraph is the wire form of a graph: node name to FlatNode, with
// exactly one node carrying Result. Node references are encoded as
// {"from_node": name}, parameter references as {"from_parameter": name},
// and embedded callback graphs as {"process_graph": {...}}.
type FlatGraph map[string]FlatNode

// JSON serializes the flat graph. Map keys marshal in sorted order, so
// output for an unmodified graph is byte-identical across calls.
func (fg FlatGraph) JSON() ([]byte, error) {
	return json.Marshal(fg)
}

// ResultNode returns the name of the node marked as result, or "".
func (fg FlatGraph) ResultNode() string {
	for name, node := range fg {
		if node.Result {
			return name
		}
	}
	return ""
}

// Flatten serializes the graph into its wire form. It resolves the
// result node (the explicit designation, else the unique leaf node that
// no sibling references), verifies that every from_node reference names
// an existing node, and rewrites references to their wire encodings.
//
// Flatten is a pure read: the graph is unmodified, and calling it twice
// on an unmodified graph yields structurally identical output. It fails
// with *GraphStructureError when the graph is empty, a reference
// dangles, the explicit result designation names an unknown node, or
// more than one leaf exists without an explicit designation. No partial
// output is returned on failure.
func (g *Graph) Flatten() (FlatGraph, error) {
	if len(g.nodes) == 0 {
		return nil, &GraphStructureError{Err: ErrEmptyGraph}
	}

	if err := g.checkReferences(); err != nil {
		return nil, err
	}

	result, err := g.resolveResult()
	if err != nil {
		return nil, err
	}

	out := make(FlatGraph, len(g.nodes))
	for _, name := range g.order {
		node := g.nodes[name]
		args := make(map[string]any, len(node.arguments))
		for argName, v := range node.arguments {
			encoded, err := encodeValue(v)
			if err != nil {
				// Keep the underlying *GraphStructureError reachable
				// through errors.As while adding the outer location.
				return nil, fmt.Errorf("node %q argument %q: %w", name, argName, err)
			}
			args[argName] = encoded
		}
		out[name] = FlatNode{
			ProcessID: node.processID,
			Arguments: args,
			Namespace: node.namespace,
			Result:    name == result,
		}
	}
	return out, nil
}

// checkReferences verifies every from_node reference in this graph's
// nodes resolves to a node of this graph. Parameter references are
// always allowed: in a callback graph they may name a parameter of the
// enclosing callback, which only the backend can resolve.
func (g *Graph) checkReferences() error {
	for _, name := range g.order {
		var dangling *GraphStructureError
		walkRefs(g.nodes[name].arguments, func(ref nodeRef) {
			if dangling != nil {
				return
			}
			if _, ok := g.nodes[ref.name]; !ok {
				dangling = &GraphStructureError{
					Node:   ref.name,
					Detail: fmt.Sprintf("referenced by node %q", name),
					Err:    ErrDanglingReference,
				}
			}
		})
		if dangling != nil {
			return dangling
		}
	}
	return nil
}

// resolveResult returns the name of the result node: the explicit
// designation if set, otherwise the single node no sibling references.
// Ambiguity is an error, never "last added wins".
func (g *Graph) resolveResult() (string, error) {
	if g.result != "" {
		if _, ok := g.nodes[g.result]; !ok {
			return "", &GraphStructureError{Node: g.result, Err: ErrResultNotFound}
		}
		return g.result, nil
	}

	incoming := g.incomingRefs()
	var leaves []string
	for _, name := range g.order {
		if len(incoming[name]) == 0 {
			leaves = append(leaves, name)
		}
	}
	if len(leaves) != 1 {
		return "", &GraphStructureError{
			Detail: fmt.Sprintf("%d leaf nodes (%s), designate one with SetResult", len(leaves), joinNames(leaves)),
			Err:    ErrAmbiguousResult,
		}
	}
	return leaves[0], nil
}

// encodeValue rewrites a normalized argument value into its wire shape.
func encodeValue(v any) (any, error) {
	switch val := v.(type) {
	case nodeRef:
		return map[string]any{"from_node": val.name}, nil
	case paramRef:
		return map[string]any{"from_parameter": val.param.Name()}, nil
	case subGraph:
		child, err := val.graph.Flatten()
		if err != nil {
			return nil, fmt.Errorf("embedded graph: %w", err)
		}
		return map[string]any{"process_graph": child}, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			encoded, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = encoded
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			encoded, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = encoded
		}
		return out, nil
	default:
		return v, nil
	}
}
