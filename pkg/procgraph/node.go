package procgraph

import (
	"reflect"
	"sort"
)

// Args is the argument mapping passed to AddNode and chaining operations.
// Values may be literals (scalars, slices, maps), other *Builder handles,
// *Parameter references, *Callback values, pre-built child graphs, or the
// This sentinel inside a chained operation.
//
// Argument shapes are deliberately not validated against any process
// catalog: the catalog is server-defined and extensible, and malformed
// arguments surface as backend errors at execution time.
type Args map[string]any

// Node is one operation invocation: a process identifier, a mapping of
// argument name to (normalized) value, and an optional namespace.
//
// Nodes are immutable once added to a graph. Chained transformations
// always append a new node; they never edit an existing one. Other nodes
// are referenced symbolically by name, never embedded by identity, so
// the graph stays the single owner of all nodes.
type Node struct {
	processID string
	arguments map[string]any
	namespace string
}

// ProcessID returns the operation identifier.
func (n *Node) ProcessID() string { return n.processID }

// Namespace returns the namespace tag, or "" if none was set.
func (n *Node) Namespace() string { return n.namespace }

// ArgNames returns the argument names in sorted order.
func (n *Node) ArgNames() []string {
	names := make([]string, 0, len(n.arguments))
	for k := range n.arguments {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Internal reference values held inside a Node's normalized arguments.
// These form the closed tagged union behind the permissive Args surface:
// everything that is not one of these is a literal.

// nodeRef is a symbolic reference to another node's output.
type nodeRef struct {
	name string
}

// paramRef is a reference to a named parameter. It carries the declared
// Parameter so defaults travel with the reference to substitution time.
type paramRef struct {
	param *Parameter
}

// subGraph is an embedded child graph used for callback arguments.
type subGraph struct {
	graph *Graph
}

// normalizeValue rewrites a user-supplied argument value into its stored
// form: builders become node or parameter references, parameters become
// parameter references, callbacks are built into child graphs, and
// slices and string-keyed maps are walked recursively. Anything else is
// kept as a literal.
//
// Builders from a different graph panic with *CrossGraphReferenceError.
// The This sentinel is only valid inside a chained operation and panics
// here; Builder.Process resolves it before normalization.
func (g *Graph) normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case thisSentinel, *thisSentinel:
		panic("procgraph: This used outside a chained operation")
	case *Builder:
		if val == nil {
			return nil
		}
		if val.graph != g {
			panic(&CrossGraphReferenceError{Node: val.node})
		}
		return val.ref()
	case *Parameter:
		if val == nil {
			return nil
		}
		return paramRef{param: val}
	case *Callback:
		if val == nil {
			return nil
		}
		return subGraph{graph: val.build()}
	case *Graph:
		if val == nil {
			return nil
		}
		return subGraph{graph: val}
	case nodeRef, paramRef, subGraph:
		return val
	case Args:
		return g.normalizeMap(map[string]any(val))
	case map[string]any:
		return g.normalizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = g.normalizeValue(item)
		}
		return out
	}

	// Typed slices and string-keyed maps still need recursive handling
	// so builders and parameters nested in user containers are caught.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = g.normalizeValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = g.normalizeValue(iter.Value().Interface())
			}
			return out
		}
	}

	return v
}

// normalizeMap normalizes every value of a string-keyed map.
func (g *Graph) normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = g.normalizeValue(v)
	}
	return out
}

// copyValue deep-copies a normalized argument value so substituted graphs
// never share mutable containers with their source.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
