package procgraph

// thisSentinel is the type of the This marker.
type thisSentinel struct{}

// This is a sentinel argument value standing for "the current node" of
// the builder a chained operation is invoked on. It lets a caller chain
// without binding intermediate results to variables:
//
//	cube.Process("filter_bands", procgraph.Args{
//	    "data":  procgraph.This,
//	    "bands": []string{"B04", "B08"},
//	})
//
// Each chaining operation resolves This against its own receiver at the
// moment it consumes the arguments. Using This outside a chained
// operation panics.
var This = thisSentinel{}

// Builder is a thin, disposable cursor over a graph: a reference to the
// shared graph plus the name of the current node that further chained
// operations attach to. Creating or discarding builders has no side
// effects; only invoking a chaining operation mutates the shared graph.
// Many builders may reference the same graph simultaneously.
//
// A builder produced by the callback adapter may stand for an implicit
// callback parameter instead of a node; it behaves identically under
// chaining and is encoded as a from_parameter reference.
type Builder struct {
	graph *Graph
	node  string
	param *Parameter
}

// Graph returns the graph this builder attaches to.
func (b *Builder) Graph() *Graph { return b.graph }

// NodeName returns the current node name, or "" if the builder stands
// for a callback parameter.
func (b *Builder) NodeName() string { return b.node }

// ref returns the normalized reference value for this builder.
func (b *Builder) ref() any {
	if b.node != "" {
		return nodeRef{name: b.node}
	}
	return paramRef{param: b.param}
}

// Process appends a node invoking processID and returns a new builder
// wrapping it. Occurrences of the This sentinel anywhere in args resolve
// to the receiver's current node (or callback parameter).
//
// This is the generic chaining operation; the arithmetic and comparison
// methods below are conveniences built on it.
func (b *Builder) Process(processID string, args Args, opts ...NodeOption) *Builder {
	resolved := make(Args, len(args))
	for k, v := range args {
		resolved[k] = resolveThis(v, b)
	}
	return b.graph.AddNode(processID, resolved, opts...)
}

// resolveThis replaces the This sentinel with the receiver builder,
// recursing through slices and string-keyed maps.
func resolveThis(v any, b *Builder) any {
	switch val := v.(type) {
	case thisSentinel, *thisSentinel:
		return b
	case Args:
		return resolveThisMap(map[string]any(val), b)
	case map[string]any:
		return resolveThisMap(val, b)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = resolveThis(item, b)
		}
		return out
	default:
		return v
	}
}

func resolveThisMap(m map[string]any, b *Builder) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = resolveThis(v, b)
	}
	return out
}

// Binary arithmetic. Each method appends one node with the receiver as
// the x argument and the operand as y, and returns a new builder. The
// operand may be a literal, another builder of the same graph, or a
// *Parameter. Combining builders from different graphs panics with
// *CrossGraphReferenceError.

// Add appends an "add" node (receiver + other).
func (b *Builder) Add(other any) *Builder { return binaryOp("add", b, other) }

// Subtract appends a "subtract" node (receiver - other).
func (b *Builder) Subtract(other any) *Builder { return binaryOp("subtract", b, other) }

// Multiply appends a "multiply" node (receiver * other).
func (b *Builder) Multiply(other any) *Builder { return binaryOp("multiply", b, other) }

// Divide appends a "divide" node (receiver / other).
func (b *Builder) Divide(other any) *Builder { return binaryOp("divide", b, other) }

// Power appends a "power" node (receiver ^ other).
func (b *Builder) Power(other any) *Builder {
	return b.graph.AddNode("power", Args{"base": b, "p": other})
}

// Negate appends a "multiply" node with factor -1.
func (b *Builder) Negate() *Builder { return b.Multiply(-1) }

// Absolute appends an "absolute" node over the receiver.
func (b *Builder) Absolute() *Builder {
	return b.graph.AddNode("absolute", Args{"x": b})
}

// Comparisons, same conventions as the arithmetic methods.

// Eq appends an "eq" node (receiver == other).
func (b *Builder) Eq(other any) *Builder { return binaryOp("eq", b, other) }

// Neq appends a "neq" node (receiver != other).
func (b *Builder) Neq(other any) *Builder { return binaryOp("neq", b, other) }

// Lt appends an "lt" node (receiver < other).
func (b *Builder) Lt(other any) *Builder { return binaryOp("lt", b, other) }

// Lte appends an "lte" node (receiver <= other).
func (b *Builder) Lte(other any) *Builder { return binaryOp("lte", b, other) }

// Gt appends a "gt" node (receiver > other).
func (b *Builder) Gt(other any) *Builder { return binaryOp("gt", b, other) }

// Gte appends a "gte" node (receiver >= other).
func (b *Builder) Gte(other any) *Builder { return binaryOp("gte", b, other) }

// Package-level symmetric forms. These cover the reflected case where
// the left operand is a plain literal: the arguments keep the
// conventional x/y order of the target process regardless of which side
// holds the builder.
//
// At least one operand must be a *Builder so the shared graph can be
// located; two builders must share the same graph.

// Add appends an "add" node computing x + y.
func Add(x, y any) *Builder { return symmetricOp("add", x, y) }

// Subtract appends a "subtract" node computing x - y.
func Subtract(x, y any) *Builder { return symmetricOp("subtract", x, y) }

// Multiply appends a "multiply" node computing x * y.
func Multiply(x, y any) *Builder { return symmetricOp("multiply", x, y) }

// Divide appends a "divide" node computing x / y.
func Divide(x, y any) *Builder { return symmetricOp("divide", x, y) }

// binaryOp appends one x/y node to the receiver's graph.
func binaryOp(processID string, b *Builder, other any) *Builder {
	return b.graph.AddNode(processID, Args{"x": b, "y": other})
}

// symmetricOp appends one x/y node, locating the graph from whichever
// operand is a builder.
func symmetricOp(processID string, x, y any) *Builder {
	g := graphOf(x)
	if g == nil {
		g = graphOf(y)
	}
	if g == nil {
		panic("procgraph: at least one operand must be a *Builder")
	}
	return g.AddNode(processID, Args{"x": x, "y": y})
}

// graphOf returns the graph of a builder operand, or nil for literals.
func graphOf(v any) *Graph {
	if b, ok := v.(*Builder); ok && b != nil {
		return b.graph
	}
	return nil
}
