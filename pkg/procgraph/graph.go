package procgraph

import (
	"strconv"
	"strings"
)

// Graph is an ordered collection of uniquely named nodes under
// construction. Use New to create a graph, then AddNode (directly or
// through Builder chaining) to grow it, and Flatten to produce the
// serializable wire form.
//
// Graph is NOT safe for concurrent construction. Build a graph from a
// single goroutine; independent graphs share no state and may be built
// concurrently. A flattened graph is a plain value and safe to share.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	counters map[string]int
	result   string

	// localParams holds the implicit parameters of a callback child
	// graph. They shadow outer bindings during substitution.
	localParams []*Parameter
}

// New creates a new empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		counters: make(map[string]int),
	}
}

// newChildGraph creates an isolated callback graph with its own naming
// counters and the given implicit parameters.
func newChildGraph(params []*Parameter) *Graph {
	g := New()
	g.localParams = params
	return g
}

// NodeOption configures a node at insertion time.
type NodeOption func(*Node)

// WithNamespace tags the node with a process namespace.
func WithNamespace(ns string) NodeOption {
	return func(n *Node) {
		n.namespace = ns
	}
}

// AddNode appends a node invoking processID with the given arguments and
// returns a builder handle for chaining or for use as an argument to
// further nodes. The node name is auto-generated: lowercased process id
// with underscores stripped plus a per-id numeric suffix, unique within
// the graph. Names are never recycled within one construction session.
//
// Argument values are normalized on insertion (see Args). The process id
// itself is not checked against any catalog; unknown backend-specific
// processes are accepted as-is.
//
// Panics if processID is empty or contains whitespace, or if an argument
// embeds a builder from a different graph.
func (g *Graph) AddNode(processID string, args Args, opts ...NodeOption) *Builder {
	if processID == "" {
		panic("procgraph: process ID cannot be empty")
	}
	if strings.ContainsAny(processID, " \t\n\r") {
		panic("procgraph: process ID cannot contain whitespace")
	}

	node := &Node{
		processID: processID,
		arguments: g.normalizeMap(map[string]any(args)),
	}
	for _, opt := range opts {
		opt(node)
	}

	name := g.nextName(processID)
	g.nodes[name] = node
	g.order = append(g.order, name)

	return &Builder{graph: g, node: name}
}

// SetResult explicitly designates the result node. Without a designation
// Flatten uses the unique leaf node, and fails if that is ambiguous.
// Returns the graph for chaining.
//
// Panics if b belongs to a different graph or wraps a parameter rather
// than a node.
func (g *Graph) SetResult(b *Builder) *Graph {
	if b == nil {
		panic("procgraph: result builder cannot be nil")
	}
	if b.graph != g {
		panic(&CrossGraphReferenceError{Node: b.node})
	}
	if b.node == "" {
		panic("procgraph: result must reference a node, not a parameter")
	}
	g.result = b.node
	return g
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// NodeNames returns the node names in insertion order.
func (g *Graph) NodeNames() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Node returns the node stored under name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// nextName generates a unique node name for processID. The scheme is
// deterministic: lowercased id with underscores removed, then a 1-based
// counter per base name.
func (g *Graph) nextName(processID string) string {
	base := strings.ToLower(strings.ReplaceAll(processID, "_", ""))
	for {
		g.counters[base]++
		name := base + strconv.Itoa(g.counters[base])
		if _, taken := g.nodes[name]; !taken {
			return name
		}
	}
}

// incomingRefs returns, for each node name, the set of sibling nodes
// that reference it via from_node. Only this graph's own nodes count;
// references inside embedded child graphs belong to those graphs.
func (g *Graph) incomingRefs() map[string][]string {
	incoming := make(map[string][]string)
	for _, name := range g.order {
		walkRefs(g.nodes[name].arguments, func(ref nodeRef) {
			incoming[ref.name] = append(incoming[ref.name], name)
		})
	}
	return incoming
}

// walkRefs visits every nodeRef in a normalized value, without
// descending into embedded child graphs.
func walkRefs(v any, visit func(nodeRef)) {
	switch val := v.(type) {
	case nodeRef:
		visit(val)
	case map[string]any:
		for _, item := range val {
			walkRefs(item, visit)
		}
	case []any:
		for _, item := range val {
			walkRefs(item, visit)
		}
	}
}
