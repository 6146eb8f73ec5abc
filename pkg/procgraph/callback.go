package procgraph

// CallbackFunc authors a unary callback. It receives a fresh builder
// seeded from the callback's implicit parameter and returns the builder
// holding the callback's result.
type CallbackFunc func(*Builder) *Builder

// BinaryCallbackFunc authors a binary callback (e.g. a pairwise reducer)
// over two implicit parameters.
type BinaryCallbackFunc func(*Builder, *Builder) *Builder

// Callback adapts a caller-supplied value into a self-contained child
// graph suitable for embedding as an argument of a parent node. Three
// interchangeable authoring forms are accepted:
//
//  1. A bare process-id string: a single-node callback whose arguments
//     reference the implicit parameters by name.
//  2. A CallbackFunc or BinaryCallbackFunc: invoked exactly once at
//     construction time with builders seeded from the implicit
//     parameters; every chaining operation performed inside is captured
//     into a fresh child graph.
//  3. A pre-built *Graph: embedded as-is.
//
// The function form is a constrained expression language, not a general
// translation mechanism: host-language control flow (conditionals,
// loops) or calls outside the chaining surface are not captured into the
// graph and silently produce an incomplete or incorrect callback. Keep
// callback bodies to straight-line chains of graph operations.
type Callback struct {
	form   any
	params []string
}

// NewCallback wraps a callback form together with the names of the
// implicit parameters the parent process feeds into it (e.g. "data" for
// a reducer, "x" for a per-pixel transform, "x" and "y" for a pairwise
// combiner). When omitted, params defaults to "x" for unary forms and
// "x", "y" for the binary function form.
//
// Panics with *UnsupportedCallbackFormError if form is none of the
// recognized kinds.
func NewCallback(form any, params ...string) *Callback {
	switch f := form.(type) {
	case string:
		if f == "" {
			panic(&UnsupportedCallbackFormError{Got: form})
		}
	case CallbackFunc, func(*Builder) *Builder:
	case BinaryCallbackFunc, func(*Builder, *Builder) *Builder:
		if len(params) == 0 {
			params = []string{"x", "y"}
		}
	case *Graph:
		if f == nil {
			panic(&UnsupportedCallbackFormError{Got: form})
		}
	default:
		panic(&UnsupportedCallbackFormError{Got: form})
	}
	if len(params) == 0 {
		params = []string{"x"}
	}
	return &Callback{form: form, params: params}
}

// build produces the child graph for this callback. Each call creates an
// isolated graph with fresh naming counters, so reusing one callback (or
// the same function) across sibling parent nodes cannot collide names
// between the embedded sub-graphs.
func (c *Callback) build() *Graph {
	switch f := c.form.(type) {
	case string:
		return c.buildFromName(f)
	case CallbackFunc:
		return c.buildFromFunc(f)
	case func(*Builder) *Builder:
		return c.buildFromFunc(f)
	case BinaryCallbackFunc:
		return c.buildFromBinaryFunc(f)
	case func(*Builder, *Builder) *Builder:
		return c.buildFromBinaryFunc(f)
	case *Graph:
		// Pre-built graphs pass through, but the implicit parameters
		// must be recorded so substitution shadows them like the other
		// forms. Structural checks (one result node, resolvable
		// references) run when the parent graph is flattened.
		if len(f.localParams) == 0 {
			f.localParams = c.declareParams()
		}
		return f
	default:
		panic(&UnsupportedCallbackFormError{Got: c.form})
	}
}

// buildFromName produces a one-node graph invoking processID with each
// implicit parameter passed under its own name.
func (c *Callback) buildFromName(processID string) *Graph {
	params := c.declareParams()
	child := newChildGraph(params)
	args := make(Args, len(params))
	for _, p := range params {
		args[p.Name()] = p
	}
	child.AddNode(processID, args)
	return child
}

// buildFromFunc invokes fn once with a builder seeded from the first
// implicit parameter and designates whatever it returns as the result.
func (c *Callback) buildFromFunc(fn func(*Builder) *Builder) *Graph {
	params := c.declareParams()
	child := newChildGraph(params)
	seed := &Builder{graph: child, param: params[0]}
	out := fn(seed)
	return c.capture(child, out)
}

// buildFromBinaryFunc invokes fn once with builders seeded from the
// first two implicit parameters.
func (c *Callback) buildFromBinaryFunc(fn func(*Builder, *Builder) *Builder) *Graph {
	params := c.declareParams()
	if len(params) < 2 {
		params = append(params, NewParameter("y"))
	}
	child := newChildGraph(params)
	x := &Builder{graph: child, param: params[0]}
	y := &Builder{graph: child, param: params[1]}
	out := fn(x, y)
	return c.capture(child, out)
}

// capture finishes a function-form child graph: the returned builder
// must belong to the child graph and reference a node.
func (c *Callback) capture(child *Graph, out *Builder) *Graph {
	if out == nil {
		panic("procgraph: callback function returned nil")
	}
	if out.graph != child {
		panic(&CrossGraphReferenceError{Node: out.node})
	}
	if out.node == "" {
		panic("procgraph: callback function must return at least one operation, not the bare parameter")
	}
	child.result = out.node
	return child
}

// declareParams materializes the implicit parameter declarations.
func (c *Callback) declareParams() []*Parameter {
	params := make([]*Parameter, len(c.params))
	for i, name := range c.params {
		params[i] = NewParameter(name)
	}
	return params
}
