/*
Package procgraph builds declarative process graphs for remote
geospatial backends.

# Overview

procgraph is a Go client library for constructing node-based computation
graphs ("process graphs") through ordinary method calls and chaining,
then flattening them into the JSON wire form a backend executes. The
construction engine tracks node references, parameter placeholders, and
nested callback graphs; transport, authentication, and batch jobs live
in subpackages and consume the flattened form opaquely.

# Basic Usage

Chain operations off a graph; each call appends one immutable node and
returns a new builder:

	g := procgraph.New()
	cube := g.AddNode("load_collection", procgraph.Args{
	    "id":             "SENTINEL2_L2A",
	    "spatial_extent": map[string]any{"west": 5.1, "east": 5.2, "south": 51.2, "north": 51.3},
	})
	scaled := cube.Process("apply", procgraph.Args{
	    "data":    procgraph.This,
	    "process": procgraph.NewCallback(func(x *procgraph.Builder) *procgraph.Builder {
	        return x.Multiply(0.0001)
	    }),
	})
	_ = scaled

	flat, err := g.Flatten()
	if err != nil {
	    log.Fatal(err)
	}
	payload, _ := flat.JSON()

The This sentinel stands for the builder a chained operation is invoked
on, so chains need no intermediate variables.

# Parameters

Parameters are placeholders bound at invocation time:

	f := procgraph.NewParameter("f").WithDescription("temperature in °F")
	g := procgraph.New()
	celsius := g.AddNode("subtract", procgraph.Args{"x": f, "y": 32}).Divide(1.8)
	_ = celsius

	bound, err := g.SubstituteParameters(map[string]any{"f": 70})

Unbound parameters fall back to their declared default; a parameter with
neither fails with *UnresolvedParameterError.

# Callbacks

Operations like reducers take a child graph as an argument. Three
authoring forms are interchangeable:

	// 1. Bare process id
	procgraph.NewCallback("max", "data")

	// 2. Builder function (straight-line chains only; host-language
	//    control flow is not captured)
	procgraph.NewCallback(func(x *procgraph.Builder) *procgraph.Builder {
	    return x.Subtract(32).Divide(1.8)
	})

	// 3. Pre-built graph
	procgraph.NewCallback(prebuilt)

Each use builds an isolated child graph with its own naming counters.

# Error Handling

Flatten and SubstituteParameters return typed errors
(*GraphStructureError, *UnresolvedParameterError) carrying the offending
node or parameter name. Builder misuse, such as combining builders from
two different graphs or an unrecognized callback form, panics with the
corresponding typed error (*CrossGraphReferenceError,
*UnsupportedCallbackFormError), since it indicates a programming error
at the construction site.

# Thread Safety

A Graph is not safe for concurrent construction; build each graph from
one goroutine. Independent graphs share no state. FlatGraph values are
plain data and safe to share.

# Subpackages

  - client: REST transport (discovery, validation, synchronous execution)
  - jobs: batch job creation and status polling
  - store: local persistence of saved process definitions
  - registry: backend process catalog cache
  - eval: local numeric evaluation of flattened graphs for tests
  - validation: opt-in JSON-schema checks for parameter bindings
  - config: connection configuration loading
  - observability: logging, metrics, and tracing helpers
*/
package procgraph
