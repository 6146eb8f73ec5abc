// Package eval provides local, client-side evaluation of flattened
// process graphs over the basic math vocabulary. It exists for tests and
// dry runs; full process semantics belong to the remote backend, and any
// process outside the vocabulary is an evaluation error.
package eval

import (
	"errors"
	"fmt"
	"math"

	"github.com/randalmurphal/procgraph/pkg/procgraph"
)

// Sentinel errors for local evaluation.
var (
	// ErrUnknownProcess indicates a process id outside the local vocabulary.
	ErrUnknownProcess = errors.New("process not locally evaluable")

	// ErrMissingParameter indicates a from_parameter reference with no
	// supplied value.
	ErrMissingParameter = errors.New("missing parameter value")

	// ErrNoResult indicates the flat graph has no node marked result.
	ErrNoResult = errors.New("no result node")

	// ErrNotNumeric indicates a value that cannot be coerced to a number.
	ErrNotNumeric = errors.New("value is not numeric")
)

// Evaluate computes the result node of a flattened graph with the given
// parameter values. Node outputs are memoized, so shared sub-expressions
// evaluate once.
func Evaluate(fg procgraph.FlatGraph, params map[string]any) (any, error) {
	result := fg.ResultNode()
	if result == "" {
		return nil, ErrNoResult
	}
	e := &evaluator{graph: fg, params: params, memo: make(map[string]any)}
	return e.node(result)
}

// EvaluateNumber is Evaluate with the result coerced to float64.
func EvaluateNumber(fg procgraph.FlatGraph, params map[string]any) (float64, error) {
	v, err := Evaluate(fg, params)
	if err != nil {
		return 0, err
	}
	return toNumber(v)
}

type evaluator struct {
	graph    procgraph.FlatGraph
	params   map[string]any
	memo     map[string]any
	visiting map[string]bool
}

// node evaluates one node by name.
func (e *evaluator) node(name string) (any, error) {
	if v, ok := e.memo[name]; ok {
		return v, nil
	}
	if e.visiting == nil {
		e.visiting = make(map[string]bool)
	}
	if e.visiting[name] {
		return nil, fmt.Errorf("node %q: reference cycle", name)
	}
	e.visiting[name] = true
	defer delete(e.visiting, name)

	flat, ok := e.graph[name]
	if !ok {
		return nil, fmt.Errorf("node %q: not in graph", name)
	}

	args := make(map[string]any, len(flat.Arguments))
	for k, v := range flat.Arguments {
		resolved, err := e.value(v)
		if err != nil {
			return nil, fmt.Errorf("node %q argument %q: %w", name, k, err)
		}
		args[k] = resolved
	}

	out, err := apply(flat.ProcessID, args)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}
	e.memo[name] = out
	return out, nil
}

// value resolves one wire-encoded argument value.
func (e *evaluator) value(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := val["from_node"].(string); ok && len(val) == 1 {
			return e.node(ref)
		}
		if ref, ok := val["from_parameter"].(string); ok && len(val) == 1 {
			bound, ok := e.params[ref]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingParameter, ref)
			}
			return bound, nil
		}
		if _, ok := val["process_graph"]; ok && len(val) == 1 {
			return nil, fmt.Errorf("%w: callback arguments", ErrUnknownProcess)
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			resolved, err := e.value(item)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			resolved, err := e.value(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// apply computes one process invocation over resolved arguments.
func apply(processID string, args map[string]any) (any, error) {
	switch processID {
	case "add":
		return binary(args, func(x, y float64) float64 { return x + y })
	case "subtract":
		return binary(args, func(x, y float64) float64 { return x - y })
	case "multiply":
		return binary(args, func(x, y float64) float64 { return x * y })
	case "divide":
		return binary(args, func(x, y float64) float64 { return x / y })
	case "power":
		base, err := toNumber(args["base"])
		if err != nil {
			return nil, err
		}
		p, err := toNumber(args["p"])
		if err != nil {
			return nil, err
		}
		return math.Pow(base, p), nil
	case "absolute":
		x, err := toNumber(args["x"])
		if err != nil {
			return nil, err
		}
		return math.Abs(x), nil
	case "min":
		return reduce(args, math.Min)
	case "max":
		return reduce(args, math.Max)
	case "sum":
		return reduce(args, func(acc, x float64) float64 { return acc + x })
	case "product":
		return reduce(args, func(acc, x float64) float64 { return acc * x })
	case "mean":
		data, err := toNumbers(args["data"])
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("mean of empty data")
		}
		var sum float64
		for _, x := range data {
			sum += x
		}
		return sum / float64(len(data)), nil
	case "array_element":
		data, ok := args["data"].([]any)
		if !ok {
			return nil, fmt.Errorf("array_element: data is %T, want array", args["data"])
		}
		idx, err := toNumber(args["index"])
		if err != nil {
			return nil, err
		}
		i := int(idx)
		if i < 0 || i >= len(data) {
			return nil, fmt.Errorf("array_element: index %d out of range [0,%d)", i, len(data))
		}
		return data[i], nil
	case "eq":
		return compare(args, func(x, y float64) bool { return x == y })
	case "neq":
		return compare(args, func(x, y float64) bool { return x != y })
	case "lt":
		return compare(args, func(x, y float64) bool { return x < y })
	case "lte":
		return compare(args, func(x, y float64) bool { return x <= y })
	case "gt":
		return compare(args, func(x, y float64) bool { return x > y })
	case "gte":
		return compare(args, func(x, y float64) bool { return x >= y })
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcess, processID)
	}
}

func binary(args map[string]any, op func(x, y float64) float64) (any, error) {
	x, err := toNumber(args["x"])
	if err != nil {
		return nil, err
	}
	y, err := toNumber(args["y"])
	if err != nil {
		return nil, err
	}
	return op(x, y), nil
}

func compare(args map[string]any, op func(x, y float64) bool) (any, error) {
	x, err := toNumber(args["x"])
	if err != nil {
		return nil, err
	}
	y, err := toNumber(args["y"])
	if err != nil {
		return nil, err
	}
	return op(x, y), nil
}

func reduce(args map[string]any, op func(acc, x float64) float64) (any, error) {
	data, err := toNumbers(args["data"])
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("reduction over empty data")
	}
	acc := data[0]
	for _, x := range data[1:] {
		acc = op(acc, x)
	}
	return acc, nil
}

// toNumber coerces a value to float64.
func toNumber(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
}

// toNumbers coerces a slice value to []float64.
func toNumbers(v any) ([]float64, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T, want array", ErrNotNumeric, v)
	}
	out := make([]float64, len(items))
	for i, item := range items {
		x, err := toNumber(item)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}
