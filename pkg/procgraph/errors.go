package procgraph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for graph flattening.
var (
	// ErrEmptyGraph indicates Flatten was called on a graph with no nodes.
	ErrEmptyGraph = errors.New("graph has no nodes")

	// ErrAmbiguousResult indicates more than one leaf node exists and no
	// explicit result node was designated.
	ErrAmbiguousResult = errors.New("ambiguous result node")

	// ErrDanglingReference indicates a from_node reference names a node
	// that does not exist in the graph.
	ErrDanglingReference = errors.New("dangling node reference")

	// ErrResultNotFound indicates the explicitly designated result node
	// does not exist in the graph.
	ErrResultNotFound = errors.New("result node not found")
)

// GraphStructureError reports a structural problem detected at Flatten time.
// Construction itself never produces this error; the final shape of the
// graph is only known when it is flattened.
type GraphStructureError struct {
	// Node is the node name involved in the problem, when one applies.
	Node string
	// Detail describes the problem in context (e.g. which argument held
	// the dangling reference, or which leaves were ambiguous).
	Detail string
	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface.
func (e *GraphStructureError) Error() string {
	switch {
	case e.Node != "" && e.Detail != "":
		return fmt.Sprintf("graph structure: %v: node %q: %s", e.Err, e.Node, e.Detail)
	case e.Node != "":
		return fmt.Sprintf("graph structure: %v: node %q", e.Err, e.Node)
	case e.Detail != "":
		return fmt.Sprintf("graph structure: %v: %s", e.Err, e.Detail)
	default:
		return fmt.Sprintf("graph structure: %v", e.Err)
	}
}

// Unwrap returns the underlying sentinel for errors.Is support.
func (e *GraphStructureError) Unwrap() error {
	return e.Err
}

// UnresolvedParameterError indicates a parameter reference had neither a
// binding nor a declared default at substitution time.
type UnresolvedParameterError struct {
	// Name is the unresolved parameter name.
	Name string
	// Node is the node whose arguments referenced the parameter.
	Node string
}

// Error implements the error interface.
func (e *UnresolvedParameterError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("unresolved parameter %q referenced by node %q", e.Name, e.Node)
	}
	return fmt.Sprintf("unresolved parameter %q", e.Name)
}

// CrossGraphReferenceError indicates an operation tried to combine
// builders or handles belonging to two different graphs.
//
// This is a programming error by the graph author, so builder operations
// panic with a *CrossGraphReferenceError rather than returning it.
type CrossGraphReferenceError struct {
	// Node is the node name of the foreign builder, when known.
	Node string
}

// Error implements the error interface.
func (e *CrossGraphReferenceError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("cannot combine builders from different graphs (node %q belongs to another graph)", e.Node)
	}
	return "cannot combine builders from different graphs"
}

// UnsupportedCallbackFormError indicates the callback adapter received a
// value that is none of the three recognized forms (process-id string,
// builder function, or pre-built *Graph).
//
// Like CrossGraphReferenceError this signals a programming error, so
// NewCallback panics with an *UnsupportedCallbackFormError.
type UnsupportedCallbackFormError struct {
	// Got is the rejected value.
	Got any
}

// Error implements the error interface.
func (e *UnsupportedCallbackFormError) Error() string {
	return fmt.Sprintf("unsupported callback form %T (want process-id string, builder func, or *Graph)", e.Got)
}

// joinNames formats a node name list for error messages.
func joinNames(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
