package flow

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the builder for structural problems that
// don't carry per-call detail.
var (
	// ErrNodeNotFound is returned when an operation references a node id
	// that was never registered with the builder.
	ErrNodeNotFound = errors.New("flow: node not found")

	// ErrEdgeConflict is returned by Connect when the consumer already has
	// an incoming edge, whether from the same producer or another one.
	ErrEdgeConflict = errors.New("flow: consumer input already has an incoming edge")
)

// GraphInvariantError is returned by Builder.Build when the assembled
// graph violates one of the structural invariants in spec.md §3: an
// empty graph, a duplicate node id, dangling inputs/outputs, or cycles.
// Duplicate edges are reported as ErrEdgeConflict instead.
type GraphInvariantError struct {
	// Reason is a short machine-checkable tag: "empty", "duplicate-node",
	// "dangling-input", "dangling-output", or "cycle".
	Reason string
	// NodeID names the offending node, when the violation is node-scoped.
	NodeID string
	// Detail is a human-readable explanation.
	Detail string
}

func (e *GraphInvariantError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("flow: graph invariant violated (%s) at node %q: %s", e.Reason, e.NodeID, e.Detail)
	}
	return fmt.Sprintf("flow: graph invariant violated (%s): %s", e.Reason, e.Detail)
}

// TypeMismatchError is returned by Builder.Connect when the producer's
// output element type does not match the consumer's input element type.
type TypeMismatchError struct {
	Producer   string
	Consumer   string
	OutputType string
	InputType  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("flow: cannot connect %q (output %s) to %q (input %s): type mismatch",
		e.Producer, e.OutputType, e.Consumer, e.InputType)
}

// NodeExecutionError is the error surfaced by Runner.Run when a node's
// user code fails after its retry budget is exhausted. Its cause chain
// is the first root failure observed for the run (spec.md §4.4-5, §7).
type NodeExecutionError struct {
	NodeID string
	Cause  error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("flow: node %q failed: %v", e.NodeID, e.Cause)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Cause
}

// AnnotationTypeError is returned by Builder.Annotate when value does
// not match the type a well-known AnnotationKey expects.
type AnnotationTypeError struct {
	NodeID string
	Key    AnnotationKey
	Want   string
}

func (e *AnnotationTypeError) Error() string {
	return fmt.Sprintf("flow: annotation %q on node %q must be a %s", e.Key, e.NodeID, e.Want)
}

// BackpressureDropError is informational only: it is delivered via
// OnDrop observer events, never returned from Run or any blocking call.
type BackpressureDropError struct {
	NodeID string
	Policy string
}

func (e *BackpressureDropError) Error() string {
	return fmt.Sprintf("flow: item dropped at node %q under %s policy", e.NodeID, e.Policy)
}
