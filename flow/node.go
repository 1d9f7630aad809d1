package flow

import (
	"context"
	"reflect"
)

// Kind identifies which of the five node families (spec.md §3) a node
// belongs to.
type Kind int

const (
	KindSource Kind = iota
	KindTransform
	KindSink
	KindBatcher
	KindUnbatcher
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindTransform:
		return "transform"
	case KindSink:
		return "sink"
	case KindBatcher:
		return "batcher"
	case KindUnbatcher:
		return "unbatcher"
	default:
		return "unknown"
	}
}

// SourceFunc initializes a source's output pipe (spec.md §4.3,
// "initialize(context, cancellation) -> pipe<T>"). Implementations may
// be eager (return a materialized Pipe via FromSlice) or lazy (return a
// Pipe they feed from a goroutine they spawn themselves).
type SourceFunc[T any] func(ctx context.Context, rc *RunContext) (Pipe[T], error)

// TransformFunc processes a single item (spec.md §4.3). It may return an
// error to signal a per-item failure, which the edge's retry layer may
// recover from.
type TransformFunc[I, O any] func(ctx context.Context, rc *RunContext, item I) (O, error)

// SinkFunc consumes one item at a time until the input pipe ends.
type SinkFunc[T any] func(ctx context.Context, rc *RunContext, item T) error

// typeName returns a stable, human-readable tag for T, used to check
// edge type compatibility at Connect time (spec.md §9: "keep type
// checks at connect time" for a type-generic builder in a language
// whose node closures are stored erased).
func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	return t.String()
}

// node is the internal, type-erased contract the scheduler drives. Each
// exported "Add*" builder call produces one concrete implementation
// (sourceNode[T], transformNode[I,O], ...); type safety is enforced
// earlier, at Connect time, via inputType()/outputType() string tags
// rather than at execution time.
type node interface {
	id() string
	kind() Kind
	inputType() string
	outputType() string

	// newOutputPipes allocates one independent boxed Pipe[O] tap per
	// element of specs, so the scheduler can start every downstream
	// consumer concurrently with this node, each with its own queue
	// sizing and drop policy. It returns an empty slice for Sink nodes.
	// specs has at least one element for every other kind.
	newOutputPipes(specs []edgeQueueSpec) []any

	// run drives the node to completion. in is the boxed Pipe[I] feeding
	// this node (nil for Source); outs are the boxed Pipe[O] taps this
	// node must Complete, Fail, or Cancel before returning (empty for
	// Sink).
	// inbound carries the annotation attached to the edge feeding this
	// node, used to configure its worker pool. It returns the number of
	// items consumed and produced, for the scheduler's NodeCompletedEvent.
	run(ctx context.Context, rc *RunContext, in any, outs []any, inbound edgeAnnotation) (itemsIn, itemsOut int64, err error)
}
