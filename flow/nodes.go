package flow

import (
	"context"
	"sync/atomic"
	"time"
)

// sourceNode adapts a SourceFunc to the erased node interface (spec.md
// §4.3). Its own output pipe is whatever the SourceFunc itself returns;
// run forwards that pipe's stream into the scheduler-allocated output
// taps so every node kind shares the same "drive outs to completion"
// contract.
type sourceNode[T any] struct {
	nodeID string
	fn     SourceFunc[T]
}

func (n *sourceNode[T]) id() string         { return n.nodeID }
func (n *sourceNode[T]) kind() Kind         { return KindSource }
func (n *sourceNode[T]) inputType() string  { return "" }
func (n *sourceNode[T]) outputType() string { return typeName[T]() }

func (n *sourceNode[T]) newOutputPipes(specs []edgeQueueSpec) []any {
	return boxOutputSet(newOutputSet[T](n.nodeID, specs))
}

func (n *sourceNode[T]) run(ctx context.Context, rc *RunContext, _ any, outs []any, inbound edgeAnnotation) (int64, int64, error) {
	outSet := unboxOutputSet[T](outs)
	var itemsOut int64

	userPipe, err := n.fn(ctx, rc)
	if err != nil {
		outSet.Fail(err)
		return 0, itemsOut, &NodeExecutionError{NodeID: n.nodeID, Cause: err}
	}

	for env := range userPipe.Consume() {
		if env.End {
			if env.Err != nil {
				outSet.Fail(env.Err)
				return 0, itemsOut, &NodeExecutionError{NodeID: n.nodeID, Cause: env.Err}
			}
			outSet.Complete()
			return 0, itemsOut, nil
		}
		if !outSet.Enqueue(ctx, env.Item) {
			userPipe.Cancel()
			outSet.Cancel()
			return 0, itemsOut, nil
		}
		itemsOut++
	}
	outSet.Complete()
	return 0, itemsOut, nil
}

// transformNode adapts a TransformFunc to the erased node interface. Its
// inbound edge's ConcurrencyPolicy governs the worker pool draining the
// input pipe; its RetryPolicy wraps every individual invocation of fn.
type transformNode[I, O any] struct {
	nodeID string
	fn     TransformFunc[I, O]
}

func (n *transformNode[I, O]) id() string         { return n.nodeID }
func (n *transformNode[I, O]) kind() Kind         { return KindTransform }
func (n *transformNode[I, O]) inputType() string  { return typeName[I]() }
func (n *transformNode[I, O]) outputType() string { return typeName[O]() }

func (n *transformNode[I, O]) newOutputPipes(specs []edgeQueueSpec) []any {
	return boxOutputSet(newOutputSet[O](n.nodeID, specs))
}

func (n *transformNode[I, O]) run(ctx context.Context, rc *RunContext, in any, outs []any, inbound edgeAnnotation) (int64, int64, error) {
	inPipe := in.(Pipe[I])
	outSet := unboxOutputSet[O](outs)

	var itemsIn, itemsOut int64

	process := func(pctx context.Context, item I) (O, error, bool) {
		atomic.AddInt64(&itemsIn, 1)
		result, err := itemRetry(pctx, inbound.retry, func(attempt int, delay time.Duration, rerr error) {
			rc.Observer().OnRetry(RetryEvent{RunID: rc.RunID, NodeID: n.nodeID, Attempt: attempt, Delay: delay, Err: rerr})
		}, func() (O, error) {
			return withTimeout(pctx, inbound.timeout, func(tctx context.Context) (O, error) {
				return n.fn(tctx, rc, item)
			})
		})
		if err != nil && inbound.retry.ContinueOnError {
			var zero O
			return zero, nil, false
		}
		return result, err, err == nil
	}

	emit := func(o O) bool {
		if outSet.Enqueue(ctx, o) {
			atomic.AddInt64(&itemsOut, 1)
			return true
		}
		return false
	}

	err := runWorkerPool(ctx, inbound.concurrency, inPipe.Consume(), emit, process)
	if err != nil {
		outSet.Fail(err)
		return itemsIn, itemsOut, &NodeExecutionError{NodeID: n.nodeID, Cause: err}
	}
	outSet.Complete()
	return itemsIn, itemsOut, nil
}

// sinkNode adapts a SinkFunc to the erased node interface. It has no
// output; newOutputPipes returns an empty slice.
type sinkNode[T any] struct {
	nodeID string
	fn     SinkFunc[T]
}

func (n *sinkNode[T]) id() string         { return n.nodeID }
func (n *sinkNode[T]) kind() Kind         { return KindSink }
func (n *sinkNode[T]) inputType() string  { return typeName[T]() }
func (n *sinkNode[T]) outputType() string { return "" }

func (n *sinkNode[T]) newOutputPipes([]edgeQueueSpec) []any { return nil }

func (n *sinkNode[T]) run(ctx context.Context, rc *RunContext, in any, _ []any, inbound edgeAnnotation) (int64, int64, error) {
	inPipe := in.(Pipe[T])
	var itemsIn int64

	process := func(pctx context.Context, item T) (struct{}, error, bool) {
		atomic.AddInt64(&itemsIn, 1)
		_, err := itemRetry(pctx, inbound.retry, func(attempt int, delay time.Duration, rerr error) {
			rc.Observer().OnRetry(RetryEvent{RunID: rc.RunID, NodeID: n.nodeID, Attempt: attempt, Delay: delay, Err: rerr})
		}, func() (struct{}, error) {
			return withTimeout(pctx, inbound.timeout, func(tctx context.Context) (struct{}, error) {
				return struct{}{}, n.fn(tctx, rc, item)
			})
		})
		if err != nil && inbound.retry.ContinueOnError {
			return struct{}{}, nil, false
		}
		return struct{}{}, err, err == nil
	}

	err := runWorkerPool(ctx, inbound.concurrency, inPipe.Consume(), func(struct{}) bool { return true }, process)
	if err != nil {
		return itemsIn, 0, &NodeExecutionError{NodeID: n.nodeID, Cause: err}
	}
	return itemsIn, 0, nil
}
