package flow

import (
	"context"
	"time"
)

// BatchPolicy configures a Batcher node (spec.md §4.7): a batch flushes
// when it reaches Size items or MaxWait elapses since its first item,
// whichever comes first. A partial batch is always flushed when the
// input pipe ends.
type BatchPolicy struct {
	Size    int
	MaxWait time.Duration
}

// batcherNode groups items from its input into slices (spec.md §4.7).
type batcherNode[T any] struct {
	nodeID string
	policy BatchPolicy
}

func (n *batcherNode[T]) id() string         { return n.nodeID }
func (n *batcherNode[T]) kind() Kind         { return KindBatcher }
func (n *batcherNode[T]) inputType() string  { return typeName[T]() }
func (n *batcherNode[T]) outputType() string { return typeName[[]T]() }

func (n *batcherNode[T]) newOutputPipes(specs []edgeQueueSpec) []any {
	return boxOutputSet(newOutputSet[[]T](n.nodeID, specs))
}

func (n *batcherNode[T]) run(ctx context.Context, rc *RunContext, in any, outs []any, inbound edgeAnnotation) (int64, int64, error) {
	inPipe := in.(Pipe[T])
	outSet := unboxOutputSet[[]T](outs)

	size := n.policy.Size
	if size < 1 {
		size = 1
	}

	var itemsIn, itemsOut int64
	batch := make([]T, 0, size)
	var flushTimer *time.Timer
	var timerC <-chan time.Time

	resetTimer := func() {
		if n.policy.MaxWait <= 0 {
			return
		}
		if flushTimer == nil {
			flushTimer = time.NewTimer(n.policy.MaxWait)
		} else {
			if !flushTimer.Stop() {
				select {
				case <-flushTimer.C:
				default:
				}
			}
			flushTimer.Reset(n.policy.MaxWait)
		}
		timerC = flushTimer.C
	}

	flush := func() bool {
		if len(batch) == 0 {
			return true
		}
		out := batch
		batch = make([]T, 0, size)
		timerC = nil
		if outSet.Enqueue(ctx, out) {
			itemsOut += int64(len(out))
			return true
		}
		return false
	}

	items := inPipe.Consume()
	for {
		select {
		case env, ok := <-items:
			if !ok {
				flush()
				outSet.Complete()
				return itemsIn, itemsOut, nil
			}
			if env.End {
				flush()
				if env.Err != nil {
					outSet.Fail(env.Err)
					return itemsIn, itemsOut, &NodeExecutionError{NodeID: n.nodeID, Cause: env.Err}
				}
				outSet.Complete()
				return itemsIn, itemsOut, nil
			}
			if len(batch) == 0 {
				resetTimer()
			}
			batch = append(batch, env.Item)
			itemsIn++
			if len(batch) >= size {
				if !flush() {
					inPipe.Cancel()
					outSet.Cancel()
					return itemsIn, itemsOut, nil
				}
			}
		case <-timerC:
			if !flush() {
				inPipe.Cancel()
				outSet.Cancel()
				return itemsIn, itemsOut, nil
			}
		case <-ctx.Done():
			outSet.Fail(ctx.Err())
			return itemsIn, itemsOut, &NodeExecutionError{NodeID: n.nodeID, Cause: ctx.Err()}
		}
	}
}

// unbatcherNode flattens slices from its input back into individual
// items (spec.md §4.7).
type unbatcherNode[T any] struct {
	nodeID string
}

func (n *unbatcherNode[T]) id() string         { return n.nodeID }
func (n *unbatcherNode[T]) kind() Kind         { return KindUnbatcher }
func (n *unbatcherNode[T]) inputType() string  { return typeName[[]T]() }
func (n *unbatcherNode[T]) outputType() string { return typeName[T]() }

func (n *unbatcherNode[T]) newOutputPipes(specs []edgeQueueSpec) []any {
	return boxOutputSet(newOutputSet[T](n.nodeID, specs))
}

func (n *unbatcherNode[T]) run(ctx context.Context, rc *RunContext, in any, outs []any, inbound edgeAnnotation) (int64, int64, error) {
	inPipe := in.(Pipe[[]T])
	outSet := unboxOutputSet[T](outs)
	var itemsIn, itemsOut int64

	for env := range inPipe.Consume() {
		if env.End {
			if env.Err != nil {
				outSet.Fail(env.Err)
				return itemsIn, itemsOut, &NodeExecutionError{NodeID: n.nodeID, Cause: env.Err}
			}
			outSet.Complete()
			return itemsIn, itemsOut, nil
		}
		for _, item := range env.Item {
			if !outSet.Enqueue(ctx, item) {
				inPipe.Cancel()
				outSet.Cancel()
				return itemsIn, itemsOut, nil
			}
			itemsIn++
			itemsOut++
		}
	}
	outSet.Complete()
	return itemsIn, itemsOut, nil
}
