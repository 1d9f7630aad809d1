// Package flow provides an in-process, concurrent dataflow engine: a
// directed acyclic graph of typed Source, Transform, Sink, Batcher, and
// Unbatcher nodes connected by bounded, lazy streams.
//
// # Core concepts
//
// A Graph is assembled with a Builder: register nodes with AddSource,
// AddTransform, AddSink, AddBatcher, and AddUnbatcher, wire them
// together with Connect, then call Build. Connect checks that a
// producer's output element type matches a consumer's input element
// type before the edge is accepted, since nodes are stored behind a
// type-erased internal interface once the graph is built.
//
// Each edge may carry annotations set via EdgeOption: WithConcurrency
// configures the worker pool and backpressure policy draining that
// edge, WithRetry configures per-item retry with exponential backoff,
// WithTimeout bounds a single item's execution time, and
// WithObservability selects which metrics the edge records. Builder.
// Annotate offers the same four well-known keys (and any custom key a
// caller wants to stash) as a single dynamic call, for callers building
// edge configuration from data rather than literal EdgeOption values.
//
// A built Graph is executed with a Runner. Runner.Run starts every node
// concurrently, propagates the first node failure to the rest of the
// run via context cancellation, and returns once every node has
// terminated.
//
// # Example
//
//	b := flow.NewBuilder()
//	flow.AddSource(b, "numbers", func(ctx context.Context, rc *flow.RunContext) (flow.Pipe[int], error) {
//		return flow.FromSlice("numbers", []int{1, 2, 3, 4, 5}), nil
//	})
//	flow.AddTransform(b, "double", func(ctx context.Context, rc *flow.RunContext, n int) (int, error) {
//		return n * 2, nil
//	})
//	flow.AddSink(b, "print", func(ctx context.Context, rc *flow.RunContext, n int) error {
//		fmt.Println(n)
//		return nil
//	})
//	b.Connect("numbers", "double")
//	b.Connect("double", "print")
//
//	g, err := b.Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//	result := flow.NewRunner(g).Run(context.Background(), flow.RunOptions{})
//	if result.Err != nil {
//		log.Fatal(result.Err)
//	}
package flow
