package flow

import "time"

// Builder assembles a Graph from typed node and edge declarations
// (spec.md §4.2). A Builder is not safe for concurrent use; build one
// graph per goroutine and share the resulting *Graph freely afterward.
type Builder struct {
	nodes    map[string]node
	order    []string
	outEdges map[string][]*edge
	inEdge   map[string]*edge
	err      error
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes:    make(map[string]node),
		outEdges: make(map[string][]*edge),
		inEdge:   make(map[string]*edge),
	}
}

func (b *Builder) addNode(id string, n node) {
	if b.err != nil {
		return
	}
	if _, exists := b.nodes[id]; exists {
		b.err = &GraphInvariantError{Reason: "duplicate-node", NodeID: id, Detail: "node id already registered"}
		return
	}
	b.nodes[id] = n
	b.order = append(b.order, id)
}

// AddSource registers a Source node producing items of type T.
func AddSource[T any](b *Builder, id string, fn SourceFunc[T]) *Builder {
	b.addNode(id, &sourceNode[T]{nodeID: id, fn: fn})
	return b
}

// AddTransform registers a Transform node mapping I to O.
func AddTransform[I, O any](b *Builder, id string, fn TransformFunc[I, O]) *Builder {
	b.addNode(id, &transformNode[I, O]{nodeID: id, fn: fn})
	return b
}

// AddSink registers a Sink node consuming items of type T.
func AddSink[T any](b *Builder, id string, fn SinkFunc[T]) *Builder {
	b.addNode(id, &sinkNode[T]{nodeID: id, fn: fn})
	return b
}

// AddBatcher registers a Batcher node grouping T into []T.
func AddBatcher[T any](b *Builder, id string, policy BatchPolicy) *Builder {
	b.addNode(id, &batcherNode[T]{nodeID: id, policy: policy})
	return b
}

// AddUnbatcher registers an Unbatcher node flattening []T into T.
func AddUnbatcher[T any](b *Builder, id string) *Builder {
	b.addNode(id, &unbatcherNode[T]{nodeID: id})
	return b
}

// Connect wires from's output to to's input. Each consuming node may
// have at most one incoming edge; each producing node may fan out to
// many. Type compatibility is checked here, at connect time, since node
// storage is erased to the non-generic node interface (spec.md §9).
func (b *Builder) Connect(from, to string, opts ...EdgeOption) *Builder {
	if b.err != nil {
		return b
	}

	fromNode, ok := b.nodes[from]
	if !ok {
		b.err = ErrNodeNotFound
		return b
	}
	toNode, ok := b.nodes[to]
	if !ok {
		b.err = ErrNodeNotFound
		return b
	}

	if fromNode.outputType() != toNode.inputType() {
		b.err = &TypeMismatchError{
			Producer:   from,
			Consumer:   to,
			OutputType: fromNode.outputType(),
			InputType:  toNode.inputType(),
		}
		return b
	}

	if _, exists := b.inEdge[to]; exists {
		b.err = ErrEdgeConflict
		return b
	}

	ann := defaultEdgeAnnotation()
	for _, opt := range opts {
		opt(&ann)
	}

	e := &edge{from: from, to: to, annotation: ann}
	b.outEdges[from] = append(b.outEdges[from], e)
	b.inEdge[to] = e
	return b
}

// Annotate attaches an annotation to the edge feeding nodeID (spec.md
// §4.2, "annotate(handle, key, value)"). nodeID must already have an
// incoming edge from an earlier Connect call. The four well-known keys
// (AnnotationConcurrency, AnnotationRetry, AnnotationObservability,
// AnnotationTimeout) are type-checked against their expected value type
// and applied to the same typed fields a WithConcurrency/WithRetry/
// WithObservability/WithTimeout EdgeOption would set; any other key is
// stored verbatim and otherwise ignored by the core.
func (b *Builder) Annotate(nodeID string, key AnnotationKey, value any) *Builder {
	if b.err != nil {
		return b
	}
	e, ok := b.inEdge[nodeID]
	if !ok {
		b.err = ErrNodeNotFound
		return b
	}

	switch key {
	case AnnotationConcurrency:
		policy, ok := value.(ConcurrencyPolicy)
		if !ok {
			b.err = &AnnotationTypeError{NodeID: nodeID, Key: key, Want: "flow.ConcurrencyPolicy"}
			return b
		}
		e.annotation.concurrency = policy
	case AnnotationRetry:
		policy, ok := value.(RetryPolicy)
		if !ok {
			b.err = &AnnotationTypeError{NodeID: nodeID, Key: key, Want: "flow.RetryPolicy"}
			return b
		}
		e.annotation.retry = policy
	case AnnotationObservability:
		opts, ok := value.(ObservabilityOptions)
		if !ok {
			b.err = &AnnotationTypeError{NodeID: nodeID, Key: key, Want: "flow.ObservabilityOptions"}
			return b
		}
		e.annotation.observability = opts
	case AnnotationTimeout:
		d, ok := value.(time.Duration)
		if !ok {
			b.err = &AnnotationTypeError{NodeID: nodeID, Key: key, Want: "time.Duration"}
			return b
		}
		e.annotation.timeout = d
	default:
		if e.annotation.extra == nil {
			e.annotation.extra = make(map[AnnotationKey]any)
		}
		e.annotation.extra[key] = value
	}
	return b
}

// Build validates the assembled graph against the structural invariants
// in spec.md §3 and returns the immutable Graph, or the first error
// recorded by an earlier Add*/Connect call, or a validation error.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.nodes) == 0 {
		return nil, &GraphInvariantError{Reason: "empty", Detail: "graph has no nodes"}
	}

	topo, err := validate(b.nodes, b.order, b.outEdges, b.inEdge)
	if err != nil {
		return nil, err
	}

	return &Graph{
		nodes:       b.nodes,
		order:       b.order,
		outEdges:    b.outEdges,
		inEdge:      b.inEdge,
		topological: topo,
	}, nil
}
