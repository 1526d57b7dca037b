// Package di wires the gateway's service graph for production and test
// environments.
package di

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jcnm/meeshy-sub009/gateway"
	"github.com/jcnm/meeshy-sub009/registry"
	"github.com/jcnm/meeshy-sub009/translation"
)

// Container holds the shared dependencies of the routing gateway.
type Container struct {
	Logger      *zap.SugaredLogger
	Registry    *registry.Registry
	Dispatcher  gateway.Dispatcher
	Broadcaster *gateway.Broadcaster

	// BatchTimeout overrides the broadcaster's batch deadline; zero keeps
	// the correlator default.
	BatchTimeout time.Duration
}

// ContainerOption configures a container during construction.
type ContainerOption func(*Container)

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) ContainerOption {
	return func(c *Container) { c.Logger = logger }
}

// WithRegistry sets the connection registry.
func WithRegistry(reg *registry.Registry) ContainerOption {
	return func(c *Container) { c.Registry = reg }
}

// WithDispatcher sets the job dispatcher.
func WithDispatcher(d gateway.Dispatcher) ContainerOption {
	return func(c *Container) { c.Dispatcher = d }
}

// WithBatchTimeout sets the broadcaster's batch deadline.
func WithBatchTimeout(timeout time.Duration) ContainerOption {
	return func(c *Container) { c.BatchTimeout = timeout }
}

// NewContainer creates a container with the given options and builds the
// broadcaster from them. The dispatcher must be provided.
func NewContainer(opts ...ContainerOption) *Container {
	c := &Container{}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
	if c.Registry == nil {
		c.Registry = registry.New()
	}
	if c.Dispatcher != nil {
		c.Broadcaster = gateway.NewBroadcaster(c.Registry, c.Dispatcher, c.Logger, c.BatchTimeout)
	}
	return c
}

// NewTestContainer creates a container backed by the stub engine, with no
// transport and no external dependencies.
func NewTestContainer() *Container {
	return NewContainer(WithDispatcher(NewStubDispatcher(nil)))
}

// StubDispatcher answers dispatches synchronously from a StubEngine,
// standing in for the correlator plus the wire round trip.
type StubDispatcher struct {
	engine *translation.StubEngine
}

// NewStubDispatcher creates a stub dispatcher; a nil engine selects the
// default stub engine.
func NewStubDispatcher(engine *translation.StubEngine) *StubDispatcher {
	if engine == nil {
		engine = translation.NewStubEngine(nil)
	}
	return &StubDispatcher{engine: engine}
}

// Dispatch answers a single-language job.
func (d *StubDispatcher) Dispatch(ctx context.Context, job translation.Job, timeout time.Duration) (translation.Result, error) {
	if err := ctx.Err(); err != nil {
		return translation.Result{}, err
	}
	return d.engine.Translate(job), nil
}

// DispatchBatch answers a batch job.
func (d *StubDispatcher) DispatchBatch(ctx context.Context, job translation.BatchJob, timeout time.Duration) (translation.BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return translation.BatchResult{}, err
	}
	if err := job.Validate(); err != nil {
		return translation.BatchResult{}, err
	}
	return d.engine.TranslateBatch(job), nil
}

// PendingCount always reports zero; stub dispatches resolve inline.
func (d *StubDispatcher) PendingCount() int { return 0 }
