package strategy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
	"github.com/aretw0/proposer/pkg/observability"
)

var (
	// ErrUnknownStrategy is returned when no strategy is registered under the requested type.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrInvalidResult is returned when a strategy produces candidates that do not
	// fit the domain or the requested count.
	ErrInvalidResult = errors.New("strategy produced invalid candidates")

	// ErrInvalidParams is returned when strategy params cannot be decoded.
	ErrInvalidParams = errors.New("invalid strategy params")

	// ErrNotClaimed is returned when generating for a proposal that is not CLAIMED.
	ErrNotClaimed = errors.New("proposal must be CLAIMED before generation")
)

// Job is the read-only input handed to a strategy.
type Job struct {
	Strategy    domain.Strategy
	NCandidates int
	Experiments *domain.Experiments
	Pendings    *domain.Candidates
}

// Func generates candidates for a job.
type Func func(ctx context.Context, job Job) (domain.Candidates, error)

// Registry manages the available strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Func
	metrics    *observability.Metrics
}

// Option configures the Registry.
type Option func(*Registry)

// WithMetrics times every generation.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(r *Registry) {
		r.metrics = metrics
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		strategies: make(map[string]Func),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDefaultRegistry creates a registry with the built-in strategies.
func NewDefaultRegistry(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	r.Register(RandomType, Random)
	return r
}

// Register adds a strategy to the registry.
// If a strategy with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = fn
}

// Lookup returns the strategy registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.strategies[name]
	return fn, ok
}

// Names returns the registered strategy names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Generate validates the request and runs its strategy synchronously.
func (r *Registry) Generate(ctx context.Context, req *candidates.Request) (domain.Candidates, error) {
	if err := req.Validate(); err != nil {
		return domain.Candidates{}, err
	}
	c := req.Clone()
	return r.run(ctx, Job{
		Strategy:    c.Strategy,
		NCandidates: c.NCandidates,
		Experiments: c.Experiments,
	})
}

// GenerateProposal runs the strategy of a CLAIMED proposal. Pendings are
// passed on so the strategy can avoid proposing them again.
func (r *Registry) GenerateProposal(ctx context.Context, p *candidates.Proposal) (domain.Candidates, error) {
	if p.State != candidates.StateClaimed {
		return domain.Candidates{}, fmt.Errorf("%w, got %s", ErrNotClaimed, p.State)
	}
	if err := p.Validate(); err != nil {
		return domain.Candidates{}, err
	}
	c := p.Clone()
	return r.run(ctx, Job{
		Strategy:    c.Strategy,
		NCandidates: c.NCandidates,
		Experiments: c.Experiments,
		Pendings:    c.Pendings,
	})
}

func (r *Registry) run(ctx context.Context, job Job) (result domain.Candidates, err error) {
	fn, ok := r.Lookup(job.Strategy.Type)
	if !ok {
		return domain.Candidates{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, job.Strategy.Type)
	}

	started := time.Now()
	defer func() { r.metrics.ObserveGenerate(job.Strategy.Type, started, err) }()

	result, err = fn(ctx, job)
	if err != nil {
		return domain.Candidates{}, fmt.Errorf("strategy %s: %w", job.Strategy.Type, err)
	}

	if result.Len() != job.NCandidates {
		return domain.Candidates{}, fmt.Errorf("%w: expected %d rows, got %d",
			ErrInvalidResult, job.NCandidates, result.Len())
	}
	if err := job.Strategy.Domain.ValidateCandidates("candidates", result); err != nil {
		return domain.Candidates{}, fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}
	return result, nil
}
