// Package worker executes proposals: it claims CREATED proposals, runs their
// strategy and records the outcome as FINISHED or FAILED.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/proposer/internal/logging"
	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/lifecycle"
	"github.com/aretw0/proposer/pkg/strategy"
)

// DefaultInterval is the polling interval of Run.
const DefaultInterval = time.Second

// Worker claims and executes proposals.
type Worker struct {
	manager  *lifecycle.Manager
	registry *strategy.Registry
	logger   *slog.Logger
}

// Option configures the Worker.
type Option func(*Worker)

// WithLogger configures a logger for the Worker.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// New creates a worker executing proposals of manager with strategies from registry.
func New(manager *lifecycle.Manager, registry *strategy.Registry, opts ...Option) *Worker {
	w := &Worker{
		manager:  manager,
		registry: registry,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Process claims the proposal with the given ID and executes it.
// Strategy failures are recorded on the proposal and are not returned;
// the returned error reports claim or storage failures. When ctx ends during
// generation the proposal is left CLAIMED and the context error is returned.
func (w *Worker) Process(ctx context.Context, id string) (*candidates.Proposal, error) {
	claimed, err := w.manager.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	return w.execute(ctx, id, claimed)
}

// Drain executes CREATED proposals until none remain and returns how many it ran.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		id, claimed, err := w.manager.NextCreated(ctx)
		if errors.Is(err, lifecycle.ErrNoPendingProposals) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if _, err := w.execute(ctx, id, claimed); err != nil {
			return n, err
		}
		n++
	}
}

// Run drains the queue every interval until ctx is canceled.
// Errors are logged and do not stop the loop.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("worker started", "interval", interval)
	for {
		if n, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("worker drain failed", "err", err)
		} else if n > 0 {
			w.logger.Debug("worker drained proposals", "count", n)
		}

		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Worker) execute(ctx context.Context, id string, claimed *candidates.Proposal) (*candidates.Proposal, error) {
	result, genErr := w.registry.GenerateProposal(ctx, claimed)
	if genErr != nil && ctx.Err() != nil {
		// Interrupted, not failed: the proposal stays CLAIMED for the timeout policy.
		w.logger.Info("proposal generation interrupted", "proposal_id", id, "err", genErr)
		return nil, fmt.Errorf("proposal %s: %w", id, context.Cause(ctx))
	}
	if genErr != nil {
		w.logger.Warn("proposal generation failed", "proposal_id", id, "err", genErr)
		return w.manager.Fail(ctx, id, genErr.Error())
	}
	return w.manager.Finish(ctx, id, result)
}
