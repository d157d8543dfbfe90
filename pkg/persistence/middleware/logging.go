package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
	"github.com/aretw0/proposer/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.ProposalStore
	logger *slog.Logger
}

// indexedLoggingMiddleware keeps ListByState visible when the wrapped
// store is indexed.
type indexedLoggingMiddleware struct {
	*loggingMiddleware
	index ports.ProposalIndex
}

// NewLoggingMiddleware logs every store call at debug level and failures at
// warn level. A missing proposal is not a failure.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.ProposalStore) ports.ProposalStore {
		m := &loggingMiddleware{next: next, logger: logger}
		if index, ok := next.(ports.ProposalIndex); ok {
			return &indexedLoggingMiddleware{loggingMiddleware: m, index: index}
		}
		return m
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op, id string, started time.Time, err error, attrs ...any) {
	attrs = append(attrs, "op", op, "duration", time.Since(started))
	if id != "" {
		attrs = append(attrs, "proposal_id", id)
	}
	if err != nil && !errors.Is(err, domain.ErrProposalNotFound) {
		m.logger.WarnContext(ctx, "store call failed", append(attrs, "error", err)...)
		return
	}
	m.logger.DebugContext(ctx, "store call", attrs...)
}

func (m *loggingMiddleware) Save(ctx context.Context, id string, proposal *candidates.Proposal) error {
	started := time.Now()
	err := m.next.Save(ctx, id, proposal)
	m.log(ctx, "save", id, started, err, "state", proposal.State)
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, id string) (*candidates.Proposal, error) {
	started := time.Now()
	p, err := m.next.Load(ctx, id)
	m.log(ctx, "load", id, started, err)
	return p, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, id string) error {
	started := time.Now()
	err := m.next.Delete(ctx, id)
	m.log(ctx, "delete", id, started, err)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	started := time.Now()
	ids, err := m.next.List(ctx)
	m.log(ctx, "list", "", started, err, "count", len(ids))
	return ids, err
}

func (m *indexedLoggingMiddleware) ListByState(ctx context.Context, state candidates.ProposalState) ([]string, error) {
	started := time.Now()
	ids, err := m.index.ListByState(ctx, state)
	m.log(ctx, "list_by_state", "", started, err, "state", state, "count", len(ids))
	return ids, err
}
