package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/proposer/internal/adapters/file"
	"github.com/aretw0/proposer/pkg/adapters/memory"
	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/persistence/middleware"
	"github.com/aretw0/proposer/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingMiddleware_Contract(t *testing.T) {
	var buf bytes.Buffer
	store := middleware.Chain(memory.NewStore(), middleware.NewLoggingMiddleware(newLogger(&buf)))
	ports.RunProposalStoreContract(t, store)

	assert.Contains(t, buf.String(), "op=save")
	assert.Contains(t, buf.String(), "op=load")
	assert.NotContains(t, buf.String(), "store call failed", "not found is not a failure")
}

func TestLoggingMiddleware_KeepsIndex(t *testing.T) {
	mw := middleware.NewLoggingMiddleware(newLogger(&bytes.Buffer{}))

	_, ok := mw(memory.NewStore()).(ports.ProposalIndex)
	assert.True(t, ok)

	_, ok = mw(file.New(t.TempDir())).(ports.ProposalIndex)
	assert.False(t, ok)
}

func TestLoggingMiddleware_ListByState(t *testing.T) {
	var buf bytes.Buffer
	store := middleware.Chain(memory.NewStore(), middleware.NewLoggingMiddleware(newLogger(&buf)))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", ports.ContractProposal(t)))
	ids, err := store.(ports.ProposalIndex).ListByState(ctx, candidates.StateCreated)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
	assert.Contains(t, buf.String(), "op=list_by_state")
}

type failingStore struct{ ports.ProposalStore }

func (failingStore) Load(context.Context, string) (*candidates.Proposal, error) {
	return nil, errors.New("disk on fire")
}

func TestLoggingMiddleware_Failures(t *testing.T) {
	var buf bytes.Buffer
	store := middleware.NewLoggingMiddleware(newLogger(&buf))(failingStore{memory.NewStore()})

	_, err := store.Load(context.Background(), "x")
	assert.EqualError(t, err, "disk on fire")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "proposal_id=x")
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.ProposalStore) ports.ProposalStore {
			order = append(order, name)
			return next
		}
	}

	middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	assert.Equal(t, []string{"inner", "outer"}, order)
}
