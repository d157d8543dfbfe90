package lifecycle_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/proposer/pkg/adapters/memory"
	"github.com/aretw0/proposer/pkg/adapters/redis"
	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
	"github.com/aretw0/proposer/pkg/lifecycle"
	"github.com/aretw0/proposer/pkg/observability"
	"github.com/aretw0/proposer/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances one second per reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("p-%03d", n.Add(1)) }
}

func newProposal(t *testing.T) *candidates.Proposal {
	t.Helper()
	p := ports.ContractProposal(t)
	p.LastUpdatedAt = nil
	return p
}

func TestManager_Lifecycle(t *testing.T) {
	clock := newClock()
	mgr := lifecycle.NewManager(memory.NewStore(),
		lifecycle.WithClock(clock.Now),
		lifecycle.WithIDGenerator(sequentialIDs()),
	)
	ctx := context.Background()

	id, err := mgr.Submit(ctx, newProposal(t))
	require.NoError(t, err)
	assert.Equal(t, "p-001", id)

	stored, err := mgr.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, candidates.StateCreated, stored.State)
	require.NotNil(t, stored.LastUpdatedAt)

	claimed, err := mgr.Claim(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, candidates.StateClaimed, claimed.State)
	assert.True(t, claimed.LastUpdatedAt.After(*stored.LastUpdatedAt))

	result := domain.Candidates{Rows: []domain.CandidateRow{
		{Inputs: map[string]any{"temperature": 30.0, "catalyst": "pt"}},
		{Inputs: map[string]any{"temperature": 70.0, "catalyst": "pd"}},
	}}
	finished, err := mgr.Finish(ctx, id, result)
	require.NoError(t, err)
	assert.Equal(t, candidates.StateFinished, finished.State)

	stored, err = mgr.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, finished, stored)

	_, err = mgr.Fail(ctx, id, "too late")
	assert.ErrorIs(t, err, candidates.ErrIllegalTransition)
}

func TestManager_FailFromCreated(t *testing.T) {
	mgr := lifecycle.NewManager(memory.NewStore(), lifecycle.WithClock(newClock().Now))
	ctx := context.Background()

	id, err := mgr.Submit(ctx, newProposal(t))
	require.NoError(t, err)

	failed, err := mgr.Fail(ctx, id, "strategy unavailable")
	require.NoError(t, err)
	assert.Equal(t, candidates.StateFailed, failed.State)
	assert.Equal(t, "strategy unavailable", failed.Message())

	_, err = mgr.Claim(ctx, id)
	assert.ErrorIs(t, err, candidates.ErrIllegalTransition)
}

func TestManager_SubmitRejects(t *testing.T) {
	mgr := lifecycle.NewManager(memory.NewStore())
	ctx := context.Background()

	p := ports.ContractProposal(t)
	claimed, err := p.Claim(p.LastUpdatedAt.Add(time.Hour))
	require.NoError(t, err)
	_, err = mgr.Submit(ctx, claimed)
	assert.ErrorIs(t, err, lifecycle.ErrNotCreated)

	invalid := newProposal(t)
	invalid.NCandidates = 0
	_, err = mgr.Submit(ctx, invalid)
	assert.ErrorIs(t, err, domain.ErrStructural)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_SubmitDoesNotAlias(t *testing.T) {
	mgr := lifecycle.NewManager(memory.NewStore())
	ctx := context.Background()

	p := newProposal(t)
	id, err := mgr.Submit(ctx, p)
	require.NoError(t, err)
	assert.Nil(t, p.LastUpdatedAt, "Submit must not stamp the caller's proposal")

	stored, err := mgr.Get(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastUpdatedAt)
}

func TestManager_NotFound(t *testing.T) {
	mgr := lifecycle.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := mgr.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProposalNotFound)
	_, err = mgr.Claim(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProposalNotFound)
	assert.ErrorIs(t, mgr.Delete(ctx, "missing"), domain.ErrProposalNotFound)
}

func TestManager_Delete(t *testing.T) {
	mgr := lifecycle.NewManager(memory.NewStore())
	ctx := context.Background()

	id, err := mgr.Submit(ctx, newProposal(t))
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(ctx, id))

	_, err = mgr.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrProposalNotFound)
}

func TestManager_ConcurrentClaim(t *testing.T) {
	mgr := lifecycle.NewManager(memory.NewStore(), lifecycle.WithClock(newClock().Now))
	ctx := context.Background()

	id, err := mgr.Submit(ctx, newProposal(t))
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		losers  atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Claim(ctx, id)
			switch {
			case err == nil:
				winners.Add(1)
			case assert.ErrorIs(t, err, candidates.ErrIllegalTransition):
				losers.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, int32(19), losers.Load())
}

func TestManager_ConcurrentClaimAcrossReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewStore()
	locker := redis.NewLocker(client, "proposer:").WithRetryInterval(5 * time.Millisecond)
	clock := newClock()

	// Two managers share a store but not their local mutexes, like two replicas.
	replicas := []*lifecycle.Manager{
		lifecycle.NewManager(store, lifecycle.WithLocker(locker), lifecycle.WithClock(clock.Now)),
		lifecycle.NewManager(store, lifecycle.WithLocker(locker), lifecycle.WithClock(clock.Now)),
	}
	ctx := context.Background()

	id, err := replicas[0].Submit(ctx, newProposal(t))
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := replicas[i%2].Claim(ctx, id); err == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.False(t, mr.Exists("proposer:lock:"+id), "locks must be released")
}

// listOnlyStore hides the ProposalIndex capability of the wrapped store.
type listOnlyStore struct {
	ports.ProposalStore
}

func TestManager_NextCreated(t *testing.T) {
	for name, store := range map[string]ports.ProposalStore{
		"indexed":   memory.NewStore(),
		"unindexed": listOnlyStore{memory.NewStore()},
	} {
		t.Run(name, func(t *testing.T) {
			mgr := lifecycle.NewManager(store,
				lifecycle.WithClock(newClock().Now),
				lifecycle.WithIDGenerator(sequentialIDs()),
			)
			ctx := context.Background()

			_, _, err := mgr.NextCreated(ctx)
			assert.ErrorIs(t, err, lifecycle.ErrNoPendingProposals)

			for range 3 {
				_, err := mgr.Submit(ctx, newProposal(t))
				require.NoError(t, err)
			}
			_, err = mgr.Fail(ctx, "p-001", "cancelled")
			require.NoError(t, err)

			id, p, err := mgr.NextCreated(ctx)
			require.NoError(t, err)
			assert.Equal(t, "p-002", id)
			assert.Equal(t, candidates.StateClaimed, p.State)

			id, _, err = mgr.NextCreated(ctx)
			require.NoError(t, err)
			assert.Equal(t, "p-003", id)

			_, _, err = mgr.NextCreated(ctx)
			assert.ErrorIs(t, err, lifecycle.ErrNoPendingProposals)

			claimed, err := mgr.ListByState(ctx, candidates.StateClaimed)
			require.NoError(t, err)
			assert.Equal(t, []string{"p-002", "p-003"}, claimed)
		})
	}
}

func TestManager_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	mgr := lifecycle.NewManager(memory.NewStore(),
		lifecycle.WithClock(newClock().Now),
		lifecycle.WithMetrics(observability.NewMetrics(reg)),
	)
	ctx := context.Background()

	id, err := mgr.Submit(ctx, newProposal(t))
	require.NoError(t, err)
	_, err = mgr.Claim(ctx, id)
	require.NoError(t, err)
	_, err = mgr.Finish(ctx, id, domain.Candidates{Rows: []domain.CandidateRow{
		{Inputs: map[string]any{"temperature": 99.0, "catalyst": "pd"}},
	}})
	require.Error(t, err)

	expected := `
# HELP proposer_proposal_transitions_total Proposal lifecycle transitions, by source and target state.
# TYPE proposer_proposal_transitions_total counter
proposer_proposal_transitions_total{from="CREATED",to="CLAIMED"} 1
# HELP proposer_validation_errors_total Field errors reported by request and proposal validation, by kind.
# TYPE proposer_validation_errors_total counter
proposer_validation_errors_total{kind="domain_violation"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"proposer_proposal_transitions_total", "proposer_validation_errors_total"))
}
