package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ContractProposal returns the valid CREATED proposal used by the contract suite.
func ContractProposal(t *testing.T) *candidates.Proposal {
	t.Helper()
	strategy := domain.Strategy{
		Type: "random",
		Domain: domain.Domain{
			Inputs: []domain.Feature{
				{Key: "temperature", Type: domain.FeatureContinuous, Bounds: []float64{20, 80}},
				{Key: "catalyst", Type: domain.FeatureCategorical, Categories: []string{"pd", "pt"}},
			},
			Outputs: []domain.Feature{{Key: "yield", Type: domain.FeatureContinuous}},
		},
		Params: map[string]any{"seed": 7.0},
	}
	experiments := domain.Experiments{Rows: []domain.ExperimentRow{{
		Inputs:  map[string]any{"temperature": 40.0, "catalyst": "pd"},
		Outputs: map[string]domain.OutputValue{"yield": {Value: 0.61}},
	}}}

	p, err := candidates.NewProposal(strategy,
		candidates.WithNCandidates(2),
		candidates.WithExperiments(experiments),
		candidates.WithLastUpdatedAt(time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)),
	)
	require.NoError(t, err)
	return p
}

// RunProposalStoreContract runs a suite of tests to verify that a ProposalStore implementation
// adheres to the defined interface contract.
func RunProposalStoreContract(t *testing.T, store ProposalStore) {
	ctx := context.Background()
	id := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		proposal := ContractProposal(t)

		err := store.Save(ctx, id, proposal)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, proposal, loaded)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		proposal := ContractProposal(t)
		require.NoError(t, store.Save(ctx, id, proposal))

		claimed, err := proposal.Claim(proposal.LastUpdatedAt.Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, id, claimed))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, candidates.StateClaimed, loaded.State)
		assert.Equal(t, *claimed.LastUpdatedAt, *loaded.LastUpdatedAt)
	})

	t.Run("Isolation", func(t *testing.T) {
		proposal := ContractProposal(t)
		require.NoError(t, store.Save(ctx, id, proposal))

		proposal.Experiments.Rows[0].Inputs["temperature"] = 79.0
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 40.0, loaded.Experiments.Rows[0].Inputs["temperature"], "store must not alias the saved proposal")

		loaded.NCandidates = 99
		again, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 2, again.NCandidates, "store must not alias the loaded proposal")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrProposalNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, id, ContractProposal(t))
		require.NoError(t, err)

		err = store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrProposalNotFound, "Load after Delete should return ErrProposalNotFound")

		assert.NoError(t, store.Delete(ctx, id), "Delete of a missing ID should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-b"
		id2 := id + "-a"
		require.NoError(t, store.Save(ctx, id1, ContractProposal(t)))
		require.NoError(t, store.Save(ctx, id2, ContractProposal(t)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
		assert.IsIncreasing(t, ids, "List should return IDs in ascending order")
	})
}
