package ports

import (
	"context"

	"github.com/aretw0/proposer/pkg/candidates"
)

// ProposalStore defines the interface for persisting proposals.
// Implementations must copy on Save and Load so callers never share a
// mutable proposal with the store.
type ProposalStore interface {
	// Save persists the proposal under the given ID, replacing any previous version.
	Save(ctx context.Context, id string, proposal *candidates.Proposal) error

	// Load retrieves the proposal for a given ID.
	// Returns domain.ErrProposalNotFound if the proposal does not exist.
	Load(ctx context.Context, id string) (*candidates.Proposal, error)

	// Delete removes the proposal for a given ID. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored proposals in ascending order.
	List(ctx context.Context) ([]string, error)
}

// ProposalIndex is implemented by stores that can filter proposals by state
// without loading them.
type ProposalIndex interface {
	// ListByState returns the IDs of proposals in the given state in ascending order.
	ListByState(ctx context.Context, state candidates.ProposalState) ([]string, error)
}
