package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
)

// Store implements ports.ProposalStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*candidates.Proposal
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*candidates.Proposal),
	}
}

// Save persists a copy of the proposal in memory.
func (s *Store) Save(ctx context.Context, id string, proposal *candidates.Proposal) error {
	copied := proposal.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = copied
	return nil
}

// Load retrieves the proposal from memory.
func (s *Store) Load(ctx context.Context, id string) (*candidates.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	proposal, ok := s.data[id]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}

	// Copy on read so the caller can't mutate the stored proposal through the pointer
	return proposal.Clone(), nil
}

// Delete removes the proposal.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored proposal IDs in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// ListByState returns the IDs of proposals in the given state in ascending order.
func (s *Store) ListByState(ctx context.Context, state candidates.ProposalState) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, p := range s.data {
		if p.State == state {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}
