package ports_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
	"github.com/aretw0/proposer/pkg/ports"
)

// MockStore is a minimal in-memory ProposalStore used to check the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]*candidates.Proposal
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]*candidates.Proposal)}
}

func (m *MockStore) Save(ctx context.Context, id string, p *candidates.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = p.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, id string) (*candidates.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}
	return p.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func TestProposalStore_Contract(t *testing.T) {
	ports.RunProposalStoreContract(t, NewMockStore())
}
