package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/proposer/internal/logging"
	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
	"github.com/aretw0/proposer/pkg/observability"
	"github.com/aretw0/proposer/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

var (
	// ErrNotCreated is returned when a submitted proposal is not in state CREATED.
	ErrNotCreated = errors.New("submitted proposal must be in state CREATED")

	// ErrNoPendingProposals is returned by NextCreated when nothing is waiting.
	ErrNoPendingProposals = errors.New("no CREATED proposals to claim")
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates proposal access, ensuring safe concurrent transitions.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.ProposalStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics records transitions and validation failures.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithClock sets the time source used to stamp transitions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator sets the function that names submitted proposals (default: random UUIDs).
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		m.newID = newID
	}
}

// NewManager creates a new Manager with the given persistence store.
func NewManager(store ports.ProposalStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Submit validates a CREATED proposal, stamps it with the current time and
// stores it under a fresh ID.
func (m *Manager) Submit(ctx context.Context, proposal *candidates.Proposal) (string, error) {
	if proposal.State != candidates.StateCreated {
		return "", fmt.Errorf("%w, got %s", ErrNotCreated, proposal.State)
	}
	if err := proposal.Validate(); err != nil {
		m.metrics.ObserveValidation(err)
		return "", err
	}

	p := proposal.Clone()
	now := m.now().UTC()
	p.LastUpdatedAt = &now

	id := m.newID()
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Save(ctx, id, p)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store proposal: %w", err)
	}

	m.logger.Info("proposal submitted",
		"proposal_id", id,
		"strategy", p.Strategy.Type,
		"n_candidates", p.NCandidates,
	)
	return id, nil
}

// Get loads the current version of a proposal.
func (m *Manager) Get(ctx context.Context, id string) (*candidates.Proposal, error) {
	return m.store.Load(ctx, id)
}

// List returns the IDs of all proposals.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// ListByState returns the IDs of proposals in the given state in ascending order.
// Stores implementing ports.ProposalIndex answer directly; otherwise every
// proposal is loaded and filtered.
func (m *Manager) ListByState(ctx context.Context, state candidates.ProposalState) ([]string, error) {
	if index, ok := m.store.(ports.ProposalIndex); ok {
		return index.ListByState(ctx, state)
	}

	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, id := range ids {
		p, err := m.store.Load(ctx, id)
		if errors.Is(err, domain.ErrProposalNotFound) {
			continue // deleted since List
		}
		if err != nil {
			return nil, err
		}
		if p.State == state {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// Delete removes a proposal. Returns domain.ErrProposalNotFound if it does not exist.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		if _, err := m.store.Load(ctx, id); err != nil {
			return err
		}
		if err := m.store.Delete(ctx, id); err != nil {
			return err
		}
		m.logger.Info("proposal deleted", "proposal_id", id)
		return nil
	})
}

// Claim moves a CREATED proposal to CLAIMED. Only one caller can win the claim.
func (m *Manager) Claim(ctx context.Context, id string) (*candidates.Proposal, error) {
	return m.transition(ctx, id, func(p *candidates.Proposal, at time.Time) (*candidates.Proposal, error) {
		return p.Claim(at)
	})
}

// Finish moves a CLAIMED proposal to FINISHED with the generated candidates.
func (m *Manager) Finish(ctx context.Context, id string, result domain.Candidates) (*candidates.Proposal, error) {
	return m.transition(ctx, id, func(p *candidates.Proposal, at time.Time) (*candidates.Proposal, error) {
		return p.Finish(result, at)
	})
}

// Fail moves a CREATED or CLAIMED proposal to FAILED with the given message.
func (m *Manager) Fail(ctx context.Context, id string, message string) (*candidates.Proposal, error) {
	return m.transition(ctx, id, func(p *candidates.Proposal, at time.Time) (*candidates.Proposal, error) {
		return p.Fail(message, at)
	})
}

// NextCreated claims the first CREATED proposal in ID order.
// Proposals claimed concurrently by someone else are skipped.
func (m *Manager) NextCreated(ctx context.Context) (string, *candidates.Proposal, error) {
	ids, err := m.ListByState(ctx, candidates.StateCreated)
	if err != nil {
		return "", nil, err
	}
	for _, id := range ids {
		p, err := m.Claim(ctx, id)
		switch {
		case err == nil:
			return id, p, nil
		case errors.Is(err, candidates.ErrIllegalTransition), errors.Is(err, domain.ErrProposalNotFound):
			continue // lost the race
		default:
			return "", nil, err
		}
	}
	return "", nil, ErrNoPendingProposals
}

type transitionFunc func(p *candidates.Proposal, at time.Time) (*candidates.Proposal, error)

// transition performs load, apply and save under the proposal lock.
func (m *Manager) transition(ctx context.Context, id string, apply transitionFunc) (*candidates.Proposal, error) {
	var next *candidates.Proposal
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}

		next, err = apply(current, m.now())
		if err != nil {
			m.metrics.ObserveValidation(err)
			return err
		}

		if err := m.store.Save(ctx, id, next); err != nil {
			return fmt.Errorf("failed to store proposal: %w", err)
		}

		m.metrics.ObserveTransition(current.State.String(), next.State.String())
		m.logger.Info("proposal transitioned",
			"proposal_id", id,
			"from", current.State,
			"to", next.State,
		)
		return nil
	})
	if err != nil {
		m.logger.Debug("proposal transition rejected", "proposal_id", id, "err", err)
		return nil, err
	}
	return next, nil
}

// Store returns the underlying proposal store.
func (m *Manager) Store() ports.ProposalStore {
	return m.store
}

// WithLock executes a function while holding the lock for the proposal.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"proposal_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
