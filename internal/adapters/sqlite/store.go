package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"

	_ "modernc.org/sqlite"
)

// Store implements ports.ProposalStore on a SQLite database.
// The full proposal is kept as a JSON body; state and last_updated_at are
// copied into columns so they can be queried.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle and migrates it.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS proposals (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		body JSON NOT NULL,
		last_updated_at TEXT
	);
	CREATE INDEX IF NOT EXISTS proposals_state ON proposals (state, id);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Save upserts the proposal.
func (s *Store) Save(ctx context.Context, id string, proposal *candidates.Proposal) error {
	body, err := json.Marshal(proposal)
	if err != nil {
		return fmt.Errorf("failed to marshal proposal: %w", err)
	}

	var updated sql.NullString
	if proposal.LastUpdatedAt != nil {
		updated = sql.NullString{String: proposal.LastUpdatedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	query := `INSERT INTO proposals (id, state, body, last_updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET state = excluded.state, body = excluded.body, last_updated_at = excluded.last_updated_at`
	if _, err := s.db.ExecContext(ctx, query, id, string(proposal.State), string(body), updated); err != nil {
		return fmt.Errorf("failed to save proposal: %w", err)
	}
	return nil
}

// Load retrieves and re-validates the proposal.
func (s *Store) Load(ctx context.Context, id string) (*candidates.Proposal, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM proposals WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to load proposal: %w", err)
	}

	var proposal candidates.Proposal
	if err := json.Unmarshal([]byte(body), &proposal); err != nil {
		return nil, fmt.Errorf("failed to decode proposal %s: %w", id, err)
	}
	return &proposal, nil
}

// Delete removes the proposal.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}
	return nil
}

// List returns all proposal IDs in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.queryIDs(ctx, `SELECT id FROM proposals ORDER BY id`)
}

// ListByState returns the IDs of proposals in the given state in ascending order.
func (s *Store) ListByState(ctx context.Context, state candidates.ProposalState) ([]string, error) {
	return s.queryIDs(ctx, `SELECT id FROM proposals WHERE state = ? ORDER BY id`, string(state))
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
