package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
)

const (
	fileExt    = ".json"
	tempPrefix = ".tmp-"
)

// Store implements ports.ProposalStore using the local filesystem.
// It stores proposals as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".proposer/proposals".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".proposer", "proposals")
	}
	return &Store{BasePath: basePath}
}

// Save persists the proposal to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, id string, proposal *candidates.Proposal) error {
	destPath, err := s.path(id)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure proposal directory: %w", err)
	}

	data, err := json.MarshalIndent(proposal, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal proposal: %w", err)
	}

	// Same directory as the destination, so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(s.BasePath, tempPrefix+id+"-*"+fileExt)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Cannot rename an open file on Windows
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing proposal file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to proposal file: %w", err)
	}
	return nil
}

// Load reads and re-validates the proposal stored in a JSON file.
func (s *Store) Load(ctx context.Context, id string) (*candidates.Proposal, error) {
	filePath, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to read proposal file: %w", err)
	}

	var proposal candidates.Proposal
	if err := json.Unmarshal(data, &proposal); err != nil {
		return nil, fmt.Errorf("failed to decode proposal %s: %w", id, err)
	}
	return &proposal, nil
}

// Delete removes the proposal file.
func (s *Store) Delete(ctx context.Context, id string) error {
	filePath, err := s.path(id)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete proposal file: %w", err)
	}
	return nil
}

// List returns all stored proposal IDs in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	// ReadDir sorts by filename
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		// Temp files are hidden, and path rejects ids that would be.
		if entry.IsDir() || filepath.Ext(name) != fileExt || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	return ids, nil
}

func (s *Store) path(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("proposal id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid proposal id %q", id)
	}
	return filepath.Join(s.BasePath, id+fileExt), nil
}
