package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
)

const snapshotVersion = 1

// snapshotFile is the on-disk layout. Entries keep enrollment order.
type snapshotFile struct {
	Version int            `json:"version"`
	Entries []domain.Entry `json:"entries"`
}

// FilePersister keeps the face database in a single JSON file that is replaced
// atomically (write to a temp file in the same directory, then rename).
type FilePersister struct {
	path string
}

// NewFilePersister creates a persister for the snapshot at path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the snapshot location.
func (p *FilePersister) Path() string {
	return p.path
}

// Load reads the snapshot. A missing file returns ErrSnapshotNotFound.
func (p *FilePersister) Load(_ context.Context) ([]domain.Entry, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", p.path, err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", p.path, err)
	}

	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", p.path, snap.Version)
	}

	return snap.Entries, nil
}

// Save replaces the snapshot with entries.
func (p *FilePersister) Save(_ context.Context, entries []domain.Entry) error {
	if entries == nil {
		entries = []domain.Entry{}
	}

	data, err := json.Marshal(snapshotFile{
		Version: snapshotVersion,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if dir := filepath.Dir(p.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	if err := renameio.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", p.path, err)
	}

	return nil
}

var _ Persister = (*FilePersister)(nil)
