package store

import (
	"context"
	"errors"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
)

// ErrSnapshotNotFound is returned by a Persister when no snapshot was ever written.
var ErrSnapshotNotFound = errors.New("face database snapshot not found")

// Persister stores and restores a full snapshot of the face database.
// Save always receives every entry, in insertion order, and replaces whatever
// was stored before. Implementations must not retain the slice.
type Persister interface {
	Load(ctx context.Context) ([]domain.Entry, error)
	Save(ctx context.Context, entries []domain.Entry) error
}
