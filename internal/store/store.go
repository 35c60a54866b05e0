package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
)

// FaceStore is the in-memory identity -> embedding mapping backed by a Persister.
// Every mutation rewrites the whole snapshot before returning. Iteration order is
// the order in which identities were first enrolled; overwriting an identity keeps
// its position.
type FaceStore struct {
	mu        sync.RWMutex
	order     []string
	entries   map[string]domain.Embedding
	persister Persister
	logger    *slog.Logger
}

// New creates an empty FaceStore. Call Load to restore the persisted snapshot.
func New(persister Persister, logger *slog.Logger) *FaceStore {
	return &FaceStore{
		entries:   make(map[string]domain.Embedding),
		persister: persister,
		logger:    logger,
	}
}

// Open creates a FaceStore and loads the persisted snapshot into it.
func Open(ctx context.Context, persister Persister, logger *slog.Logger) *FaceStore {
	s := New(persister, logger)
	s.Load(ctx)
	return s
}

// Load replaces the in-memory mapping with the persisted snapshot.
// A missing snapshot starts an empty database. A corrupt or unreadable snapshot is
// logged and also starts an empty database, so enrollment keeps working.
func (s *FaceStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()

	entries, err := s.persister.Load(ctx)
	if errors.Is(err, ErrSnapshotNotFound) {
		s.logger.Info("no existing face database found, starting fresh")
		return
	}
	if err != nil {
		s.logger.Error("failed to load face database, starting empty; the next enrollment or clear overwrites the persisted snapshot",
			slog.Any("error", err))
		return
	}

	if err := validateSnapshot(entries); err != nil {
		s.logger.Error("face database snapshot is corrupt, starting empty; the next enrollment or clear overwrites it",
			slog.Any("error", err))
		return
	}

	for _, e := range entries {
		s.order = append(s.order, e.Identity)
		s.entries[e.Identity] = e.Embedding.Clone()
	}

	s.logger.Info("face database loaded", slog.Int("faces", len(s.order)))
}

// Put inserts or overwrites the embedding for identity and persists the whole
// mapping. Every stored embedding has the same length; a different length is
// rejected with domain.ErrShapeMismatch and nothing is written. On a persistence
// failure the in-memory mapping keeps the new value and domain.ErrStorage is
// returned.
func (s *FaceStore) Put(ctx context.Context, identity string, embedding domain.Embedding) (bool, error) {
	if identity == "" {
		return false, domain.ErrInvalidIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDimension(identity, embedding); err != nil {
		return false, err
	}

	_, replaced := s.entries[identity]
	if !replaced {
		s.order = append(s.order, identity)
	}
	s.entries[identity] = embedding.Clone()

	if err := s.persist(ctx); err != nil {
		return replaced, err
	}

	return replaced, nil
}

// Get returns a copy of the embedding stored for identity.
func (s *FaceStore) Get(identity string) (domain.Embedding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[identity]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// All returns a copy of every entry keyed by identity.
func (s *FaceStore) All() map[string]domain.Embedding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Embedding, len(s.entries))
	for id, e := range s.entries {
		out[id] = e.Clone()
	}
	return out
}

// Entries returns a copy of every entry in enrollment order.
func (s *FaceStore) Entries() []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot()
}

// Clear removes every entry and persists the empty mapping.
func (s *FaceStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()

	if err := s.persist(ctx); err != nil {
		return err
	}

	s.logger.Info("face database cleared")
	return nil
}

// Count returns the number of enrolled identities.
func (s *FaceStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}

// Dimension returns the embedding length shared by every entry, or 0 when empty.
func (s *FaceStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dimension()
}

// dimension must be called with the lock held.
func (s *FaceStore) dimension() int {
	if len(s.order) == 0 {
		return 0
	}
	return len(s.entries[s.order[0]])
}

// checkDimension must be called with the write lock held. Overwriting the only
// entry may change the dimension.
func (s *FaceStore) checkDimension(identity string, embedding domain.Embedding) error {
	if len(embedding) == 0 {
		return domain.ErrShapeMismatch.WithError(errors.New("empty embedding"))
	}
	if len(s.order) == 1 && s.order[0] == identity {
		return nil
	}
	if d := s.dimension(); d > 0 && d != len(embedding) {
		return domain.ErrShapeMismatch.WithError(
			fmt.Errorf("embedding length %d, stored faces have %d", len(embedding), d))
	}
	return nil
}

// persist must be called with the write lock held.
func (s *FaceStore) persist(ctx context.Context) error {
	if err := s.persister.Save(ctx, s.snapshot()); err != nil {
		s.logger.Error("failed to save face database",
			slog.Int("faces", len(s.order)),
			slog.Any("error", err),
		)
		return domain.ErrStorage.WithError(err)
	}

	s.logger.Debug("face database saved", slog.Int("faces", len(s.order)))
	return nil
}

func (s *FaceStore) snapshot() []domain.Entry {
	out := make([]domain.Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, domain.Entry{
			Identity:  id,
			Embedding: s.entries[id].Clone(),
		})
	}
	return out
}

func (s *FaceStore) reset() {
	s.order = nil
	s.entries = make(map[string]domain.Embedding)
}

// validateSnapshot rejects snapshots that could not have been written by FaceStore.
func validateSnapshot(entries []domain.Entry) error {
	seen := make(map[string]struct{}, len(entries))
	dimension := -1

	for i, e := range entries {
		if e.Identity == "" {
			return fmt.Errorf("entry %d: empty identity", i)
		}
		if _, dup := seen[e.Identity]; dup {
			return fmt.Errorf("entry %d: duplicate identity %q", i, e.Identity)
		}
		seen[e.Identity] = struct{}{}

		if dimension == -1 {
			dimension = len(e.Embedding)
		}
		if len(e.Embedding) == 0 || len(e.Embedding) != dimension {
			return fmt.Errorf("entry %d (%s): embedding length %d, expected %d", i, e.Identity, len(e.Embedding), dimension)
		}
	}

	return nil
}
