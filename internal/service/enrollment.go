package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
)

// FaceStore is the storage the services need; *store.FaceStore implements it.
type FaceStore interface {
	Put(ctx context.Context, identity string, embedding domain.Embedding) (bool, error)
	Entries() []domain.Entry
	Count() int
	Dimension() int
	Clear(ctx context.Context) error
}

// EnrollmentService stores one embedding per identity. Enrolling an existing
// identity replaces its embedding.
type EnrollmentService struct {
	store     FaceStore
	dimension int
	logger    *slog.Logger
}

// NewEnrollmentService creates the service. dimension is the embedding length
// of the deployed model; 0 accepts any length consistent with the store.
func NewEnrollmentService(store FaceStore, dimension int, logger *slog.Logger) *EnrollmentService {
	return &EnrollmentService{
		store:     store,
		dimension: dimension,
		logger:    logger,
	}
}

// ValidateIdentity trims the name and rejects empty ones.
func ValidateIdentity(identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", domain.ErrInvalidIdentity
	}
	return identity, nil
}

// Enroll stores a normalized embedding under identity and reports whether an
// earlier embedding was replaced.
func (s *EnrollmentService) Enroll(ctx context.Context, identity string, emb domain.Embedding) (bool, error) {
	identity, err := ValidateIdentity(identity)
	if err != nil {
		return false, err
	}

	if err := s.checkDimension(emb); err != nil {
		return false, err
	}

	replaced, err := s.store.Put(ctx, identity, emb)
	if err != nil {
		return replaced, err
	}

	if replaced {
		s.logger.Info("face re-enrolled, previous embedding replaced", slog.String("identity", identity))
	} else {
		s.logger.Info("face enrolled", slog.String("identity", identity))
	}
	return replaced, nil
}

// checkDimension reports a ShapeMismatch when emb cannot live next to the
// stored embeddings.
func (s *EnrollmentService) checkDimension(emb domain.Embedding) error {
	if len(emb) == 0 {
		return domain.ErrShapeMismatch.WithError(errors.New("empty embedding"))
	}
	if s.dimension > 0 && len(emb) != s.dimension {
		return domain.ErrShapeMismatch.WithError(
			fmt.Errorf("embedding length %d, model produces %d", len(emb), s.dimension))
	}
	if stored := s.store.Dimension(); stored > 0 && stored != len(emb) {
		return domain.ErrShapeMismatch.WithError(
			fmt.Errorf("embedding length %d, stored faces have %d", len(emb), stored))
	}
	return nil
}
