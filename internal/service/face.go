package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
	"github.com/saturnino-fabrica-de-software/reentry/internal/embedding"
)

// Events published after successful operations
const (
	EventFaceEnrolled   = "face.enrolled"
	EventFaceRecognized = "face.recognized"
	EventStoreCleared   = "store.cleared"
)

// FaceExtractor turns an image into the raw embedding of its first face.
// *provider.Pipeline implements it.
type FaceExtractor interface {
	Extract(ctx context.Context, image []byte) (domain.Embedding, error)
}

// EventPublisher receives enrollment and recognition events
type EventPublisher interface {
	Publish(eventType string, data interface{})
}

// Publishers fans one event out to several publishers.
type Publishers []EventPublisher

func (p Publishers) Publish(eventType string, data interface{}) {
	for _, pub := range p {
		pub.Publish(eventType, data)
	}
}

// FaceService exposes Enroll, Recognize, Count and ClearAll on top of the
// extraction pipeline, the enrollment service and the match engine.
type FaceService struct {
	extractor FaceExtractor
	store     FaceStore
	enroller  *EnrollmentService
	matcher   *MatchEngine
	events    EventPublisher
	logger    *slog.Logger
}

func NewFaceService(
	extractor FaceExtractor,
	store FaceStore,
	enroller *EnrollmentService,
	matcher *MatchEngine,
	logger *slog.Logger,
) *FaceService {
	return &FaceService{
		extractor: extractor,
		store:     store,
		enroller:  enroller,
		matcher:   matcher,
		logger:    logger,
	}
}

func (s *FaceService) WithEvents(events EventPublisher) *FaceService {
	s.events = events
	return s
}

// Enroll extracts the first face in image and stores it under identity.
func (s *FaceService) Enroll(ctx context.Context, identity string, image []byte) (*domain.Enrollment, error) {
	identity, err := ValidateIdentity(identity)
	if err != nil {
		return nil, err
	}

	emb, err := s.extract(ctx, image)
	if err != nil {
		return nil, err
	}

	replaced, err := s.enroller.Enroll(ctx, identity, emb)
	if err != nil {
		return nil, err
	}

	result := &domain.Enrollment{
		ID:         uuid.New(),
		Identity:   identity,
		Replaced:   replaced,
		Dimension:  len(emb),
		TotalFaces: s.store.Count(),
		CreatedAt:  time.Now().UTC(),
	}

	s.publish(EventFaceEnrolled, result)
	return result, nil
}

// Recognize extracts the first face in image and matches it against every
// stored face. A result with Matched == false is not an error.
func (s *FaceService) Recognize(ctx context.Context, image []byte) (*domain.MatchResult, error) {
	start := time.Now()

	emb, err := s.extract(ctx, image)
	if err != nil {
		return nil, err
	}

	entries := s.store.Entries()
	match, ok, err := s.matcher.Recognize(emb, entries)
	if err != nil {
		return nil, err
	}

	result := domain.NoMatch(s.matcher.Threshold(), len(entries))
	if ok {
		result.Matched = true
		result.Identity = match.Identity
		result.Distance = match.Distance
	}
	result.LatencyMs = time.Since(start).Milliseconds()

	s.publish(EventFaceRecognized, result)
	return result, nil
}

// Count returns the number of enrolled identities.
func (s *FaceService) Count() int {
	return s.store.Count()
}

// ClearAll removes every enrolled identity.
func (s *FaceService) ClearAll(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}

	s.publish(EventStoreCleared, map[string]int{"total_faces": 0})
	return nil
}

func (s *FaceService) extract(ctx context.Context, image []byte) (domain.Embedding, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	raw, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return nil, err
	}

	return embedding.Normalize(raw), nil
}

func (s *FaceService) publish(eventType string, data interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(eventType, data)
}
