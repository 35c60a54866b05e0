package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventFaceEnrolled   EventType = "FACE_ENROLLED"
	EventFaceRecognized EventType = "FACE_RECOGNIZED"
	EventStoreCleared   EventType = "STORE_CLEARED"
)

// Event represents an audit record of a biometric operation. It never carries
// embeddings or images.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType EventType         `json:"event_type"`
	Identity  string            `json:"identity,omitempty"`
	Provider  string            `json:"provider"`
	Success   bool              `json:"success"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger   *slog.Logger
	provider string
}

// NewSlogLogger creates a new audit logger using slog. provider names the
// detector/embedder pair recorded on every event.
func NewSlogLogger(logger *slog.Logger, provider string) *SlogLogger {
	return &SlogLogger{
		logger:   logger.With("component", "audit"),
		provider: provider,
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Provider == "" {
		event.Provider = l.provider
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("provider", event.Provider),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// Publish adapts service events to audit events so the audit trail can be
// attached as an event publisher.
func (l *SlogLogger) Publish(eventType string, data interface{}) {
	event, ok := FromServiceEvent(eventType, data)
	if !ok {
		return
	}
	_ = l.Log(context.Background(), event)
}

// FromServiceEvent converts a published face event into an audit Event.
func FromServiceEvent(eventType string, data interface{}) (Event, bool) {
	switch v := data.(type) {
	case *domain.Enrollment:
		return Event{
			ID:        v.ID,
			EventType: EventFaceEnrolled,
			Identity:  v.Identity,
			Success:   true,
			Metadata: map[string]string{
				"replaced":    strconv.FormatBool(v.Replaced),
				"total_faces": strconv.Itoa(v.TotalFaces),
			},
		}, true
	case *domain.MatchResult:
		return Event{
			ID:        v.ID,
			EventType: EventFaceRecognized,
			Identity:  v.Identity,
			Success:   v.Matched,
			Metadata: map[string]string{
				"candidates": strconv.Itoa(v.Candidates),
				"distance":   strconv.FormatFloat(v.Distance, 'f', 4, 64),
			},
		}, true
	}

	if eventType == "store.cleared" {
		return Event{EventType: EventStoreCleared, Success: true}, true
	}
	return Event{}, false
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
