package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const maxBackoff = 30 * time.Second

// Notifier posts face events to a single webhook URL. Publish never blocks;
// delivery and retries happen in Run.
type Notifier struct {
	cfg     Config
	client  *http.Client
	queue   chan job
	events  map[string]bool
	logger  *slog.Logger
	backoff func(attempt int) time.Duration
}

func NewNotifier(cfg Config, logger *slog.Logger) *Notifier {
	defaults := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}

	events := make(map[string]bool, len(cfg.Events))
	for _, e := range cfg.Events {
		events[e] = true
	}

	return &Notifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		queue:   make(chan job, cfg.QueueSize),
		events:  events,
		logger:  logger,
		backoff: exponentialBackoff,
	}
}

func exponentialBackoff(attempt int) time.Duration {
	delay := time.Duration(1<<attempt) * time.Second
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}

// Publish queues eventType for delivery. Events are dropped when the queue is
// full or the type is filtered out.
func (n *Notifier) Publish(eventType string, data interface{}) {
	if len(n.events) > 0 && !n.events[eventType] {
		return
	}

	payload, err := json.Marshal(EventPayload{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		n.logger.Error("failed to marshal webhook event", "event", eventType, "error", err)
		return
	}

	select {
	case n.queue <- job{eventType: eventType, payload: payload}:
	default:
		n.logger.Warn("webhook queue full, dropping event", "event", eventType)
	}
}

// Run delivers queued events until ctx is done.
func (n *Notifier) Run(ctx context.Context) {
	n.logger.Info("webhook notifier started", "url", n.cfg.URL)

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("webhook notifier stopped")
			return
		case j := <-n.queue:
			n.deliver(ctx, j)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, j job) {
	for {
		j.attempts++
		err := n.send(ctx, j)
		if err == nil {
			return
		}

		if j.attempts >= n.cfg.MaxAttempts || ctx.Err() != nil {
			n.logger.Error("webhook delivery failed",
				"event", j.eventType,
				"attempts", j.attempts,
				"error", err,
			)
			return
		}

		delay := n.backoff(j.attempts)
		n.logger.Warn("webhook delivery failed, retrying",
			"event", j.eventType,
			"attempts", j.attempts,
			"retry_in", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (n *Notifier) send(ctx context.Context, j job) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(j.payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, j.eventType)
	req.Header.Set("User-Agent", "Reentry-Webhook/1.0")
	if n.cfg.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(n.cfg.Secret, j.payload))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
