package webhook

import (
	"time"
)

type Config struct {
	URL    string
	Secret string
	// Events limits delivery to these event types; empty means all.
	Events      []string
	MaxAttempts int
	Timeout     time.Duration
	QueueSize   int
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Timeout:     10 * time.Second,
		QueueSize:   256,
	}
}

type EventPayload struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type job struct {
	eventType string
	payload   []byte
	attempts  int
}
