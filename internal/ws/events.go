package ws

import "time"

// Event is the envelope pushed to websocket clients
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
