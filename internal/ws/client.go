package ws

import (
	"strings"

	"github.com/gofiber/websocket/v2"
)

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	topics map[string]bool
	send   chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, events string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		topics: parseTopics(events),
		send:   make(chan []byte, 256),
	}
}

// parseTopics reads a comma separated list such as "face.enrolled,store.cleared".
func parseTopics(events string) map[string]bool {
	topics := make(map[string]bool)
	for _, name := range strings.Split(events, ",") {
		if name = strings.TrimSpace(name); name != "" {
			topics[name] = true
		}
	}
	return topics
}

func (c *Client) subscribed(eventType string) bool {
	return len(c.topics) == 0 || c.topics[eventType]
}

func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
