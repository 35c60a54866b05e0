package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const localEvents = "ws_events"

func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		events, _ := c.Locals(localEvents).(string)
		client := newClient(hub, c, events)

		select {
		case hub.register <- client:
		case <-hub.done:
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// UpgradeMiddleware rejects plain HTTP requests and keeps the ?events= filter
// for the websocket handler.
func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals(localEvents, c.Query("events"))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
