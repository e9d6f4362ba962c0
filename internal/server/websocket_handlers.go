package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler handles WebSocket connections for board event delivery.
// Clients only listen; all mutations go through the REST endpoints.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket: unidentified connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket: failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		log.Printf("WebSocket: user %d connected to board", userID)

		go client.WritePump()
		client.ReadPump()
	})
}

// UpgradeRequired rejects plain HTTP requests on websocket routes.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
