package websocket

import (
	"net/http"

	"libraryhub/internal/microservices/http-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HTTP upgrade handler for the notification stream

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// bearer auth already ran; browsers on other origins are the web app
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades GET /notifications/ws. It must sit behind AuthMiddleware.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "reason": "UNAUTHORIZED"})
			return
		}

		// Upgrade writes the HTTP error itself on failure
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.Warn("ws_upgrade_failed", "user_id", userID, "error", err)
			return
		}

		client := NewClient(userID, conn, hub)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
