// internal/handlers/ws.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"

	"github.com/tradeloop/tradeloop-backend/internal/utils"
	"github.com/tradeloop/tradeloop-backend/internal/ws"
)

type WSHandler struct {
	Hub                  *ws.Hub
	WSInsecureSkipVerify bool
}

func NewWSHandler(hub *ws.Hub, insecureSkipVerify bool) *WSHandler {
	return &WSHandler{
		Hub:                  hub,
		WSInsecureSkipVerify: insecureSkipVerify,
	}
}

// GET /ws?token=...
//
// Browser WebSocket clients cannot set an Authorization header, so the
// access token travels as a query parameter.
func (h *WSHandler) Handle(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := utils.ValidateJWT(tokenStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	opts := &websocket.AcceptOptions{}
	// Accept rejects cross-origin by default, which breaks local dev
	// against a separate frontend origin.
	if h.WSInsecureSkipVerify {
		opts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		return // Accept already wrote the error response
	}

	// Push-only socket: reading is still required so control frames get
	// processed.
	conn.CloseRead(c.Request.Context())

	client := h.Hub.AddClient(claims.UserID, conn)
	defer h.Hub.RemoveClient(client)

	<-c.Request.Context().Done()
}
