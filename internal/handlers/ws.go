package handlers

import (
	"net/http"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/apierr"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/auth"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/realtime"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleWebSocket upgrades the request and hands the connection to the hub.
// Authentication is optional; browsers can't set headers on WebSocket
// upgrades, so tokens arrive via the `token` query parameter.
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	if h.hub == nil {
		respondError(c, apierr.InternalError("realtime is not available"))
		return
	}

	userID := auth.CurrentUserID(c)

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.WSAllowedOrigins,
	})
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed",
			zap.String("remote", c.ClientIP()),
			zap.Error(err))
		return
	}

	client := realtime.NewClient(h.hub, conn, userID, c.ClientIP())
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// GetHubStats exposes hub counters for operational checks
func (h *Handlers) GetHubStats(c *gin.Context) {
	if h.hub == nil {
		respondError(c, apierr.InternalError("realtime is not available"))
		return
	}
	c.JSON(http.StatusOK, h.hub.GetStats())
}
