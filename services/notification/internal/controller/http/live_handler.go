package http

import (
	"context"
	"net/http"
	"time"

	"ma-siu/pkg/jwt"
	"ma-siu/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveSource is satisfied by live.RedisFeed.
type LiveSource interface {
	Listen(ctx context.Context, userID string) (<-chan []byte, error)
}

type LiveHandler struct {
	source     LiveSource
	jwtService *jwt.Service
	logger     *logger.Logger
}

func NewLiveHandler(source LiveSource, jwtService *jwt.Service, logger *logger.Logger) *LiveHandler {
	return &LiveHandler{
		source:     source,
		jwtService: jwtService,
		logger:     logger,
	}
}

// HandleWebSocket godoc
// @Summary      Live notification feed
// @Description  Websocket stream of notifications as they finish. Browsers pass the JWT as ?token=.
// @Tags         notifications
// @Param        token query string false "JWT when no Authorization header can be sent"
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /notifications/ws [get]
func (h *LiveHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
			return
		}

		claims, err := h.jwtService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		userID = claims.UserID
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	feed, err := h.source.Listen(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to subscribe live feed for user %s: %v", userID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live feed unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket connected for user %s", userID)

	go h.readLoop(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket disconnected for user %s", userID)
			return
		case payload, ok := <-feed:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Warn("Failed to write WebSocket message for user %s: %v", userID, err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so control messages are processed, and
// cancels the session once the client goes away.
func (h *LiveHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error: %v", err)
			}
			return
		}
	}
}
