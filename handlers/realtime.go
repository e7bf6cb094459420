package handlers

import (
	"net/http"

	"github.com/campusconecto/campusconecto/backend/api/internal/relay"
	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"github.com/campusconecto/campusconecto/backend/api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// RealtimeHandler upgrades /ws connections and hands them to the relay hub.
type RealtimeHandler struct {
	hub         *relay.Hub
	verifier    middleware.Verifier
	revoked     middleware.Revocations
	requireAuth bool
	upgrader    websocket.Upgrader
}

// NewRealtimeHandler builds the handler. revoked may be nil.
func NewRealtimeHandler(hub *relay.Hub, ver middleware.Verifier, revoked middleware.Revocations, requireAuth bool, allowedOrigins []string) *RealtimeHandler {
	return &RealtimeHandler{
		hub:         hub,
		verifier:    ver,
		revoked:     revoked,
		requireAuth: requireAuth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no origin
				return origin == "" || middleware.OriginAllowed(origin, allowedOrigins)
			},
		},
	}
}

func (h *RealtimeHandler) Register(r gin.IRoutes) {
	r.GET("/ws", h.Serve)
}

// authenticate returns the user id of the handshake token, "" when none was
// presented.
func (h *RealtimeHandler) authenticate(c *gin.Context) (string, bool) {
	token := c.Query("token")
	if token == "" {
		token = middleware.BearerToken(c.Request)
	}
	if token == "" {
		return "", true
	}
	ctx := c.Request.Context()
	if h.revoked != nil {
		if revoked, err := h.revoked.IsRevoked(ctx, token); err == nil && revoked {
			return "", false
		}
	}
	verified, err := h.verifier.Verify(ctx, token)
	if err != nil {
		return "", false
	}
	var claims map[string]interface{}
	if err := verified.Claims(&claims); err != nil {
		return "", false
	}
	id := middleware.Subject(claims)
	return id, id != ""
}

func (h *RealtimeHandler) Serve(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok || (h.requireAuth && userID == "") {
		fail(c, http.StatusUnauthorized, "Not authorized")
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		logger.Debugf("websocket upgrade failed: %v", err)
		return
	}
	h.hub.Serve(c.Request.Context(), conn, userID)
}
