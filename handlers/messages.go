package handlers

import (
	"errors"
	"net/http"

	"github.com/campusconecto/campusconecto/backend/api/internal/messages"
	"github.com/gin-gonic/gin"
)

// MessageHandler serves /api/messages.
type MessageHandler struct {
	svc *messages.Service
}

func NewMessageHandler(s *messages.Service) *MessageHandler {
	return &MessageHandler{svc: s}
}

func (h *MessageHandler) Register(rg *gin.RouterGroup, protect gin.HandlerFunc) {
	rg.Use(protect)
	rg.GET("/:friendId", h.Conversation)
	rg.POST("/send/:friendId", h.Send)
}

func (h *MessageHandler) Conversation(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}
	msgs, err := h.svc.Conversation(c.Request.Context(), id, c.Param("friendId"))
	if errors.Is(err, messages.ErrInvalidID) {
		fail(c, http.StatusBadRequest, "Invalid friend id")
		return
	}
	if err != nil {
		serverError(c, "Failed to load messages", err)
		return
	}
	respond(c, http.StatusOK, msgs)
}

func (h *MessageHandler) Send(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	_ = c.ShouldBindJSON(&req)
	m, err := h.svc.Send(c.Request.Context(), id, c.Param("friendId"), req.Text)
	switch {
	case errors.Is(err, messages.ErrEmptyText):
		fail(c, http.StatusBadRequest, "Message text is required")
	case errors.Is(err, messages.ErrInvalidID):
		fail(c, http.StatusBadRequest, "Invalid friend id")
	case errors.Is(err, messages.ErrRecipientNotFound):
		fail(c, http.StatusNotFound, "Recipient not found")
	case err != nil:
		serverError(c, "Failed to send message", err)
	default:
		respond(c, http.StatusOK, m)
	}
}
