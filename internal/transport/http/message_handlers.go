package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studysync/studysync-server/internal/core"
	"github.com/studysync/studysync-server/internal/proto"
	"github.com/studysync/studysync-server/internal/store"
)

const (
	defaultConversationLimit = 50
	maxConversationLimit     = 200
)

// MessageHandlers provides HTTP handlers for persisted direct messages.
type MessageHandlers struct {
	store store.Store
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.Store, hub *core.Hub, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{store: st, hub: hub, log: logger}
}

// SendMessageRequest represents the send message request body.
type SendMessageRequest struct {
	RecipientID int64  `json:"recipientId" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// SendMessageResponse represents the send message response body.
type SendMessageResponse struct {
	ID        int64  `json:"id"`
	Delivered bool   `json:"delivered"`
	Timestamp string `json:"timestamp"`
}

// MessageResponse represents a stored message in API responses.
type MessageResponse struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"senderId"`
	RecipientID int64  `json:"recipientId"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
}

// SendMessage persists a direct message and pushes it to the recipient
// if they have a live connection. Persistence always happens first, so
// an offline recipient still gets the message in history.
// POST /api/messages
func (h *MessageHandlers) SendMessage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	username := c.GetString(ContextKeyUsername)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg := &store.Message{
		SenderID:    uid,
		RecipientID: req.RecipientID,
		Body:        req.Message,
	}
	if _, err := h.store.SaveMessage(c.Request.Context(), msg); err != nil {
		h.log.Error().Err(err).Int64("sender", uid).Msg("failed to save message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	now := time.Now()
	delivered := h.hub.SendToUser(req.RecipientID, proto.TypeMessage, proto.ChatMessage{
		SenderID:   uid,
		SenderName: username,
		Message:    req.Message,
		Timestamp:  now.Format(time.RFC3339),
	})

	c.JSON(http.StatusCreated, SendMessageResponse{
		ID:        msg.ID,
		Delivered: delivered,
		Timestamp: now.Format(time.RFC3339),
	})
}

// ListMessages returns the conversation between the current user and a
// peer, oldest first.
// GET /api/messages?peerId=<id>&limit=<n>
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	peerID, err := strconv.ParseInt(c.Query("peerId"), 10, 64)
	if err != nil || peerID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "peerId is required"})
		return
	}

	limit := defaultConversationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		if n > maxConversationLimit {
			n = maxConversationLimit
		}
		limit = n
	}

	msgs, err := h.store.ListConversation(c.Request.Context(), uid, peerID, limit)
	if err != nil {
		h.log.Error().Err(err).Int64("user", uid).Int64("peer", peerID).Msg("failed to list conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		response = append(response, MessageResponse{
			ID:          m.ID,
			SenderID:    m.SenderID,
			RecipientID: m.RecipientID,
			Message:     m.Body,
			Timestamp:   m.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}
