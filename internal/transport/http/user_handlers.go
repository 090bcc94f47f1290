package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studysync/studysync-server/internal/core"
)

// UserHandlers provides HTTP handlers for user presence queries.
type UserHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(hub *core.Hub, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{hub: hub, log: logger}
}

// OnlineUsersResponse lists the currently identified users.
type OnlineUsersResponse struct {
	Users []UserResponse `json:"users"`
	Count int            `json:"count"`
}

// OnlineUsers returns the distinct users with a live connection.
// GET /api/users/online
func (h *UserHandlers) OnlineUsers(c *gin.Context) {
	online := h.hub.OnlineUsers()

	users := make([]UserResponse, 0, len(online))
	for _, u := range online {
		users = append(users, UserResponse{ID: u.UserID, Username: u.Username})
	}

	c.JSON(http.StatusOK, OnlineUsersResponse{Users: users, Count: len(users)})
}
