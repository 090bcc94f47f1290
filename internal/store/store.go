package store

import (
	"context"
	"time"
)

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	SessionID    string // For guest user session tracking
	CreatedAt    time.Time
}

// Message is a persisted direct chat message. The realtime core never
// writes these; the application layer stores a message before (or
// concurrently with) routing it, so it survives an offline recipient.
type Message struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Body        string
	CreatedAt   time.Time
}

// UserStore defines user persistence operations.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	CreateGuestUser(ctx context.Context, sessionID string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// MessageStore defines chat history persistence operations.
type MessageStore interface {
	SaveMessage(ctx context.Context, m *Message) (int64, error)
	// ListConversation returns the most recent messages exchanged
	// between two users, oldest first.
	ListConversation(ctx context.Context, userA, userB int64, limit int) ([]Message, error)
}

// Store aggregates all persistence operations.
type Store interface {
	UserStore
	MessageStore
	Close() error
}
