package core

// Error codes for domain errors surfaced to clients.
const (
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeInvalidFormat    = "invalid_format"
	ErrCodeUnknownType      = "unknown_type"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeRoomNotFound     = "room_not_found"
	ErrCodeRecipientOffline = "recipient_offline"
	ErrCodeCallNotFound     = "call_not_found"
	ErrCodeCallTerminated   = "call_terminated"
	ErrCodeNotParticipant   = "not_participant"
	ErrCodeSessionReused    = "session_reused"
)

// msgAuthRequired is the reply for any routed action attempted before
// the connection has identified itself.
const msgAuthRequired = "Authentication required"

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
