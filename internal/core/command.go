package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandAuthenticate binds a user identity to the connection.
	CommandAuthenticate CommandKind = iota
	// CommandJoinRoom subscribes the connection to a room.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the connection from a room.
	CommandLeaveRoom
	// CommandSendChat routes a chat message to a user or a room.
	CommandSendChat
	// CommandTyping relays a typing flag to a user or a room.
	CommandTyping
	// CommandCallRequest starts a call toward another user.
	CommandCallRequest
	// CommandCallAccept answers a ringing call.
	CommandCallAccept
	// CommandCallReject declines a ringing call.
	CommandCallReject
	// CommandCallEnd hangs up a call from any non-terminal state.
	CommandCallEnd
	// CommandRelaySignal passes an opaque SDP/ICE payload to the peer.
	CommandRelaySignal
	// CommandNotify pushes a notification body to a single user.
	CommandNotify
)

// SignalKind distinguishes the two opaque relay payloads.
type SignalKind string

const (
	SignalSessionDescription SignalKind = "session_description"
	SignalICECandidate       SignalKind = "ice_candidate"
)

// Command is one decoded client request processed by the hub loop.
// Only the fields relevant to Kind are set.
type Command struct {
	Kind CommandKind

	// Identity claim for CommandAuthenticate. Token, when present, is
	// verified and its claims override UserID/Username.
	UserID   int64
	Username string
	Token    string

	RoomID      string
	RecipientID int64
	Text        string
	IsTyping    bool

	// Call signaling.
	SessionID string
	Reason    string
	Signal    SignalKind

	// Opaque body for CommandRelaySignal and CommandNotify.
	Payload json.RawMessage
}
