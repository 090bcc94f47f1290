package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Inbound envelope types.
const (
	TypeAuth               = "auth"
	TypeJoinRoom           = "join_room"
	TypeLeaveRoom          = "leave_room"
	TypeMessage            = "message"
	TypeTyping             = "typing"
	TypeCallRequest        = "video_call_request"
	TypeCallAccept         = "video_call_accept"
	TypeCallReject         = "video_call_reject"
	TypeCallEnd            = "video_call_end"
	TypeICECandidate       = "ice_candidate"
	TypeSessionDescription = "session_description"
	TypeNotification       = "notification"
)

// Outbound envelope types.
const (
	TypeAuthSuccess    = "auth_success"
	TypeUserStatus     = "user_status"
	TypeRoomJoined     = "room_joined"
	TypeRoomLeft       = "room_left"
	TypeUserJoined     = "user_joined"
	TypeUserLeft       = "user_left"
	TypeTypingStatus   = "typing_status"
	TypeCallRequesting = "video_call_requesting"
	TypeCallAccepted   = "video_call_accepted"
	TypeCallRejected   = "video_call_rejected"
	TypeCallEnded      = "video_call_ended"
	TypeCallError      = "video_call_error"
	TypeError          = "error"
)

// AuthPayload identifies the connection. Token, when set, is verified
// and overrides the declared identity.
type AuthPayload struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

// RoomPayload targets a room for join/leave.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// ChatPayload is a chat message addressed to a user or a room.
type ChatPayload struct {
	RoomID      string `json:"roomId,omitempty"`
	RecipientID int64  `json:"recipientId,omitempty"`
	Message     string `json:"message"`
}

// TypingPayload is an ephemeral typing flag for a user or a room.
type TypingPayload struct {
	RoomID      string `json:"roomId,omitempty"`
	RecipientID int64  `json:"recipientId,omitempty"`
	IsTyping    bool   `json:"isTyping"`
}

// CallRequestPayload starts a call. SessionID may be client-supplied.
type CallRequestPayload struct {
	RecipientID int64  `json:"recipientId"`
	SessionID   string `json:"sessionId,omitempty"`
}

// CallAnswerPayload accepts or rejects a ringing call.
type CallAnswerPayload struct {
	CallerID  int64  `json:"callerId"`
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason,omitempty"`
}

// CallEndPayload hangs up a call.
type CallEndPayload struct {
	SessionID     string `json:"sessionId"`
	ParticipantID int64  `json:"participantId,omitempty"`
}

// SignalPayload is the addressing part of an opaque SDP/ICE relay;
// the rest of the payload passes through uninspected.
type SignalPayload struct {
	SessionID string `json:"sessionId"`
}

// NotificationPayload pushes an opaque notification body to a user.
type NotificationPayload struct {
	RecipientID  int64           `json:"recipientId"`
	Notification json.RawMessage `json:"notification"`
}

// AuthSuccess confirms identification.
type AuthSuccess struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// UserStatus announces an online/offline transition.
type UserStatus struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	IsOnline bool   `json:"isOnline"`
}

// RoomAck confirms a join or leave to its initiator.
type RoomAck struct {
	RoomID string `json:"roomId"`
}

// RoomPresence tells room members who joined or left.
type RoomPresence struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	RoomID   string `json:"roomId"`
}

// ChatMessage is a delivered chat message.
type ChatMessage struct {
	SenderID   int64  `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	RoomID     string `json:"roomId,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// TypingStatus is a relayed typing flag.
type TypingStatus struct {
	SenderID   int64  `json:"senderId"`
	SenderName string `json:"senderName"`
	IsTyping   bool   `json:"isTyping"`
	RoomID     string `json:"roomId,omitempty"`
}

// CallRequest tells the callee who is ringing.
type CallRequest struct {
	CallerID   int64  `json:"callerId"`
	CallerName string `json:"callerName"`
	SessionID  string `json:"sessionId"`
}

// CallRequesting confirms to the caller that the callee is ringing.
type CallRequesting struct {
	RecipientID int64  `json:"recipientId"`
	SessionID   string `json:"sessionId"`
}

// CallAnswer reports an accept or reject back to the caller.
type CallAnswer struct {
	RecipientID   int64  `json:"recipientId"`
	RecipientName string `json:"recipientName"`
	SessionID     string `json:"sessionId"`
	Reason        string `json:"reason,omitempty"`
}

// CallEnded reports a hang-up (or vanished peer) to the other side.
type CallEnded struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	SessionID string `json:"sessionId"`
}

// CallError reports a failed call action to its initiator.
type CallError struct {
	Error       string `json:"error"`
	RecipientID int64  `json:"recipientId,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
