package core

import (
	"encoding/json"
	"time"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventAuthSuccess confirms that the connection is identified.
	EventAuthSuccess EventKind = iota
	// EventUserStatus announces an online/offline transition.
	EventUserStatus
	// EventRoomJoined confirms a join to the joining connection.
	EventRoomJoined
	// EventRoomLeft confirms a leave to the leaving connection.
	EventRoomLeft
	// EventUserJoined tells room members about a newcomer.
	EventUserJoined
	// EventUserLeft tells room members about a departure.
	EventUserLeft
	// EventChatMessage delivers a routed chat message.
	EventChatMessage
	// EventTypingStatus relays a typing flag.
	EventTypingStatus

	// Call events
	// EventCallRequest tells the callee about an incoming call.
	EventCallRequest
	// EventCallRequesting confirms to the caller that the call rings.
	EventCallRequesting
	// EventCallAccepted tells the caller the callee picked up.
	EventCallAccepted
	// EventCallRejected tells the caller the callee declined (or the
	// request timed out).
	EventCallRejected
	// EventCallEnded tells the other participant the call is over.
	EventCallEnded
	// EventCallError reports a failed call action to its initiator.
	EventCallError
	// EventSignal carries an opaque SDP/ICE payload to the peer.
	EventSignal

	// EventNotification delivers an application-layer notification.
	EventNotification
	// EventBroadcast is an application-layer push with a literal wire
	// type, used by the CRUD layer via Hub.Broadcast and SendToUser.
	EventBroadcast
	// EventError reports a domain or protocol error to the sender.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind

	RoomID string
	User   Identity // acting or subject user
	Peer   Identity // the other party, for call events
	Online bool
	Typing bool
	Text   string
	SentAt time.Time

	SessionID string
	Reason    string
	Signal    SignalKind

	// Opaque body for EventSignal and EventNotification.
	Payload json.RawMessage

	Error *CoreError

	// EventBroadcast passthrough.
	Type string
	Data any
}

func errorEvent(code, msg string) *Event {
	return &Event{Kind: EventError, Error: coreError(code, msg)}
}
