package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TokenVerifier validates an auth token and returns the identity it
// asserts. Implemented by the auth service. A nil verifier (or an
// empty token) makes the hub trust the client-declared identity, the
// reference behavior.
type TokenVerifier interface {
	VerifyToken(token string) (Identity, error)
}

type inbound struct {
	client *Client
	cmd    *Command
}

// Options configures a Hub.
type Options struct {
	Logger      *zerolog.Logger
	Verifier    TokenVerifier
	CallTimeout time.Duration
}

// Hub is the single dispatch point for every inbound envelope. The
// registry, room directory, and call broker are owned by the Run
// goroutine; nothing else touches them. The exported query methods
// communicate with the loop over channels, so they are safe to call
// from any goroutine.
type Hub struct {
	log      zerolog.Logger
	verifier TokenVerifier

	registry *Registry
	rooms    *Directory
	calls    *Broker
	presence *Publisher

	register   chan *Client
	unregister chan *Client
	inbox      chan inbound
	expired    chan string
	queries    chan func()

	done  chan struct{}
	stops map[*Client]chan struct{}
}

// NewHub constructs a hub. Run must be started before clients attach.
func NewHub(opts Options) *Hub {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	h := &Hub{
		log:        logger,
		verifier:   opts.Verifier,
		registry:   NewRegistry(),
		rooms:      NewDirectory(),
		presence:   nil,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan inbound, 64),
		expired:    make(chan string, 16),
		queries:    make(chan func()),
		done:       make(chan struct{}),
		stops:      make(map[*Client]chan struct{}),
	}
	h.presence = NewPublisher(h.registry)
	h.calls = NewBroker(opts.CallTimeout, func(sessionID string) {
		select {
		case h.expired <- sessionID:
		case <-h.done:
		}
	})
	return h
}

// Run processes registrations, commands, ring timeouts, and queries
// until the context is cancelled. All state mutation happens here.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.dropClient(c)
		case in := <-h.inbox:
			h.dispatch(in.client, in.cmd)
		case sessionID := <-h.expired:
			h.expireCall(sessionID)
		case q := <-h.queries:
			q()
		case <-ctx.Done():
			return
		}
	}
}

// RegisterClient attaches a new, unauthenticated connection.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient detaches a connection and triggers the room, call,
// and presence cascade.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(c *Client) {
	h.registry.Register(c)

	// Per-connection forwarder keeps commands FIFO per connection
	// while the loop itself never blocks on a single client.
	stop := make(chan struct{})
	h.stops[c] = stop
	go func() {
		for {
			select {
			case cmd, ok := <-c.Commands:
				if !ok {
					return
				}
				select {
				case h.inbox <- inbound{client: c, cmd: cmd}:
				case <-stop:
					return
				case <-h.done:
					return
				}
			case <-stop:
				return
			case <-h.done:
				return
			}
		}
	}()

	h.log.Debug().Str("client_id", c.ID).Msg("client connected")
}

func (h *Hub) dropClient(c *Client) {
	if stop, ok := h.stops[c]; ok {
		close(stop)
		delete(h.stops, c)
	}

	identity, rooms := h.registry.Unregister(c)
	for _, roomID := range rooms {
		remaining, left := h.rooms.Leave(roomID, c)
		if left && identity != nil {
			ev := &Event{Kind: EventUserLeft, RoomID: roomID, User: *identity}
			for _, m := range remaining {
				m.send(ev)
			}
		}
	}

	if identity == nil {
		h.log.Debug().Str("client_id", c.ID).Msg("client disconnected")
		return
	}

	// Only the loss of the user's last connection flips presence and
	// tears down calls; identity-addressed relay keeps working over a
	// surviving connection otherwise.
	if h.registry.FindByUserID(identity.UserID) == nil {
		for _, s := range h.calls.EndAllFor(identity.UserID) {
			other, ok := s.Other(identity.UserID)
			if !ok {
				continue
			}
			if peer := h.registry.FindByUserID(other.UserID); peer != nil {
				peer.send(&Event{Kind: EventCallEnded, User: *identity, SessionID: s.ID})
			}
		}
		h.presence.Announce(identity.UserID, identity.Username, false)
	}

	h.log.Info().
		Str("client_id", c.ID).
		Int64("user_id", identity.UserID).
		Msg("client disconnected")
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	if cmd.Kind == CommandAuthenticate {
		h.handleAuth(c, cmd)
		return
	}

	identity := h.registry.Identity(c)
	if identity == nil {
		c.send(errorEvent(ErrCodeUnauthorized, msgAuthRequired))
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(c, identity, cmd)
	case CommandLeaveRoom:
		h.handleLeave(c, identity, cmd)
	case CommandSendChat:
		h.handleChat(c, identity, cmd)
	case CommandTyping:
		h.handleTyping(c, identity, cmd)
	case CommandCallRequest:
		h.handleCallRequest(c, identity, cmd)
	case CommandCallAccept:
		h.handleCallAccept(c, identity, cmd)
	case CommandCallReject:
		h.handleCallReject(c, identity, cmd)
	case CommandCallEnd:
		h.handleCallEnd(c, identity, cmd)
	case CommandRelaySignal:
		h.handleSignal(c, identity, cmd)
	case CommandNotify:
		h.handleNotify(cmd)
	default:
		c.send(errorEvent(ErrCodeBadRequest, "unsupported command"))
	}
}

func (h *Hub) handleAuth(c *Client, cmd *Command) {
	userID, username := cmd.UserID, cmd.Username
	if cmd.Token != "" && h.verifier != nil {
		identity, err := h.verifier.VerifyToken(cmd.Token)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", c.ID).Msg("token rejected")
			c.send(errorEvent(ErrCodeUnauthorized, "invalid token"))
			return
		}
		userID, username = identity.UserID, identity.Username
	}
	if userID == 0 {
		c.send(errorEvent(ErrCodeBadRequest, "userId is required"))
		return
	}

	h.registry.Authenticate(c, userID, username)
	c.send(&Event{Kind: EventAuthSuccess, User: Identity{UserID: userID, Username: username}})
	h.presence.Announce(userID, username, true)

	h.log.Info().
		Str("client_id", c.ID).
		Int64("user_id", userID).
		Str("username", username).
		Msg("client authenticated")
}

func (h *Hub) handleJoin(c *Client, identity *Identity, cmd *Command) {
	others, joined := h.rooms.Join(cmd.RoomID, c)
	if joined {
		h.registry.TrackRoom(c, cmd.RoomID)
		ev := &Event{Kind: EventUserJoined, RoomID: cmd.RoomID, User: *identity}
		for _, m := range others {
			m.send(ev)
		}
	}
	// Idempotent: a double join re-confirms without re-notifying.
	c.send(&Event{Kind: EventRoomJoined, RoomID: cmd.RoomID})

	h.log.Debug().
		Str("room", cmd.RoomID).
		Int64("user_id", identity.UserID).
		Msg("joined room")
}

func (h *Hub) handleLeave(c *Client, identity *Identity, cmd *Command) {
	remaining, left := h.rooms.Leave(cmd.RoomID, c)
	if left {
		h.registry.ForgetRoom(c, cmd.RoomID)
		ev := &Event{Kind: EventUserLeft, RoomID: cmd.RoomID, User: *identity}
		for _, m := range remaining {
			m.send(ev)
		}
	}
	c.send(&Event{Kind: EventRoomLeft, RoomID: cmd.RoomID})
}

func (h *Hub) handleChat(c *Client, identity *Identity, cmd *Command) {
	ev := &Event{
		Kind:   EventChatMessage,
		User:   *identity,
		Text:   cmd.Text,
		SentAt: time.Now(),
	}

	switch {
	case cmd.RecipientID != 0:
		target := h.registry.FindByUserID(cmd.RecipientID)
		if target == nil {
			c.send(errorEvent(ErrCodeRecipientOffline, "recipient offline"))
			return
		}
		target.send(ev)
	case cmd.RoomID != "":
		room := h.rooms.Room(cmd.RoomID)
		if room == nil {
			c.send(errorEvent(ErrCodeRoomNotFound, "room not found"))
			return
		}
		ev.RoomID = cmd.RoomID
		room.Broadcast(ev, c)
	default:
		c.send(errorEvent(ErrCodeBadRequest, "recipientId or roomId is required"))
	}
}

func (h *Hub) handleTyping(c *Client, identity *Identity, cmd *Command) {
	ev := &Event{
		Kind:   EventTypingStatus,
		User:   *identity,
		Typing: cmd.IsTyping,
	}

	switch {
	case cmd.RecipientID != 0:
		target := h.registry.FindByUserID(cmd.RecipientID)
		if target == nil {
			c.send(errorEvent(ErrCodeRecipientOffline, "recipient offline"))
			return
		}
		target.send(ev)
	case cmd.RoomID != "":
		room := h.rooms.Room(cmd.RoomID)
		if room == nil {
			c.send(errorEvent(ErrCodeRoomNotFound, "room not found"))
			return
		}
		ev.RoomID = cmd.RoomID
		room.Broadcast(ev, c)
	default:
		c.send(errorEvent(ErrCodeBadRequest, "recipientId or roomId is required"))
	}
}

func (h *Hub) handleCallRequest(c *Client, identity *Identity, cmd *Command) {
	calleeConn := h.registry.FindByUserID(cmd.RecipientID)
	if calleeConn == nil {
		c.send(&Event{
			Kind:  EventCallError,
			Peer:  Identity{UserID: cmd.RecipientID},
			Error: coreError(ErrCodeRecipientOffline, "Recipient is not online"),
		})
		return
	}
	callee := h.registry.Identity(calleeConn)

	s, cerr := h.calls.Request(cmd.SessionID, *identity, *callee)
	if cerr != nil {
		c.send(&Event{Kind: EventCallError, Peer: *callee, Error: cerr})
		return
	}

	calleeConn.send(&Event{Kind: EventCallRequest, User: s.Caller, SessionID: s.ID})
	c.send(&Event{Kind: EventCallRequesting, Peer: s.Callee, SessionID: s.ID})

	h.log.Info().
		Str("session_id", s.ID).
		Int64("caller", s.Caller.UserID).
		Int64("callee", s.Callee.UserID).
		Msg("call requested")
}

func (h *Hub) handleCallAccept(c *Client, identity *Identity, cmd *Command) {
	s, cerr := h.calls.Accept(cmd.SessionID, identity.UserID)
	if cerr != nil {
		c.send(&Event{Kind: EventCallError, Error: cerr})
		return
	}
	if caller := h.registry.FindByUserID(s.Caller.UserID); caller != nil {
		caller.send(&Event{Kind: EventCallAccepted, Peer: s.Callee, SessionID: s.ID})
	}

	h.log.Info().Str("session_id", s.ID).Msg("call accepted")
}

func (h *Hub) handleCallReject(c *Client, identity *Identity, cmd *Command) {
	s, cerr := h.calls.Reject(cmd.SessionID, identity.UserID)
	if cerr != nil {
		c.send(&Event{Kind: EventCallError, Error: cerr})
		return
	}
	if caller := h.registry.FindByUserID(s.Caller.UserID); caller != nil {
		caller.send(&Event{
			Kind:      EventCallRejected,
			Peer:      s.Callee,
			SessionID: s.ID,
			Reason:    cmd.Reason,
		})
	}

	h.log.Info().Str("session_id", s.ID).Str("reason", cmd.Reason).Msg("call rejected")
}

func (h *Hub) handleCallEnd(c *Client, identity *Identity, cmd *Command) {
	s, cerr := h.calls.End(cmd.SessionID, identity.UserID)
	if cerr != nil {
		c.send(&Event{Kind: EventCallError, Error: cerr})
		return
	}
	other, _ := s.Other(identity.UserID)
	if peer := h.registry.FindByUserID(other.UserID); peer != nil {
		peer.send(&Event{Kind: EventCallEnded, User: *identity, SessionID: s.ID})
	}

	h.log.Info().Str("session_id", s.ID).Int64("by", identity.UserID).Msg("call ended")
}

// handleSignal relays SDP/ICE payloads without interpreting them. A
// vanished peer makes the relay a silent no-op; the disconnect cascade
// has already ended the session in that case.
func (h *Hub) handleSignal(c *Client, identity *Identity, cmd *Command) {
	s := h.calls.Session(cmd.SessionID)
	if s == nil {
		return
	}
	if !s.participant(identity.UserID) {
		c.send(errorEvent(ErrCodeNotParticipant, "not a participant in this call"))
		return
	}
	if cmd.Signal == SignalSessionDescription {
		h.calls.NoteDescription(s, identity.UserID)
	}

	other, _ := s.Other(identity.UserID)
	if peer := h.registry.FindByUserID(other.UserID); peer != nil {
		peer.send(&Event{
			Kind:      EventSignal,
			Signal:    cmd.Signal,
			SessionID: s.ID,
			User:      *identity,
			Payload:   cmd.Payload,
		})
	}
}

// handleNotify relays a notification body to a single user. An
// offline recipient is a silent no-op; durable notification storage
// belongs to the application layer.
func (h *Hub) handleNotify(cmd *Command) {
	if target := h.registry.FindByUserID(cmd.RecipientID); target != nil {
		target.send(&Event{Kind: EventNotification, Payload: cmd.Payload})
	}
}

func (h *Hub) expireCall(sessionID string) {
	s, expired := h.calls.Expire(sessionID)
	if !expired {
		// Accepted, rejected, or ended before the timer fired.
		return
	}
	if caller := h.registry.FindByUserID(s.Caller.UserID); caller != nil {
		caller.send(&Event{
			Kind:      EventCallRejected,
			Peer:      s.Callee,
			SessionID: s.ID,
			Reason:    "timeout",
		})
	}
	// Clear the callee's ringing UI as well.
	if callee := h.registry.FindByUserID(s.Callee.UserID); callee != nil {
		callee.send(&Event{Kind: EventCallEnded, User: s.Caller, SessionID: s.ID})
	}

	h.log.Info().Str("session_id", s.ID).Msg("call request timed out")
}

// ---- Application-facing surface (safe from any goroutine) ----

// Broadcast pushes an envelope with a literal wire type to every live
// connection. Used by the CRUD layer for out-of-band events.
func (h *Hub) Broadcast(eventType string, data any) {
	h.query(func() {
		ev := &Event{Kind: EventBroadcast, Type: eventType, Data: data}
		for _, c := range h.registry.Clients() {
			c.send(ev)
		}
	})
}

// SendToUser pushes an envelope to one user's addressable connection.
// Returns false when the user has no live authenticated connection.
func (h *Hub) SendToUser(userID int64, eventType string, data any) bool {
	delivered := false
	h.query(func() {
		if target := h.registry.FindByUserID(userID); target != nil {
			target.send(&Event{Kind: EventBroadcast, Type: eventType, Data: data})
			delivered = true
		}
	})
	return delivered
}

// NotifyUserStatus publishes an online/offline transition on behalf of
// the application layer (e.g. REST login).
func (h *Hub) NotifyUserStatus(userID int64, username string, online bool) {
	h.query(func() {
		h.presence.Announce(userID, username, online)
	})
}

// OnlineUsers returns the distinct identified users.
func (h *Hub) OnlineUsers() []Identity {
	var users []Identity
	h.query(func() {
		users = h.registry.OnlineUsers()
	})
	return users
}

// OnlineUsersCount returns the number of distinct identified users.
func (h *Hub) OnlineUsersCount() int {
	n := 0
	h.query(func() {
		n = h.registry.OnlineCount()
	})
	return n
}

// query runs fn on the hub goroutine and waits for it. After shutdown
// it returns without running fn.
func (h *Hub) query(fn func()) {
	ready := make(chan struct{})
	wrapped := func() {
		fn()
		close(ready)
	}
	select {
	case h.queries <- wrapped:
	case <-h.done:
		return
	}
	select {
	case <-ready:
	case <-h.done:
	}
}
