package core

import (
	"time"

	"github.com/google/uuid"
)

// CallState tracks the lifecycle of one signaling session.
type CallState int

const (
	// CallRequesting means the callee is being rung.
	CallRequesting CallState = iota
	// CallAccepted means the callee picked up; offer/answer exchange
	// may begin.
	CallAccepted
	// CallOngoing means both session descriptions have been relayed.
	CallOngoing
	// CallRejected is terminal: declined or timed out while ringing.
	CallRejected
	// CallEnded is terminal: hung up or a participant vanished.
	CallEnded
)

func (s CallState) String() string {
	switch s {
	case CallRequesting:
		return "requesting"
	case CallAccepted:
		return "accepted"
	case CallOngoing:
		return "ongoing"
	case CallRejected:
		return "rejected"
	case CallEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed.
func (s CallState) Terminal() bool {
	return s == CallRejected || s == CallEnded
}

// CallSession is one attempted or active peer-to-peer call between
// exactly two identified users.
type CallSession struct {
	ID        string
	Caller    Identity
	Callee    Identity
	State     CallState
	StartedAt time.Time
	EndedAt   *time.Time

	// Offer/answer bookkeeping for the accepted -> ongoing edge.
	offerSeen  bool
	answerSeen bool

	timer *time.Timer
}

// Other returns the participant opposite to userID.
func (s *CallSession) Other(userID int64) (Identity, bool) {
	switch userID {
	case s.Caller.UserID:
		return s.Callee, true
	case s.Callee.UserID:
		return s.Caller, true
	default:
		return Identity{}, false
	}
}

func (s *CallSession) participant(userID int64) bool {
	return userID == s.Caller.UserID || userID == s.Callee.UserID
}

// DefaultCallTimeout bounds how long a call may ring unanswered.
const DefaultCallTimeout = 30 * time.Second

// Broker owns call sessions and enforces their state machine:
//
//	requesting -> accepted -> ongoing -> ended
//	requesting -> rejected            (decline or ring timeout)
//	any non-terminal -> ended
//
// Confined to the hub goroutine; only the ring timers fire elsewhere,
// and they re-enter the loop through the expire callback.
type Broker struct {
	sessions map[string]*CallSession
	byUser   map[int64]map[string]*CallSession
	spent    map[string]struct{} // terminated ids, never reusable

	timeout time.Duration
	expire  func(sessionID string)
	now     func() time.Time
}

// NewBroker constructs a broker. expire is invoked from a timer
// goroutine when a session rings for longer than timeout; the hub
// routes it back onto its own loop before acting.
func NewBroker(timeout time.Duration, expire func(sessionID string)) *Broker {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Broker{
		sessions: make(map[string]*CallSession),
		byUser:   make(map[int64]map[string]*CallSession),
		spent:    make(map[string]struct{}),
		timeout:  timeout,
		expire:   expire,
		now:      time.Now,
	}
}

// Request creates a ringing session between caller and callee. The
// session id comes from the client when supplied (the reference
// protocol allows it) and is generated otherwise; a terminated id is
// never accepted again.
func (b *Broker) Request(sessionID string, caller, callee Identity) (*CallSession, *CoreError) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if _, ok := b.spent[sessionID]; ok {
		return nil, coreError(ErrCodeSessionReused, "session id already used")
	}
	if _, ok := b.sessions[sessionID]; ok {
		return nil, coreError(ErrCodeSessionReused, "session id already in use")
	}

	s := &CallSession{
		ID:        sessionID,
		Caller:    caller,
		Callee:    callee,
		State:     CallRequesting,
		StartedAt: b.now(),
	}
	if b.expire != nil {
		id := sessionID
		s.timer = time.AfterFunc(b.timeout, func() { b.expire(id) })
	}

	b.sessions[sessionID] = s
	b.index(caller.UserID, s)
	b.index(callee.UserID, s)
	return s, nil
}

// Accept transitions requesting -> accepted. Only the recorded callee
// may accept.
func (b *Broker) Accept(sessionID string, byUserID int64) (*CallSession, *CoreError) {
	s, ok := b.sessions[sessionID]
	if !ok {
		return nil, coreError(ErrCodeCallNotFound, "call not found")
	}
	if byUserID != s.Callee.UserID {
		return nil, coreError(ErrCodeNotParticipant, "only the callee can accept")
	}
	if s.State != CallRequesting {
		return nil, coreError(ErrCodeCallTerminated, "call is not ringing")
	}
	s.stopTimer()
	s.State = CallAccepted
	return s, nil
}

// Reject transitions requesting -> rejected (terminal). Only the
// recorded callee may reject.
func (b *Broker) Reject(sessionID string, byUserID int64) (*CallSession, *CoreError) {
	s, ok := b.sessions[sessionID]
	if !ok {
		return nil, coreError(ErrCodeCallNotFound, "call not found")
	}
	if byUserID != s.Callee.UserID {
		return nil, coreError(ErrCodeNotParticipant, "only the callee can reject")
	}
	if s.State != CallRequesting {
		return nil, coreError(ErrCodeCallTerminated, "call is not ringing")
	}
	b.terminate(s, CallRejected)
	return s, nil
}

// End transitions any non-terminal state -> ended and stamps the end
// time. Either participant may end.
func (b *Broker) End(sessionID string, byUserID int64) (*CallSession, *CoreError) {
	s, ok := b.sessions[sessionID]
	if !ok {
		return nil, coreError(ErrCodeCallNotFound, "call not found")
	}
	if !s.participant(byUserID) {
		return nil, coreError(ErrCodeNotParticipant, "not a participant in this call")
	}
	if s.State.Terminal() {
		return nil, coreError(ErrCodeCallTerminated, "call already ended")
	}
	b.terminate(s, CallEnded)
	return s, nil
}

// Expire auto-rejects a session whose ring timer fired. Returns the
// session and true only when the timeout still applied, i.e. the call
// was still ringing; a timer racing a legitimate accept loses.
func (b *Broker) Expire(sessionID string) (*CallSession, bool) {
	s, ok := b.sessions[sessionID]
	if !ok || s.State != CallRequesting {
		return nil, false
	}
	b.terminate(s, CallRejected)
	return s, true
}

// Session returns the live session for the id, or nil.
func (b *Broker) Session(sessionID string) *CallSession {
	return b.sessions[sessionID]
}

// NoteDescription records a relayed session description. Once the
// caller's offer and the callee's answer have both passed through an
// accepted session, it becomes ongoing.
func (b *Broker) NoteDescription(s *CallSession, fromUserID int64) {
	switch fromUserID {
	case s.Caller.UserID:
		s.offerSeen = true
	case s.Callee.UserID:
		s.answerSeen = true
	}
	if s.State == CallAccepted && s.offerSeen && s.answerSeen {
		s.State = CallOngoing
	}
}

// EndAllFor ends every non-terminal session the user participates in
// and returns them so the hub can notify the remaining participants.
// Used for the disconnect cascade: a call never dangles after one
// side vanishes.
func (b *Broker) EndAllFor(userID int64) []*CallSession {
	var ended []*CallSession
	for _, s := range b.byUser[userID] {
		if s.State.Terminal() {
			continue
		}
		b.terminate(s, CallEnded)
		ended = append(ended, s)
	}
	return ended
}

// Active returns the number of live (non-terminal) sessions.
func (b *Broker) Active() int {
	return len(b.sessions)
}

func (b *Broker) index(userID int64, s *CallSession) {
	m, ok := b.byUser[userID]
	if !ok {
		m = make(map[string]*CallSession)
		b.byUser[userID] = m
	}
	m[s.ID] = s
}

func (b *Broker) unindex(userID int64, sessionID string) {
	if m, ok := b.byUser[userID]; ok {
		delete(m, sessionID)
		if len(m) == 0 {
			delete(b.byUser, userID)
		}
	}
}

// terminate moves the session to a terminal state and drops it from
// the live tables. The id is remembered so it cannot be reused.
func (b *Broker) terminate(s *CallSession, state CallState) {
	s.stopTimer()
	s.State = state
	now := b.now()
	s.EndedAt = &now

	delete(b.sessions, s.ID)
	b.unindex(s.Caller.UserID, s.ID)
	b.unindex(s.Callee.UserID, s.ID)
	b.spent[s.ID] = struct{}{}
}

func (s *CallSession) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
