package core

import (
	"testing"
	"time"
)

func newTestBroker() *Broker {
	// nil expire callback: no timers, Expire is driven manually.
	return NewBroker(time.Minute, nil)
}

var (
	alice = Identity{UserID: 1, Username: "alice"}
	bob   = Identity{UserID: 2, Username: "bob"}
)

func TestBrokerAcceptPath(t *testing.T) {
	b := newTestBroker()

	s, cerr := b.Request("abc", alice, bob)
	if cerr != nil {
		t.Fatalf("request: %v", cerr)
	}
	if s.State != CallRequesting || s.ID != "abc" {
		t.Fatalf("unexpected session: %+v", s)
	}

	if _, cerr := b.Accept("abc", alice.UserID); cerr == nil || cerr.Code != ErrCodeNotParticipant {
		t.Fatalf("caller must not be able to accept, got %v", cerr)
	}

	s, cerr = b.Accept("abc", bob.UserID)
	if cerr != nil || s.State != CallAccepted {
		t.Fatalf("accept: %v state=%v", cerr, s.State)
	}

	// Offer from caller, answer from callee completes the exchange.
	b.NoteDescription(s, alice.UserID)
	if s.State != CallAccepted {
		t.Fatalf("offer alone must not advance state, got %v", s.State)
	}
	b.NoteDescription(s, bob.UserID)
	if s.State != CallOngoing {
		t.Fatalf("expected ongoing after offer/answer, got %v", s.State)
	}

	s, cerr = b.End("abc", alice.UserID)
	if cerr != nil || s.State != CallEnded || s.EndedAt == nil {
		t.Fatalf("end: %v %+v", cerr, s)
	}
}

func TestBrokerRejectIsTerminal(t *testing.T) {
	b := newTestBroker()
	b.Request("abc", alice, bob)

	s, cerr := b.Reject("abc", bob.UserID)
	if cerr != nil || s.State != CallRejected {
		t.Fatalf("reject: %v state=%v", cerr, s.State)
	}

	// No transition may follow a terminal state.
	if _, cerr := b.Accept("abc", bob.UserID); cerr == nil || cerr.Code != ErrCodeCallNotFound {
		t.Fatalf("accept after reject must fail with call_not_found, got %v", cerr)
	}
	if _, cerr := b.End("abc", bob.UserID); cerr == nil || cerr.Code != ErrCodeCallNotFound {
		t.Fatalf("end after reject must fail, got %v", cerr)
	}
}

func TestBrokerSessionIDNeverReused(t *testing.T) {
	b := newTestBroker()
	b.Request("abc", alice, bob)
	b.End("abc", alice.UserID)

	if _, cerr := b.Request("abc", alice, bob); cerr == nil || cerr.Code != ErrCodeSessionReused {
		t.Fatalf("terminated id must not be reusable, got %v", cerr)
	}
}

func TestBrokerAcceptAfterAcceptRejected(t *testing.T) {
	b := newTestBroker()
	b.Request("abc", alice, bob)
	b.Accept("abc", bob.UserID)

	if _, cerr := b.Accept("abc", bob.UserID); cerr == nil || cerr.Code != ErrCodeCallTerminated {
		t.Fatalf("second accept must fail, got %v", cerr)
	}
	if _, cerr := b.Reject("abc", bob.UserID); cerr == nil || cerr.Code != ErrCodeCallTerminated {
		t.Fatalf("reject after accept must fail, got %v", cerr)
	}
}

func TestBrokerExpireOnlyWhileRinging(t *testing.T) {
	b := newTestBroker()
	b.Request("abc", alice, bob)
	b.Accept("abc", bob.UserID)

	if _, expired := b.Expire("abc"); expired {
		t.Fatalf("accepted call must not expire")
	}

	b.Request("def", alice, bob)
	s, expired := b.Expire("def")
	if !expired || s.State != CallRejected {
		t.Fatalf("ringing call should expire to rejected, got %v %+v", expired, s)
	}
}

func TestBrokerEndAllForEndsNonTerminal(t *testing.T) {
	b := newTestBroker()
	carol := Identity{UserID: 3, Username: "carol"}

	b.Request("s1", alice, bob)
	s2, _ := b.Request("s2", carol, alice)
	b.Accept("s2", alice.UserID)

	ended := b.EndAllFor(alice.UserID)
	if len(ended) != 2 {
		t.Fatalf("expected both of alice's sessions ended, got %d", len(ended))
	}
	for _, s := range ended {
		if s.State != CallEnded || s.EndedAt == nil {
			t.Fatalf("session %s not properly ended: %+v", s.ID, s)
		}
	}
	if s2.State != CallEnded {
		t.Fatalf("accepted session must cascade to ended")
	}
	if b.Active() != 0 {
		t.Fatalf("expected no live sessions, got %d", b.Active())
	}
}

func TestBrokerOtherParticipant(t *testing.T) {
	b := newTestBroker()
	s, _ := b.Request("abc", alice, bob)

	if other, ok := s.Other(alice.UserID); !ok || other.UserID != bob.UserID {
		t.Fatalf("unexpected other for caller: %+v %v", other, ok)
	}
	if other, ok := s.Other(bob.UserID); !ok || other.UserID != alice.UserID {
		t.Fatalf("unexpected other for callee: %+v %v", other, ok)
	}
	if _, ok := s.Other(99); ok {
		t.Fatalf("stranger must not resolve a peer")
	}
}
