package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/studysync/studysync-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestCreateAndGetUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 || u.Username != "alice" || u.IsGuest {
		t.Fatalf("unexpected user: %+v", u)
	}

	byName, err := st.GetUserByUsername(ctx, "alice")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("get by username: %v %+v", err, byName)
	}

	if _, err := st.GetUserByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateGuestUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u, err := st.CreateGuestUser(ctx, "0123456789abcdef")
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	if !u.IsGuest || u.Username != "guest_01234567" || u.SessionID != "0123456789abcdef" {
		t.Fatalf("unexpected guest user: %+v", u)
	}
}

func TestSaveAndListConversation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice, _ := st.CreateUser(ctx, "alice", "h")
	bob, _ := st.CreateUser(ctx, "bob", "h")
	carol, _ := st.CreateUser(ctx, "carol", "h")

	for _, m := range []*store.Message{
		{SenderID: alice.ID, RecipientID: bob.ID, Body: "hi bob"},
		{SenderID: bob.ID, RecipientID: alice.ID, Body: "hi alice"},
		{SenderID: alice.ID, RecipientID: carol.ID, Body: "hi carol"},
	} {
		if _, err := st.SaveMessage(ctx, m); err != nil {
			t.Fatalf("save message: %v", err)
		}
		if m.ID == 0 {
			t.Fatalf("expected id backfilled")
		}
	}

	msgs, err := st.ListConversation(ctx, alice.ID, bob.ID, 10)
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	// Oldest first, both directions included, carol excluded.
	if msgs[0].Body != "hi bob" || msgs[1].Body != "hi alice" {
		t.Fatalf("unexpected ordering: %+v", msgs)
	}
}

func TestListConversationLimit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice, _ := st.CreateUser(ctx, "alice", "h")
	bob, _ := st.CreateUser(ctx, "bob", "h")

	for i := 0; i < 5; i++ {
		_, err := st.SaveMessage(ctx, &store.Message{SenderID: alice.ID, RecipientID: bob.ID, Body: "m"})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	msgs, err := st.ListConversation(ctx, alice.ID, bob.ID, 3)
	if err != nil || len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d (%v)", len(msgs), err)
	}
}
