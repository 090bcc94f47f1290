package core

import (
	"context"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func startHub(t *testing.T, opts Options) *Hub {
	t.Helper()

	hub := NewHub(opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

// connectAs registers a connection and authenticates it as the user,
// draining the auth_success confirmation.
func connectAs(t *testing.T, hub *Hub, id string, userID int64, username string) *Client {
	t.Helper()

	c := NewClient(id)
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandAuthenticate, UserID: userID, Username: username}
	mustEvent(t, c.Events, EventAuthSuccess)
	return c
}

func drain(c *Client) {
	for {
		select {
		case <-c.Events:
		default:
			return
		}
	}
}
