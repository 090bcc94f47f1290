package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/studysync/studysync-server/internal/proto"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func postJSON(t *testing.T, ts *httptest.Server, path, token string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, ts *httptest.Server, path, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// registerUser registers and logs in a user, returning the login token
// and the user record.
func registerUser(t *testing.T, ts *httptest.Server, username, password string) (string, UserResponse) {
	t.Helper()

	resp := postJSON(t, ts, "/api/register", "", RegisterRequest{Username: username, Password: password})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: unexpected status %d", username, resp.StatusCode)
	}

	resp = postJSON(t, ts, "/api/login", "", LoginRequest{Username: username, Password: password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: unexpected status %d", username, resp.StatusCode)
	}
	auth := decodeBody[AuthResponse](t, resp)
	if auth.Token == "" || auth.User == nil {
		t.Fatalf("incomplete login response: %+v", auth)
	}
	return auth.Token, *auth.User
}

func TestRegisterValidation(t *testing.T) {
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/api/register", "", RegisterRequest{Username: "ab", Password: "password123"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short username: unexpected status %d", resp.StatusCode)
	}

	resp = postJSON(t, ts, "/api/register", "", RegisterRequest{Username: "alice", Password: "12345"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short password: unexpected status %d", resp.StatusCode)
	}
}

func TestRegisterConflict(t *testing.T) {
	ts := startTestServer(t)

	registerUser(t, ts, "alice", "password123")

	resp := postJSON(t, ts, "/api/register", "", RegisterRequest{Username: "alice", Password: "password123"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: unexpected status %d", resp.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts := startTestServer(t)

	registerUser(t, ts, "alice", "password123")

	resp := postJSON(t, ts, "/api/login", "", LoginRequest{Username: "alice", Password: "nope"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: unexpected status %d", resp.StatusCode)
	}
}

func TestGuestLogin(t *testing.T) {
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/api/guest", "", struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guest login: unexpected status %d", resp.StatusCode)
	}
	auth := decodeBody[AuthResponse](t, resp)
	if auth.Token == "" {
		t.Fatalf("expected guest token")
	}

	var sessionCookie bool
	for _, c := range resp.Cookies() {
		if c.Name == "guest_session" && c.Value != "" {
			sessionCookie = true
		}
	}
	if !sessionCookie {
		t.Fatalf("expected guest_session cookie")
	}
}

func TestOnlineUsersRequiresAuth(t *testing.T) {
	ts := startTestServer(t)

	resp := getJSON(t, ts, "/api/users/online", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestOnlineUsersListsConnected(t *testing.T) {
	ts := startTestServer(t)
	ctx := testCtx(t)

	token, user := registerUser(t, ts, "alice", "password123")

	conn := dialWS(t, ctx, ts)
	sendEnvelope(t, ctx, conn, proto.TypeAuth, proto.AuthPayload{Token: token})
	readEnvelope(t, ctx, conn, proto.TypeAuthSuccess)

	resp := getJSON(t, ts, "/api/users/online", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	online := decodeBody[OnlineUsersResponse](t, resp)
	if online.Count != 1 || len(online.Users) != 1 || online.Users[0].ID != user.ID {
		t.Fatalf("unexpected online users: %+v", online)
	}
}

func TestSendMessagePersistsAndDelivers(t *testing.T) {
	ts := startTestServer(t)
	ctx := testCtx(t)

	aliceToken, _ := registerUser(t, ts, "alice", "password123")
	bobToken, bob := registerUser(t, ts, "bob", "password123")

	// Bob offline: message persists but is not delivered.
	resp := postJSON(t, ts, "/api/messages", aliceToken, SendMessageRequest{RecipientID: bob.ID, Message: "see you at the library"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send message: unexpected status %d", resp.StatusCode)
	}
	sent := decodeBody[SendMessageResponse](t, resp)
	if sent.ID == 0 || sent.Delivered {
		t.Fatalf("unexpected send response: %+v", sent)
	}

	// Bob connects; the next message is pushed live.
	conn := dialWS(t, ctx, ts)
	sendEnvelope(t, ctx, conn, proto.TypeAuth, proto.AuthPayload{Token: bobToken})
	readEnvelope(t, ctx, conn, proto.TypeAuthSuccess)

	resp = postJSON(t, ts, "/api/messages", aliceToken, SendMessageRequest{RecipientID: bob.ID, Message: "running late"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send message: unexpected status %d", resp.StatusCode)
	}
	sent = decodeBody[SendMessageResponse](t, resp)
	if !sent.Delivered {
		t.Fatalf("expected live delivery")
	}

	env := readEnvelope(t, ctx, conn, proto.TypeMessage)
	var pushed proto.ChatMessage
	if err := json.Unmarshal(env.Payload, &pushed); err != nil {
		t.Fatalf("unmarshal pushed message: %v", err)
	}
	if pushed.Message != "running late" || pushed.SenderName != "alice" {
		t.Fatalf("unexpected pushed message: %+v", pushed)
	}

	// History holds both, oldest first.
	resp = getJSON(t, ts, "/api/messages?peerId="+itoa(bob.ID), aliceToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list messages: unexpected status %d", resp.StatusCode)
	}
	history := decodeBody[[]MessageResponse](t, resp)
	if len(history) != 2 || history[0].Message != "see you at the library" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestListMessagesRequiresPeer(t *testing.T) {
	ts := startTestServer(t)

	token, _ := registerUser(t, ts, "alice", "password123")

	resp := getJSON(t, ts, "/api/messages", token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
