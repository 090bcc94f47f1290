package core

// Identity is the authenticated user bound to a connection.
type Identity struct {
	UserID   int64
	Username string
}

type connEntry struct {
	client   *Client
	identity *Identity
	rooms    map[string]struct{}
}

// Registry owns the authoritative mapping from live connection to
// identity and room memberships. It is not safe for concurrent use;
// every call must happen on the hub goroutine.
type Registry struct {
	entries map[*Client]*connEntry

	// byUser addresses one connection per user id. When a user holds
	// several connections, the last one to authenticate wins; on
	// disconnect the slot rebinds to any surviving connection with
	// the same identity.
	byUser map[int64]*Client
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[*Client]*connEntry),
		byUser:  make(map[int64]*Client),
	}
}

// Register adds a connection with no identity. Registering the same
// connection twice is a no-op.
func (r *Registry) Register(c *Client) {
	if _, ok := r.entries[c]; ok {
		return
	}
	r.entries[c] = &connEntry{client: c, rooms: make(map[string]struct{})}
}

// Authenticate binds an identity to the connection. Repeated calls
// overwrite the previous identity (last write wins). The identity
// claim is not verified here; that is the auth collaborator's job.
// Unknown connections are ignored.
func (r *Registry) Authenticate(c *Client, userID int64, username string) *Identity {
	e, ok := r.entries[c]
	if !ok {
		return nil
	}
	if prev := e.identity; prev != nil && prev.UserID != userID && r.byUser[prev.UserID] == c {
		delete(r.byUser, prev.UserID)
		r.rebind(prev.UserID, c)
	}
	e.identity = &Identity{UserID: userID, Username: username}
	r.byUser[userID] = c
	return e.identity
}

// Unregister removes the connection and reports the identity and room
// set it held so the hub can cascade room, call, and presence cleanup.
func (r *Registry) Unregister(c *Client) (*Identity, []string) {
	e, ok := r.entries[c]
	if !ok {
		return nil, nil
	}
	delete(r.entries, c)

	rooms := make([]string, 0, len(e.rooms))
	for room := range e.rooms {
		rooms = append(rooms, room)
	}

	if e.identity != nil && r.byUser[e.identity.UserID] == c {
		delete(r.byUser, e.identity.UserID)
		r.rebind(e.identity.UserID, nil)
	}
	return e.identity, rooms
}

// rebind points byUser at any surviving connection holding userID.
func (r *Registry) rebind(userID int64, skip *Client) {
	for c, e := range r.entries {
		if c == skip || e.identity == nil {
			continue
		}
		if e.identity.UserID == userID {
			r.byUser[userID] = c
			return
		}
	}
}

// Identity returns the identity bound to the connection, or nil while
// it is still anonymous or unknown.
func (r *Registry) Identity(c *Client) *Identity {
	if e, ok := r.entries[c]; ok {
		return e.identity
	}
	return nil
}

// FindByUserID returns the addressable connection for a user id, or
// nil when the user has no live authenticated connection.
func (r *Registry) FindByUserID(userID int64) *Client {
	return r.byUser[userID]
}

// TrackRoom records a room membership on the connection entry.
func (r *Registry) TrackRoom(c *Client, roomID string) {
	if e, ok := r.entries[c]; ok {
		e.rooms[roomID] = struct{}{}
	}
}

// ForgetRoom removes a room membership from the connection entry.
func (r *Registry) ForgetRoom(c *Client, roomID string) {
	if e, ok := r.entries[c]; ok {
		delete(e.rooms, roomID)
	}
}

// Clients returns a snapshot of every live connection.
func (r *Registry) Clients() []*Client {
	out := make([]*Client, 0, len(r.entries))
	for c := range r.entries {
		out = append(out, c)
	}
	return out
}

// OnlineUsers returns the distinct identified users, one entry per
// user id regardless of how many connections the user holds.
func (r *Registry) OnlineUsers() []Identity {
	out := make([]Identity, 0, len(r.byUser))
	for _, c := range r.byUser {
		if e, ok := r.entries[c]; ok && e.identity != nil {
			out = append(out, *e.identity)
		}
	}
	return out
}

// OnlineCount returns the number of distinct identified users.
func (r *Registry) OnlineCount() int {
	return len(r.byUser)
}
