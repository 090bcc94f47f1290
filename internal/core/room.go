package core

// Room is a named broadcast group of connections.
type Room struct {
	ID      string
	members map[*Client]struct{}
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		members: make(map[*Client]struct{}),
	}
}

// add inserts a connection. Returns false if it was already a member.
func (r *Room) add(c *Client) bool {
	if _, ok := r.members[c]; ok {
		return false
	}
	r.members[c] = struct{}{}
	return true
}

// remove deletes a connection. Returns false if it was not a member.
func (r *Room) remove(c *Client) bool {
	if _, ok := r.members[c]; !ok {
		return false
	}
	delete(r.members, c)
	return true
}

func (r *Room) empty() bool {
	return len(r.members) == 0
}

// Members returns a snapshot of the membership, excluding the given
// connection if non-nil. Broadcasts iterate the snapshot so a handler
// triggered mid-delivery cannot mutate the set under us.
func (r *Room) Members(exclude *Client) []*Client {
	out := make([]*Client, 0, len(r.members))
	for c := range r.members {
		if c == exclude {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Broadcast sends an event to every member except exclude.
func (r *Room) Broadcast(ev *Event, exclude *Client) {
	for _, c := range r.Members(exclude) {
		c.send(ev)
	}
}

// Directory maps room ids to live rooms. Rooms are created on first
// join and deleted on last leave; an empty room never persists.
// Like the Registry, it is confined to the hub goroutine.
type Directory struct {
	rooms map[string]*Room
}

// NewDirectory constructs an empty room directory.
func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*Room)}
}

// Join adds the connection to the room, creating it if absent. It
// returns the members present before the join (so they can be told
// about the newcomer) and whether the join changed anything; a second
// join from the same connection is idempotent.
func (d *Directory) Join(roomID string, c *Client) (others []*Client, joined bool) {
	room, ok := d.rooms[roomID]
	if !ok {
		room = newRoom(roomID)
		d.rooms[roomID] = room
	}
	others = room.Members(c)
	joined = room.add(c)
	return others, joined
}

// Leave removes the connection from the room. It returns the members
// remaining after the leave and whether the connection was actually a
// member. Leaving a room you are not in is a no-op; the last leave
// deletes the room.
func (d *Directory) Leave(roomID string, c *Client) (remaining []*Client, left bool) {
	room, ok := d.rooms[roomID]
	if !ok {
		return nil, false
	}
	if !room.remove(c) {
		return nil, false
	}
	if room.empty() {
		delete(d.rooms, roomID)
		return nil, true
	}
	return room.Members(nil), true
}

// Room returns the live room for the id, or nil if nobody is in it.
func (d *Directory) Room(roomID string) *Room {
	return d.rooms[roomID]
}

// Len returns the number of live rooms.
func (d *Directory) Len() int {
	return len(d.rooms)
}
