package core

// Publisher fans presence transitions out to every live connection.
// Presence is purely derived from the registry; nothing survives a
// restart.
type Publisher struct {
	reg *Registry
}

// NewPublisher constructs a publisher over the registry.
func NewPublisher(reg *Registry) *Publisher {
	return &Publisher{reg: reg}
}

// Announce broadcasts an online/offline transition for a user to all
// connections, identified or not.
func (p *Publisher) Announce(userID int64, username string, online bool) {
	ev := &Event{
		Kind:   EventUserStatus,
		User:   Identity{UserID: userID, Username: username},
		Online: online,
	}
	for _, c := range p.reg.Clients() {
		c.send(ev)
	}
}
