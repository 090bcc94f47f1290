package core

// Client is one live transport connection as seen by the core layer.
// Identity and room membership are owned by the Registry; the client
// itself only carries the channels the transport pumps.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
	}
}

// send delivers an event without blocking the hub loop.
func (c *Client) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
	}
}
