package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(Options{})
	go hub.Run(ctx)

	sender := NewClient("sender")
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandAuthenticate, UserID: 1, Username: "sender"}
	sender.Commands <- &Command{Kind: CommandJoinRoom, RoomID: "bench"}
	go func() {
		for range sender.Events {
		}
	}()

	// The measured recipient forwards the events we care about; the
	// continuous drain keeps its buffer from overflowing during setup.
	target := NewClient("target")
	joined := make(chan struct{}, 1)
	received := make(chan struct{}, 1)
	go func() {
		for ev := range target.Events {
			switch ev.Kind {
			case EventRoomJoined:
				select {
				case joined <- struct{}{}:
				default:
				}
			case EventChatMessage:
				received <- struct{}{}
			}
		}
	}()
	hub.RegisterClient(target)
	target.Commands <- &Command{Kind: CommandAuthenticate, UserID: 2, Username: "target"}
	target.Commands <- &Command{Kind: CommandJoinRoom, RoomID: "bench"}
	<-joined

	for i := 1; i < recipients; i++ {
		c := NewClient(fmt.Sprintf("c%d", i))
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandAuthenticate, UserID: int64(i + 2), Username: "client"}
		c.Commands <- &Command{Kind: CommandJoinRoom, RoomID: "bench"}
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandSendChat, RoomID: "bench", Text: "payload"}
		<-received
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
