package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/studysync/studysync-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_probe: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	userID := flag.Int64("user", 1, "user id to authenticate as")
	username := flag.String("name", "cli-user", "username")
	room := flag.String("room", "", "room to join after authenticating")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, payload any) {
		raw, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			log.Printf("marshal %s: %v", msgType, marshalErr)
			return
		}
		if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Payload: raw}); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	send(proto.TypeAuth, proto.AuthPayload{UserID: *userID, Username: *username})
	if *room != "" {
		send(proto.TypeJoinRoom, proto.RoomPayload{RoomID: *room})
	}

	fmt.Printf("Connected to %s as %s (id %d)\n", *addr, *username, *userID)
	fmt.Println("Commands: /dm <userId> <text>, /room <roomId> <text>, Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, send, *room)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var env struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch env.Type {
		case proto.TypeMessage:
			var msg proto.ChatMessage
			if err := json.Unmarshal(env.Payload, &msg); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			if msg.RoomID != "" {
				fmt.Printf("[%s] %s: %s\n", msg.RoomID, msg.SenderName, msg.Message)
			} else {
				fmt.Printf("[dm] %s: %s\n", msg.SenderName, msg.Message)
			}
		case proto.TypeUserStatus:
			var status proto.UserStatus
			if err := json.Unmarshal(env.Payload, &status); err != nil {
				log.Printf("unmarshal user_status: %v", err)
				continue
			}
			state := "offline"
			if status.IsOnline {
				state = "online"
			}
			fmt.Printf("* %s is %s\n", status.Username, state)
		case proto.TypeError:
			var perr proto.Error
			if err := json.Unmarshal(env.Payload, &perr); err != nil {
				log.Printf("unmarshal error: %v", err)
				continue
			}
			fmt.Printf("! error: %s (%s)\n", perr.Error, perr.Code)
		default:
			fmt.Printf("< %s %s\n", env.Type, string(env.Payload))
		}
	}
}

func writeLoop(ctx context.Context, send func(string, any), defaultRoom string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "/dm "):
			var recipientID int64
			var text string
			if _, err := fmt.Sscanf(line, "/dm %d", &recipientID); err != nil {
				fmt.Println("usage: /dm <userId> <text>")
				continue
			}
			if idx := strings.Index(line[4:], " "); idx >= 0 {
				text = strings.TrimSpace(line[4+idx:])
			}
			if text == "" {
				fmt.Println("usage: /dm <userId> <text>")
				continue
			}
			send(proto.TypeMessage, proto.ChatPayload{RecipientID: recipientID, Message: text})
		case strings.HasPrefix(line, "/room "):
			parts := strings.SplitN(line, " ", 3)
			if len(parts) < 3 {
				fmt.Println("usage: /room <roomId> <text>")
				continue
			}
			send(proto.TypeMessage, proto.ChatPayload{RoomID: parts[1], Message: parts[2]})
		default:
			if defaultRoom == "" {
				fmt.Println("no default room; use /dm or /room")
				continue
			}
			send(proto.TypeMessage, proto.ChatPayload{RoomID: defaultRoom, Message: line})
		}
	}
}
