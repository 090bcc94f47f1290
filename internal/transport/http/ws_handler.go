package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/studysync/studysync-server/internal/config"
	"github.com/studysync/studysync-server/internal/core"
	"github.com/studysync/studysync-server/internal/proto"
	"github.com/studysync/studysync-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub *core.Hub
	cfg config.Config
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	client := core.NewClient(utils.NewID())
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = truncateReason(err.Error())
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// maxCloseReasonBytes is the longest close reason that fits a control
// frame: 125 bytes of payload minus the 2-byte status code.
const maxCloseReasonBytes = 123

func truncateReason(reason string) string {
	if len(reason) <= maxCloseReasonBytes {
		return reason
	}
	reason = reason[:maxCloseReasonBytes]
	// Do not cut a UTF-8 sequence in half; close reasons must be
	// valid UTF-8.
	for len(reason) > 0 && !utf8.ValidString(reason) {
		reason = reason[:len(reason)-1]
	}
	return reason
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.cfg.MessageRateLimit)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var in proto.Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			// Malformed JSON keeps the connection alive.
			if writeErr := h.writeError(ctx, conn, core.ErrCodeInvalidFormat, "Invalid message format"); writeErr != nil {
				return writeErr
			}
			continue
		}

		if in.Type == proto.TypeMessage && !limiter.allow() {
			if writeErr := h.writeError(ctx, conn, core.ErrCodeBadRequest, "rate limit exceeded"); writeErr != nil {
				return writeErr
			}
			continue
		}

		cmd, protoErr := inboundToCommand(in)
		if protoErr != nil {
			if writeErr := h.writeError(ctx, conn, protoErr.Code, protoErr.Message); writeErr != nil {
				return writeErr
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, code, msg string) error {
	return wsjson.Write(ctx, conn, proto.Outbound{
		Type:    proto.TypeError,
		Payload: proto.Error{Error: msg, Code: code},
	})
}
