package http

import (
	"encoding/json"
	"time"

	"github.com/studysync/studysync-server/internal/core"
	"github.com/studysync/studysync-server/internal/proto"
)

// inboundToCommand decodes one envelope into a hub command. A non-nil
// CoreError means the envelope was rejected at the protocol level and
// the connection stays open.
func inboundToCommand(in proto.Inbound) (*core.Command, *core.CoreError) {
	switch in.Type {
	case proto.TypeAuth:
		var p proto.AuthPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, invalidPayload()
		}
		return &core.Command{
			Kind:     core.CommandAuthenticate,
			UserID:   p.UserID,
			Username: p.Username,
			Token:    p.Token,
		}, nil

	case proto.TypeJoinRoom, proto.TypeLeaveRoom:
		var p proto.RoomPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, invalidPayload()
		}
		if p.RoomID == "" {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "roomId is required"}
		}
		kind := core.CommandJoinRoom
		if in.Type == proto.TypeLeaveRoom {
			kind = core.CommandLeaveRoom
		}
		return &core.Command{Kind: kind, RoomID: p.RoomID}, nil

	case proto.TypeMessage:
		var p proto.ChatPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, invalidPayload()
		}
		if p.Message == "" {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "message is required"}
		}
		return &core.Command{
			Kind:        core.CommandSendChat,
			RoomID:      p.RoomID,
			RecipientID: p.RecipientID,
			Text:        p.Message,
		}, nil

	case proto.TypeTyping:
		var p proto.TypingPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, invalidPayload()
		}
		return &core.Command{
			Kind:        core.CommandTyping,
			RoomID:      p.RoomID,
			RecipientID: p.RecipientID,
			IsTyping:    p.IsTyping,
		}, nil

	case proto.TypeCallRequest:
		var p proto.CallRequestPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, invalidPayload()
		}
		if p.RecipientID == 0 {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "recipientId is required"}
		}
		return &core.Command{
			Kind:        core.CommandCallRequest,
			RecipientID: p.RecipientID,
			SessionID:   p.SessionID,
		}, nil

	case proto.TypeCallAccept, proto.TypeCallReject:
		var p proto.CallAnswerPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, invalidPayload()
		}
		if p.SessionID == "" {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "sessionId is required"}
		}
		kind := core.CommandCallAccept
		if in.Type == proto.TypeCallReject {
			kind = core.CommandCallReject
		}
		return &core.Command{Kind: kind, SessionID: p.SessionID, Reason: p.Reason}, nil

	case proto.TypeCallEnd:
		var p proto.CallEndPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, invalidPayload()
		}
		if p.SessionID == "" {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "sessionId is required"}
		}
		return &core.Command{Kind: core.CommandCallEnd, SessionID: p.SessionID}, nil

	case proto.TypeICECandidate, proto.TypeSessionDescription:
		var p proto.SignalPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, invalidPayload()
		}
		if p.SessionID == "" {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "sessionId is required"}
		}
		signal := core.SignalICECandidate
		if in.Type == proto.TypeSessionDescription {
			signal = core.SignalSessionDescription
		}
		// The payload passes through to the peer uninspected.
		return &core.Command{
			Kind:      core.CommandRelaySignal,
			SessionID: p.SessionID,
			Signal:    signal,
			Payload:   in.Payload,
		}, nil

	case proto.TypeNotification:
		var p proto.NotificationPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, invalidPayload()
		}
		if p.RecipientID == 0 {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "recipientId is required"}
		}
		return &core.Command{
			Kind:        core.CommandNotify,
			RecipientID: p.RecipientID,
			Payload:     p.Notification,
		}, nil

	default:
		return nil, &core.CoreError{
			Code:    core.ErrCodeUnknownType,
			Message: "Unknown message type: " + in.Type,
		}
	}
}

func invalidPayload() *core.CoreError {
	return &core.CoreError{Code: core.ErrCodeInvalidFormat, Message: "Invalid message format"}
}

// outboundFromEvent renders a core event as a wire envelope.
func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventAuthSuccess:
		return proto.Outbound{Type: proto.TypeAuthSuccess, Payload: proto.AuthSuccess{
			UserID:   ev.User.UserID,
			Username: ev.User.Username,
		}}
	case core.EventUserStatus:
		return proto.Outbound{Type: proto.TypeUserStatus, Payload: proto.UserStatus{
			UserID:   ev.User.UserID,
			Username: ev.User.Username,
			IsOnline: ev.Online,
		}}
	case core.EventRoomJoined:
		return proto.Outbound{Type: proto.TypeRoomJoined, Payload: proto.RoomAck{RoomID: ev.RoomID}}
	case core.EventRoomLeft:
		return proto.Outbound{Type: proto.TypeRoomLeft, Payload: proto.RoomAck{RoomID: ev.RoomID}}
	case core.EventUserJoined:
		return proto.Outbound{Type: proto.TypeUserJoined, Payload: proto.RoomPresence{
			UserID:   ev.User.UserID,
			Username: ev.User.Username,
			RoomID:   ev.RoomID,
		}}
	case core.EventUserLeft:
		return proto.Outbound{Type: proto.TypeUserLeft, Payload: proto.RoomPresence{
			UserID:   ev.User.UserID,
			Username: ev.User.Username,
			RoomID:   ev.RoomID,
		}}
	case core.EventChatMessage:
		return proto.Outbound{Type: proto.TypeMessage, Payload: proto.ChatMessage{
			SenderID:   ev.User.UserID,
			SenderName: ev.User.Username,
			Message:    ev.Text,
			RoomID:     ev.RoomID,
			Timestamp:  ev.SentAt.Format(time.RFC3339),
		}}
	case core.EventTypingStatus:
		return proto.Outbound{Type: proto.TypeTypingStatus, Payload: proto.TypingStatus{
			SenderID:   ev.User.UserID,
			SenderName: ev.User.Username,
			IsTyping:   ev.Typing,
			RoomID:     ev.RoomID,
		}}
	case core.EventCallRequest:
		return proto.Outbound{Type: proto.TypeCallRequest, Payload: proto.CallRequest{
			CallerID:   ev.User.UserID,
			CallerName: ev.User.Username,
			SessionID:  ev.SessionID,
		}}
	case core.EventCallRequesting:
		return proto.Outbound{Type: proto.TypeCallRequesting, Payload: proto.CallRequesting{
			RecipientID: ev.Peer.UserID,
			SessionID:   ev.SessionID,
		}}
	case core.EventCallAccepted:
		return proto.Outbound{Type: proto.TypeCallAccepted, Payload: proto.CallAnswer{
			RecipientID:   ev.Peer.UserID,
			RecipientName: ev.Peer.Username,
			SessionID:     ev.SessionID,
		}}
	case core.EventCallRejected:
		return proto.Outbound{Type: proto.TypeCallRejected, Payload: proto.CallAnswer{
			RecipientID:   ev.Peer.UserID,
			RecipientName: ev.Peer.Username,
			SessionID:     ev.SessionID,
			Reason:        ev.Reason,
		}}
	case core.EventCallEnded:
		return proto.Outbound{Type: proto.TypeCallEnded, Payload: proto.CallEnded{
			UserID:    ev.User.UserID,
			Username:  ev.User.Username,
			SessionID: ev.SessionID,
		}}
	case core.EventCallError:
		msg := "call failed"
		if ev.Error != nil {
			msg = ev.Error.Message
		}
		return proto.Outbound{Type: proto.TypeCallError, Payload: proto.CallError{
			Error:       msg,
			RecipientID: ev.Peer.UserID,
		}}
	case core.EventSignal:
		// Forward the caller's payload byte for byte.
		return proto.Outbound{Type: string(ev.Signal), Payload: ev.Payload}
	case core.EventNotification:
		return proto.Outbound{Type: proto.TypeNotification, Payload: ev.Payload}
	case core.EventBroadcast:
		return proto.Outbound{Type: ev.Type, Payload: ev.Data}
	case core.EventError:
		if ev.Error == nil {
			return proto.Outbound{Type: proto.TypeError, Payload: proto.Error{Error: "unknown error"}}
		}
		return proto.Outbound{Type: proto.TypeError, Payload: proto.Error{
			Error: ev.Error.Message,
			Code:  ev.Error.Code,
		}}
	default:
		return proto.Outbound{Type: proto.TypeError, Payload: proto.Error{Error: "unknown event"}}
	}
}
