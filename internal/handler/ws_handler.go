package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/config"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/hub"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/log"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler accepts WebSocket connections and dispatches inbound frames
// to the chat service.
type WSHandler struct {
	hub     *hub.Hub
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleFrame)
}

func (h *WSHandler) handleFrame(client *hub.Client, message []byte) {
	var base domain.BaseFrame
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid frame"))
		return
	}

	ctx := context.Background()
	l := log.L()

	switch base.Type {
	case domain.MsgTypeAuth:
		var frame domain.AuthFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid auth frame"))
			return
		}
		if err := h.service.HandleAuth(ctx, client, frame.Token); err != nil {
			l.Debug().Str(log.FieldConnectionID, client.ID).Err(err).Msg("auth failed")
		}

	case domain.MsgTypeJoinRoom:
		var frame domain.JoinRoomFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid join_room frame"))
			return
		}
		if err := h.service.HandleJoinRoom(ctx, client, frame.RoomID); err != nil {
			l.Debug().Str(log.FieldConnectionID, client.ID).Str(log.FieldRoomID, frame.RoomID).Err(err).Msg("join failed")
		}

	case domain.MsgTypeChatMessage:
		var frame domain.ChatFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid chat_message frame"))
			return
		}
		if err := h.service.HandleChatMessage(ctx, client, frame.RoomID, frame.Body, frame.Kind); err != nil {
			l.Debug().Str(log.FieldConnectionID, client.ID).Str(log.FieldRoomID, frame.RoomID).Err(err).Msg("chat message failed")
		}

	case domain.MsgTypeLeaveRoom:
		var frame domain.LeaveRoomFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid leave_room frame"))
			return
		}
		if err := h.service.HandleLeaveRoom(ctx, client, frame.RoomID); err != nil {
			l.Debug().Str(log.FieldConnectionID, client.ID).Str(log.FieldRoomID, frame.RoomID).Err(err).Msg("leave failed")
		}

	case domain.MsgTypePing:
		client.SendFrame(map[string]string{"type": domain.MsgTypePong})

	default:
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "unknown frame type"))
	}
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/chat/ws", h.HandleWebSocket)
}
