package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/auth"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/fanout"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/hub"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/log"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/pubsub"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/store"
)

const disconnectGrace = 3 * time.Second

type chatService struct {
	store     store.Store
	publisher pubsub.Publisher
	fanout    *fanout.Manager
	validator *auth.Validator
	loc       *time.Location
}

func NewChatService(
	st store.Store,
	publisher pubsub.Publisher,
	fm *fanout.Manager,
	validator *auth.Validator,
	loc *time.Location,
) ChatService {
	return &chatService{
		store:     st,
		publisher: publisher,
		fanout:    fm,
		validator: validator,
		loc:       loc,
	}
}

func (s *chatService) HandleAuth(ctx context.Context, c *hub.Client, token string) error {
	ident, err := s.validator.Validate(token)
	if err != nil {
		c.SendFrame(&domain.AuthResultFrame{
			Type:    domain.MsgTypeAuthResult,
			Success: false,
			Message: "invalid or expired token",
		})
		return err
	}

	c.Session.Authenticate(ident.MemberID, ident.Nickname)

	return c.SendFrame(&domain.AuthResultFrame{
		Type:     domain.MsgTypeAuthResult,
		Success:  true,
		MemberID: ident.MemberID,
		Nickname: ident.Nickname,
	})
}

func (s *chatService) HandleJoinRoom(ctx context.Context, c *hub.Client, roomID string) error {
	if !c.Session.IsAuthenticated() {
		return c.SendFrame(domain.NewErrorFrame(domain.ErrCodeUnauthorized, "not authenticated"))
	}
	if roomID == "" {
		return c.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "room_id is required"))
	}

	if c.Session.InRoom(roomID) {
		// Rejoining is a no-op beyond the ack.
		return c.SendFrame(&domain.RoomJoinedFrame{Type: domain.MsgTypeRoomJoined, RoomID: roomID})
	}

	exists, err := s.store.RoomExists(ctx, roomID)
	if err != nil {
		c.SendFrame(domain.NewErrorFrame(domain.ErrCodeStorageError, "room lookup failed"))
		return err
	}
	if !exists {
		return c.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "unknown room"))
	}

	member, err := s.store.IsMember(ctx, roomID, c.Session.GetMemberID())
	if err != nil {
		c.SendFrame(domain.NewErrorFrame(domain.ErrCodeStorageError, "membership lookup failed"))
		return err
	}
	if !member {
		return c.SendFrame(domain.NewErrorFrame(domain.ErrCodeForbidden, "not a member of this room"))
	}

	if err := s.fanout.Join(ctx, roomID, c); err != nil {
		// The local join stands; the subscription is retried on the
		// next join and history remains durable meanwhile.
		l := log.L()
		l.Warn().Str(log.FieldRoomID, roomID).Err(err).Msg("room subscription deferred")
	}
	c.Session.JoinRoom(roomID)

	s.systemMessage(ctx, c, roomID, domain.KindEnter,
		fmt.Sprintf("%s joined the room", c.Session.GetNickname()))

	return c.SendFrame(&domain.RoomJoinedFrame{Type: domain.MsgTypeRoomJoined, RoomID: roomID})
}

// HandleChatMessage is the ingress path: stamp, persist, then announce.
// A message is never announced unless its append succeeded, and a failed
// announce never rolls back the write. The sender identity comes from
// the session; kind is taken from the frame and defaults to talk.
func (s *chatService) HandleChatMessage(ctx context.Context, c *hub.Client, roomID, body string, kind domain.MessageKind) error {
	if !c.Session.IsAuthenticated() {
		return c.SendFrame(domain.NewErrorFrame(domain.ErrCodeUnauthorized, "not authenticated"))
	}
	if !c.Session.InRoom(roomID) {
		return c.SendFrame(domain.NewErrorFrame(domain.ErrCodeNotInRoom, "not in this room"))
	}

	if kind == "" {
		kind = domain.KindTalk
	}
	if !kind.Valid() {
		return c.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid message kind"))
	}

	msg := &domain.ChatMessage{
		RoomID:         roomID,
		SenderID:       c.Session.GetMemberID(),
		SenderNickname: c.Session.GetNickname(),
		Body:           body,
		Kind:           kind,
		CreatedAt:      time.Now().In(s.loc),
	}

	stored, err := s.store.Append(ctx, msg)
	if err != nil {
		c.SendFrame(domain.NewErrorFrame(domain.ErrCodeStorageError, "message not saved, please retry"))
		return err
	}

	s.announce(ctx, stored)
	return nil
}

func (s *chatService) HandleLeaveRoom(ctx context.Context, c *hub.Client, roomID string) error {
	if !c.Session.IsAuthenticated() {
		return c.SendFrame(domain.NewErrorFrame(domain.ErrCodeUnauthorized, "not authenticated"))
	}
	if !c.Session.LeaveRoom(roomID) {
		return c.SendFrame(domain.NewErrorFrame(domain.ErrCodeNotInRoom, "not in this room"))
	}

	s.fanout.Leave(ctx, roomID, c.ID)

	s.systemMessage(ctx, c, roomID, domain.KindLeave,
		fmt.Sprintf("%s left the room", c.Session.GetNickname()))

	return c.SendFrame(&domain.RoomLeftFrame{Type: domain.MsgTypeRoomLeft, RoomID: roomID})
}

// HandleDisconnect leaves every joined room. It is idempotent per room:
// rooms already vacated explicitly are skipped by the session bookkeeping.
func (s *chatService) HandleDisconnect(c *hub.Client) {
	rooms := c.Session.Rooms()
	if len(rooms) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), disconnectGrace)
	defer cancel()

	for _, roomID := range rooms {
		if !c.Session.LeaveRoom(roomID) {
			continue
		}
		s.fanout.Leave(ctx, roomID, c.ID)

		if c.Session.IsAuthenticated() {
			s.systemMessage(ctx, c, roomID, domain.KindLeave,
				fmt.Sprintf("%s left the room", c.Session.GetNickname()))
		}
	}

	l := log.L()
	l.Debug().Str(log.FieldConnectionID, c.ID).Int("rooms", len(rooms)).Msg("connection cleaned up")
}

// announce publishes a stored message on the room's channel. Publish
// failures degrade to durable-but-not-live and are never surfaced to the
// sender.
func (s *chatService) announce(ctx context.Context, stored *domain.ChatMessage) {
	ev, err := pubsub.NewEvent(pubsub.EventTypeChatMessage, stored.RoomID, stored)
	if err != nil {
		l := log.L()
		l.Error().Str(log.FieldMessageID, stored.ID).Err(err).Msg("failed to encode chat event")
		return
	}

	if err := s.publisher.Publish(ctx, pubsub.RoomChannel(stored.RoomID), ev); err != nil {
		l := log.L()
		l.Warn().
			Str(log.FieldRoomID, stored.RoomID).
			Str(log.FieldMessageID, stored.ID).
			Err(err).
			Msg("message durable but not live-pushed")
	}
}

// systemMessage persists and announces an enter/leave notice through the
// same write-then-announce path as talk messages. Failures only log; the
// triggering join/leave has already taken effect.
func (s *chatService) systemMessage(ctx context.Context, c *hub.Client, roomID string, kind domain.MessageKind, body string) {
	msg := &domain.ChatMessage{
		RoomID:         roomID,
		SenderID:       c.Session.GetMemberID(),
		SenderNickname: c.Session.GetNickname(),
		Body:           body,
		Kind:           kind,
		CreatedAt:      time.Now().In(s.loc),
	}

	stored, err := s.store.Append(ctx, msg)
	if err != nil {
		l := log.L()
		l.Warn().Str(log.FieldRoomID, roomID).Str(log.FieldKind, string(kind)).Err(err).Msg("system message not saved")
		return
	}

	s.announce(ctx, stored)
}
