package service

import (
	"context"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/hub"
)

type ChatService interface {
	HandleAuth(ctx context.Context, client *hub.Client, token string) error
	HandleJoinRoom(ctx context.Context, client *hub.Client, roomID string) error
	HandleChatMessage(ctx context.Context, client *hub.Client, roomID, body string, kind domain.MessageKind) error
	HandleLeaveRoom(ctx context.Context, client *hub.Client, roomID string) error
	HandleDisconnect(client *hub.Client)
}
