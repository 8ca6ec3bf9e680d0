package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/log"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/store"
)

// Service serves room history pages, collapsing concurrent identical
// reads with singleflight and caching complete pages. cache may be nil,
// in which case every read goes to the store.
type Service struct {
	messages store.MessageStore
	cache    Cache
	cacheTTL time.Duration
	sf       singleflight.Group
}

func NewService(messages store.MessageStore, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{
		messages: messages,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// GetRoomMessages returns the room's messages oldest first.
func (s *Service) GetRoomMessages(ctx context.Context, roomID string, page store.Page) ([]domain.ChatMessage, error) {
	if s.cache == nil {
		return s.messages.ListByRoom(ctx, roomID, page)
	}

	key := s.cache.BuildKey(roomID, page)

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.fetchWithCache(ctx, roomID, page, key)
	})
	if err != nil {
		return nil, err
	}

	msgs, ok := result.([]domain.ChatMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return msgs, nil
}

func (s *Service) fetchWithCache(ctx context.Context, roomID string, page store.Page, key string) ([]domain.ChatMessage, error) {
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		l := log.L()
		l.Warn().Str(log.FieldRoomID, roomID).Err(err).Msg("history cache read failed")
	}

	msgs, err := s.messages.ListByRoom(ctx, roomID, page)
	if err != nil {
		return nil, err
	}

	// Only complete pages are immutable in an append-only, ascending
	// log; partial pages still grow and must not be cached.
	if page.Limit > 0 && len(msgs) == page.Limit {
		if err := s.cache.Set(ctx, key, msgs, s.cacheTTL); err != nil {
			l := log.L()
			l.Warn().Str(log.FieldRoomID, roomID).Err(err).Msg("history cache write failed")
		}
	}

	return msgs, nil
}
