package history

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/store"
)

type fakeMessages struct {
	mu    sync.Mutex
	msgs  []domain.ChatMessage
	calls int
}

func (f *fakeMessages) Append(ctx context.Context, msg *domain.ChatMessage) (*domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *msg
	stored.ID = strconv.Itoa(len(f.msgs) + 1)
	f.msgs = append(f.msgs, stored)
	return &stored, nil
}

func (f *fakeMessages) ListByRoom(ctx context.Context, roomID string, page store.Page) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	var all []domain.ChatMessage
	for _, m := range f.msgs {
		if m.RoomID == roomID {
			all = append(all, m)
		}
	}
	if page.Offset >= len(all) {
		return nil, nil
	}
	all = all[page.Offset:]
	if page.Limit > 0 && len(all) > page.Limit {
		all = all[:page.Limit]
	}
	return all, nil
}

func (f *fakeMessages) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]domain.ChatMessage
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]domain.ChatMessage)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]domain.ChatMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return msgs, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, msgs []domain.ChatMessage, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = msgs
	return nil
}

func (c *memoryCache) BuildKey(roomID string, page store.Page) string {
	return fmt.Sprintf("test:%s:%d:%d", roomID, page.Limit, page.Offset)
}

func (c *memoryCache) Close() error { return nil }

func (c *memoryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func seedMessages(t *testing.T, f *fakeMessages, roomID string, n int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		_, err := f.Append(context.Background(), &domain.ChatMessage{
			RoomID:    roomID,
			SenderID:  "u1",
			Body:      fmt.Sprintf("msg-%d", i),
			Kind:      domain.KindTalk,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
}

func TestCompletePageIsCached(t *testing.T) {
	ctx := context.Background()
	msgs := &fakeMessages{}
	cache := newMemoryCache()
	seedMessages(t, msgs, "R1", 10)

	svc := NewService(msgs, cache, time.Minute)

	page := store.Page{Limit: 5, Offset: 0}
	first, err := svc.GetRoomMessages(ctx, "R1", page)
	require.NoError(t, err)
	require.Len(t, first, 5)
	assert.Equal(t, "msg-0", first[0].Body)
	assert.Equal(t, 1, cache.size())

	// Second read is served from the cache.
	second, err := svc.GetRoomMessages(ctx, "R1", page)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, msgs.listCalls())
}

func TestPartialPageIsNotCached(t *testing.T) {
	ctx := context.Background()
	msgs := &fakeMessages{}
	cache := newMemoryCache()
	seedMessages(t, msgs, "R1", 3)

	svc := NewService(msgs, cache, time.Minute)

	page := store.Page{Limit: 5, Offset: 0}
	first, err := svc.GetRoomMessages(ctx, "R1", page)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, 0, cache.size(), "partial pages still grow and must not be cached")

	// New messages show up on the next read.
	seedMessages(t, msgs, "R1", 2)
	second, err := svc.GetRoomMessages(ctx, "R1", page)
	require.NoError(t, err)
	assert.Len(t, second, 5)
}

func TestNilCacheReadsThrough(t *testing.T) {
	ctx := context.Background()
	msgs := &fakeMessages{}
	seedMessages(t, msgs, "R1", 4)

	svc := NewService(msgs, nil, time.Minute)

	out, err := svc.GetRoomMessages(ctx, "R1", store.Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, out, 4)
	assert.Equal(t, 1, msgs.listCalls())

	_, err = svc.GetRoomMessages(ctx, "R1", store.Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, msgs.listCalls())
}

func TestPagingByOffset(t *testing.T) {
	ctx := context.Background()
	msgs := &fakeMessages{}
	cache := newMemoryCache()
	seedMessages(t, msgs, "R1", 7)

	svc := NewService(msgs, cache, time.Minute)

	page1, err := svc.GetRoomMessages(ctx, "R1", store.Page{Limit: 3, Offset: 0})
	require.NoError(t, err)
	page2, err := svc.GetRoomMessages(ctx, "R1", store.Page{Limit: 3, Offset: 3})
	require.NoError(t, err)
	page3, err := svc.GetRoomMessages(ctx, "R1", store.Page{Limit: 3, Offset: 6})
	require.NoError(t, err)

	assert.Equal(t, "msg-0", page1[0].Body)
	assert.Equal(t, "msg-3", page2[0].Body)
	require.Len(t, page3, 1)
	assert.Equal(t, "msg-6", page3[0].Body)

	// Two complete pages cached, the trailing partial one not.
	assert.Equal(t, 2, cache.size())
}
