package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	s, err := NewGormStore(Config{
		Driver:       "sqlite",
		FilePath:     filepath.Join(t.TempDir(), "chat.db"),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, s.AutoMigrate())
	t.Cleanup(func() { s.Close() })

	return s
}

func seedRoom(t *testing.T, s *GormStore, roomID string, memberIDs ...string) {
	t.Helper()

	require.NoError(t, s.db.Create(&chatRoomRecord{ID: roomID, Name: "room " + roomID}).Error)
	for i, id := range memberIDs {
		require.NoError(t, s.db.Create(&chatRoomMemberRecord{
			RoomID:   roomID,
			MemberID: id,
			JoinedAt: time.Now().Add(time.Duration(i) * time.Second),
		}).Error)
	}
}

func talkMessage(roomID, senderID, body string, createdAt time.Time) *domain.ChatMessage {
	return &domain.ChatMessage{
		RoomID:         roomID,
		SenderID:       senderID,
		SenderNickname: senderID + "-nick",
		Body:           body,
		Kind:           domain.KindTalk,
		CreatedAt:      createdAt,
	}
}

func TestAppendAssignsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stored, err := s.Append(ctx, talkMessage("R1", "u1", "hello", time.Now()))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "hello", stored.Body)

	second, err := s.Append(ctx, talkMessage("R1", "u1", "again", time.Now()))
	require.NoError(t, err)
	assert.NotEqual(t, stored.ID, second.ID)
}

func TestListByRoomOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2023, 4, 2, 12, 0, 0, 0, time.UTC)

	// Appended out of createdAt order on purpose.
	_, err := s.Append(ctx, talkMessage("R1", "u1", "second", base.Add(time.Minute)))
	require.NoError(t, err)
	_, err = s.Append(ctx, talkMessage("R1", "u2", "first", base))
	require.NoError(t, err)
	_, err = s.Append(ctx, talkMessage("R2", "u3", "other room", base))
	require.NoError(t, err)

	msgs, err := s.ListByRoom(ctx, "R1", Page{})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "second", msgs[1].Body)
}

func TestListByRoomTieBreakByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2023, 4, 2, 12, 0, 0, 0, time.UTC)
	a, err := s.Append(ctx, talkMessage("R1", "u1", "a", at))
	require.NoError(t, err)
	b, err := s.Append(ctx, talkMessage("R1", "u1", "b", at))
	require.NoError(t, err)

	msgs, err := s.ListByRoom(ctx, "R1", Page{})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, a.ID, msgs[0].ID)
	assert.Equal(t, b.ID, msgs[1].ID)
}

func TestListByRoomPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2023, 4, 2, 12, 0, 0, 0, time.UTC)
	bodies := []string{"m1", "m2", "m3", "m4", "m5"}
	for i, body := range bodies {
		_, err := s.Append(ctx, talkMessage("R1", "u1", body, base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	page1, err := s.ListByRoom(ctx, "R1", Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "m1", page1[0].Body)
	assert.Equal(t, "m2", page1[1].Body)

	page3, err := s.ListByRoom(ctx, "R1", Page{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "m5", page3[0].Body)
}

func TestConcurrentAppendsNoLostWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Append(ctx, talkMessage("R1", "u1", "msg", time.Now()))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	msgs, err := s.ListByRoom(ctx, "R1", Page{})
	require.NoError(t, err)
	assert.Len(t, msgs, n)

	seen := make(map[string]struct{}, n)
	for _, m := range msgs {
		_, dup := seen[m.ID]
		assert.False(t, dup, "duplicate id %s", m.ID)
		seen[m.ID] = struct{}{}
	}
}

func TestRoomDirectory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedRoom(t, s, "R1", "u1", "u2")

	exists, err := s.RoomExists(ctx, "R1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.RoomExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	member, err := s.IsMember(ctx, "R1", "u1")
	require.NoError(t, err)
	assert.True(t, member)

	member, err = s.IsMember(ctx, "R1", "stranger")
	require.NoError(t, err)
	assert.False(t, member)

	members, err := s.ListMembers(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "u1", members[0].MemberID)
	assert.Equal(t, "u2", members[1].MemberID)
}
