package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
)

// CassandraConfig holds cluster settings for the Cassandra backend.
type CassandraConfig struct {
	Hosts          []string      `mapstructure:"hosts"`
	Keyspace       string        `mapstructure:"keyspace"`
	Consistency    string        `mapstructure:"consistency"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// CassandraStore implements Store on Cassandra. Messages are partitioned
// by room and clustered by (created_at, id), which matches the listByRoom
// ordering directly.
type CassandraStore struct {
	session *gocql.Session
}

// NewCassandraStore creates a session against the configured cluster.
func NewCassandraStore(cfg CassandraConfig) (*CassandraStore, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.Timeout = cfg.Timeout

	switch cfg.Consistency {
	case "LOCAL_ONE":
		cluster.Consistency = gocql.LocalOne
	case "LOCAL_QUORUM":
		cluster.Consistency = gocql.LocalQuorum
	case "ONE":
		cluster.Consistency = gocql.One
	case "QUORUM":
		cluster.Consistency = gocql.Quorum
	default:
		cluster.Consistency = gocql.LocalOne
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	return &CassandraStore{session: session}, nil
}

// Append persists the message with a time-ordered UUID id, so ids are
// monotonic within a room and the created_at tie-break stays stable.
func (s *CassandraStore) Append(ctx context.Context, msg *domain.ChatMessage) (*domain.ChatMessage, error) {
	id := gocql.UUIDFromTime(msg.CreatedAt).String()

	query := `
		INSERT INTO chat_messages_by_room (
			room_id, created_at, id, sender_id, sender_nickname, body, kind
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	err := s.session.Query(query,
		msg.RoomID,
		msg.CreatedAt,
		id,
		msg.SenderID,
		msg.SenderNickname,
		msg.Body,
		string(msg.Kind),
	).WithContext(ctx).Exec()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	stored := *msg
	stored.ID = id
	return &stored, nil
}

// ListByRoom returns the room's messages in clustering order. Cassandra
// has no OFFSET, so the offset is skipped client-side.
func (s *CassandraStore) ListByRoom(ctx context.Context, roomID string, page Page) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, sender_id, sender_nickname, body, kind, created_at
		FROM chat_messages_by_room
		WHERE room_id = ?`

	q := s.session.Query(query, roomID).WithContext(ctx)
	iter := q.Iter()

	var msgs []domain.ChatMessage
	var msg domain.ChatMessage
	var kind string
	skipped := 0

	for iter.Scan(&msg.ID, &msg.SenderID, &msg.SenderNickname, &msg.Body, &kind, &msg.CreatedAt) {
		if skipped < page.Offset {
			skipped++
			continue
		}
		msg.RoomID = roomID
		msg.Kind = domain.MessageKind(kind)
		msgs = append(msgs, msg)
		msg = domain.ChatMessage{}
		if page.Limit > 0 && len(msgs) >= page.Limit {
			break
		}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return msgs, nil
}

// RoomExists reports whether the room is known to the directory.
func (s *CassandraStore) RoomExists(ctx context.Context, roomID string) (bool, error) {
	var id string
	err := s.session.Query(
		`SELECT id FROM chat_rooms WHERE id = ?`, roomID,
	).WithContext(ctx).Scan(&id)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return true, nil
}

// IsMember reports whether the member belongs to the room.
func (s *CassandraStore) IsMember(ctx context.Context, roomID, memberID string) (bool, error) {
	var found string
	err := s.session.Query(
		`SELECT member_id FROM chat_room_members WHERE room_id = ? AND member_id = ?`,
		roomID, memberID,
	).WithContext(ctx).Scan(&found)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return true, nil
}

// ListMembers returns the room's members.
func (s *CassandraStore) ListMembers(ctx context.Context, roomID string) ([]domain.ChatRoomMember, error) {
	iter := s.session.Query(
		`SELECT room_id, member_id, joined_at FROM chat_room_members WHERE room_id = ?`,
		roomID,
	).WithContext(ctx).Iter()

	var members []domain.ChatRoomMember
	var m domain.ChatRoomMember
	for iter.Scan(&m.RoomID, &m.MemberID, &m.JoinedAt) {
		members = append(members, m)
		m = domain.ChatRoomMember{}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return members, nil
}

// Close closes the Cassandra session.
func (s *CassandraStore) Close() error {
	s.session.Close()
	return nil
}
