package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
)

// ErrStorageFailure marks backend-unavailable or rejected-write errors.
// It is fatal to the ingress call and surfaced to the sender as retryable.
var ErrStorageFailure = errors.New("storage failure")

// Page selects a slice of a room's history. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// MessageStore is the durable append-only message log. Append assigns
// the id; there are no update or delete operations. ListByRoom returns
// messages ordered by created_at ascending with a stable id tie-break.
type MessageStore interface {
	Append(ctx context.Context, msg *domain.ChatMessage) (*domain.ChatMessage, error)
	ListByRoom(ctx context.Context, roomID string, page Page) ([]domain.ChatMessage, error)
}

// RoomDirectory reads room membership owned by the room-management
// service. The relay only consumes it to authorize joins.
type RoomDirectory interface {
	RoomExists(ctx context.Context, roomID string) (bool, error)
	IsMember(ctx context.Context, roomID, memberID string) (bool, error)
	ListMembers(ctx context.Context, roomID string) ([]domain.ChatRoomMember, error)
}

// Store is the persistence backend behind the relay.
type Store interface {
	MessageStore
	RoomDirectory
	Close() error
}

// Config selects and configures the storage backend.
type Config struct {
	Driver string `mapstructure:"driver"` // mysql, postgres, sqlite, cassandra

	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"db_name"`
	SSLMode         string `mapstructure:"ssl_mode"`  // postgres only
	FilePath        string `mapstructure:"file_path"` // sqlite only
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes

	Cassandra CassandraConfig `mapstructure:"cassandra"`
}

// New creates a Store for the configured driver.
func New(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "mysql", "postgres", "sqlite":
		return NewGormStore(cfg)
	case "cassandra":
		return NewCassandraStore(cfg.Cassandra)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
