package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
)

// chatMessageRecord is the relational shape of a chat message.
type chatMessageRecord struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	RoomID         string    `gorm:"size:64;index:idx_messages_room,priority:1;not null"`
	SenderID       string    `gorm:"size:64;not null"`
	SenderNickname string    `gorm:"size:128"`
	Body           string    `gorm:"type:text"`
	Kind           string    `gorm:"size:16;not null"`
	CreatedAt      time.Time `gorm:"index:idx_messages_room,priority:2;not null"`
}

func (chatMessageRecord) TableName() string { return "chat_messages" }

// chatRoomRecord mirrors the rooms table owned by the room-management
// service.
type chatRoomRecord struct {
	ID   string `gorm:"primaryKey;size:64"`
	Name string `gorm:"size:128"`
}

func (chatRoomRecord) TableName() string { return "chat_rooms" }

type chatRoomMemberRecord struct {
	RoomID   string    `gorm:"primaryKey;size:64"`
	MemberID string    `gorm:"primaryKey;size:64"`
	JoinedAt time.Time `gorm:"not null"`
}

func (chatRoomMemberRecord) TableName() string { return "chat_room_members" }

// GormStore implements Store on a relational backend.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens a GORM connection based on the driver config.
func NewGormStore(cfg Config) (*GormStore, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
		)
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})

	case "mysql":
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
		)
		dialector = mysql.Open(dsn)

	case "sqlite":
		dialector = sqlite.Open(cfg.FilePath)

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	return &GormStore{db: db}, nil
}

// AutoMigrate creates the message table and, for development setups, the
// room tables normally owned by the room-management service.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&chatMessageRecord{}, &chatRoomRecord{}, &chatRoomMemberRecord{})
}

// Append persists the message and returns the stored record with its
// assigned id. Each append is a single INSERT, safe under concurrency.
func (s *GormStore) Append(ctx context.Context, msg *domain.ChatMessage) (*domain.ChatMessage, error) {
	rec := chatMessageRecord{
		RoomID:         msg.RoomID,
		SenderID:       msg.SenderID,
		SenderNickname: msg.SenderNickname,
		Body:           msg.Body,
		Kind:           string(msg.Kind),
		CreatedAt:      msg.CreatedAt,
	}

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	stored := *msg
	stored.ID = strconv.FormatUint(rec.ID, 10)
	return &stored, nil
}

// ListByRoom returns the room's messages ordered by created_at ascending,
// id ascending as tie-break.
func (s *GormStore) ListByRoom(ctx context.Context, roomID string, page Page) ([]domain.ChatMessage, error) {
	q := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC, id ASC")

	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}

	var recs []chatMessageRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	msgs := make([]domain.ChatMessage, 0, len(recs))
	for _, rec := range recs {
		msgs = append(msgs, domain.ChatMessage{
			ID:             strconv.FormatUint(rec.ID, 10),
			RoomID:         rec.RoomID,
			SenderID:       rec.SenderID,
			SenderNickname: rec.SenderNickname,
			Body:           rec.Body,
			Kind:           domain.MessageKind(rec.Kind),
			CreatedAt:      rec.CreatedAt,
		})
	}
	return msgs, nil
}

// RoomExists reports whether the room is known to the directory.
func (s *GormStore) RoomExists(ctx context.Context, roomID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&chatRoomRecord{}).
		Where("id = ?", roomID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return count > 0, nil
}

// IsMember reports whether the member belongs to the room.
func (s *GormStore) IsMember(ctx context.Context, roomID, memberID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&chatRoomMemberRecord{}).
		Where("room_id = ? AND member_id = ?", roomID, memberID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return count > 0, nil
}

// ListMembers returns the room's members ordered by join time.
func (s *GormStore) ListMembers(ctx context.Context, roomID string) ([]domain.ChatRoomMember, error) {
	var recs []chatRoomMemberRecord
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	members := make([]domain.ChatRoomMember, 0, len(recs))
	for _, rec := range recs {
		members = append(members, domain.ChatRoomMember{
			RoomID:   rec.RoomID,
			MemberID: rec.MemberID,
			JoinedAt: rec.JoinedAt,
		})
	}
	return members, nil
}

// Close closes the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
