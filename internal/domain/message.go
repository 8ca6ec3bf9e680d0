package domain

import "time"

// MessageKind classifies a chat message.
type MessageKind string

const (
	KindEnter MessageKind = "enter"
	KindLeave MessageKind = "leave"
	KindTalk  MessageKind = "talk"
)

// Valid reports whether the kind is one of the known values.
func (k MessageKind) Valid() bool {
	switch k {
	case KindEnter, KindLeave, KindTalk:
		return true
	}
	return false
}

// ChatMessage is a single chat message. ID is assigned by the message
// store on append; a message is immutable once persisted.
type ChatMessage struct {
	ID             string      `json:"id"`
	RoomID         string      `json:"room_id"`
	SenderID       string      `json:"sender_id"`
	SenderNickname string      `json:"sender_nickname"`
	Body           string      `json:"body"`
	Kind           MessageKind `json:"kind"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ChatRoom groups members and messages. Rooms are created and destroyed
// by the room-management service; the relay only reads them.
type ChatRoom struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChatRoomMember ties a member to a room.
type ChatRoomMember struct {
	RoomID   string    `json:"room_id"`
	MemberID string    `json:"member_id"`
	JoinedAt time.Time `json:"joined_at"`
}
