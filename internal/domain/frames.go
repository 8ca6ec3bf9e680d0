package domain

// WebSocket frame types from client.
const (
	MsgTypeAuth        = "auth"
	MsgTypeJoinRoom    = "join_room"
	MsgTypeChatMessage = "chat_message"
	MsgTypeLeaveRoom   = "leave_room"
	MsgTypePing        = "ping"
)

// WebSocket frame types to client.
const (
	MsgTypeAuthResult = "auth_result"
	MsgTypeRoomJoined = "room_joined"
	MsgTypeRoomLeft   = "room_left"
	MsgTypeError      = "error"
	MsgTypePong       = "pong"
)

// Error codes
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotInRoom     = "NOT_IN_ROOM"
	ErrCodeStorageError  = "STORAGE_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// BaseFrame is the common envelope for all WebSocket frames.
type BaseFrame struct {
	Type string `json:"type"`
}

// Client -> Server frames

type AuthFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type JoinRoomFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// ChatFrame is the ingress payload. The sender identity always comes
// from the authenticated session, never from the frame; kind is
// optional and defaults to talk.
type ChatFrame struct {
	Type   string      `json:"type"`
	RoomID string      `json:"room_id"`
	Body   string      `json:"body"`
	Kind   MessageKind `json:"kind,omitempty"`
}

type LeaveRoomFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// Server -> Client frames

type AuthResultFrame struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	MemberID string `json:"member_id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Message  string `json:"message,omitempty"`
}

type RoomJoinedFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type RoomLeftFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// ChatFrameOut is a delivered chat message, pushed to every local
// subscriber of the room.
type ChatFrameOut struct {
	Type    string      `json:"type"`
	Message ChatMessage `json:"message"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorFrame(code, message string) *ErrorFrame {
	return &ErrorFrame{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
