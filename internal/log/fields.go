package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Chat
	FieldRoomID       = "room_id"
	FieldConnectionID = "connection_id"
	FieldMessageID    = "message_id"
	FieldMemberID     = "member_id"
	FieldNickname     = "nickname"
	FieldKind         = "kind"

	// Broker
	FieldChannel = "channel"
	FieldDriver  = "driver"

	// Service
	FieldService = "service"
)
