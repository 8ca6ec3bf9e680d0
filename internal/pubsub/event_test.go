package pubsub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
)

func TestRoomChannel(t *testing.T) {
	assert.Equal(t, "chat:room:R1", RoomChannel("R1"))
	assert.Equal(t, "chat:room:42", RoomChannel("42"))
}

func TestChannelRoomID(t *testing.T) {
	roomID, err := channelRoomID("chat:room:R1")
	require.NoError(t, err)
	assert.Equal(t, "R1", roomID)

	_, err = channelRoomID("media:room:R1:to_signal")
	assert.Error(t, err)

	_, err = channelRoomID("not-a-channel")
	assert.Error(t, err)
}

func TestEventPayloadRoundTrip(t *testing.T) {
	created := time.Date(2023, 4, 2, 15, 4, 5, 0, time.FixedZone("KST", 9*60*60))
	msg := domain.ChatMessage{
		ID:             "17",
		RoomID:         "R1",
		SenderID:       "u1",
		SenderNickname: "friend",
		Body:           "hello",
		Kind:           domain.KindTalk,
		CreatedAt:      created,
	}

	ev, err := NewEvent(EventTypeChatMessage, msg.RoomID, &msg)
	require.NoError(t, err)
	assert.Equal(t, EventTypeChatMessage, ev.Type)
	assert.Equal(t, "R1", ev.RoomID)

	// The envelope itself must survive broker transport as JSON.
	wire, err := json.Marshal(ev)
	require.NoError(t, err)

	var received Event
	require.NoError(t, json.Unmarshal(wire, &received))

	var decoded domain.ChatMessage
	require.NoError(t, received.UnmarshalPayload(&decoded))

	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, msg.Body, decoded.Body)
	assert.Equal(t, msg.Kind, decoded.Kind)
	assert.True(t, msg.CreatedAt.Equal(decoded.CreatedAt))
}

func TestEventUnmarshalPayloadInvalid(t *testing.T) {
	ev := &Event{
		Type:    EventTypeChatMessage,
		RoomID:  "R1",
		Payload: json.RawMessage("{not json"),
	}

	var decoded domain.ChatMessage
	assert.Error(t, ev.UnmarshalPayload(&decoded))
}
