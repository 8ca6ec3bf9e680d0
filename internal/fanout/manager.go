// Package fanout owns the per-room broker subscriptions of one process.
// A room with at least one local connection holds exactly one
// subscription; delivered events are pushed to every locally joined
// connection in the order the broker delivered them.
package fanout

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/domain"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/hub"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/log"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/pubsub"
)

const defaultUnsubscribeTimeout = 5 * time.Second

// Manager tracks which rooms have local listeners and keeps broker
// subscriptions in lockstep: first join opens one, last leave closes it.
type Manager struct {
	broker pubsub.Subscriber

	mu    sync.Mutex // guards the rooms map only
	rooms map[string]*roomState

	unsubscribeTimeout time.Duration
}

// roomState serializes join/leave against subscription open/close for a
// single room. Distinct rooms never share a lock.
type roomState struct {
	roomID  string
	mu      sync.Mutex
	members map[string]*hub.Client
	active  bool
	gen     uint64 // bumped per opened subscription
	cancel  context.CancelFunc
}

func NewManager(broker pubsub.Subscriber) *Manager {
	return &Manager{
		broker:             broker,
		rooms:              make(map[string]*roomState),
		unsubscribeTimeout: defaultUnsubscribeTimeout,
	}
}

// room returns the state for roomID, creating it on first use. States
// are kept once created; an idle state is a few words of memory and
// avoids a lock-order inversion between the map and the room lock.
func (m *Manager) room(roomID string) *roomState {
	m.mu.Lock()
	defer m.mu.Unlock()

	rs, ok := m.rooms[roomID]
	if !ok {
		rs = &roomState{
			roomID:  roomID,
			members: make(map[string]*hub.Client),
		}
		m.rooms[roomID] = rs
	}
	return rs
}

// Join adds the connection to the room and, if this is the first local
// listener (or an earlier subscribe attempt failed), opens the broker
// subscription. The local join always stands; a subscribe failure is
// returned so the caller can log it, and is retried on the next join.
func (m *Manager) Join(ctx context.Context, roomID string, client *hub.Client) error {
	rs := m.room(roomID)

	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.members[client.ID] = client

	if rs.active {
		return nil
	}

	// Subscription must outlive the join request.
	subCtx, cancel := context.WithCancel(context.Background())
	events, err := m.broker.Subscribe(subCtx, pubsub.RoomChannel(roomID))
	if err != nil {
		cancel()
		return err
	}

	rs.active = true
	rs.gen++
	rs.cancel = cancel
	go m.deliver(subCtx, rs, events, rs.gen)

	l := log.L()
	l.Info().Str(log.FieldRoomID, roomID).Msg("room subscription opened")
	return nil
}

// Leave removes the connection from the room and closes the broker
// subscription when no local listener remains. Leaving a room the
// connection is not in is a no-op, which keeps disconnect idempotent.
func (m *Manager) Leave(ctx context.Context, roomID, connectionID string) {
	m.mu.Lock()
	rs, ok := m.rooms[roomID]
	m.mu.Unlock()
	if !ok {
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, ok := rs.members[connectionID]; !ok {
		return
	}
	delete(rs.members, connectionID)

	if len(rs.members) > 0 || !rs.active {
		return
	}

	rs.cancel()
	rs.cancel = nil
	rs.active = false

	unsubCtx, cancel := context.WithTimeout(context.Background(), m.unsubscribeTimeout)
	defer cancel()
	if err := m.broker.Unsubscribe(unsubCtx, pubsub.RoomChannel(roomID)); err != nil {
		l := log.L()
		l.Error().Str(log.FieldRoomID, roomID).Err(err).Msg("failed to close room subscription")
	}

	l := log.L()
	l.Info().Str(log.FieldRoomID, roomID).Msg("room subscription closed")
}

// deliver pushes broker-delivered messages to the room's local
// connections. It runs once per active subscription and exits when the
// event channel closes. A payload that does not decode is dropped and
// the loop keeps going.
func (m *Manager) deliver(ctx context.Context, rs *roomState, events <-chan *pubsub.Event, gen uint64) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				// The broker dropped the subscription out from under
				// us; mark the room idle so the next join reopens it.
				m.subscriptionLost(rs, gen)
				return
			}

			var msg domain.ChatMessage
			if err := ev.UnmarshalPayload(&msg); err != nil {
				l := log.L()
				l.Warn().Str(log.FieldRoomID, rs.roomID).Err(err).Msg("dropping undecodable chat event")
				continue
			}

			data, err := json.Marshal(&domain.ChatFrameOut{
				Type:    domain.MsgTypeChatMessage,
				Message: msg,
			})
			if err != nil {
				continue
			}

			rs.mu.Lock()
			targets := make([]*hub.Client, 0, len(rs.members))
			for _, c := range rs.members {
				targets = append(targets, c)
			}
			rs.mu.Unlock()

			for _, c := range targets {
				if !c.Push(data) {
					l := log.L()
					l.Warn().
						Str(log.FieldRoomID, rs.roomID).
						Str(log.FieldConnectionID, c.ID).
						Msg("send buffer full, frame dropped")
				}
			}
		}
	}
}

// subscriptionLost resets the room to idle after the broker closed the
// event channel. The generation guard keeps an old delivery loop from
// tearing down a subscription the room has since reopened.
func (m *Manager) subscriptionLost(rs *roomState, gen uint64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.gen != gen || !rs.active {
		return
	}
	rs.active = false
	if rs.cancel != nil {
		rs.cancel()
		rs.cancel = nil
	}

	l := log.L()
	l.Warn().Str(log.FieldRoomID, rs.roomID).Msg("room subscription lost, will reopen on next join")
}

// LocalCount returns the number of local connections joined to the room.
func (m *Manager) LocalCount(roomID string) int {
	m.mu.Lock()
	rs, ok := m.rooms[roomID]
	m.mu.Unlock()
	if !ok {
		return 0
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.members)
}

// Subscribed reports whether the room currently holds a broker
// subscription in this process.
func (m *Manager) Subscribed(roomID string) bool {
	m.mu.Lock()
	rs, ok := m.rooms[roomID]
	m.mu.Unlock()
	if !ok {
		return false
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.active
}

// ActiveRooms lists rooms with at least one local connection.
func (m *Manager) ActiveRooms() []string {
	m.mu.Lock()
	states := make([]*roomState, 0, len(m.rooms))
	for _, rs := range m.rooms {
		states = append(states, rs)
	}
	m.mu.Unlock()

	var out []string
	for _, rs := range states {
		rs.mu.Lock()
		if len(rs.members) > 0 {
			out = append(out, rs.roomID)
		}
		rs.mu.Unlock()
	}
	return out
}
