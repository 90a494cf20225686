package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(NewRegistry())
}

// addClient registers a client with no transport; tests read frames straight
// off the send channel.
func addClient(h *Hub, id string) *Client {
	c := NewClient(h, nil, id)
	h.registerClient(c)
	return c
}

func joinFrame(t *testing.T, roomID uint, userName, userID string) []byte {
	t.Helper()
	data, err := json.Marshal(JoinRoomPayload{RoomID: roomID, UserName: userName, UserID: userID})
	require.NoError(t, err)
	frame, err := json.Marshal(Envelope{Event: EventJoinRoom, Data: data})
	require.NoError(t, err)
	return frame
}

func takeFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	default:
		t.Fatalf("expected a frame for client %s, got none", c.ID())
		return Envelope{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("expected no frame for client %s, got %s", c.ID(), raw)
	default:
	}
}

func TestHub_JoinRepliesWithRoster(t *testing.T) {
	h := newTestHub(t)
	alice := addClient(h, "conn-a")

	h.handleFrame(alice, joinFrame(t, 1, "Alice", "u-1"))

	env := takeFrame(t, alice)
	assert.Equal(t, EventRoomParticipants, env.Event)

	var roster RoomParticipantsPayload
	require.NoError(t, json.Unmarshal(env.Data, &roster))
	require.Len(t, roster, 1)
	assert.Equal(t, "conn-a", roster[0].ConnectionID)
}

func TestHub_JoinNotifiesExistingMembersOnly(t *testing.T) {
	h := newTestHub(t)
	alice := addClient(h, "conn-a")
	bob := addClient(h, "conn-b")

	h.handleFrame(alice, joinFrame(t, 1, "Alice", "u-1"))
	takeFrame(t, alice) // Alice's own roster reply

	h.handleFrame(bob, joinFrame(t, 1, "Bob", "u-2"))

	// Alice hears about Bob; Bob gets only the roster, not his own join echo.
	env := takeFrame(t, alice)
	assert.Equal(t, EventParticipantJoined, env.Event)
	var joined ParticipantJoinedPayload
	require.NoError(t, json.Unmarshal(env.Data, &joined))
	assert.Equal(t, "conn-b", joined.ConnectionID)

	env = takeFrame(t, bob)
	assert.Equal(t, EventRoomParticipants, env.Event)
	var roster RoomParticipantsPayload
	require.NoError(t, json.Unmarshal(env.Data, &roster))
	assert.Len(t, roster, 2)
	assertNoFrame(t, bob)
}

func TestHub_MessageBroadcastExcludesSender(t *testing.T) {
	h := newTestHub(t)
	alice := addClient(h, "conn-a")
	bob := addClient(h, "conn-b")

	h.handleFrame(alice, joinFrame(t, 1, "Alice", "u-1"))
	h.handleFrame(bob, joinFrame(t, 1, "Bob", "u-2"))
	takeFrame(t, alice) // roster
	takeFrame(t, alice) // bob joined
	takeFrame(t, bob)   // roster

	data, _ := json.Marshal(SendMessagePayload{RoomID: 1, Message: "hi", DisplayName: "Alice", UserID: "u-1"})
	frame, _ := json.Marshal(Envelope{Event: EventSendMessage, Data: data})
	h.handleFrame(alice, frame)

	env := takeFrame(t, bob)
	assert.Equal(t, EventReceiveMessage, env.Event)
	var msg ReceiveMessagePayload
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "hi", msg.Message)
	assert.NotEmpty(t, msg.Timestamp)

	assertNoFrame(t, alice)
}

func TestHub_MediaStatusBroadcastOnlyWhenTracked(t *testing.T) {
	h := newTestHub(t)
	alice := addClient(h, "conn-a")
	bob := addClient(h, "conn-b")

	h.handleFrame(alice, joinFrame(t, 1, "Alice", "u-1"))
	h.handleFrame(bob, joinFrame(t, 1, "Bob", "u-2"))
	takeFrame(t, alice)
	takeFrame(t, alice)
	takeFrame(t, bob)

	data, _ := json.Marshal(MediaStatusPayload{RoomID: 1, IsCameraOn: true, IsMicOn: true, UserID: "u-1"})
	frame, _ := json.Marshal(Envelope{Event: EventMediaStatus, Data: data})
	h.handleFrame(alice, frame)

	env := takeFrame(t, bob)
	assert.Equal(t, EventMediaStatusChanged, env.Event)

	// After Alice leaves, her stale media updates are dropped, not broadcast.
	h.handleLeave(alice, 1)
	takeFrame(t, bob) // participant-left
	h.handleFrame(alice, frame)
	assertNoFrame(t, bob)
}

func TestHub_LeaveNotifiesRemainingMembers(t *testing.T) {
	h := newTestHub(t)
	alice := addClient(h, "conn-a")
	bob := addClient(h, "conn-b")

	h.handleFrame(alice, joinFrame(t, 1, "Alice", "u-1"))
	h.handleFrame(bob, joinFrame(t, 1, "Bob", "u-2"))
	takeFrame(t, alice)
	takeFrame(t, alice)
	takeFrame(t, bob)

	data, _ := json.Marshal(LeaveRoomPayload{RoomID: 1})
	frame, _ := json.Marshal(Envelope{Event: EventLeaveRoom, Data: data})
	h.handleFrame(alice, frame)

	env := takeFrame(t, bob)
	assert.Equal(t, EventParticipantLeft, env.Event)
	var left ParticipantLeftPayload
	require.NoError(t, json.Unmarshal(env.Data, &left))
	assert.Equal(t, "conn-a", left.ConnectionID)

	// A second explicit leave produces nothing.
	h.handleFrame(alice, frame)
	assertNoFrame(t, bob)
}

func TestHub_DisconnectImpliesLeave(t *testing.T) {
	h := newTestHub(t)
	alice := addClient(h, "conn-a")
	bob := addClient(h, "conn-b")

	h.handleFrame(alice, joinFrame(t, 1, "Alice", "u-1"))
	h.handleFrame(bob, joinFrame(t, 1, "Bob", "u-2"))
	takeFrame(t, alice)
	takeFrame(t, alice)
	takeFrame(t, bob)

	h.unregisterClient(alice)

	env := takeFrame(t, bob)
	assert.Equal(t, EventParticipantLeft, env.Event)
	require.Len(t, h.registry.MembersOf(1), 1, "only Bob remains")
	_, ok := h.registry.RoomOf("conn-a")
	assert.False(t, ok)
}

func TestHub_SwitchingRoomsEvictsOldMembership(t *testing.T) {
	h := newTestHub(t)
	alice := addClient(h, "conn-a")
	bob := addClient(h, "conn-b")

	h.handleFrame(alice, joinFrame(t, 1, "Alice", "u-1"))
	h.handleFrame(bob, joinFrame(t, 1, "Bob", "u-2"))
	takeFrame(t, alice)
	takeFrame(t, alice)
	takeFrame(t, bob)

	// Bob moves to room 2; Alice is told he left room 1.
	h.handleFrame(bob, joinFrame(t, 2, "Bob", "u-2"))

	env := takeFrame(t, alice)
	assert.Equal(t, EventParticipantLeft, env.Event)
	require.Len(t, h.registry.MembersOf(1), 1)
	roomID, ok := h.registry.RoomOf("conn-b")
	require.True(t, ok)
	assert.Equal(t, uint(2), roomID)
}

func TestHub_MalformedFrameGetsErrorReply(t *testing.T) {
	h := newTestHub(t)
	alice := addClient(h, "conn-a")

	h.handleFrame(alice, []byte("not json"))

	env := takeFrame(t, alice)
	assert.Equal(t, EventError, env.Event)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "wrong data format", p.Message)
}

func TestHub_StopEndsRun(t *testing.T) {
	h := newTestHub(t)
	stopped := make(chan struct{})
	go func() {
		h.Run()
		close(stopped)
	}()

	h.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestHub_QueueAfterStopIsRefused(t *testing.T) {
	h := newTestHub(t)
	alice := NewClient(h, nil, "conn-a")

	require.True(t, h.QueueMessage(HubMessage{Type: "register", Client: alice}))
	h.Stop()

	// Late producers (a disconnecting read pump, a racing upgrade) must get a
	// refusal, never a send on a closed channel.
	assert.NotPanics(t, func() {
		assert.False(t, h.QueueMessage(HubMessage{Type: "unregister", Client: alice}))
		assert.False(t, h.QueueMessage(HubMessage{Type: "frame", Client: alice, Raw: []byte(`{}`)}))
	})

	// Stop is idempotent.
	assert.NotPanics(t, h.Stop)
}

func TestHub_StopUnblocksPendingUnregister(t *testing.T) {
	h := newTestHub(t)
	alice := NewClient(h, nil, "conn-a")

	// Saturate the channel with no consumer running.
	for h.QueueMessage(HubMessage{Type: "frame", Client: alice, Raw: []byte(`{}`)}) {
	}
	h.Stop()

	done := make(chan struct{})
	go func() {
		h.queueMessageBlocking(HubMessage{Type: "unregister", Client: alice})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("blocking unregister did not return after Stop")
	}
}

func TestHub_UnknownEventGetsErrorReply(t *testing.T) {
	h := newTestHub(t)
	alice := addClient(h, "conn-a")

	frame, _ := json.Marshal(Envelope{Event: "teleport", Data: json.RawMessage(`{}`)})
	h.handleFrame(alice, frame)

	env := takeFrame(t, alice)
	assert.Equal(t, EventError, env.Event)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "unknown event", p.Message)
}
