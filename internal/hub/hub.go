package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// HubMessage is the unit of work on the Hub's internal channel.
type HubMessage struct {
	Type   string // "register", "unregister", "frame"
	Client *Client
	Raw    []byte // only for frames
}

// Hub coordinates the signaling side of the system: it owns the set of live
// clients, consults the presence Registry, and fans events out to room
// members. All presence-mutating events are handled inline in Run's single
// goroutine, which linearizes mutations as observed by every participant of
// a room.
type Hub struct {
	messageChan chan HubMessage
	done        chan struct{}
	stopOnce    sync.Once

	clientsMu sync.RWMutex
	clients   map[string]*Client // by connection id

	registry *Registry
}

func NewHub(registry *Registry) *Hub {
	if registry == nil {
		panic("Registry cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		done:        make(chan struct{}),
		clients:     make(map[string]*Client),
		registry:    registry,
	}
}

// Registry exposes the presence registry for read-only surfaces.
func (h *Hub) Registry() *Registry { return h.registry }

// Run is the Hub's event loop. Call it in its own goroutine; it exits when
// Stop is called.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running")

	for {
		select {
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			case "frame":
				h.handleFrame(msg.Client, msg.Raw)
			default:
				log.Warnf("Received unknown hub message type: %s", msg.Type)
			}
		case <-h.done:
			log.Info("Hub is shutting down")
			return
		}
	}
}

// Stop ends Run and makes every subsequent enqueue a refused no-op. The
// message channel itself is never closed: read pumps of still-hijacked
// connections keep producing on it until their sockets die, and a close with
// live producers would panic the process mid-shutdown.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// QueueMessage enqueues a message without blocking. Returns false when the
// hub is stopped or saturated and the message was dropped.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case <-h.done:
		logrus.WithField("message_type", msg.Type).Debug("Hub stopped, refusing message")
		return false
	default:
	}
	select {
	case h.messageChan <- msg:
		return true
	case <-h.done:
		return false
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// queueMessageBlocking enqueues a message that must not be dropped, waiting
// for channel space. It returns once the message is queued or the hub stops.
// Used for unregisters: a lost unregister would leak the client's presence.
func (h *Hub) queueMessageBlocking(msg HubMessage) {
	select {
	case h.messageChan <- msg:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to register a nil client")
		return
	}
	h.clientsMu.Lock()
	h.clients[client.ID()] = client
	h.clientsMu.Unlock()
	logrus.WithField("connection_id", client.ID()).Info("Client registered to hub")
}

// unregisterClient handles the transport-level disconnect: whatever room the
// connection last occupied gets an implicit leave.
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to unregister a nil client")
		return
	}
	connID := client.ID()
	logCtx := logrus.WithField("connection_id", connID)

	if roomID, ok := h.registry.RoomOf(connID); ok {
		if entry, left := h.registry.Leave(roomID, connID); left {
			h.broadcast(roomID, EventParticipantLeft, ParticipantLeftPayload{
				ConnectionID: connID,
				UserName:     entry.DisplayName,
				DisplayName:  entry.DisplayName,
				UserID:       entry.UserID,
			}, connID)
			logCtx.WithField("room_id", roomID).Info("Disconnected client left room")
		}
	}

	h.clientsMu.Lock()
	if _, ok := h.clients[connID]; ok {
		delete(h.clients, connID)
		close(client.send)
	}
	h.clientsMu.Unlock()
	logCtx.Info("Client unregistered from hub")
}

func (h *Hub) handleFrame(client *Client, raw []byte) {
	if client == nil {
		return
	}
	logCtx := logrus.WithField("connection_id", client.ID())

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logCtx.WithError(err).Warn("Malformed signaling frame")
		h.sendTo(client, EventError, ErrorPayload{Message: "wrong data format"})
		return
	}

	switch env.Event {
	case EventJoinRoom:
		var p JoinRoomPayload
		if !h.decode(client, env.Data, &p) {
			return
		}
		h.handleJoin(client, p)
	case EventLeaveRoom:
		var p LeaveRoomPayload
		if !h.decode(client, env.Data, &p) {
			return
		}
		h.handleLeave(client, p.RoomID)
	case EventSendMessage:
		var p SendMessagePayload
		if !h.decode(client, env.Data, &p) {
			return
		}
		h.broadcast(p.RoomID, EventReceiveMessage, ReceiveMessagePayload{
			Message:     p.Message,
			DisplayName: p.DisplayName,
			UserID:      p.UserID,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}, client.ID())
	case EventMediaStatus:
		var p MediaStatusPayload
		if !h.decode(client, env.Data, &p) {
			return
		}
		if h.registry.UpdateMedia(p.RoomID, client.ID(), p.IsCameraOn, p.IsMicOn) {
			h.broadcast(p.RoomID, EventMediaStatusChanged, MediaStatusChangedPayload{
				ConnectionID: client.ID(),
				UserID:       p.UserID,
				IsCameraOn:   p.IsCameraOn,
				IsMicOn:      p.IsMicOn,
			}, client.ID())
		}
	case EventScreenSharing:
		var p ScreenSharingPayload
		if !h.decode(client, env.Data, &p) {
			return
		}
		if h.registry.UpdateScreenShare(p.RoomID, client.ID(), p.IsScreenSharing) {
			h.broadcast(p.RoomID, EventScreenStatusChanged, ScreenStatusChangedPayload{
				ConnectionID:    client.ID(),
				UserID:          p.UserID,
				IsScreenSharing: p.IsScreenSharing,
			}, client.ID())
		}
	case EventUserStatus:
		var p UserStatusPayload
		if !h.decode(client, env.Data, &p) {
			return
		}
		h.broadcast(p.RoomID, EventGenericStatusChanged, GenericStatusChangedPayload{
			ConnectionID: client.ID(),
			UserID:       p.UserID,
			Status:       p.Status,
		}, client.ID())
	default:
		logCtx.Warnf("Unknown signaling event: %s", env.Event)
		h.sendTo(client, EventError, ErrorPayload{Message: "unknown event"})
	}
}

func (h *Hub) handleJoin(client *Client, p JoinRoomPayload) {
	connID := client.ID()
	logCtx := logrus.WithFields(logrus.Fields{
		"connection_id": connID,
		"room_id":       p.RoomID,
		"user_id":       p.UserID,
	})

	roster, evicted := h.registry.Join(p.RoomID, connID, p.UserName, p.UserID)

	// Joining a new room implicitly leaves the old one; its members are told.
	if evicted != nil {
		h.broadcast(evicted.RoomID, EventParticipantLeft, ParticipantLeftPayload{
			ConnectionID: connID,
			UserName:     evicted.Entry.DisplayName,
			DisplayName:  evicted.Entry.DisplayName,
			UserID:       evicted.Entry.UserID,
		}, connID)
	}

	h.broadcast(p.RoomID, EventParticipantJoined, ParticipantJoinedPayload{
		ConnectionID: connID,
		UserName:     p.UserName,
		DisplayName:  p.UserName,
		UserID:       p.UserID,
		JoinedAt:     time.Now().UTC().Format(time.RFC3339),
	}, connID)

	h.sendTo(client, EventRoomParticipants, RoomParticipantsPayload(roster))
	logCtx.WithField("participants", len(roster)).Info("Client joined room")
}

func (h *Hub) handleLeave(client *Client, roomID uint) {
	connID := client.ID()
	entry, ok := h.registry.Leave(roomID, connID)
	if !ok {
		// Already gone: explicit leave racing a disconnect is not an error.
		return
	}
	h.broadcast(roomID, EventParticipantLeft, ParticipantLeftPayload{
		ConnectionID: connID,
		UserName:     entry.DisplayName,
		DisplayName:  entry.DisplayName,
		UserID:       entry.UserID,
	}, connID)
	logrus.WithFields(logrus.Fields{"connection_id": connID, "room_id": roomID}).Info("Client left room")
}

// broadcast delivers an event to every member of a room except excludeConnID.
// Delivery is best-effort: a member whose send queue is full is skipped and
// left for its write pump to clean up.
func (h *Hub) broadcast(roomID uint, event string, payload interface{}, excludeConnID string) {
	members := h.registry.MembersOf(roomID)
	if len(members) == 0 {
		return
	}

	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Failed to marshal broadcast frame")
		return
	}

	h.clientsMu.RLock()
	targets := make([]*Client, 0, len(members))
	for _, member := range members {
		if member.ConnectionID == excludeConnID {
			continue
		}
		if c, ok := h.clients[member.ConnectionID]; ok {
			targets = append(targets, c)
		}
	}
	h.clientsMu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- frame:
		default:
			logrus.WithFields(logrus.Fields{
				"event":         event,
				"connection_id": c.ID(),
			}).Warn("Client send channel full during broadcast, skipping")
		}
	}
}

// sendTo delivers a direct reply to a single client, best-effort.
func (h *Hub) sendTo(client *Client, event string, payload interface{}) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Failed to marshal direct frame")
		return
	}
	select {
	case client.send <- frame:
	default:
		logrus.WithField("connection_id", client.ID()).Warn("Client send channel full, message dropped")
	}
}

func (h *Hub) decode(client *Client, raw json.RawMessage, out interface{}) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		logrus.WithError(err).WithField("connection_id", client.ID()).Warn("Malformed event payload")
		h.sendTo(client, EventError, ErrorPayload{Message: "wrong data format"})
		return false
	}
	return true
}
