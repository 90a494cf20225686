package hub

import (
	"encoding/json"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
)

// Inbound signaling events.
const (
	EventJoinRoom      = "join-room"
	EventLeaveRoom     = "leave-room"
	EventSendMessage   = "send-message"
	EventMediaStatus   = "media-status-update"
	EventScreenSharing = "screen-sharing-update"
	EventUserStatus    = "user-status-update"
)

// Outbound signaling events.
const (
	EventRoomParticipants     = "room-participants"
	EventParticipantJoined    = "participant-joined"
	EventParticipantLeft      = "participant-left"
	EventReceiveMessage       = "receive-message"
	EventMediaStatusChanged   = "media-status-changed"
	EventScreenStatusChanged  = "screen-status-changed"
	EventGenericStatusChanged = "generic-status-changed"
	EventError                = "error"
)

// Envelope is the wire frame for every signaling message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinRoomPayload struct {
	RoomID   uint   `json:"roomId"`
	UserName string `json:"userName"`
	UserID   string `json:"userId"`
}

type LeaveRoomPayload struct {
	RoomID uint `json:"roomId"`
}

type SendMessagePayload struct {
	RoomID      uint   `json:"roomId"`
	Message     string `json:"message"`
	DisplayName string `json:"displayName"`
	UserID      string `json:"userId"`
}

type MediaStatusPayload struct {
	RoomID     uint   `json:"roomId"`
	IsCameraOn bool   `json:"isCameraOn"`
	IsMicOn    bool   `json:"isMicOn"`
	UserID     string `json:"userId"`
}

type ScreenSharingPayload struct {
	RoomID          uint   `json:"roomId"`
	IsScreenSharing bool   `json:"isScreenSharing"`
	UserID          string `json:"userId"`
}

type UserStatusPayload struct {
	RoomID uint   `json:"roomId"`
	Status string `json:"status"`
	UserID string `json:"userId"`
}

type ParticipantJoinedPayload struct {
	ConnectionID string `json:"socketId"`
	UserName     string `json:"userName"`
	DisplayName  string `json:"displayName"`
	UserID       string `json:"userId"`
	JoinedAt     string `json:"joinedAt"`
}

type ParticipantLeftPayload struct {
	ConnectionID string `json:"socketId"`
	UserName     string `json:"userName"`
	DisplayName  string `json:"displayName"`
	UserID       string `json:"userId"`
}

type ReceiveMessagePayload struct {
	Message     string `json:"message"`
	DisplayName string `json:"displayName"`
	UserID      string `json:"userId"`
	Timestamp   string `json:"timestamp"`
}

type MediaStatusChangedPayload struct {
	ConnectionID string `json:"socketId"`
	UserID       string `json:"userId"`
	IsCameraOn   bool   `json:"isCameraOn"`
	IsMicOn      bool   `json:"isMicOn"`
}

type ScreenStatusChangedPayload struct {
	ConnectionID    string `json:"socketId"`
	UserID          string `json:"userId"`
	IsScreenSharing bool   `json:"isScreenSharing"`
}

type GenericStatusChangedPayload struct {
	ConnectionID string `json:"socketId"`
	UserID       string `json:"userId"`
	Status       string `json:"status"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// RoomParticipantsPayload is the direct reply to a joining connection: the
// full current roster including the new arrival.
type RoomParticipantsPayload []domain.PresenceEntry

func marshalEnvelope(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
