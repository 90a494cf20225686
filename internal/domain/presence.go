package domain

import "time"

// PresenceEntry is the ephemeral fact that a signaling connection currently
// occupies a room. It lives only in process memory and is lost on restart;
// clients reconstruct it by rejoining.
type PresenceEntry struct {
	ConnectionID    string    `json:"socketId"`
	DisplayName     string    `json:"userName"`
	UserID          string    `json:"userId"`
	JoinedAt        time.Time `json:"joinedAt"`
	IsCameraOn      bool      `json:"isCameraOn"`
	IsMicOn         bool      `json:"isMicOn"`
	IsScreenSharing bool      `json:"isScreenSharing"`
}
