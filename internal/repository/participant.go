package repository

import (
	"context"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
)

// ParticipantRepository stores the durable roster of a room. This is the
// invited/admitted list, not live presence.
type ParticipantRepository interface {
	// FindByRoomID returns the active roster of a room.
	FindByRoomID(ctx context.Context, roomID uint) ([]domain.RoomParticipant, error)

	// Add appends users to the roster of a room.
	Add(ctx context.Context, roomID uint, userIDs []uint) error

	// Remove marks a roster entry inactive. Returns the number of rows
	// affected; zero means the user was not on the roster.
	Remove(ctx context.Context, roomID, userID uint) (int64, error)

	// IsUserInRoom reports active roster membership.
	IsUserInRoom(ctx context.Context, roomID, userID uint) (bool, error)

	// CountActive counts active roster entries for a room.
	CountActive(ctx context.Context, roomID uint) (int64, error)
}
