package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/repository"
)

// ParticipantService manages the durable roster of a room. Live presence is
// the hub's job; this is the invited/admitted list.
type ParticipantService struct {
	participantRepo repository.ParticipantRepository
	roomRepo        repository.RoomRepository
}

func NewParticipantService(participantRepo repository.ParticipantRepository, roomRepo repository.RoomRepository) *ParticipantService {
	if participantRepo == nil {
		panic("ParticipantRepository cannot be nil for ParticipantService")
	}
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for ParticipantService")
	}
	return &ParticipantService{participantRepo: participantRepo, roomRepo: roomRepo}
}

// List returns the active roster of a room.
func (s *ParticipantService) List(ctx context.Context, roomID uint) ([]domain.RoomParticipant, error) {
	rows, err := s.participantRepo.FindByRoomID(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to list participants")
		return nil, ErrInternalServer
	}
	return rows, nil
}

// Add appends users to a room's roster after verifying the room exists.
func (s *ParticipantService) Add(ctx context.Context, roomID uint, userIDs []uint) error {
	logCtx := logrus.WithField("room_id", roomID)

	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Cannot add participants, room not found")
			return ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Repository error checking room")
		return ErrInternalServer
	}

	if err := s.participantRepo.Add(ctx, roomID, userIDs); err != nil {
		logCtx.WithError(err).Error("Failed to add participants")
		return ErrInternalServer
	}
	logCtx.WithField("count", len(userIDs)).Info("Participants added to roster")
	return nil
}

// Remove marks a roster entry inactive. Unlike a signaling leave, removing an
// absent participant is an explicit not-found error.
func (s *ParticipantService) Remove(ctx context.Context, roomID, userID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	affected, err := s.participantRepo.Remove(ctx, roomID, userID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to remove participant")
		return ErrInternalServer
	}
	if affected == 0 {
		logCtx.Warn("Participant not found on roster")
		return ErrParticipantNotFound
	}
	logCtx.Info("Participant removed from roster")
	return nil
}

// IsMember reports active roster membership.
func (s *ParticipantService) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	ok, err := s.participantRepo.IsUserInRoom(ctx, roomID, userID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to check roster membership")
		return false, ErrInternalServer
	}
	return ok, nil
}

// Count counts active roster entries.
func (s *ParticipantService) Count(ctx context.Context, roomID uint) (int64, error) {
	count, err := s.participantRepo.CountActive(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to count participants")
		return 0, ErrInternalServer
	}
	return count, nil
}
