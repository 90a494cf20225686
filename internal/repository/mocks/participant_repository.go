package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
)

// ParticipantRepository is a testify mock of repository.ParticipantRepository.
type ParticipantRepository struct {
	mock.Mock
}

func (m *ParticipantRepository) FindByRoomID(ctx context.Context, roomID uint) ([]domain.RoomParticipant, error) {
	args := m.Called(ctx, roomID)
	participants, _ := args.Get(0).([]domain.RoomParticipant)
	return participants, args.Error(1)
}

func (m *ParticipantRepository) Add(ctx context.Context, roomID uint, userIDs []uint) error {
	args := m.Called(ctx, roomID, userIDs)
	return args.Error(0)
}

func (m *ParticipantRepository) Remove(ctx context.Context, roomID, userID uint) (int64, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ParticipantRepository) IsUserInRoom(ctx context.Context, roomID, userID uint) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ParticipantRepository) CountActive(ctx context.Context, roomID uint) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}
