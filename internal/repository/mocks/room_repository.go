package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
)

// RoomRepository is a testify mock of repository.RoomRepository.
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) FindByID(ctx context.Context, id uint) (*domain.MeetingRoom, error) {
	args := m.Called(ctx, id)
	if room, ok := args.Get(0).(*domain.MeetingRoom); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) FindByIDWithDetails(ctx context.Context, id uint) (*domain.MeetingRoom, error) {
	args := m.Called(ctx, id)
	if room, ok := args.Get(0).(*domain.MeetingRoom); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) FindAll(ctx context.Context) ([]domain.MeetingRoom, int64, error) {
	args := m.Called(ctx)
	rooms, _ := args.Get(0).([]domain.MeetingRoom)
	return rooms, args.Get(1).(int64), args.Error(2)
}

func (m *RoomRepository) FindByUser(ctx context.Context, userID uint, page, limit int) ([]domain.MeetingRoom, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	rooms, _ := args.Get(0).([]domain.MeetingRoom)
	return rooms, args.Get(1).(int64), args.Error(2)
}

func (m *RoomRepository) FindReadyToComplete(ctx context.Context, now time.Time) ([]domain.MeetingRoom, error) {
	args := m.Called(ctx, now)
	rooms, _ := args.Get(0).([]domain.MeetingRoom)
	return rooms, args.Error(1)
}

func (m *RoomRepository) IsJoinCodeTaken(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) FindRoomIDByJoinCode(ctx context.Context, code string) (uint, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(uint), args.Error(1)
}

func (m *RoomRepository) CreateWithDetails(ctx context.Context, room *domain.MeetingRoom, detail *domain.MeetingRoomDetail, participantIDs []uint) error {
	args := m.Called(ctx, room, detail, participantIDs)
	return args.Error(0)
}

func (m *RoomRepository) UpdateWithDetails(ctx context.Context, id uint, fields map[string]interface{}, detail *domain.MeetingRoomDetail, participantIDs []uint) error {
	args := m.Called(ctx, id, fields, detail, participantIDs)
	return args.Error(0)
}

func (m *RoomRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *RoomRepository) TransitionStatus(ctx context.Context, id uint, allowedFrom []domain.RoomStatus, to domain.RoomStatus, extra map[string]interface{}) (*domain.MeetingRoom, error) {
	args := m.Called(ctx, id, allowedFrom, to, extra)
	if room, ok := args.Get(0).(*domain.MeetingRoom); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) TransitionStatusWithHistory(ctx context.Context, id uint, allowedFrom []domain.RoomStatus, to domain.RoomStatus) (*domain.MeetingRoom, error) {
	args := m.Called(ctx, id, allowedFrom, to)
	if room, ok := args.Get(0).(*domain.MeetingRoom); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}
