package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/repository"
)

// HistoryRepository is a testify mock of repository.HistoryRepository.
type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) FindByRoomID(ctx context.Context, roomID uint) ([]domain.MeetingHistory, error) {
	args := m.Called(ctx, roomID)
	entries, _ := args.Get(0).([]domain.MeetingHistory)
	return entries, args.Error(1)
}

func (m *HistoryRepository) FindTerminal(ctx context.Context, userID uint, page, limit int) ([]domain.MeetingHistory, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	entries, _ := args.Get(0).([]domain.MeetingHistory)
	return entries, args.Get(1).(int64), args.Error(2)
}

func (m *HistoryRepository) Statistics(ctx context.Context, userID uint) (*repository.HistoryStats, error) {
	args := m.Called(ctx, userID)
	if stats, ok := args.Get(0).(*repository.HistoryStats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}
