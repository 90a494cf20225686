package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/repository"
)

// HistoryService exposes the append-only meeting history.
type HistoryService struct {
	historyRepo repository.HistoryRepository
}

func NewHistoryService(historyRepo repository.HistoryRepository) *HistoryService {
	if historyRepo == nil {
		panic("HistoryRepository cannot be nil for HistoryService")
	}
	return &HistoryService{historyRepo: historyRepo}
}

// ListTerminal returns history rows paged, optionally filtered by room owner.
func (s *HistoryService) ListTerminal(ctx context.Context, userID uint, page, limit int) ([]domain.MeetingHistory, int64, error) {
	rows, total, err := s.historyRepo.FindTerminal(ctx, userID, page, limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to list meeting history")
		return nil, 0, ErrInternalServer
	}
	return rows, total, nil
}

// ByRoomID returns the history of one room, newest first.
func (s *HistoryService) ByRoomID(ctx context.Context, roomID uint) ([]domain.MeetingHistory, error) {
	rows, err := s.historyRepo.FindByRoomID(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to load room history")
		return nil, ErrInternalServer
	}
	return rows, nil
}

// Statistics aggregates completed/canceled outcomes.
func (s *HistoryService) Statistics(ctx context.Context, userID uint) (*repository.HistoryStats, error) {
	stats, err := s.historyRepo.Statistics(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("Failed to compute history statistics")
		return nil, ErrInternalServer
	}
	return stats, nil
}
