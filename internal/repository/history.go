package repository

import (
	"context"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
)

// HistoryStats aggregates terminal outcomes across history rows.
type HistoryStats struct {
	Completed int64 `json:"completed"`
	Canceled  int64 `json:"canceled"`
	Total     int64 `json:"total"`
}

// HistoryRepository reads the append-only meeting history. History rows are
// written exclusively by RoomRepository.TransitionStatusWithHistory so that
// the snapshot shares the transition's transaction.
type HistoryRepository interface {
	// FindByRoomID returns every history row for a room, newest first.
	FindByRoomID(ctx context.Context, roomID uint) ([]domain.MeetingHistory, error)

	// FindTerminal returns history rows paged, newest first. userID filters
	// by room owner when non-zero.
	FindTerminal(ctx context.Context, userID uint, page, limit int) ([]domain.MeetingHistory, int64, error)

	// Statistics counts completed and canceled history rows, optionally
	// restricted to a room owner.
	Statistics(ctx context.Context, userID uint) (*HistoryStats, error)
}
