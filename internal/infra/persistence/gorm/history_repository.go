package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/repository"
)

// GormHistoryRepository is the read side of the append-only meeting history.
// History rows are inserted by GormRoomRepository inside the transition
// transaction; this repository never writes.
type GormHistoryRepository struct {
	db *gorm.DB
}

func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	if db == nil {
		panic("database connection cannot be nil for GormHistoryRepository")
	}
	return &GormHistoryRepository{db: db}
}

func (r *GormHistoryRepository) FindByRoomID(ctx context.Context, roomID uint) ([]domain.MeetingHistory, error) {
	var rows []domain.MeetingHistory
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find history for room %d: %w", roomID, err)
	}
	return rows, nil
}

func (r *GormHistoryRepository) FindTerminal(ctx context.Context, userID uint, page, limit int) ([]domain.MeetingHistory, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	query := r.db.WithContext(ctx).Model(&domain.MeetingHistory{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm: count history rows: %w", err)
	}

	var rows []domain.MeetingHistory
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("gorm: find terminal history: %w", err)
	}
	return rows, total, nil
}

func (r *GormHistoryRepository) Statistics(ctx context.Context, userID uint) (*repository.HistoryStats, error) {
	stats := &repository.HistoryStats{}
	for _, status := range []domain.RoomStatus{domain.StatusCompleted, domain.StatusCanceled} {
		query := r.db.WithContext(ctx).Model(&domain.MeetingHistory{}).Where("status = ?", status)
		if userID != 0 {
			query = query.Where("user_id = ?", userID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return nil, fmt.Errorf("gorm: count %s history rows: %w", status, err)
		}
		if status == domain.StatusCompleted {
			stats.Completed = count
		} else {
			stats.Canceled = count
		}
	}
	stats.Total = stats.Completed + stats.Canceled
	return stats, nil
}
