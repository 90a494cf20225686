package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
)

// GormParticipantRepository is the GORM implementation of
// repository.ParticipantRepository.
type GormParticipantRepository struct {
	db *gorm.DB
}

func NewGormParticipantRepository(db *gorm.DB) *GormParticipantRepository {
	if db == nil {
		panic("database connection cannot be nil for GormParticipantRepository")
	}
	return &GormParticipantRepository{db: db}
}

func (r *GormParticipantRepository) FindByRoomID(ctx context.Context, roomID uint) ([]domain.RoomParticipant, error) {
	var rows []domain.RoomParticipant
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND is_active = ?", roomID, true).
		Order("joined_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find participants for room %d: %w", roomID, err)
	}
	return rows, nil
}

func (r *GormParticipantRepository) Add(ctx context.Context, roomID uint, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(rosterRows(roomID, userIDs)).Error; err != nil {
		return fmt.Errorf("gorm: add participants to room %d: %w", roomID, err)
	}
	return nil
}

func (r *GormParticipantRepository) Remove(ctx context.Context, roomID, userID uint) (int64, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&domain.RoomParticipant{}).
		Where("room_id = ? AND user_id = ? AND is_active = ?", roomID, userID, true).
		Updates(map[string]interface{}{"is_active": false, "left_at": now})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm: remove participant %d from room %d: %w", userID, roomID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormParticipantRepository) IsUserInRoom(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RoomParticipant{}).
		Where("room_id = ? AND user_id = ? AND is_active = ?", roomID, userID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check participant %d in room %d: %w", userID, roomID, err)
	}
	return count > 0, nil
}

func (r *GormParticipantRepository) CountActive(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RoomParticipant{}).
		Where("room_id = ? AND is_active = ?", roomID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count participants for room %d: %w", roomID, err)
	}
	return count, nil
}
