package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/repository"
)

// GormRoomRepository is the GORM implementation of repository.RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.MeetingRoom, error) {
	var room domain.MeetingRoom
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) FindByIDWithDetails(ctx context.Context, id uint) (*domain.MeetingRoom, error) {
	var room domain.MeetingRoom
	err := r.db.WithContext(ctx).
		Preload("Detail").
		Preload("Participants", "is_active = ?", true).
		First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room with details %d: %w", id, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) FindAll(ctx context.Context) ([]domain.MeetingRoom, int64, error) {
	var rooms []domain.MeetingRoom
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.MeetingRoom{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm: count rooms: %w", err)
	}
	err := r.db.WithContext(ctx).
		Preload("Detail").
		Preload("Participants", "is_active = ?", true).
		Order("start_time DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, 0, fmt.Errorf("gorm: find all rooms: %w", err)
	}
	return rooms, total, nil
}

func (r *GormRoomRepository) FindByUser(ctx context.Context, userID uint, page, limit int) ([]domain.MeetingRoom, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	query := r.db.WithContext(ctx).Model(&domain.MeetingRoom{}).
		Where("user_id = ? OR mentor_id = ?", userID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm: count rooms for user %d: %w", userID, err)
	}

	var rooms []domain.MeetingRoom
	err := query.
		Preload("Detail").
		Preload("Participants", "is_active = ?", true).
		Order("start_time DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&rooms).Error
	if err != nil {
		return nil, 0, fmt.Errorf("gorm: find rooms for user %d: %w", userID, err)
	}
	return rooms, total, nil
}

// FindReadyToComplete is the SQL form of (*domain.MeetingRoom).ReadyToComplete;
// the clauses below must stay equivalent to that predicate.
func (r *GormRoomRepository) FindReadyToComplete(ctx context.Context, now time.Time) ([]domain.MeetingRoom, error) {
	cutoff := now.Add(-domain.MeetingDuration)
	var rooms []domain.MeetingRoom
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusOngoing).
		Where(
			r.db.Where("end_time <= ?", now).
				Or("actual_start_time <= ?", cutoff).
				Or("actual_start_time IS NULL AND start_time <= ?", cutoff),
		).
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find rooms ready to complete: %w", err)
	}
	return rooms, nil
}

func (r *GormRoomRepository) IsJoinCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.MeetingRoomDetail{}).
		Where("join_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count details by join code '%s': %w", code, err)
	}
	return count > 0, nil
}

func (r *GormRoomRepository) FindRoomIDByJoinCode(ctx context.Context, code string) (uint, error) {
	var detail domain.MeetingRoomDetail
	err := r.db.WithContext(ctx).Where("join_code = ?", code).First(&detail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, repository.ErrRoomNotFound
		}
		return 0, fmt.Errorf("gorm: find detail by join code '%s': %w", code, err)
	}
	return detail.RoomID, nil
}

func (r *GormRoomRepository) CreateWithDetails(ctx context.Context, room *domain.MeetingRoom, detail *domain.MeetingRoomDetail, participantIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		if detail != nil {
			detail.RoomID = room.ID
			if err := tx.Create(detail).Error; err != nil {
				return err
			}
		}
		if len(participantIDs) > 0 {
			if err := tx.Create(rosterRows(room.ID, participantIDs)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create room '%s': %w", room.RoomName, err)
	}
	return nil
}

func (r *GormRoomRepository) UpdateWithDetails(ctx context.Context, id uint, fields map[string]interface{}, detail *domain.MeetingRoomDetail, participantIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			res := tx.Model(&domain.MeetingRoom{}).Where("id = ?", id).Updates(fields)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Distinguish "no change" from "no row".
				var count int64
				if err := tx.Model(&domain.MeetingRoom{}).Where("id = ?", id).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return repository.ErrRoomNotFound
				}
			}
		}
		if detail != nil {
			var existing domain.MeetingRoomDetail
			err := tx.Where("room_id = ?", id).First(&existing).Error
			switch {
			case err == nil:
				updates := map[string]interface{}{
					"meeting_password": detail.MeetingPassword,
					"notes":            detail.Notes,
					"recorded_url":     detail.RecordedURL,
				}
				if detail.JoinCode != "" {
					updates["join_code"] = detail.JoinCode
				}
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				detail.RoomID = id
				if err := tx.Create(detail).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}
		if participantIDs != nil {
			if err := tx.Where("room_id = ?", id).Delete(&domain.RoomParticipant{}).Error; err != nil {
				return err
			}
			if len(participantIDs) > 0 {
				if err := tx.Create(rosterRows(id, participantIDs)).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return err
		}
		return fmt.Errorf("gorm: update room %d: %w", id, err)
	}
	return nil
}

func (r *GormRoomRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	err := r.db.WithContext(ctx).Model(&domain.MeetingRoom{}).
		Where("id = ?", id).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("gorm: update room %d fields: %w", id, err)
	}
	return nil
}

// TransitionStatus performs the conditional status move. The WHERE clause on
// the current status is the optimistic-concurrency guard: a racing caller
// whose precondition no longer holds affects zero rows and gets
// ErrTransitionNotAllowed without any write happening.
func (r *GormRoomRepository) TransitionStatus(ctx context.Context, id uint, allowedFrom []domain.RoomStatus, to domain.RoomStatus, extra map[string]interface{}) (*domain.MeetingRoom, error) {
	var updated domain.MeetingRoom
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transitionInTx(tx, id, allowedFrom, to, extra); err != nil {
			return err
		}
		return tx.First(&updated, id).Error
	})
	if err != nil {
		return nil, wrapTransitionErr(id, to, err)
	}
	return &updated, nil
}

func (r *GormRoomRepository) TransitionStatusWithHistory(ctx context.Context, id uint, allowedFrom []domain.RoomStatus, to domain.RoomStatus) (*domain.MeetingRoom, error) {
	var updated domain.MeetingRoom
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transitionInTx(tx, id, allowedFrom, to, nil); err != nil {
			return err
		}
		if err := tx.First(&updated, id).Error; err != nil {
			return err
		}
		return tx.Create(domain.SnapshotOf(&updated, to)).Error
	})
	if err != nil {
		return nil, wrapTransitionErr(id, to, err)
	}
	return &updated, nil
}

func transitionInTx(tx *gorm.DB, id uint, allowedFrom []domain.RoomStatus, to domain.RoomStatus, extra map[string]interface{}) error {
	fields := map[string]interface{}{"status": to}
	for k, v := range extra {
		fields[k] = v
	}
	res := tx.Model(&domain.MeetingRoom{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrTransitionNotAllowed
	}
	return nil
}

func wrapTransitionErr(id uint, to domain.RoomStatus, err error) error {
	if errors.Is(err, repository.ErrTransitionNotAllowed) {
		return repository.ErrTransitionNotAllowed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrRoomNotFound
	}
	return fmt.Errorf("gorm: transition room %d to %s: %w", id, to, err)
}

func rosterRows(roomID uint, userIDs []uint) []domain.RoomParticipant {
	rows := make([]domain.RoomParticipant, 0, len(userIDs))
	for _, uid := range userIDs {
		rows = append(rows, domain.RoomParticipant{
			RoomID:   roomID,
			UserID:   uid,
			IsActive: true,
		})
	}
	return rows
}
