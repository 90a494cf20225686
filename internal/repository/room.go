package repository

import (
	"context"
	"time"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
)

// RoomRepository defines storage for meeting rooms and their lifecycle
// transitions. All multi-row writes are transactional: either every row of a
// call is committed or none is.
type RoomRepository interface {
	// FindByID looks up a room row. Returns ErrRoomNotFound if absent.
	FindByID(ctx context.Context, id uint) (*domain.MeetingRoom, error)

	// FindByIDWithDetails loads a room with its detail and roster preloaded.
	FindByIDWithDetails(ctx context.Context, id uint) (*domain.MeetingRoom, error)

	// FindAll returns every room with details, newest start time first.
	FindAll(ctx context.Context) ([]domain.MeetingRoom, int64, error)

	// FindByUser returns rooms where the user is owner or mentor, paged.
	FindByUser(ctx context.Context, userID uint, page, limit int) ([]domain.MeetingRoom, int64, error)

	// FindReadyToComplete returns ongoing rooms whose window has elapsed at
	// now: end_time passed, or actual start more than one meeting duration
	// ago, or never actually started and scheduled more than one duration ago.
	FindReadyToComplete(ctx context.Context, now time.Time) ([]domain.MeetingRoom, error)

	// IsJoinCodeTaken reports whether any room detail already stores code.
	IsJoinCodeTaken(ctx context.Context, code string) (bool, error)

	// FindRoomIDByJoinCode resolves a stored join code to its room id.
	// Returns ErrRoomNotFound when no detail stores the code.
	FindRoomIDByJoinCode(ctx context.Context, code string) (uint, error)

	// CreateWithDetails inserts the room, its detail row and the initial
	// roster in one transaction. The room's generated ID is filled in.
	CreateWithDetails(ctx context.Context, room *domain.MeetingRoom, detail *domain.MeetingRoomDetail, participantIDs []uint) error

	// UpdateWithDetails applies a field patch to the room and, when non-nil,
	// upserts the detail and replaces the roster, all in one transaction.
	UpdateWithDetails(ctx context.Context, id uint, fields map[string]interface{}, detail *domain.MeetingRoomDetail, participantIDs []uint) error

	// UpdateFields applies a plain field patch with no lifecycle semantics.
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error

	// TransitionStatus conditionally moves the room to status "to", together
	// with extra field updates, only if its current status is in allowedFrom.
	// Returns ErrTransitionNotAllowed without writing anything when the
	// precondition does not hold at commit time.
	TransitionStatus(ctx context.Context, id uint, allowedFrom []domain.RoomStatus, to domain.RoomStatus, extra map[string]interface{}) (*domain.MeetingRoom, error)

	// TransitionStatusWithHistory is TransitionStatus plus an append-only
	// history snapshot, written in the same transaction. The precondition
	// check and the history insert cannot be split by a concurrent caller,
	// so at most one history row is ever written per room.
	TransitionStatusWithHistory(ctx context.Context, id uint, allowedFrom []domain.RoomStatus, to domain.RoomStatus) (*domain.MeetingRoom, error)
}
