package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/repository"
)

// RoomService owns the room lifecycle state machine. Every status change in
// the system, manual or swept, goes through UpdateStatus so exactly one
// transition path exists.
type RoomService struct {
	roomRepo repository.RoomRepository
}

func NewRoomService(roomRepo repository.RoomRepository) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	return &RoomService{roomRepo: roomRepo}
}

// CreateRoomInput is the caller-supplied part of a new room.
type CreateRoomInput struct {
	RoomName  string
	MentorID  uint
	UserID    uint
	StartTime *time.Time
	Status    domain.RoomStatus
}

// RoomDetailInput carries join metadata. MeetingLink may be a full URL or a
// bare code; only the trailing code segment is stored.
type RoomDetailInput struct {
	MeetingLink     string
	MeetingPassword string
	Notes           string
	RecordedURL     string
}

// UpdateRoomInput is a partial patch of non-lifecycle room fields.
type UpdateRoomInput struct {
	RoomName  *string
	MentorID  *uint
	UserID    *uint
	StartTime *time.Time
	EndTime   *time.Time
}

// CreateRoom allocates the durable room row, its detail row (always created,
// with a generated unique join code) and the initial roster, atomically.
func (s *RoomService) CreateRoom(ctx context.Context, input CreateRoomInput, detail *RoomDetailInput, participantIDs []uint) (*domain.MeetingRoom, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_name": input.RoomName, "user_id": input.UserID})

	now := time.Now()
	start := now
	if input.StartTime != nil && !input.StartTime.IsZero() {
		start = *input.StartTime
	} else if input.StartTime != nil {
		logCtx.Warn("Invalid start_time provided, falling back to now")
	}

	status := input.Status
	if !status.Valid() {
		status = domain.StatusScheduled
	}

	room := &domain.MeetingRoom{
		RoomName:  input.RoomName,
		MentorID:  input.MentorID,
		UserID:    input.UserID,
		StartTime: &start,
		Status:    status,
	}
	// Rooms created directly in "ongoing" count their window from creation.
	if status == domain.StatusOngoing {
		room.ActualStartTime = &start
	}
	base := start
	if room.ActualStartTime != nil {
		base = *room.ActualStartTime
	}
	end := base.Add(domain.MeetingDuration)
	room.EndTime = &end

	code, err := s.generateUniqueJoinCode(ctx)
	if err != nil {
		if errors.Is(err, ErrCodeGenerationExhausted) {
			logCtx.Error("Join code generation exhausted retry budget")
			return nil, ErrCodeGenerationExhausted
		}
		logCtx.WithError(err).Error("Failed to generate unique join code")
		return nil, ErrInternalServer
	}

	detailRow := &domain.MeetingRoomDetail{JoinCode: code}
	if detail != nil {
		if detail.MeetingLink != "" {
			detailRow.JoinCode = normalizeJoinCode(detail.MeetingLink)
		}
		detailRow.MeetingPassword = detail.MeetingPassword
		detailRow.Notes = detail.Notes
		detailRow.RecordedURL = detail.RecordedURL
	}

	if err := s.roomRepo.CreateWithDetails(ctx, room, detailRow, participantIDs); err != nil {
		logCtx.WithError(err).Error("Failed to create meeting room")
		return nil, ErrInternalServer
	}

	logCtx.WithFields(logrus.Fields{"room_id": room.ID, "join_code": detailRow.JoinCode}).Info("Meeting room created")
	return s.roomRepo.FindByIDWithDetails(ctx, room.ID)
}

// UpdateRoom applies non-lifecycle field edits. A new start time without an
// explicit end time recomputes the end as start plus the fixed duration.
func (s *RoomService) UpdateRoom(ctx context.Context, id uint, patch UpdateRoomInput, detail *RoomDetailInput, participantIDs []uint) (*domain.MeetingRoom, error) {
	logCtx := logrus.WithField("room_id", id)

	if _, err := s.roomRepo.FindByID(ctx, id); err != nil {
		return nil, s.mapLookupErr(logCtx, err)
	}

	fields := map[string]interface{}{}
	if patch.RoomName != nil {
		fields["room_name"] = *patch.RoomName
	}
	if patch.MentorID != nil {
		fields["mentor_id"] = *patch.MentorID
	}
	if patch.UserID != nil {
		fields["user_id"] = *patch.UserID
	}
	if patch.StartTime != nil {
		start := *patch.StartTime
		if start.IsZero() {
			logCtx.Warn("Invalid start_time provided in update, falling back to now")
			start = time.Now()
		}
		fields["start_time"] = start
		if patch.EndTime == nil {
			fields["end_time"] = start.Add(domain.MeetingDuration)
		}
	}
	if patch.EndTime != nil {
		fields["end_time"] = *patch.EndTime
	}

	var detailRow *domain.MeetingRoomDetail
	if detail != nil {
		detailRow = &domain.MeetingRoomDetail{
			JoinCode:        normalizeJoinCode(detail.MeetingLink),
			MeetingPassword: detail.MeetingPassword,
			Notes:           detail.Notes,
			RecordedURL:     detail.RecordedURL,
		}
		if detail.MeetingLink == "" {
			detailRow.JoinCode = ""
		}
	}

	if err := s.roomRepo.UpdateWithDetails(ctx, id, fields, detailRow, participantIDs); err != nil {
		return nil, s.mapLookupErr(logCtx, err)
	}

	logCtx.Info("Meeting room updated")
	return s.roomRepo.FindByIDWithDetails(ctx, id)
}

// UpdateStatus is the single lifecycle transition entry point. The matching
// transition runs as a conditional update inside a store transaction; a
// caller whose precondition no longer holds falls through to the idempotent
// path against the re-read row, so two racing callers can never double-apply
// a transition or double-write history.
func (s *RoomService) UpdateStatus(ctx context.Context, id uint, target domain.RoomStatus) (*domain.MeetingRoom, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": id, "target_status": target})

	if !target.Valid() {
		return nil, ErrInvalidStatus
	}

	room, err := s.roomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupErr(logCtx, err)
	}

	switch {
	case target == domain.StatusOngoing && (room.Status == domain.StatusScheduled || room.Status == ""):
		now := time.Now()
		extra := map[string]interface{}{
			"actual_start_time": now,
			"end_time":          now.Add(domain.MeetingDuration),
		}
		if room.StartTime == nil {
			extra["start_time"] = now
		}
		updated, err := s.roomRepo.TransitionStatus(ctx, id, []domain.RoomStatus{domain.StatusScheduled, ""}, domain.StatusOngoing, extra)
		if err == nil {
			logCtx.Info("Room transitioned to ongoing")
			return updated, nil
		}
		return s.handleTransitionErr(ctx, logCtx, id, target, err)

	case target.Terminal() && (room.Status == domain.StatusScheduled || room.Status == domain.StatusOngoing || room.Status == ""):
		updated, err := s.roomRepo.TransitionStatusWithHistory(ctx, id, []domain.RoomStatus{domain.StatusScheduled, domain.StatusOngoing, ""}, target)
		if err == nil {
			logCtx.Info("Room reached terminal status, history recorded")
			return updated, nil
		}
		return s.handleTransitionErr(ctx, logCtx, id, target, err)

	default:
		return s.statusFallback(ctx, logCtx, room, target)
	}
}

// handleTransitionErr resolves a lost transition race: the row is re-read and
// routed through the idempotent fallback, never through a second transition.
func (s *RoomService) handleTransitionErr(ctx context.Context, logCtx *logrus.Entry, id uint, target domain.RoomStatus, err error) (*domain.MeetingRoom, error) {
	if !errors.Is(err, repository.ErrTransitionNotAllowed) {
		return nil, s.mapLookupErr(logCtx, err)
	}
	logCtx.Warn("Transition precondition no longer holds, applying idempotent fallback")
	room, err := s.roomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupErr(logCtx, err)
	}
	return s.statusFallback(ctx, logCtx, room, target)
}

// statusFallback is the no-op path for status updates with no matching
// transition table row: same-status writes persist the field without history
// side effects; anything that would move the status backward, or off a
// terminal state, returns the row unchanged.
func (s *RoomService) statusFallback(ctx context.Context, logCtx *logrus.Entry, room *domain.MeetingRoom, target domain.RoomStatus) (*domain.MeetingRoom, error) {
	if room.Status != target {
		logCtx.WithField("current_status", room.Status).Debug("No transition applies, leaving status untouched")
		return room, nil
	}
	if err := s.roomRepo.UpdateFields(ctx, room.ID, map[string]interface{}{"status": target}); err != nil {
		return nil, s.mapLookupErr(logCtx, err)
	}
	logCtx.Debug("Idempotent status update applied")
	return room, nil
}

// AutoCompleteElapsed is the sweep body: every ongoing room whose window has
// elapsed is driven to completed through UpdateStatus. A failing room is
// logged and retried on the next sweep; it never aborts the cycle.
func (s *RoomService) AutoCompleteElapsed(ctx context.Context) ([]domain.MeetingRoom, error) {
	rooms, err := s.roomRepo.FindReadyToComplete(ctx, time.Now())
	if err != nil {
		logrus.WithError(err).Error("Failed to query rooms ready to complete")
		return nil, ErrInternalServer
	}

	completed := make([]domain.MeetingRoom, 0, len(rooms))
	for _, room := range rooms {
		updated, err := s.UpdateStatus(ctx, room.ID, domain.StatusCompleted)
		if err != nil {
			logrus.WithError(err).WithField("room_id", room.ID).Error("Failed to auto-complete room")
			continue
		}
		completed = append(completed, *updated)
	}
	return completed, nil
}

// GetRoom returns one room with detail and roster preloaded.
func (s *RoomService) GetRoom(ctx context.Context, id uint) (*domain.MeetingRoom, error) {
	room, err := s.roomRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, s.mapLookupErr(logrus.WithField("room_id", id), err)
	}
	return room, nil
}

// ListRooms returns every room, newest start time first.
func (s *RoomService) ListRooms(ctx context.Context) ([]domain.MeetingRoom, int64, error) {
	rooms, total, err := s.roomRepo.FindAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list rooms")
		return nil, 0, ErrInternalServer
	}
	return rooms, total, nil
}

// ListRoomsByUser returns rooms where the user is owner or mentor, paged.
func (s *RoomService) ListRoomsByUser(ctx context.Context, userID uint, page, limit int) ([]domain.MeetingRoom, int64, error) {
	rooms, total, err := s.roomRepo.FindByUser(ctx, userID, page, limit)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list rooms for user")
		return nil, 0, ErrInternalServer
	}
	return rooms, total, nil
}

// ResolveJoinCode maps a join code (or full meeting link) to its room id,
// used by request handlers before external session token issuance.
func (s *RoomService) ResolveJoinCode(ctx context.Context, link string) (uint, error) {
	code := normalizeJoinCode(link)
	roomID, err := s.roomRepo.FindRoomIDByJoinCode(ctx, code)
	if err != nil {
		return 0, s.mapLookupErr(logrus.WithField("join_code", code), err)
	}
	return roomID, nil
}

func (s *RoomService) mapLookupErr(logCtx *logrus.Entry, err error) error {
	if errors.Is(err, repository.ErrRoomNotFound) {
		logCtx.Warn("Meeting room not found")
		return ErrRoomNotFound
	}
	logCtx.WithError(err).Error("Repository error")
	return ErrInternalServer
}
