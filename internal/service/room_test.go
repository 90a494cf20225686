package service_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/repository"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/repository/mocks"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/service"
)

var joinCodePattern = regexp.MustCompile(`^[a-z0-9]{3}-[a-z0-9]{3}-[a-z0-9]{3}$`)

func TestRoomService_CreateRoom_Defaults(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	before := time.Now()

	mockRoomRepo.On("IsJoinCodeTaken", ctx, mock.AnythingOfType("string")).
		Return(false, nil).
		Once()

	mockRoomRepo.On("CreateWithDetails", ctx, mock.AnythingOfType("*domain.MeetingRoom"), mock.AnythingOfType("*domain.MeetingRoomDetail"), []uint(nil)).
		Run(func(args mock.Arguments) {
			room := args.Get(1).(*domain.MeetingRoom)
			detail := args.Get(2).(*domain.MeetingRoomDetail)

			assert.Equal(t, domain.StatusScheduled, room.Status)
			assert.Nil(t, room.ActualStartTime, "a scheduled room has no actual start yet")
			require.NotNil(t, room.StartTime)
			require.NotNil(t, room.EndTime)
			assert.False(t, room.StartTime.Before(before), "omitted start time should default to now")
			assert.Equal(t, room.StartTime.Add(domain.MeetingDuration), *room.EndTime)
			assert.Regexp(t, joinCodePattern, detail.JoinCode)

			room.ID = 7
		}).
		Return(nil).
		Once()

	mockRoomRepo.On("FindByIDWithDetails", ctx, uint(7)).
		Return(&domain.MeetingRoom{ID: 7, Status: domain.StatusScheduled, RoomName: "algebra review"}, nil).
		Once()

	room, err := roomService.CreateRoom(ctx, service.CreateRoomInput{
		RoomName: "algebra review",
		MentorID: 3,
		UserID:   9,
	}, nil, nil)

	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, uint(7), room.ID)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_CreateRoom_OngoingStampsActualStart(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	mockRoomRepo.On("IsJoinCodeTaken", ctx, mock.AnythingOfType("string")).
		Return(false, nil).
		Once()

	mockRoomRepo.On("CreateWithDetails", ctx, mock.MatchedBy(func(room *domain.MeetingRoom) bool {
		require.NotNil(t, room.ActualStartTime)
		require.NotNil(t, room.EndTime)
		assert.Equal(t, start, *room.ActualStartTime)
		assert.Equal(t, start.Add(domain.MeetingDuration), *room.EndTime)
		return room.Status == domain.StatusOngoing
	}), mock.AnythingOfType("*domain.MeetingRoomDetail"), []uint{4, 5}).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.MeetingRoom).ID = 12
		}).
		Return(nil).
		Once()

	mockRoomRepo.On("FindByIDWithDetails", ctx, uint(12)).
		Return(&domain.MeetingRoom{ID: 12, Status: domain.StatusOngoing}, nil).
		Once()

	room, err := roomService.CreateRoom(ctx, service.CreateRoomInput{
		RoomName:  "standup",
		MentorID:  1,
		UserID:    2,
		StartTime: &start,
		Status:    domain.StatusOngoing,
	}, nil, []uint{4, 5})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusOngoing, room.Status)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_CreateRoom_JoinCodeCollisionRetries(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	// Two collisions, then a free code.
	mockRoomRepo.On("IsJoinCodeTaken", ctx, mock.AnythingOfType("string")).
		Return(true, nil).
		Twice()
	mockRoomRepo.On("IsJoinCodeTaken", ctx, mock.AnythingOfType("string")).
		Return(false, nil).
		Once()

	mockRoomRepo.On("CreateWithDetails", ctx, mock.AnythingOfType("*domain.MeetingRoom"), mock.AnythingOfType("*domain.MeetingRoomDetail"), []uint(nil)).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.MeetingRoom).ID = 3
		}).
		Return(nil).
		Once()
	mockRoomRepo.On("FindByIDWithDetails", ctx, uint(3)).
		Return(&domain.MeetingRoom{ID: 3}, nil).
		Once()

	_, err := roomService.CreateRoom(ctx, service.CreateRoomInput{RoomName: "retry", MentorID: 1, UserID: 1}, nil, nil)

	require.NoError(t, err)
	mockRoomRepo.AssertNumberOfCalls(t, "IsJoinCodeTaken", 3)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_CreateRoom_JoinCodeExhausted(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	// Every attempt collides until the retry budget runs out.
	mockRoomRepo.On("IsJoinCodeTaken", ctx, mock.AnythingOfType("string")).
		Return(true, nil).
		Times(10)

	room, err := roomService.CreateRoom(ctx, service.CreateRoomInput{RoomName: "full", MentorID: 1, UserID: 1}, nil, nil)

	assert.Nil(t, room)
	assert.ErrorIs(t, err, service.ErrCodeGenerationExhausted)
	mockRoomRepo.AssertNotCalled(t, "CreateWithDetails", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_UpdateStatus_ScheduledToOngoing(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	start := time.Now().Add(10 * time.Minute)
	scheduled := &domain.MeetingRoom{ID: 1, Status: domain.StatusScheduled, StartTime: &start}

	mockRoomRepo.On("FindByID", ctx, uint(1)).
		Return(scheduled, nil).
		Once()

	mockRoomRepo.On("TransitionStatus", ctx, uint(1),
		[]domain.RoomStatus{domain.StatusScheduled, domain.RoomStatus("")},
		domain.StatusOngoing,
		mock.MatchedBy(func(extra map[string]interface{}) bool {
			_, hasActual := extra["actual_start_time"]
			_, hasEnd := extra["end_time"]
			_, hasStart := extra["start_time"]
			// start_time is stamped only when the room never had one
			return hasActual && hasEnd && !hasStart
		})).
		Return(&domain.MeetingRoom{ID: 1, Status: domain.StatusOngoing}, nil).
		Once()

	room, err := roomService.UpdateStatus(ctx, 1, domain.StatusOngoing)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusOngoing, room.Status)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_UpdateStatus_OngoingToCompleted_RecordsHistory(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	mockRoomRepo.On("FindByID", ctx, uint(2)).
		Return(&domain.MeetingRoom{ID: 2, Status: domain.StatusOngoing}, nil).
		Once()
	mockRoomRepo.On("TransitionStatusWithHistory", ctx, uint(2),
		[]domain.RoomStatus{domain.StatusScheduled, domain.StatusOngoing, domain.RoomStatus("")},
		domain.StatusCompleted).
		Return(&domain.MeetingRoom{ID: 2, Status: domain.StatusCompleted}, nil).
		Once()

	room, err := roomService.UpdateStatus(ctx, 2, domain.StatusCompleted)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, room.Status)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_UpdateStatus_OngoingTwiceIsIdempotent(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	actualStart := time.Now().Add(-20 * time.Minute)
	ongoing := &domain.MeetingRoom{ID: 3, Status: domain.StatusOngoing, ActualStartTime: &actualStart}

	mockRoomRepo.On("FindByID", ctx, uint(3)).
		Return(ongoing, nil).
		Once()
	// Only the status field is rewritten; actual_start_time stays untouched.
	mockRoomRepo.On("UpdateFields", ctx, uint(3), map[string]interface{}{"status": domain.StatusOngoing}).
		Return(nil).
		Once()

	room, err := roomService.UpdateStatus(ctx, 3, domain.StatusOngoing)

	require.NoError(t, err)
	assert.Equal(t, actualStart, *room.ActualStartTime)
	mockRoomRepo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_UpdateStatus_TerminalIsFrozen(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	completed := &domain.MeetingRoom{ID: 4, Status: domain.StatusCompleted}
	mockRoomRepo.On("FindByID", ctx, uint(4)).
		Return(completed, nil).
		Once()

	room, err := roomService.UpdateStatus(ctx, 4, domain.StatusCanceled)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, room.Status, "a terminal room never changes status")
	mockRoomRepo.AssertNotCalled(t, "TransitionStatusWithHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRoomRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_UpdateStatus_InvalidStatus(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)

	room, err := roomService.UpdateStatus(context.Background(), 1, domain.RoomStatus("paused"))

	assert.Nil(t, room)
	assert.ErrorIs(t, err, service.ErrInvalidStatus)
	mockRoomRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestRoomService_UpdateStatus_RoomNotFound(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	mockRoomRepo.On("FindByID", ctx, uint(99)).
		Return(nil, repository.ErrRoomNotFound).
		Once()

	room, err := roomService.UpdateStatus(ctx, 99, domain.StatusOngoing)

	assert.Nil(t, room)
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_UpdateStatus_LostRaceFallsBack(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	// First read sees an ongoing room; by commit time another caller has
	// already completed it, so the conditional update affects zero rows.
	mockRoomRepo.On("FindByID", ctx, uint(5)).
		Return(&domain.MeetingRoom{ID: 5, Status: domain.StatusOngoing}, nil).
		Once()
	mockRoomRepo.On("TransitionStatusWithHistory", ctx, uint(5),
		[]domain.RoomStatus{domain.StatusScheduled, domain.StatusOngoing, domain.RoomStatus("")},
		domain.StatusCompleted).
		Return(nil, repository.ErrTransitionNotAllowed).
		Once()
	mockRoomRepo.On("FindByID", ctx, uint(5)).
		Return(&domain.MeetingRoom{ID: 5, Status: domain.StatusCompleted}, nil).
		Once()
	mockRoomRepo.On("UpdateFields", ctx, uint(5), map[string]interface{}{"status": domain.StatusCompleted}).
		Return(nil).
		Once()

	room, err := roomService.UpdateStatus(ctx, 5, domain.StatusCompleted)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, room.Status)
	// The loser never writes a second history snapshot.
	mockRoomRepo.AssertNumberOfCalls(t, "TransitionStatusWithHistory", 1)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_AutoCompleteElapsed_ContinuesPastFailures(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	elapsed := []domain.MeetingRoom{
		{ID: 10, Status: domain.StatusOngoing},
		{ID: 11, Status: domain.StatusOngoing},
	}
	mockRoomRepo.On("FindReadyToComplete", ctx, mock.AnythingOfType("time.Time")).
		Return(elapsed, nil).
		Once()

	mockRoomRepo.On("FindByID", ctx, uint(10)).
		Return(&domain.MeetingRoom{ID: 10, Status: domain.StatusOngoing}, nil).
		Once()
	mockRoomRepo.On("TransitionStatusWithHistory", ctx, uint(10), mock.Anything, domain.StatusCompleted).
		Return(&domain.MeetingRoom{ID: 10, Status: domain.StatusCompleted}, nil).
		Once()

	// The second room fails; the sweep logs it and keeps going.
	mockRoomRepo.On("FindByID", ctx, uint(11)).
		Return(nil, errors.New("connection reset")).
		Once()

	completed, err := roomService.AutoCompleteElapsed(ctx)

	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, uint(10), completed[0].ID)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_ResolveJoinCode_FromFullLink(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	mockRoomRepo.On("FindRoomIDByJoinCode", ctx, "ab1-cd2-ef3").
		Return(uint(42), nil).
		Once()

	roomID, err := roomService.ResolveJoinCode(ctx, "https://meet.example.com/join/ab1-cd2-ef3")

	require.NoError(t, err)
	assert.Equal(t, uint(42), roomID)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_ResolveJoinCode_Unknown(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	mockRoomRepo.On("FindRoomIDByJoinCode", ctx, "zzz-zzz-zzz").
		Return(uint(0), repository.ErrRoomNotFound).
		Once()

	_, err := roomService.ResolveJoinCode(ctx, "zzz-zzz-zzz")

	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	mockRoomRepo.AssertExpectations(t)
}
