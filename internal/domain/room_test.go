package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoomStatus_Valid(t *testing.T) {
	assert.True(t, StatusScheduled.Valid())
	assert.True(t, StatusOngoing.Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.True(t, StatusCanceled.Valid())
	assert.False(t, RoomStatus("paused").Valid())
	assert.False(t, RoomStatus("").Valid())
}

func TestRoomStatus_Terminal(t *testing.T) {
	assert.False(t, StatusScheduled.Terminal())
	assert.False(t, StatusOngoing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCanceled.Terminal())
}

func TestMeetingRoom_ReadyToComplete(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	cases := []struct {
		name string
		room MeetingRoom
		want bool
	}{
		{
			name: "actual start 90 minutes ago, no end time",
			room: MeetingRoom{Status: StatusOngoing, ActualStartTime: ago(90 * time.Minute)},
			want: true,
		},
		{
			name: "actual start 10 minutes ago",
			room: MeetingRoom{Status: StatusOngoing, ActualStartTime: ago(10 * time.Minute)},
			want: false,
		},
		{
			name: "actual start exactly one duration ago",
			room: MeetingRoom{Status: StatusOngoing, ActualStartTime: ago(MeetingDuration)},
			want: true,
		},
		{
			name: "end time just passed",
			room: MeetingRoom{Status: StatusOngoing, ActualStartTime: ago(10 * time.Minute), EndTime: ago(time.Second)},
			want: true,
		},
		{
			name: "end time still ahead",
			room: MeetingRoom{Status: StatusOngoing, ActualStartTime: ago(10 * time.Minute), EndTime: ago(-50 * time.Minute)},
			want: false,
		},
		{
			name: "never actually started, scheduled 2 hours ago",
			room: MeetingRoom{Status: StatusOngoing, StartTime: ago(2 * time.Hour)},
			want: true,
		},
		{
			name: "never actually started, scheduled 10 minutes ago",
			room: MeetingRoom{Status: StatusOngoing, StartTime: ago(10 * time.Minute)},
			want: false,
		},
		{
			name: "recent actual start wins over old scheduled start",
			room: MeetingRoom{Status: StatusOngoing, StartTime: ago(3 * time.Hour), ActualStartTime: ago(10 * time.Minute)},
			want: false,
		},
		{
			name: "no timestamps at all",
			room: MeetingRoom{Status: StatusOngoing},
			want: false,
		},
		{
			name: "scheduled rooms are never swept",
			room: MeetingRoom{Status: StatusScheduled, StartTime: ago(3 * time.Hour)},
			want: false,
		},
		{
			name: "completed rooms are never swept",
			room: MeetingRoom{Status: StatusCompleted, ActualStartTime: ago(3 * time.Hour)},
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.room.ReadyToComplete(now))
		})
	}
}
