package domain

import "time"

// RoomStatus is the lifecycle state of a meeting room. Transitions only move
// forward: scheduled -> ongoing -> {completed, canceled}.
type RoomStatus string

const (
	StatusScheduled RoomStatus = "scheduled"
	StatusOngoing   RoomStatus = "ongoing"
	StatusCompleted RoomStatus = "completed"
	StatusCanceled  RoomStatus = "canceled"
)

// MeetingDuration is the fixed active window of a room. Once a room goes
// ongoing its end time is recomputed as actual start + MeetingDuration.
const MeetingDuration = time.Hour

// Valid reports whether s is one of the four known lifecycle states.
func (s RoomStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusOngoing, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s RoomStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// MeetingRoom is the durable room row. Rows are never physically deleted;
// terminal rooms are snapshotted into MeetingHistory instead.
type MeetingRoom struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	RoomName        string     `gorm:"size:100;not null" json:"room_name"`
	MentorID        uint       `gorm:"index;not null" json:"mentor_id"`
	UserID          uint       `gorm:"index;not null" json:"user_id"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	ActualStartTime *time.Time `json:"actual_start_time"`
	Status          RoomStatus `gorm:"type:varchar(20);default:scheduled;index" json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Detail       *MeetingRoomDetail `gorm:"foreignKey:RoomID" json:"detail,omitempty"`
	Participants []RoomParticipant  `gorm:"foreignKey:RoomID" json:"participants,omitempty"`
}

func (MeetingRoom) TableName() string { return "meeting_rooms" }

// ReadyToComplete reports whether an ongoing room's active window has elapsed
// at now: its end time has passed, it actually started more than one
// MeetingDuration ago, or it never actually started and was scheduled more
// than one MeetingDuration ago. The sweep query in the room repository is the
// SQL form of this predicate; keep the two in sync.
func (m *MeetingRoom) ReadyToComplete(now time.Time) bool {
	if m.Status != StatusOngoing {
		return false
	}
	cutoff := now.Add(-MeetingDuration)
	if m.EndTime != nil && !m.EndTime.After(now) {
		return true
	}
	if m.ActualStartTime != nil {
		return !m.ActualStartTime.After(cutoff)
	}
	return m.StartTime != nil && !m.StartTime.After(cutoff)
}

// MeetingRoomDetail carries the join metadata of a room. JoinCode stores only
// the code segment (xxx-xxx-xxx), never a full URL.
type MeetingRoomDetail struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RoomID          uint      `gorm:"index;not null" json:"room_id"`
	JoinCode        string    `gorm:"size:32;uniqueIndex;not null" json:"join_code"`
	MeetingPassword string    `gorm:"size:100" json:"meeting_password,omitempty"`
	Notes           string    `gorm:"type:text" json:"notes,omitempty"`
	RecordedURL     string    `gorm:"size:255" json:"recorded_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (MeetingRoomDetail) TableName() string { return "meeting_room_details" }

// RoomParticipant is a durable roster entry, distinct from live presence.
type RoomParticipant struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	RoomID          uint       `gorm:"index:idx_room_active;not null" json:"room_id"`
	UserID          uint       `gorm:"index;not null" json:"user_id"`
	ParticipantName string     `gorm:"size:100" json:"participant_name"`
	JoinedAt        time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	LeftAt          *time.Time `json:"left_at,omitempty"`
	IsActive        bool       `gorm:"index:idx_room_active;default:true" json:"is_active"`
}

func (RoomParticipant) TableName() string { return "room_participants" }
