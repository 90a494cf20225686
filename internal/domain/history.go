package domain

import "time"

// MeetingHistory is an append-only snapshot of a room taken at the moment it
// reaches a terminal status. Written exactly once per room, never updated.
type MeetingHistory struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	RoomID          uint       `gorm:"index;not null" json:"room_id"`
	RoomName        string     `gorm:"size:100;not null" json:"room_name"`
	MentorID        uint       `gorm:"not null" json:"mentor_id"`
	UserID          uint       `gorm:"index;not null" json:"user_id"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	ActualStartTime *time.Time `json:"actual_start_time"`
	Status          RoomStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (MeetingHistory) TableName() string { return "meeting_histories" }

// SnapshotOf builds the history row for a room entering status terminal.
func SnapshotOf(room *MeetingRoom, terminal RoomStatus) *MeetingHistory {
	return &MeetingHistory{
		RoomID:          room.ID,
		RoomName:        room.RoomName,
		MentorID:        room.MentorID,
		UserID:          room.UserID,
		StartTime:       room.StartTime,
		EndTime:         room.EndTime,
		ActualStartTime: room.ActualStartTime,
		Status:          terminal,
	}
}
