package setup

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
)

// MigrateDB creates or updates the schema for the durable models. Presence is
// process-local and has no table.
func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.MeetingRoom{},
		&domain.MeetingRoomDetail{},
		&domain.RoomParticipant{},
		&domain.MeetingHistory{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate schema: %w", err)
	}
	return nil
}
