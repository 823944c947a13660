package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification is the durable copy of a change event kept per recipient
// so clients that were offline can catch up.
type Notification struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1"`
	EventID   uuid.UUID         `gorm:"type:uuid;not null"`
	Channel   string            `gorm:"not null"`
	Event     string            `gorm:"not null"`
	SenderID  uuid.UUID         `gorm:"type:uuid;not null"`
	Data      datatypes.JSONMap `gorm:"type:jsonb;not null"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"index:idx_notifications_user_created,priority:2"`
}
