package model

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ListID      uuid.UUID `gorm:"type:uuid;not null;index:idx_tasks_list_position,priority:1"`
	Title       string    `gorm:"not null"`
	Description string
	Completed   bool `gorm:"not null;default:false"`
	DueDate     *time.Time
	Position    int64     `gorm:"not null;index:idx_tasks_list_position,priority:2"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null"`
	ArchivedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
