package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskList is an ordered column of tasks inside a board.
type TaskList struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID    uuid.UUID `gorm:"type:uuid;not null;index:idx_task_lists_board_position,priority:1"`
	Name       string    `gorm:"not null"`
	Position   int64     `gorm:"not null;index:idx_task_lists_board_position,priority:2"`
	ArchivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (TaskList) TableName() string {
	return "task_lists"
}
