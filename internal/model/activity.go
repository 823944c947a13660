package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ActivityKind string

const (
	ActivityAction     ActivityKind = "action"
	ActivityComment    ActivityKind = "comment"
	ActivityAttachment ActivityKind = "attachment"
)

// Activity is an entry in a task's history. Only comments are ever
// edited or deleted after creation.
type Activity struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TaskID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null"`
	Kind      ActivityKind      `gorm:"not null;check:kind IN ('action', 'comment', 'attachment')"`
	Details   datatypes.JSONMap `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Attachment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	Name      string    `gorm:"not null"`
	MimeType  string    `gorm:"not null"`
	Size      int64     `gorm:"not null"`
	ObjectKey string    `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
