package model

import (
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"not null"`
	Private     bool      `gorm:"not null;default:false"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null"`
	ArchivedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BoardMember maps a user to a role on a single board. It is never
// derived from workspace membership.
type BoardMember struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_board_members_pair"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_board_members_pair"`
	Role      Role      `gorm:"not null;check:role IN ('owner', 'admin', 'member')"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Join request states
const (
	JoinPending  = "pending"
	JoinApproved = "approved"
	JoinRejected = "rejected"
)

// JoinRequest is a request by a non-member to enter a private board.
type JoinRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_join_requests_pair"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_join_requests_pair"`
	Status    string    `gorm:"not null;check:status IN ('pending', 'approved', 'rejected')"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
