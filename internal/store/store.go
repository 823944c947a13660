// Package store defines the transactional storage contract the mutation
// service runs against. Implementations live in internal/repository
// (postgres via gorm) and internal/store/memstore.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
)

// ErrNotFound is returned by every lookup whose row does not exist,
// including rows destroyed by a concurrent transaction.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate key")

// ArchiveFilter states which rows of a sibling set a query wants.
type ArchiveFilter int

const (
	ActiveOnly ArchiveFilter = iota
	ArchivedOnly
	AllRows
)

func (f ArchiveFilter) String() string {
	switch f {
	case ArchivedOnly:
		return "archived"
	case AllRows:
		return "all"
	default:
		return "active"
	}
}

// ParseArchiveFilter accepts "", "active", "archived" and "all".
func ParseArchiveFilter(s string) (ArchiveFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return ActiveOnly, nil
	case "archived":
		return ArchivedOnly, nil
	case "all":
		return AllRows, nil
	}
	return ActiveOnly, fmt.Errorf("unknown archive filter %q", s)
}

// Column names accepted by UpdateList and UpdateTask. updated_at is
// always written.
const (
	ColName        = "name"
	ColTitle       = "title"
	ColDescription = "description"
	ColCompleted   = "completed"
	ColDueDate     = "due_date"
	ColListID      = "list_id"
	ColPosition    = "position"
	ColArchivedAt  = "archived_at"
)

// Store opens units of work.
type Store interface {
	// Tx runs fn inside one read-write transaction. Any error returned by
	// fn rolls back every write made through tx.
	Tx(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against committed state. Writes made through tx inside
	// View are not permitted.
	View(ctx context.Context, fn func(tx Tx) error) error
}

// UserStore backs registration and login. FindByEmail returns nil, nil
// when no user has the address.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// NotificationLog is the append-only per-user record of change events.
// Nothing reads it back to decide ordering.
type NotificationLog interface {
	Append(ctx context.Context, notifications []model.Notification) error
	// ForUser returns notifications created after the cursor, oldest first.
	ForUser(ctx context.Context, userID uuid.UUID, after time.Time, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error)
}

// MembershipReader is the subset of Tx used to resolve roles.
type MembershipReader interface {
	WorkspaceRole(workspaceID, userID uuid.UUID) (model.Role, error)
	BoardRole(boardID, userID uuid.UUID) (model.Role, error)
}

// Tx is bound to the context of the unit of work that created it.
// Sibling queries order by position, then by creation time.
type Tx interface {
	MembershipReader

	GetUser(id uuid.UUID) (*model.User, error)

	CreateWorkspace(ws *model.Workspace) error
	GetWorkspace(id uuid.UUID) (*model.Workspace, error)
	WorkspaceMembers(workspaceID uuid.UUID) ([]model.WorkspaceMember, error)
	UpsertWorkspaceMember(m *model.WorkspaceMember) error

	CreateBoard(b *model.Board) error
	GetBoard(id uuid.UUID) (*model.Board, error)
	// LockBoard loads the board and holds an exclusive lock on it until
	// the transaction ends. It serializes work on the board's lists.
	LockBoard(id uuid.UUID) (*model.Board, error)
	UpdateBoard(b *model.Board) error
	DeleteBoard(id uuid.UUID) error
	Boards(workspaceID uuid.UUID, filter ArchiveFilter) ([]model.Board, error)
	BoardMembers(boardID uuid.UUID) ([]model.BoardMember, error)
	UpsertBoardMember(m *model.BoardMember) error
	// AddBoardMember inserts m unless the user already belongs to the
	// board. An existing row, and its role, is left untouched.
	AddBoardMember(m *model.BoardMember) (bool, error)
	DeleteBoardMember(boardID, userID uuid.UUID) error

	FindJoinRequest(boardID, userID uuid.UUID) (*model.JoinRequest, error)
	GetJoinRequest(id uuid.UUID) (*model.JoinRequest, error)
	SaveJoinRequest(r *model.JoinRequest) error
	PendingJoinRequests(boardID uuid.UUID) ([]model.JoinRequest, error)

	CreateList(l *model.TaskList) error
	GetList(id uuid.UUID) (*model.TaskList, error)
	// LockList loads the list and holds an exclusive lock on it until the
	// transaction ends. It serializes work on the list's tasks.
	LockList(id uuid.UUID) (*model.TaskList, error)
	// UpdateList writes only the named columns of l.
	UpdateList(l *model.TaskList, columns ...string) error
	UpdateListPosition(id uuid.UUID, position int64) error
	DeleteList(id uuid.UUID) error
	Lists(boardID uuid.UUID, filter ArchiveFilter) ([]model.TaskList, error)

	CreateTask(t *model.Task) error
	GetTask(id uuid.UUID) (*model.Task, error)
	// UpdateTask writes only the named columns of t.
	UpdateTask(t *model.Task, columns ...string) error
	UpdateTaskPosition(id uuid.UUID, position int64) error
	DeleteTask(id uuid.UUID) error
	Tasks(listID uuid.UUID, filter ArchiveFilter) ([]model.Task, error)

	CreateActivity(a *model.Activity) error
	GetActivity(id uuid.UUID) (*model.Activity, error)
	UpdateActivity(a *model.Activity) error
	DeleteActivity(id uuid.UUID) error
	// Activities returns the task history, newest first.
	Activities(taskID uuid.UUID) ([]model.Activity, error)

	CreateAttachment(a *model.Attachment) error
	GetAttachment(id uuid.UUID) (*model.Attachment, error)
	DeleteAttachment(id uuid.UUID) error
	Attachments(taskID uuid.UUID) ([]model.Attachment, error)
}
