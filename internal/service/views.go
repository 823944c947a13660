package service

import (
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
)

type WorkspaceView struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Role      model.Role `json:"role,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type BoardView struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	Name        string     `json:"name"`
	Private     bool       `json:"private"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	ArchivedAt  *time.Time `json:"archived_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ListView struct {
	ID         uuid.UUID  `json:"id"`
	BoardID    uuid.UUID  `json:"board_id"`
	Name       string     `json:"name"`
	Position   int64      `json:"position"`
	ArchivedAt *time.Time `json:"archived_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Tasks      []TaskView `json:"tasks,omitempty"`
}

type TaskView struct {
	ID          uuid.UUID  `json:"id"`
	BoardID     uuid.UUID  `json:"board_id"`
	ListID      uuid.UUID  `json:"list_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date"`
	Position    int64      `json:"position"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	ArchivedAt  *time.Time `json:"archived_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ActivityView struct {
	ID        uuid.UUID          `json:"id"`
	TaskID    uuid.UUID          `json:"task_id"`
	UserID    uuid.UUID          `json:"user_id"`
	Kind      model.ActivityKind `json:"kind"`
	Details   map[string]any     `json:"details"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type AttachmentView struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberView is one row of a board roster. Managers without a board
// membership appear with IsVirtual set.
type MemberView struct {
	UserID        uuid.UUID  `json:"user_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	BoardRole     model.Role `json:"board_role"`
	WorkspaceRole model.Role `json:"workspace_role"`
	IsVirtual     bool       `json:"is_virtual"`
}

type JoinRequestView struct {
	ID        uuid.UUID `json:"id"`
	BoardID   uuid.UUID `json:"board_id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoardDetail is the full board as shown to one viewer.
type BoardDetail struct {
	Board   BoardView    `json:"board"`
	Lists   []ListView   `json:"lists"`
	Members []MemberView `json:"members"`
	// Joined is set when viewing the board made the viewer a member.
	Joined bool `json:"joined"`
}

// TaskResult is returned by task mutations: the task as committed and the
// activity entry the mutation produced, if any.
type TaskResult struct {
	Task     TaskView      `json:"task"`
	Activity *ActivityView `json:"activity,omitempty"`
}

// TaskDetail is one task with its history and files.
type TaskDetail struct {
	Task        TaskView         `json:"task"`
	Activities  []ActivityView   `json:"activities"`
	Attachments []AttachmentView `json:"attachments"`
}

type AttachmentResult struct {
	Attachment AttachmentView `json:"attachment"`
	Activity   ActivityView   `json:"activity"`
}

func workspaceView(ws *model.Workspace, role model.Role) WorkspaceView {
	return WorkspaceView{ID: ws.ID, Name: ws.Name, OwnerID: ws.OwnerID, Role: role, CreatedAt: ws.CreatedAt}
}

func boardView(b *model.Board) BoardView {
	return BoardView{
		ID:          b.ID,
		WorkspaceID: b.WorkspaceID,
		Name:        b.Name,
		Private:     b.Private,
		OwnerID:     b.OwnerID,
		ArchivedAt:  b.ArchivedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func listView(l *model.TaskList) ListView {
	return ListView{
		ID:         l.ID,
		BoardID:    l.BoardID,
		Name:       l.Name,
		Position:   l.Position,
		ArchivedAt: l.ArchivedAt,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func taskView(t *model.Task) TaskView {
	return TaskView{
		ID:          t.ID,
		BoardID:     t.BoardID,
		ListID:      t.ListID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		DueDate:     t.DueDate,
		Position:    t.Position,
		CreatedBy:   t.CreatedBy,
		ArchivedAt:  t.ArchivedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func activityView(a *model.Activity) ActivityView {
	return ActivityView{
		ID:        a.ID,
		TaskID:    a.TaskID,
		UserID:    a.UserID,
		Kind:      a.Kind,
		Details:   map[string]any(a.Details),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func optionalActivity(a *model.Activity) *ActivityView {
	if a == nil {
		return nil
	}
	v := activityView(a)
	return &v
}

func attachmentView(a *model.Attachment) AttachmentView {
	return AttachmentView{
		ID:        a.ID,
		TaskID:    a.TaskID,
		UserID:    a.UserID,
		Name:      a.Name,
		MimeType:  a.MimeType,
		Size:      a.Size,
		CreatedAt: a.CreatedAt,
	}
}

func joinRequestView(r *model.JoinRequest) JoinRequestView {
	return JoinRequestView{
		ID:        r.ID,
		BoardID:   r.BoardID,
		UserID:    r.UserID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
