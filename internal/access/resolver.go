package access

import (
	"fmt"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// Roles is what a user holds on one board and on its workspace.
type Roles struct {
	Workspace model.Role
	Board     model.Role
	Private   bool
}

// Manager reports workspace owner or admin. Managers act on every board of
// the workspace regardless of board membership.
func (r Roles) Manager() bool {
	return r.Workspace.Elevated()
}

// Member reports any direct board membership.
func (r Roles) Member() bool {
	return r.Board != model.RoleNone
}

// Container identifies what roles are resolved against. A zero BoardID
// resolves workspace roles only.
type Container struct {
	WorkspaceID uuid.UUID
	BoardID     uuid.UUID
	Private     bool
}

// BoardContainer describes a board for Resolve.
func BoardContainer(b *model.Board) Container {
	return Container{WorkspaceID: b.WorkspaceID, BoardID: b.ID, Private: b.Private}
}

// Resolve looks up the workspace role and, when the container is a
// board, the board role of userID.
func Resolve(r store.MembershipReader, userID uuid.UUID, c Container) (Roles, error) {
	roles := Roles{Private: c.Private}

	wsRole, err := r.WorkspaceRole(c.WorkspaceID, userID)
	if err != nil {
		return Roles{}, fmt.Errorf("resolve workspace role: %w", err)
	}
	roles.Workspace = wsRole

	if c.BoardID != uuid.Nil {
		boardRole, err := r.BoardRole(c.BoardID, userID)
		if err != nil {
			return Roles{}, fmt.Errorf("resolve board role: %w", err)
		}
		roles.Board = boardRole
	}
	return roles, nil
}
