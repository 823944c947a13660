package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/access"
	"taskboard/internal/model"
	"taskboard/internal/store"
)

type BoardInput struct {
	Name    string
	Private bool
}

// BoardPatch changes the non-nil fields.
type BoardPatch struct {
	Name    *string
	Private *bool
}

// CreateBoard adds a board to a workspace the actor belongs to. The actor
// becomes the board owner.
func (s *Service) CreateBoard(ctx context.Context, actor, workspaceID uuid.UUID, in BoardInput) (BoardView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return BoardView{}, invalid("board name is required")
	}

	var out BoardView
	err := s.run(ctx, actor, func(u *unit) error {
		if _, err := u.tx.GetWorkspace(workspaceID); err != nil {
			return lookup(err, "workspace")
		}
		roles, err := access.Resolve(u.tx, actor, access.Container{WorkspaceID: workspaceID})
		if err != nil {
			return err
		}
		if !access.Allow(access.ActionCreateBoard, access.Facts{Roles: roles}) {
			return forbidden(access.ActionCreateBoard)
		}

		b := &model.Board{WorkspaceID: workspaceID, Name: name, Private: in.Private, OwnerID: actor}
		if err := u.tx.CreateBoard(b); err != nil {
			return err
		}
		owner := &model.BoardMember{BoardID: b.ID, UserID: actor, Role: model.RoleOwner}
		if err := u.tx.UpsertBoardMember(owner); err != nil {
			return err
		}
		out = boardView(b)
		return u.boardEvent(b, "board.created", map[string]any{"board": out})
	})
	return out, err
}

func (s *Service) UpdateBoard(ctx context.Context, actor, boardID uuid.UUID, patch BoardPatch) (BoardView, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return BoardView{}, invalid("board name is required")
	}

	var out BoardView
	err := s.run(ctx, actor, func(u *unit) error {
		b, err := u.lockBoard(boardID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionUpdateBoard, b); err != nil {
			return err
		}
		if patch.Name != nil {
			b.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Private != nil {
			b.Private = *patch.Private
		}
		if err := u.tx.UpdateBoard(b); err != nil {
			return err
		}
		out = boardView(b)
		return u.boardEvent(b, "board.updated", map[string]any{"board": out})
	})
	return out, err
}

// ArchiveBoard is idempotent: archiving an archived board changes nothing
// and emits nothing.
func (s *Service) ArchiveBoard(ctx context.Context, actor, boardID uuid.UUID) (BoardView, error) {
	return s.setBoardArchived(ctx, actor, boardID, true)
}

func (s *Service) UnarchiveBoard(ctx context.Context, actor, boardID uuid.UUID) (BoardView, error) {
	return s.setBoardArchived(ctx, actor, boardID, false)
}

func (s *Service) setBoardArchived(ctx context.Context, actor, boardID uuid.UUID, archive bool) (BoardView, error) {
	action, event := access.ActionArchiveBoard, "board.archived"
	if !archive {
		action, event = access.ActionUnarchiveBoard, "board.unarchived"
	}

	var out BoardView
	err := s.run(ctx, actor, func(u *unit) error {
		b, err := u.lockBoard(boardID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(action, b); err != nil {
			return err
		}
		if (b.ArchivedAt != nil) == archive {
			out = boardView(b)
			return nil
		}
		if archive {
			now := s.now()
			b.ArchivedAt = &now
		} else {
			b.ArchivedAt = nil
		}
		if err := u.tx.UpdateBoard(b); err != nil {
			return err
		}
		out = boardView(b)
		return u.boardEvent(b, event, map[string]any{"board": out})
	})
	return out, err
}

// DestroyBoard deletes the board with its lists, tasks, activity and
// memberships. Attachment blobs are removed after commit.
func (s *Service) DestroyBoard(ctx context.Context, actor, boardID uuid.UUID) error {
	return s.run(ctx, actor, func(u *unit) error {
		b, err := u.board(boardID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionDestroyBoard, b); err != nil {
			return err
		}
		if err := u.boardEvent(b, "board.destroyed", map[string]any{}); err != nil {
			return err
		}
		keys, err := u.boardObjectKeys(b.ID)
		if err != nil {
			return err
		}
		if err := u.tx.DeleteBoard(b.ID); err != nil {
			return err
		}
		u.removeObjects(keys)
		return nil
	})
}

// ViewBoard returns the board with its active lists and tasks in order.
// A non-member opening a public board is added as a member. A membership
// created concurrently is left as it is.
func (s *Service) ViewBoard(ctx context.Context, actor, boardID uuid.UUID) (BoardDetail, error) {
	var out BoardDetail
	err := s.run(ctx, actor, func(u *unit) error {
		b, err := u.board(boardID)
		if err != nil {
			return err
		}
		roles, err := u.authorize(access.ActionViewBoard, b)
		if err != nil {
			return err
		}
		if !roles.Member() && !roles.Manager() && !b.Private {
			m := &model.BoardMember{BoardID: b.ID, UserID: actor, Role: model.RoleMember}
			if out.Joined, err = u.tx.AddBoardMember(m); err != nil {
				return err
			}
			if out.Joined {
				if err := u.boardEvent(b, "member.joined", map[string]any{"user_id": actor, "role": model.RoleMember}); err != nil {
					return err
				}
			}
		}

		out.Board = boardView(b)
		if out.Lists, err = u.boardLists(b.ID); err != nil {
			return err
		}
		out.Members, err = u.roster(b)
		return err
	})
	return out, err
}

// Boards lists the boards of a workspace the actor can view.
func (s *Service) Boards(ctx context.Context, actor, workspaceID uuid.UUID, filter store.ArchiveFilter) ([]BoardView, error) {
	var out []BoardView
	err := s.view(ctx, actor, func(u *unit) error {
		if _, err := u.tx.GetWorkspace(workspaceID); err != nil {
			return lookup(err, "workspace")
		}
		wsRole, err := u.tx.WorkspaceRole(workspaceID, actor)
		if err != nil {
			return err
		}
		if wsRole == model.RoleNone {
			return forbidden(access.ActionViewBoard)
		}
		boards, err := u.tx.Boards(workspaceID, filter)
		if err != nil {
			return err
		}
		out = make([]BoardView, 0, len(boards))
		for i := range boards {
			roles, err := access.Resolve(u.tx, actor, access.BoardContainer(&boards[i]))
			if err != nil {
				return err
			}
			if access.Allow(access.ActionViewBoard, access.Facts{Roles: roles}) {
				out = append(out, boardView(&boards[i]))
			}
		}
		return nil
	})
	return out, err
}

// CanSubscribe reports whether actor may follow the board channel.
func (s *Service) CanSubscribe(ctx context.Context, actor, boardID uuid.UUID) error {
	return s.view(ctx, actor, func(u *unit) error {
		b, err := u.board(boardID)
		if err != nil {
			return err
		}
		_, err = u.authorize(access.ActionViewBoard, b)
		return err
	})
}

func (u *unit) boardLists(boardID uuid.UUID) ([]ListView, error) {
	lists, err := u.tx.Lists(boardID, store.ActiveOnly)
	if err != nil {
		return nil, err
	}
	out := make([]ListView, 0, len(lists))
	for i := range lists {
		v := listView(&lists[i])
		tasks, err := u.tx.Tasks(lists[i].ID, store.ActiveOnly)
		if err != nil {
			return nil, err
		}
		v.Tasks = make([]TaskView, 0, len(tasks))
		for j := range tasks {
			v.Tasks = append(v.Tasks, taskView(&tasks[j]))
		}
		out = append(out, v)
	}
	return out, nil
}

// roster lists board members followed by workspace managers who hold no
// board membership.
func (u *unit) roster(b *model.Board) ([]MemberView, error) {
	members, err := u.tx.BoardMembers(b.ID)
	if err != nil {
		return nil, err
	}
	wsMembers, err := u.tx.WorkspaceMembers(b.WorkspaceID)
	if err != nil {
		return nil, err
	}
	wsRoles := make(map[uuid.UUID]model.Role, len(wsMembers))
	for _, m := range wsMembers {
		wsRoles[m.UserID] = m.Role
	}

	out := make([]MemberView, 0, len(members))
	onBoard := make(map[uuid.UUID]bool, len(members))
	for _, m := range members {
		view, err := u.memberView(m.UserID, m.Role, wsRoles[m.UserID], false)
		if err != nil {
			return nil, err
		}
		onBoard[m.UserID] = true
		out = append(out, view)
	}
	for _, m := range wsMembers {
		if onBoard[m.UserID] || !m.Role.Elevated() {
			continue
		}
		view, err := u.memberView(m.UserID, model.RoleNone, m.Role, true)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (u *unit) memberView(userID uuid.UUID, boardRole, wsRole model.Role, virtual bool) (MemberView, error) {
	user, err := u.tx.GetUser(userID)
	if err != nil {
		return MemberView{}, lookup(err, "user")
	}
	return MemberView{
		UserID:        userID,
		Name:          user.Name,
		Email:         user.Email,
		BoardRole:     boardRole,
		WorkspaceRole: wsRole,
		IsVirtual:     virtual,
	}, nil
}
