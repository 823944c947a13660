package service

import (
	"context"

	"github.com/google/uuid"

	"taskboard/internal/access"
	"taskboard/internal/model"
)

// Members returns the board roster.
func (s *Service) Members(ctx context.Context, actor, boardID uuid.UUID) ([]MemberView, error) {
	var out []MemberView
	err := s.view(ctx, actor, func(u *unit) error {
		b, err := u.board(boardID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionViewBoard, b); err != nil {
			return err
		}
		out, err = u.roster(b)
		return err
	})
	return out, err
}

// AddMember gives userID a board role. Ownership only moves through
// UpdateRole.
func (s *Service) AddMember(ctx context.Context, actor, boardID, userID uuid.UUID, role model.Role) (MemberView, error) {
	if role != model.RoleAdmin && role != model.RoleMember {
		return MemberView{}, invalid("board role must be admin or member")
	}

	var out MemberView
	err := s.run(ctx, actor, func(u *unit) error {
		b, err := u.lockBoard(boardID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionAddMember, b); err != nil {
			return err
		}
		if _, err := u.tx.GetUser(userID); err != nil {
			return lookup(err, "user")
		}
		added, err := u.tx.AddBoardMember(&model.BoardMember{BoardID: b.ID, UserID: userID, Role: role})
		if err != nil {
			return err
		}
		if !added {
			return conflict("user is already a member of this board")
		}
		wsRole, err := u.tx.WorkspaceRole(b.WorkspaceID, userID)
		if err != nil {
			return err
		}
		if out, err = u.memberView(userID, role, wsRole, false); err != nil {
			return err
		}
		return u.boardEvent(b, "member.added", map[string]any{"member": out})
	})
	return out, err
}

// RemoveMember drops userID from the board. Nobody removes themselves and
// an admin only removes plain members. The owner must hand over ownership
// before leaving. Roles are read under the board lock.
func (s *Service) RemoveMember(ctx context.Context, actor, boardID, userID uuid.UUID) error {
	return s.run(ctx, actor, func(u *unit) error {
		b, err := u.lockBoard(boardID)
		if err != nil {
			return err
		}
		target, err := u.tx.BoardRole(b.ID, userID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionRemoveMember, b, targeting(actor, userID, target)); err != nil {
			return err
		}
		if target == model.RoleNone {
			return notFound("board member")
		}
		if target == model.RoleOwner {
			return invalid("transfer ownership before removing the owner")
		}
		if err := u.tx.DeleteBoardMember(b.ID, userID); err != nil {
			return err
		}
		payload := map[string]any{"user_id": userID}
		if err := u.boardEvent(b, "member.removed", payload); err != nil {
			return err
		}
		u.userEvent(userID, "member.removed", map[string]any{"board_id": b.ID, "user_id": userID})
		return nil
	})
}

// UpdateRole changes the board role of userID. Promoting to owner transfers
// ownership: the current owner becomes admin in the same transaction and
// both users get their own event. The board stays locked from the role
// read to the last write, so overlapping transfers serialize.
func (s *Service) UpdateRole(ctx context.Context, actor, boardID, userID uuid.UUID, role model.Role) ([]MemberView, error) {
	if !role.Valid() {
		return nil, invalid("unknown role %q", role)
	}

	var out []MemberView
	err := s.run(ctx, actor, func(u *unit) error {
		b, err := u.lockBoard(boardID)
		if err != nil {
			return err
		}
		target, err := u.tx.BoardRole(b.ID, userID)
		if err != nil {
			return err
		}
		facts := targeting(actor, userID, target)

		if role == model.RoleOwner {
			if _, err := u.authorize(access.ActionTransferOwnership, b, facts); err != nil {
				return err
			}
			if actor == userID {
				return forbidden(access.ActionUpdateRole)
			}
			if target == model.RoleNone {
				return notFound("board member")
			}
			if target == model.RoleOwner {
				return nil
			}
			return u.transferOwnership(b, userID)
		}

		if _, err := u.authorize(access.ActionUpdateRole, b, facts); err != nil {
			return err
		}
		if target == model.RoleNone {
			return notFound("board member")
		}
		if target == model.RoleOwner {
			return invalid("the owner's role changes only by transferring ownership")
		}
		if target == role {
			return nil
		}
		if err := u.tx.UpsertBoardMember(&model.BoardMember{BoardID: b.ID, UserID: userID, Role: role}); err != nil {
			return err
		}
		return u.boardEvent(b, "member.role_updated", map[string]any{"user_id": userID, "role": role})
	})
	if err != nil {
		return nil, err
	}
	out, err = s.Members(ctx, actor, boardID)
	return out, err
}

func (u *unit) transferOwnership(b *model.Board, newOwner uuid.UUID) error {
	members, err := u.tx.BoardMembers(b.ID)
	if err != nil {
		return err
	}
	var demoted []uuid.UUID
	for _, m := range members {
		if m.Role != model.RoleOwner {
			continue
		}
		if err := u.tx.UpsertBoardMember(&model.BoardMember{BoardID: b.ID, UserID: m.UserID, Role: model.RoleAdmin}); err != nil {
			return err
		}
		demoted = append(demoted, m.UserID)
	}
	if err := u.tx.UpsertBoardMember(&model.BoardMember{BoardID: b.ID, UserID: newOwner, Role: model.RoleOwner}); err != nil {
		return err
	}
	b.OwnerID = newOwner
	if err := u.tx.UpdateBoard(b); err != nil {
		return err
	}

	if err := u.boardEvent(b, "member.role_updated", map[string]any{"user_id": newOwner, "role": model.RoleOwner}); err != nil {
		return err
	}
	for _, id := range demoted {
		if err := u.boardEvent(b, "member.role_updated", map[string]any{"user_id": id, "role": model.RoleAdmin}); err != nil {
			return err
		}
	}
	return nil
}

func targeting(actor, target uuid.UUID, role model.Role) func(*access.Facts) {
	return func(f *access.Facts) {
		f.TargetRole = role
		f.TargetIsSelf = actor == target
	}
}
