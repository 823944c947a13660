package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/access"
	"taskboard/internal/model"
)

// CreateWorkspace makes actor the workspace owner.
func (s *Service) CreateWorkspace(ctx context.Context, actor uuid.UUID, name string) (WorkspaceView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return WorkspaceView{}, invalid("workspace name is required")
	}

	var out WorkspaceView
	err := s.run(ctx, actor, func(u *unit) error {
		ws := &model.Workspace{Name: name, OwnerID: actor}
		if err := u.tx.CreateWorkspace(ws); err != nil {
			return err
		}
		owner := &model.WorkspaceMember{WorkspaceID: ws.ID, UserID: actor, Role: model.RoleOwner}
		if err := u.tx.UpsertWorkspaceMember(owner); err != nil {
			return err
		}
		out = workspaceView(ws, model.RoleOwner)
		return nil
	})
	return out, err
}

// AddWorkspaceMember grants userID a workspace role. Only managers may do
// this and ownership is never granted here.
func (s *Service) AddWorkspaceMember(ctx context.Context, actor, workspaceID, userID uuid.UUID, role model.Role) error {
	if role != model.RoleAdmin && role != model.RoleMember {
		return invalid("workspace role must be admin or member")
	}
	return s.run(ctx, actor, func(u *unit) error {
		if _, err := u.tx.GetWorkspace(workspaceID); err != nil {
			return lookup(err, "workspace")
		}
		roles, err := access.Resolve(u.tx, actor, access.Container{WorkspaceID: workspaceID})
		if err != nil {
			return err
		}
		if !access.Allow(access.ActionInviteWorkspaceMember, access.Facts{Roles: roles}) {
			return forbidden(access.ActionInviteWorkspaceMember)
		}
		if userID == actor {
			return forbidden(access.ActionInviteWorkspaceMember)
		}
		if _, err := u.tx.GetUser(userID); err != nil {
			return lookup(err, "user")
		}
		current, err := u.tx.WorkspaceRole(workspaceID, userID)
		if err != nil {
			return err
		}
		if current == model.RoleOwner {
			return invalid("the workspace owner's role cannot be changed")
		}
		m := &model.WorkspaceMember{WorkspaceID: workspaceID, UserID: userID, Role: role}
		if err := u.tx.UpsertWorkspaceMember(m); err != nil {
			return err
		}
		u.userEvent(userID, "workspace.member_added", map[string]any{
			"workspace_id": workspaceID,
			"role":         role,
		})
		return nil
	})
}

// WorkspaceMembers lists the members of a workspace to any of its members.
func (s *Service) WorkspaceMembers(ctx context.Context, actor, workspaceID uuid.UUID) ([]MemberView, error) {
	var out []MemberView
	err := s.view(ctx, actor, func(u *unit) error {
		if _, err := u.tx.GetWorkspace(workspaceID); err != nil {
			return lookup(err, "workspace")
		}
		role, err := u.tx.WorkspaceRole(workspaceID, actor)
		if err != nil {
			return err
		}
		if role == model.RoleNone {
			return forbidden(access.ActionViewBoard)
		}
		members, err := u.tx.WorkspaceMembers(workspaceID)
		if err != nil {
			return err
		}
		for _, m := range members {
			user, err := u.tx.GetUser(m.UserID)
			if err != nil {
				return lookup(err, "user")
			}
			out = append(out, MemberView{UserID: m.UserID, Name: user.Name, Email: user.Email, WorkspaceRole: m.Role})
		}
		return nil
	})
	return out, err
}
