package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/model"
)

func owners(members []model.BoardMember) []uuid.UUID {
	var out []uuid.UUID
	for _, m := range members {
		if m.Role == model.RoleOwner {
			out = append(out, m.UserID)
		}
	}
	return out
}

func TestUpdateRole_TransferOwnership(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateRole(f.ctx, f.owner, f.board, f.member, model.RoleOwner)
	require.NoError(t, err)

	snap := f.snapshot()
	assert.Equal(t, []uuid.UUID{f.member}, owners(snap.Members), "exactly one owner remains")
	assert.Equal(t, f.member, snap.Board.OwnerID)
	for _, m := range snap.Members {
		if m.UserID == f.owner {
			assert.Equal(t, model.RoleAdmin, m.Role, "previous owner is demoted to admin")
		}
	}

	events := f.events.all()
	require.Len(t, events, 2, "one event per affected user")
	affected := map[any]any{}
	for _, ev := range events {
		assert.Equal(t, "member.role_updated", ev.Name)
		affected[ev.Payload["user_id"]] = ev.Payload["role"]
		assert.Contains(t, ev.Recipients, f.owner)
		assert.Contains(t, ev.Recipients, f.member)
	}
	assert.Equal(t, map[any]any{f.member: model.RoleOwner, f.owner: model.RoleAdmin}, affected)
}

func TestUpdateRole_ManagerTransfersOwnership(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateRole(f.ctx, f.wsAdmin, f.board, f.admin, model.RoleOwner)
	require.NoError(t, err)

	snap := f.snapshot()
	assert.Equal(t, []uuid.UUID{f.admin}, owners(snap.Members))
}

func TestUpdateRole_OwnerRoleOnlyChangesByTransfer(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateRole(f.ctx, f.wsAdmin, f.board, f.owner, model.RoleMember)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, []uuid.UUID{f.owner}, owners(f.snapshot().Members))
}

func TestUpdateRole_UnknownTarget(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateRole(f.ctx, f.owner, f.board, f.outsider, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddMember(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.AddMember(f.ctx, f.admin, f.board, f.outsider, model.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, view.BoardRole)
	assert.Equal(t, model.RoleMember, view.WorkspaceRole)

	_, err = f.svc.AddMember(f.ctx, f.admin, f.board, f.outsider, model.RoleMember)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.AddMember(f.ctx, f.owner, f.board, uuid.New(), model.RoleMember)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.AddMember(f.ctx, f.owner, f.board, f.wsAdmin, model.RoleOwner)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddMember(f.ctx, f.member, f.board, f.wsAdmin, model.RoleMember)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.RemoveMember(f.ctx, f.admin, f.board, f.member))

	names := f.events.names()
	assert.Equal(t, []string{"member.removed", "member.removed"}, names)
	events := f.events.all()
	assert.Equal(t, "user."+f.member.String(), events[1].Channel)
	assert.NotContains(t, events[0].Recipients, f.member)

	err := f.svc.RemoveMember(f.ctx, f.owner, f.board, f.member)
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.svc.RemoveMember(f.ctx, f.wsAdmin, f.board, f.owner)
	assert.ErrorIs(t, err, ErrInvalidInput, "the owner leaves only after a transfer")
}

func TestRoster_ShowsVirtualManagers(t *testing.T) {
	f := newFixture(t)

	members, err := f.svc.Members(f.ctx, f.member, f.board)
	require.NoError(t, err)

	byUser := map[uuid.UUID]MemberView{}
	for _, m := range members {
		byUser[m.UserID] = m
	}
	require.Contains(t, byUser, f.wsAdmin)
	assert.True(t, byUser[f.wsAdmin].IsVirtual)
	assert.Equal(t, model.RoleNone, byUser[f.wsAdmin].BoardRole)
	assert.Equal(t, model.RoleAdmin, byUser[f.wsAdmin].WorkspaceRole)
	assert.False(t, byUser[f.owner].IsVirtual)
	assert.Equal(t, model.RoleOwner, byUser[f.owner].BoardRole)
	assert.NotContains(t, byUser, f.outsider)
}

func TestMemberChanges_ReadRolesUnderBoardLock(t *testing.T) {
	f := newFixture(t)
	svc, calls := f.traced()

	_, err := svc.UpdateRole(f.ctx, f.owner, f.board, f.member, model.RoleOwner)
	require.NoError(t, err)
	lock := calls.index("LockBoard")
	require.GreaterOrEqual(t, lock, 0)
	assert.Less(t, lock, calls.index("BoardRole"), "target role is read after the lock")
	assert.Less(t, lock, calls.index("BoardMembers"), "owners are demoted after the lock")

	// f.member owns the board now.
	calls.reset()
	require.NoError(t, svc.RemoveMember(f.ctx, f.member, f.board, f.admin))
	lock = calls.index("LockBoard")
	require.GreaterOrEqual(t, lock, 0)
	assert.Less(t, lock, calls.index("BoardRole"))
}

func TestUpdateRole_SequentialTransfersLeaveOneOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateRole(f.ctx, f.owner, f.board, f.member, model.RoleOwner)
	require.NoError(t, err)
	_, err = f.svc.UpdateRole(f.ctx, f.wsAdmin, f.board, f.admin, model.RoleOwner)
	require.NoError(t, err)

	snap := f.snapshot()
	assert.Equal(t, []uuid.UUID{f.admin}, owners(snap.Members))
	assert.Equal(t, f.admin, snap.Board.OwnerID)
}
