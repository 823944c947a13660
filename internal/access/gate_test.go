package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskboard/internal/model"
)

func TestAllow(t *testing.T) {
	wsAdmin := Roles{Workspace: model.RoleAdmin}
	wsOwner := Roles{Workspace: model.RoleOwner}
	outsider := Roles{Workspace: model.RoleMember}
	privateOutsider := Roles{Workspace: model.RoleMember, Private: true}
	boardMember := Roles{Workspace: model.RoleMember, Board: model.RoleMember}
	boardAdmin := Roles{Workspace: model.RoleMember, Board: model.RoleAdmin}
	boardOwner := Roles{Workspace: model.RoleMember, Board: model.RoleOwner}

	cases := []struct {
		name   string
		action Action
		facts  Facts
		allow  bool
	}{
		{name: "manager views board without membership", action: ActionViewBoard, facts: Facts{Roles: wsAdmin}, allow: true},
		{name: "outsider views public board", action: ActionViewBoard, facts: Facts{Roles: outsider}, allow: true},
		{name: "outsider denied private board", action: ActionViewBoard, facts: Facts{Roles: privateOutsider}, allow: false},
		{name: "member views private board", action: ActionViewBoard, facts: Facts{Roles: Roles{Board: model.RoleMember, Private: true}}, allow: true},

		{name: "member adds task", action: ActionAddTask, facts: Facts{Roles: boardMember}, allow: true},
		{name: "outsider cannot add task on public board", action: ActionAddTask, facts: Facts{Roles: outsider}, allow: false},
		{name: "workspace admin moves task without membership", action: ActionMoveTask, facts: Facts{Roles: wsAdmin}, allow: true},
		{name: "member reindexes lists", action: ActionReindexLists, facts: Facts{Roles: boardMember}, allow: true},

		{name: "member cannot delete list", action: ActionDestroyList, facts: Facts{Roles: boardMember}, allow: false},
		{name: "board admin deletes list", action: ActionDestroyList, facts: Facts{Roles: boardAdmin}, allow: true},
		{name: "member cannot delete board", action: ActionDestroyBoard, facts: Facts{Roles: boardMember}, allow: false},
		{name: "workspace owner deletes board", action: ActionDestroyBoard, facts: Facts{Roles: wsOwner}, allow: true},
		{name: "member cannot delete task", action: ActionDestroyTask, facts: Facts{Roles: boardMember}, allow: false},

		{name: "owner transfers ownership", action: ActionTransferOwnership, facts: Facts{Roles: boardOwner}, allow: true},
		{name: "admin cannot transfer ownership", action: ActionTransferOwnership, facts: Facts{Roles: boardAdmin}, allow: false},
		{name: "manager transfers ownership", action: ActionTransferOwnership, facts: Facts{Roles: wsAdmin}, allow: true},

		{name: "owner changes admin role", action: ActionUpdateRole, facts: Facts{Roles: boardOwner, TargetRole: model.RoleAdmin}, allow: true},
		{name: "admin changes member role", action: ActionUpdateRole, facts: Facts{Roles: boardAdmin, TargetRole: model.RoleMember}, allow: true},
		{name: "admin cannot change other admin", action: ActionUpdateRole, facts: Facts{Roles: boardAdmin, TargetRole: model.RoleAdmin}, allow: false},
		{name: "admin cannot change owner", action: ActionUpdateRole, facts: Facts{Roles: boardAdmin, TargetRole: model.RoleOwner}, allow: false},
		{name: "member cannot change roles", action: ActionUpdateRole, facts: Facts{Roles: boardMember, TargetRole: model.RoleMember}, allow: false},
		{name: "owner cannot change own role", action: ActionUpdateRole, facts: Facts{Roles: boardOwner, TargetIsSelf: true}, allow: false},
		{name: "manager cannot change own role", action: ActionUpdateRole, facts: Facts{Roles: wsOwner, TargetIsSelf: true}, allow: false},

		{name: "member cannot remove member", action: ActionRemoveMember, facts: Facts{Roles: boardMember, TargetRole: model.RoleMember}, allow: false},
		{name: "admin removes member", action: ActionRemoveMember, facts: Facts{Roles: boardAdmin, TargetRole: model.RoleMember}, allow: true},

		{name: "author edits comment", action: ActionEditComment, facts: Facts{Roles: boardMember, IsAuthor: true}, allow: true},
		{name: "other member cannot edit comment", action: ActionEditComment, facts: Facts{Roles: boardMember}, allow: false},
		{name: "board owner cannot delete foreign comment", action: ActionDeleteComment, facts: Facts{Roles: boardOwner}, allow: false},
		{name: "manager deletes foreign comment", action: ActionDeleteComment, facts: Facts{Roles: wsAdmin}, allow: true},

		{name: "outsider requests to join", action: ActionRequestJoin, facts: Facts{Roles: privateOutsider}, allow: true},
		{name: "member cannot request to join", action: ActionRequestJoin, facts: Facts{Roles: boardMember}, allow: false},
		{name: "admin approves join", action: ActionRespondJoin, facts: Facts{Roles: boardAdmin}, allow: true},
		{name: "member cannot approve join", action: ActionRespondJoin, facts: Facts{Roles: boardMember}, allow: false},

		{name: "workspace member creates board", action: ActionCreateBoard, facts: Facts{Roles: outsider}, allow: true},
		{name: "stranger cannot create board", action: ActionCreateBoard, facts: Facts{}, allow: false},
		{name: "workspace member cannot invite", action: ActionInviteWorkspaceMember, facts: Facts{Roles: outsider}, allow: false},

		{name: "unknown action", action: Action("nope"), facts: Facts{Roles: wsOwner}, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allow, Allow(tc.action, tc.facts), "Allow(%q)", tc.action)
		})
	}
}

func TestEveryActionHasARule(t *testing.T) {
	actions := []Action{
		ActionInviteWorkspaceMember, ActionCreateBoard, ActionViewBoard, ActionUpdateBoard,
		ActionArchiveBoard, ActionUnarchiveBoard, ActionDestroyBoard, ActionAddMember,
		ActionRemoveMember, ActionUpdateRole, ActionTransferOwnership, ActionRequestJoin,
		ActionRespondJoin, ActionListRequests, ActionAddList, ActionRenameList, ActionMoveList,
		ActionArchiveList, ActionUnarchiveList, ActionDestroyList, ActionReindexLists,
		ActionAddTask, ActionMoveTask, ActionRenameTask, ActionEditTask, ActionCompleteTask,
		ActionArchiveTask, ActionUnarchiveTask, ActionDestroyTask, ActionReindexTasks,
		ActionAddComment, ActionEditComment, ActionDeleteComment, ActionUploadFile,
		ActionDeleteFile, ActionViewActivity,
	}
	for _, a := range actions {
		_, ok := rules[a]
		assert.True(t, ok, "missing rule for %s", a)
	}
}
