// Package access resolves a user's roles on a container and decides,
// from one rule table, whether an action is allowed.
package access

import "taskboard/internal/model"

type Action string

const (
	ActionInviteWorkspaceMember Action = "workspace.invite"
	ActionCreateBoard           Action = "board.create"

	ActionViewBoard      Action = "board.view"
	ActionUpdateBoard    Action = "board.update"
	ActionArchiveBoard   Action = "board.archive"
	ActionUnarchiveBoard Action = "board.unarchive"
	ActionDestroyBoard   Action = "board.destroy"

	ActionAddMember         Action = "member.add"
	ActionRemoveMember      Action = "member.remove"
	ActionUpdateRole        Action = "member.update_role"
	ActionTransferOwnership Action = "member.transfer_ownership"

	ActionRequestJoin  Action = "join.request"
	ActionRespondJoin  Action = "join.respond"
	ActionListRequests Action = "join.list"

	ActionAddList       Action = "list.add"
	ActionRenameList    Action = "list.rename"
	ActionMoveList      Action = "list.move"
	ActionArchiveList   Action = "list.archive"
	ActionUnarchiveList Action = "list.unarchive"
	ActionDestroyList   Action = "list.destroy"
	ActionReindexLists  Action = "list.reindex"
	ActionAddTask       Action = "task.add"
	ActionMoveTask      Action = "task.move"
	ActionRenameTask    Action = "task.rename"
	ActionEditTask      Action = "task.edit"
	ActionCompleteTask  Action = "task.complete"
	ActionArchiveTask   Action = "task.archive"
	ActionUnarchiveTask Action = "task.unarchive"
	ActionDestroyTask   Action = "task.destroy"
	ActionReindexTasks  Action = "task.reindex"
	ActionAddComment    Action = "comment.add"
	ActionEditComment   Action = "comment.edit"
	ActionDeleteComment Action = "comment.delete"
	ActionUploadFile    Action = "file.upload"
	ActionDeleteFile    Action = "file.delete"
	ActionViewActivity  Action = "activity.view"
)

// Facts is everything a rule may look at besides the actor's roles.
type Facts struct {
	Roles

	// TargetRole is the board role of the user being acted upon.
	TargetRole model.Role

	// TargetIsSelf is set when the actor acts on their own membership.
	TargetIsSelf bool

	// IsAuthor is set when the actor wrote the activity being changed.
	IsAuthor bool
}

type rule func(f Facts) bool

func manager(f Facts) bool { return f.Manager() }
func member(f Facts) bool { return f.Member() }
func public(f Facts) bool { return !f.Private }
func boardOwner(f Facts) bool { return f.Board == model.RoleOwner }
func boardAdmin(f Facts) bool { return f.Board == model.RoleAdmin }
func author(f Facts) bool { return f.IsAuthor }
func notMember(f Facts) bool { return !f.Member() }
func notSelf(f Facts) bool { return !f.TargetIsSelf }
func inWorkspace(f Facts) bool { return f.Workspace != model.RoleNone }
func plainTarget(f Facts) bool { return !f.TargetRole.Elevated() }
func elevated(f Facts) bool { return f.Board.Elevated() }

func anyOf(rs ...rule) rule {
	return func(f Facts) bool {
		for _, r := range rs {
			if r(f) {
				return true
			}
		}
		return false
	}
}

func allOf(rs ...rule) rule {
	return func(f Facts) bool {
		for _, r := range rs {
			if !r(f) {
				return false
			}
		}
		return true
	}
}

var (
	canView        = anyOf(manager, member, public)
	canContribute  = anyOf(manager, member)
	canDestroy     = anyOf(manager, boardOwner, boardAdmin)
	canOwn         = anyOf(manager, boardOwner)
	canManageOther = allOf(notSelf, anyOf(manager, boardOwner, allOf(boardAdmin, plainTarget)))
)

var rules = map[Action]rule{
	ActionInviteWorkspaceMember: manager,
	ActionCreateBoard:           inWorkspace,

	ActionViewBoard:      canView,
	ActionUpdateBoard:    canDestroy,
	ActionArchiveBoard:   canOwn,
	ActionUnarchiveBoard: canOwn,
	ActionDestroyBoard:   canDestroy,

	ActionAddMember:         anyOf(manager, elevated),
	ActionRemoveMember:      canManageOther,
	ActionUpdateRole:        canManageOther,
	ActionTransferOwnership: canOwn,

	ActionRequestJoin:  notMember,
	ActionRespondJoin:  anyOf(manager, elevated),
	ActionListRequests: anyOf(manager, elevated),

	ActionAddList:       canContribute,
	ActionRenameList:    canContribute,
	ActionMoveList:      canContribute,
	ActionArchiveList:   canContribute,
	ActionUnarchiveList: canContribute,
	ActionDestroyList:   canDestroy,
	ActionReindexLists:  canContribute,
	ActionAddTask:       canContribute,
	ActionMoveTask:      canContribute,
	ActionRenameTask:    canContribute,
	ActionEditTask:      canContribute,
	ActionCompleteTask:  canContribute,
	ActionArchiveTask:   canContribute,
	ActionUnarchiveTask: canContribute,
	ActionDestroyTask:   canDestroy,
	ActionReindexTasks:  canContribute,
	ActionAddComment:    canContribute,
	ActionEditComment:   anyOf(author, manager),
	ActionDeleteComment: anyOf(author, manager),
	ActionUploadFile:    canContribute,
	ActionDeleteFile:    canContribute,
	ActionViewActivity:  canView,
}

// Allow evaluates the rule for action. Unknown actions are denied.
func Allow(action Action, f Facts) bool {
	r, ok := rules[action]
	if !ok {
		return false
	}
	return r(f)
}
