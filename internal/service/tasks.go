package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/access"
	"taskboard/internal/model"
	"taskboard/internal/store"
)

// TaskInput creates a task. Index is the zero-based slot among the active
// tasks of the list; nil appends.
type TaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Index       *int
}

// MoveTaskInput moves a task. A nil ListID keeps the current list; a nil
// Index appends to the target list.
type MoveTaskInput struct {
	ListID *uuid.UUID
	Index  *int
}

// TaskPatch edits the non-nil fields. ClearDueDate removes the due date.
type TaskPatch struct {
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
}

// Activity actions recorded on tasks.
const (
	actCreated    = "created"
	actMoved      = "moved"
	actRenamed    = "renamed"
	actCompleted  = "completed"
	actReopened   = "reopened"
	actDueSet     = "due_date_set"
	actDueRemoved = "due_date_removed"
	actArchived   = "archived"
	actRestored   = "restored"
	actComment    = "comment"
	actUploaded   = "file_uploaded"
	actRemoved    = "file_removed"
)

func (s *Service) AddTask(ctx context.Context, actor, listID uuid.UUID, in TaskInput) (TaskResult, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return TaskResult{}, invalid("task title is required")
	}
	if err := validIndex(in.Index); err != nil {
		return TaskResult{}, err
	}

	var out TaskResult
	err := s.run(ctx, actor, func(u *unit) error {
		_, b, err := u.list(listID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionAddTask, b); err != nil {
			return err
		}
		l, err := u.tx.LockList(listID)
		if err != nil {
			return lookup(err, "list")
		}
		if l.ArchivedAt != nil {
			return invalid("tasks cannot be added to an archived list")
		}
		pos, err := u.place(listTasks{tx: u.tx, listID: l.ID}, uuid.Nil, in.Index)
		if err != nil {
			return err
		}
		t := &model.Task{
			BoardID:     b.ID,
			ListID:      l.ID,
			Title:       title,
			Description: in.Description,
			DueDate:     in.DueDate,
			Position:    pos,
			CreatedBy:   actor,
		}
		if err := u.tx.CreateTask(t); err != nil {
			return err
		}
		a, err := u.record(t, model.ActivityAction, actCreated, fmt.Sprintf("added %q to %s", t.Title, l.Name))
		if err != nil {
			return err
		}
		out = TaskResult{Task: taskView(t), Activity: optionalActivity(a)}
		return u.boardEvent(b, "task.added", map[string]any{"task": out.Task, "activity": out.Activity})
	})
	return out, err
}

// GetTask returns a task with its history, newest first, and its files.
func (s *Service) GetTask(ctx context.Context, actor, taskID uuid.UUID) (TaskDetail, error) {
	var out TaskDetail
	err := s.view(ctx, actor, func(u *unit) error {
		t, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionViewActivity, b); err != nil {
			return err
		}
		out.Task = taskView(t)
		if out.Activities, err = u.activities(t.ID); err != nil {
			return err
		}
		files, err := u.tx.Attachments(t.ID)
		if err != nil {
			return err
		}
		out.Attachments = make([]AttachmentView, 0, len(files))
		for i := range files {
			out.Attachments = append(out.Attachments, attachmentView(&files[i]))
		}
		return nil
	})
	return out, err
}

// MoveTask places a task at a slot of its own list or of another list on
// the same board. Both lists are locked in id order before positions are
// read.
func (s *Service) MoveTask(ctx context.Context, actor, taskID uuid.UUID, in MoveTaskInput) (TaskResult, error) {
	if err := validIndex(in.Index); err != nil {
		return TaskResult{}, err
	}

	var out TaskResult
	err := s.run(ctx, actor, func(u *unit) error {
		t, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionMoveTask, b); err != nil {
			return err
		}
		targetID := t.ListID
		if in.ListID != nil {
			targetID = *in.ListID
		}

		from, to, err := u.lockPair(t.ListID, targetID)
		if err != nil {
			return err
		}
		if to.BoardID != b.ID {
			return invalid("tasks move only between lists of the same board")
		}
		if to.ArchivedAt != nil {
			return invalid("tasks cannot be moved into an archived list")
		}
		if t, err = u.tx.GetTask(taskID); err != nil {
			return lookup(err, "task")
		}
		if t.ListID != from.ID {
			return conflict("task was moved concurrently")
		}
		if t.ArchivedAt != nil {
			return invalid("archived tasks cannot be moved")
		}

		pos, err := u.place(listTasks{tx: u.tx, listID: to.ID}, t.ID, in.Index)
		if err != nil {
			return err
		}
		t.ListID = to.ID
		t.Position = pos
		if err := u.tx.UpdateTask(t, store.ColListID, store.ColPosition); err != nil {
			return err
		}

		content := fmt.Sprintf("reordered %q in %s", t.Title, to.Name)
		if from.ID != to.ID {
			content = fmt.Sprintf("moved %q from %s to %s", t.Title, from.Name, to.Name)
		}
		a, err := u.record(t, model.ActivityAction, actMoved, content)
		if err != nil {
			return err
		}
		out = TaskResult{Task: taskView(t), Activity: optionalActivity(a)}
		return u.boardEvent(b, "task.moved", map[string]any{
			"task":         out.Task,
			"activity":     out.Activity,
			"from_list_id": from.ID,
		})
	})
	return out, err
}

// lockPair locks two lists, possibly the same one, lowest id first.
func (u *unit) lockPair(fromID, toID uuid.UUID) (*model.TaskList, *model.TaskList, error) {
	if fromID == toID {
		l, err := u.tx.LockList(fromID)
		if err != nil {
			return nil, nil, lookup(err, "list")
		}
		return l, l, nil
	}
	first, second := fromID, toID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}
	a, err := u.tx.LockList(first)
	if err != nil {
		return nil, nil, lookup(err, "list")
	}
	b, err := u.tx.LockList(second)
	if err != nil {
		return nil, nil, lookup(err, "list")
	}
	if a.ID == fromID {
		return a, b, nil
	}
	return b, a, nil
}

func (s *Service) RenameTask(ctx context.Context, actor, taskID uuid.UUID, title string) (TaskResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return TaskResult{}, invalid("task title is required")
	}

	var out TaskResult
	err := s.run(ctx, actor, func(u *unit) error {
		t, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionRenameTask, b); err != nil {
			return err
		}
		if t, err = u.relockTask(t); err != nil {
			return err
		}
		if t.Title == title {
			out = TaskResult{Task: taskView(t)}
			return nil
		}
		old := t.Title
		t.Title = title
		if err := u.tx.UpdateTask(t, store.ColTitle); err != nil {
			return err
		}
		a, err := u.record(t, model.ActivityAction, actRenamed, fmt.Sprintf("renamed %q to %q", old, title))
		if err != nil {
			return err
		}
		out = TaskResult{Task: taskView(t), Activity: optionalActivity(a)}
		return u.boardEvent(b, "task.renamed", map[string]any{"task": out.Task, "activity": out.Activity})
	})
	return out, err
}

// EditTask changes description and due date. Only due date changes are
// recorded in the task history. A patch that changes nothing writes
// nothing and emits nothing.
func (s *Service) EditTask(ctx context.Context, actor, taskID uuid.UUID, patch TaskPatch) (TaskResult, error) {
	if patch.DueDate != nil && patch.ClearDueDate {
		return TaskResult{}, invalid("due date cannot be set and cleared at once")
	}

	var out TaskResult
	err := s.run(ctx, actor, func(u *unit) error {
		t, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionEditTask, b); err != nil {
			return err
		}
		if t, err = u.relockTask(t); err != nil {
			return err
		}
		var columns []string
		if patch.Description != nil && *patch.Description != t.Description {
			t.Description = *patch.Description
			columns = append(columns, store.ColDescription)
		}
		var action, content string
		switch {
		case patch.DueDate != nil && (t.DueDate == nil || !t.DueDate.Equal(*patch.DueDate)):
			due := patch.DueDate.UTC()
			t.DueDate = &due
			columns = append(columns, store.ColDueDate)
			action, content = actDueSet, fmt.Sprintf("set the due date of %q to %s", t.Title, due.Format(time.DateOnly))
		case patch.ClearDueDate && t.DueDate != nil:
			t.DueDate = nil
			columns = append(columns, store.ColDueDate)
			action, content = actDueRemoved, fmt.Sprintf("removed the due date of %q", t.Title)
		}
		if len(columns) == 0 {
			out = TaskResult{Task: taskView(t)}
			return nil
		}
		if err := u.tx.UpdateTask(t, columns...); err != nil {
			return err
		}
		var a *model.Activity
		if action != "" {
			if a, err = u.record(t, model.ActivityAction, action, content); err != nil {
				return err
			}
		}
		out = TaskResult{Task: taskView(t), Activity: optionalActivity(a)}
		return u.boardEvent(b, "task.updated", map[string]any{"task": out.Task, "activity": out.Activity})
	})
	return out, err
}

// CompleteTask sets the completion flag. Setting it to its current value
// is a no-op.
func (s *Service) CompleteTask(ctx context.Context, actor, taskID uuid.UUID, completed bool) (TaskResult, error) {
	var out TaskResult
	err := s.run(ctx, actor, func(u *unit) error {
		t, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionCompleteTask, b); err != nil {
			return err
		}
		if t, err = u.relockTask(t); err != nil {
			return err
		}
		if t.Completed == completed {
			out = TaskResult{Task: taskView(t)}
			return nil
		}
		t.Completed = completed
		if err := u.tx.UpdateTask(t, store.ColCompleted); err != nil {
			return err
		}
		action, content := actCompleted, fmt.Sprintf("completed %q", t.Title)
		if !completed {
			action, content = actReopened, fmt.Sprintf("reopened %q", t.Title)
		}
		a, err := u.record(t, model.ActivityAction, action, content)
		if err != nil {
			return err
		}
		out = TaskResult{Task: taskView(t), Activity: optionalActivity(a)}
		return u.boardEvent(b, "task.completed", map[string]any{"task": out.Task, "activity": out.Activity})
	})
	return out, err
}

// ArchiveTask is idempotent: a second call records nothing and emits
// nothing.
func (s *Service) ArchiveTask(ctx context.Context, actor, taskID uuid.UUID) (TaskResult, error) {
	var out TaskResult
	err := s.run(ctx, actor, func(u *unit) error {
		t, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionArchiveTask, b); err != nil {
			return err
		}
		if t, err = u.relockTask(t); err != nil {
			return err
		}
		if t.ArchivedAt != nil {
			out = TaskResult{Task: taskView(t)}
			return nil
		}
		now := s.now()
		t.ArchivedAt = &now
		if err := u.tx.UpdateTask(t, store.ColArchivedAt); err != nil {
			return err
		}
		a, err := u.record(t, model.ActivityAction, actArchived, fmt.Sprintf("archived %q", t.Title))
		if err != nil {
			return err
		}
		out = TaskResult{Task: taskView(t), Activity: optionalActivity(a)}
		return u.boardEvent(b, "task.archived", map[string]any{"task": out.Task, "activity": out.Activity})
	})
	return out, err
}

// UnarchiveTask returns a task to the slot its stale position sorts into,
// allocated against the current neighbours.
func (s *Service) UnarchiveTask(ctx context.Context, actor, taskID uuid.UUID) (TaskResult, error) {
	var out TaskResult
	err := s.run(ctx, actor, func(u *unit) error {
		t, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionUnarchiveTask, b); err != nil {
			return err
		}
		if t, err = u.relockTask(t); err != nil {
			return err
		}
		if t.ArchivedAt == nil {
			out = TaskResult{Task: taskView(t)}
			return nil
		}
		set := listTasks{tx: u.tx, listID: t.ListID}
		index, err := slotFor(set, t.Position)
		if err != nil {
			return err
		}
		if t.Position, err = u.place(set, t.ID, &index); err != nil {
			return err
		}
		t.ArchivedAt = nil
		if err := u.tx.UpdateTask(t, store.ColPosition, store.ColArchivedAt); err != nil {
			return err
		}
		a, err := u.record(t, model.ActivityAction, actRestored, fmt.Sprintf("restored %q", t.Title))
		if err != nil {
			return err
		}
		out = TaskResult{Task: taskView(t), Activity: optionalActivity(a)}
		return u.boardEvent(b, "task.unarchived", map[string]any{"task": out.Task, "activity": out.Activity})
	})
	return out, err
}

// DestroyTask deletes the task with its activity and files.
func (s *Service) DestroyTask(ctx context.Context, actor, taskID uuid.UUID) error {
	return s.run(ctx, actor, func(u *unit) error {
		t, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionDestroyTask, b); err != nil {
			return err
		}
		keys, err := u.taskObjectKeys(t.ID)
		if err != nil {
			return err
		}
		if err := u.tx.DeleteTask(t.ID); err != nil {
			return err
		}
		u.removeObjects(keys)
		return u.boardEvent(b, "task.destroyed", map[string]any{"task_id": t.ID, "list_id": t.ListID})
	})
}

// ReindexTasks renumbers the active tasks of a list.
func (s *Service) ReindexTasks(ctx context.Context, actor, listID uuid.UUID) ([]TaskView, error) {
	var out []TaskView
	err := s.run(ctx, actor, func(u *unit) error {
		_, b, err := u.list(listID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionReindexTasks, b); err != nil {
			return err
		}
		if _, err := u.tx.LockList(listID); err != nil {
			return lookup(err, "list")
		}
		changed, err := reindex(listTasks{tx: u.tx, listID: listID})
		if err != nil {
			return err
		}
		tasks, err := u.tx.Tasks(listID, store.ActiveOnly)
		if err != nil {
			return err
		}
		out = make([]TaskView, 0, len(tasks))
		positions := make(map[string]int64, len(tasks))
		for i := range tasks {
			out = append(out, taskView(&tasks[i]))
			positions[tasks[i].ID.String()] = tasks[i].Position
		}
		if changed == 0 {
			return nil
		}
		return u.boardEvent(b, "tasks.reindexed", map[string]any{"list_id": listID, "tasks": positions})
	})
	return out, err
}

// Tasks returns the tasks of a list matching filter, ordered by position.
func (s *Service) Tasks(ctx context.Context, actor, listID uuid.UUID, filter store.ArchiveFilter) ([]TaskView, error) {
	var out []TaskView
	err := s.view(ctx, actor, func(u *unit) error {
		_, b, err := u.list(listID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionViewBoard, b); err != nil {
			return err
		}
		tasks, err := u.tx.Tasks(listID, filter)
		if err != nil {
			return err
		}
		out = make([]TaskView, 0, len(tasks))
		for i := range tasks {
			out = append(out, taskView(&tasks[i]))
		}
		return nil
	})
	return out, err
}
