package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/access"
	"taskboard/internal/model"
)

func (s *Service) AddComment(ctx context.Context, actor, taskID uuid.UUID, text string) (ActivityView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ActivityView{}, invalid("comment text is required")
	}

	var out ActivityView
	err := s.run(ctx, actor, func(u *unit) error {
		t, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionAddComment, b); err != nil {
			return err
		}
		a, err := u.record(t, model.ActivityComment, actComment, text)
		if err != nil {
			return err
		}
		out = activityView(a)
		return u.boardEvent(b, "comment.added", map[string]any{"activity": out})
	})
	return out, err
}

// EditComment replaces the text of a comment. Only comments are mutable;
// the author or a workspace manager may change them.
func (s *Service) EditComment(ctx context.Context, actor, activityID uuid.UUID, text string) (ActivityView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ActivityView{}, invalid("comment text is required")
	}

	var out ActivityView
	err := s.run(ctx, actor, func(u *unit) error {
		a, b, err := u.comment(activityID, access.ActionEditComment)
		if err != nil {
			return err
		}
		a.Details = map[string]any{"type": actComment, "content": text}
		if err := u.tx.UpdateActivity(a); err != nil {
			return err
		}
		out = activityView(a)
		return u.boardEvent(b, "comment.edited", map[string]any{"activity": out})
	})
	return out, err
}

func (s *Service) DeleteComment(ctx context.Context, actor, activityID uuid.UUID) error {
	return s.run(ctx, actor, func(u *unit) error {
		a, b, err := u.comment(activityID, access.ActionDeleteComment)
		if err != nil {
			return err
		}
		if err := u.tx.DeleteActivity(a.ID); err != nil {
			return err
		}
		return u.boardEvent(b, "comment.deleted", map[string]any{"activity_id": a.ID, "task_id": a.TaskID})
	})
}

func (u *unit) comment(id uuid.UUID, action access.Action) (*model.Activity, *model.Board, error) {
	a, err := u.tx.GetActivity(id)
	if err != nil {
		return nil, nil, lookup(err, "activity")
	}
	_, b, err := u.task(a.TaskID)
	if err != nil {
		return nil, nil, err
	}
	isAuthor := func(f *access.Facts) { f.IsAuthor = a.UserID == u.actor }
	if _, err := u.authorize(action, b, isAuthor); err != nil {
		return nil, nil, err
	}
	if a.Kind != model.ActivityComment {
		return nil, nil, invalid("only comments can be changed")
	}
	return a, b, nil
}

// Activities returns the task history, newest first.
func (s *Service) Activities(ctx context.Context, actor, taskID uuid.UUID) ([]ActivityView, error) {
	var out []ActivityView
	err := s.view(ctx, actor, func(u *unit) error {
		_, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionViewActivity, b); err != nil {
			return err
		}
		out, err = u.activities(taskID)
		return err
	})
	return out, err
}

func (u *unit) activities(taskID uuid.UUID) ([]ActivityView, error) {
	acts, err := u.tx.Activities(taskID)
	if err != nil {
		return nil, err
	}
	out := make([]ActivityView, 0, len(acts))
	for i := range acts {
		out = append(out, activityView(&acts[i]))
	}
	return out, nil
}
