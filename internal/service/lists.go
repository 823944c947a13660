package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/access"
	"taskboard/internal/model"
	"taskboard/internal/store"
)

// ListInput creates a list. Index is the zero-based slot among the active
// lists; nil appends.
type ListInput struct {
	Name  string
	Index *int
}

func validIndex(index *int) error {
	if index != nil && *index < 0 {
		return invalid("index must not be negative")
	}
	return nil
}

func (s *Service) AddList(ctx context.Context, actor, boardID uuid.UUID, in ListInput) (ListView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ListView{}, invalid("list name is required")
	}
	if err := validIndex(in.Index); err != nil {
		return ListView{}, err
	}

	var out ListView
	err := s.run(ctx, actor, func(u *unit) error {
		b, err := u.board(boardID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionAddList, b); err != nil {
			return err
		}
		if _, err := u.tx.LockBoard(b.ID); err != nil {
			return lookup(err, "board")
		}
		pos, err := u.place(boardLists{tx: u.tx, boardID: b.ID}, uuid.Nil, in.Index)
		if err != nil {
			return err
		}
		l := &model.TaskList{BoardID: b.ID, Name: name, Position: pos}
		if err := u.tx.CreateList(l); err != nil {
			return err
		}
		out = listView(l)
		return u.boardEvent(b, "list.added", map[string]any{"list": out})
	})
	return out, err
}

func (s *Service) RenameList(ctx context.Context, actor, listID uuid.UUID, name string) (ListView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ListView{}, invalid("list name is required")
	}

	var out ListView
	err := s.run(ctx, actor, func(u *unit) error {
		l, b, err := u.list(listID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionRenameList, b); err != nil {
			return err
		}
		if l, err = u.relockList(l); err != nil {
			return err
		}
		l.Name = name
		if err := u.tx.UpdateList(l, store.ColName); err != nil {
			return err
		}
		out = listView(l)
		return u.boardEvent(b, "list.renamed", map[string]any{"list": out})
	})
	return out, err
}

// MoveList puts an active list at index among the other active lists.
func (s *Service) MoveList(ctx context.Context, actor, listID uuid.UUID, index int) (ListView, error) {
	if err := validIndex(&index); err != nil {
		return ListView{}, err
	}

	var out ListView
	err := s.run(ctx, actor, func(u *unit) error {
		l, b, err := u.list(listID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionMoveList, b); err != nil {
			return err
		}
		if l, err = u.relockList(l); err != nil {
			return err
		}
		if l.ArchivedAt != nil {
			return invalid("archived lists cannot be moved")
		}
		pos, err := u.place(boardLists{tx: u.tx, boardID: b.ID}, l.ID, &index)
		if err != nil {
			return err
		}
		if err := u.tx.UpdateListPosition(l.ID, pos); err != nil {
			return err
		}
		l.Position = pos
		out = listView(l)
		return u.boardEvent(b, "list.moved", map[string]any{"list": out})
	})
	return out, err
}

func (s *Service) ArchiveList(ctx context.Context, actor, listID uuid.UUID) (ListView, error) {
	var out ListView
	err := s.run(ctx, actor, func(u *unit) error {
		l, b, err := u.list(listID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionArchiveList, b); err != nil {
			return err
		}
		if l, err = u.relockList(l); err != nil {
			return err
		}
		if l.ArchivedAt != nil {
			out = listView(l)
			return nil
		}
		now := s.now()
		l.ArchivedAt = &now
		if err := u.tx.UpdateList(l, store.ColArchivedAt); err != nil {
			return err
		}
		out = listView(l)
		return u.boardEvent(b, "list.archived", map[string]any{"list": out})
	})
	return out, err
}

// UnarchiveList returns a list to the slot its stale position sorts into,
// allocated against the current neighbours.
func (s *Service) UnarchiveList(ctx context.Context, actor, listID uuid.UUID) (ListView, error) {
	var out ListView
	err := s.run(ctx, actor, func(u *unit) error {
		l, b, err := u.list(listID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionUnarchiveList, b); err != nil {
			return err
		}
		if l, err = u.relockList(l); err != nil {
			return err
		}
		if l.ArchivedAt == nil {
			out = listView(l)
			return nil
		}
		set := boardLists{tx: u.tx, boardID: b.ID}
		index, err := slotFor(set, l.Position)
		if err != nil {
			return err
		}
		if l.Position, err = u.place(set, l.ID, &index); err != nil {
			return err
		}
		l.ArchivedAt = nil
		if err := u.tx.UpdateList(l, store.ColPosition, store.ColArchivedAt); err != nil {
			return err
		}
		out = listView(l)
		return u.boardEvent(b, "list.unarchived", map[string]any{"list": out})
	})
	return out, err
}

// slotFor counts the active siblings sorting before stale.
func slotFor(set siblingSet, stale int64) (int, error) {
	items, err := set.active()
	if err != nil {
		return 0, err
	}
	index := 0
	for _, it := range items {
		if it.position < stale {
			index++
		}
	}
	return index, nil
}

// DestroyList deletes the list, its tasks and their activity.
func (s *Service) DestroyList(ctx context.Context, actor, listID uuid.UUID) error {
	return s.run(ctx, actor, func(u *unit) error {
		l, b, err := u.list(listID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionDestroyList, b); err != nil {
			return err
		}
		keys, err := u.listObjectKeys(l.ID)
		if err != nil {
			return err
		}
		if err := u.tx.DeleteList(l.ID); err != nil {
			return err
		}
		u.removeObjects(keys)
		return u.boardEvent(b, "list.destroyed", map[string]any{"list_id": l.ID})
	})
}

// ReindexLists renumbers the active lists of a board.
func (s *Service) ReindexLists(ctx context.Context, actor, boardID uuid.UUID) ([]ListView, error) {
	var out []ListView
	err := s.run(ctx, actor, func(u *unit) error {
		b, err := u.board(boardID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionReindexLists, b); err != nil {
			return err
		}
		if _, err := u.tx.LockBoard(b.ID); err != nil {
			return lookup(err, "board")
		}
		changed, err := reindex(boardLists{tx: u.tx, boardID: b.ID})
		if err != nil {
			return err
		}
		lists, err := u.tx.Lists(b.ID, store.ActiveOnly)
		if err != nil {
			return err
		}
		out = make([]ListView, 0, len(lists))
		for i := range lists {
			out = append(out, listView(&lists[i]))
		}
		if changed == 0 {
			return nil
		}
		return u.boardEvent(b, "lists.reindexed", map[string]any{"lists": positionsOf(out)})
	})
	return out, err
}

func positionsOf(lists []ListView) map[string]int64 {
	out := make(map[string]int64, len(lists))
	for _, l := range lists {
		out[l.ID.String()] = l.Position
	}
	return out
}

// Lists returns the lists of a board matching filter, ordered by position.
func (s *Service) Lists(ctx context.Context, actor, boardID uuid.UUID, filter store.ArchiveFilter) ([]ListView, error) {
	var out []ListView
	err := s.view(ctx, actor, func(u *unit) error {
		b, err := u.board(boardID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionViewBoard, b); err != nil {
			return err
		}
		lists, err := u.tx.Lists(b.ID, filter)
		if err != nil {
			return err
		}
		out = make([]ListView, 0, len(lists))
		for i := range lists {
			out = append(out, listView(&lists[i]))
		}
		return nil
	})
	return out, err
}
