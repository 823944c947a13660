package service

import (
	"fmt"

	"github.com/google/uuid"

	"taskboard/internal/position"
	"taskboard/internal/store"
)

type sibling struct {
	id       uuid.UUID
	position int64
}

// siblingSet is one ordered set (lists of a board or tasks of a list)
// inside the current transaction. The caller holds the parent lock.
type siblingSet interface {
	active() ([]sibling, error)
	setPosition(id uuid.UUID, pos int64) error
	describe() string
}

type boardLists struct {
	tx      store.Tx
	boardID uuid.UUID
}

func (s boardLists) active() ([]sibling, error) {
	lists, err := s.tx.Lists(s.boardID, store.ActiveOnly)
	if err != nil {
		return nil, err
	}
	out := make([]sibling, len(lists))
	for i, l := range lists {
		out[i] = sibling{id: l.ID, position: l.Position}
	}
	return out, nil
}

func (s boardLists) setPosition(id uuid.UUID, pos int64) error {
	return s.tx.UpdateListPosition(id, pos)
}

func (s boardLists) describe() string { return "lists of board " + s.boardID.String() }

type listTasks struct {
	tx     store.Tx
	listID uuid.UUID
}

func (s listTasks) active() ([]sibling, error) {
	tasks, err := s.tx.Tasks(s.listID, store.ActiveOnly)
	if err != nil {
		return nil, err
	}
	out := make([]sibling, len(tasks))
	for i, t := range tasks {
		out[i] = sibling{id: t.ID, position: t.Position}
	}
	return out, nil
}

func (s listTasks) setPosition(id uuid.UUID, pos int64) error {
	return s.tx.UpdateTaskPosition(id, pos)
}

func (s listTasks) describe() string { return "tasks of list " + s.listID.String() }

// reindex renumbers the active members of set to Gap, 2*Gap, ... keeping
// their order. Archived members keep their stale positions. It returns
// the number of rows rewritten.
func reindex(set siblingSet) (int, error) {
	items, err := set.active()
	if err != nil {
		return 0, err
	}
	fresh := position.Renumber(len(items))
	changed := 0
	for i, item := range items {
		if item.position == fresh[i] {
			continue
		}
		if err := set.setPosition(item.id, fresh[i]); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// place allocates a position for item at index among the active members
// of set, item itself excluded. A nil index appends. When the neighbours
// leave no room the set is reindexed once and allocation retried; a second
// failure is ErrReindexFailed.
func (u *unit) place(set siblingSet, item uuid.UUID, index *int) (int64, error) {
	for attempt := 0; ; attempt++ {
		items, err := set.active()
		if err != nil {
			return 0, err
		}
		positions := make([]int64, 0, len(items))
		for _, it := range items {
			if it.id != item {
				positions = append(positions, it.position)
			}
		}

		slot := len(positions)
		if index != nil {
			slot = *index
		}
		lower, upper := position.Neighbours(positions, slot)
		pos, err := position.Allocate(lower, upper)
		if err == nil {
			return pos, nil
		}
		if attempt > 0 {
			return 0, fmt.Errorf("%w: %s: %v", ErrReindexFailed, set.describe(), err)
		}

		changed, err := reindex(set)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrReindexFailed, set.describe(), err)
		}
		u.s.log.Info().Str("set", set.describe()).Int("rewritten", changed).Msg("position space exhausted, reindexed")
	}
}
