package service

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/store"
)

func intp(i int) *int { return &i }

func TestAddList_Allocation(t *testing.T) {
	f := newFixture(t)

	first := f.list("Todo")
	assert.Equal(t, int64(1000), first.Position, "empty set starts at 1000")
	second := f.list("Done")
	assert.Equal(t, int64(2000), second.Position)
	third := f.list("Later")
	assert.Equal(t, int64(3000), third.Position, "append is max + 1000")

	between, err := f.svc.AddList(f.ctx, f.member, f.board, ListInput{Name: "Doing", Index: intp(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), between.Position)

	front, err := f.svc.AddList(f.ctx, f.member, f.board, ListInput{Name: "Inbox", Index: intp(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(500), front.Position)
}

func TestAddTask_ExhaustedSpaceReindexesOnce(t *testing.T) {
	var logs bytes.Buffer
	f := newFixture(t, WithLogger(zerolog.New(&logs)))
	list := f.list("Todo")
	seeded := f.seedTasks(list.ID, 5, 6)

	res, err := f.svc.AddTask(f.ctx, f.member, list.ID, TaskInput{Title: "squeezed", Index: intp(1)})
	require.NoError(t, err)

	tasks := f.tasks(list.ID)
	assert.Equal(t, []uuid.UUID{seeded[0], res.Task.ID, seeded[1]}, taskIDs(tasks))
	assert.Equal(t, []int64{1000, 1500, 2000}, taskPositions(tasks))
	assert.Equal(t, 1, strings.Count(logs.String(), "position space exhausted"))
}

func TestAddTask_ReindexFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")
	f.seedTasks(list.ID, 5, 6)
	before := f.snapshot()
	f.events.reset()
	f.store.FailNext("UpdateTaskPosition", errors.New("disk full"))

	_, err := f.svc.AddTask(f.ctx, f.member, list.ID, TaskInput{Title: "squeezed", Index: intp(1)})

	assert.ErrorIs(t, err, ErrReindexFailed)
	assert.True(t, Retryable(err))
	assert.Equal(t, before, f.snapshot())
	assert.Empty(t, f.events.names())
}

func TestReindexTasks_Idempotent(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")
	ids := f.seedTasks(list.ID, 7, 5, 6)
	f.events.reset()

	first, err := f.svc.ReindexTasks(f.ctx, f.member, list.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[1], ids[2], ids[0]}, taskIDs(first))
	assert.Equal(t, []int64{1000, 2000, 3000}, taskPositions(first))

	second, err := f.svc.ReindexTasks(f.ctx, f.member, list.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"tasks.reindexed"}, f.events.names(), "a no-op reindex emits nothing")
}

func TestReindexLists_SkipsArchived(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.list("A"), f.list("B"), f.list("C")
	_, err := f.svc.ArchiveList(f.ctx, f.member, b.ID)
	require.NoError(t, err)
	_, err = f.svc.MoveList(f.ctx, f.member, c.ID, 0)
	require.NoError(t, err)

	lists, err := f.svc.ReindexLists(f.ctx, f.member, f.board)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, c.ID, lists[0].ID)
	assert.Equal(t, a.ID, lists[1].ID)
	assert.Equal(t, int64(1000), lists[0].Position)
	assert.Equal(t, int64(2000), lists[1].Position)

	archived := f.snapshot().Lists
	for _, l := range archived {
		if l.ID == b.ID {
			assert.Equal(t, int64(2000), l.Position, "archived lists keep their stale position")
		}
	}
}

func TestMoveList_ReordersWithoutTouchingOthers(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.list("A"), f.list("B"), f.list("C")
	f.events.reset()

	moved, err := f.svc.MoveList(f.ctx, f.member, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(500), moved.Position)

	lists, err := f.svc.Lists(f.ctx, f.member, f.board, store.ActiveOnly)
	require.NoError(t, err)
	require.Len(t, lists, 3)
	assert.Equal(t, []uuid.UUID{c.ID, a.ID, b.ID}, []uuid.UUID{lists[0].ID, lists[1].ID, lists[2].ID})
	assert.Equal(t, int64(1000), lists[1].Position)
	assert.Equal(t, int64(2000), lists[2].Position)
	assert.Equal(t, []string{"list.moved"}, f.events.names())
}

func TestMoveTask_WithinListToEnd(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")
	a, b := f.task(list.ID, "a"), f.task(list.ID, "b")

	res, err := f.svc.MoveTask(f.ctx, f.member, a.ID, MoveTaskInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), res.Task.Position)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, taskIDs(f.tasks(list.ID)))
	require.NotNil(t, res.Activity)
	assert.Equal(t, actMoved, res.Activity.Details["type"])
}

func TestMoveTask_AcrossLists(t *testing.T) {
	f := newFixture(t)
	todo, done := f.list("Todo"), f.list("Done")
	a := f.task(todo.ID, "a")
	d1, d2 := f.task(done.ID, "d1"), f.task(done.ID, "d2")
	f.events.reset()

	res, err := f.svc.MoveTask(f.ctx, f.member, a.ID, MoveTaskInput{ListID: &done.ID, Index: intp(1)})
	require.NoError(t, err)

	assert.Equal(t, done.ID, res.Task.ListID)
	assert.Empty(t, f.tasks(todo.ID))
	assert.Equal(t, []uuid.UUID{d1.ID, a.ID, d2.ID}, taskIDs(f.tasks(done.ID)))
	assert.Contains(t, res.Activity.Details["content"], "from Todo to Done")

	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, todo.ID, events[0].Payload["from_list_id"])
	assert.Equal(t, f.member, events[0].SenderID)
}

func TestMoveTask_RejectsOtherBoard(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")
	task := f.task(list.ID, "a")
	other, err := f.svc.CreateBoard(f.ctx, f.owner, f.workspace, BoardInput{Name: "Other"})
	require.NoError(t, err)
	foreign, err := f.svc.AddList(f.ctx, f.owner, other.ID, ListInput{Name: "Elsewhere"})
	require.NoError(t, err)

	_, err = f.svc.MoveTask(f.ctx, f.owner, task.ID, MoveTaskInput{ListID: &foreign.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMoveTask_StorageFailureIsAtomic(t *testing.T) {
	f := newFixture(t)
	todo, done := f.list("Todo"), f.list("Done")
	task := f.task(todo.ID, "a")
	before := f.snapshot()
	f.events.reset()
	f.store.FailNext("CreateActivity", errors.New("connection lost"))

	_, err := f.svc.MoveTask(f.ctx, f.member, task.ID, MoveTaskInput{ListID: &done.ID})

	assert.ErrorIs(t, err, ErrStorage)
	assert.True(t, Retryable(err))
	assert.Equal(t, before, f.snapshot(), "neither the move nor its activity survive")
	assert.Empty(t, f.events.names(), "no event for a rolled back mutation")
}

func TestMoveTask_ConcurrentIntoSameGap(t *testing.T) {
	f := newFixture(t)
	target, source := f.list("Target"), f.list("Source")
	lo, hi := f.task(target.ID, "lo"), f.task(target.ID, "hi")
	x, y := f.task(source.ID, "x"), f.task(source.ID, "y")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{x.ID, y.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.MoveTask(f.ctx, f.member, id, MoveTaskInput{ListID: &target.ID, Index: intp(1)})
		}(i, id)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	tasks := f.tasks(target.ID)
	require.Len(t, tasks, 4)
	assert.Equal(t, lo.ID, tasks[0].ID)
	assert.Equal(t, hi.ID, tasks[3].ID)
	positions := taskPositions(tasks)
	for i := 1; i < len(positions); i++ {
		assert.Less(t, positions[i-1], positions[i], "positions strictly increase")
	}
}

func TestUnarchiveTask_ReallocatesAgainstNeighbours(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")
	a, b, c := f.task(list.ID, "a"), f.task(list.ID, "b"), f.task(list.ID, "c")
	_, err := f.svc.ArchiveTask(f.ctx, f.member, b.ID)
	require.NoError(t, err)
	// Fill b's old slot so its stale position collides.
	f.seedTasks(list.ID, 2000)

	res, err := f.svc.UnarchiveTask(f.ctx, f.member, b.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Task.ArchivedAt)

	tasks := f.tasks(list.ID)
	require.Len(t, tasks, 4)
	assert.Equal(t, a.ID, tasks[0].ID)
	assert.Equal(t, b.ID, tasks[1].ID)
	assert.Equal(t, c.ID, tasks[3].ID)
	positions := taskPositions(tasks)
	for i := 1; i < len(positions); i++ {
		assert.Less(t, positions[i-1], positions[i])
	}
}

func TestNegativeIndexRejected(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")

	_, err := f.svc.AddTask(f.ctx, f.member, list.ID, TaskInput{Title: "a", Index: intp(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.MoveList(f.ctx, f.member, list.ID, -2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
