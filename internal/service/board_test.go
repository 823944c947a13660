package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

func TestViewBoard_AutoJoinsPublicBoard(t *testing.T) {
	f := newFixture(t)
	public, err := f.svc.CreateBoard(f.ctx, f.owner, f.workspace, BoardInput{Name: "Open"})
	require.NoError(t, err)
	f.events.reset()

	first, err := f.svc.ViewBoard(f.ctx, f.outsider, public.ID)
	require.NoError(t, err)
	assert.True(t, first.Joined)
	assert.Equal(t, []string{"member.joined"}, f.events.names())

	second, err := f.svc.ViewBoard(f.ctx, f.outsider, public.ID)
	require.NoError(t, err)
	assert.False(t, second.Joined, "membership is granted once")

	var role model.Role
	for _, m := range second.Members {
		if m.UserID == f.outsider {
			role = m.BoardRole
		}
	}
	assert.Equal(t, model.RoleMember, role)
}

func TestViewBoard_ManagerIsNotJoined(t *testing.T) {
	f := newFixture(t)

	detail, err := f.svc.ViewBoard(f.ctx, f.wsAdmin, f.board)
	require.NoError(t, err)
	assert.False(t, detail.Joined)
}

func TestViewBoard_ListsAndTasksInOrder(t *testing.T) {
	f := newFixture(t)
	todo, done := f.list("Todo"), f.list("Done")
	a, b := f.task(todo.ID, "a"), f.task(todo.ID, "b")
	_, err := f.svc.MoveList(f.ctx, f.owner, done.ID, 0)
	require.NoError(t, err)
	_, err = f.svc.ArchiveTask(f.ctx, f.owner, a.ID)
	require.NoError(t, err)

	detail, err := f.svc.ViewBoard(f.ctx, f.member, f.board)
	require.NoError(t, err)

	require.Len(t, detail.Lists, 2)
	assert.Equal(t, done.ID, detail.Lists[0].ID)
	assert.Equal(t, todo.ID, detail.Lists[1].ID)
	require.Len(t, detail.Lists[1].Tasks, 1, "archived tasks are hidden")
	assert.Equal(t, b.ID, detail.Lists[1].Tasks[0].ID)
}

func TestArchiveBoard_Idempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.ArchiveBoard(f.ctx, f.owner, f.board)
	require.NoError(t, err)
	require.NotNil(t, first.ArchivedAt)
	second, err := f.svc.ArchiveBoard(f.ctx, f.owner, f.board)
	require.NoError(t, err)

	assert.Equal(t, first.ArchivedAt, second.ArchivedAt)
	assert.Equal(t, []string{"board.archived"}, f.events.names())

	_, err = f.svc.ArchiveBoard(f.ctx, f.admin, f.board)
	assert.ErrorIs(t, err, ErrForbidden, "board admins cannot archive")
}

func TestArchiveTask_Idempotent(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")
	task := f.task(list.ID, "a")
	f.events.reset()
	before := f.activityCount(task.ID)

	first, err := f.svc.ArchiveTask(f.ctx, f.member, task.ID)
	require.NoError(t, err)
	require.NotNil(t, first.Activity)
	second, err := f.svc.ArchiveTask(f.ctx, f.member, task.ID)
	require.NoError(t, err)

	assert.Nil(t, second.Activity)
	assert.Equal(t, first.Task.Position, second.Task.Position, "archiving keeps the position")
	assert.Equal(t, before+1, f.activityCount(task.ID))
	assert.Equal(t, []string{"task.archived"}, f.events.names())
}

func TestArchiveList_Idempotent(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")
	f.events.reset()

	_, err := f.svc.ArchiveList(f.ctx, f.member, list.ID)
	require.NoError(t, err)
	_, err = f.svc.ArchiveList(f.ctx, f.member, list.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"list.archived"}, f.events.names())
	archived, err := f.svc.Lists(f.ctx, f.member, f.board, store.ArchivedOnly)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, int64(1000), archived[0].Position)
}

func TestDestroyList_CascadesAndRemovesBlobs(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")
	task := f.task(list.ID, "a")
	_, err := f.svc.UploadAttachment(f.ctx, f.member, task.ID, FileInput{
		Name: "brief.txt", MimeType: "text/plain", Size: 5, Body: strings.NewReader("hello"),
	})
	require.NoError(t, err)
	require.Len(t, f.objects.Keys(), 1)

	require.NoError(t, f.svc.DestroyList(f.ctx, f.admin, list.ID))

	_, err = f.svc.GetTask(f.ctx, f.owner, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.objects.Keys())

	err = f.svc.DestroyList(f.ctx, f.admin, list.ID)
	assert.ErrorIs(t, err, ErrNotFound, "destroying twice reports not found")
}

func TestDestroyBoard(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")
	f.task(list.ID, "a")
	f.events.reset()

	require.NoError(t, f.svc.DestroyBoard(f.ctx, f.admin, f.board))

	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, "board.destroyed", events[0].Name)
	assert.Contains(t, events[0].Recipients, f.member, "members computed before deletion")

	_, err := f.svc.ViewBoard(f.ctx, f.owner, f.board)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Lists(f.ctx, f.owner, f.board, store.AllRows)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoards_VisibleToViewer(t *testing.T) {
	f := newFixture(t)
	public, err := f.svc.CreateBoard(f.ctx, f.owner, f.workspace, BoardInput{Name: "Open"})
	require.NoError(t, err)

	seen, err := f.svc.Boards(f.ctx, f.outsider, f.workspace, store.ActiveOnly)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, public.ID, seen[0].ID)

	all, err := f.svc.Boards(f.ctx, f.wsAdmin, f.workspace, store.ActiveOnly)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.Boards(f.ctx, uuid.New(), f.workspace, store.ActiveOnly)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEvents_ReachMembersAndManagers(t *testing.T) {
	f := newFixture(t)
	list := f.list("Todo")

	events := f.events.all()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "list.added", ev.Name)
	assert.Equal(t, "board."+f.board.String(), ev.Channel)
	assert.Equal(t, f.owner, ev.SenderID)
	assert.ElementsMatch(t, []uuid.UUID{f.owner, f.admin, f.member, f.wsAdmin}, ev.Recipients)
	assert.Equal(t, list, ev.Payload["list"])
}

func TestUpdateBoard(t *testing.T) {
	f := newFixture(t)
	name, private := "Renamed", false

	b, err := f.svc.UpdateBoard(f.ctx, f.admin, f.board, BoardPatch{Name: &name, Private: &private})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", b.Name)
	assert.False(t, b.Private)

	_, err = f.svc.UpdateBoard(f.ctx, f.member, f.board, BoardPatch{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)

	blank := " "
	_, err = f.svc.UpdateBoard(f.ctx, f.admin, f.board, BoardPatch{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateBoard_RequiresWorkspaceMembership(t *testing.T) {
	f := newFixture(t)
	stranger := f.user("stranger")

	_, err := f.svc.CreateBoard(f.ctx, stranger, f.workspace, BoardInput{Name: "Mine"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.CreateBoard(f.ctx, f.owner, uuid.New(), BoardInput{Name: "Nowhere"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorageErrorsAreClassified(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext("GetBoard", errors.New("connection refused"))

	_, err := f.svc.ViewBoard(f.ctx, f.owner, f.board)
	assert.ErrorIs(t, err, ErrStorage)

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	_, err = f.svc.ViewBoard(ctx, f.owner, f.board)
	assert.ErrorIs(t, err, context.Canceled)
}
