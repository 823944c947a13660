package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"taskboard/internal/fanout"
	"taskboard/internal/model"
	"taskboard/internal/objectstore"
	"taskboard/internal/store"
	"taskboard/internal/store/memstore"
)

type recorder struct {
	mu     sync.Mutex
	events []fanout.ChangeEvent
}

func (r *recorder) Publish(ev fanout.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Name)
	}
	return out
}

func (r *recorder) all() []fanout.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]fanout.ChangeEvent(nil), r.events...)
}

// tracingStore records the storage calls made inside write transactions.
type tracingStore struct {
	store.Store

	mu    sync.Mutex
	calls []string
}

func (s *tracingStore) Tx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.Tx(ctx, func(tx store.Tx) error {
		return fn(&tracingTx{Tx: tx, s: s})
	})
}

func (s *tracingStore) note(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *tracingStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *tracingStore) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// index returns the position of the first recorded call, or -1.
func (s *tracingStore) index(call string) int {
	for i, c := range s.recorded() {
		if c == call {
			return i
		}
	}
	return -1
}

type tracingTx struct {
	store.Tx
	s *tracingStore
}

func (t *tracingTx) LockBoard(id uuid.UUID) (*model.Board, error) {
	t.s.note("LockBoard")
	return t.Tx.LockBoard(id)
}

func (t *tracingTx) LockList(id uuid.UUID) (*model.TaskList, error) {
	t.s.note("LockList")
	return t.Tx.LockList(id)
}

func (t *tracingTx) BoardRole(boardID, userID uuid.UUID) (model.Role, error) {
	t.s.note("BoardRole")
	return t.Tx.BoardRole(boardID, userID)
}

func (t *tracingTx) BoardMembers(boardID uuid.UUID) ([]model.BoardMember, error) {
	t.s.note("BoardMembers")
	return t.Tx.BoardMembers(boardID)
}

func (t *tracingTx) GetTask(id uuid.UUID) (*model.Task, error) {
	t.s.note("GetTask")
	return t.Tx.GetTask(id)
}

func (t *tracingTx) GetList(id uuid.UUID) (*model.TaskList, error) {
	t.s.note("GetList")
	return t.Tx.GetList(id)
}

func (t *tracingTx) UpdateTask(task *model.Task, columns ...string) error {
	t.s.note(fmt.Sprint("UpdateTask", columns))
	return t.Tx.UpdateTask(task, columns...)
}

func (t *tracingTx) UpdateList(l *model.TaskList, columns ...string) error {
	t.s.note(fmt.Sprint("UpdateList", columns))
	return t.Tx.UpdateList(l, columns...)
}

// traced returns a service over the fixture's data that records storage
// calls.
func (f *fixture) traced() (*Service, *tracingStore) {
	ts := &tracingStore{Store: f.store}
	return New(ts, f.events, WithObjectStore(f.objects)), ts
}

// fixture is a workspace with one private board. owner owns both; wsAdmin
// is a workspace admin without board membership; admin and member hold
// those board roles; outsider is only in the workspace.
type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *memstore.Store
	events  *recorder
	objects *objectstore.Memory
	svc     *Service

	owner, wsAdmin, admin, member, outsider uuid.UUID

	workspace uuid.UUID
	board     uuid.UUID
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   memstore.New(),
		events:  &recorder{},
		objects: objectstore.NewMemory(),
	}
	f.svc = New(f.store, f.events, append([]Option{WithObjectStore(f.objects)}, opts...)...)

	f.owner = f.user("owner")
	f.wsAdmin = f.user("wsadmin")
	f.admin = f.user("admin")
	f.member = f.user("member")
	f.outsider = f.user("outsider")

	ws, err := f.svc.CreateWorkspace(f.ctx, f.owner, "Acme")
	require.NoError(t, err)
	f.workspace = ws.ID
	require.NoError(t, f.svc.AddWorkspaceMember(f.ctx, f.owner, ws.ID, f.wsAdmin, model.RoleAdmin))
	for _, id := range []uuid.UUID{f.admin, f.member, f.outsider} {
		require.NoError(t, f.svc.AddWorkspaceMember(f.ctx, f.owner, ws.ID, id, model.RoleMember))
	}

	b, err := f.svc.CreateBoard(f.ctx, f.owner, ws.ID, BoardInput{Name: "Launch", Private: true})
	require.NoError(t, err)
	f.board = b.ID
	_, err = f.svc.AddMember(f.ctx, f.owner, b.ID, f.admin, model.RoleAdmin)
	require.NoError(t, err)
	_, err = f.svc.AddMember(f.ctx, f.owner, b.ID, f.member, model.RoleMember)
	require.NoError(t, err)

	f.events.reset()
	return f
}

func (f *fixture) user(name string) uuid.UUID {
	f.t.Helper()
	u := &model.User{Email: name + "@example.com", Name: name, HashedPassword: "x"}
	require.NoError(f.t, f.store.Users().Create(f.ctx, u))
	return u.ID
}

func (f *fixture) list(name string) ListView {
	f.t.Helper()
	l, err := f.svc.AddList(f.ctx, f.owner, f.board, ListInput{Name: name})
	require.NoError(f.t, err)
	return l
}

func (f *fixture) task(listID uuid.UUID, title string) TaskView {
	f.t.Helper()
	res, err := f.svc.AddTask(f.ctx, f.owner, listID, TaskInput{Title: title})
	require.NoError(f.t, err)
	return res.Task
}

// seedTasks writes tasks with exact positions, bypassing allocation.
func (f *fixture) seedTasks(listID uuid.UUID, positions ...int64) []uuid.UUID {
	f.t.Helper()
	ids := make([]uuid.UUID, len(positions))
	err := f.store.Tx(f.ctx, func(tx store.Tx) error {
		for i, pos := range positions {
			t := &model.Task{BoardID: f.board, ListID: listID, Title: "seeded", Position: pos, CreatedBy: f.owner}
			if err := tx.CreateTask(t); err != nil {
				return err
			}
			ids[i] = t.ID
		}
		return nil
	})
	require.NoError(f.t, err)
	return ids
}

func (f *fixture) tasks(listID uuid.UUID) []TaskView {
	f.t.Helper()
	tasks, err := f.svc.Tasks(f.ctx, f.owner, listID, store.ActiveOnly)
	require.NoError(f.t, err)
	return tasks
}

func taskIDs(tasks []TaskView) []uuid.UUID {
	out := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func taskPositions(tasks []TaskView) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.Position
	}
	return out
}

func (f *fixture) activityCount(taskID uuid.UUID) int {
	f.t.Helper()
	acts, err := f.svc.Activities(f.ctx, f.owner, taskID)
	require.NoError(f.t, err)
	return len(acts)
}

type snapshot struct {
	Board      model.Board
	Lists      []model.TaskList
	Tasks      []model.Task
	Members    []model.BoardMember
	Activities int
}

// snapshot captures everything a denied mutation must leave untouched.
func (f *fixture) snapshot() snapshot {
	f.t.Helper()
	var s snapshot
	err := f.store.View(f.ctx, func(tx store.Tx) error {
		b, err := tx.GetBoard(f.board)
		if err != nil {
			return err
		}
		s.Board = *b
		if s.Lists, err = tx.Lists(f.board, store.AllRows); err != nil {
			return err
		}
		for _, l := range s.Lists {
			tasks, err := tx.Tasks(l.ID, store.AllRows)
			if err != nil {
				return err
			}
			s.Tasks = append(s.Tasks, tasks...)
			for _, t := range tasks {
				acts, err := tx.Activities(t.ID)
				if err != nil {
					return err
				}
				s.Activities += len(acts)
			}
		}
		s.Members, err = tx.BoardMembers(f.board)
		return err
	})
	require.NoError(f.t, err)
	return s
}
