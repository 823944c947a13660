// Package memstore keeps the whole dataset in process memory. A write
// transaction works on a private copy that replaces the committed data only
// when the callback succeeds, so a failed callback leaves nothing behind.
// Write transactions are serialized by one mutex.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// ErrReadOnly is returned by writes attempted inside View.
var ErrReadOnly = errors.New("memstore: write inside read-only view")

// ErrDuplicate is returned when a unique pair already exists.
var ErrDuplicate = store.ErrDuplicate

type dataset struct {
	users         map[uuid.UUID]model.User
	workspaces    map[uuid.UUID]model.Workspace
	wsMembers     map[uuid.UUID]model.WorkspaceMember
	boards        map[uuid.UUID]model.Board
	boardMembers  map[uuid.UUID]model.BoardMember
	joinRequests  map[uuid.UUID]model.JoinRequest
	lists         map[uuid.UUID]model.TaskList
	tasks         map[uuid.UUID]model.Task
	activities    map[uuid.UUID]model.Activity
	attachments   map[uuid.UUID]model.Attachment
	notifications []model.Notification
}

func newDataset() *dataset {
	return &dataset{
		users:        map[uuid.UUID]model.User{},
		workspaces:   map[uuid.UUID]model.Workspace{},
		wsMembers:    map[uuid.UUID]model.WorkspaceMember{},
		boards:       map[uuid.UUID]model.Board{},
		boardMembers: map[uuid.UUID]model.BoardMember{},
		joinRequests: map[uuid.UUID]model.JoinRequest{},
		lists:        map[uuid.UUID]model.TaskList{},
		tasks:        map[uuid.UUID]model.Task{},
		activities:   map[uuid.UUID]model.Activity{},
		attachments:  map[uuid.UUID]model.Attachment{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneJSON(m datatypes.JSONMap) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		users:         cloneMap(d.users),
		workspaces:    cloneMap(d.workspaces),
		wsMembers:     cloneMap(d.wsMembers),
		boards:        cloneMap(d.boards),
		boardMembers:  cloneMap(d.boardMembers),
		joinRequests:  cloneMap(d.joinRequests),
		lists:         cloneMap(d.lists),
		tasks:         cloneMap(d.tasks),
		activities:    make(map[uuid.UUID]model.Activity, len(d.activities)),
		attachments:   cloneMap(d.attachments),
		notifications: d.notifications,
	}
	for id, a := range d.activities {
		a.Details = cloneJSON(a.Details)
		c.activities[id] = a
	}
	return c
}

// Store is an in-memory store.Store.
type Store struct {
	mu   sync.RWMutex
	data *dataset

	faultMu sync.Mutex
	faults  map[string]error

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		data:   newDataset(),
		faults: map[string]error{},
		now:    time.Now,
	}
}

// FailNext makes the next call of the named Tx method (for example
// "CreateActivity") return err. It is used to simulate storage failures.
func (s *Store) FailNext(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	return nil
}

func (s *Store) Tx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&memTx{s: s, d: work, writable: true}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{s: s, d: s.data})
}

type memTx struct {
	s        *Store
	d        *dataset
	writable bool
}

var _ store.Tx = (*memTx)(nil)

func (t *memTx) write(op string) error {
	if !t.writable {
		return fmt.Errorf("%s: %w", op, ErrReadOnly)
	}
	return t.s.fault(op)
}

func (t *memTx) read(op string) error {
	return t.s.fault(op)
}

func (t *memTx) stamp(id *uuid.UUID, created, updated *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	now := t.s.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func matches(archivedAt *time.Time, f store.ArchiveFilter) bool {
	switch f {
	case store.ActiveOnly:
		return archivedAt == nil
	case store.ArchivedOnly:
		return archivedAt != nil
	}
	return true
}

// Users

func (t *memTx) GetUser(id uuid.UUID) (*model.User, error) {
	if err := t.read("GetUser"); err != nil {
		return nil, err
	}
	u, ok := t.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

// Workspaces

func (t *memTx) CreateWorkspace(ws *model.Workspace) error {
	if err := t.write("CreateWorkspace"); err != nil {
		return err
	}
	t.stamp(&ws.ID, &ws.CreatedAt, &ws.UpdatedAt)
	t.d.workspaces[ws.ID] = *ws
	return nil
}

func (t *memTx) GetWorkspace(id uuid.UUID) (*model.Workspace, error) {
	if err := t.read("GetWorkspace"); err != nil {
		return nil, err
	}
	ws, ok := t.d.workspaces[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &ws, nil
}

func (t *memTx) WorkspaceMembers(workspaceID uuid.UUID) ([]model.WorkspaceMember, error) {
	if err := t.read("WorkspaceMembers"); err != nil {
		return nil, err
	}
	var out []model.WorkspaceMember
	for _, m := range t.d.wsMembers {
		if m.WorkspaceID == workspaceID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return createdLess(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (t *memTx) UpsertWorkspaceMember(m *model.WorkspaceMember) error {
	if err := t.write("UpsertWorkspaceMember"); err != nil {
		return err
	}
	for id, existing := range t.d.wsMembers {
		if existing.WorkspaceID == m.WorkspaceID && existing.UserID == m.UserID {
			existing.Role = m.Role
			t.d.wsMembers[id] = existing
			*m = existing
			return nil
		}
	}
	t.stamp(&m.ID, &m.CreatedAt, nil)
	t.d.wsMembers[m.ID] = *m
	return nil
}

func (t *memTx) WorkspaceRole(workspaceID, userID uuid.UUID) (model.Role, error) {
	if err := t.read("WorkspaceRole"); err != nil {
		return model.RoleNone, err
	}
	for _, m := range t.d.wsMembers {
		if m.WorkspaceID == workspaceID && m.UserID == userID {
			return m.Role, nil
		}
	}
	return model.RoleNone, nil
}

// Boards

func (t *memTx) CreateBoard(b *model.Board) error {
	if err := t.write("CreateBoard"); err != nil {
		return err
	}
	t.stamp(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	t.d.boards[b.ID] = *b
	return nil
}

func (t *memTx) GetBoard(id uuid.UUID) (*model.Board, error) {
	if err := t.read("GetBoard"); err != nil {
		return nil, err
	}
	b, ok := t.d.boards[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

// LockBoard needs no extra locking: the write mutex is already held.
func (t *memTx) LockBoard(id uuid.UUID) (*model.Board, error) {
	if err := t.write("LockBoard"); err != nil {
		return nil, err
	}
	return t.GetBoard(id)
}

func (t *memTx) UpdateBoard(b *model.Board) error {
	if err := t.write("UpdateBoard"); err != nil {
		return err
	}
	if _, ok := t.d.boards[b.ID]; !ok {
		return store.ErrNotFound
	}
	t.stamp(&b.ID, nil, &b.UpdatedAt)
	t.d.boards[b.ID] = *b
	return nil
}

func (t *memTx) DeleteBoard(id uuid.UUID) error {
	if err := t.write("DeleteBoard"); err != nil {
		return err
	}
	if _, ok := t.d.boards[id]; !ok {
		return store.ErrNotFound
	}
	for lid, l := range t.d.lists {
		if l.BoardID == id {
			t.dropList(lid)
		}
	}
	for mid, m := range t.d.boardMembers {
		if m.BoardID == id {
			delete(t.d.boardMembers, mid)
		}
	}
	for rid, r := range t.d.joinRequests {
		if r.BoardID == id {
			delete(t.d.joinRequests, rid)
		}
	}
	delete(t.d.boards, id)
	return nil
}

func (t *memTx) Boards(workspaceID uuid.UUID, filter store.ArchiveFilter) ([]model.Board, error) {
	if err := t.read("Boards"); err != nil {
		return nil, err
	}
	var out []model.Board
	for _, b := range t.d.boards {
		if b.WorkspaceID == workspaceID && matches(b.ArchivedAt, filter) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
		return createdLess(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (t *memTx) BoardMembers(boardID uuid.UUID) ([]model.BoardMember, error) {
	if err := t.read("BoardMembers"); err != nil {
		return nil, err
	}
	var out []model.BoardMember
	for _, m := range t.d.boardMembers {
		if m.BoardID == boardID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return createdLess(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (t *memTx) UpsertBoardMember(m *model.BoardMember) error {
	if err := t.write("UpsertBoardMember"); err != nil {
		return err
	}
	for id, existing := range t.d.boardMembers {
		if existing.BoardID == m.BoardID && existing.UserID == m.UserID {
			existing.Role = m.Role
			t.d.boardMembers[id] = existing
			*m = existing
			return nil
		}
	}
	t.stamp(&m.ID, &m.CreatedAt, nil)
	t.d.boardMembers[m.ID] = *m
	return nil
}

func (t *memTx) AddBoardMember(m *model.BoardMember) (bool, error) {
	if err := t.write("AddBoardMember"); err != nil {
		return false, err
	}
	for _, existing := range t.d.boardMembers {
		if existing.BoardID == m.BoardID && existing.UserID == m.UserID {
			return false, nil
		}
	}
	t.stamp(&m.ID, &m.CreatedAt, nil)
	t.d.boardMembers[m.ID] = *m
	return true, nil
}

func (t *memTx) DeleteBoardMember(boardID, userID uuid.UUID) error {
	if err := t.write("DeleteBoardMember"); err != nil {
		return err
	}
	for id, m := range t.d.boardMembers {
		if m.BoardID == boardID && m.UserID == userID {
			delete(t.d.boardMembers, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (t *memTx) BoardRole(boardID, userID uuid.UUID) (model.Role, error) {
	if err := t.read("BoardRole"); err != nil {
		return model.RoleNone, err
	}
	for _, m := range t.d.boardMembers {
		if m.BoardID == boardID && m.UserID == userID {
			return m.Role, nil
		}
	}
	return model.RoleNone, nil
}

// Join requests

func (t *memTx) FindJoinRequest(boardID, userID uuid.UUID) (*model.JoinRequest, error) {
	if err := t.read("FindJoinRequest"); err != nil {
		return nil, err
	}
	for _, r := range t.d.joinRequests {
		if r.BoardID == boardID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *memTx) GetJoinRequest(id uuid.UUID) (*model.JoinRequest, error) {
	if err := t.read("GetJoinRequest"); err != nil {
		return nil, err
	}
	r, ok := t.d.joinRequests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (t *memTx) SaveJoinRequest(r *model.JoinRequest) error {
	if err := t.write("SaveJoinRequest"); err != nil {
		return err
	}
	if _, ok := t.d.joinRequests[r.ID]; !ok {
		for _, existing := range t.d.joinRequests {
			if existing.BoardID == r.BoardID && existing.UserID == r.UserID {
				return fmt.Errorf("join request: %w", ErrDuplicate)
			}
		}
	}
	t.stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	t.d.joinRequests[r.ID] = *r
	return nil
}

func (t *memTx) PendingJoinRequests(boardID uuid.UUID) ([]model.JoinRequest, error) {
	if err := t.read("PendingJoinRequests"); err != nil {
		return nil, err
	}
	var out []model.JoinRequest
	for _, r := range t.d.joinRequests {
		if r.BoardID == boardID && r.Status == model.JoinPending {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return createdLess(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

// Lists

func (t *memTx) CreateList(l *model.TaskList) error {
	if err := t.write("CreateList"); err != nil {
		return err
	}
	t.stamp(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	t.d.lists[l.ID] = *l
	return nil
}

func (t *memTx) GetList(id uuid.UUID) (*model.TaskList, error) {
	if err := t.read("GetList"); err != nil {
		return nil, err
	}
	l, ok := t.d.lists[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &l, nil
}

func (t *memTx) LockList(id uuid.UUID) (*model.TaskList, error) {
	if err := t.write("LockList"); err != nil {
		return nil, err
	}
	return t.GetList(id)
}

func (t *memTx) UpdateList(l *model.TaskList, columns ...string) error {
	if err := t.write("UpdateList"); err != nil {
		return err
	}
	stored, ok := t.d.lists[l.ID]
	if !ok {
		return store.ErrNotFound
	}
	for _, col := range columns {
		switch col {
		case store.ColName:
			stored.Name = l.Name
		case store.ColPosition:
			stored.Position = l.Position
		case store.ColArchivedAt:
			stored.ArchivedAt = l.ArchivedAt
		default:
			return fmt.Errorf("memstore: task_lists has no column %q", col)
		}
	}
	t.stamp(&l.ID, nil, &l.UpdatedAt)
	stored.UpdatedAt = l.UpdatedAt
	t.d.lists[l.ID] = stored
	return nil
}

func (t *memTx) UpdateListPosition(id uuid.UUID, position int64) error {
	if err := t.write("UpdateListPosition"); err != nil {
		return err
	}
	l, ok := t.d.lists[id]
	if !ok {
		return store.ErrNotFound
	}
	l.Position = position
	l.UpdatedAt = t.s.now()
	t.d.lists[id] = l
	return nil
}

func (t *memTx) DeleteList(id uuid.UUID) error {
	if err := t.write("DeleteList"); err != nil {
		return err
	}
	if _, ok := t.d.lists[id]; !ok {
		return store.ErrNotFound
	}
	t.dropList(id)
	return nil
}

func (t *memTx) dropList(id uuid.UUID) {
	for tid, task := range t.d.tasks {
		if task.ListID == id {
			t.dropTask(tid)
		}
	}
	delete(t.d.lists, id)
}

func (t *memTx) Lists(boardID uuid.UUID, filter store.ArchiveFilter) ([]model.TaskList, error) {
	if err := t.read("Lists"); err != nil {
		return nil, err
	}
	var out []model.TaskList
	for _, l := range t.d.lists {
		if l.BoardID == boardID && matches(l.ArchivedAt, filter) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return positionLess(out[i].Position, out[j].Position, out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func positionLess(pi, pj int64, ci, cj time.Time, ii, ij uuid.UUID) bool {
	if pi != pj {
		return pi < pj
	}
	return createdLess(ci, cj, ii, ij)
}

func createdLess(ci, cj time.Time, ii, ij uuid.UUID) bool {
	if !ci.Equal(cj) {
		return ci.Before(cj)
	}
	return ii.String() < ij.String()
}

// Tasks

func (t *memTx) CreateTask(task *model.Task) error {
	if err := t.write("CreateTask"); err != nil {
		return err
	}
	t.stamp(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	t.d.tasks[task.ID] = *task
	return nil
}

func (t *memTx) GetTask(id uuid.UUID) (*model.Task, error) {
	if err := t.read("GetTask"); err != nil {
		return nil, err
	}
	task, ok := t.d.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &task, nil
}

func (t *memTx) UpdateTask(task *model.Task, columns ...string) error {
	if err := t.write("UpdateTask"); err != nil {
		return err
	}
	stored, ok := t.d.tasks[task.ID]
	if !ok {
		return store.ErrNotFound
	}
	for _, col := range columns {
		switch col {
		case store.ColListID:
			stored.ListID = task.ListID
		case store.ColTitle:
			stored.Title = task.Title
		case store.ColDescription:
			stored.Description = task.Description
		case store.ColCompleted:
			stored.Completed = task.Completed
		case store.ColDueDate:
			stored.DueDate = task.DueDate
		case store.ColPosition:
			stored.Position = task.Position
		case store.ColArchivedAt:
			stored.ArchivedAt = task.ArchivedAt
		default:
			return fmt.Errorf("memstore: tasks has no column %q", col)
		}
	}
	t.stamp(&task.ID, nil, &task.UpdatedAt)
	stored.UpdatedAt = task.UpdatedAt
	t.d.tasks[task.ID] = stored
	return nil
}

func (t *memTx) UpdateTaskPosition(id uuid.UUID, position int64) error {
	if err := t.write("UpdateTaskPosition"); err != nil {
		return err
	}
	task, ok := t.d.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	task.Position = position
	task.UpdatedAt = t.s.now()
	t.d.tasks[id] = task
	return nil
}

func (t *memTx) DeleteTask(id uuid.UUID) error {
	if err := t.write("DeleteTask"); err != nil {
		return err
	}
	if _, ok := t.d.tasks[id]; !ok {
		return store.ErrNotFound
	}
	t.dropTask(id)
	return nil
}

func (t *memTx) dropTask(id uuid.UUID) {
	for aid, a := range t.d.activities {
		if a.TaskID == id {
			delete(t.d.activities, aid)
		}
	}
	for aid, a := range t.d.attachments {
		if a.TaskID == id {
			delete(t.d.attachments, aid)
		}
	}
	delete(t.d.tasks, id)
}

func (t *memTx) Tasks(listID uuid.UUID, filter store.ArchiveFilter) ([]model.Task, error) {
	if err := t.read("Tasks"); err != nil {
		return nil, err
	}
	var out []model.Task
	for _, task := range t.d.tasks {
		if task.ListID == listID && matches(task.ArchivedAt, filter) {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return positionLess(out[i].Position, out[j].Position, out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// Activity

func (t *memTx) CreateActivity(a *model.Activity) error {
	if err := t.write("CreateActivity"); err != nil {
		return err
	}
	t.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	stored := *a
	stored.Details = cloneJSON(a.Details)
	t.d.activities[a.ID] = stored
	return nil
}

func (t *memTx) GetActivity(id uuid.UUID) (*model.Activity, error) {
	if err := t.read("GetActivity"); err != nil {
		return nil, err
	}
	a, ok := t.d.activities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	a.Details = cloneJSON(a.Details)
	return &a, nil
}

func (t *memTx) UpdateActivity(a *model.Activity) error {
	if err := t.write("UpdateActivity"); err != nil {
		return err
	}
	if _, ok := t.d.activities[a.ID]; !ok {
		return store.ErrNotFound
	}
	t.stamp(&a.ID, nil, &a.UpdatedAt)
	stored := *a
	stored.Details = cloneJSON(a.Details)
	t.d.activities[a.ID] = stored
	return nil
}

func (t *memTx) DeleteActivity(id uuid.UUID) error {
	if err := t.write("DeleteActivity"); err != nil {
		return err
	}
	if _, ok := t.d.activities[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.d.activities, id)
	return nil
}

func (t *memTx) Activities(taskID uuid.UUID) ([]model.Activity, error) {
	if err := t.read("Activities"); err != nil {
		return nil, err
	}
	var out []model.Activity
	for _, a := range t.d.activities {
		if a.TaskID == taskID {
			a.Details = cloneJSON(a.Details)
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

// Attachments

func (t *memTx) CreateAttachment(a *model.Attachment) error {
	if err := t.write("CreateAttachment"); err != nil {
		return err
	}
	for _, existing := range t.d.attachments {
		if existing.ObjectKey == a.ObjectKey {
			return fmt.Errorf("attachment key %s: %w", a.ObjectKey, ErrDuplicate)
		}
	}
	t.stamp(&a.ID, &a.CreatedAt, nil)
	t.d.attachments[a.ID] = *a
	return nil
}

func (t *memTx) GetAttachment(id uuid.UUID) (*model.Attachment, error) {
	if err := t.read("GetAttachment"); err != nil {
		return nil, err
	}
	a, ok := t.d.attachments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (t *memTx) DeleteAttachment(id uuid.UUID) error {
	if err := t.write("DeleteAttachment"); err != nil {
		return err
	}
	if _, ok := t.d.attachments[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.d.attachments, id)
	return nil
}

func (t *memTx) Attachments(taskID uuid.UUID) ([]model.Attachment, error) {
	if err := t.read("Attachments"); err != nil {
		return nil, err
	}
	var out []model.Attachment
	for _, a := range t.d.attachments {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return createdLess(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}
