// Package service applies every mutation of the board engine: it checks
// the actor against the access rules, changes state inside one storage
// transaction, records task activity, and publishes change events once the
// transaction has committed.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskboard/internal/access"
	"taskboard/internal/fanout"
	"taskboard/internal/model"
	"taskboard/internal/objectstore"
	"taskboard/internal/store"
)

type Service struct {
	store   store.Store
	events  fanout.Publisher
	objects objectstore.Store
	log     zerolog.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithObjectStore(o objectstore.Store) Option {
	return func(s *Service) { s.objects = o }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, events fanout.Publisher, opts ...Option) *Service {
	s := &Service{
		store:   st,
		events:  events,
		objects: objectstore.NewMemory(),
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "service").Logger()
	return s
}

// unit is one transaction on behalf of one actor. Events collected here
// are published only after the transaction commits.
type unit struct {
	s      *Service
	tx     store.Tx
	actor  uuid.UUID
	events []fanout.ChangeEvent
	after  []func()
}

func (s *Service) run(ctx context.Context, actor uuid.UUID, fn func(u *unit) error) error {
	var committed *unit
	err := s.store.Tx(ctx, func(tx store.Tx) error {
		u := &unit{s: s, tx: tx, actor: actor}
		if err := fn(u); err != nil {
			return err
		}
		committed = u
		return nil
	})
	if err != nil {
		return classify(err)
	}
	for _, ev := range committed.events {
		s.events.Publish(ev)
	}
	for _, f := range committed.after {
		f()
	}
	return nil
}

func (s *Service) view(ctx context.Context, actor uuid.UUID, fn func(u *unit) error) error {
	err := s.store.View(ctx, func(tx store.Tx) error {
		return fn(&unit{s: s, tx: tx, actor: actor})
	})
	return classify(err)
}

// afterCommit runs f once the transaction has committed.
func (u *unit) afterCommit(f func()) {
	u.after = append(u.after, f)
}

func (u *unit) board(id uuid.UUID) (*model.Board, error) {
	b, err := u.tx.GetBoard(id)
	if err != nil {
		return nil, lookup(err, "board")
	}
	return b, nil
}

func (u *unit) list(id uuid.UUID) (*model.TaskList, *model.Board, error) {
	l, err := u.tx.GetList(id)
	if err != nil {
		return nil, nil, lookup(err, "list")
	}
	b, err := u.board(l.BoardID)
	if err != nil {
		return nil, nil, err
	}
	return l, b, nil
}

func (u *unit) task(id uuid.UUID) (*model.Task, *model.Board, error) {
	t, err := u.tx.GetTask(id)
	if err != nil {
		return nil, nil, lookup(err, "task")
	}
	b, err := u.board(t.BoardID)
	if err != nil {
		return nil, nil, err
	}
	return t, b, nil
}

// relockTask locks the list holding t and returns the task as stored
// under that lock.
func (u *unit) relockTask(t *model.Task) (*model.Task, error) {
	if _, err := u.tx.LockList(t.ListID); err != nil {
		return nil, lookup(err, "list")
	}
	fresh, err := u.tx.GetTask(t.ID)
	if err != nil {
		return nil, lookup(err, "task")
	}
	if fresh.ListID != t.ListID {
		return nil, conflict("task was moved concurrently")
	}
	return fresh, nil
}

// relockList locks the board holding l and returns the list as stored
// under that lock.
func (u *unit) relockList(l *model.TaskList) (*model.TaskList, error) {
	if _, err := u.tx.LockBoard(l.BoardID); err != nil {
		return nil, lookup(err, "board")
	}
	fresh, err := u.tx.GetList(l.ID)
	if err != nil {
		return nil, lookup(err, "list")
	}
	return fresh, nil
}

// lockBoard locks a board and returns it as stored under the lock.
func (u *unit) lockBoard(id uuid.UUID) (*model.Board, error) {
	b, err := u.tx.LockBoard(id)
	if err != nil {
		return nil, lookup(err, "board")
	}
	return b, nil
}

func lookup(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(what)
	}
	return err
}

// authorize resolves the actor's roles on board and checks action.
func (u *unit) authorize(action access.Action, b *model.Board, facts ...func(*access.Facts)) (access.Roles, error) {
	roles, err := access.Resolve(u.tx, u.actor, access.BoardContainer(b))
	if err != nil {
		return access.Roles{}, err
	}
	f := access.Facts{Roles: roles}
	for _, apply := range facts {
		apply(&f)
	}
	if !access.Allow(action, f) {
		return roles, forbidden(action)
	}
	return roles, nil
}

// recipients is every board member plus every workspace manager.
func (u *unit) recipients(b *model.Board) ([]uuid.UUID, error) {
	members, err := u.tx.BoardMembers(b.ID)
	if err != nil {
		return nil, err
	}
	wsMembers, err := u.tx.WorkspaceMembers(b.WorkspaceID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(members)+len(wsMembers))
	var out []uuid.UUID
	add := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, m := range members {
		add(m.UserID)
	}
	for _, m := range wsMembers {
		if m.Role.Elevated() {
			add(m.UserID)
		}
	}
	return out, nil
}

// boardEvent queues an event on the board channel.
func (u *unit) boardEvent(b *model.Board, name string, payload map[string]any) error {
	recipients, err := u.recipients(b)
	if err != nil {
		return err
	}
	payload["board_id"] = b.ID
	u.events = append(u.events, fanout.ChangeEvent{
		ID:         uuid.New(),
		Channel:    fanout.BoardChannel(b.ID),
		Name:       name,
		SenderID:   u.actor,
		Payload:    payload,
		OccurredAt: u.s.now(),
		Recipients: recipients,
	})
	return nil
}

// userEvent queues an event addressed to one user.
func (u *unit) userEvent(userID uuid.UUID, name string, payload map[string]any) {
	u.events = append(u.events, fanout.ChangeEvent{
		ID:         uuid.New(),
		Channel:    fanout.UserChannel(userID),
		Name:       name,
		SenderID:   u.actor,
		Payload:    payload,
		OccurredAt: u.s.now(),
		Recipients: []uuid.UUID{userID},
	})
}

// record appends one activity entry to the task history.
func (u *unit) record(t *model.Task, kind model.ActivityKind, action, content string) (*model.Activity, error) {
	a := &model.Activity{
		TaskID:  t.ID,
		UserID:  u.actor,
		Kind:    kind,
		Details: map[string]any{"type": action, "content": content},
	}
	if err := u.tx.CreateActivity(a); err != nil {
		return nil, err
	}
	return a, nil
}
