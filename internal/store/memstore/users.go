package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// Users returns the user accounts of the store.
func (s *Store) Users() store.UserStore {
	return userStore{s: s}
}

type userStore struct {
	s *Store
}

func (u userStore) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.data.users {
		if existing.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = u.s.now()
	}
	u.s.data.users[user.ID] = *user
	return nil
}

func (u userStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, existing := range u.s.data.users {
		if existing.Email == email {
			return &existing, nil
		}
	}
	return nil, nil
}

func (u userStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.data.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// Notifications returns the durable notification log of the store.
func (s *Store) Notifications() store.NotificationLog {
	return notificationLog{s: s}
}

type notificationLog struct {
	s *Store
}

func (n notificationLog) Append(ctx context.Context, notifications []model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.s.fault("AppendNotifications"); err != nil {
		return err
	}
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	now := n.s.now()
	for _, note := range notifications {
		if note.ID == uuid.Nil {
			note.ID = uuid.New()
		}
		if note.CreatedAt.IsZero() {
			note.CreatedAt = now
		}
		note.Data = cloneJSON(note.Data)
		n.s.data.notifications = append(n.s.data.notifications, note)
	}
	return nil
}

func (n notificationLog) ForUser(ctx context.Context, userID uuid.UUID, after time.Time, limit int) ([]model.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.s.mu.RLock()
	defer n.s.mu.RUnlock()
	var out []model.Notification
	for _, note := range n.s.data.notifications {
		if note.UserID == userID && note.CreatedAt.After(after) {
			out = append(out, note)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (n notificationLog) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	var updated int64
	for i := range n.s.data.notifications {
		note := &n.s.data.notifications[i]
		if note.UserID == userID && want[note.ID] && note.ReadAt == nil {
			readAt := at
			note.ReadAt = &readAt
			updated++
		}
	}
	return updated, nil
}
