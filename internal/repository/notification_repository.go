package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// NotificationRepository is the durable per-user notification log.
type NotificationRepository struct {
	db *gorm.DB
}

var _ store.NotificationLog = (*NotificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Append writes all notifications of one event in a single insert.
func (r *NotificationRepository) Append(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&notifications).Error)
}

func (r *NotificationRepository) ForUser(ctx context.Context, userID uuid.UUID, after time.Time, limit int) ([]model.Notification, error) {
	var notes []model.Notification
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at > ?", userID, after).
		Order("created_at, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&notes).Error
	return notes, translate(err)
}

// MarkRead stamps unread notifications owned by userID. Ids of other
// users are ignored.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND id IN ? AND read_at IS NULL", userID, ids).
		Update("read_at", at)
	return res.RowsAffected, translate(res.Error)
}
