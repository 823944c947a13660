// Package repository implements the storage contract on postgres through
// gorm. Every unit of work runs at READ COMMITTED; sibling sets are
// serialized by row locks on their parent.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskboard/internal/store"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to postgres. Driver errors for unique violations are
// translated so that they surface as store.ErrDuplicate.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	return db, nil
}

func (s *Store) Tx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: true})
}

// Users returns the account repository sharing the store's connection.
func (s *Store) Users() *UserRepository {
	return NewUserRepository(s.db)
}

// Notifications returns the notification log sharing the store's
// connection.
func (s *Store) Notifications() *NotificationRepository {
	return NewNotificationRepository(s.db)
}

// gormTx is bound to one database transaction.
type gormTx struct {
	db *gorm.DB
}

var _ store.Tx = (*gormTx)(nil)

func archived(q *gorm.DB, filter store.ArchiveFilter) *gorm.DB {
	switch filter {
	case store.ActiveOnly:
		return q.Where("archived_at IS NULL")
	case store.ArchivedOnly:
		return q.Where("archived_at IS NOT NULL")
	}
	return q
}
