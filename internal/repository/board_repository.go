package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

func (t *gormTx) CreateBoard(b *model.Board) error {
	return translate(t.db.Create(b).Error)
}

func (t *gormTx) GetBoard(id uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := t.db.Where("id = ?", id).First(&board).Error; err != nil {
		return nil, translate(err)
	}
	return &board, nil
}

func (t *gormTx) LockBoard(id uuid.UUID) (*model.Board, error) {
	var board model.Board
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&board).Error
	if err != nil {
		return nil, translate(err)
	}
	return &board, nil
}

func (t *gormTx) UpdateBoard(b *model.Board) error {
	return affected(t.db.Model(b).Select("name", "private", "owner_id", "archived_at", "updated_at").Updates(b))
}

// DeleteBoard removes the board; lists, tasks, history, files and
// memberships go with it through ON DELETE CASCADE.
func (t *gormTx) DeleteBoard(id uuid.UUID) error {
	return affected(t.db.Where("id = ?", id).Delete(&model.Board{}))
}

func (t *gormTx) Boards(workspaceID uuid.UUID, filter store.ArchiveFilter) ([]model.Board, error) {
	var boards []model.Board
	q := archived(t.db.Where("workspace_id = ?", workspaceID), filter)
	err := q.Order("lower(name), created_at, id").Find(&boards).Error
	return boards, translate(err)
}
