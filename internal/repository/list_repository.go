package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

func (t *gormTx) CreateList(l *model.TaskList) error {
	return translate(t.db.Create(l).Error)
}

func (t *gormTx) GetList(id uuid.UUID) (*model.TaskList, error) {
	var list model.TaskList
	if err := t.db.Where("id = ?", id).First(&list).Error; err != nil {
		return nil, translate(err)
	}
	return &list, nil
}

func (t *gormTx) LockList(id uuid.UUID) (*model.TaskList, error) {
	var list model.TaskList
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&list).Error
	if err != nil {
		return nil, translate(err)
	}
	return &list, nil
}

func (t *gormTx) UpdateList(l *model.TaskList, columns ...string) error {
	return affected(t.db.Model(l).Select(withUpdatedAt(columns)).Updates(l))
}

func (t *gormTx) UpdateListPosition(id uuid.UUID, position int64) error {
	return affected(t.db.Model(&model.TaskList{}).Where("id = ?", id).Update("position", position))
}

func (t *gormTx) DeleteList(id uuid.UUID) error {
	return affected(t.db.Where("id = ?", id).Delete(&model.TaskList{}))
}

// Lists returns the lists of a board in position order.
func (t *gormTx) Lists(boardID uuid.UUID, filter store.ArchiveFilter) ([]model.TaskList, error) {
	var lists []model.TaskList
	q := archived(t.db.Where("board_id = ?", boardID), filter)
	err := q.Order("position, created_at, id").Find(&lists).Error
	return lists, translate(err)
}
