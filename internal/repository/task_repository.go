package repository

import (
	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

func (t *gormTx) CreateTask(task *model.Task) error {
	return translate(t.db.Create(task).Error)
}

func (t *gormTx) GetTask(id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := t.db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// UpdateTask writes the named columns and updated_at. Columns left out
// keep whatever a concurrent transaction stored.
func (t *gormTx) UpdateTask(task *model.Task, columns ...string) error {
	return affected(t.db.Model(task).Select(withUpdatedAt(columns)).Updates(task))
}

func (t *gormTx) UpdateTaskPosition(id uuid.UUID, position int64) error {
	return affected(t.db.Model(&model.Task{}).Where("id = ?", id).Update("position", position))
}

func (t *gormTx) DeleteTask(id uuid.UUID) error {
	return affected(t.db.Where("id = ?", id).Delete(&model.Task{}))
}

// Tasks returns the tasks of a list in position order.
func (t *gormTx) Tasks(listID uuid.UUID, filter store.ArchiveFilter) ([]model.Task, error) {
	var tasks []model.Task
	q := archived(t.db.Where("list_id = ?", listID), filter)
	err := q.Order("position, created_at, id").Find(&tasks).Error
	return tasks, translate(err)
}
