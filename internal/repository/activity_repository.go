package repository

import (
	"github.com/google/uuid"

	"taskboard/internal/model"
)

func (t *gormTx) CreateActivity(a *model.Activity) error {
	return translate(t.db.Create(a).Error)
}

func (t *gormTx) GetActivity(id uuid.UUID) (*model.Activity, error) {
	var a model.Activity
	if err := t.db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (t *gormTx) UpdateActivity(a *model.Activity) error {
	return affected(t.db.Model(a).Select("details", "updated_at").Updates(a))
}

func (t *gormTx) DeleteActivity(id uuid.UUID) error {
	return affected(t.db.Where("id = ?", id).Delete(&model.Activity{}))
}

func (t *gormTx) Activities(taskID uuid.UUID) ([]model.Activity, error) {
	var acts []model.Activity
	err := t.db.Where("task_id = ?", taskID).Order("created_at DESC, id DESC").Find(&acts).Error
	return acts, translate(err)
}

func (t *gormTx) CreateAttachment(a *model.Attachment) error {
	return translate(t.db.Create(a).Error)
}

func (t *gormTx) GetAttachment(id uuid.UUID) (*model.Attachment, error) {
	var a model.Attachment
	if err := t.db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (t *gormTx) DeleteAttachment(id uuid.UUID) error {
	return affected(t.db.Where("id = ?", id).Delete(&model.Attachment{}))
}

func (t *gormTx) Attachments(taskID uuid.UUID) ([]model.Attachment, error) {
	var files []model.Attachment
	err := t.db.Where("task_id = ?", taskID).Order("created_at, id").Find(&files).Error
	return files, translate(err)
}
