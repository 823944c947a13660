package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
)

func (t *gormTx) CreateWorkspace(ws *model.Workspace) error {
	return translate(t.db.Create(ws).Error)
}

func (t *gormTx) GetWorkspace(id uuid.UUID) (*model.Workspace, error) {
	var ws model.Workspace
	if err := t.db.Where("id = ?", id).First(&ws).Error; err != nil {
		return nil, translate(err)
	}
	return &ws, nil
}

func (t *gormTx) WorkspaceMembers(workspaceID uuid.UUID) ([]model.WorkspaceMember, error) {
	var members []model.WorkspaceMember
	err := t.db.Where("workspace_id = ?", workspaceID).Order("created_at, id").Find(&members).Error
	return members, translate(err)
}

// UpsertWorkspaceMember inserts the membership or changes the role of the
// existing one. m is filled with the stored row.
func (t *gormTx) UpsertWorkspaceMember(m *model.WorkspaceMember) error {
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(m).Error
	return translate(err)
}

func (t *gormTx) WorkspaceRole(workspaceID, userID uuid.UUID) (model.Role, error) {
	var m model.WorkspaceMember
	err := t.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.RoleNone, nil
	}
	if err != nil {
		return model.RoleNone, err
	}
	return m.Role, nil
}
