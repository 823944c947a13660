package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
)

func (t *gormTx) BoardMembers(boardID uuid.UUID) ([]model.BoardMember, error) {
	var members []model.BoardMember
	err := t.db.Where("board_id = ?", boardID).Order("created_at, id").Find(&members).Error
	return members, translate(err)
}

// UpsertBoardMember adds the user to the board or changes the role they
// hold. m is filled with the stored row.
func (t *gormTx) UpsertBoardMember(m *model.BoardMember) error {
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "board_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(m).Error
	return translate(err)
}

// AddBoardMember reports false when the pair already had a row.
func (t *gormTx) AddBoardMember(m *model.BoardMember) (bool, error) {
	res := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "board_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(m)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (t *gormTx) DeleteBoardMember(boardID, userID uuid.UUID) error {
	return affected(t.db.Where("board_id = ? AND user_id = ?", boardID, userID).Delete(&model.BoardMember{}))
}

// BoardRole returns RoleNone for users without a membership row.
func (t *gormTx) BoardRole(boardID, userID uuid.UUID) (model.Role, error) {
	var m model.BoardMember
	err := t.db.Where("board_id = ? AND user_id = ?", boardID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.RoleNone, nil
	}
	if err != nil {
		return model.RoleNone, err
	}
	return m.Role, nil
}

func (t *gormTx) FindJoinRequest(boardID, userID uuid.UUID) (*model.JoinRequest, error) {
	var req model.JoinRequest
	if err := t.db.Where("board_id = ? AND user_id = ?", boardID, userID).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (t *gormTx) GetJoinRequest(id uuid.UUID) (*model.JoinRequest, error) {
	var req model.JoinRequest
	if err := t.db.Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// SaveJoinRequest inserts a new request or updates the status of an
// existing one. A second request for the same pair is a duplicate.
func (t *gormTx) SaveJoinRequest(r *model.JoinRequest) error {
	if r.ID == uuid.Nil {
		return translate(t.db.Create(r).Error)
	}
	return affected(t.db.Model(r).Select("status", "updated_at").Updates(r))
}

func (t *gormTx) PendingJoinRequests(boardID uuid.UUID) ([]model.JoinRequest, error) {
	var reqs []model.JoinRequest
	err := t.db.Where("board_id = ? AND status = ?", boardID, model.JoinPending).
		Order("created_at, id").
		Find(&reqs).Error
	return reqs, translate(err)
}
