package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/store"
)

func TestStore_LockBoardSelectsForUpdate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	st := repository.NewStore(gormDB)
	boardID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "boards" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "private"}).AddRow(boardID.String(), "Launch", true))
	mock.ExpectCommit()

	var locked *model.Board
	err := st.Tx(context.Background(), func(tx store.Tx) error {
		var err error
		locked, err = tx.LockBoard(boardID)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, boardID, locked.ID)
	assert.True(t, locked.Private)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TxRollsBackOnError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	st := repository.NewStore(gormDB)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "task_lists" SET "position"=.* WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := st.Tx(context.Background(), func(tx store.Tx) error {
		if err := tx.UpdateListPosition(uuid.New(), 2000); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_MissingRowsAreNotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	st := repository.NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE id = `).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := st.View(context.Background(), func(tx store.Tx) error {
		_, err := tx.GetTask(uuid.New())
		return err
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "boards" WHERE id = `).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = st.Tx(context.Background(), func(tx store.Tx) error {
		return tx.DeleteBoard(uuid.New())
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListsFilterAndOrder(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	st := repository.NewStore(gormDB)
	boardID := uuid.New()
	first, second := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "task_lists" WHERE board_id = \$1 AND archived_at IS NULL ORDER BY position, created_at, id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "name", "position"}).
			AddRow(first.String(), boardID.String(), "Todo", 1000).
			AddRow(second.String(), boardID.String(), "Done", 2000))
	mock.ExpectCommit()

	var lists []model.TaskList
	err := st.View(context.Background(), func(tx store.Tx) error {
		var err error
		lists, err = tx.Lists(boardID, store.ActiveOnly)
		return err
	})

	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, first, lists[0].ID)
	assert.Equal(t, int64(2000), lists[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RolesDefaultToNone(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	st := repository.NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "workspace_members" WHERE workspace_id = \$1 AND user_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "board_members" WHERE board_id = \$1 AND user_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).AddRow(uuid.NewString(), "admin"))
	mock.ExpectCommit()

	var wsRole, boardRole model.Role
	err := st.View(context.Background(), func(tx store.Tx) error {
		var err error
		if wsRole, err = tx.WorkspaceRole(uuid.New(), uuid.New()); err != nil {
			return err
		}
		boardRole, err = tx.BoardRole(uuid.New(), uuid.New())
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, model.RoleNone, wsRole)
	assert.Equal(t, model.RoleAdmin, boardRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertBoardMember(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	st := repository.NewStore(gormDB)
	memberID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "board_members" .*ON CONFLICT \("board_id","user_id"\) DO UPDATE SET "role"="excluded"."role"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(memberID.String()))
	mock.ExpectCommit()

	m := &model.BoardMember{BoardID: uuid.New(), UserID: uuid.New(), Role: model.RoleMember}
	err := st.Tx(context.Background(), func(tx store.Tx) error {
		return tx.UpsertBoardMember(m)
	})

	require.NoError(t, err)
	assert.Equal(t, memberID, m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddBoardMemberLeavesExistingRow(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	st := repository.NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "board_members" .*ON CONFLICT \("board_id","user_id"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	var added bool
	err := st.Tx(context.Background(), func(tx store.Tx) error {
		var err error
		added, err = tx.AddBoardMember(&model.BoardMember{BoardID: uuid.New(), UserID: uuid.New(), Role: model.RoleMember})
		return err
	})

	require.NoError(t, err)
	assert.False(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateTaskWritesNamedColumns(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	st := repository.NewStore(gormDB)
	task := &model.Task{ID: uuid.New(), ListID: uuid.New(), Title: "Ship", Position: 1000}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET "title"=\$1,"updated_at"=\$2 WHERE`).
		WithArgs("Ship", sqlmock.AnyArg(), task.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.Tx(context.Background(), func(tx store.Tx) error {
		return tx.UpdateTask(task, store.ColTitle)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateListWritesNamedColumns(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	st := repository.NewStore(gormDB)
	list := &model.TaskList{ID: uuid.New(), Name: "Doing", Position: 3000}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "task_lists" SET "name"=\$1,"updated_at"=\$2 WHERE`).
		WithArgs("Doing", sqlmock.AnyArg(), list.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.Tx(context.Background(), func(tx store.Tx) error {
		return tx.UpdateList(list, store.ColName)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DuplicateJoinRequest(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	st := repository.NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "join_requests"`).WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	err := st.Tx(context.Background(), func(tx store.Tx) error {
		return tx.SaveJoinRequest(&model.JoinRequest{BoardID: uuid.New(), UserID: uuid.New(), Status: model.JoinPending})
	})

	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	notes := repository.NewNotificationRepository(gormDB)
	userID := uuid.New()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	err := notes.Append(ctx, []model.Notification{
		{UserID: userID, EventID: uuid.New(), Channel: "board.x", Event: "list.added", Data: map[string]any{}},
		{UserID: uuid.New(), EventID: uuid.New(), Channel: "board.x", Event: "list.added", Data: map[string]any{}},
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "notifications" WHERE user_id = \$1 AND created_at > \$2 ORDER BY created_at, id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "event"}).AddRow(uuid.NewString(), userID.String(), "list.added"))

	got, err := notes.ForUser(ctx, userID, time.Time{}, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "list.added", got[0].Event)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "read_at"=\$1 WHERE user_id = \$2 AND id IN \(\$3,\$4\) AND read_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := notes.MarkRead(ctx, userID, []uuid.UUID{uuid.New(), uuid.New()}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = notes.MarkRead(ctx, userID, nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
