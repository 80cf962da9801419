package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/useradmin/userapi/shared/errs"
	"github.com/useradmin/userapi/shared/models"
	"github.com/useradmin/userapi/shared/utils"
)

var columnNames = []string{
	"id", "login", "password", "name", "gender", "birthday", "admin",
	"created_at", "created_by", "modified_at", "modified_by", "revoked_at", "revoked_by",
}

func newMockStore(t *testing.T) (*PostgresAccountStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := NewPostgresAccountStore(db, utils.PlainHasher{}).WithClock(func() time.Time { return storeNow })
	return store, mock
}

func accountRow(rows *sqlmock.Rows, id, login string, revoked bool) *sqlmock.Rows {
	var revokedAt, revokedBy any
	if revoked {
		revokedAt = storeNow
		revokedBy = "admin"
	}
	return rows.AddRow(id, login, "pw_"+login, "Name "+login, int64(1), storeNow.AddDate(-30, 0, 0), false,
		storeNow, models.SystemActor, storeNow, models.SystemActor, revokedAt, revokedBy)
}

func TestPostgresAccountStore_Add(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	account := testAccount("1", "alice", storeNow)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs("1", "alice", "pw_alice", "Name alice", sqlmock.AnyArg(), sqlmock.AnyArg(), false,
			sqlmock.AnyArg(), models.SystemActor, sqlmock.AnyArg(), models.SystemActor, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	got, err := store.Add(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, account, got)
	assert.NotSame(t, account, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountStore_Add_UniqueViolation(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.Add(ctx, testAccount("1", "alice", storeNow))
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountStore_GetByLogin(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE lower(login) = lower($1)")).
		WithArgs("Alice").
		WillReturnRows(accountRow(sqlmock.NewRows(columnNames), "1", "alice", false))

	got, err := store.GetByLogin(ctx, "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, models.GenderMale, got.Gender)
	require.NotNil(t, got.Birthday)
	assert.Nil(t, got.RevokedAt)
	assert.Empty(t, got.RevokedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountStore_GetByLogin_NotFound(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE lower(login) = lower($1)")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByLogin(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	// blank logins never reach the database
	_, err = store.GetByLogin(ctx, "   ")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountStore_GetByLoginAndPassword(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	query := regexp.QuoteMeta("FROM accounts WHERE lower(login) = lower($1)")

	mock.ExpectQuery(query).WithArgs("alice").
		WillReturnRows(accountRow(sqlmock.NewRows(columnNames), "1", "alice", false))
	got, err := store.GetByLoginAndPassword(ctx, "alice", "pw_alice")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	mock.ExpectQuery(query).WithArgs("alice").
		WillReturnRows(accountRow(sqlmock.NewRows(columnNames), "1", "alice", false))
	_, err = store.GetByLoginAndPassword(ctx, "alice", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(query).WithArgs("bob").
		WillReturnRows(accountRow(sqlmock.NewRows(columnNames), "2", "bob", true))
	_, err = store.GetByLoginAndPassword(ctx, "bob", "pw_bob")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountStore_GetAllActive(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows(columnNames)
	accountRow(rows, "1", "alice", false)
	accountRow(rows, "2", "bob", false)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE revoked_at IS NULL ORDER BY created_at ASC")).
		WillReturnRows(rows)

	got, err := store.GetAllActive(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Login)
	assert.Equal(t, "bob", got[1].Login)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountStore_GetOlderThan_UsesCutoff(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("birthday IS NOT NULL AND birthday <= $1")).
		WithArgs(storeNow.AddDate(-30, 0, 0)).
		WillReturnRows(sqlmock.NewRows(columnNames))

	got, err := store.GetOlderThan(ctx, 30)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountStore_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	account := testAccount("1", "alice", storeNow)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs("1", "alice", "pw_alice", "Name alice", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), models.SystemActor, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Update(ctx, account))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WillReturnError(&pq.Error{Code: "23505"})
	assert.ErrorIs(t, store.Update(ctx, account), errs.ErrConflict)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1")).
		WithArgs("1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Delete(ctx, account))

	assert.NoError(t, mock.ExpectationsWereMet())
}
