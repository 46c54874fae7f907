package sqlx_test

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storage "hiscorekit/adapters/sqlx"
	"hiscorekit/core"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func TestSQLMock_ConditionalInsert(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	rank, err := core.EncodeRank(8, 1_700_000_000_000)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO hiscore_entries`).
		WithArgs("pocket", "ann", rank, "R U F", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM hiscore_entries`).
		WithArgs("pocket", "pocket", storage.DefaultRetain).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, store.ConditionalInsert(ctx, "pocket", "ann", rank, "R U F"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_ConditionalInsert_RollsBackOnError(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	rank, _ := core.EncodeRank(8, 1_700_000_000_000)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO hiscore_entries`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	require.Error(t, store.ConditionalInsert(ctx, "pocket", "ann", rank, "R U F"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_TopRange(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	rankAnn, _ := core.EncodeRank(3, 1_700_000_000_000)
	rankBob, _ := core.EncodeRank(5, 1_700_000_000_000)

	mock.ExpectQuery(`SELECT name, score FROM hiscore_entries`).
		WithArgs("pocket", 7, 0).
		WillReturnRows(sqlmock.NewRows([]string{"name", "score"}).
			AddRow("ann", rankAnn).
			AddRow("bob", rankBob))

	entries, err := store.TopRange(ctx, "pocket", 0, 6)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ann", entries[0].Name)
	assert.Equal(t, 3, core.DecodeRank(entries[0].Rank))
	assert.Equal(t, "bob", entries[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_TopRange_InvalidBounds(t *testing.T) {
	store, _, cleanup := newMockStore(t)
	defer cleanup()

	entries, err := store.TopRange(context.Background(), "pocket", 3, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSQLMock_EnsureSchema(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS hiscore_entries`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_ReconnectListeners(t *testing.T) {
	store, _, cleanup := newMockStore(t)
	defer cleanup()

	fired := 0
	remove := store.OnReconnect(func() { fired++ })
	store.FireReconnect()
	remove()
	remove()
	store.FireReconnect()
	assert.Equal(t, 1, fired)
}
