package postgres

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/shopsage/crawler/internal/snapshot"
)

func TestStorePutUpsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "site_snapshots")
	require.NoError(t, err)

	snap := snapshot.Snapshot{StartURL: "https://shop.test", Aggregated: "content"}
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO site_snapshots").
		WithArgs("shop.test", payload).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Put(context.Background(), "shop.test", snap))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "site_snapshots")
	require.NoError(t, err)

	payload, err := json.Marshal(snapshot.Snapshot{Aggregated: "stored content"})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT snapshot FROM site_snapshots").
		WithArgs("shop.test").
		WillReturnRows(pgxmock.NewRows([]string{"snapshot"}).AddRow(payload))

	got, err := store.Get(context.Background(), "shop.test")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "stored content", got.Aggregated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetMissingRowReturnsNil(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "site_snapshots")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT snapshot FROM site_snapshots").
		WithArgs("nobody.test").
		WillReturnError(pgx.ErrNoRows)

	got, err := store.Get(context.Background(), "nobody.test")
	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreKeysListsRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "site_snapshots")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT site_key FROM site_snapshots").
		WillReturnRows(pgxmock.NewRows([]string{"site_key"}).
			AddRow("alpha.test").
			AddRow("beta.test"))

	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"alpha.test", "beta.test"}, keys)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolRejectsBadTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "snapshots; DROP TABLE users")
	require.Error(t, err)
}
