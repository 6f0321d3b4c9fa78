package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/storage"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteDialect_InsertSQL(t *testing.T) {
	d := NewSQLiteDialect()
	cols := []string{"code", "close"}

	assert.Equal(t, `INSERT OR IGNORE INTO "t" ("code", "close") VALUES (?, ?)`,
		d.InsertSQL("t", cols, storage.ModeIgnoreDuplicates, nil, nil))
	assert.Equal(t, `INSERT INTO "t" ("code", "close") VALUES (?, ?) ON CONFLICT ("code") DO UPDATE SET "close" = excluded."close"`,
		d.InsertSQL("t", cols, storage.ModeUpsert, []string{"code"}, []string{"close"}))
}

func TestSQLiteDialect_TableAndColumns(t *testing.T) {
	ctx := context.Background()
	d := NewSQLiteDialect()
	db := openTestDB(t)

	exists, err := d.TableExists(ctx, db, "t1")
	require.NoError(t, err)
	assert.False(t, exists)

	schema, err := storage.InferSchema("t1", tabular.MustNew(
		tabular.NewColumn("id", int64(1)),
		tabular.NewColumn("Name", "a"),
	), d)
	require.NoError(t, err)
	_, err = db.Exec(d.CreateTableSQL(schema))
	require.NoError(t, err)

	exists, err = d.TableExists(ctx, db, "t1")
	require.NoError(t, err)
	assert.True(t, exists)

	cols, err := d.ListColumns(ctx, db, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "Name"}, cols)
}

func TestSQLiteDialect_ClassifyError(t *testing.T) {
	d := NewSQLiteDialect()
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO missing (a) VALUES (1)`)
	require.Error(t, err)
	assert.Equal(t, storage.ReasonSchema, d.ClassifyError(err))

	_, err = db.Exec(`CREATE TABLE u (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO u (id) VALUES (1)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO u (id) VALUES (1)`)
	require.Error(t, err)
	assert.Equal(t, storage.ReasonConstraint, d.ClassifyError(err))
}

func TestSQLiteDialect_ConnParamsOnEveryConn(t *testing.T) {
	d := NewSQLiteDialect()
	dsn, err := d.NormalizeDSN("ak.db?_busy_timeout=5000")
	require.NoError(t, err)
	assert.Equal(t, "ak.db?_busy_timeout=5000&_synchronous=NORMAL", dsn)

	ctx := context.Background()
	pool, err := storage.OpenConnectionPool(ctx, d, filepath.Join(t.TempDir(), "conn.db"), storage.PoolConfig{MaxOpenConns: 2})
	require.NoError(t, err)
	defer pool.Close()

	first, err := pool.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := pool.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	for _, conn := range []*sqlx.Conn{first, second} {
		var timeout int
		require.NoError(t, conn.GetContext(ctx, &timeout, "PRAGMA busy_timeout"))
		assert.Equal(t, 30000, timeout)
	}
}
