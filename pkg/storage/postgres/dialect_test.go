package postgres

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/akshare-warehouse/pkg/storage"
	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

func TestPostgresDialect_InsertSQL(t *testing.T) {
	d := NewPostgresDialect()
	cols := []string{"code", "close"}

	assert.Equal(t, `INSERT INTO "t" ("code", "close") VALUES ($1, $2)`,
		d.InsertSQL("t", cols, storage.ModePlain, nil, nil))
	assert.Equal(t, `INSERT INTO "t" ("code", "close") VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		d.InsertSQL("t", cols, storage.ModeIgnoreDuplicates, nil, nil))
	assert.Equal(t, `INSERT INTO "t" ("code", "close") VALUES ($1, $2) ON CONFLICT ("code") DO UPDATE SET "close" = EXCLUDED."close"`,
		d.InsertSQL("t", cols, storage.ModeUpsert, []string{"code"}, []string{"close"}))
}

func TestPostgresDialect_CreateTableSQL(t *testing.T) {
	d := NewPostgresDialect()
	schema, err := storage.InferSchema("t", tabular.MustNew(
		tabular.NewColumn("ok", true),
		tabular.NewColumn("v", 1.0),
	), d)
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "t" ("ok" BOOLEAN, "v" DOUBLE PRECISION)`, d.CreateTableSQL(schema))
}

func TestPostgresDialect_ClassifyError(t *testing.T) {
	d := NewPostgresDialect()
	wrap := func(code string) error {
		return fmt.Errorf("exec: %w", &pq.Error{Code: pq.ErrorCode(code)})
	}
	assert.Equal(t, storage.ReasonConstraint, d.ClassifyError(wrap("23505")))
	assert.Equal(t, storage.ReasonSchema, d.ClassifyError(wrap("42P01")))
	assert.Equal(t, storage.ReasonConnection, d.ClassifyError(wrap("08006")))
	assert.Equal(t, storage.ReasonUnknown, d.ClassifyError(wrap("XX000")))
}

func TestPostgresDialect_NormalizeDSN(t *testing.T) {
	d := NewPostgresDialect()
	out, err := d.NormalizeDSN("postgres://u:p@localhost:5432/ak?sslmode=disable")
	require.NoError(t, err)
	assert.Regexp(t, `dbname='?ak'?`, out)
	assert.Regexp(t, `sslmode='?disable'?`, out)

	out, err = d.NormalizeDSN("host=localhost dbname=ak")
	require.NoError(t, err)
	assert.Equal(t, "host=localhost dbname=ak", out)
}
