package db

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-backend/migrations"
)

func TestReadMigrationsOrdersByNumber(t *testing.T) {
	fsys := fstest.MapFS{
		"010_add_index.sql":          {Data: []byte("CREATE INDEX x ON t (a);")},
		"002_second_step.sql":        {Data: []byte("SELECT 2;")},
		"nested/001_initial.sql":     {Data: []byte("SELECT 1;")},
		"README.md":                  {Data: []byte("docs")},
		"draft.sql":                  {Data: []byte("SELECT 0;")},
		"xyz_not_numbered.sql":       {Data: []byte("SELECT 3;")},
		"003_multi_part_name.up.sql": {Data: []byte("SELECT 4;")},
	}
	ms, err := readMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, ms, 4)

	assert.Equal(t, 1, ms[0].Number)
	assert.Equal(t, "initial", ms[0].Name)
	assert.Equal(t, 2, ms[1].Number)
	assert.Equal(t, "second_step", ms[1].Name)
	assert.Equal(t, "multi_part_name.up", ms[2].Name)
	assert.Equal(t, 10, ms[3].Number)
	assert.Equal(t, "CREATE INDEX x ON t (a);", ms[3].SQL)
}

func TestEmbeddedMigrations(t *testing.T) {
	ms, err := readMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, 1, ms[0].Number)
	assert.Contains(t, ms[0].SQL, "intake_messages")
}

func TestWithSSLDisabled(t *testing.T) {
	assert.Equal(t, "postgres://u@h/db?sslmode=disable", withSSLDisabled("postgres://u@h/db"))
	assert.Equal(t, "postgres://u@h/db?x=1&sslmode=disable", withSSLDisabled("postgres://u@h/db?x=1"))
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}

func TestRunMigrationsAgainstPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set")
	}
	ctx := context.Background()
	database, err := New(ctx, dsn)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.RunMigrations(ctx, migrations.FS))
	require.NoError(t, database.RunMigrations(ctx, migrations.FS), "second run is a no-op")
	require.NoError(t, database.HealthCheck(ctx))
}
