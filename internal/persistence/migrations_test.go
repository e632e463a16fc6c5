package persistence

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eventflow/migrations"
)

func TestMigrationFilesOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_tickets.sql": {Data: []byte("SELECT 2;")},
		"0001_init.sql":    {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("notes")},
		"old/0000.sql":     {Data: []byte("SELECT 0;")},
	}

	names, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_tickets.sql"}, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := migrationFiles(migrations.FS)
	require.NoError(t, err)
	assert.Contains(t, names, "0001_init.sql")
}
