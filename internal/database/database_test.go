package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestDSNFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "movies")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_SSLMODE", "")

	assert.Equal(t,
		"host=db.internal port=5432 user=postgres password= dbname=movies sslmode=disable",
		DSNFromEnv())

	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")
	assert.Equal(t, "postgres://u:p@h/db", DSNFromEnv())
}

func TestHealthAndClose(t *testing.T) {
	prev := DB
	defer func() { DB = prev }()

	DB = nil
	assert.Error(t, Health())
	assert.Error(t, Migrate())
	assert.NoError(t, Close())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	DB = db

	assert.NoError(t, Health())
	assert.NoError(t, Close())
	assert.Error(t, Health())
}
