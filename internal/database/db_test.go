package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBInMemory(t *testing.T) {
	db, err := NewDB(MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.SQL.QueryRow(`SELECT COUNT(*) FROM feature_flags`).Scan(&n))
	assert.Equal(t, 4, n)

	for _, table := range []string{
		"ingredients", "recipes", "recipe_ingredients", "weekly_plans", "daily_recipes",
		"dataset_recipes", "recipe_embeddings", "user_profiles", "user_feedback", "execution_metrics",
	} {
		var name string
		err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestNewDBFileIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pantry.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()
}

func TestUniqueViolation(t *testing.T) {
	db, err := NewDB(MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	now := FormatTime(time.Now())
	_, err = db.SQL.Exec(`INSERT INTO user_profiles (user_id, username, created_at, updated_at) VALUES ('a','chef',?,?)`, now, now)
	require.NoError(t, err)
	_, err = db.SQL.Exec(`INSERT INTO user_profiles (user_id, username, created_at, updated_at) VALUES ('b','chef',?,?)`, now, now)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(nil))
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 123, time.UTC)
	got, err := ParseTime(FormatTime(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(got))

	zero, err := ParseTime("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}
