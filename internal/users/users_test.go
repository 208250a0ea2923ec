package users

import (
	"context"
	"testing"

	"pantry-planner/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	_, err := r.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := r.Upsert(ctx, Profile{UserID: "u1", Username: " Dewi ", DisplayName: "Dewi S."})
	require.NoError(t, err)
	assert.Equal(t, "dewi", p.Username)
	assert.False(t, p.CreatedAt.IsZero())

	p, err = r.Upsert(ctx, Profile{UserID: "u1", Username: "dewi", DisplayName: "Dewi"})
	require.NoError(t, err)
	assert.Equal(t, "Dewi", p.DisplayName)

	_, err = r.Upsert(ctx, Profile{UserID: "u2", Username: "DEWI"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.EqualError(t, err, "username is already taken")

	ok, err := r.UsernameAvailable(ctx, "u2", "dewi")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = r.UsernameAvailable(ctx, "u1", "dewi")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFeedback(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	first, err := r.AddFeedback(ctx, Feedback{UserID: "u1", Rating: 5, Message: " great "})
	require.NoError(t, err)
	assert.Positive(t, first.ID)
	_, err = r.AddFeedback(ctx, Feedback{UserID: "u2", Rating: 2})
	require.NoError(t, err)

	list, err := r.ListFeedback(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u2", list[0].UserID)
	assert.Equal(t, "great", list[1].Message)
}
