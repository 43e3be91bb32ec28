package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestInMemoryStore_CreateAndGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess, err := store.Create(ctx, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Nil(t, sess.Token)
	assert.False(t, sess.Authenticated())

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestInMemoryStore_GetUnknown(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_SaveToken(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess, err := store.Create(ctx, time.Hour)
	require.NoError(t, err)

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
	require.NoError(t, store.SaveToken(ctx, sess.ID, token))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.True(t, got.Authenticated())
	assert.Equal(t, "access", got.Token.AccessToken)
	assert.Equal(t, "refresh", got.Token.RefreshToken)

	// Wholesale overwrite on refresh.
	require.NoError(t, store.SaveToken(ctx, sess.ID, &oauth2.Token{AccessToken: "access-2"}))
	got, err = store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.Token.AccessToken)
	assert.Empty(t, got.Token.RefreshToken)
}

func TestInMemoryStore_ClearToken(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess, err := store.Create(ctx, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.SaveToken(ctx, sess.ID, &oauth2.Token{AccessToken: "access"}))

	require.NoError(t, store.ClearToken(ctx, sess.ID))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, got.Authenticated())
}

func TestInMemoryStore_Expiry(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess, err := store.Create(ctx, -time.Second)
	require.NoError(t, err)

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess, err := store.Create(ctx, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_CopyIsolation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sess, err := store.Create(ctx, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.SaveToken(ctx, sess.ID, &oauth2.Token{AccessToken: "access"}))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	got.Token.AccessToken = "tampered"

	again, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "access", again.Token.AccessToken)
}
