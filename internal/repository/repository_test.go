package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/library-seat-reservation/internal/docstore/memory"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/utils"
)

func TestUserCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(memory.New())

	u, err := repo.Create(ctx, "  Reader@Example.com ", "hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	_, err = uuid.Parse(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", u.Email)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "hunter22"))

	got, err := repo.GetByEmail(ctx, "READER@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.Create(ctx, "reader@example.com", "another1", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserGetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(memory.New())

	first, err := repo.GetOrCreate(ctx, "otp@example.com")
	require.NoError(t, err)
	assert.Empty(t, first.PasswordHash)

	second, err := repo.GetOrCreate(ctx, "OTP@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestOTPPutGetUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewOTPRepo(memory.New())

	_, _, err := repo.Get(ctx, "a@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	exp := time.Now().UTC().Add(5 * time.Minute).Truncate(time.Second)
	require.NoError(t, repo.Put(ctx, "a@example.com", model.OTP{CodeHash: "h1", ExpiresAt: exp}))

	o, v, err := repo.Get(ctx, "A@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h1", o.CodeHash)
	assert.True(t, exp.Equal(o.ExpiresAt))

	o.Attempts = 1
	require.NoError(t, repo.Update(ctx, "a@example.com", v, o))
	assert.ErrorIs(t, repo.Update(ctx, "a@example.com", v, o), ErrConflict)

	require.NoError(t, repo.Put(ctx, "a@example.com", model.OTP{CodeHash: "h2"}))
	o, _, err = repo.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h2", o.CodeHash)
	assert.Zero(t, o.Attempts)

	assert.ErrorIs(t, repo.Update(ctx, "missing@example.com", 1, o), ErrNotFound)
}
