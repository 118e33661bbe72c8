package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/utils"
)

const usersCollection = "users"

// UserRepo keeps accounts in the users collection keyed by normalised email.
type UserRepo struct{ store docstore.Store }

func NewUserRepo(store docstore.Store) *UserRepo { return &UserRepo{store: store} }

// Create inserts a user.  An empty password creates an account that can
// only sign in with a one-time code.
func (r *UserRepo) Create(ctx context.Context, email, password string, cost int) (model.User, error) {
	u := model.User{
		ID:        uuid.NewString(),
		Email:     utils.NormalizeEmail(email),
		CreatedAt: time.Now().UTC(),
	}
	if password != "" {
		hash, err := utils.HashPassword(password, cost)
		if err != nil {
			return model.User{}, err
		}
		u.PasswordHash = hash
	}
	data, err := docstore.Marshal(u)
	if err != nil {
		return model.User{}, err
	}
	if _, err := r.store.WriteIfAbsent(ctx, usersCollection, u.Email, data); err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	doc, err := r.store.ReadOne(ctx, usersCollection, utils.NormalizeEmail(email))
	if errors.Is(err, docstore.ErrNotFound) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if err := doc.Decode(&u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetOrCreate returns the user for email, creating a password-less account
// on first sign-in.  A concurrent creation is resolved by reading the
// winner's record.
func (r *UserRepo) GetOrCreate(ctx context.Context, email string) (model.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return u, err
	}
	u, err = r.Create(ctx, email, "", 0)
	if errors.Is(err, ErrEmailExists) {
		return r.GetByEmail(ctx, email)
	}
	return u, err
}
