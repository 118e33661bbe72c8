package repository

import (
	"context"
	"errors"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/utils"
)

const otpsCollection = "otps"

// OTPRepo keeps the latest one-time code per email.  Documents are never
// deleted; a used code is marked consumed and replaced by the next send.
type OTPRepo struct{ store docstore.Store }

func NewOTPRepo(store docstore.Store) *OTPRepo { return &OTPRepo{store: store} }

// Get returns the stored code for email together with its document version.
func (r *OTPRepo) Get(ctx context.Context, email string) (model.OTP, int64, error) {
	doc, err := r.store.ReadOne(ctx, otpsCollection, utils.NormalizeEmail(email))
	if errors.Is(err, docstore.ErrNotFound) {
		return model.OTP{}, 0, ErrNotFound
	}
	if err != nil {
		return model.OTP{}, 0, err
	}
	var o model.OTP
	if err := doc.Decode(&o); err != nil {
		return model.OTP{}, 0, err
	}
	return o, doc.Version, nil
}

// Put replaces the code for email, creating the document on first use.
func (r *OTPRepo) Put(ctx context.Context, email string, o model.OTP) error {
	email = utils.NormalizeEmail(email)
	data, err := docstore.Marshal(o)
	if err != nil {
		return err
	}
	_, version, err := r.Get(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		_, err = r.store.WriteIfAbsent(ctx, otpsCollection, email, data)
	case err == nil:
		_, err = r.store.ConditionalUpdate(ctx, otpsCollection, email, version, data)
	}
	if docstore.IsContractError(err) {
		return ErrConflict
	}
	return err
}

// Update writes o only if the stored code is still at version.
func (r *OTPRepo) Update(ctx context.Context, email string, version int64, o model.OTP) error {
	data, err := docstore.Marshal(o)
	if err != nil {
		return err
	}
	_, err = r.store.ConditionalUpdate(ctx, otpsCollection, utils.NormalizeEmail(email), version, data)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, docstore.ErrVersionMismatch):
		return ErrConflict
	}
	return err
}
