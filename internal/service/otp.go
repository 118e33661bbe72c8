package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/utils"
)

// One-time code failures.  Handlers map them to 4xx responses.
var (
	ErrEmailNotAllowed = errors.New("email domain not allowed")
	ErrNoCode          = errors.New("no code sent to this email")
	ErrInvalidCode     = errors.New("invalid code")
	ErrCodeExpired     = errors.New("code expired")
	ErrTooManyAttempts = errors.New("too many attempts; request a new code")
	ErrNotVerified     = errors.New("code not verified")
	ErrCodeAlreadyUsed = errors.New("code already used")
	ErrDeliveryFailed  = errors.New("could not deliver code")
	ErrCodeBusy        = errors.New("code is being checked; try again")
)

// Delivery gets a code to its owner.
type Delivery interface {
	Deliver(ctx context.Context, email, code string, expiresAt time.Time) error
}

// OTPService implements send, verify and mint for email one-time codes.
type OTPService struct {
	otps     *repository.OTPRepo
	users    *repository.UserRepo
	delivery Delivery
	cfg      config.OTPConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewOTPService(otps *repository.OTPRepo, users *repository.UserRepo, delivery Delivery, cfg config.OTPConfig, logger *slog.Logger) *OTPService {
	return &OTPService{
		otps:     otps,
		users:    users,
		delivery: delivery,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send issues a fresh code for email, replacing any earlier one.
func (s *OTPService) Send(ctx context.Context, email string) (time.Time, error) {
	email = utils.NormalizeEmail(email)
	if !utils.EmailInDomain(email, s.cfg.AllowedDomain) {
		return time.Time{}, ErrEmailNotAllowed
	}
	code, err := utils.NewOTPCode()
	if err != nil {
		return time.Time{}, err
	}
	exp := s.now().Add(s.cfg.TTL)
	if err := s.otps.Put(ctx, email, model.OTP{CodeHash: utils.HashOTP(email, code), ExpiresAt: exp}); err != nil {
		return time.Time{}, err
	}
	if err := s.delivery.Deliver(ctx, email, code, exp); err != nil {
		s.logger.Error("otp delivery failed", slog.String("email", email), slog.String("error", err.Error()))
		return time.Time{}, ErrDeliveryFailed
	}
	s.logger.Info("otp sent", slog.String("email", email), slog.Time("expires_at", exp))
	return exp, nil
}

// otpWriteAttempts bounds the read-modify-write retries on one code record.
const otpWriteAttempts = 5

// Verify checks code against the stored hash.  Every guess is recorded as an
// attempt before its outcome is reported, so concurrent guesses cannot exceed
// MaxAttempts.  After MaxAttempts the code is unusable.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	email = utils.NormalizeEmail(email)
	for try := 0; try < otpWriteAttempts; try++ {
		o, version, err := s.otps.Get(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoCode
		}
		if err != nil {
			return err
		}
		switch {
		case o.Consumed:
			return ErrCodeAlreadyUsed
		case s.now().After(o.ExpiresAt):
			return ErrCodeExpired
		case o.Attempts >= s.cfg.MaxAttempts:
			return ErrTooManyAttempts
		}

		matched := utils.OTPMatches(o.CodeHash, email, code)
		o.Attempts++
		if matched {
			o.Verified = true
		}
		err = s.otps.Update(ctx, email, version, o)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return err
		}
		if !matched {
			return ErrInvalidCode
		}
		return nil
	}
	s.logger.Warn("otp verify contended", slog.String("email", email))
	return ErrCodeBusy
}

// Mint consumes a verified code and returns the account for email,
// creating it on first sign-in.  Each code mints at most once.
func (s *OTPService) Mint(ctx context.Context, email string) (model.User, error) {
	email = utils.NormalizeEmail(email)
	for try := 0; try < otpWriteAttempts; try++ {
		o, version, err := s.otps.Get(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrNoCode
		}
		if err != nil {
			return model.User{}, err
		}
		switch {
		case o.Consumed:
			return model.User{}, ErrCodeAlreadyUsed
		case !o.Verified:
			return model.User{}, ErrNotVerified
		case s.now().After(o.ExpiresAt):
			return model.User{}, ErrCodeExpired
		}

		o.Consumed = true
		err = s.otps.Update(ctx, email, version, o)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return model.User{}, err
		}
		return s.users.GetOrCreate(ctx, email)
	}
	return model.User{}, ErrCodeBusy
}
