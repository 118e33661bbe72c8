package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/docstore"
	"github.com/iliyamo/library-seat-reservation/internal/docstore/memory"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/testutil"
)

type captureDelivery struct {
	email, code string
	err         error
}

func (c *captureDelivery) Deliver(_ context.Context, email, code string, _ time.Time) error {
	c.email, c.code = email, code
	return c.err
}

// slowStore widens the gap between reading a code and writing it back.
type slowStore struct {
	*memory.Store
}

func (s slowStore) ReadOne(ctx context.Context, collection, id string) (docstore.Document, error) {
	doc, err := s.Store.ReadOne(ctx, collection, id)
	time.Sleep(2 * time.Millisecond)
	return doc, err
}

// contendedStore loses every conditional update, as if another request
// always wrote first.
type contendedStore struct {
	*memory.Store
}

func (contendedStore) ConditionalUpdate(context.Context, string, string, int64, json.RawMessage) (docstore.Document, error) {
	return docstore.Document{}, docstore.ErrVersionMismatch
}

type OTPSuite struct {
	suite.Suite
	svc      *OTPService
	delivery *captureDelivery
	users    *repository.UserRepo
	clock    time.Time
	ctx      context.Context
}

func TestOTPSuite(t *testing.T) {
	suite.Run(t, new(OTPSuite))
}

func (s *OTPSuite) SetupTest() {
	s.useStore(memory.New())
	s.ctx = context.Background()
}

func (s *OTPSuite) useStore(store docstore.Store) {
	s.users = repository.NewUserRepo(store)
	s.delivery = &captureDelivery{}
	s.clock = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.svc = NewOTPService(repository.NewOTPRepo(store), s.users, s.delivery, config.OTPConfig{
		TTL:           5 * time.Minute,
		AllowedDomain: "hyderabad.bits-pilani.ac.in",
		MaxAttempts:   3,
	}, testutil.NopLogger())
	s.svc.now = func() time.Time { return s.clock }
}

const testEmail = "f2021@hyderabad.bits-pilani.ac.in"

func (s *OTPSuite) wrongCode() string {
	if s.delivery.code == "000000" {
		return "000001"
	}
	return "000000"
}

func (s *OTPSuite) TestHappyPath() {
	exp, err := s.svc.Send(s.ctx, "  F2021@Hyderabad.bits-pilani.ac.in")
	s.Require().NoError(err)
	s.Equal(s.clock.Add(5*time.Minute), exp)
	s.Equal(testEmail, s.delivery.email)
	s.Len(s.delivery.code, 6)

	s.Require().NoError(s.svc.Verify(s.ctx, testEmail, s.delivery.code))
	u, err := s.svc.Mint(s.ctx, testEmail)
	s.Require().NoError(err)
	s.Equal(testEmail, u.Email)
	s.NotEmpty(u.ID)

	_, err = s.svc.Mint(s.ctx, testEmail)
	s.ErrorIs(err, ErrCodeAlreadyUsed)
	s.ErrorIs(s.svc.Verify(s.ctx, testEmail, s.delivery.code), ErrCodeAlreadyUsed)
}

func (s *OTPSuite) TestSameUserOnSecondSignIn() {
	_, err := s.svc.Send(s.ctx, testEmail)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Verify(s.ctx, testEmail, s.delivery.code))
	first, err := s.svc.Mint(s.ctx, testEmail)
	s.Require().NoError(err)

	_, err = s.svc.Send(s.ctx, testEmail)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Verify(s.ctx, testEmail, s.delivery.code))
	second, err := s.svc.Mint(s.ctx, testEmail)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
}

func (s *OTPSuite) TestDomainRestriction() {
	_, err := s.svc.Send(s.ctx, "someone@gmail.com")
	s.ErrorIs(err, ErrEmailNotAllowed)
	s.Empty(s.delivery.code)
}

func (s *OTPSuite) TestNoCode() {
	s.ErrorIs(s.svc.Verify(s.ctx, testEmail, "123456"), ErrNoCode)
	_, err := s.svc.Mint(s.ctx, testEmail)
	s.ErrorIs(err, ErrNoCode)
}

func (s *OTPSuite) TestExpired() {
	_, err := s.svc.Send(s.ctx, testEmail)
	s.Require().NoError(err)
	s.clock = s.clock.Add(5*time.Minute + time.Second)
	s.ErrorIs(s.svc.Verify(s.ctx, testEmail, s.delivery.code), ErrCodeExpired)
}

func (s *OTPSuite) TestMintNeedsVerify() {
	_, err := s.svc.Send(s.ctx, testEmail)
	s.Require().NoError(err)
	_, err = s.svc.Mint(s.ctx, testEmail)
	s.ErrorIs(err, ErrNotVerified)
}

func (s *OTPSuite) TestAttemptsAreLimited() {
	_, err := s.svc.Send(s.ctx, testEmail)
	s.Require().NoError(err)
	for i := 0; i < 3; i++ {
		s.ErrorIs(s.svc.Verify(s.ctx, testEmail, s.wrongCode()), ErrInvalidCode)
	}
	s.ErrorIs(s.svc.Verify(s.ctx, testEmail, s.delivery.code), ErrTooManyAttempts)

	// a new code resets the counter
	_, err = s.svc.Send(s.ctx, testEmail)
	s.Require().NoError(err)
	s.NoError(s.svc.Verify(s.ctx, testEmail, s.delivery.code))
}

func (s *OTPSuite) TestDeliveryFailure() {
	s.delivery.err = errors.New("smtp down")
	_, err := s.svc.Send(s.ctx, testEmail)
	s.ErrorIs(err, ErrDeliveryFailed)
}

func (s *OTPSuite) TestConcurrentGuessesStayWithinLimit() {
	s.useStore(slowStore{memory.New()})
	_, err := s.svc.Send(s.ctx, testEmail)
	s.Require().NoError(err)
	wrong := s.wrongCode()

	const guesses = 40
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		invalid int
	)
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.svc.Verify(s.ctx, testEmail, wrong)
			if !errors.Is(err, ErrInvalidCode) {
				s.True(errors.Is(err, ErrTooManyAttempts) || errors.Is(err, ErrCodeBusy), err)
				return
			}
			mu.Lock()
			invalid++
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.LessOrEqual(invalid, 3)
	o, _, err := s.svc.otps.Get(s.ctx, testEmail)
	s.Require().NoError(err)
	s.Equal(invalid, o.Attempts)
}

func (s *OTPSuite) TestCorrectCodeCountsAsAttempt() {
	_, err := s.svc.Send(s.ctx, testEmail)
	s.Require().NoError(err)
	s.ErrorIs(s.svc.Verify(s.ctx, testEmail, s.wrongCode()), ErrInvalidCode)
	s.Require().NoError(s.svc.Verify(s.ctx, testEmail, s.delivery.code))

	o, _, err := s.svc.otps.Get(s.ctx, testEmail)
	s.Require().NoError(err)
	s.Equal(2, o.Attempts)
	s.True(o.Verified)
}

func (s *OTPSuite) TestContendedCodeIsRefused() {
	s.useStore(contendedStore{memory.New()})
	_, err := s.svc.Send(s.ctx, testEmail)
	s.Require().NoError(err)

	s.ErrorIs(s.svc.Verify(s.ctx, testEmail, s.delivery.code), ErrCodeBusy)
	s.ErrorIs(s.svc.Verify(s.ctx, testEmail, s.wrongCode()), ErrCodeBusy)

	o, _, err := s.svc.otps.Get(s.ctx, testEmail)
	s.Require().NoError(err)
	s.Zero(o.Attempts)
	s.False(o.Verified)
}
