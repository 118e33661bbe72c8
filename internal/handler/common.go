package handler // package handler contains the HTTP handlers of the seat service

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/booking"
	"github.com/iliyamo/library-seat-reservation/internal/service"
)

// requestTimeout bounds every store round trip made on behalf of a request.
const requestTimeout = 5 * time.Second

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, errorBody{Error: code, Message: message})
}

var bookingStatus = map[string]int{
	"unauthenticated":      http.StatusUnauthorized,
	"seat_not_found":       http.StatusNotFound,
	"already_holding_seat": http.StatusConflict,
	"seat_taken":           http.StatusConflict,
	"conflict":             http.StatusConflict,
	"store_unavailable":    http.StatusServiceUnavailable,
}

// bookingError renders a booking failure.  Anything without a known reason
// is logged and reported as a 500.
func bookingError(c echo.Context, logger *slog.Logger, err error) error {
	code := booking.Reason(err)
	status, ok := bookingStatus[code]
	if !ok {
		logger.Error("booking request failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
		return fail(c, http.StatusInternalServerError, "internal", "internal error")
	}
	if status == http.StatusServiceUnavailable {
		logger.Warn("seat store unavailable", slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return fail(c, status, code, err.Error())
}

var otpErrors = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrEmailNotAllowed, http.StatusForbidden, "email_not_allowed"},
	{service.ErrNoCode, http.StatusNotFound, "no_code"},
	{service.ErrInvalidCode, http.StatusUnauthorized, "invalid_code"},
	{service.ErrCodeExpired, http.StatusGone, "code_expired"},
	{service.ErrTooManyAttempts, http.StatusTooManyRequests, "too_many_attempts"},
	{service.ErrNotVerified, http.StatusForbidden, "not_verified"},
	{service.ErrCodeAlreadyUsed, http.StatusConflict, "code_already_used"},
	{service.ErrDeliveryFailed, http.StatusBadGateway, "delivery_failed"},
	{service.ErrCodeBusy, http.StatusConflict, "code_busy"},
}

// otpError renders a one-time code failure.
func otpError(c echo.Context, logger *slog.Logger, err error) error {
	for _, e := range otpErrors {
		if errors.Is(err, e.err) {
			return fail(c, e.status, e.code, err.Error())
		}
	}
	logger.Error("otp request failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
	return fail(c, http.StatusInternalServerError, "internal", "internal error")
}
