package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/service"
)

// OTPHandler exposes email one-time code sign-in: send a code, verify it,
// then exchange the verified email for an access token.
type OTPHandler struct {
	Cfg    config.Config
	OTP    *service.OTPService
	Logger *slog.Logger
}

func NewOTPHandler(cfg config.Config, otp *service.OTPService, logger *slog.Logger) *OTPHandler {
	return &OTPHandler{Cfg: cfg, OTP: otp, Logger: logger}
}

type otpReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// bind decodes the request body.  A non-empty message means the request is
// malformed and has not been answered yet.
func bind(c echo.Context, needCode bool) (otpReq, string) {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return req, "invalid body"
	}
	req.Code = strings.TrimSpace(req.Code)
	switch {
	case strings.TrimSpace(req.Email) == "":
		return req, "email required"
	case needCode && req.Code == "":
		return req, "code required"
	}
	return req, ""
}

// Send mails a fresh code and reports when it expires.
func (h *OTPHandler) Send(c echo.Context) error {
	req, msg := bind(c, false)
	if msg != "" {
		return fail(c, http.StatusBadRequest, "invalid_body", msg)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	exp, err := h.OTP.Send(ctx, req.Email)
	if err != nil {
		return otpError(c, h.Logger, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"sent": true, "expires_at": exp})
}

// Verify checks a code.  Success is remembered until the code is minted or
// expires.
func (h *OTPHandler) Verify(c echo.Context) error {
	req, msg := bind(c, true)
	if msg != "" {
		return fail(c, http.StatusBadRequest, "invalid_body", msg)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.OTP.Verify(ctx, req.Email, req.Code); err != nil {
		return otpError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"verified": true})
}

// Token consumes a verified code and returns an access token for the
// email's account, creating the account on first sign-in.
func (h *OTPHandler) Token(c echo.Context) error {
	req, msg := bind(c, false)
	if msg != "" {
		return fail(c, http.StatusBadRequest, "invalid_body", msg)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.OTP.Mint(ctx, req.Email)
	if err != nil {
		return otpError(c, h.Logger, err)
	}
	resp, err := issue(h.Cfg, u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal", "issue access failed")
	}
	return c.JSON(http.StatusOK, resp)
}
