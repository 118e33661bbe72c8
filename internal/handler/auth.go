package handler

import (
	"context"  // provides context with cancellation for store calls
	"errors"   // sentinel comparisons
	"log/slog" // structured logging
	"net/http" // HTTP status codes and primitives
	"time"     // token expirations

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/library-seat-reservation/internal/config"     // app configuration
	"github.com/iliyamo/library-seat-reservation/internal/model"      // user model
	"github.com/iliyamo/library-seat-reservation/internal/repository" // user storage
	"github.com/iliyamo/library-seat-reservation/internal/utils"      // password hashing and token issuing
)

// AuthHandler bundles dependencies for password auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Logger *slog.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Logger: logger}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// issue signs an access token for u.  The user id is the token subject and
// therefore the booking identity.
func issue(cfg config.Config, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(cfg.JWTSecret, u.ID, u.Email, cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	return authResp{
		User:   userPart{ID: u.ID, Email: u.Email},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	}, nil
}

// Register: create user and return a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_body", "invalid body")
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "invalid_body", "email/password required")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return fail(c, http.StatusBadRequest, "weak_password", err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "email_exists", "email already exists")
		}
		h.Logger.Error("create user failed", slog.String("error", err.Error()))
		return fail(c, http.StatusInternalServerError, "internal", "create user failed")
	}

	resp, err := issue(h.Cfg, u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal", "issue access failed")
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login: verify the password and return a fresh token.  Unknown email and
// wrong password give the same answer.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_body", "invalid body")
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "invalid_body", "email/password required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		}
		h.Logger.Error("load user failed", slog.String("error", err.Error()))
		return fail(c, http.StatusInternalServerError, "internal", "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	}

	resp, err := issue(h.Cfg, u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal", "issue access failed")
	}
	return c.JSON(http.StatusOK, resp)
}
