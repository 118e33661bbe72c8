package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/docstore"
)

// HealthHandler reports liveness together with a probe of the seat store.
type HealthHandler struct {
	Store  docstore.Store
	Driver string
	Logger *slog.Logger
}

// Health reads a document that never exists.  ErrNotFound proves the store
// answered; any other error means it is unreachable and the check fails
// with 503 so load balancers stop routing here.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	_, err := h.Store.ReadOne(ctx, "health", "probe")
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		h.Logger.Warn("health probe failed", slog.String("driver", h.Driver), slog.String("error", err.Error()))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "store": h.Driver})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "store": h.Driver})
}
