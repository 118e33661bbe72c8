package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/booking"
	"github.com/iliyamo/library-seat-reservation/internal/identity"
	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// SeatHandler serves the seat map and the toggle operation.  The caller's
// identity comes from Provider, which reads what the JWT middleware put on
// the request context.
type SeatHandler struct {
	Seats       *booking.Registry
	Coordinator *booking.Coordinator
	Provider    identity.Provider
	Logger      *slog.Logger
}

func NewSeatHandler(seats *booking.Registry, coord *booking.Coordinator, provider identity.Provider, logger *slog.Logger) *SeatHandler {
	return &SeatHandler{Seats: seats, Coordinator: coord, Provider: provider, Logger: logger}
}

type seatsResp struct {
	Seats []model.SeatView `json:"seats"`
}

type seatResp struct {
	Seat model.SeatView `json:"seat"`
}

// layoutSeat is the identity-free geometry of a seat.
type layoutSeat struct {
	ID string `json:"id"`
	model.Position
}

type meResp struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email,omitempty"`
	Seat   *model.SeatView `json:"seat"`
}

// List returns every seat as seen by the caller.
func (h *SeatHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	seats, err := h.Seats.GetAll(ctx)
	if err != nil {
		return bookingError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, seatsResp{Seats: booking.Project(seats, h.Provider.CurrentIdentity(ctx))})
}

// Layout returns geometry only.  The answer is the same for every caller,
// which is what lets the response cache sit in front of it.
func (h *SeatHandler) Layout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	seats, err := h.Seats.GetAll(ctx)
	if err != nil {
		return bookingError(c, h.Logger, err)
	}
	out := make([]layoutSeat, 0, len(seats))
	for _, s := range seats {
		out = append(out, layoutSeat{ID: s.ID, Position: s.Position})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": out})
}

// Get returns one seat as seen by the caller.
func (h *SeatHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Seats.Get(ctx, c.Param("id"))
	if err != nil {
		return bookingError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, seatResp{Seat: booking.ProjectOne(s, h.Provider.CurrentIdentity(ctx))})
}

// Toggle books the seat for the caller, or releases it if the caller
// already holds it.  Anonymous callers get 401.
func (h *SeatHandler) Toggle(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	actor := h.Provider.CurrentIdentity(ctx)
	s, err := h.Coordinator.Toggle(ctx, model.ReservationAction{ActorID: actor, SeatID: c.Param("id")})
	if err != nil {
		return bookingError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, seatResp{Seat: booking.ProjectOne(s, actor)})
}

// Me returns the caller and the seat they hold, if any.
func (h *SeatHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id := h.Provider.CurrentIdentity(ctx)
	if id.IsAnonymous() {
		return bookingError(c, h.Logger, booking.ErrUnauthenticated)
	}
	resp := meResp{UserID: id.String()}
	resp.Email, _ = c.Get("email").(string)

	s, ok, err := h.Seats.HeldBy(ctx, id)
	if err != nil {
		return bookingError(c, h.Logger, err)
	}
	if ok {
		v := booking.ProjectOne(s, id)
		resp.Seat = &v
	}
	return c.JSON(http.StatusOK, resp)
}
