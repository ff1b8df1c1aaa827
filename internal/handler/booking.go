package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sati-centro/consulta-booking/internal/repository"
	"github.com/sati-centro/consulta-booking/internal/service"
)

// BookingHandler exposes the booking ledger. Creation goes through the
// admission engine; listing reads the repository directly.
type BookingHandler struct {
	Admission *service.Admission
	Bookings  *repository.BookingRepo
}

// NewBookingHandler returns a BookingHandler.
func NewBookingHandler(adm *service.Admission, bookings *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Admission: adm, Bookings: bookings}
}

type createBookingRequest struct {
	RoomID    uint64  `json:"room_id"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Notes     *string `json:"notes"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type penalizeRequest struct {
	Percentage int `json:"percentage"`
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	booking, payment, err := h.Admission.AttemptBooking(c.Request().Context(), service.BookingRequest{
		UserID:    userID,
		RoomID:    req.RoomID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": booking, "payment": payment})
}

// List handles GET /api/bookings, the public availability listing.
// Any combination of user_id, room_id, date, from/to and status
// narrows the result.
func (h *BookingHandler) List(c echo.Context) error {
	f := repository.BookingFilter{
		Date:   c.QueryParam("date"),
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
		Status: c.QueryParam("status"),
	}
	if v := c.QueryParam("room_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.RoomID = n
		}
	}
	if v := c.QueryParam("user_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.UserID = n
		}
	}
	bookings, err := h.Bookings.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// Get handles GET /api/bookings/:id. Owners and admins only.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	booking, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return writeError(c, err)
	}
	if booking.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, booking)
}

// SetStatus handles PATCH /api/bookings/:id/status. The admission
// engine enforces ownership, the cancellation notice window and the
// admin-only terminal overrides.
func (h *BookingHandler) SetStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	booking, err := h.Admission.SetStatus(c.Request().Context(), id, req.Status, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, booking)
}

// Penalize handles POST /api/bookings/:id/penalize. Admin only; the
// router enforces the role, the engine applies the discount.
func (h *BookingHandler) Penalize(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req penalizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	payment, err := h.Admission.Penalize(c.Request().Context(), id, req.Percentage)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, payment)
}
