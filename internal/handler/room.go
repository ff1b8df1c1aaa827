package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sati-centro/consulta-booking/internal/repository"
)

// RoomHandler manages the room catalog. Listing is open to any
// authenticated user; mutations are admin only (enforced by the
// router).
type RoomHandler struct {
	Rooms *repository.RoomRepo
}

// NewRoomHandler returns a RoomHandler.
func NewRoomHandler(rooms *repository.RoomRepo) *RoomHandler {
	return &RoomHandler{Rooms: rooms}
}

type createRoomRequest struct {
	Name             string `json:"name"`
	HourlyPriceCents uint32 `json:"hourly_price_cents"`
}

type updateRoomRequest struct {
	Name             *string `json:"name"`
	HourlyPriceCents *uint32 `json:"hourly_price_cents"`
}

// Create handles POST /api/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.HourlyPriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hourly_price_cents must be positive"})
	}
	id, err := h.Rooms.Create(c.Request().Context(), req.Name, req.HourlyPriceCents)
	if err != nil {
		return writeError(c, err)
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

// List handles GET /api/rooms. Admins may pass include_inactive=true
// to see soft-deleted rooms.
func (h *RoomHandler) List(c echo.Context) error {
	activeOnly := true
	if isAdmin(c) && c.QueryParam("include_inactive") == "true" {
		activeOnly = false
	}
	rooms, err := h.Rooms.List(c.Request().Context(), activeOnly)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// Get handles GET /api/rooms/:id.
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return writeError(c, err)
	}
	if !room.IsActive && !isAdmin(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	}
	return c.JSON(http.StatusOK, room)
}

// Update handles PATCH /api/rooms/:id.
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req updateRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name != nil && *req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name cannot be empty"})
	}
	if req.HourlyPriceCents != nil && *req.HourlyPriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hourly_price_cents must be positive"})
	}
	if err := h.Rooms.Update(c.Request().Context(), id, req.Name, req.HourlyPriceCents); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return writeError(c, err)
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// Delete handles DELETE /api/rooms/:id. The room is soft-deleted and
// its future confirmed bookings are cancelled in the same transaction;
// the response reports how many were affected.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	today := time.Now().UTC().Format("2006-01-02")
	cancelled, err := h.Rooms.Deactivate(c.Request().Context(), id, today)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": true, "cancelled_bookings": cancelled})
}
