package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sati-centro/consulta-booking/internal/model"
	"github.com/sati-centro/consulta-booking/internal/repository"
)

// knownConfigKeys are the policy knobs admins may write. Unknown keys
// are rejected so a typo never silently creates a dead setting.
var knownConfigKeys = map[string]bool{
	model.ConfigAdvanceBookingDays:   true,
	model.ConfigMaxActiveBookings:    true,
	model.ConfigMaxDurationHours:     true,
	model.ConfigCancellationNoticeHr: true,
}

// ConfigHandler exposes the runtime policy knobs. Writes take effect
// on the next admission attempt; nothing is cached in process.
type ConfigHandler struct {
	Repo *repository.ConfigRepo
}

// NewConfigHandler returns a ConfigHandler.
func NewConfigHandler(repo *repository.ConfigRepo) *ConfigHandler {
	return &ConfigHandler{Repo: repo}
}

type putConfigRequest struct {
	Value string `json:"value"`
}

// List handles GET /api/config.
func (h *ConfigHandler) List(c echo.Context) error {
	entries, err := h.Repo.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"config": entries})
}

// Put handles PUT /api/config/:key. All current knobs are non-negative
// integers, so the value is validated as one.
func (h *ConfigHandler) Put(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	key := c.Param("key")
	if !knownConfigKeys[key] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown config key"})
	}
	var req putConfigRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	n, err := strconv.Atoi(req.Value)
	if err != nil || n < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value must be a non-negative integer"})
	}
	if err := h.Repo.Upsert(c.Request().Context(), key, req.Value, userID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"key": key, "value": req.Value})
}
