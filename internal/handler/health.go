package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler answers liveness probes. It pings the database so load
// balancers stop routing to an instance whose pool has gone bad.
type HealthHandler struct{ DB *sql.DB }

// NewHealthHandler returns a HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler { return &HealthHandler{DB: db} }

// Check handles GET /healthz.
func (h *HealthHandler) Check(c echo.Context) error {
	if err := h.DB.PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
