package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sati-centro/consulta-booking/internal/service"
)

// AccountHandler serves the aggregated account summary projection.
type AccountHandler struct {
	Reconciler *service.Reconciler
}

// NewAccountHandler returns an AccountHandler.
func NewAccountHandler(rec *service.Reconciler) *AccountHandler {
	return &AccountHandler{Reconciler: rec}
}

// Summary handles GET /api/account/summary. The projection is always
// the caller's own; there is no cross-user lookup on this endpoint.
func (h *AccountHandler) Summary(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	summary, err := h.Reconciler.Summary(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
