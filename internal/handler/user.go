package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sati-centro/consulta-booking/internal/model"
)

// DocumentationDirectory is the slice of the user repository the
// documentation review flow needs.
type DocumentationDirectory interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	SetDocumentationStatus(ctx context.Context, userID uint64, status string) error
}

// UserHandler exposes admin user management. Documentation review is
// what gates booking admission for regular users: until an admin marks
// a user approved, the admission engine rejects their requests.
type UserHandler struct {
	Users DocumentationDirectory
}

// NewUserHandler returns a UserHandler.
func NewUserHandler(users DocumentationDirectory) *UserHandler {
	return &UserHandler{Users: users}
}

type reviewDocumentationRequest struct {
	Status string `json:"status"`
}

func validDocumentationStatus(s string) bool {
	return s == model.DocPending || s == model.DocApproved || s == model.DocRejected
}

// ReviewDocumentation handles PATCH /api/users/:id/documentation.
// Admin only; the router enforces the role.
func (h *UserHandler) ReviewDocumentation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req reviewDocumentationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !validDocumentationStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending, approved or rejected"})
	}
	ctx := c.Request().Context()
	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return writeError(c, err)
	}
	if err := h.Users.SetDocumentationStatus(ctx, id, req.Status); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "documentation_status": req.Status})
}
