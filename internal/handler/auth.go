package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sati-centro/consulta-booking/internal/config"
	"github.com/sati-centro/consulta-booking/internal/model"
	"github.com/sati-centro/consulta-booking/internal/repository"
	"github.com/sati-centro/consulta-booking/internal/service"
	"github.com/sati-centro/consulta-booking/internal/utils"
)

// AuthHandler implements registration, login and the refresh token
// lifecycle. The /me endpoint also reports the user's effective
// payment status, recomputed from the ledger by the reconciler rather
// than read from the cached column.
type AuthHandler struct {
	Users      *repository.UserRepo
	Tokens     *repository.TokenRepo
	Reconciler *service.Reconciler
	Cfg        config.Config
}

// NewAuthHandler returns an AuthHandler.
func NewAuthHandler(users *repository.UserRepo, tokens *repository.TokenRepo, rec *service.Reconciler, cfg config.Config) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens, Reconciler: rec, Cfg: cfg}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// Register handles POST /api/auth/register. New accounts always start
// as regular users; admins are promoted out of band.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email is required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	id, err := h.Users.Create(c.Request().Context(), req.Email, req.Password, model.RoleUser, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": strings.ToLower(req.Email)})
}

// Login handles POST /api/auth/login and issues an access/refresh pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	user, err := h.Users.GetByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return writeError(c, err)
	}
	if !user.IsActive || !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.issuePair(c, user.ID, user.Role)
}

// Refresh handles POST /api/auth/refresh. The presented token is
// rotated: the old hash is revoked and a new pair issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	ctx := c.Request().Context()
	hash := utils.HashRefreshRaw(req.RefreshToken)
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		return writeError(c, err)
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return writeError(c, err)
	}
	return h.issuePair(c, user.ID, user.Role)
}

// Logout handles POST /api/auth/logout, revoking the presented refresh
// token. The access token simply ages out.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	if err := h.Tokens.RevokeByHash(c.Request().Context(), utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll handles POST /api/auth/logout-all, revoking every refresh
// token the authenticated user holds.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Tokens.RevokeAllForUser(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /api/auth/me. The payment_status field is the
// recomputed effective status, not the cached column.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	user, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return writeError(c, err)
	}
	status, err := h.Reconciler.EffectiveStatus(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":                   user.ID,
		"email":                user.Email,
		"role":                 user.Role,
		"payment_status":       status,
		"documentation_status": user.DocumentationStatus,
	})
}

func (h *AuthHandler) issuePair(c echo.Context, userID uint64, role string) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Tokens.StoreRefresh(c.Request().Context(), userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		ExpiresAt:    access.Exp.Format("2006-01-02T15:04:05Z07:00"),
	})
}
