package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sati-centro/consulta-booking/internal/gateway"
	"github.com/sati-centro/consulta-booking/internal/repository"
	"github.com/sati-centro/consulta-booking/internal/service"
)

// maxWebhookBody bounds webhook payload reads. Gateway events are a
// few KB at most.
const maxWebhookBody = 1 << 20

// PaymentHandler exposes the payment ledger and the webhook ingestion
// endpoint.
type PaymentHandler struct {
	Reconciler    *service.Reconciler
	Payments      *repository.PaymentRepo
	WebhookSecret string
}

// NewPaymentHandler returns a PaymentHandler.
func NewPaymentHandler(rec *service.Reconciler, payments *repository.PaymentRepo, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{Reconciler: rec, Payments: payments, WebhookSecret: webhookSecret}
}

type createIntentRequest struct {
	Amount         string  `json:"amount"`
	Currency       string  `json:"currency"`
	Concept        string  `json:"concept"`
	BookingID      *uint64 `json:"booking_id"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// CreateIntent handles POST /api/payments/create-intent.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createIntentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	result, err := h.Reconciler.CreateIntent(c.Request().Context(), service.IntentRequest{
		UserID:         userID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Concept:        req.Concept,
		BookingID:      req.BookingID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// Webhook handles POST /api/payments/webhook. The signature is checked
// against the raw request bytes before anything is parsed. Events that
// fail with a transient error answer 500 so the processor redelivers;
// every applied or deduplicated event answers 200.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	sig := c.Request().Header.Get("Gateway-Signature")
	if err := gateway.VerifySignature(raw, sig, h.WebhookSecret, gateway.DefaultTolerance, time.Now()); err != nil {
		if errors.Is(err, gateway.ErrStaleTimestamp) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "stale signature timestamp"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}
	ev, err := gateway.ParseEvent(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
	}
	if err := h.Reconciler.ApplyEvent(c.Request().Context(), ev, raw); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// PollIntent handles GET /api/payments/intent/:id, refreshing the
// local mirror from the gateway. Owners and admins only.
func (h *PaymentHandler) PollIntent(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	intentID := c.Param("id")
	if intentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "intent id is required"})
	}
	p, err := h.Reconciler.PollIntent(c.Request().Context(), intentID)
	if err != nil {
		return writeError(c, err)
	}
	if p.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, p)
}

// List handles GET /api/payments, returning the caller's payments
// newest first. Admins may pass user_id to inspect another ledger.
func (h *PaymentHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target := userID
	if isAdmin(c) {
		if v := c.QueryParam("user_id"); v != "" {
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				target = n
			}
		}
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	payments, err := h.Payments.ListByUser(c.Request().Context(), target, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": payments})
}
