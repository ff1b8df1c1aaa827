package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sati-centro/consulta-booking/internal/gateway"
	"github.com/sati-centro/consulta-booking/internal/model"
	"github.com/sati-centro/consulta-booking/internal/repository"
)

// PaymentLedger is the slice of the payment repository the
// reconciliation engine consumes.
type PaymentLedger interface {
	CreateIntentPayment(ctx context.Context, p *model.Payment) (*model.Payment, error)
	GetByID(ctx context.Context, id uint64) (*model.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*model.Payment, error)
	UpdateStatusByIntentID(ctx context.Context, intentID, status string) error
	UpdateAmount(ctx context.Context, id uint64, amount string) error
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Payment, error)
}

// EventStore records webhook deliveries. Record must be atomic
// insert-if-absent and return repository.ErrDuplicateEvent for a
// replayed event id.
type EventStore interface {
	Record(ctx context.Context, ev *model.PaymentEvent) error
}

// UserDirectory lets reconciliation read users and maintain the cached
// status hint columns.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	ApplySettlement(ctx context.Context, userID uint64) error
	SetPaymentStatus(ctx context.Context, userID uint64, status string) error
}

// PaymentGateway abstracts the card processor so tests can substitute
// a scripted double.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, p gateway.IntentParams) (*gateway.Intent, error)
	GetIntent(ctx context.Context, id string) (*gateway.Intent, error)
}

// IntentRequest describes a client-initiated gateway payment.
type IntentRequest struct {
	UserID         uint64
	Amount         string
	Currency       string
	Concept        string
	BookingID      *uint64
	IdempotencyKey string
}

// IntentResult is returned to the client so the browser SDK can
// complete the charge.
type IntentResult struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// Reconciler keeps the local payment ledger consistent with the
// gateway's authoritative event stream, tolerating at-least-once and
// out-of-order webhook delivery, and recomputes a user's effective
// payment status from the ledger instead of trusting the cached
// column.
type Reconciler struct {
	Ledger  PaymentLedger
	Events  EventStore
	Users   UserDirectory
	Gateway PaymentGateway
	Cache   SummaryCache // optional
	Now     func() time.Time
}

// NewReconciler wires a reconciliation engine. Cache may be nil.
func NewReconciler(ledger PaymentLedger, events EventStore, users UserDirectory, gw PaymentGateway) *Reconciler {
	if ledger == nil || events == nil || users == nil {
		panic("nil store passed to NewReconciler")
	}
	return &Reconciler{Ledger: ledger, Events: events, Users: users, Gateway: gw, Now: time.Now}
}

func (r *Reconciler) invalidate(ctx context.Context, userID uint64) {
	if r.Cache != nil {
		r.Cache.Invalidate(ctx, userID)
	}
}

// CreateIntent opens a gateway payment intent and persists the local
// pending row keyed by the returned intent id. A replayed request for
// an intent that already exists locally does not insert a duplicate.
func (r *Reconciler) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResult, error) {
	cents, err := ParseAmount(req.Amount)
	if err != nil || cents <= 0 {
		return nil, errf(KindInvalidRequest, "invalid amount %q", req.Amount)
	}
	if len(req.Concept) > 500 {
		return nil, errf(KindInvalidRequest, "concept exceeds 500 characters")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, errf(KindInvalidRequest, "currency is required")
	}
	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	if r.Gateway == nil {
		return nil, errors.New("payment gateway not configured")
	}
	intent, err := r.Gateway.CreateIntent(ctx, gateway.IntentParams{
		AmountCents:    cents,
		Currency:       currency,
		Description:    req.Concept,
		IdempotencyKey: key,
		Metadata:       map[string]string{"user_id": formatID(req.UserID)},
	})
	if err != nil {
		return nil, err
	}
	p := &model.Payment{
		UserID:          req.UserID,
		BookingID:       req.BookingID,
		Amount:          FormatCents(cents),
		Currency:        currency,
		Concept:         req.Concept,
		Status:          mirrorIntentStatus(intent.Status),
		Method:          "card",
		PaymentIntentID: &intent.ID,
		IdempotencyKey:  &key,
	}
	if _, err := r.Ledger.CreateIntentPayment(ctx, p); err != nil {
		return nil, err
	}
	r.invalidate(ctx, req.UserID)
	return &IntentResult{IntentID: intent.ID, ClientSecret: intent.ClientSecret, Status: intent.Status}, nil
}

// ApplyEvent processes one verified webhook delivery. The dedup insert
// runs first: a duplicate event id acknowledges without reapplying
// side effects, which makes processing idempotent under at-least-once
// delivery and concurrent retries.
func (r *Reconciler) ApplyEvent(ctx context.Context, ev *gateway.Event, raw []byte) error {
	rec := &model.PaymentEvent{EventID: ev.ID, Type: ev.Type, Payload: raw}
	if intentID := ev.IntentID(); intentID != "" {
		rec.PaymentIntentID = &intentID
	}
	if err := r.Events.Record(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			log.Printf("reconcile: event %s already applied", ev.ID)
			return nil
		}
		return err
	}

	switch {
	case strings.HasPrefix(ev.Type, "payment_intent."):
		return r.applyIntentEvent(ctx, ev)
	case ev.Type == "charge.refunded" || ev.Type == "charge.refund.updated":
		return r.applyRefundEvent(ctx, ev)
	default:
		// Unknown types are acknowledged unchanged so new gateway
		// event kinds never break ingestion.
		return nil
	}
}

func (r *Reconciler) applyIntentEvent(ctx context.Context, ev *gateway.Event) error {
	intentID := ev.IntentID()
	if intentID == "" {
		log.Printf("reconcile: event %s carries no intent id", ev.ID)
		return nil
	}
	status := mirrorIntentStatus(statusFromEvent(ev))
	if err := r.Ledger.UpdateStatusByIntentID(ctx, intentID, status); err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			log.Printf("reconcile: event %s references unknown intent %s", ev.ID, intentID)
			return nil
		}
		return err
	}
	p, err := r.Ledger.GetByIntentID(ctx, intentID)
	if err != nil {
		return err
	}
	if status == model.PaymentSucceeded {
		if err := r.Users.ApplySettlement(ctx, p.UserID); err != nil {
			return err
		}
	}
	r.invalidate(ctx, p.UserID)
	return nil
}

func (r *Reconciler) applyRefundEvent(ctx context.Context, ev *gateway.Event) error {
	intentID := ev.IntentID()
	if intentID == "" {
		log.Printf("reconcile: refund event %s carries no intent id", ev.ID)
		return nil
	}
	if err := r.Ledger.UpdateStatusByIntentID(ctx, intentID, model.PaymentRefunded); err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			log.Printf("reconcile: refund event %s references unknown intent %s", ev.ID, intentID)
			return nil
		}
		return err
	}
	if p, err := r.Ledger.GetByIntentID(ctx, intentID); err == nil {
		r.invalidate(ctx, p.UserID)
	}
	return nil
}

// PollIntent fetches the intent from the gateway and mirrors its
// status locally. A payment that reaches succeeded through polling
// before the webhook arrives gets the same settlement side effects;
// the later webhook delivery is still deduplicated by event id.
func (r *Reconciler) PollIntent(ctx context.Context, intentID string) (*model.Payment, error) {
	if r.Gateway == nil {
		return nil, errors.New("payment gateway not configured")
	}
	intent, err := r.Gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	status := mirrorIntentStatus(intent.Status)
	if err := r.Ledger.UpdateStatusByIntentID(ctx, intentID, status); err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, errf(KindResourceNotFound, "no payment for intent %s", intentID)
		}
		return nil, err
	}
	p, err := r.Ledger.GetByIntentID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if status == model.PaymentSucceeded {
		if err := r.Users.ApplySettlement(ctx, p.UserID); err != nil {
			return nil, err
		}
	}
	r.invalidate(ctx, p.UserID)
	return p, nil
}

// EffectiveStatus recomputes the trustworthy payment status from the
// ledger: active when a settled payment exists and any subscription
// window has not lapsed, else pending when an open charge exists, else
// inactive. The cached users.payment_status column is only a hint and
// is refreshed opportunistically when it drifts.
func (r *Reconciler) EffectiveStatus(ctx context.Context, userID uint64) (string, error) {
	user, err := r.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errf(KindResourceNotFound, "user %d not found", userID)
		}
		return "", err
	}
	payments, err := r.Ledger.ListByUser(ctx, userID, 0)
	if err != nil {
		return "", err
	}
	hasSettled, hasPending := false, false
	for _, p := range payments {
		if model.IsSettled(p.Status) {
			hasSettled = true
		}
		if p.Status == model.PaymentPending {
			hasPending = true
		}
	}
	now := r.Now().UTC()
	status := model.PayStatusInactive
	switch {
	case hasSettled && (user.SubscriptionEndDate == nil || !user.SubscriptionEndDate.Before(now)):
		status = model.PayStatusActive
	case hasPending:
		status = model.PayStatusPending
	}
	if status != user.PaymentStatus {
		if err := r.Users.SetPaymentStatus(ctx, userID, status); err != nil {
			log.Printf("reconcile: refresh cached status for user %d failed: %v", userID, err)
		}
	}
	return status, nil
}

// Discount reduces a payment's amount by percentage and invalidates
// the owner's cached summary.
func (r *Reconciler) Discount(ctx context.Context, paymentID uint64, percentage int) (*model.Payment, error) {
	if percentage < 0 || percentage > 100 {
		return nil, errf(KindInvalidRequest, "percentage must be between 0 and 100")
	}
	p, err := r.Ledger.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, errf(KindResourceNotFound, "payment %d not found", paymentID)
		}
		return nil, err
	}
	discounted, err := ApplyDiscount(p.Amount, percentage)
	if err != nil {
		return nil, errf(KindInvalidRequest, "%v", err)
	}
	if err := r.Ledger.UpdateAmount(ctx, p.ID, discounted); err != nil {
		return nil, err
	}
	p.Amount = discounted
	r.invalidate(ctx, p.UserID)
	return p, nil
}

// mirrorIntentStatus maps gateway intent statuses onto ledger
// statuses. Anything not yet terminal stays pending.
func mirrorIntentStatus(s string) string {
	switch s {
	case "succeeded":
		return model.PaymentSucceeded
	case "processing":
		return model.PaymentProcessing
	case "canceled":
		return model.PaymentCanceled
	case "failed":
		return model.PaymentFailed
	default:
		return model.PaymentPending
	}
}

// statusFromEvent derives the intent status announced by an event. A
// payment_failed event marks the payment failed even though the
// intent itself reports requires_payment_method.
func statusFromEvent(ev *gateway.Event) string {
	if ev.Type == "payment_intent.payment_failed" {
		return "failed"
	}
	var obj gateway.IntentObject
	if err := json.Unmarshal(ev.Data.Object, &obj); err == nil && obj.Status != "" {
		return obj.Status
	}
	return ""
}

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }
