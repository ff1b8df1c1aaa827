package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/sati-centro/consulta-booking/internal/gateway"
	"github.com/sati-centro/consulta-booking/internal/model"
	"github.com/sati-centro/consulta-booking/internal/repository"
)

type memLedger struct {
	nextID uint64
	rows   []*model.Payment
}

func (m *memLedger) add(p *model.Payment) *model.Payment {
	m.nextID++
	p.ID = m.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2026, 1, int(m.nextID), 0, 0, 0, 0, time.UTC)
	}
	m.rows = append(m.rows, p)
	return p
}

func (m *memLedger) byIntent(intentID string) *model.Payment {
	for _, p := range m.rows {
		if p.PaymentIntentID != nil && *p.PaymentIntentID == intentID {
			return p
		}
	}
	return nil
}

func (m *memLedger) CreateIntentPayment(_ context.Context, p *model.Payment) (*model.Payment, error) {
	if p.PaymentIntentID != nil {
		if existing := m.byIntent(*p.PaymentIntentID); existing != nil {
			return existing, nil
		}
	}
	return m.add(p), nil
}

func (m *memLedger) GetByID(_ context.Context, id uint64) (*model.Payment, error) {
	for _, p := range m.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (m *memLedger) GetByIntentID(_ context.Context, intentID string) (*model.Payment, error) {
	if p := m.byIntent(intentID); p != nil {
		return p, nil
	}
	return nil, repository.ErrPaymentNotFound
}

func (m *memLedger) UpdateStatusByIntentID(_ context.Context, intentID, status string) error {
	p := m.byIntent(intentID)
	if p == nil {
		return repository.ErrPaymentNotFound
	}
	p.Status = status
	return nil
}

func (m *memLedger) UpdateAmount(_ context.Context, id uint64, amount string) error {
	for _, p := range m.rows {
		if p.ID == id {
			p.Amount = amount
			return nil
		}
	}
	return repository.ErrPaymentNotFound
}

func (m *memLedger) ListByUser(_ context.Context, userID uint64, limit int) ([]model.Payment, error) {
	out := make([]model.Payment, 0)
	// Newest first, like the SQL repository.
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID != userID {
			continue
		}
		out = append(out, *m.rows[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type memEvents struct {
	recorded []*model.PaymentEvent
}

func (m *memEvents) Record(_ context.Context, ev *model.PaymentEvent) error {
	for _, e := range m.recorded {
		if e.EventID == ev.EventID {
			return repository.ErrDuplicateEvent
		}
	}
	m.recorded = append(m.recorded, ev)
	return nil
}

type memDirectory struct {
	users       map[uint64]*model.User
	settlements int
}

func (m *memDirectory) GetByID(_ context.Context, id uint64) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memDirectory) ApplySettlement(_ context.Context, userID uint64) error {
	m.settlements++
	if u, ok := m.users[userID]; ok {
		u.PaymentStatus = model.PayStatusActive
		u.SubscriptionEndDate = nil
	}
	return nil
}

func (m *memDirectory) SetPaymentStatus(_ context.Context, userID uint64, status string) error {
	if u, ok := m.users[userID]; ok {
		u.PaymentStatus = status
	}
	return nil
}

type fakeGateway struct {
	created []gateway.IntentParams
	intents map[string]*gateway.Intent
}

func (g *fakeGateway) CreateIntent(_ context.Context, p gateway.IntentParams) (*gateway.Intent, error) {
	g.created = append(g.created, p)
	intent := &gateway.Intent{
		ID:           "pi_" + p.IdempotencyKey,
		ClientSecret: "secret_" + p.IdempotencyKey,
		Status:       "requires_payment_method",
		Amount:       p.AmountCents,
		Currency:     p.Currency,
	}
	if g.intents == nil {
		g.intents = map[string]*gateway.Intent{}
	}
	g.intents[intent.ID] = intent
	return intent, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*gateway.Intent, error) {
	if intent, ok := g.intents[id]; ok {
		return intent, nil
	}
	return nil, &gateway.APIError{StatusCode: 404, Message: "no such intent"}
}

func newReconcilerFix() (*Reconciler, *memLedger, *memEvents, *memDirectory, *fakeGateway) {
	ledger := &memLedger{}
	events := &memEvents{}
	users := &memDirectory{users: map[uint64]*model.User{
		1: {ID: 1, Email: "ana@example.com", PaymentStatus: model.PayStatusInactive},
	}}
	gw := &fakeGateway{}
	r := NewReconciler(ledger, events, users, gw)
	r.Now = func() time.Time { return testNow }
	return r, ledger, events, users, gw
}

func seedIntentPayment(ledger *memLedger, userID uint64, intentID, status string) *model.Payment {
	id := intentID
	return ledger.add(&model.Payment{
		UserID: userID, Amount: "50.00", Currency: "eur",
		Status: status, Method: "card", PaymentIntentID: &id,
	})
}

func intentEvent(t *testing.T, eventID, typ, intentID, status string) *gateway.Event {
	t.Helper()
	raw := []byte(fmt.Sprintf(`{"id":%q,"type":%q,"data":{"object":{"id":%q,"status":%q}}}`,
		eventID, typ, intentID, status))
	ev, err := gateway.ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	return ev
}

func TestCreateIntent(t *testing.T) {
	r, ledger, _, _, gw := newReconcilerFix()
	res, err := r.CreateIntent(context.Background(), IntentRequest{
		UserID: 1, Amount: "50.00", Currency: "EUR", Concept: "Cuota mensual", IdempotencyKey: "k1",
	})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if res.IntentID != "pi_k1" || res.ClientSecret == "" {
		t.Errorf("result = %+v", res)
	}
	if len(ledger.rows) != 1 {
		t.Fatalf("ledger has %d rows, want 1", len(ledger.rows))
	}
	p := ledger.rows[0]
	if p.Status != model.PaymentPending || p.Amount != "50.00" || p.Currency != "eur" {
		t.Errorf("payment = %+v", p)
	}
	if len(gw.created) != 1 || gw.created[0].AmountCents != 5000 {
		t.Errorf("gateway params = %+v", gw.created)
	}
}

func TestCreateIntentValidation(t *testing.T) {
	r, _, _, _, _ := newReconcilerFix()
	cases := []struct {
		name string
		req  IntentRequest
	}{
		{"zero_amount", IntentRequest{UserID: 1, Amount: "0.00", Currency: "eur"}},
		{"negative_amount", IntentRequest{UserID: 1, Amount: "-5.00", Currency: "eur"}},
		{"missing_currency", IntentRequest{UserID: 1, Amount: "5.00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.CreateIntent(context.Background(), tc.req)
			if got := kindOf(t, err); got != KindInvalidRequest {
				t.Errorf("kind = %s, want %s", got, KindInvalidRequest)
			}
		})
	}
}

func TestCreateIntentReplayInsertsOnce(t *testing.T) {
	r, ledger, _, _, _ := newReconcilerFix()
	req := IntentRequest{UserID: 1, Amount: "50.00", Currency: "eur", IdempotencyKey: "k1"}
	for i := 0; i < 2; i++ {
		if _, err := r.CreateIntent(context.Background(), req); err != nil {
			t.Fatalf("CreateIntent #%d: %v", i+1, err)
		}
	}
	if len(ledger.rows) != 1 {
		t.Errorf("ledger has %d rows, want 1", len(ledger.rows))
	}
}

func TestApplyEventIdempotent(t *testing.T) {
	r, ledger, events, users, _ := newReconcilerFix()
	seedIntentPayment(ledger, 1, "pi_1", model.PaymentPending)
	ev := intentEvent(t, "evt_1", "payment_intent.succeeded", "pi_1", "succeeded")

	raw := []byte(`{}`)
	if err := r.ApplyEvent(context.Background(), ev, raw); err != nil {
		t.Fatalf("first ApplyEvent: %v", err)
	}
	if err := r.ApplyEvent(context.Background(), ev, raw); err != nil {
		t.Fatalf("replayed ApplyEvent: %v", err)
	}
	if len(events.recorded) != 1 {
		t.Errorf("recorded %d events, want 1", len(events.recorded))
	}
	if users.settlements != 1 {
		t.Errorf("settlements = %d, want 1", users.settlements)
	}
	if got := ledger.rows[0].Status; got != model.PaymentSucceeded {
		t.Errorf("status = %s, want succeeded", got)
	}
}

func TestApplyEventPaymentFailed(t *testing.T) {
	r, ledger, _, users, _ := newReconcilerFix()
	seedIntentPayment(ledger, 1, "pi_1", model.PaymentPending)
	ev := intentEvent(t, "evt_f", "payment_intent.payment_failed", "pi_1", "requires_payment_method")
	if err := r.ApplyEvent(context.Background(), ev, nil); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if got := ledger.rows[0].Status; got != model.PaymentFailed {
		t.Errorf("status = %s, want failed", got)
	}
	if users.settlements != 0 {
		t.Error("a failed payment must not settle")
	}
}

func TestApplyEventRefund(t *testing.T) {
	r, ledger, _, _, _ := newReconcilerFix()
	seedIntentPayment(ledger, 1, "pi_1", model.PaymentSucceeded)
	raw := []byte(`{"id":"evt_r","type":"charge.refunded","data":{"object":{"payment_intent":"pi_1"}}}`)
	ev, err := gateway.ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if err := r.ApplyEvent(context.Background(), ev, raw); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if got := ledger.rows[0].Status; got != model.PaymentRefunded {
		t.Errorf("status = %s, want refunded", got)
	}
}

func TestApplyEventUnknownIntentIsAcknowledged(t *testing.T) {
	r, ledger, events, _, _ := newReconcilerFix()
	ev := intentEvent(t, "evt_x", "payment_intent.succeeded", "pi_missing", "succeeded")
	if err := r.ApplyEvent(context.Background(), ev, nil); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if len(ledger.rows) != 0 {
		t.Error("no ledger row should have been created")
	}
	// The delivery is still recorded so a later replay stays a no-op.
	if len(events.recorded) != 1 {
		t.Errorf("recorded %d events, want 1", len(events.recorded))
	}
}

func TestApplyEventUnknownTypeIsAcknowledged(t *testing.T) {
	r, _, events, _, _ := newReconcilerFix()
	raw := []byte(`{"id":"evt_n","type":"customer.created","data":{"object":{}}}`)
	ev, err := gateway.ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if err := r.ApplyEvent(context.Background(), ev, raw); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if len(events.recorded) != 1 {
		t.Errorf("recorded %d events, want 1", len(events.recorded))
	}
}

func TestPollIntentSettles(t *testing.T) {
	r, ledger, _, users, gw := newReconcilerFix()
	seedIntentPayment(ledger, 1, "pi_1", model.PaymentPending)
	gw.intents = map[string]*gateway.Intent{
		"pi_1": {ID: "pi_1", Status: "succeeded"},
	}
	p, err := r.PollIntent(context.Background(), "pi_1")
	if err != nil {
		t.Fatalf("PollIntent: %v", err)
	}
	if p.Status != model.PaymentSucceeded {
		t.Errorf("status = %s, want succeeded", p.Status)
	}
	if users.settlements != 1 {
		t.Errorf("settlements = %d, want 1", users.settlements)
	}
}

func TestPollIntentUnknownLocally(t *testing.T) {
	r, _, _, _, gw := newReconcilerFix()
	gw.intents = map[string]*gateway.Intent{
		"pi_ghost": {ID: "pi_ghost", Status: "processing"},
	}
	_, err := r.PollIntent(context.Background(), "pi_ghost")
	if got := kindOf(t, err); got != KindResourceNotFound {
		t.Errorf("kind = %s, want %s", got, KindResourceNotFound)
	}
}

func TestEffectiveStatus(t *testing.T) {
	past := testNow.Add(-24 * time.Hour)
	future := testNow.Add(24 * time.Hour)
	cases := []struct {
		name     string
		statuses []string
		subEnd   *time.Time
		want     string
	}{
		{"no_payments", nil, nil, model.PayStatusInactive},
		{"settled", []string{model.PaymentSucceeded}, nil, model.PayStatusActive},
		{"settled_manual_paid", []string{model.PaymentPaid}, nil, model.PayStatusActive},
		{"settled_subscription_live", []string{model.PaymentSucceeded}, &future, model.PayStatusActive},
		{"settled_subscription_lapsed", []string{model.PaymentSucceeded}, &past, model.PayStatusInactive},
		{"pending_only", []string{model.PaymentPending}, nil, model.PayStatusPending},
		{"failed_only", []string{model.PaymentFailed}, nil, model.PayStatusInactive},
		{"lapsed_with_open_charge", []string{model.PaymentSucceeded, model.PaymentPending}, &past, model.PayStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, ledger, _, users, _ := newReconcilerFix()
			users.users[1].SubscriptionEndDate = tc.subEnd
			for _, s := range tc.statuses {
				ledger.add(&model.Payment{UserID: 1, Amount: "50.00", Status: s})
			}
			got, err := r.EffectiveStatus(context.Background(), 1)
			if err != nil {
				t.Fatalf("EffectiveStatus: %v", err)
			}
			if got != tc.want {
				t.Errorf("status = %s, want %s", got, tc.want)
			}
			// The cached hint is refreshed when it drifts.
			if users.users[1].PaymentStatus != tc.want {
				t.Errorf("cached hint = %s, want %s", users.users[1].PaymentStatus, tc.want)
			}
		})
	}
}

func TestEffectiveStatusUnknownUser(t *testing.T) {
	r, _, _, _, _ := newReconcilerFix()
	_, err := r.EffectiveStatus(context.Background(), 99)
	if got := kindOf(t, err); got != KindResourceNotFound {
		t.Errorf("kind = %s, want %s", got, KindResourceNotFound)
	}
}

func TestDiscountInvalidatesSummary(t *testing.T) {
	r, ledger, _, _, _ := newReconcilerFix()
	r.Cache = NewSummaryCache(nil)
	p := ledger.add(&model.Payment{UserID: 1, Amount: "200.00", Status: model.PaymentPending})

	if _, err := r.Summary(context.Background(), 1); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	got, err := r.Discount(context.Background(), p.ID, 25)
	if err != nil {
		t.Fatalf("Discount: %v", err)
	}
	if got.Amount != "150.00" {
		t.Errorf("amount = %q, want 150.00", got.Amount)
	}
	s, err := r.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary after discount: %v", err)
	}
	if s.PendingCharges != "150.00" {
		t.Errorf("pending = %q, want 150.00 (cache must have been invalidated)", s.PendingCharges)
	}
}
