package service

import (
	"context"
	"time"

	"github.com/sati-centro/consulta-booking/internal/model"
)

// recentMovements caps how many ledger rows the summary lists.
const recentMovements = 10

// nextPaymentInterval is the heuristic gap between settled payments
// used to estimate the next charge date.
const nextPaymentInterval = 30 * 24 * time.Hour

// Movement is one ledger row of the account summary.
type Movement struct {
	PaymentID uint64    `json:"payment_id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Concept   string    `json:"concept"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountSummary aggregates a user's payment ledger: settled and
// outstanding totals, the most recent movements and a heuristic next
// payment date (last settled payment plus 30 days). It is a pure
// projection and safe to cache briefly.
type AccountSummary struct {
	UserID          uint64     `json:"user_id"`
	TotalPaid       string     `json:"total_paid"`
	PendingCharges  string     `json:"pending_charges"`
	Recent          []Movement `json:"recent"`
	NextPaymentDate *string    `json:"next_payment_date,omitempty"`
	GeneratedAt     time.Time  `json:"generated_at"`
}

// Summary returns the (possibly cached) account summary for a user.
// Entries live for the cache TTL and are proactively invalidated on
// every payment write for the user, so a stale read is bounded by the
// TTL even if an invalidation is missed.
func (r *Reconciler) Summary(ctx context.Context, userID uint64) (*AccountSummary, error) {
	if r.Cache != nil {
		if s, ok := r.Cache.Get(ctx, userID); ok {
			return s, nil
		}
	}
	payments, err := r.Ledger.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	var paidCents, pendingCents int64
	var lastSettled *time.Time
	for _, p := range payments {
		cents, err := ParseAmount(p.Amount)
		if err != nil {
			continue
		}
		switch {
		case model.IsSettled(p.Status):
			paidCents += cents
			if lastSettled == nil || p.CreatedAt.After(*lastSettled) {
				t := p.CreatedAt
				lastSettled = &t
			}
		case p.Status == model.PaymentPending:
			pendingCents += cents
		}
	}
	s := &AccountSummary{
		UserID:         userID,
		TotalPaid:      FormatCents(paidCents),
		PendingCharges: FormatCents(pendingCents),
		Recent:         make([]Movement, 0, recentMovements),
		GeneratedAt:    r.Now().UTC(),
	}
	for i, p := range payments {
		if i == recentMovements {
			break
		}
		s.Recent = append(s.Recent, Movement{
			PaymentID: p.ID,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Concept:   p.Concept,
			Status:    p.Status,
			CreatedAt: p.CreatedAt,
		})
	}
	if lastSettled != nil {
		next := lastSettled.Add(nextPaymentInterval).UTC().Format(time.RFC3339)
		s.NextPaymentDate = &next
	}
	if r.Cache != nil {
		r.Cache.Set(ctx, userID, s)
	}
	return s, nil
}
