package repository

import (
	"context"
	"database/sql"

	"github.com/sati-centro/consulta-booking/internal/model"
)

// PaymentEventRepo is the webhook dedup ledger. The gateway delivers
// events at least once and may retry concurrently; the unique key on
// event_id means the INSERT itself is the atomic "already applied?"
// check, with no separate existence lookup to race against.
type PaymentEventRepo struct{ DB *sql.DB }

// NewPaymentEventRepo returns a PaymentEventRepo bound to the database.
func NewPaymentEventRepo(db *sql.DB) *PaymentEventRepo { return &PaymentEventRepo{DB: db} }

// Record inserts the event row. A duplicate event id returns
// ErrDuplicateEvent, which callers acknowledge without side effects.
func (r *PaymentEventRepo) Record(ctx context.Context, ev *model.PaymentEvent) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO payment_events (event_id, payment_intent_id, type, payload) VALUES (?,?,?,?)",
		ev.EventID, ev.PaymentIntentID, ev.Type, ev.Payload)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

// Exists reports whether an event id has been recorded. Only used by
// observability endpoints; processing relies on Record.
func (r *PaymentEventRepo) Exists(ctx context.Context, eventID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM payment_events WHERE event_id=? LIMIT 1", eventID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
