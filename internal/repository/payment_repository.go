package repository

import (
	"context"
	"database/sql"

	"github.com/sati-centro/consulta-booking/internal/model"
)

// PaymentRepo persists the payment ledger. Rows are created either as
// booking obligations (by BookingRepo.Admit, inside the admission
// transaction) or when a gateway intent is opened; webhook processing
// advances their status afterwards.
type PaymentRepo struct{ DB *sql.DB }

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

const paymentCols = "id,user_id,booking_id,amount,currency,concept,status,method,payment_intent_id,idempotency_key,created_at,updated_at"

func scanPayment(row interface{ Scan(...interface{}) error }) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.BookingID, &p.Amount, &p.Currency, &p.Concept,
		&p.Status, &p.Method, &p.PaymentIntentID, &p.IdempotencyKey, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateIntentPayment inserts the local row for a gateway intent. The
// unique key on payment_intent_id makes replays safe: when a row for
// the intent already exists the duplicate insert is swallowed and the
// existing row is returned, so at most one Payment exists per intent.
func (r *PaymentRepo) CreateIntentPayment(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO payments (user_id, booking_id, amount, currency, concept, status, method, payment_intent_id, idempotency_key) VALUES (?,?,?,?,?,?,?,?,?)",
		p.UserID, p.BookingID, p.Amount, p.Currency, p.Concept, p.Status, p.Method, p.PaymentIntentID, p.IdempotencyKey)
	if err != nil {
		if isDuplicateKey(err) && p.PaymentIntentID != nil {
			return r.GetByIntentID(ctx, *p.PaymentIntentID)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	p.ID = uint64(id)
	return p, nil
}

// GetByID returns a payment or ErrPaymentNotFound.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	p, err := scanPayment(r.DB.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// GetByBookingID returns the obligation tied to a booking.
func (r *PaymentRepo) GetByBookingID(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	p, err := scanPayment(r.DB.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE booking_id=? LIMIT 1", bookingID))
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// GetByIntentID returns the payment mirroring a gateway intent.
func (r *PaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
	p, err := scanPayment(r.DB.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE payment_intent_id=? LIMIT 1", intentID))
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// UpdateStatusByIntentID mirrors a gateway intent status onto the
// local row. Missing rows return ErrPaymentNotFound so the caller can
// decide whether a webhook referenced an unknown intent.
func (r *PaymentRepo) UpdateStatusByIntentID(ctx context.Context, intentID, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE payments SET status=? WHERE payment_intent_id=?", status, intentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByIntentID(ctx, intentID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateAmount rewrites the stored amount (used by penalization).
func (r *PaymentRepo) UpdateAmount(ctx context.Context, id uint64, amount string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE payments SET amount=? WHERE id=?", amount, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// CountPendingByUser returns the number of pending payments for the
// outstanding-balance guard of the admission pipeline.
func (r *PaymentRepo) CountPendingByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payments WHERE user_id=? AND status=?",
		userID, model.PaymentPending).Scan(&n)
	return n, err
}

// ListByUser returns the user's payments newest first, capped at
// limit (0 means no cap). The account-summary projection consumes it.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Payment, error) {
	q := "SELECT " + paymentCols + " FROM payments WHERE user_id=? ORDER BY created_at DESC, id DESC"
	args := []interface{}{userID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
