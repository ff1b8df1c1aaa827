package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sati-centro/consulta-booking/internal/model"
)

// BookingRepo provides persistence for the booking ledger. Bookings
// are never deleted; they move between the confirmed, cancelled and
// completed statuses. All timestamp columns are stored in UTC.
type BookingRepo struct{ DB *sql.DB }

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

// Admit atomically performs the conflict check, the booking insert and
// the companion payment insert. The transaction runs at serializable
// isolation so two concurrent requests for overlapping slots cannot
// both pass the check before either insert commits; the loser surfaces
// as ErrConflict. On success both records have their generated ids and
// timestamps populated.
func (r *BookingRepo) Admit(ctx context.Context, b *model.Booking, p *model.Payment) error {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Overlap test on the half-open interval [start,end): an existing
	// booking conflicts iff it starts before the requested end and
	// ends after the requested start. HH:MM strings compare correctly
	// as text.
	const conflictQ = `SELECT COUNT(*) FROM bookings
	                   WHERE room_id=? AND date=? AND status <> ?
	                     AND start_time < ? AND end_time > ?`
	var n int
	if err := tx.QueryRowContext(ctx, conflictQ,
		b.RoomID, b.Date, model.BookingCancelled, b.EndTime, b.StartTime).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO bookings (room_id, user_id, date, start_time, end_time, status, notes) VALUES (?,?,?,?,?,?,?)",
		b.RoomID, b.UserID, b.Date, b.StartTime, b.EndTime, b.Status, b.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	p.BookingID = &b.ID
	pres, err := tx.ExecContext(ctx,
		"INSERT INTO payments (user_id, booking_id, amount, currency, concept, status, method) VALUES (?,?,?,?,?,?,?)",
		p.UserID, p.BookingID, p.Amount, p.Currency, p.Concept, p.Status, p.Method)
	if err != nil {
		return err
	}
	pid, err := pres.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(pid)

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// HasConflict reports whether any non-cancelled booking for the room
// and date overlaps the half-open [startTime,endTime) interval. This
// is the advisory pre-check of the admission pipeline; Admit repeats
// the test inside its transaction.
func (r *BookingRepo) HasConflict(ctx context.Context, roomID uint64, date, startTime, endTime string) (bool, error) {
	const q = `SELECT COUNT(*) FROM bookings
	           WHERE room_id=? AND date=? AND status <> ?
	             AND start_time < ? AND end_time > ?`
	var n int
	if err := r.DB.QueryRowContext(ctx, q, roomID, date, model.BookingCancelled, endTime, startTime).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID returns a booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,room_id,user_id,date,start_time,end_time,status,notes,created_at,updated_at FROM bookings WHERE id=? LIMIT 1",
		id).Scan(&b.ID, &b.RoomID, &b.UserID, &b.Date, &b.StartTime, &b.EndTime, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CountActiveByUser returns how many confirmed bookings the user
// currently holds. Used for the active-booking quota.
func (r *BookingRepo) CountActiveByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE user_id=? AND status=?",
		userID, model.BookingConfirmed).Scan(&n)
	return n, err
}

// UpdateStatus transitions a booking. The caller (the admission
// engine) is responsible for the ownership and notice-period checks.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE bookings SET status=? WHERE id=?", status, id)
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

// BookingFilter narrows List results. Zero values mean "no filter";
// Date and From/To are "2006-01-02" strings and are mutually
// exclusive in practice (handlers pass one or the other).
type BookingFilter struct {
	UserID uint64
	RoomID uint64
	Date   string
	From   string
	To     string
	Status string
}

// List returns bookings matching the filter ordered by date and start
// time. An empty filter returns the whole ledger.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	q := "SELECT id,room_id,user_id,date,start_time,end_time,status,notes,created_at,updated_at FROM bookings"
	conds := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	if f.UserID != 0 {
		conds = append(conds, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.RoomID != 0 {
		conds = append(conds, "room_id=?")
		args = append(args, f.RoomID)
	}
	if f.Date != "" {
		conds = append(conds, "date=?")
		args = append(args, f.Date)
	}
	if f.From != "" {
		conds = append(conds, "date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		conds = append(conds, "date <= ?")
		args = append(args, f.To)
	}
	if f.Status != "" {
		conds = append(conds, "status=?")
		args = append(args, f.Status)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY date, start_time"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.RoomID, &b.UserID, &b.Date, &b.StartTime, &b.EndTime, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
