package repository

import (
	"context"
	"database/sql"

	"github.com/sati-centro/consulta-booking/internal/model"
)

// RoomRepo provides CRUD operations for the room catalog. Rooms are
// soft-deleted (is_active=0) rather than removed, because historic
// bookings keep referencing them.
type RoomRepo struct{ DB *sql.DB }

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

// Create inserts a room and returns its generated id.
func (r *RoomRepo) Create(ctx context.Context, name string, hourlyPriceCents uint32) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO rooms (name, hourly_price_cents, is_active) VALUES (?,?,1)",
		name, hourlyPriceCents)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a room by id regardless of its active flag. Callers
// that must reject inactive rooms (the admission engine) check
// IsActive themselves. Returns ErrRoomNotFound when no row exists.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	var rm model.Room
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,hourly_price_cents,is_active,created_at,updated_at FROM rooms WHERE id=? LIMIT 1",
		id).Scan(&rm.ID, &rm.Name, &rm.HourlyPriceCents, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

// List returns rooms ordered by name. When activeOnly is true,
// soft-deleted rooms are excluded.
func (r *RoomRepo) List(ctx context.Context, activeOnly bool) ([]model.Room, error) {
	q := "SELECT id,name,hourly_price_cents,is_active,created_at,updated_at FROM rooms"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY name"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		var rm model.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.HourlyPriceCents, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// Update changes name and/or hourly price. Nil arguments leave the
// corresponding column untouched. Returns ErrRoomNotFound when the
// room does not exist.
func (r *RoomRepo) Update(ctx context.Context, id uint64, name *string, hourlyPriceCents *uint32) error {
	if name == nil && hourlyPriceCents == nil {
		return nil
	}
	q := "UPDATE rooms SET "
	args := make([]interface{}, 0, 3)
	if name != nil {
		q += "name=?"
		args = append(args, *name)
	}
	if hourlyPriceCents != nil {
		if name != nil {
			q += ", "
		}
		q += "hourly_price_cents=?"
		args = append(args, *hourlyPriceCents)
	}
	q += " WHERE id=?"
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either missing or unchanged; distinguish with a lookup.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate soft-deletes a room and cascade-cancels its future
// confirmed bookings inside one transaction, so no orphaned
// reservations survive the deletion. It returns the number of
// bookings cancelled.
func (r *RoomRepo) Deactivate(ctx context.Context, id uint64, today string) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx, "UPDATE rooms SET is_active=0 WHERE id=? AND is_active=1", id)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM rooms WHERE id=?", id).Scan(&exists); err == sql.ErrNoRows {
			return 0, ErrRoomNotFound
		} else if err != nil {
			return 0, err
		}
		// Already inactive; nothing further to cancel.
	}
	cres, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE room_id=? AND status=? AND date >= ?",
		model.BookingCancelled, id, model.BookingConfirmed, today)
	if err != nil {
		return 0, err
	}
	cancelled, err := cres.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return cancelled, nil
}
