package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/sati-centro/consulta-booking/internal/model"
	"github.com/sati-centro/consulta-booking/internal/queue"
	"github.com/sati-centro/consulta-booking/internal/repository"
)

// isConflict reports whether a store error is the overlapping-booking
// constraint violation raised inside the admission transaction.
func isConflict(err error) bool { return errors.Is(err, repository.ErrConflict) }

// Store interfaces consumed by the admission engine. The MySQL
// repositories satisfy them in production; tests supply in-memory
// doubles.

// UserStore resolves users for eligibility checks.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// RoomStore resolves rooms for existence and pricing.
type RoomStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
}

// ConfigStore reads policy knobs. Every admission attempt reads fresh
// values so an admin change applies on the next request.
type ConfigStore interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
}

// BookingStore persists bookings. Admit must perform the conflict
// check and both inserts atomically and return
// repository.ErrConflict when an overlapping booking exists.
type BookingStore interface {
	Admit(ctx context.Context, b *model.Booking, p *model.Payment) error
	HasConflict(ctx context.Context, roomID uint64, date, startTime, endTime string) (bool, error)
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	CountActiveByUser(ctx context.Context, userID uint64) (int, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
}

// PaymentStore is the slice of the payment ledger the admission engine
// touches: the outstanding-balance guard and penalization.
type PaymentStore interface {
	CountPendingByUser(ctx context.Context, userID uint64) (int, error)
	GetByBookingID(ctx context.Context, bookingID uint64) (*model.Payment, error)
	UpdateAmount(ctx context.Context, id uint64, amount string) error
}

// Notifier publishes the post-admission notification event. Failures
// are logged and swallowed; a booking is never rolled back because an
// email could not be dispatched.
type Notifier interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// Invalidator drops cached account summaries after a payment write.
type Invalidator interface {
	Invalidate(ctx context.Context, userID uint64)
}

// BookingRequest is the admission input. Date is "2006-01-02"; times
// are "HH:MM" restricted to whole hours.
type BookingRequest struct {
	UserID    uint64
	RoomID    uint64
	Date      string
	StartTime string
	EndTime   string
	Notes     *string
}

// Admission validates booking requests against runtime policy and the
// existing ledger, and creates the booking plus its companion payment
// obligation when every check passes.
type Admission struct {
	Users     UserStore
	Rooms     RoomStore
	Bookings  BookingStore
	Payments  PaymentStore
	Config    ConfigStore
	Notifier  Notifier    // optional
	Summaries Invalidator // optional
	Currency  string
	Now       func() time.Time
}

// NewAdmission wires an admission engine. Notifier and Summaries may
// be nil; Currency defaults to "eur" and Now to time.Now.
func NewAdmission(users UserStore, rooms RoomStore, bookings BookingStore, payments PaymentStore, config ConfigStore) *Admission {
	if users == nil || rooms == nil || bookings == nil || payments == nil || config == nil {
		panic("nil store passed to NewAdmission")
	}
	return &Admission{
		Users:    users,
		Rooms:    rooms,
		Bookings: bookings,
		Payments: payments,
		Config:   config,
		Currency: "eur",
		Now:      time.Now,
	}
}

// intValue reads a numeric policy knob, falling back to def when the
// key is unset or not numeric.
func (a *Admission) intValue(ctx context.Context, key string, def int) (int, error) {
	v, ok, err := a.Config.GetValue(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, nil
	}
	return n, nil
}

// parseSlot validates the structural shape of a requested slot and
// returns the start instant plus the duration in whole hours.
func parseSlot(date, startTime, endTime string, loc *time.Location) (time.Time, int, *Error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, 0, errf(KindInvalidRequest, "invalid date %q, want YYYY-MM-DD", date)
	}
	startH, err := parseHour(startTime)
	if err != nil {
		return time.Time{}, 0, errf(KindInvalidRequest, "invalid start_time %q, want HH:00", startTime)
	}
	endH, err := parseHour(endTime)
	if err != nil {
		return time.Time{}, 0, errf(KindInvalidRequest, "invalid end_time %q, want HH:00", endTime)
	}
	if endH <= startH {
		return time.Time{}, 0, errf(KindInvalidRequest, "end_time must be after start_time")
	}
	start := day.Add(time.Duration(startH) * time.Hour)
	return start, endH - startH, nil
}

// parseHour accepts "HH:MM" with MM == 00 and 0 <= HH <= 23.
func parseHour(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	if t.Minute() != 0 {
		return 0, fmt.Errorf("minutes must be 00")
	}
	return t.Hour(), nil
}

// AttemptBooking runs the admission pipeline. Checks run in a fixed
// order and short-circuit on the first failure; each failure carries a
// distinct Kind so the handler can surface a precise reason. On
// success it returns the persisted booking and its payment obligation.
func (a *Admission) AttemptBooking(ctx context.Context, req BookingRequest) (*model.Booking, *model.Payment, error) {
	now := a.Now().UTC()

	// 1. Identity and documentation eligibility.
	user, err := a.Users.GetByID(ctx, req.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, errf(KindDocumentation, "documentation approval required")
	}
	if err != nil {
		return nil, nil, err
	}
	if user.Role != model.RoleAdmin && user.DocumentationStatus != model.DocApproved {
		return nil, nil, errf(KindDocumentation, "documentation approval required")
	}

	// 2. Structural validation of the requested slot.
	start, durationHours, verr := parseSlot(req.Date, req.StartTime, req.EndTime, time.UTC)
	if verr != nil {
		return nil, nil, verr
	}

	// 3. Resource existence. Soft-deleted rooms are not bookable.
	room, err := a.Rooms.GetByID(ctx, req.RoomID)
	if errors.Is(err, repository.ErrRoomNotFound) {
		return nil, nil, errf(KindResourceNotFound, "room %d not found", req.RoomID)
	}
	if err != nil {
		return nil, nil, err
	}
	if !room.IsActive {
		return nil, nil, errf(KindResourceNotFound, "room %d not found", req.RoomID)
	}

	// 4. Temporal sanity.
	if start.Before(now) {
		return nil, nil, errf(KindPastDate, "booking start is in the past")
	}

	// 5. Advance-notice policy.
	advanceDays, err := a.intValue(ctx, model.ConfigAdvanceBookingDays, model.DefaultAdvanceBookingDays)
	if err != nil {
		return nil, nil, err
	}
	if int(start.Sub(now).Hours()/24) < advanceDays {
		return nil, nil, errf(KindAdvanceNotice, "bookings require at least %d day(s) advance notice", advanceDays)
	}

	// 6. Active-booking quota.
	maxActive, err := a.intValue(ctx, model.ConfigMaxActiveBookings, model.DefaultMaxActiveBookings)
	if err != nil {
		return nil, nil, err
	}
	active, err := a.Bookings.CountActiveByUser(ctx, req.UserID)
	if err != nil {
		return nil, nil, err
	}
	if active >= maxActive {
		return nil, nil, errf(KindQuotaExceeded, "active booking limit of %d reached", maxActive)
	}

	// 7. Duration cap.
	maxHours, err := a.intValue(ctx, model.ConfigMaxDurationHours, model.DefaultMaxDurationHours)
	if err != nil {
		return nil, nil, err
	}
	if durationHours > maxHours {
		return nil, nil, errf(KindDurationTooLong, "bookings may last at most %d hour(s)", maxHours)
	}

	// 8. Conflict detection. This read is advisory; Admit repeats it
	// atomically so a concurrent loser still fails with ErrConflict.
	conflict, err := a.Bookings.HasConflict(ctx, req.RoomID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, nil, err
	}
	if conflict {
		return nil, nil, errf(KindResourceConflict, "room %d is already booked for that time range", req.RoomID)
	}

	// 9. Outstanding-payment guard.
	pending, err := a.Payments.CountPendingByUser(ctx, req.UserID)
	if err != nil {
		return nil, nil, err
	}
	if pending > maxActive {
		return nil, nil, errf(KindUnpaidBalance, "too many unpaid charges; settle pending payments first")
	}

	booking := &model.Booking{
		RoomID:    req.RoomID,
		UserID:    req.UserID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    model.BookingConfirmed,
		Notes:     req.Notes,
	}
	payment := &model.Payment{
		UserID:   req.UserID,
		Amount:   FormatCents(int64(room.HourlyPriceCents) * int64(durationHours)),
		Currency: a.Currency,
		Concept:  fmt.Sprintf("Reserva de %s el %s de %s a %s (%s)", room.Name, req.Date, req.StartTime, req.EndTime, user.Email),
		Status:   model.PaymentPending,
		Method:   "booking",
	}
	if err := a.Bookings.Admit(ctx, booking, payment); err != nil {
		if isConflict(err) {
			return nil, nil, errf(KindResourceConflict, "room %d is already booked for that time range", req.RoomID)
		}
		return nil, nil, err
	}
	if a.Summaries != nil {
		a.Summaries.Invalidate(ctx, req.UserID)
	}
	a.notify(ctx, booking, payment, room, user)
	return booking, payment, nil
}

// notify publishes the booking.confirmed event. Best effort only.
func (a *Admission) notify(ctx context.Context, b *model.Booking, p *model.Payment, room *model.Room, user *model.User) {
	if a.Notifier == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      user.ID,
		UserEmail:   user.Email,
		RoomID:      room.ID,
		RoomName:    room.Name,
		Date:        b.Date,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Amount:      p.Amount,
		Currency:    p.Currency,
		ConfirmedAt: a.Now().UTC().Format(time.RFC3339),
	}
	if err := a.Notifier.PublishBookingConfirmed(ctx, ev); err != nil {
		log.Printf("admission: booking %d confirmation notify failed: %v", b.ID, err)
	}
}

// SetStatus transitions a booking. Owners may only cancel, and only
// when the start is at least cancellation_hours_notice away; admins
// may apply any transition at any time. Transitions out of a terminal
// status are permitted for admins but logged for the audit trail.
func (a *Admission) SetStatus(ctx context.Context, bookingID uint64, newStatus string, actorID uint64) (*model.Booking, error) {
	if !model.ValidBookingStatus(newStatus) {
		return nil, errf(KindInvalidRequest, "unknown status %q", newStatus)
	}
	actor, err := a.Users.GetByID(ctx, actorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errf(KindForbidden, "not allowed to modify this booking")
	}
	if err != nil {
		return nil, err
	}
	booking, err := a.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, errf(KindResourceNotFound, "booking %d not found", bookingID)
		}
		return nil, err
	}

	isAdmin := actor.Role == model.RoleAdmin
	if !isAdmin {
		if booking.UserID != actorID {
			return nil, errf(KindForbidden, "not allowed to modify this booking")
		}
		if newStatus != model.BookingCancelled {
			return nil, errf(KindForbidden, "only cancellation is allowed")
		}
		if model.IsTerminal(booking.Status) {
			return nil, errf(KindInvalidRequest, "booking is already %s", booking.Status)
		}
		notice, err := a.intValue(ctx, model.ConfigCancellationNoticeHr, model.DefaultCancellationNoticeHr)
		if err != nil {
			return nil, err
		}
		start, _, verr := parseSlot(booking.Date, booking.StartTime, booking.EndTime, time.UTC)
		if verr != nil {
			return nil, verr
		}
		if start.Sub(a.Now().UTC()).Hours() < float64(notice) {
			return nil, errf(KindCancellationNotice, "cancellations require at least %d hour(s) notice", notice)
		}
	} else if model.IsTerminal(booking.Status) {
		log.Printf("audit: admin %d overrides terminal booking %d: %s -> %s", actorID, bookingID, booking.Status, newStatus)
	}

	if err := a.Bookings.UpdateStatus(ctx, bookingID, newStatus); err != nil {
		return nil, err
	}
	booking.Status = newStatus
	return booking, nil
}

// Penalize applies a percentage discount to the payment tied to a
// booking and invalidates the owner's cached account summary. The
// handler restricts this operation to admins.
func (a *Admission) Penalize(ctx context.Context, bookingID uint64, percentage int) (*model.Payment, error) {
	if percentage < 0 || percentage > 100 {
		return nil, errf(KindInvalidRequest, "percentage must be between 0 and 100")
	}
	if _, err := a.Bookings.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, errf(KindResourceNotFound, "booking %d not found", bookingID)
		}
		return nil, err
	}
	payment, err := a.Payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, errf(KindResourceNotFound, "booking %d has no payment", bookingID)
		}
		return nil, err
	}
	discounted, err := ApplyDiscount(payment.Amount, percentage)
	if err != nil {
		return nil, errf(KindInvalidRequest, "%v", err)
	}
	if err := a.Payments.UpdateAmount(ctx, payment.ID, discounted); err != nil {
		return nil, err
	}
	payment.Amount = discounted
	if a.Summaries != nil {
		a.Summaries.Invalidate(ctx, payment.UserID)
	}
	return payment, nil
}
