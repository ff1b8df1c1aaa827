package model

import "time"

// Booking status lifecycle. Bookings are created as confirmed and are
// never deleted; they only transition between statuses.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// Booking records a user's reservation of a room for a contiguous
// time range on a single calendar day. Times are wall-clock strings
// in "HH:MM" form restricted to whole hours; Date uses "2006-01-02".
// The half-open interval [StartTime, EndTime) is what conflict
// detection operates on: a booking ending at 11:00 does not collide
// with one starting at 11:00.
//
// Fields:
//  ID        – primary key identifier.
//  RoomID    – room being reserved.
//  UserID    – owner of the reservation.
//  Date      – calendar day of the reservation.
//  StartTime – inclusive start, "HH:MM".
//  EndTime   – exclusive end, "HH:MM".
//  Status    – confirmed, cancelled or completed.
//  Notes     – optional free text supplied by the requester.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Booking struct {
	ID        uint64    // bookings.id
	RoomID    uint64    // bookings.room_id
	UserID    uint64    // bookings.user_id
	Date      string    // bookings.date
	StartTime string    // bookings.start_time
	EndTime   string    // bookings.end_time
	Status    string    // bookings.status
	Notes     *string   // bookings.notes (nullable)
	CreatedAt time.Time // bookings.created_at
	UpdatedAt time.Time // bookings.updated_at
}

// IsTerminal reports whether a status is an end state of the booking
// lifecycle. Admins may still override terminal bookings; the change
// is audited by the caller.
func IsTerminal(status string) bool {
	return status == BookingCancelled || status == BookingCompleted
}

// ValidBookingStatus reports whether s names a known booking status.
func ValidBookingStatus(s string) bool {
	return s == BookingConfirmed || s == BookingCancelled || s == BookingCompleted
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Times are "HH:MM" strings, which compare
// correctly as plain strings because the format is fixed width.
// The predicate is symmetric and treats a shared boundary (one
// interval ending exactly when the other starts) as non-overlapping.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}
