package model

import "time"

// Keys of the policy knobs consumed by the admission engine. Values
// live in the `system_config` table as strings; defaults apply when a
// key is unset or not numeric.
const (
	ConfigAdvanceBookingDays   = "advance_booking_days"
	ConfigMaxActiveBookings    = "max_active_bookings"
	ConfigMaxDurationHours     = "max_booking_duration_hours"
	ConfigCancellationNoticeHr = "cancellation_hours_notice"
)

// Defaults used when a policy key has no stored value.
const (
	DefaultAdvanceBookingDays   = 0
	DefaultMaxActiveBookings    = 8
	DefaultMaxDurationHours     = 4
	DefaultCancellationNoticeHr = 24
)

// SystemConfig is one key/value row of runtime configuration. Admins
// may change values at any time; the admission engine reads them fresh
// on every attempt so a policy change takes effect on the next request.
//
// Fields:
//  Key       – unique setting name.
//  Value     – string value, numeric by convention for policy knobs.
//  UpdatedAt – timestamp of the last write.
//  UpdatedBy – user id of the admin who wrote it (0 for seeds).
type SystemConfig struct {
	Key       string    // system_config.key
	Value     string    // system_config.value
	UpdatedAt time.Time // system_config.updated_at
	UpdatedBy uint64    // system_config.updated_by
}
