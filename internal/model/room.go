package model

import "time"

// Room represents a bookable consultorio as stored in the `rooms`
// table. Prices are kept in integer cents to avoid floating point
// arithmetic; the payment ledger converts to major units when an
// obligation is created.
//
// Fields:
//  ID               – primary key identifier.
//  Name             – display name shown to customers.
//  HourlyPriceCents – price per full hour in minor currency units.
//  IsActive         – soft-delete flag; inactive rooms cannot be booked.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type Room struct {
	ID               uint64    // rooms.id
	Name             string    // rooms.name
	HourlyPriceCents uint32    // rooms.hourly_price_cents
	IsActive         bool      // rooms.is_active
	CreatedAt        time.Time // rooms.created_at
	UpdatedAt        time.Time // rooms.updated_at
}
