// Package queue defines message payloads exchanged over the message
// broker together with the publisher and the notification consumer.
package queue

// BookingConfirmedQueue is the durable queue carrying admission
// notifications to the email dispatcher.
const BookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published when the admission engine accepts
// a booking. It carries enough information for downstream consumers to
// notify the owner without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	UserEmail   string `json:"user_email"`
	RoomID      uint64 `json:"room_id"`
	RoomName    string `json:"room_name"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	ConfirmedAt string `json:"confirmed_at"`
}
