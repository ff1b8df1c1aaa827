package model

import "time"

// Payment statuses. The pending → processing → succeeded chain mirrors
// the gateway's intent lifecycle; paid marks settlements recorded by an
// operator outside the gateway; canceled, failed and refunded are
// terminal gateway outcomes.
const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentSucceeded  = "succeeded"
	PaymentPaid       = "paid"
	PaymentCanceled   = "canceled"
	PaymentFailed     = "failed"
	PaymentRefunded   = "refunded"
)

// Payment is a row of the payment ledger. A payment either backs a
// booking (obligation created at admission time, BookingID set) or a
// subscription charge initiated through the gateway (BookingID nil).
// Amount is a two-decimal major-unit string such as "200.00"; all
// arithmetic happens on integer cents and is formatted back.
// At most one row may exist per external PaymentIntentID.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – paying user.
//  BookingID       – booking the obligation belongs to (nullable).
//  Amount          – decimal string in major currency units.
//  Currency        – ISO currency code, lower case.
//  Concept         – human-readable description, at most 500 chars.
//  Status          – see constants above.
//  Method          – payment method label (e.g. "card").
//  PaymentIntentID – gateway intent id (nullable, unique when present).
//  IdempotencyKey  – caller-supplied retry token (nullable, unique when present).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Payment struct {
	ID              uint64    // payments.id
	UserID          uint64    // payments.user_id
	BookingID       *uint64   // payments.booking_id (nullable)
	Amount          string    // payments.amount
	Currency        string    // payments.currency
	Concept         string    // payments.concept
	Status          string    // payments.status
	Method          string    // payments.method
	PaymentIntentID *string   // payments.payment_intent_id (nullable)
	IdempotencyKey  *string   // payments.idempotency_key (nullable)
	CreatedAt       time.Time // payments.created_at
	UpdatedAt       time.Time // payments.updated_at
}

// IsSettled reports whether a payment counts as successfully collected
// for reconciliation and summary totals.
func IsSettled(status string) bool {
	return status == PaymentSucceeded || status == PaymentPaid
}

// PaymentEvent is the webhook dedup ledger. The existence of a row for
// an EventID means that delivery has already been applied; the unique
// key on event_id makes the insert itself the idempotency check under
// at-least-once delivery.
//
// Fields:
//  EventID         – gateway-supplied unique event identifier.
//  PaymentIntentID – intent the event refers to, when present.
//  Type            – gateway event type (e.g. "payment_intent.succeeded").
//  Payload         – raw event body snapshot for auditing.
//  ReceivedAt      – when the delivery was first applied.
type PaymentEvent struct {
	EventID         string    // payment_events.event_id
	PaymentIntentID *string   // payment_events.payment_intent_id (nullable)
	Type            string    // payment_events.type
	Payload         []byte    // payment_events.payload
	ReceivedAt      time.Time // payment_events.received_at
}
