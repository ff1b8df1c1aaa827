package model

import "time"

// User roles. Admins manage rooms, configuration and penalizations;
// regular users create and cancel their own bookings.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Documentation review states. Non-admin users must be approved before
// the admission engine accepts a booking from them.
const (
	DocPending  = "pending"
	DocApproved = "approved"
	DocRejected = "rejected"
)

// Cached payment statuses stored on the user row. These are hints kept
// in sync by webhook processing; authoritative status is always
// recomputed from the payment ledger (see service.Reconciler).
const (
	PayStatusActive   = "active"
	PayStatusInactive = "inactive"
	PayStatusPending  = "pending"
)

// User represents an application user record as stored in the `users`
// table. The json tags are omitted because these structs are used by
// the repository layer; handlers define separate response types.
//
// Fields:
//  ID                  – primary key identifier.
//  Email               – unique email address.
//  PasswordHash        – bcrypt hashed password.
//  Role                – ADMIN or USER.
//  PaymentStatus       – cached effective status (active/inactive/pending).
//  LastPaymentDate     – when the last settled payment was applied (nullable).
//  SubscriptionEndDate – end of a prepaid subscription window (nullable).
//  DocumentationStatus – pending, approved or rejected.
//  IsActive            – whether the account is active.
//  CreatedAt           – timestamp of creation.
//  UpdatedAt           – timestamp of last update.
type User struct {
	ID                  uint64     // users.id
	Email               string     // users.email
	PasswordHash        string     // users.password_hash
	Role                string     // users.role
	PaymentStatus       string     // users.payment_status
	LastPaymentDate     *time.Time // users.last_payment_date (nullable)
	SubscriptionEndDate *time.Time // users.subscription_end_date (nullable)
	DocumentationStatus string     // users.documentation_status
	IsActive            bool       // users.is_active
	CreatedAt           time.Time  // users.created_at
	UpdatedAt           time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and carries expiry and revocation
// metadata. The plain token is never stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
