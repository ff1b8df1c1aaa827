package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sati-centro/consulta-booking/internal/model"
	"github.com/sati-centro/consulta-booking/internal/utils"
)

// UserRepo mirrors the `users` table. The payment_status column is a
// cached hint written by webhook processing; authoritative status is
// recomputed from the ledger by the reconciliation engine.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,email,password_hash,role,payment_status,last_payment_date,subscription_end_date,documentation_status,is_active,created_at,updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.PaymentStatus,
		&u.LastPaymentDate, &u.SubscriptionEndDate, &u.DocumentationStatus,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and returns its id. New users start with
// documentation pending and payment status inactive.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, payment_status, documentation_status) VALUES (?,?,?,?,?)",
		email, hash, role, model.PayStatusInactive, model.DocPending)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// ApplySettlement records the side effects of a succeeded payment:
// cached status flips to active, the settlement instant is remembered
// and any subscription window is cleared (the succeeded charge opens a
// fresh one).
func (r *UserRepo) ApplySettlement(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET payment_status=?, last_payment_date=NOW(), subscription_end_date=NULL WHERE id=?",
		model.PayStatusActive, userID)
	return err
}

// SetPaymentStatus overwrites the cached payment status hint.
func (r *UserRepo) SetPaymentStatus(ctx context.Context, userID uint64, status string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET payment_status=? WHERE id=?", status, userID)
	return err
}

// SetDocumentationStatus is used by admin review flows.
func (r *UserRepo) SetDocumentationStatus(ctx context.Context, userID uint64, status string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET documentation_status=? WHERE id=?", status, userID)
	return err
}
