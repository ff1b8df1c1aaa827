package repository

import (
	"context"
	"database/sql"

	"github.com/sati-centro/consulta-booking/internal/model"
)

// ConfigRepo reads and writes the system_config table. The admission
// engine reads values through GetValue on every attempt; there is
// deliberately no application-level cache here so an admin change is
// honored on the very next request.
type ConfigRepo struct{ DB *sql.DB }

// NewConfigRepo returns a ConfigRepo bound to the given database.
func NewConfigRepo(db *sql.DB) *ConfigRepo { return &ConfigRepo{DB: db} }

// GetValue returns the stored value for key and whether it exists.
func (r *ConfigRepo) GetValue(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.DB.QueryRowContext(ctx,
		"SELECT value FROM system_config WHERE `key`=? LIMIT 1", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Upsert writes a key, recording who changed it. Existing keys are
// overwritten in place.
func (r *ConfigRepo) Upsert(ctx context.Context, key, value string, updatedBy uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO system_config (`key`, value, updated_by) VALUES (?,?,?) ON DUPLICATE KEY UPDATE value=VALUES(value), updated_by=VALUES(updated_by)",
		key, value, updatedBy)
	return err
}

// List returns every config row ordered by key.
func (r *ConfigRepo) List(ctx context.Context) ([]model.SystemConfig, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT `key`, value, updated_at, updated_by FROM system_config ORDER BY `key`")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SystemConfig, 0)
	for rows.Next() {
		var c model.SystemConfig
		if err := rows.Scan(&c.Key, &c.Value, &c.UpdatedAt, &c.UpdatedBy); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
