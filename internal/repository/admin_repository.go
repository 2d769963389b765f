package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pchs-registration-api/internal/models"
)

const adminColumns = `id, username, email, password_hash, COALESCE(full_name, '') AS full_name, is_active, last_login_at, created_at`

// AdminRepository provides database access for admin identities.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByUsername returns an active admin by username.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE username = $1 AND is_active = TRUE LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by username: %w", err)
	}
	return &admin, nil
}

// FindByID returns an active admin by identifier.
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1 AND is_active = TRUE LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// ExistsByUsername reports whether any admin, active or not, holds the username.
func (r *AdminRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM admins WHERE username = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("check admin username: %w", err)
	}
	return exists, nil
}

// Create inserts an admin and fills in the generated id and creation time.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	const query = `INSERT INTO admins (username, email, password_hash, full_name, is_active)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, admin.Username, admin.Email, admin.PasswordHash, admin.FullName, admin.IsActive).
		Scan(&admin.ID, &admin.CreatedAt); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the admin's last successful login.
func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	const query = `UPDATE admins SET last_login_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
