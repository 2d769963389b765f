package models

import "time"

// Admin is a dashboard operator allowed to review registrations.
type Admin struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Info strips credentials for responses.
func (a *Admin) Info() AdminInfo {
	return AdminInfo{ID: a.ID, Username: a.Username, Email: a.Email, FullName: a.FullName}
}
