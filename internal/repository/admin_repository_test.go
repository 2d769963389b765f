package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pchs-registration-api/internal/models"
)

var adminRowColumns = []string{"id", "username", "email", "password_hash", "full_name", "is_active", "last_login_at", "created_at"}

func TestAdminRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE username = $1 AND is_active = TRUE LIMIT 1")).
		WithArgs("EVT").
		WillReturnRows(sqlmock.NewRows(adminRowColumns).AddRow(int64(1), "EVT", "evt@pchsbamenda.edu", "hash", "Default Admin (EVT)", true, nil, now))

	admin, err := repo.FindByUsername(context.Background(), "EVT")
	require.NoError(t, err)
	assert.Equal(t, int64(1), admin.ID)
	assert.Equal(t, "hash", admin.PasswordHash)
	assert.Nil(t, admin.LastLoginAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE id = $1 AND is_active = TRUE")).
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 5)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryCreateAndExists(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM admins WHERE username = $1)")).
		WithArgs("EVT").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO admins").
		WithArgs("EVT", "evt@pchsbamenda.edu", "hash", "Default Admin (EVT)", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	exists, err := repo.ExistsByUsername(context.Background(), "EVT")
	require.NoError(t, err)
	assert.False(t, exists)

	admin := &models.Admin{Username: "EVT", Email: "evt@pchsbamenda.edu", PasswordHash: "hash", FullName: "Default Admin (EVT)", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), admin))
	assert.Equal(t, int64(1), admin.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryUpdateLastLogin(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE admins SET last_login_at = $2 WHERE id = $1")).
		WithArgs(int64(1), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), 1, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}
