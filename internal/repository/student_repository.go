package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pchs-registration-api/internal/models"
)

var studentColumns = []string{
	"id", "full_name", "date_of_birth", "gender", "class_applying_for", "parent_guardian_name",
	"phone_number", "email", "address", "previous_school", "passport_photo_path",
	"registration_fee", "payment_status", "payment_provider", "payment_phone",
	"status", "reviewed_by", "reviewed_at", "notes", "created_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// StudentRepository manages persistence for registration records.
type StudentRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a registration and fills in the generated id and creation time.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.Status == "" {
		student.Status = models.StudentStatusPending
	}
	if student.PaymentStatus == "" {
		student.PaymentStatus = models.PaymentStatusPending
	}
	query, args, err := r.sb.Insert("students").
		Columns(
			"full_name", "date_of_birth", "gender", "class_applying_for", "parent_guardian_name",
			"phone_number", "email", "address", "previous_school", "passport_photo_path",
			"registration_fee", "payment_status", "payment_provider", "payment_phone", "status",
		).
		Values(
			student.FullName, student.DateOfBirth, student.Gender, student.ClassApplyingFor, student.ParentGuardianName,
			student.PhoneNumber, student.Email, student.Address, student.PreviousSchool, student.PassportPhotoPath,
			student.RegistrationFee, student.PaymentStatus, student.PaymentProvider, student.PaymentPhone, student.Status,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert student: %w", err)
	}
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&student.ID, &student.CreatedAt); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// List returns registrations newest first. A zero limit returns every match.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	builder := r.applyFilter(r.sb.Select(studentColumns...).From("students"), filter).
		OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list students: %w", err)
	}
	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Count returns the number of registrations matching the filter, ignoring limit and offset.
func (r *StudentRepository) Count(ctx context.Context, filter models.StudentFilter) (int64, error) {
	query, args, err := r.applyFilter(r.sb.Select("COUNT(*)").From("students"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count students: %w", err)
	}
	var total int64
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// FindByID fetches a registration by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query, args, err := r.sb.Select(studentColumns...).From("students").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find student: %w", err)
	}
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// UpdateStatus records a review decision and returns the updated row.
func (r *StudentRepository) UpdateStatus(ctx context.Context, id int64, status models.StudentStatus, reviewerID int64, notes *string, reviewedAt time.Time) (*models.Student, error) {
	query, args, err := r.sb.Update("students").
		Set("status", status).
		Set("reviewed_by", reviewerID).
		Set("reviewed_at", reviewedAt).
		Set("notes", notes).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(studentColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update student status: %w", err)
	}
	var student models.Student
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update student status: %w", err)
	}
	return &student, nil
}

// Delete hard-deletes a registration. It reports whether a row was removed and the photo it referenced.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (bool, *string, error) {
	query, args, err := r.sb.Delete("students").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING passport_photo_path").
		ToSql()
	if err != nil {
		return false, nil, fmt.Errorf("build delete student: %w", err)
	}
	var photo *string
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&photo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("delete student: %w", err)
	}
	return true, photo, nil
}

// CountByStatus groups registrations by status. Statuses without rows are absent.
func (r *StudentRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	query, args, err := r.sb.Select("status", "COUNT(*) AS count").From("students").GroupBy("status").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count by status: %w", err)
	}
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count students by status: %w", err)
	}
	return counts, nil
}

func (r *StudentRepository) applyFilter(builder squirrel.SelectBuilder, filter models.StudentFilter) squirrel.SelectBuilder {
	if filter.Status != "" {
		builder = builder.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + likeEscaper.Replace(filter.Search) + "%"
		builder = builder.Where(squirrel.Or{
			squirrel.ILike{"full_name": pattern},
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"phone_number": pattern},
		})
	}
	return builder
}
