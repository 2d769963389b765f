package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pchs-registration-api/internal/models"
	"github.com/noah-isme/pchs-registration-api/internal/validation"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
)

// StatsCacheKey stores the cached status summary.
const StatsCacheKey = "students:stats"

type studentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	Count(ctx context.Context, filter models.StudentFilter) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	UpdateStatus(ctx context.Context, id int64, status models.StudentStatus, reviewerID int64, notes *string, reviewedAt time.Time) (*models.Student, error)
	Delete(ctx context.Context, id int64) (bool, *string, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
}

type feeResolver interface {
	FeeFor(className string) (int64, bool)
}

type formChecker interface {
	Check(values map[string]string) map[string]string
}

type photoKeeper interface {
	Store(upload *PhotoUpload) (string, error)
	Remove(filename string)
	URL(studentID int64, filename string) (string, error)
}

// StudentServiceConfig tunes the registration workflow.
type StudentServiceConfig struct {
	AllowClientFee bool
	StatsCacheTTL  time.Duration
}

// StudentService implements registration intake and the admin review workflow.
type StudentService struct {
	repo    studentRepository
	fees    feeResolver
	checker formChecker
	photos  photoKeeper
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     StudentServiceConfig
	now     func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, fees feeResolver, checker formChecker, photos photoKeeper, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg StudentServiceConfig) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:    repo,
		fees:    fees,
		checker: checker,
		photos:  photos,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Submit validates a public registration, stores the optional photo and creates the record.
// The photo is removed again when the record cannot be created.
func (s *StudentService) Submit(ctx context.Context, form models.StudentForm, photo *PhotoUpload) (*models.SubmitResult, error) {
	if failures := s.checker.Check(form.Values()); len(failures) > 0 {
		return nil, appErrors.Validation(failures)
	}
	dob, err := models.ParseDate(strings.TrimSpace(form.DateOfBirth))
	if err != nil {
		return nil, appErrors.Validation(map[string]string{"dateOfBirth": "Invalid date"})
	}

	class := strings.TrimSpace(form.ClassApplyingFor)
	student := &models.Student{
		FullName:           strings.TrimSpace(form.FullName),
		DateOfBirth:        dob,
		Gender:             strings.TrimSpace(form.Gender),
		ClassApplyingFor:   class,
		ParentGuardianName: strings.TrimSpace(form.ParentGuardianName),
		PhoneNumber:        validation.StripWhitespace(form.PhoneNumber),
		Email:              strings.ToLower(strings.TrimSpace(form.Email)),
		Address:            strings.TrimSpace(form.Address),
		PreviousSchool:     optionalString(form.PreviousSchool),
		RegistrationFee:    s.resolveFee(class, form.RegistrationFee),
		PaymentStatus:      models.PaymentStatusPending,
		PaymentProvider:    optionalString(form.PaymentProvider),
		PaymentPhone:       optionalString(validation.StripWhitespace(form.PaymentPhone)),
		Status:             models.StudentStatusPending,
	}

	photoName, err := s.photos.Store(photo)
	if err != nil {
		return nil, err
	}
	if photoName != "" {
		student.PassportPhotoPath = &photoName
	}

	if err := s.repo.Create(ctx, student); err != nil {
		s.photos.Remove(photoName)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Registration failed.")
	}

	s.invalidateStats(ctx)
	s.metrics.RecordSubmission()
	s.logger.Info("registration submitted",
		zap.Int64("student_id", student.ID),
		zap.String("class", student.ClassApplyingFor),
		zap.Bool("photo", photoName != ""),
	)
	return &models.SubmitResult{ID: student.ID, Message: "Registration submitted successfully."}, nil
}

// List returns registrations newest first with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Validation(map[string]string{"status": "Invalid status."})
	}
	filter = filter.Normalize()
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch students.")
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch students.")
	}
	return students, &models.Pagination{Limit: filter.Limit, Offset: filter.Offset, TotalCount: total}, nil
}

// Get returns one registration with a signed photo link when a photo is stored.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if student.PassportPhotoPath != nil && *student.PassportPhotoPath != "" {
		url, err := s.photos.URL(student.ID, *student.PassportPhotoPath)
		if err != nil {
			s.logger.Warn("failed to sign photo url", zap.Int64("student_id", id), zap.Error(err))
		} else {
			student.PassportPhotoURL = url
		}
	}
	return student, nil
}

// Review approves or rejects a pending registration on behalf of the acting admin.
func (s *StudentService) Review(ctx context.Context, id int64, req models.ReviewRequest, actor *models.JWTClaims) (*models.Student, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	status := models.StudentStatus(strings.TrimSpace(req.Status))
	if !status.Reviewable() {
		return nil, appErrors.Clone(appErrors.Validation(map[string]string{"status": "Invalid status."}), "Invalid status.")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StudentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Registration has already been reviewed.")
	}

	var notes *string
	if req.Notes != nil {
		notes = optionalString(*req.Notes)
	}
	reviewedAt := s.now().UTC()
	if reviewedAt.Before(current.CreatedAt) {
		reviewedAt = current.CreatedAt
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, actor.AdminID, notes, reviewedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Update failed.")
	}

	s.invalidateStats(ctx)
	s.metrics.RecordReview(status)
	s.logger.Info("registration reviewed",
		zap.Int64("student_id", id),
		zap.String("status", string(status)),
		zap.Int64("admin_id", actor.AdminID),
	)
	return updated, nil
}

// Delete hard-deletes a registration and its stored photo.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	deleted, photo, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Delete failed.")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "Student not found.")
	}
	if photo != nil {
		s.photos.Remove(*photo)
	}
	s.invalidateStats(ctx)
	s.logger.Info("registration deleted", zap.Int64("student_id", id))
	return nil
}

// Stats returns registration counts per status. Results are cached when caching is enabled.
func (s *StudentService) Stats(ctx context.Context) (models.StudentStats, error) {
	var cached models.StudentStats
	if hit, _ := s.cache.Get(ctx, StatsCacheKey, &cached); hit {
		return cached, nil
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return models.StudentStats{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch stats.")
	}
	stats := models.NewStudentStats(counts)
	_ = s.cache.Set(ctx, StatsCacheKey, stats, s.cfg.StatsCacheTTL)
	return stats, nil
}

func (s *StudentService) find(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error.")
	}
	return student, nil
}

func (s *StudentService) resolveFee(class string, clientFee *int64) *int64 {
	if fee, ok := s.fees.FeeFor(class); ok {
		return &fee
	}
	if s.cfg.AllowClientFee && clientFee != nil && *clientFee > 0 {
		fee := *clientFee
		return &fee
	}
	return nil
}

func (s *StudentService) invalidateStats(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, StatsCacheKey)
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
