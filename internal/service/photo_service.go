package service

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pchs-registration-api/internal/validation"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
)

type photoFileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type photoSignedURLSigner interface {
	Generate(subject, filename string) (string, time.Time, error)
	Parse(token string) (subject, filename string, err error)
}

type photoChecker interface {
	CheckPhoto(filename string, size int64, content io.Reader) error
	MaxPhotoSize() int64
}

// PhotoUpload carries an uploaded passport photo.
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// PhotoDownload bundles an opened photo for streaming.
type PhotoDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	SizeBytes   int64
}

// PhotoService stores passport photos and issues signed links to them.
type PhotoService struct {
	storage   photoFileStorage
	signer    photoSignedURLSigner
	checker   photoChecker
	logger    *zap.Logger
	urlPrefix string
	now       func() time.Time
}

// NewPhotoService constructs a PhotoService. urlPrefix is the path the download route is mounted under.
func NewPhotoService(storage photoFileStorage, signer photoSignedURLSigner, checker photoChecker, logger *zap.Logger, urlPrefix string) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads/photos"
	}
	return &PhotoService{
		storage:   storage,
		signer:    signer,
		checker:   checker,
		logger:    logger,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		now:       time.Now,
	}
}

// Store validates and saves the upload, returning the stored file name. A nil upload stores nothing.
func (s *PhotoService) Store(upload *PhotoUpload) (string, error) {
	if upload == nil || upload.Content == nil {
		return "", nil
	}
	if err := s.checker.CheckPhoto(upload.Filename, upload.Size, upload.Content); err != nil {
		if errors.Is(err, validation.ErrPhotoTooLarge) {
			return "", appErrors.Clone(appErrors.ErrUpload, validation.PhotoSizeMessage(s.checker.MaxPhotoSize()))
		}
		return "", appErrors.Clone(appErrors.ErrUpload, validation.PhotoTypeMessage)
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	name, err := s.storage.SaveStream(s.photoName(upload.Filename), upload.Content)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store passport photo")
	}
	return name, nil
}

// Remove deletes a stored photo. Failures are logged only.
func (s *PhotoService) Remove(filename string) {
	if filename == "" {
		return
	}
	if err := s.storage.Delete(filename); err != nil {
		s.logger.Warn("failed to remove passport photo", zap.String("file", filename), zap.Error(err))
	}
}

// URL returns a time-limited link to the photo of the given registration.
func (s *PhotoService) URL(studentID int64, filename string) (string, error) {
	token, _, err := s.signer.Generate(strconv.FormatInt(studentID, 10), filename)
	if err != nil {
		return "", fmt.Errorf("sign photo url: %w", err)
	}
	return s.urlPrefix + "/" + token, nil
}

// Open verifies a signed token and opens the photo it names.
func (s *PhotoService) Open(token string) (*PhotoDownload, error) {
	_, filename, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Invalid or expired token.")
	}
	file, err := s.storage.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Photo not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open passport photo")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read passport photo metadata")
	}
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &PhotoDownload{File: file, Filename: filename, ContentType: contentType, SizeBytes: info.Size()}, nil
}

// photoName builds passport_<epoch-ms>_<random><ext>, falling back to .jpg for unknown extensions.
func (s *PhotoService) photoName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !validation.AllowedPhotoExtension(original) {
		ext = ".jpg"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("passport_%d_%s%s", s.now().UnixMilli(), suffix, ext)
}
