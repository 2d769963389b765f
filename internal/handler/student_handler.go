package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pchs-registration-api/internal/models"
	"github.com/noah-isme/pchs-registration-api/internal/service"
	"github.com/noah-isme/pchs-registration-api/internal/validation"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
	"github.com/noah-isme/pchs-registration-api/pkg/response"
)

type studentService interface {
	Submit(ctx context.Context, form models.StudentForm, photo *service.PhotoUpload) (*models.SubmitResult, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Student, error)
	Review(ctx context.Context, id int64, req models.ReviewRequest, actor *models.JWTClaims) (*models.Student, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (models.StudentStats, error)
}

type exportService interface {
	CSV(ctx context.Context) (*service.ExportFile, error)
	PDF(ctx context.Context) (*service.ExportFile, error)
}

// formOverhead is the room left for text fields and multipart framing on top of the photo limit.
const formOverhead = 1 << 20

// StudentHandler serves the public registration form and the admin registration desk.
type StudentHandler struct {
	students     studentService
	exports      exportService
	maxPhotoSize int64
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students studentService, exports exportService) *StudentHandler {
	return &StudentHandler{students: students, exports: exports}
}

// WithUploadLimit caps submission bodies at maxPhotoSize plus form overhead.
// A zero limit leaves bodies uncapped.
func (h *StudentHandler) WithUploadLimit(maxPhotoSize int64) *StudentHandler {
	h.maxPhotoSize = maxPhotoSize
	return h
}

// Submit godoc
// @Summary Submit a registration
// @Description Public multipart registration form with an optional passport photo
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param fullName formData string true "Full name"
// @Param dateOfBirth formData string true "Date of birth (YYYY-MM-DD)"
// @Param gender formData string true "Male, Female or Other"
// @Param classApplyingFor formData string true "Class"
// @Param parentGuardianName formData string true "Parent or guardian"
// @Param phoneNumber formData string true "Phone number"
// @Param email formData string true "Email"
// @Param address formData string true "Address"
// @Param previousSchool formData string false "Previous school"
// @Param paymentProvider formData string false "Mobile money provider"
// @Param paymentPhone formData string false "Mobile money number"
// @Param passportPhoto formData file false "Passport photo"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Submit(c *gin.Context) {
	if h.maxPhotoSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxPhotoSize+formOverhead)
	}

	var form models.StudentForm
	if err := c.ShouldBind(&form); err != nil {
		if h.bodyTooLarge(err) {
			response.Error(c, appErrors.Clone(appErrors.ErrUpload, validation.PhotoSizeMessage(h.maxPhotoSize)))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid registration form."))
		return
	}

	photo, closer, err := photoFromRequest(c)
	if err != nil {
		if h.bodyTooLarge(err) {
			err = appErrors.Clone(appErrors.ErrUpload, validation.PhotoSizeMessage(h.maxPhotoSize))
		}
		response.Error(c, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	result, err := h.students.Submit(c.Request.Context(), form, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *StudentHandler) bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return h.maxPhotoSize > 0 && errors.As(err, &maxErr)
}

// photoFromRequest reads the optional passport photo part. A missing part yields a nil upload.
func photoFromRequest(c *gin.Context) (*service.PhotoUpload, io.Closer, error) {
	fileHeader, err := c.FormFile(validation.FieldPassportPhoto)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "Invalid photo upload.")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Registration failed.")
	}

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		_ = src.Close()
		if readErr != nil {
			return nil, nil, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Registration failed.")
		}
		return &service.PhotoUpload{Filename: fileHeader.Filename, Size: fileHeader.Size, Content: bytes.NewReader(buf)}, nil, nil
	}
	return &service.PhotoUpload{Filename: fileHeader.Filename, Size: fileHeader.Size, Content: reader}, src, nil
}

// List godoc
// @Summary List registrations
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Param search query string false "Matches name, email or phone"
// @Param limit query int false "Page size (max 500)"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Status: models.StudentStatus(strings.TrimSpace(c.Query("status"))),
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Stats godoc
// @Summary Registration counts by status
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /students/stats [get]
func (h *StudentHandler) Stats(c *gin.Context) {
	stats, err := h.students.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Get godoc
// @Summary Get a registration
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, err := studentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Review godoc
// @Summary Approve or reject a registration
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param payload body models.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/status [patch]
func (h *StudentHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := studentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid status."))
		return
	}
	student, err := h.students.Review(c.Request.Context(), id, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete a registration
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, err := studentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Record deleted."}, nil)
}

// ExportCSV godoc
// @Summary Export registrations as CSV
// @Tags Students
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /students/export/csv [get]
func (h *StudentHandler) ExportCSV(c *gin.Context) {
	h.sendExport(c, h.exports.CSV)
}

// ExportPDF godoc
// @Summary Export registrations as a PDF roster
// @Tags Students
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /students/export/pdf [get]
func (h *StudentHandler) ExportPDF(c *gin.Context) {
	h.sendExport(c, h.exports.PDF)
}

func (h *StudentHandler) sendExport(c *gin.Context, render func(context.Context) (*service.ExportFile, error)) {
	file, err := render(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return value
}
