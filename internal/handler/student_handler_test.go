package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pchs-registration-api/internal/middleware"
	"github.com/noah-isme/pchs-registration-api/internal/models"
	"github.com/noah-isme/pchs-registration-api/internal/service"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
)

type studentServiceStub struct {
	form      models.StudentForm
	photo     *service.PhotoUpload
	photoData []byte
	filter    models.StudentFilter
	review    models.ReviewRequest
	actor     *models.JWTClaims
	deletedID int64
	err       error
}

func (s *studentServiceStub) Submit(ctx context.Context, form models.StudentForm, photo *service.PhotoUpload) (*models.SubmitResult, error) {
	s.form = form
	s.photo = photo
	if photo != nil {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(photo.Content)
		s.photoData = buf.Bytes()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.SubmitResult{ID: 42, Message: "Registration submitted successfully."}, nil
}

func (s *studentServiceStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	s.filter = filter
	if s.err != nil {
		return nil, nil, s.err
	}
	return []models.Student{{ID: 1, FullName: "Jane Doe", Status: models.StudentStatusPending}}, &models.Pagination{Limit: 100, TotalCount: 1}, nil
}

func (s *studentServiceStub) Get(ctx context.Context, id int64) (*models.Student, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Student{ID: id, FullName: "Jane Doe"}, nil
}

func (s *studentServiceStub) Review(ctx context.Context, id int64, req models.ReviewRequest, actor *models.JWTClaims) (*models.Student, error) {
	s.review = req
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &models.Student{ID: id, Status: models.StudentStatus(req.Status)}, nil
}

func (s *studentServiceStub) Delete(ctx context.Context, id int64) error {
	s.deletedID = id
	return s.err
}

func (s *studentServiceStub) Stats(ctx context.Context) (models.StudentStats, error) {
	return models.StudentStats{Pending: 2, Approved: 1, Total: 3}, s.err
}

type exportServiceStub struct {
	err error
}

func (s exportServiceStub) CSV(ctx context.Context) (*service.ExportFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.ExportFile{Filename: "pchs_students.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("\ufeffFull Name\n")}, nil
}

func (s exportServiceStub) PDF(ctx context.Context) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "pchs_students.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}, nil
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newStudentRouter(students *studentServiceStub, exports exportServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStudentHandler(students, exports)
	router := gin.New()
	router.POST("/students", h.Submit)
	admin := router.Group("/students", func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{AdminID: 1, Username: "EVT"})
		c.Next()
	})
	admin.GET("", h.List)
	admin.GET("/stats", h.Stats)
	admin.GET("/export/csv", h.ExportCSV)
	admin.GET("/export/pdf", h.ExportPDF)
	admin.GET("/:id", h.Get)
	admin.PATCH("/:id/status", h.Review)
	admin.DELETE("/:id", h.Delete)
	return router
}

func multipartForm(t *testing.T, fields map[string]string, photoName string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if photoName != "" {
		part, err := writer.CreateFormFile("passportPhoto", photoName)
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestStudentHandlerSubmitMultipart(t *testing.T) {
	students := &studentServiceStub{}
	router := newStudentRouter(students, exportServiceStub{})

	body, contentType := multipartForm(t, map[string]string{
		"fullName":         "Jane Doe",
		"classApplyingFor": "Form 3",
		"paymentProvider":  "MTN",
	}, "me.png", []byte("png-bytes"))
	req, _ := http.NewRequest(http.MethodPost, "/students", body)
	req.Header.Set("Content-Type", contentType)

	resp := performRequest(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":42,"message":"Registration submitted successfully."}}`, resp.Body.String())
	assert.Equal(t, "Jane Doe", students.form.FullName)
	assert.Equal(t, "Form 3", students.form.ClassApplyingFor)
	assert.Equal(t, "MTN", students.form.PaymentProvider)
	require.NotNil(t, students.photo)
	assert.Equal(t, "me.png", students.photo.Filename)
	assert.Equal(t, int64(len("png-bytes")), students.photo.Size)
	assert.Equal(t, []byte("png-bytes"), students.photoData)
}

func TestStudentHandlerSubmitWithoutPhoto(t *testing.T) {
	students := &studentServiceStub{}
	router := newStudentRouter(students, exportServiceStub{})

	body, contentType := multipartForm(t, map[string]string{"fullName": "Jane Doe"}, "", nil)
	req, _ := http.NewRequest(http.MethodPost, "/students", body)
	req.Header.Set("Content-Type", contentType)

	resp := performRequest(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Nil(t, students.photo)
}

func TestStudentHandlerSubmitRejectsOversizedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	students := &studentServiceStub{}
	h := NewStudentHandler(students, exportServiceStub{}).WithUploadLimit(1 << 20)
	router := gin.New()
	router.POST("/students", h.Submit)

	body, contentType := multipartForm(t, map[string]string{"fullName": "Jane Doe"}, "big.png", bytes.Repeat([]byte{0x89}, 3<<20))
	req, _ := http.NewRequest(http.MethodPost, "/students", body)
	req.Header.Set("Content-Type", contentType)

	resp := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "File too large. Maximum size is 1MB.")
	assert.Nil(t, students.photo)
	assert.Empty(t, students.form.FullName)
}

func TestStudentHandlerSubmitValidationFailure(t *testing.T) {
	students := &studentServiceStub{err: appErrors.Validation(map[string]string{"fullName": "Full name is required"})}
	router := newStudentRouter(students, exportServiceStub{})

	body, contentType := multipartForm(t, map[string]string{}, "", nil)
	req, _ := http.NewRequest(http.MethodPost, "/students", body)
	req.Header.Set("Content-Type", contentType)

	resp := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), `"fullName":"Full name is required"`)
}

func TestStudentHandlerSubmitRejectsNonNumericFee(t *testing.T) {
	students := &studentServiceStub{}
	router := newStudentRouter(students, exportServiceStub{})

	body, contentType := multipartForm(t, map[string]string{"registrationFee": "lots"}, "", nil)
	req, _ := http.NewRequest(http.MethodPost, "/students", body)
	req.Header.Set("Content-Type", contentType)

	resp := performRequest(router, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, students.form.FullName)
}

func TestStudentHandlerListParsesQuery(t *testing.T) {
	students := &studentServiceStub{}
	router := newStudentRouter(students, exportServiceStub{})

	req, _ := http.NewRequest(http.MethodGet, "/students?status=approved&search=jane&limit=1000&offset=oops", nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.StudentStatusApproved, students.filter.Status)
	assert.Equal(t, "jane", students.filter.Search)
	assert.Equal(t, 1000, students.filter.Limit)
	assert.Equal(t, 0, students.filter.Offset)
	assert.Contains(t, resp.Body.String(), `"pagination":{"limit":100,"offset":0,"total_count":1}`)
}

func TestStudentHandlerGet(t *testing.T) {
	router := newStudentRouter(&studentServiceStub{}, exportServiceStub{})

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/students/7", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"id":7`)

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/students/abc", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStudentHandlerGetNotFound(t *testing.T) {
	students := &studentServiceStub{err: appErrors.Clone(appErrors.ErrNotFound, "Student not found.")}
	router := newStudentRouter(students, exportServiceStub{})

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/students/9", nil))

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "Student not found.")
}

func TestStudentHandlerReviewPassesActor(t *testing.T) {
	students := &studentServiceStub{}
	router := newStudentRouter(students, exportServiceStub{})

	req, _ := http.NewRequest(http.MethodPatch, "/students/3/status", bytes.NewBufferString(`{"status":"approved","notes":"ok"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "approved", students.review.Status)
	require.NotNil(t, students.review.Notes)
	assert.Equal(t, "ok", *students.review.Notes)
	require.NotNil(t, students.actor)
	assert.Equal(t, int64(1), students.actor.AdminID)
}

func TestStudentHandlerReviewWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/students/3/status", bytes.NewBufferString(`{"status":"approved"}`))
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	NewStudentHandler(&studentServiceStub{}, exportServiceStub{}).Review(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStudentHandlerDelete(t *testing.T) {
	students := &studentServiceStub{}
	router := newStudentRouter(students, exportServiceStub{})

	resp := performRequest(router, httptest.NewRequest(http.MethodDelete, "/students/5", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, int64(5), students.deletedID)
	assert.Contains(t, resp.Body.String(), "Record deleted.")
}

func TestStudentHandlerStats(t *testing.T) {
	router := newStudentRouter(&studentServiceStub{}, exportServiceStub{})

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/students/stats", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"success":true,"data":{"pending":2,"approved":1,"rejected":0,"total":3}}`, resp.Body.String())
}

func TestStudentHandlerExports(t *testing.T) {
	router := newStudentRouter(&studentServiceStub{}, exportServiceStub{})

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/students/export/csv", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=pchs_students.csv", resp.Header().Get("Content-Disposition"))
	assert.Equal(t, "\ufeffFull Name\n", resp.Body.String())

	resp = performRequest(router, httptest.NewRequest(http.MethodGet, "/students/export/pdf", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
}

func TestStudentHandlerExportFailure(t *testing.T) {
	router := newStudentRouter(&studentServiceStub{}, exportServiceStub{err: appErrors.Clone(appErrors.ErrInternal, "Export failed.")})

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/students/export/csv", nil))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "Export failed.")
}
