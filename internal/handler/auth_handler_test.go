package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pchs-registration-api/internal/middleware"
	"github.com/noah-isme/pchs-registration-api/internal/models"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
)

type authServiceStub struct {
	login models.LoginRequest
}

func (s *authServiceStub) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	s.login = req
	if req.Password != "secret" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{Token: "tok", ExpiresIn: 60, User: models.AdminInfo{ID: 1, Username: req.Username}}, nil
}

func (s *authServiceStub) Register(ctx context.Context) error {
	return appErrors.ErrRegistrationDisabled
}

func (s *authServiceStub) Me(ctx context.Context, claims *models.JWTClaims) (*models.AdminInfo, error) {
	return &models.AdminInfo{ID: claims.AdminID, Username: claims.Username}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &authServiceStub{}
	h := NewAuthHandler(stub)
	router := gin.New()
	router.POST("/auth/login", h.Login)

	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"EVT","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"token":"tok"`)
	assert.Equal(t, "EVT", stub.login.Username)

	req, _ = http.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"EVT","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = performRequest(router, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Invalid login name or password.")
}

func TestAuthHandlerLoginMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/login", NewAuthHandler(&authServiceStub{}).Login)

	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAuthHandlerRegisterAlwaysForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"username":"x","password":"y"}`))

	NewAuthHandler(&authServiceStub{}).Register(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration is disabled.")
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&authServiceStub{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AdminID: 3, Username: "EVT"})
	h.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"EVT"`)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	h.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
