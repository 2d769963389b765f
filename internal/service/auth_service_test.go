package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pchs-registration-api/internal/models"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
)

type fakeAdminRepo struct {
	admins      map[string]*models.Admin
	lookups     int
	lastLoginAt *time.Time
	findErr     error
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: make(map[string]*models.Admin)}
}

func (f *fakeAdminRepo) add(t *testing.T, username, password string, active bool) *models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.Admin{ID: int64(len(f.admins) + 1), Username: username, Email: username + "@pchs.test", PasswordHash: string(hash), IsActive: active}
	f.admins[username] = admin
	return admin
}

func (f *fakeAdminRepo) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	f.lookups++
	if f.findErr != nil {
		return nil, f.findErr
	}
	admin, ok := f.admins[username]
	if !ok || !admin.IsActive {
		return nil, sql.ErrNoRows
	}
	return admin, nil
}

func (f *fakeAdminRepo) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	for _, admin := range f.admins {
		if admin.ID == id && admin.IsActive {
			return admin, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAdminRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := f.admins[username]
	return ok, nil
}

func (f *fakeAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	admin.ID = int64(len(f.admins) + 1)
	f.admins[admin.Username] = admin
	return nil
}

func (f *fakeAdminRepo) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	f.lastLoginAt = &ts
	return nil
}

func newAuthServiceForTest(repo *fakeAdminRepo) *AuthService {
	return NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		TokenSecret:   "secret",
		TokenExpiry:   time.Hour,
		Issuer:        "pchs-registration",
		AdminUsername: "EVT",
		AdminPassword: "s3cret!",
		AdminEmail:    "evt@pchsbamenda.edu",
		AdminFullName: "Default Admin (EVT)",
	})
}

func TestLoginIssuesTokenForConfiguredAdmin(t *testing.T) {
	repo := newFakeAdminRepo()
	repo.add(t, "EVT", "s3cret!", true)
	svc := newAuthServiceForTest(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: " EVT ", Password: "s3cret!"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "EVT", resp.User.Username)
	assert.NotNil(t, repo.lastLoginAt)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.AdminID)
	assert.Equal(t, "EVT", claims.Username)
	assert.Equal(t, "1", claims.Subject)
}

func TestLoginRejectsOtherUsernamesWithoutLookup(t *testing.T) {
	repo := newFakeAdminRepo()
	repo.add(t, "admin", "s3cret!", true)
	svc := newAuthServiceForTest(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "s3cret!"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.Status)
	assert.Equal(t, "Invalid login name or password.", appErr.Message)
	assert.Zero(t, repo.lookups)
}

func TestLoginFailures(t *testing.T) {
	repo := newFakeAdminRepo()
	svc := newAuthServiceForTest(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "EVT", Password: "s3cret!"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	repo.add(t, "EVT", "s3cret!", true)
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "EVT", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	repo.admins["EVT"].IsActive = false
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "EVT", Password: "s3cret!"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "", Password: ""})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	repo.findErr = errors.New("db down")
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "EVT", Password: "s3cret!"})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	repo := newFakeAdminRepo()
	repo.add(t, "EVT", "s3cret!", true)
	svc := newAuthServiceForTest(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "EVT", Password: "s3cret!"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.Token + "x")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.ValidateToken("not.a.token")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(resp.Token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{AdminID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.ValidateToken(unsigned)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestRegisterIsDisabled(t *testing.T) {
	svc := newAuthServiceForTest(newFakeAdminRepo())
	err := svc.Register(context.Background())
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 403, appErr.Status)
	assert.Equal(t, "Registration is disabled. Use the default admin login only.", appErr.Message)
}

func TestEnsureDefaultAdminIsIdempotent(t *testing.T) {
	repo := newFakeAdminRepo()
	svc := newAuthServiceForTest(repo)

	created, err := svc.EnsureDefaultAdmin(context.Background())
	require.NoError(t, err)
	assert.True(t, created)
	admin := repo.admins["EVT"]
	require.NotNil(t, admin)
	assert.True(t, svc.VerifyPassword(admin, "s3cret!"))
	assert.False(t, svc.VerifyPassword(admin, "other"))

	created, err = svc.EnsureDefaultAdmin(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, repo.admins, 1)
}

func TestMe(t *testing.T) {
	repo := newFakeAdminRepo()
	repo.add(t, "EVT", "s3cret!", true)
	svc := newAuthServiceForTest(repo)

	info, err := svc.Me(context.Background(), &models.JWTClaims{AdminID: 1})
	require.NoError(t, err)
	assert.Equal(t, "EVT", info.Username)

	_, err = svc.Me(context.Background(), &models.JWTClaims{AdminID: 9})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Me(context.Background(), nil)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
