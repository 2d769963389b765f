package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pchs-registration-api/internal/models"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
)

type adminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	FindByID(ctx context.Context, id int64) (*models.Admin, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, admin *models.Admin) error
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration
	Issuer      string

	// AdminUsername is the only login name accepted.
	AdminUsername string
	AdminPassword string
	AdminEmail    string
	AdminFullName string
}

// AuthService provides authentication use cases for the single seeded admin.
type AuthService struct {
	repo      adminRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo adminRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.TokenExpiry <= 0 {
		config.TokenExpiry = 7 * 24 * time.Hour
	}
	config.AdminUsername = strings.TrimSpace(config.AdminUsername)
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates the configured admin and issues a session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Login name and password are required.")
	}

	if req.Username != s.config.AdminUsername {
		return nil, appErrors.ErrInvalidCredentials
	}

	admin, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Login failed.")
	}

	if !s.VerifyPassword(admin, req.Password) {
		return nil, appErrors.ErrInvalidCredentials
	}

	now := s.now().UTC()
	token, expiresAt, err := s.generateToken(admin, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Login failed.")
	}

	if err := s.repo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Int64("admin_id", admin.ID), zap.Error(err))
	}
	s.logger.Info("admin logged in", zap.Int64("admin_id", admin.ID))

	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.TokenExpiry.Seconds()),
		ExpiresAt: expiresAt,
		User:      admin.Info(),
	}, nil
}

// Register is disabled; only the seeded admin may sign in.
func (s *AuthService) Register(ctx context.Context) error {
	return appErrors.ErrRegistrationDisabled
}

// VerifyPassword compares a plaintext password against the stored bcrypt hash.
func (s *AuthService) VerifyPassword(admin *models.Admin, password string) bool {
	if admin == nil || admin.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) == nil
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.TokenSecret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "Invalid or expired token.")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.AdminID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Invalid or expired token.")
	}
	return claims, nil
}

// Me returns the admin identified by the token claims.
func (s *AuthService) Me(ctx context.Context, claims *models.JWTClaims) (*models.AdminInfo, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	admin, err := s.repo.FindByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Admin not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error.")
	}
	info := admin.Info()
	return &info, nil
}

// EnsureDefaultAdmin creates the configured admin when no account holds its username.
// It reports whether an account was created.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context) (bool, error) {
	if s.config.AdminUsername == "" || s.config.AdminPassword == "" {
		return false, fmt.Errorf("default admin username and password must be configured")
	}
	exists, err := s.repo.ExistsByUsername(ctx, s.config.AdminUsername)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash default admin password: %w", err)
	}
	admin := &models.Admin{
		Username:     s.config.AdminUsername,
		Email:        s.config.AdminEmail,
		PasswordHash: string(hash),
		FullName:     s.config.AdminFullName,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return false, err
	}
	s.logger.Info("default admin created", zap.String("username", admin.Username), zap.Int64("admin_id", admin.ID))
	return true, nil
}

func (s *AuthService) generateToken(admin *models.Admin, issuedAt time.Time) (string, time.Time, error) {
	expiresAt := issuedAt.Add(s.config.TokenExpiry)
	claims := &models.JWTClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(admin.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
