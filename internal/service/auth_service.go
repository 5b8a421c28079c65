package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/config"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/observability"
	"github.com/tablebook/reservation-service/internal/repository"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+_-]{3,150}$`)

var fieldValidator = validator.New(validator.WithRequiredStructEnabled())

const invalidCredentials = "No active account found with the given credentials"

// AuthService coordinates signup, login and token lifecycle.
type AuthService struct {
	users      repository.UserRepository
	blacklist  repository.TokenBlacklist
	tokenMgr   *auth.TokenManager
	bcryptCost int
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	Blacklist repository.TokenBlacklist
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// SignupInput is the self-registration payload.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	User   *domain.User
	Tokens domain.TokenPair
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		blacklist:  deps.Blacklist,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL()),
		bcryptCost: cfg.Auth.BcryptCost,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// TokenManager exposes the signer for the bearer middleware.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Signup registers a regular user and logs them in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	details := map[string]any{}
	if !usernamePattern.MatchString(input.Username) {
		details["username"] = "Enter a valid username of 3 to 150 letters, digits and @/./+/-/_ characters"
	}
	if err := fieldValidator.Var(input.Email, "required,email"); err != nil {
		details["email"] = "Enter a valid email address"
	}
	if err := auth.CheckPasswordPolicy(input.Password, input.Username); err != nil {
		details["password"] = err.Error()
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid signup request", details)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, duplicateUserError(err)
	}

	return s.issue(user, "signup")
}

// Login authenticates by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(invalidCredentials)
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	return s.issue(user, "login")
}

// Refresh exchanges a live refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, apperrors.NewUnauthorized("user not found")
		}
		return "", time.Time{}, err
	}

	access, expiresAt, err := s.tokenMgr.IssueAccess(user)
	if err != nil {
		return "", time.Time{}, err
	}
	s.metrics.TokensIssued("refresh")
	return access, expiresAt, nil
}

// Logout revokes the caller's refresh token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, user *domain.User, refreshToken string) error {
	claims, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if claims.UserID != user.ID {
		return apperrors.NewUnauthorized("token does not belong to the caller")
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.logger.Info("refresh token revoked", zap.Int64("user_id", user.ID), zap.String("jti", claims.ID))
	return nil
}

// Me reloads the user record.
func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes the user's email.
func (s *AuthService) UpdateProfile(ctx context.Context, user *domain.User, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if err := fieldValidator.Var(email, "required,email"); err != nil {
		return nil, apperrors.NewFieldError("email", "Enter a valid email address")
	}
	updated := *user
	updated.Email = email
	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, duplicateUserError(err)
	}
	return &updated, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, current, next string) error {
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		return apperrors.NewFieldError("current_password", "Current password is incorrect")
	}
	if err := auth.CheckPasswordPolicy(next, user.Username); err != nil {
		return apperrors.NewFieldError("new_password", err.Error())
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return err
	}
	updated := *user
	updated.PasswordHash = hash
	return s.users.Update(ctx, &updated)
}

// EnsureAdmin creates an admin account unless the username is already taken.
// It reports whether a new account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (*domain.User, bool, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	if password == "" {
		return nil, false, apperrors.NewFieldError("password", "an admin password is required")
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, false, err
	}
	admin := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, false, duplicateUserError(err)
	}
	return admin, true, nil
}

func (s *AuthService) checkRefresh(ctx context.Context, refreshToken string) (*auth.Claims, error) {
	claims, err := s.tokenMgr.ParseToken(strings.TrimSpace(refreshToken), domain.TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.NewUnauthorized("Token is invalid or expired")
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.NewUnauthorized("Token is blacklisted")
	}
	return claims, nil
}

func (s *AuthService) issue(user *domain.User, grant string) (*AuthResult, error) {
	pair, err := s.tokenMgr.IssuePair(user)
	if err != nil {
		return nil, err
	}
	s.metrics.TokensIssued(grant)
	return &AuthResult{User: user, Tokens: pair}, nil
}

func duplicateUserError(err error) error {
	constraint, ok := repository.ViolatedConstraint(err)
	if !ok {
		return err
	}
	switch constraint {
	case repository.ConstraintUniqueUsername:
		return apperrors.NewFieldError("username", "A user with that username already exists")
	case repository.ConstraintUniqueEmail:
		return apperrors.NewFieldError("email", "A user with that email already exists")
	}
	return apperrors.NewValidationError("duplicate user", nil)
}
