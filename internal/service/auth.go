package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tabstash/tabstash-server/internal/auth"
	"github.com/tabstash/tabstash-server/internal/domain"
	domainerrors "github.com/tabstash/tabstash-server/internal/errors"
	"github.com/tabstash/tabstash-server/internal/id"
	"github.com/tabstash/tabstash-server/internal/store"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove any options (like omitempty, -)
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// AuthService handles authentication: local login-or-register, provider
// logins, and access token verification. Session lifecycle is delegated
// to SessionService.
type AuthService struct {
	store          store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		logger:         logger,
	}
}

// LoginRequest contains local account credentials.
type LoginRequest struct {
	Username  string `json:"username" validate:"required,min=2,max=64"`
	Password  string `json:"password" validate:"required,min=8,max=1024"`
	IPAddress string `json:"-"` // Extracted from request by handler
	UserAgent string `json:"-"`
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IPAddress    string `json:"-"`
	UserAgent    string `json:"-"`
}

// ProviderLogin carries the profile returned by the identity provider
// after a completed authorization code exchange.
type ProviderLogin struct {
	Subject     string // Provider subject, stored as auth_id
	Username    string
	DisplayName string
	AvatarURL   string
	IPAddress   string
	UserAgent   string
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// LoginOrRegister authenticates a local account, creating it on first
// login. A known username always goes through password verification;
// a mismatch never reveals whether the account existed.
func (s *AuthService) LoginOrRegister(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return s.loginExisting(ctx, user, req)
	case errors.Is(err, store.ErrUserNotFound):
		return s.registerLocal(ctx, req)
	default:
		return nil, fmt.Errorf("lookup user: %w", err)
	}
}

// loginExisting verifies the password for a known account. Provider
// accounts have no password hash, so verification fails for them too.
func (s *AuthService) loginExisting(ctx context.Context, user *domain.User, req LoginRequest) (*AuthResponse, error) {
	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid username or password")
	}

	user.LastLoginAt = time.Now()
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		// Log but don't fail login
		if s.logger != nil {
			s.logger.Warn("Failed to update last login time",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.IPAddress, req.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User logged in", "user_id", user.ID)
	}

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// registerLocal creates a new local account from the login request.
func (s *AuthService) registerLocal(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Entity:       domain.Entity{ID: userID},
		Username:     req.Username,
		PasswordHash: passwordHash,
		LastLoginAt:  time.Now(),
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent first login, fall back to
			// the normal login path.
			existing, getErr := s.store.GetUserByUsername(ctx, req.Username)
			if getErr != nil {
				return nil, fmt.Errorf("lookup user after conflict: %w", getErr)
			}
			return s.loginExisting(ctx, existing, req)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.IPAddress, req.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User registered", "user_id", userID, "username", user.Username)
	}

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// CompleteProviderLogin finds the account for a provider subject,
// creating it from the profile on first login, and opens a session.
func (s *AuthService) CompleteProviderLogin(ctx context.Context, login ProviderLogin) (*AuthResponse, error) {
	if login.Subject == "" {
		return nil, domainerrors.Validation("provider profile has no subject")
	}

	user, err := s.store.GetUserByAuthID(ctx, login.Subject)
	switch {
	case err == nil:
		user.LastLoginAt = time.Now()
		if login.DisplayName != "" {
			user.DisplayName = login.DisplayName
		}
		if login.AvatarURL != "" {
			user.AvatarURL = login.AvatarURL
		}
		user.Touch()
		if updateErr := s.store.UpdateUser(ctx, user); updateErr != nil {
			if s.logger != nil {
				s.logger.Warn("Failed to update provider profile",
					"user_id", user.ID,
					"error", updateErr,
				)
			}
		}
	case errors.Is(err, store.ErrUserNotFound):
		user, err = s.createProviderUser(ctx, login)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("lookup user by auth ID: %w", err)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, login.IPAddress, login.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Provider login complete", "user_id", user.ID)
	}

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// createProviderUser creates an account from a provider profile. The
// provider username may collide with a local account, in which case the
// user ID doubles as a unique fallback.
func (s *AuthService) createProviderUser(ctx context.Context, login ProviderLogin) (*domain.User, error) {
	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	username := login.Username
	if username == "" {
		username = login.Subject
	}

	user := &domain.User{
		Entity:      domain.Entity{ID: userID},
		Username:    username,
		DisplayName: login.DisplayName,
		AvatarURL:   login.AvatarURL,
		AuthID:      login.Subject,
		LastLoginAt: time.Now(),
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			user.Username = userID
			if err := s.store.CreateUser(ctx, user); err != nil {
				return nil, fmt.Errorf("create provider user: %w", err)
			}
			return user, nil
		}
		return nil, fmt.Errorf("create provider user: %w", err)
	}

	return user, nil
}

// RefreshTokens generates new tokens using a refresh token.
// The old refresh token is invalidated (token rotation).
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	sessionResp, user, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, req.IPAddress, req.UserAgent)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Logout revokes a session, invalidating its refresh token.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessionService.DeleteSession(ctx, sessionID)
}

// CurrentUser returns the user for an ID resolved from a verified token.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token: %w", err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, errors.New("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// formatValidationError converts validator errors to user-friendly domain errors.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		// Return first validation error as a domain error
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				return domainerrors.Validationf("%s is required", field)
			case "min":
				return domainerrors.Validationf("%s must be at least %s characters", field, e.Param())
			case "max":
				return domainerrors.Validationf("%s exceeds maximum length of %s characters", field, e.Param())
			default:
				return domainerrors.Validationf("%s is invalid", field)
			}
		}
	}
	return err
}
