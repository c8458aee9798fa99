// Copyright (c) 2026 Bloomify. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxutil"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/sec"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/pointer"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/uuid"
)

// # Errors

var (
	// ErrInvalidCredentials never says which half of the pair was wrong.
	ErrInvalidCredentials = apperr.Unauthorized("Invalid email or password")

	ErrWrongPassword  = apperr.Unauthorized("Current password is incorrect")
	ErrNoAuthority    = apperr.Unauthorized("Sign in or verify a reset code to change the password")
	ErrEmailTaken     = apperr.BadRequest("EMAIL_TAKEN", "An account with this email already exists")
	ErrUsernameTaken  = apperr.Conflict("Username is already taken")
	ErrInvalidRefresh = apperr.Unauthorized("Invalid or expired refresh token")
)

// # Contracts & Types

// TokenProvider signs access tokens. Implemented by [sec.TokenService].
type TokenProvider interface {
	GenerateAccessToken(userID, email, username string, timeToLive time.Duration) (string, error)
}

// Service implements authentication use cases.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	tokenProvider     TokenProvider
	logger            *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	tokenProv TokenProvider,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		tokenProvider:     tokenProv,
		logger:            logger,
	}
}

// NormalizeEmail trims and lower-cases an address before any lookup or insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Registration

// EmailRegistered reports whether an account already uses email.
func (service *Service) EmailRegistered(ctx context.Context, email string) (bool, error) {
	_, err := service.userRepository.FindByEmail(ctx, NormalizeEmail(email))
	if err == nil {
		return true, nil
	}
	if apperr.IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("auth_service_email_lookup_failed: %w", err)
}

/*
Register creates a credential account once the signup e-mail is verified.

Returns:
  - *User: the new account, without username or university yet
  - error: ErrEmailTaken if the address was registered meanwhile
*/
func (service *Service) Register(ctx context.Context, email, password string) (*User, error) {
	if len(password) < MinPasswordLength {
		return nil, apperr.ValidationError("Password is too short",
			apperr.FieldError{Field: FieldPassword, Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)})
	}

	hashedPassword, err := sec.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(email),
		PasswordHash: hashedPassword,
		IsOAuthUser:  false,
	}

	if err := service.userRepository.Create(ctx, user); err != nil {
		if apperr.IsConflict(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "user_registered", slog.String("user_id", user.ID))

	return user, nil
}

// # Authentication Flow

// SessionMeta describes the client a session is issued to.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
SignIn validates credentials and opens a session.

Unknown e-mails, password-less (Google) accounts and wrong passwords all fail
with the same [ErrInvalidCredentials].
*/
func (service *Service) SignIn(ctx context.Context, email, password string, meta SessionMeta) (*LoginSession, error) {
	user, err := service.userRepository.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth_service_signin_lookup_failed: %w", err)
	}

	if !user.HasPassword() || !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return service.IssueSession(ctx, user, meta)
}

/*
SignInWithOAuth resolves the account for a provider-verified e-mail.

The first sign-in creates a bare record with no password. Repeated or
concurrent sign-ins return the same record: a lost insert race re-reads the
row the winner created.

Returns:
  - *User: the account
  - bool: true when this call created it
*/
func (service *Service) SignInWithOAuth(ctx context.Context, email string) (*User, bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, false, apperr.Unauthorized("Identity provider returned no email")
	}

	user, err := service.userRepository.FindByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, false, fmt.Errorf("auth_service_oauth_lookup_failed: %w", err)
	}

	user = &User{
		ID:          uuid.New(),
		Email:       email,
		IsOAuthUser: true,
	}

	if err := service.userRepository.Create(ctx, user); err != nil {
		if !apperr.IsConflict(err) {
			return nil, false, fmt.Errorf("auth_service_oauth_create_failed: %w", err)
		}

		existing, lookupErr := service.userRepository.FindByEmail(ctx, email)
		if lookupErr != nil {
			return nil, false, fmt.Errorf("auth_service_oauth_reread_failed: %w", lookupErr)
		}
		return existing, false, nil
	}

	service.logger.InfoContext(ctx, "oauth_user_created", slog.String("user_id", user.ID))

	return user, true, nil
}

/*
IssueSession signs an access token and persists a new refresh session for user.

Only the SHA-256 of the refresh token is stored.
*/
func (service *Service) IssueSession(ctx context.Context, user *User, meta SessionMeta) (*LoginSession, error) {
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Email, pointer.Val(user.Username), AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	expiresAt := time.Now().Add(RefreshTokenTTL)
	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		ExpiresAt: expiresAt,
	}

	if err := service.sessionRepository.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "session_opened",
		slog.String("user_id", user.ID),
		slog.String("session_id", session.ID),
	)

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}

// Logout revokes the session behind refreshToken. Unknown tokens are ignored.
func (service *Service) Logout(ctx context.Context, refreshToken string) error {
	session, err := service.sessionRepository.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if err != nil {
		return nil
	}

	if err := service.sessionRepository.Revoke(ctx, session.ID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Session Management

/*
RefreshSession implements the Refresh Token Rotation mechanism.

The presented token is revoked before a new pair is issued, so each refresh
token works once.
*/
func (service *Service) RefreshSession(ctx context.Context, refreshToken string, meta SessionMeta) (*LoginSession, error) {
	session, err := service.sessionRepository.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrInvalidRefresh
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	if err := service.sessionRepository.Revoke(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	return service.IssueSession(ctx, user, meta)
}

// # Password Change

// ChangePasswordInput carries the authority for a password change.
//
// Exactly one of SessionUserID (signed in, current password required) or
// ResetEmail (verified reset journey, no current password) should be set.
type ChangePasswordInput struct {
	SessionUserID   string
	ResetEmail      string
	CurrentPassword string
	NewPassword     string
	RefreshToken    string
}

/*
ChangePassword replaces the stored hash.

Every check runs before the write, so a failed call changes nothing. Signed-in
changes keep the current session and revoke the others; reset changes revoke
all sessions.
*/
func (service *Service) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if len(input.NewPassword) < MinPasswordLength {
		return apperr.ValidationError("Password is too short",
			apperr.FieldError{Field: FieldNewPassword, Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)})
	}

	var user *User
	var err error

	switch {
	case input.SessionUserID != "":
		user, err = service.userRepository.FindByID(ctx, input.SessionUserID)
		if err != nil {
			return err
		}
		if !user.HasPassword() || !sec.CheckPasswordHash(input.CurrentPassword, user.PasswordHash) {
			return ErrWrongPassword
		}

	case input.ResetEmail != "":
		user, err = service.userRepository.FindByEmail(ctx, NormalizeEmail(input.ResetEmail))
		if err != nil {
			return err
		}

	default:
		return ErrNoAuthority
	}

	hashedPassword, err := sec.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	service.revokeAfterPasswordChange(ctx, user.ID, input)

	ctxutil.GetLogger(ctx).InfoContext(ctx, "password_changed",
		slog.String("user_id", user.ID),
		slog.Bool("via_reset", input.SessionUserID == ""),
	)

	return nil
}

func (service *Service) revokeAfterPasswordChange(ctx context.Context, userID string, input ChangePasswordInput) {
	var err error

	if input.SessionUserID == "" || input.RefreshToken == "" {
		err = service.sessionRepository.RevokeAll(ctx, userID)
	} else {
		var current *Session
		current, err = service.sessionRepository.FindByTokenHash(ctx, sec.HashToken(input.RefreshToken))
		if err == nil {
			err = service.sessionRepository.RevokeOthers(ctx, userID, current.ID)
		}
	}

	if err != nil && !apperr.IsNotFound(err) {
		service.logger.WarnContext(ctx, "session_revocation_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (service *Service) PurgeExpiredSessions(ctx context.Context) error {
	removed, err := service.sessionRepository.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		service.logger.InfoContext(ctx, "expired_sessions_purged", slog.Int64("count", removed))
	}
	return nil
}
