// Copyright (c) 2026 Bloomify. All rights reserved.

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/validate"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/auth"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/pointer"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/slice"
)

// # Service Layer

// Service implements the account use cases of the signed-in user.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	chats             ChatIndex
	logger            *slog.Logger
}

// NewService constructs a new [Service]. chats may be nil, in which case
// profiles carry no chat references.
func NewService(userRepo UserRepository, sessionRepo SessionRepository, chats ChatIndex, logger *slog.Logger) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		chats:             chats,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile returns the caller's account with the ids of their chats.

Returns:
  - *Profile: account, completion flag and chat refs
  - error: apperr.NotFound if the account is gone
*/
func (service *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	refs := []string{}
	if service.chats != nil {
		ids, err := service.chats.ChatIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("account_service_chat_refs_failed: %w", err)
		}
		refs = append(refs, ids...)
	}

	return &Profile{User: user, ProfileComplete: user.ProfileComplete(), ChatRefs: refs}, nil
}

/*
ChangeUsername sets a new username for userID.

The name is trimmed and must be 3 to 32 characters. Asking for the name the
user already has succeeds without a write.

Returns:
  - *auth.User: the account after the change
  - error: VALIDATION_ERROR, apperr.NotFound, or CONFLICT if another account holds the name
*/
func (service *Service) ChangeUsername(ctx context.Context, userID, newUsername string) (*auth.User, error) {
	newUsername = strings.TrimSpace(newUsername)

	validator := &validate.Validator{}
	validator.Username(FieldUsername, newUsername)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if pointer.Val(user.Username) == newUsername {
		return user, nil
	}

	if err := service.userRepository.UpdateUsername(ctx, userID, newUsername); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "username_changed", slog.String("user_id", userID))

	user.Username = &newUsername
	return user, nil
}

// SetDetails stores the fields collected when a signup journey completes.
func (service *Service) SetDetails(ctx context.Context, userID, username, university string) error {
	username = strings.TrimSpace(username)
	university = strings.TrimSpace(university)

	validator := &validate.Validator{}
	validator.Username(FieldUsername, username).
		Required(FieldUniversity, university).
		MaxLen(FieldUniversity, university, MaxUniversityLength)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.userRepository.UpdateProfile(ctx, userID, username, university); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "profile_completed", slog.String("user_id", userID))
	return nil
}

// # Session Security

// ListSessions returns the caller's active sessions.
func (service *Service) ListSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	sessions, err := service.sessionRepository.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_sessions_failed: %w", err)
	}

	return slice.Map(sessions, func(session auth.Session) SessionInfo {
		return SessionInfo{
			ID:        session.ID,
			UserAgent: session.UserAgent,
			IPAddress: session.IPAddress,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		}
	}), nil
}

// RevokeSession signs one of the caller's devices out. Sessions of other users are not found.
func (service *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	if err := service.sessionRepository.RevokeOwned(ctx, userID, sessionID); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "user_session_revoked",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)
	return nil
}
