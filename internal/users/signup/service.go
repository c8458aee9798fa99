// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package signup runs the multi-step journeys that end in a usable account.

Credential signup:

	Start -> CredentialsSubmitted -> OTPPending -> OTPVerified -> ProfilePending -> Complete

Google signup joins at ProfilePending after consent. Password reset runs
OTPPending -> OTPVerified and is completed by auth's change-password endpoint.

The current step lives in a signed flow token (see package flow); submitted
credentials live encrypted in a [PendingStore] until the e-mail is verified.
*/
package signup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxutil"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/validate"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/auth"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/flow"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/otp"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/uuid"
)

const (
	FieldEmail      = "email"
	FieldPassword   = "password"
	FieldOTP        = "otp"
	FieldToken      = "token"
)

// # Contracts

// Accounts creates credential accounts. Implemented by [auth.Service].
type Accounts interface {
	EmailRegistered(ctx context.Context, email string) (bool, error)
	Register(ctx context.Context, email, password string) (*auth.User, error)
}

// Challenges issues and checks e-mail codes. Implemented by [otp.Issuer].
type Challenges interface {
	RequestChallenge(ctx context.Context, address string, purpose otp.Purpose) (string, error)
	Decoy(ctx context.Context, address string) (string, error)
	Verify(ctx context.Context, address, code, token string) error
	Release(ctx context.Context, token string) error
}

// Profiles validates and writes the details collected at the last step. Implemented by account.Service.
type Profiles interface {
	SetDetails(ctx context.Context, userID, username, university string) error
}

// Enroller registers a finished account with the feedback sheet.
type Enroller interface {
	Enroll(ctx context.Context, email, username string) error
}

// Step is the outcome of a journey transition.
type Step struct {
	FlowToken string
	State     flow.State
	// Challenge is set by steps that mail a code.
	Challenge string
}

// # Service

// Service drives signup and password-reset journeys.
type Service struct {
	accounts   Accounts
	challenges Challenges
	pending    PendingStore
	flows      *flow.Manager
	profiles   Profiles
	enroller   Enroller
	logger     *slog.Logger
}

// Option customises a [Service].
type Option func(*Service)

// WithEnroller adds the feedback sheet enrolment on profile completion.
func WithEnroller(enroller Enroller) Option {
	return func(service *Service) { service.enroller = enroller }
}

// NewService constructs a new [Service].
func NewService(
	accounts Accounts,
	challenges Challenges,
	pending PendingStore,
	flows *flow.Manager,
	profiles Profiles,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	service := &Service{
		accounts:   accounts,
		challenges: challenges,
		pending:    pending,
		flows:      flows,
		profiles:   profiles,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// # Credential Signup

/*
Start validates credentials, stashes them and opens a signup journey.

Returns:
  - *Step: token at CredentialsSubmitted
  - error: VALIDATION_ERROR, or EMAIL_TAKEN when the address is registered
*/
func (service *Service) Start(ctx context.Context, email, password string) (*Step, error) {
	email = auth.NormalizeEmail(email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).
		Email(FieldEmail, email).
		MinLen(FieldPassword, password, auth.MinPasswordLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	registered, err := service.accounts.EmailRegistered(ctx, email)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, auth.ErrEmailTaken
	}

	sessionID := uuid.New()
	if err := service.pending.Stash(ctx, sessionID, email, password); err != nil {
		return nil, fmt.Errorf("signup_service_stash_failed: %w", err)
	}

	token, err := service.flows.Issue(&flow.Claims{
		Flow:    flow.Signup,
		State:   flow.StateCredentialsSubmitted,
		Email:   email,
		Session: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("signup_service_issue_failed: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "signup_started", slog.String("session_id", sessionID))

	return &Step{FlowToken: token, State: flow.StateCredentialsSubmitted}, nil
}

/*
RequestOTP mails a code for the journey's address. Also used to resend.

The code is sent before the token advances, so a throttled or failed send
leaves the journey where it was.
*/
func (service *Service) RequestOTP(ctx context.Context, claims *flow.Claims) (*Step, error) {
	if !claims.In(flow.StateCredentialsSubmitted, flow.StateOTPPending) {
		return nil, flow.ErrInvalid
	}

	challenge, err := service.challenges.RequestChallenge(ctx, claims.Email, otp.PurposeSignup)
	if err != nil {
		return nil, err
	}

	token, err := service.advance(ctx, claims, claims.Next(flow.StateOTPPending))
	if err != nil {
		return nil, err
	}

	return &Step{FlowToken: token, State: flow.StateOTPPending, Challenge: challenge}, nil
}

/*
VerifyOTP checks the code and creates the account from the stashed credentials.

A failed check changes nothing: the token, the stash and the database are
untouched. If the account cannot be created the stash is put back and the
challenge released, so the same code can be retried. On success the journey
moves to ProfilePending.

Returns:
  - *Step: token at ProfilePending carrying the new user id
  - *auth.User: the account
*/
func (service *Service) VerifyOTP(ctx context.Context, claims *flow.Claims, code, challenge string) (*Step, *auth.User, error) {
	if !claims.In(flow.StateOTPPending) {
		return nil, nil, flow.ErrInvalid
	}

	if err := service.challenges.Verify(ctx, claims.Email, code, challenge); err != nil {
		return nil, nil, err
	}

	pending, err := service.pending.Reveal(ctx, claims.Session)
	if err != nil {
		return nil, nil, err
	}
	if auth.NormalizeEmail(pending.Email) != claims.Email {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "signup_pending_email_mismatch", slog.String("session_id", claims.Session))
		return nil, nil, flow.ErrInvalid
	}

	user, err := service.accounts.Register(ctx, pending.Email, pending.Password)
	if err != nil {
		service.restore(ctx, claims.Session, pending, challenge)
		return nil, nil, err
	}

	service.logTransition(ctx, claims.Flow, flow.StateOTPPending, flow.StateOTPVerified)

	next := claims.Next(flow.StateProfilePending)
	next.UserID = user.ID

	token, err := service.flows.Advance(ctx, claims, next)
	if err != nil {
		return nil, nil, err
	}
	service.logTransition(ctx, claims.Flow, flow.StateOTPVerified, flow.StateProfilePending)

	return &Step{FlowToken: token, State: flow.StateProfilePending}, user, nil
}

// restore undoes the consumption of the stash and the challenge after a failed registration.
func (service *Service) restore(ctx context.Context, sessionID string, pending *Pending, challenge string) {
	if err := service.pending.Stash(ctx, sessionID, pending.Email, pending.Password); err != nil {
		service.logger.ErrorContext(ctx, "signup_pending_restore_failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
	}
	if err := service.challenges.Release(ctx, challenge); err != nil {
		service.logger.ErrorContext(ctx, "signup_challenge_release_failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
	}
}

/*
CompleteProfile stores username and university and ends the journey.

A taken username returns CONFLICT and leaves the journey at ProfilePending so
the user can pick another.
*/
func (service *Service) CompleteProfile(ctx context.Context, claims *flow.Claims, username, university string) error {
	if !claims.In(flow.StateProfilePending) || claims.UserID == "" {
		return flow.ErrInvalid
	}

	// Profiles validates both fields.
	username = strings.TrimSpace(username)
	if err := service.profiles.SetDetails(ctx, claims.UserID, username, university); err != nil {
		return err
	}

	if err := service.flows.Finish(ctx, claims); err != nil {
		return err
	}
	service.logTransition(ctx, claims.Flow, flow.StateProfilePending, flow.StateComplete)

	if service.enroller != nil {
		if err := service.enroller.Enroll(ctx, claims.Email, username); err != nil {
			service.logger.WarnContext(ctx, "feedback_enroll_failed",
				slog.String("user_id", claims.UserID),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

/*
BeginOAuthProfile opens a signup journey for a Google account created moments ago.

The journey starts at ProfilePending; consent already proved the address.
*/
func (service *Service) BeginOAuthProfile(ctx context.Context, user *auth.User) (*Step, error) {
	token, err := service.flows.Issue(&flow.Claims{
		Flow:   flow.Signup,
		State:  flow.StateProfilePending,
		Email:  user.Email,
		UserID: user.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("signup_service_oauth_issue_failed: %w", err)
	}

	service.logTransition(ctx, flow.Signup, flow.StateOAuthConsented, flow.StateProfilePending)

	return &Step{FlowToken: token, State: flow.StateProfilePending}, nil
}

// # Password Reset

/*
StartReset opens a password-reset journey.

The response is identical whether or not the address has an account: unknown
addresses get a decoy challenge that no code can satisfy, and nothing is sent.
*/
func (service *Service) StartReset(ctx context.Context, email string) (*Step, error) {
	email = auth.NormalizeEmail(email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).Email(FieldEmail, email)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	registered, err := service.accounts.EmailRegistered(ctx, email)
	if err != nil {
		return nil, err
	}

	var challenge string
	if registered {
		challenge, err = service.challenges.RequestChallenge(ctx, email, otp.PurposePasswordReset)
	} else {
		challenge, err = service.challenges.Decoy(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	token, err := service.flows.Issue(&flow.Claims{
		Flow:  flow.PasswordReset,
		State: flow.StateOTPPending,
		Email: email,
	})
	if err != nil {
		return nil, fmt.Errorf("signup_service_reset_issue_failed: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "password_reset_started")

	return &Step{FlowToken: token, State: flow.StateOTPPending, Challenge: challenge}, nil
}

// VerifyReset checks the reset code and moves the journey to OTPVerified.
func (service *Service) VerifyReset(ctx context.Context, claims *flow.Claims, code, challenge string) (*Step, error) {
	if !claims.In(flow.StateOTPPending) {
		return nil, flow.ErrInvalid
	}

	if err := service.challenges.Verify(ctx, claims.Email, code, challenge); err != nil {
		return nil, err
	}

	token, err := service.advance(ctx, claims, claims.Next(flow.StateOTPVerified))
	if err != nil {
		return nil, err
	}

	return &Step{FlowToken: token, State: flow.StateOTPVerified}, nil
}

// # Helpers

// advance retires current and issues next.
func (service *Service) advance(ctx context.Context, current, next *flow.Claims) (string, error) {
	token, err := service.flows.Advance(ctx, current, next)
	if err != nil {
		if apperr.As(err) != nil {
			return "", err
		}
		return "", fmt.Errorf("signup_service_advance_failed: %w", err)
	}

	service.logTransition(ctx, next.Flow, current.State, next.State)
	return token, nil
}

func (service *Service) logTransition(ctx context.Context, name flow.Name, from, to flow.State) {
	ctxutil.GetLogger(ctx).InfoContext(ctx, "flow_transition",
		slog.String("flow", string(name)),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}
