// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package flow tracks multi-step signup and password-reset journeys.

The position of a browser in a journey lives in a short-lived HS256 token
stored in an httpOnly cookie. Each transition burns the token's id, so an old
cookie cannot be replayed to repeat or skip a step.

	signup:  CredentialsSubmitted -> OTPPending -> OTPVerified -> ProfilePending -> Complete
	oauth:   OAuthConsented -> ProfilePending -> Complete
	reset:   OTPPending -> OTPVerified -> Complete
*/
package flow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/uuid"
)

// DefaultTTL bounds a whole journey, matching the pending-signup record.
const DefaultTTL = 30 * time.Minute

// Name identifies a journey. It doubles as the cookie name.
type Name string

const (
	Signup        Name = "signup-flow"
	PasswordReset Name = "forgot-password-flow"
)

// State is a step inside a journey.
type State string

const (
	StateCredentialsSubmitted State = "credentials_submitted"
	StateOTPPending           State = "otp_pending"
	StateOTPVerified          State = "otp_verified"
	StateOAuthConsented       State = "oauth_consented"
	StateProfilePending       State = "profile_pending"
	StateComplete             State = "complete"
)

// ErrInvalid is returned for missing, forged, expired, burnt or out-of-order tokens.
var ErrInvalid = apperr.Unauthorized("Signup session is invalid or has expired")

// Claims is the payload of a flow token.
type Claims struct {
	jwt.RegisteredClaims

	Flow    Name   `json:"flw"`
	State   State  `json:"stt"`
	Email   string `json:"eml"`
	Session string `json:"sid,omitempty"`
	UserID  string `json:"uid,omitempty"`
}

// Next copies the journey data into a new claim set at state.
func (c *Claims) Next(state State) *Claims {
	return &Claims{
		Flow:    c.Flow,
		State:   state,
		Email:   c.Email,
		Session: c.Session,
		UserID:  c.UserID,
	}
}

// In reports whether the claims are at one of states.
func (c *Claims) In(states ...State) bool {
	return slices.Contains(states, c.State)
}

// BurnList remembers token ids that have been spent.
type BurnList interface {
	// Burn records id until ttl elapses. It returns false if id was already burnt.
	Burn(ctx context.Context, id string, ttl time.Duration) (bool, error)
	IsBurnt(ctx context.Context, id string) (bool, error)
}

// Manager signs, verifies and retires flow tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	burns  BurnList
	now    func() time.Time
}

// Option customises a [Manager].
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(manager *Manager) { manager.now = now }
}

// NewManager creates a manager keyed by secret.
func NewManager(secret, issuer string, burns BurnList, opts ...Option) *Manager {
	manager := &Manager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    DefaultTTL,
		burns:  burns,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// TTL is the lifetime given to newly issued tokens.
func (manager *Manager) TTL() time.Duration { return manager.ttl }

/*
Issue signs claims as a fresh token.

Registered claims (id, issuer, subject, timestamps) are overwritten.
*/
func (manager *Manager) Issue(claims *Claims) (string, error) {
	if claims.Flow == "" || claims.State == "" {
		return "", errors.New("flow: journey and state are required")
	}

	now := manager.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New(),
		Issuer:    manager.issuer,
		Subject:   claims.Email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(manager.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(manager.secret)
	if err != nil {
		return "", fmt.Errorf("flow_sign_failed: %w", err)
	}
	return token, nil
}

/*
Parse verifies a token for the named journey.

Returns:
  - *Claims: the verified payload
  - error: [ErrInvalid] for anything a client could have caused
*/
func (manager *Manager) Parse(ctx context.Context, name Name, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalid
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return manager.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(manager.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(manager.now),
	)
	if err != nil || claims.Flow != name || claims.ID == "" {
		return nil, ErrInvalid
	}

	burnt, err := manager.burns.IsBurnt(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("flow_burn_lookup_failed: %w", err)
	}
	if burnt {
		return nil, ErrInvalid
	}

	return claims, nil
}

/*
Advance retires current and issues next.

Two requests racing on the same token cannot both advance: only the one that
burns it first gets a new token.
*/
func (manager *Manager) Advance(ctx context.Context, current, next *Claims) (string, error) {
	if err := manager.Finish(ctx, current); err != nil {
		return "", err
	}
	return manager.Issue(next)
}

// Finish retires current without a successor.
func (manager *Manager) Finish(ctx context.Context, current *Claims) error {
	ttl := manager.ttl
	if current.ExpiresAt != nil {
		ttl = current.ExpiresAt.Sub(manager.now()) + time.Second
	}
	if ttl <= 0 {
		return ErrInvalid
	}

	fresh, err := manager.burns.Burn(ctx, current.ID, ttl)
	if err != nil {
		return fmt.Errorf("flow_burn_failed: %w", err)
	}
	if !fresh {
		return ErrInvalid
	}
	return nil
}
