// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package auth owns Bloomify identities and sessions.

Accounts come from two places: the credential signup journey (e-mail, OTP,
password) and Google sign-in, which creates a bare, password-less record. Both
end at the same profile-completion step. Signed-in browsers hold a short RS256
access token and a rotating refresh session stored in Postgres.
*/
package auth

import (
	"time"
)

// # Domain Entities

// User is a Bloomify account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Username     *string   `json:"username"`
	University   *string   `json:"university"`
	IsOAuthUser  bool      `json:"is_oauth_user"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
// Accounts created through Google have none until a reset sets one.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ProfileComplete reports whether the signup details step has been done.
func (u *User) ProfileComplete() bool {
	return u.Username != nil && *u.Username != ""
}

// Session represents an active refresh-token session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// # Field Identifiers

// Field names used in request validation and response bodies.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)
