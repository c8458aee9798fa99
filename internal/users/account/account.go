// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package account serves the signed-in user's own profile and sessions.

The account row and the refresh sessions belong to package auth; this package
reads and updates them on behalf of the caller and joins in the ids of the
chats the caller owns.
*/
package account

import (
	"context"
	"time"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/auth"
)

const (
	FieldUsername   = "username"
	FieldUniversity = "university"

	MaxUniversityLength = 120
)

// Profile is the private view of an account.
type Profile struct {
	*auth.User
	ProfileComplete bool     `json:"profile_complete"`
	ChatRefs        []string `json:"chat_refs"`
}

// SessionInfo describes one signed-in device.
type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// # Contracts

// UserRepository is the part of [auth.UserRepository] this package writes through.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
	UpdateUsername(ctx context.Context, userID, username string) error
	UpdateProfile(ctx context.Context, userID, username, university string) error
}

// SessionRepository lists and revokes a user's own refresh sessions.
// Implemented by [auth.PostgresSessionRepository].
type SessionRepository interface {
	FindActiveByUserID(ctx context.Context, userID string) ([]auth.Session, error)

	// RevokeOwned revokes sessionID only if it belongs to userID; apperr.NotFound otherwise.
	RevokeOwned(ctx context.Context, userID, sessionID string) error
}

// ChatIndex lists the chats a user owns, newest first.
type ChatIndex interface {
	ChatIDs(ctx context.Context, ownerID string) ([]string, error)
}
