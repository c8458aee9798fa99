// Copyright (c) 2026 Bloomify. All rights reserved.

package signup

import (
	"context"
	"time"
)

// PendingTTL is how long submitted credentials wait for e-mail verification.
const PendingTTL = 30 * time.Minute

// Pending holds credentials submitted at signup, before the address is verified.
type Pending struct {
	Email    string
	Password string
}

// PendingStore keeps credentials between the first signup step and OTP verification.
type PendingStore interface {

	/*
		Stash encrypts and stores credentials under the journey session id.

		Parameters:
		  - ctx: context.Context
		  - sessionID: string (the flow token's sid)
		  - email: string
		  - password: string (plain text, encrypted at rest)

		Returns:
		  - error: storage or encryption failures
	*/
	Stash(ctx context.Context, sessionID, email, password string) error

	/*
		Reveal takes the record and decrypts it. A record can be revealed once.

		Returns:
		  - *Pending: the decrypted credentials
		  - error: apperr.NotFound when absent, expired, incomplete or already taken
	*/
	Reveal(ctx context.Context, sessionID string) (*Pending, error)
}
