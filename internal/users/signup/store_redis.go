// Copyright (c) 2026 Bloomify. All rights reserved.

package signup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/constants"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/sec"
)

// ErrPendingNotFound is returned by Reveal for a missing or unusable record.
var ErrPendingNotFound = apperr.NotFound("Pending signup")

type pendingRecord struct {
	Email             string `json:"email"`
	EncryptedPassword string `json:"encrypted_password"`
	IV                string `json:"iv"`
}

// RedisPendingStore implements [PendingStore] with one expiring key per journey.
type RedisPendingStore struct {
	client *redis.Client
	cipher *sec.PasswordCipher
	ttl    time.Duration
}

// NewRedisPendingStore creates a store that seals passwords with cipher.
func NewRedisPendingStore(client *redis.Client, cipher *sec.PasswordCipher) *RedisPendingStore {
	return &RedisPendingStore{client: client, cipher: cipher, ttl: PendingTTL}
}

// Stash seals password under a fresh IV and writes the record with [PendingTTL].
func (store *RedisPendingStore) Stash(ctx context.Context, sessionID, email, password string) error {
	sealed, err := store.cipher.Seal(password)
	if err != nil {
		return fmt.Errorf("redis_pending_seal_failed: %w", err)
	}

	payload, err := json.Marshal(pendingRecord{
		Email:             email,
		EncryptedPassword: sealed.Ciphertext,
		IV:                sealed.IV,
	})
	if err != nil {
		return fmt.Errorf("redis_pending_marshal_failed: %w", err)
	}

	if err := store.client.Set(ctx, constants.RedisPrefixPendingSignup+sessionID, payload, store.ttl).Err(); err != nil {
		return fmt.Errorf("redis_pending_stash_failed: %w", err)
	}
	return nil
}

// Reveal reads and deletes the record in one GETDEL, then decrypts it.
func (store *RedisPendingStore) Reveal(ctx context.Context, sessionID string) (*Pending, error) {
	payload, err := store.client.GetDel(ctx, constants.RedisPrefixPendingSignup+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPendingNotFound
		}
		return nil, fmt.Errorf("redis_pending_reveal_failed: %w", err)
	}

	var record pendingRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, ErrPendingNotFound.WithCause(err)
	}
	if record.Email == "" || record.EncryptedPassword == "" || record.IV == "" {
		return nil, ErrPendingNotFound
	}

	password, err := store.cipher.Open(sec.Sealed{Ciphertext: record.EncryptedPassword, IV: record.IV})
	if err != nil {
		return nil, ErrPendingNotFound.WithCause(err)
	}

	return &Pending{Email: record.Email, Password: password}, nil
}
