// Copyright (c) 2026 Bloomify. All rights reserved.

package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/constants"
)

// RedisLedger implements [Ledger] with SET NX keys that expire on their own.
type RedisLedger struct {
	client *redis.Client
}

// NewRedisLedger creates a Redis-backed ledger.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

/*
Burn marks digest as used until ttl elapses.

Returns:
  - bool: false if the digest was already burnt
*/
func (ledger *RedisLedger) Burn(ctx context.Context, digest string, ttl time.Duration) (bool, error) {
	fresh, err := ledger.client.SetNX(ctx, constants.RedisPrefixOTPBurnt+digest, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis_otp_burn_failed: %w", err)
	}
	return fresh, nil
}

// StartCooldown opens a window during which address cannot request another code.
func (ledger *RedisLedger) StartCooldown(ctx context.Context, address string, window time.Duration) (bool, error) {
	allowed, err := ledger.client.SetNX(ctx, constants.RedisPrefixOTPCooldown+address, 1, window).Result()
	if err != nil {
		return false, fmt.Errorf("redis_otp_cooldown_failed: %w", err)
	}
	return allowed, nil
}

// ClearCooldown removes the window for address.
func (ledger *RedisLedger) ClearCooldown(ctx context.Context, address string) error {
	if err := ledger.client.Del(ctx, constants.RedisPrefixOTPCooldown+address).Err(); err != nil {
		return fmt.Errorf("redis_otp_cooldown_clear_failed: %w", err)
	}
	return nil
}

// Unburn deletes the burn marker of digest.
func (ledger *RedisLedger) Unburn(ctx context.Context, digest string) error {
	if err := ledger.client.Del(ctx, constants.RedisPrefixOTPBurnt+digest).Err(); err != nil {
		return fmt.Errorf("redis_otp_unburn_failed: %w", err)
	}
	return nil
}
