// Copyright (c) 2026 Bloomify. All rights reserved.

package signup_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/constants"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/sec"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/signup"
)

const testAESKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func newPendingStore(t *testing.T, client *redis.Client) *signup.RedisPendingStore {
	t.Helper()
	cipher, err := sec.NewPasswordCipher(testAESKey)
	require.NoError(t, err)
	return signup.NewRedisPendingStore(client, cipher)
}

/*
TestRedisPendingStore_RevealOnce checks the record is encrypted at rest and single use.
*/
func TestRedisPendingStore_RevealOnce(t *testing.T) {
	server, client := newRedis(t)
	store := newPendingStore(t, client)
	ctx := context.Background()

	require.NoError(t, store.Stash(ctx, "sid-1", "a@x.com", "longenough1"))

	raw, err := server.Get(constants.RedisPrefixPendingSignup + "sid-1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "longenough1")
	assert.Contains(t, raw, `"encrypted_password"`)
	assert.Contains(t, raw, `"iv"`)
	assert.Equal(t, signup.PendingTTL, server.TTL(constants.RedisPrefixPendingSignup+"sid-1"))

	pending, err := store.Reveal(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", pending.Email)
	assert.Equal(t, "longenough1", pending.Password)

	_, err = store.Reveal(ctx, "sid-1")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestRedisPendingStore_Unusable covers expired and damaged records.
*/
func TestRedisPendingStore_Unusable(t *testing.T) {
	server, client := newRedis(t)
	store := newPendingStore(t, client)
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(t *testing.T)
	}{
		{
			name: "never_stashed",
			setup: func(t *testing.T) {},
		},
		{
			name: "expired",
			setup: func(t *testing.T) {
				require.NoError(t, store.Stash(ctx, "sid", "a@x.com", "longenough1"))
				server.FastForward(signup.PendingTTL + time.Second)
			},
		},
		{
			name: "not_json",
			setup: func(t *testing.T) {
				require.NoError(t, server.Set(constants.RedisPrefixPendingSignup+"sid", "{oops"))
			},
		},
		{
			name: "missing_iv",
			setup: func(t *testing.T) {
				require.NoError(t, server.Set(constants.RedisPrefixPendingSignup+"sid",
					`{"email":"a@x.com","encrypted_password":"00112233445566778899aabbccddeeff"}`))
			},
		},
		{
			name: "bad_ciphertext",
			setup: func(t *testing.T) {
				require.NoError(t, server.Set(constants.RedisPrefixPendingSignup+"sid",
					`{"email":"a@x.com","encrypted_password":"zz","iv":"00112233445566778899aabbccddeeff"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server.FlushAll()
			tt.setup(t)

			_, err := store.Reveal(ctx, "sid")
			assert.True(t, apperr.IsNotFound(err))
		})
	}
}
