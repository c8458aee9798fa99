// Copyright (c) 2026 Bloomify. All rights reserved.

package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/constants"
)

// RedisBurnList implements [BurnList] with expiring keys.
type RedisBurnList struct {
	client *redis.Client
}

// NewRedisBurnList creates a Redis-backed burn list.
func NewRedisBurnList(client *redis.Client) *RedisBurnList {
	return &RedisBurnList{client: client}
}

// Burn marks id as spent.
func (list *RedisBurnList) Burn(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	fresh, err := list.client.SetNX(ctx, constants.RedisPrefixFlowBurnt+id, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis_flow_burn_failed: %w", err)
	}
	return fresh, nil
}

// IsBurnt reports whether id was spent.
func (list *RedisBurnList) IsBurnt(ctx context.Context, id string) (bool, error) {
	count, err := list.client.Exists(ctx, constants.RedisPrefixFlowBurnt+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis_flow_burn_lookup_failed: %w", err)
	}
	return count > 0, nil
}
