// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quangdang46/learnio/internal/platform/apperr"
	"github.com/quangdang46/learnio/internal/platform/constants"
	"github.com/quangdang46/learnio/internal/platform/sec"
)

// # Session Cache

// RedisSessionCache implements SessionCache using Redis.
//
// Each entry is the JSON-serialized sanitized snapshot of one logged-in
// user, keyed by user ID. One entry per user: a second login from another
// device overwrites the snapshot rather than creating a parallel session.
type RedisSessionCache struct {
	client *redis.Client
}

// NewSessionCache creates a new Redis-backed SessionCache.
func NewSessionCache(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{client: client}
}

/*
Put stores (or overwrites) the snapshot for identity.UserID with a TTL.

Description: The snapshot is marshaled from [sec.Identity], which never
carries a password hash, so secret material cannot reach the cache.

Parameters:
  - context: context.Context
  - identity: *sec.Identity
  - ttl: time.Duration

Returns:
  - error: Serialization or connectivity failures
*/
func (cache *RedisSessionCache) Put(context context.Context, identity *sec.Identity, ttl time.Duration) error {

	// Serialize the sanitized snapshot.
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("redis_session_marshal_failed: %w", err)
	}

	// Set the snapshot with TTL, keyed by user ID.
	key := sessionKey(identity.UserID)
	if err := cache.client.Set(context, key, payload, ttl).Err(); err != nil {
		return apperr.DependencyUnavailable("Session cache", err)
	}

	return nil
}

/*
Get retrieves the snapshot for a user ID.

Description: Returns ErrSessionNotFound if the entry is absent or expired —
the caller must treat that exactly like a logout.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *sec.Identity: Cached snapshot
  - error: ErrSessionNotFound or connectivity failures
*/
func (cache *RedisSessionCache) Get(context context.Context, userID string) (*sec.Identity, error) {

	key := sessionKey(userID)
	payload, err := cache.client.Get(context, key).Bytes()

	// Handle errors: an absent key is a domain state, everything else is a
	// degraded dependency.
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, apperr.DependencyUnavailable("Session cache", err)
	}

	identity := &sec.Identity{}
	if err := json.Unmarshal(payload, identity); err != nil {
		return nil, fmt.Errorf("redis_session_unmarshal_failed: %w", err)
	}

	return identity, nil
}

/*
Touch re-arms the TTL of an existing snapshot without rewriting it.

Parameters:
  - context: context.Context
  - userID: string
  - ttl: time.Duration

Returns:
  - error: ErrSessionNotFound or connectivity failures
*/
func (cache *RedisSessionCache) Touch(context context.Context, userID string, ttl time.Duration) error {

	key := sessionKey(userID)
	applied, err := cache.client.Expire(context, key, ttl).Result()
	if err != nil {
		return apperr.DependencyUnavailable("Session cache", err)
	}

	// EXPIRE reports false when the key does not exist.
	if !applied {
		return ErrSessionNotFound
	}

	return nil
}

/*
Delete removes the snapshot for a user ID.

Description: Deleting an absent entry is not an error, which makes logout
idempotent.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Connectivity failures
*/
func (cache *RedisSessionCache) Delete(context context.Context, userID string) error {

	key := sessionKey(userID)
	if err := cache.client.Del(context, key).Err(); err != nil {
		return apperr.DependencyUnavailable("Session cache", err)
	}

	return nil
}

// sessionKey builds the cache key for a user's logged-in snapshot.
func sessionKey(userID string) string {
	return constants.RedisPrefixSession + userID
}
