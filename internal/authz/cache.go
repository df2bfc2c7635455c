package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "authz:version"

// CachedStore wraps a Store with a Redis read-through cache for the
// read-mostly matrix and policy lookups. Keys embed a version counter;
// Invalidate bumps the counter so every cached entry goes stale at once
// after permission or policy writes.
//
// The cache never changes a decision: on any Redis failure the lookup
// falls through to the underlying store.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
}

// NewCachedStore wraps store. A nil client disables caching.
func NewCachedStore(store Store, client *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{Store: store, client: client, ttl: ttl}
}

// Invalidate bumps the cache version. Gerbang itself never writes
// grants or policies; this is the published hook for the admin tooling
// that owns those tables to call after a write.
func (c *CachedStore) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

// GrantsFor serves matrix rows through the cache, keyed by the sorted
// role id set and the capability.
func (c *CachedStore) GrantsFor(ctx context.Context, roleIDs []int64, capabilityID int64) ([]PermissionGrant, error) {
	key := fmt.Sprintf("grants:%s:%d", joinIDs(roleIDs), capabilityID)
	var grants []PermissionGrant
	err := c.fetch(ctx, key, &grants, func(ctx context.Context) (any, error) {
		return c.Store.GrantsFor(ctx, roleIDs, capabilityID)
	})
	return grants, err
}

// PoliciesFor serves policy rows through the cache.
func (c *CachedStore) PoliciesFor(ctx context.Context, capabilityID int64) ([]AttributePolicy, error) {
	key := fmt.Sprintf("policies:%d", capabilityID)
	var policies []AttributePolicy
	err := c.fetch(ctx, key, &policies, func(ctx context.Context) (any, error) {
		return c.Store.PoliciesFor(ctx, capabilityID)
	})
	return policies, err
}

func (c *CachedStore) fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if c.client == nil {
		return c.load(ctx, dest, loader)
	}
	versioned, err := c.buildKey(ctx, key)
	if err != nil {
		return c.load(ctx, dest, loader)
	}
	payload, err := c.client.Get(ctx, versioned).Bytes()
	if err == nil {
		if unmarshalErr := json.Unmarshal(payload, dest); unmarshalErr == nil {
			return nil
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_ = c.client.Set(ctx, versioned, raw, c.ttl).Err()
	return json.Unmarshal(raw, dest)
}

func (c *CachedStore) load(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (c *CachedStore) buildKey(ctx context.Context, key string) (string, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("authz:%s:v%d", key, ver), nil
}

func joinIDs(ids []int64) string {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
