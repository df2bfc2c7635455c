package authz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	Store
	grantCalls  int
	policyCalls int
}

func (c *countingStore) GrantsFor(ctx context.Context, roleIDs []int64, capabilityID int64) ([]PermissionGrant, error) {
	c.grantCalls++
	return []PermissionGrant{{RoleID: roleIDs[0], CapabilityID: capabilityID, CanRead: true}}, nil
}

func (c *countingStore) PoliciesFor(ctx context.Context, capabilityID int64) ([]AttributePolicy, error) {
	c.policyCalls++
	return []AttributePolicy{{CapabilityID: capabilityID, Attribute: "region", Operator: OpEqual, Value: "Jakarta"}}, nil
}

func newCacheFixture(t *testing.T) (*countingStore, *CachedStore) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	inner := &countingStore{}
	return inner, NewCachedStore(inner, client, time.Minute)
}

func TestCachedStoreReadThrough(t *testing.T) {
	inner, cached := newCacheFixture(t)
	ctx := context.Background()

	first, err := cached.GrantsFor(ctx, []int64{10, 3}, 5)
	require.NoError(t, err)
	second, err := cached.GrantsFor(ctx, []int64{3, 10}, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// Role id ordering does not matter for the cache key.
	assert.Equal(t, 1, inner.grantCalls)

	_, err = cached.PoliciesFor(ctx, 5)
	require.NoError(t, err)
	_, err = cached.PoliciesFor(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.policyCalls)
}

func TestCachedStoreDistinctKeys(t *testing.T) {
	inner, cached := newCacheFixture(t)
	ctx := context.Background()

	_, err := cached.GrantsFor(ctx, []int64{10}, 5)
	require.NoError(t, err)
	_, err = cached.GrantsFor(ctx, []int64{10}, 6)
	require.NoError(t, err)
	_, err = cached.GrantsFor(ctx, []int64{11}, 5)
	require.NoError(t, err)

	assert.Equal(t, 3, inner.grantCalls)
}

func TestCachedStoreInvalidate(t *testing.T) {
	inner, cached := newCacheFixture(t)
	ctx := context.Background()

	_, err := cached.GrantsFor(ctx, []int64{10}, 5)
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate(ctx))
	_, err = cached.GrantsFor(ctx, []int64{10}, 5)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.grantCalls)
}

func TestCachedStoreNilClientPassesThrough(t *testing.T) {
	inner := &countingStore{}
	cached := NewCachedStore(inner, nil, time.Minute)
	ctx := context.Background()

	_, err := cached.GrantsFor(ctx, []int64{10}, 5)
	require.NoError(t, err)
	_, err = cached.GrantsFor(ctx, []int64{10}, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.grantCalls)
	assert.NoError(t, cached.Invalidate(ctx))
}
