package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindingStore struct {
	Store
	bindings []RouteBinding
	err      error
}

func (s *bindingStore) ListBindings(ctx context.Context) ([]RouteBinding, error) {
	return s.bindings, s.err
}

func TestRefreshSwapsLiveResolver(t *testing.T) {
	resolver := NewResolver()
	require.NoError(t, resolver.Register(RouteBinding{Method: "GET", Path: "/api/old", CapabilityID: 1}))

	store := &bindingStore{bindings: []RouteBinding{{Method: "GET", Path: "/api/new", CapabilityID: 2}}}
	refresher := NewBindingRefresher(store, resolver, nil, time.Minute)

	require.NoError(t, refresher.Refresh(context.Background()))

	_, ok := resolver.Resolve("GET", "/api/old")
	assert.False(t, ok)
	id, ok := resolver.Resolve("GET", "/api/new")
	require.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestRefreshKeepsTableOnFailure(t *testing.T) {
	resolver := NewResolver()
	require.NoError(t, resolver.Register(RouteBinding{Method: "GET", Path: "/api/keep", CapabilityID: 1}))

	store := &bindingStore{err: errors.New("connection refused")}
	refresher := NewBindingRefresher(store, resolver, nil, time.Minute)
	require.Error(t, refresher.Refresh(context.Background()))

	store.err = nil
	store.bindings = []RouteBinding{
		{Method: "GET", Path: "/api/a/:x", CapabilityID: 2},
		{Method: "GET", Path: "/api/a/:y", CapabilityID: 3},
	}
	require.ErrorIs(t, refresher.Refresh(context.Background()), ErrAmbiguousBinding)

	id, ok := resolver.Resolve("GET", "/api/keep")
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	refresher := NewBindingRefresher(&bindingStore{}, NewResolver(), nil, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		refresher.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
