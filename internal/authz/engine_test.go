package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	roles    map[int64]Role
	grants   []PermissionGrant
	policies map[int64][]AttributePolicy

	rolesErr    error
	grantsErr   error
	policiesErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		roles:    make(map[int64]Role),
		policies: make(map[int64][]AttributePolicy),
	}
}

func (m *mockStore) RolesByID(ctx context.Context, ids []int64) ([]Role, error) {
	if m.rolesErr != nil {
		return nil, m.rolesErr
	}
	var roles []Role
	for _, id := range ids {
		if role, ok := m.roles[id]; ok {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func (m *mockStore) RolesForUser(ctx context.Context, userID int64) ([]Role, error) {
	return nil, nil
}

func (m *mockStore) GrantsFor(ctx context.Context, roleIDs []int64, capabilityID int64) ([]PermissionGrant, error) {
	if m.grantsErr != nil {
		return nil, m.grantsErr
	}
	var grants []PermissionGrant
	for _, g := range m.grants {
		if g.CapabilityID != capabilityID {
			continue
		}
		for _, id := range roleIDs {
			if g.RoleID == id {
				grants = append(grants, g)
				break
			}
		}
	}
	return grants, nil
}

func (m *mockStore) PoliciesFor(ctx context.Context, capabilityID int64) ([]AttributePolicy, error) {
	if m.policiesErr != nil {
		return nil, m.policiesErr
	}
	return m.policies[capabilityID], nil
}

func (m *mockStore) AttributesFor(ctx context.Context, userID int64) (Attributes, error) {
	return nil, nil
}

func (m *mockStore) ListBindings(ctx context.Context) ([]RouteBinding, error) {
	return nil, nil
}

type mockSink struct {
	access     []AccessLogEntry
	violations []PolicyViolationEntry
	accessErr  error
}

func (m *mockSink) RecordAccess(ctx context.Context, entry AccessLogEntry) error {
	if m.accessErr != nil {
		return m.accessErr
	}
	m.access = append(m.access, entry)
	return nil
}

func (m *mockSink) RecordViolation(ctx context.Context, entry PolicyViolationEntry) error {
	m.violations = append(m.violations, entry)
	return nil
}

const (
	capUsers   int64 = 1
	capReports int64 = 2
	capUserMgt int64 = 3
)

func newTestEngine(t *testing.T, store Store, sink AuditSink) *Engine {
	t.Helper()
	resolver := NewResolver()
	require.NoError(t, resolver.Register(RouteBinding{Method: "GET", Path: "/api/users", CapabilityID: capUsers}))
	require.NoError(t, resolver.Register(RouteBinding{Method: "POST", Path: "/api/users", CapabilityID: capUsers}))
	require.NoError(t, resolver.Register(RouteBinding{Method: "GET", Path: "/api/reports", CapabilityID: capReports}))
	require.NoError(t, resolver.Register(RouteBinding{Method: "GET", Path: "/api/users/:id/roles", CapabilityID: capUserMgt}))
	return NewEngine(store, resolver, sink, nil)
}

func viewerStore() *mockStore {
	store := newMockStore()
	store.roles[10] = Role{ID: 10, Name: "viewer", Kind: RoleStandard}
	store.grants = []PermissionGrant{{RoleID: 10, CapabilityID: capUsers, CanRead: true}}
	return store
}

func TestAuthorizeViewerScenario(t *testing.T) {
	store := viewerStore()
	sink := &mockSink{}
	engine := newTestEngine(t, store, sink)
	actor := Actor{ID: 100, RoleIDs: []int64{10}, Attributes: Attributes{}}

	decision, err := engine.Authorize(context.Background(), actor, "GET", "/api/users", ActionRead)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonGranted, decision.Reason)
	assert.Equal(t, capUsers, decision.CapabilityID)

	decision, err = engine.Authorize(context.Background(), actor, "POST", "/api/users", ActionCreate)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInsufficientPermission, decision.Reason)

	require.Len(t, sink.access, 2)
	assert.Equal(t, "GET", sink.access[0].Method)
	assert.True(t, sink.access[0].Allowed)
	assert.Equal(t, int64(10), sink.access[0].RoleID)
	assert.False(t, sink.access[1].Allowed)
	assert.Empty(t, sink.violations)
}

func TestAuthorizeGrantsAllBypassesMatrixAndPolicies(t *testing.T) {
	store := newMockStore()
	store.roles[1] = Role{ID: 1, Name: "superadmin", Kind: RoleFullAccess}
	// No grants at all, plus a policy that would always fail.
	store.policies[capReports] = []AttributePolicy{
		{CapabilityID: capReports, Attribute: "region", Operator: OpEqual, Value: "nowhere"},
	}
	sink := &mockSink{}
	engine := newTestEngine(t, store, sink)
	actor := Actor{ID: 7, RoleIDs: []int64{1}}

	decision, err := engine.Authorize(context.Background(), actor, "GET", "/api/reports", ActionRead)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonGrantsAll, decision.Reason)

	require.Len(t, sink.access, 1)
	assert.Equal(t, int64(1), sink.access[0].RoleID)
	assert.Empty(t, sink.violations)
}

func TestAuthorizeRegionPolicy(t *testing.T) {
	store := newMockStore()
	store.roles[20] = Role{ID: 20, Name: "regional_manager", Kind: RoleStandard}
	store.grants = []PermissionGrant{{RoleID: 20, CapabilityID: capReports, CanRead: true}}
	store.policies[capReports] = []AttributePolicy{
		{ID: 1, CapabilityID: capReports, Attribute: "region", Operator: OpEqual, Value: "Jakarta"},
	}
	sink := &mockSink{}
	engine := newTestEngine(t, store, sink)

	jakarta := Actor{ID: 200, RoleIDs: []int64{20}, Attributes: Attributes{"region": "Jakarta"}}
	decision, err := engine.Authorize(context.Background(), jakarta, "GET", "/api/reports", ActionRead)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Empty(t, sink.violations)

	bandung := Actor{ID: 201, RoleIDs: []int64{20}, Attributes: Attributes{"region": "Bandung"}}
	decision, err = engine.Authorize(context.Background(), bandung, "GET", "/api/reports", ActionRead)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonPolicyDenied, decision.Reason)

	require.Len(t, sink.violations, 1)
	violation := sink.violations[0]
	assert.Equal(t, "region", violation.Attribute)
	assert.Equal(t, int64(201), violation.UserID)
	assert.Equal(t, capReports, violation.CapabilityID)
	assert.Contains(t, violation.Reason, "Bandung")
	// The violation shares the decision id of its access log row.
	require.Len(t, sink.access, 2)
	assert.Equal(t, sink.access[1].DecisionID, violation.DecisionID)
}

func TestAuthorizeParameterizedRoute(t *testing.T) {
	store := newMockStore()
	store.roles[30] = Role{ID: 30, Name: "user_admin", Kind: RoleStandard}
	store.grants = []PermissionGrant{{RoleID: 30, CapabilityID: capUserMgt, CanRead: true}}
	engine := newTestEngine(t, store, &mockSink{})
	actor := Actor{ID: 300, RoleIDs: []int64{30}, Attributes: Attributes{}}

	decision, err := engine.Authorize(context.Background(), actor, "GET", "/api/users/42/roles", ActionRead)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, capUserMgt, decision.CapabilityID)
}

func TestAuthorizeUnmappedRoute(t *testing.T) {
	store := viewerStore()
	sink := &mockSink{}
	engine := newTestEngine(t, store, sink)
	actor := Actor{ID: 100, RoleIDs: []int64{10}}

	decision, err := engine.Authorize(context.Background(), actor, "GET", "/api/unknown", ActionRead)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonUnmappedRoute, decision.Reason)
	assert.Zero(t, decision.CapabilityID)

	// The denial is still audited, with no capability attached.
	require.Len(t, sink.access, 1)
	assert.Zero(t, sink.access[0].CapabilityID)
	assert.Equal(t, "/api/unknown", sink.access[0].Path)
}

func TestAuthorizeInvalidActor(t *testing.T) {
	store := viewerStore()
	sink := &mockSink{}
	engine := newTestEngine(t, store, sink)

	decision, err := engine.Authorize(context.Background(), Actor{}, "GET", "/api/users", ActionRead)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInvalidActor, decision.Reason)
	require.Len(t, sink.access, 1)
}

func TestAuthorizeZeroRolesDenies(t *testing.T) {
	store := viewerStore()
	engine := newTestEngine(t, store, &mockSink{})
	actor := Actor{ID: 100, RoleIDs: []int64{}}

	decision, err := engine.Authorize(context.Background(), actor, "GET", "/api/users", ActionRead)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInsufficientPermission, decision.Reason)
}

func TestAuthorizeStorageErrorFailsClosed(t *testing.T) {
	store := viewerStore()
	store.grantsErr = errors.New("connection refused")
	engine := newTestEngine(t, store, &mockSink{})
	actor := Actor{ID: 100, RoleIDs: []int64{10}}

	decision, err := engine.Authorize(context.Background(), actor, "GET", "/api/users", ActionRead)
	require.Error(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonStorageError, decision.Reason)
}

func TestAuthorizeAuditFailureKeepsDecision(t *testing.T) {
	store := viewerStore()
	sink := &mockSink{accessErr: errors.New("audit table unavailable")}
	engine := newTestEngine(t, store, sink)
	actor := Actor{ID: 100, RoleIDs: []int64{10}}

	decision, err := engine.Authorize(context.Background(), actor, "GET", "/api/users", ActionRead)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	store := newMockStore()
	store.roles[20] = Role{ID: 20, Name: "regional_manager", Kind: RoleStandard}
	store.grants = []PermissionGrant{{RoleID: 20, CapabilityID: capReports, CanRead: true}}
	store.policies[capReports] = []AttributePolicy{
		{CapabilityID: capReports, Attribute: "region", Operator: OpEqual, Value: "Jakarta"},
	}
	engine := newTestEngine(t, store, &mockSink{})
	actor := Actor{ID: 200, RoleIDs: []int64{20}, Attributes: Attributes{"region": "Bandung"}}

	first, err := engine.Authorize(context.Background(), actor, "GET", "/api/reports", ActionRead)
	require.NoError(t, err)
	second, err := engine.Authorize(context.Background(), actor, "GET", "/api/reports", ActionRead)
	require.NoError(t, err)
	assert.Equal(t, first.Allowed, second.Allowed)
	assert.Equal(t, first.Reason, second.Reason)
	assert.Equal(t, first.CapabilityID, second.CapabilityID)
}
