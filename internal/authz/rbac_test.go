package authz

import "testing"

func TestFullAccessRole(t *testing.T) {
	roles := []Role{
		{ID: 1, Name: "viewer", Kind: RoleStandard},
		{ID: 2, Name: "admin", Kind: RoleFullAccess},
	}
	id, ok := fullAccessRole(roles)
	if !ok || id != 2 {
		t.Fatalf("expected full access role 2, got %d ok=%v", id, ok)
	}
	if _, ok := fullAccessRole(roles[:1]); ok {
		t.Fatalf("standard roles must not report full access")
	}
	if _, ok := fullAccessRole(nil); ok {
		t.Fatalf("zero roles must not report full access")
	}
}

func TestEvaluateGrantsActionFlagsAreIndependent(t *testing.T) {
	grants := []PermissionGrant{{RoleID: 1, CapabilityID: 5, CanRead: true}}

	verdict := evaluateGrants(grants, ActionRead)
	if !verdict.Allowed || verdict.Reason != ReasonGranted || verdict.RoleID != 1 {
		t.Fatalf("expected read allow via role 1, got %+v", verdict)
	}
	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		verdict := evaluateGrants(grants, action)
		if verdict.Allowed {
			t.Fatalf("%s must not be implied by read", action)
		}
		if verdict.Reason != ReasonInsufficientPermission {
			t.Fatalf("expected insufficient_permission, got %q", verdict.Reason)
		}
	}
}

func TestEvaluateGrantsNoRows(t *testing.T) {
	verdict := evaluateGrants(nil, ActionRead)
	if verdict.Allowed || verdict.Reason != ReasonInsufficientPermission {
		t.Fatalf("expected deny, got %+v", verdict)
	}
}

func TestEvaluateGrantsAnyRoleSuffices(t *testing.T) {
	grants := []PermissionGrant{
		{RoleID: 1, CapabilityID: 5},
		{RoleID: 2, CapabilityID: 5, CanDelete: true},
	}
	verdict := evaluateGrants(grants, ActionDelete)
	if !verdict.Allowed || verdict.RoleID != 2 {
		t.Fatalf("expected allow via role 2, got %+v", verdict)
	}
}

func TestActionForMethod(t *testing.T) {
	cases := map[string]Action{
		"POST":   ActionCreate,
		"GET":    ActionRead,
		"HEAD":   ActionRead,
		"PUT":    ActionUpdate,
		"PATCH":  ActionUpdate,
		"DELETE": ActionDelete,
	}
	for method, want := range cases {
		if got := ActionForMethod(method); got != want {
			t.Fatalf("%s: expected %s, got %s", method, want, got)
		}
	}
}
