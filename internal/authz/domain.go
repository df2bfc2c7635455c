package authz

import (
	"net/http"
	"time"
)

// Action is a CRUD action requested against a capability.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ActionForMethod maps an HTTP method to the action it implies.
func ActionForMethod(method string) Action {
	switch method {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// RoleKind distinguishes standard roles from the full-access override.
type RoleKind string

const (
	RoleStandard   RoleKind = "standard"
	RoleFullAccess RoleKind = "full_access"
)

// Role represents a permission grouping assigned to users.
type Role struct {
	ID   int64
	Name string
	Kind RoleKind
}

// Attributes holds the actor attribute values used by policy evaluation.
// Values are stored as strings; numeric operators parse them as integers.
type Attributes map[string]string

// Actor describes the authenticated subject of an authorization request.
// It is built once per request by the authentication layer and is not
// mutated during evaluation.
type Actor struct {
	ID         int64
	RoleIDs    []int64
	Attributes Attributes
}

// Capability is the named unit of functionality that permissions and
// policies are anchored to.
type Capability struct {
	ID       int64
	Name     string
	Category string
}

// PermissionGrant is one row of the role/capability permission matrix.
// The four flags are independent; absence of a row means no permission.
type PermissionGrant struct {
	RoleID       int64
	CapabilityID int64
	CanCreate    bool
	CanRead      bool
	CanUpdate    bool
	CanDelete    bool
}

// Allows reports whether the grant covers the requested action.
func (g PermissionGrant) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return g.CanCreate
	case ActionRead:
		return g.CanRead
	case ActionUpdate:
		return g.CanUpdate
	case ActionDelete:
		return g.CanDelete
	}
	return false
}

// Operator is a comparison applied between an actor attribute and a
// policy value.
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
)

// AttributePolicy binds a predicate to a capability. All policies bound
// to a capability must pass for ABAC to allow.
type AttributePolicy struct {
	ID           int64
	CapabilityID int64
	Attribute    string
	Operator     Operator
	Value        string
}

// RouteBinding maps an HTTP surface to a capability. Path may contain
// ":param" segments; an empty Method matches any method.
type RouteBinding struct {
	ID           int64
	Method       string `validate:"omitempty,uppercase"`
	Path         string `validate:"required,startswith=/"`
	CapabilityID int64  `validate:"required"`
}

// Decision reasons returned by Authorize.
const (
	ReasonGranted                = "granted"
	ReasonGrantsAll              = "grants_all"
	ReasonUnmappedRoute          = "unmapped_route"
	ReasonInsufficientPermission = "insufficient_permission"
	ReasonPolicyDenied           = "policy_denied"
	ReasonInvalidActor           = "invalid_actor"
	ReasonStorageError           = "storage_error"
)

// Decision is the verdict of a single authorization evaluation.
// CapabilityID is zero when no route binding matched.
type Decision struct {
	Allowed      bool
	Reason       string
	CapabilityID int64
}

// AccessLogEntry is one append-only row of the audit trail, written for
// every decision whether allowed or denied.
type AccessLogEntry struct {
	DecisionID   string
	UserID       int64
	RoleID       int64
	CapabilityID int64
	Path         string
	Method       string
	Allowed      bool
	Reason       string
	CreatedAt    time.Time
}

// PolicyViolationEntry is written in addition to the access log when an
// attribute policy denies a request.
type PolicyViolationEntry struct {
	DecisionID   string
	UserID       int64
	CapabilityID int64
	Attribute    string
	Reason       string
	RequestData  map[string]any
	CreatedAt    time.Time
}
