package authz

import (
	"context"
	"errors"
)

// ErrStorage marks a data-store failure. Authorize fails closed when it
// sees one: the verdict is deny with reason "storage_error", never a
// silent allow.
var ErrStorage = errors.New("authz: storage unavailable")

// Store provides read access to the entities the engine depends on.
// Implementations must be safe for concurrent use; all operations are
// pure reads.
type Store interface {
	// RolesByID returns the role rows for the given ids. Unknown ids are
	// skipped, not an error.
	RolesByID(ctx context.Context, ids []int64) ([]Role, error)
	// RolesForUser returns all roles assigned to a user.
	RolesForUser(ctx context.Context, userID int64) ([]Role, error)
	// GrantsFor returns the permission matrix rows matching any of the
	// role ids for one capability.
	GrantsFor(ctx context.Context, roleIDs []int64, capabilityID int64) ([]PermissionGrant, error)
	// PoliciesFor returns all attribute policies bound to a capability.
	PoliciesFor(ctx context.Context, capabilityID int64) ([]AttributePolicy, error)
	// AttributesFor returns the current attribute values for a user.
	AttributesFor(ctx context.Context, userID int64) (Attributes, error)
	// ListBindings returns every registered route binding ordered by id.
	ListBindings(ctx context.Context) ([]RouteBinding, error)
}
