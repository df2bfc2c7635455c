package authz

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore provides PostgreSQL backed read access for the engine.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

// RolesByID returns role rows for the given ids.
func (s *PostgresStore) RolesByID(ctx context.Context, ids []int64) ([]Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT id, name, kind FROM roles WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, storageErr("roles by id", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Kind); err != nil {
			return nil, storageErr("scan role", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("roles by id", err)
	}
	return roles, nil
}

// RolesForUser returns all roles assigned to a user via user_roles.
func (s *PostgresStore) RolesForUser(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.kind
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id`, userID)
	if err != nil {
		return nil, storageErr("roles for user", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Kind); err != nil {
			return nil, storageErr("scan role", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("roles for user", err)
	}
	return roles, nil
}

// GrantsFor returns matrix rows matching any of the role ids for one capability.
func (s *PostgresStore) GrantsFor(ctx context.Context, roleIDs []int64, capabilityID int64) ([]PermissionGrant, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT role_id, capability_id, can_create, can_read, can_update, can_delete
		FROM permission_grants
		WHERE role_id = ANY($1) AND capability_id = $2`, roleIDs, capabilityID)
	if err != nil {
		return nil, storageErr("grants", err)
	}
	defer rows.Close()
	var grants []PermissionGrant
	for rows.Next() {
		var g PermissionGrant
		if err := rows.Scan(&g.RoleID, &g.CapabilityID, &g.CanCreate, &g.CanRead, &g.CanUpdate, &g.CanDelete); err != nil {
			return nil, storageErr("scan grant", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("grants", err)
	}
	return grants, nil
}

// PoliciesFor returns all attribute policies bound to a capability.
func (s *PostgresStore) PoliciesFor(ctx context.Context, capabilityID int64) ([]AttributePolicy, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, capability_id, attribute, operator, value
		FROM attribute_policies
		WHERE capability_id = $1
		ORDER BY id`, capabilityID)
	if err != nil {
		return nil, storageErr("policies", err)
	}
	defer rows.Close()
	var policies []AttributePolicy
	for rows.Next() {
		var p AttributePolicy
		if err := rows.Scan(&p.ID, &p.CapabilityID, &p.Attribute, &p.Operator, &p.Value); err != nil {
			return nil, storageErr("scan policy", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("policies", err)
	}
	return policies, nil
}

// AttributesFor returns the current attribute values for a user.
func (s *PostgresStore) AttributesFor(ctx context.Context, userID int64) (Attributes, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, value FROM user_attributes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, storageErr("attributes", err)
	}
	defer rows.Close()
	attrs := make(Attributes)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, storageErr("scan attribute", err)
		}
		attrs[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("attributes", err)
	}
	return attrs, nil
}

// ListBindings returns every route binding ordered by id.
func (s *PostgresStore) ListBindings(ctx context.Context) ([]RouteBinding, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, method, path, capability_id FROM route_bindings ORDER BY id`)
	if err != nil {
		return nil, storageErr("bindings", err)
	}
	defer rows.Close()
	var bindings []RouteBinding
	for rows.Next() {
		var b RouteBinding
		if err := rows.Scan(&b.ID, &b.Method, &b.Path, &b.CapabilityID); err != nil {
			return nil, storageErr("scan binding", err)
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("bindings", err)
	}
	return bindings, nil
}
