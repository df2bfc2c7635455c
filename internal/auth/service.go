package auth

import (
	"context"
	"fmt"

	"github.com/gerbang-admin/gerbang/internal/authz"
)

// Service resolves authenticated users into engine actors. Credential
// verification and session issuance live outside this application; by
// the time Service runs, the user id comes from an established session.
type Service struct {
	store authz.Store
}

// NewService constructs a Service backed by the engine store.
func NewService(store authz.Store) *Service {
	return &Service{store: store}
}

// LoadActor builds the immutable per-request actor: verified role ids
// plus current attribute values.
func (s *Service) LoadActor(ctx context.Context, userID int64) (authz.Actor, error) {
	roles, err := s.store.RolesForUser(ctx, userID)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("auth: load roles: %w", err)
	}
	attrs, err := s.store.AttributesFor(ctx, userID)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("auth: load attributes: %w", err)
	}
	roleIDs := make([]int64, len(roles))
	for i, role := range roles {
		roleIDs[i] = role.ID
	}
	return authz.Actor{ID: userID, RoleIDs: roleIDs, Attributes: attrs}, nil
}
