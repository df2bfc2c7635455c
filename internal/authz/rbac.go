package authz

// rbacVerdict is the outcome of the role stage. RoleID identifies the
// role that granted access, zero on deny.
type rbacVerdict struct {
	Allowed bool
	Reason  string
	RoleID  int64
}

// fullAccessRole reports the first assigned role carrying the
// full-access override. The bypass rule lives here and nowhere else:
// callers that see ok=true skip both the matrix lookup and the policy
// stage.
func fullAccessRole(roles []Role) (int64, bool) {
	for _, role := range roles {
		switch role.Kind {
		case RoleFullAccess:
			return role.ID, true
		}
	}
	return 0, false
}

// evaluateGrants decides the standard-role stage: at least one matrix
// row for the actor's roles must carry the requested action flag. An
// actor with zero roles or zero matching rows denies.
func evaluateGrants(grants []PermissionGrant, action Action) rbacVerdict {
	for _, grant := range grants {
		if grant.Allows(action) {
			return rbacVerdict{Allowed: true, Reason: ReasonGranted, RoleID: grant.RoleID}
		}
	}
	return rbacVerdict{Reason: ReasonInsufficientPermission}
}
