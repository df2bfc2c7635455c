package shared

import "errors"

// ErrInvalidSession indicates a session that cannot be resolved to a user.
var ErrInvalidSession = errors.New("invalid session")
