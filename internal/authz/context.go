package authz

import "context"

type contextKey struct{}

// ContextWithActor stores the authenticated actor for downstream
// handlers and the enforcement middleware.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext returns the actor placed by the authentication layer,
// or false when the request is anonymous.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}
