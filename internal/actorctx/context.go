package actorctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/authorization"
)

// Actor identifies the authenticated operator for the current request.
// AccountID is set only for supplier sessions and scopes every read to the
// supplier's own receipts.
type Actor struct {
	OperatorID snowflake.ID
	Name       string
	Role       authorization.Role
	AccountID  snowflake.ID
}

type actorKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor from context, if set.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.OperatorID == 0 {
		return Actor{}, false
	}
	return actor, true
}
