package auth

import (
	"context"

	"github.com/google/uuid"
)

type actorKey struct{}

// Actor identifies who is performing the request: a teller acting for a
// customer at a branch, or a customer in self-service.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// TellerID returns the acting teller's ID, or nil for self-service
// requests. The nil form is what transaction records store.
func TellerID(ctx context.Context) *uuid.UUID {
	a, ok := ActorFromContext(ctx)
	if !ok || a.Role != RoleTeller {
		return nil
	}
	id := a.ID
	return &id
}
