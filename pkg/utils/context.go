package utils

import "context"

type contextKey string

const ActorKey contextKey = "actor"

// SystemActor is recorded in history when no caller identity is known.
const SystemActor = "system"

func SetActorContext(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActorFromContext returns the caller recorded by the actor middleware,
// or SystemActor for background jobs.
func GetActorFromContext(ctx context.Context) string {
	actor, ok := ctx.Value(ActorKey).(string)
	if !ok || actor == "" {
		return SystemActor
	}
	return actor
}
