package internal

import (
	"context"
	"time"
)

// Actor is the authenticated identity behind a request. It is resolved once
// by the auth middleware and passed explicitly through context; nothing in
// the domain layer reads ambient session storage.
type Actor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

const (
	RoleContador = "CONTADOR"
	RoleCliente  = "CLIENTE"
	RoleAdmin    = "ADMIN"
)

// SystemActor identifies scheduled jobs (the due-date sweep) in the
// bitácora.
func SystemActor() Actor {
	return Actor{ID: 0, Username: "system", FullName: "Proceso programado", Role: RoleAdmin}
}

type ctxKey string

const contextActorKey ctxKey = "actor"

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(contextActorKey).(*Actor)
	if !ok || actor == nil {
		return Actor{}, false
	}
	return *actor, true
}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextActorKey, &actor)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if
// duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
