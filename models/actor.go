package models

import "context"

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Can reports whether the actor's role grants p. A nil actor can do nothing.
func (a *Actor) Can(p Permission) bool {
	if a == nil {
		return false
	}
	return a.Role.Can(p)
}

func (a *Actor) Snapshot() ActorSnapshot {
	return ActorSnapshot{UserID: a.ID, UserName: a.Name, UserEmail: a.Email, UserRole: a.Role}
}

// ActorSnapshot freezes an actor's identity inside a stored record.
type ActorSnapshot struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	UserRole  Role   `json:"userRole"`
}

type actorKey struct{}

// WithActor attaches the authenticated actor to ctx.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor attached to ctx, or nil.
func ActorFrom(ctx context.Context) *Actor {
	a, _ := ctx.Value(actorKey{}).(*Actor)
	return a
}
