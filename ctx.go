package account

import (
	"context"
)

var userCtxKey = &contextKey{"user"}
var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context. Identity travels with
// the request, never in process wide state, so concurrent requests see
// only their own user.
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithSessionContext sets the SessionObject in the given context
func WithSessionContext(r context.Context, session *SessionObject) context.Context {
	return context.WithValue(r, sessionCtxKey, session)
}

// SessionFromContext extracts the SessionObject from the context
func SessionFromContext(ctx context.Context) (*SessionObject, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(*SessionObject)
	return raw, ok
}
