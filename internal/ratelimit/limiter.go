// Package ratelimit bounds how often one key may act inside a sliding time
// window.
package ratelimit

import (
	"context"
	"time"
)

// Rule is a budget of Limit events per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter records an event for key when the budget allows it.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type scopeKey struct{}

// WithScope attaches the caller's scope (a form session) to ctx. Keys are
// prefixed with it so limits bound one session rather than all users.
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext returns the scope set by WithScope.
func ScopeFromContext(ctx context.Context) string {
	scope, _ := ctx.Value(scopeKey{}).(string)
	return scope
}

// Key builds a limiter key from an action, the scope in ctx and a subject.
func Key(ctx context.Context, action, subject string) string {
	key := action
	if scope := ScopeFromContext(ctx); scope != "" {
		key += ":" + scope
	}
	if subject != "" {
		key += ":" + subject
	}
	return key
}
