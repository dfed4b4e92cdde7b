package flows

import "context"

type LogoutSessionStore interface {
	RevokeAllForPrincipal(ctx context.Context, principalID int64) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	SessionStore LogoutSessionStore
}

// RunLogout tears down every tracked access token for a principal.
// Logging out with no active session is a no-op that still succeeds.
func RunLogout(ctx context.Context, principalID int64, deps LogoutDeps) error {
	return deps.SessionStore.RevokeAllForPrincipal(ctx, principalID)
}
