package flows

import (
	"context"
	"time"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureDirectory
	LoginFailurePrincipalNotFound
	LoginFailurePasswordMismatch
	LoginFailureInactive
	LoginFailureRevoke
	LoginFailureIssue
	LoginFailurePersist
)

// PrincipalRecord is the minimal identity view the login flow needs.
type PrincipalRecord struct {
	ID           int64
	PasswordHash string
	Active       bool
}

type LoginSessionStore interface {
	PutAccess(ctx context.Context, principalID int64, token string, ttl time.Duration) error
	PutRefresh(ctx context.Context, principalID int64, token string, ttl time.Duration) error
	RevokeAllForPrincipal(ctx context.Context, principalID int64) error
}

// LoginDeps captures login and session-issuance dependencies.
type LoginDeps struct {
	LookupPrincipal func(ctx context.Context, username string) (PrincipalRecord, bool, error)
	VerifyPassword  func(password, hash string) bool
	IssueAccess     func(principalID int64) (string, error)
	IssueRefresh    func(principalID int64) (string, error)
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	SessionStore    LoginSessionStore
}

// LoginResult carries either the issued token pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	PrincipalID  int64
	AccessToken  string
	RefreshToken string
}

// RunLogin verifies credentials against the directory and, on success,
// issues a fresh session generation via [RunIssueSession].
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) LoginResult {
	rec, found, err := deps.LookupPrincipal(ctx, username)
	if err != nil {
		return LoginResult{Failure: LoginFailureDirectory, Err: err}
	}
	if !found {
		return LoginResult{Failure: LoginFailurePrincipalNotFound}
	}

	if !deps.VerifyPassword(password, rec.PasswordHash) {
		return LoginResult{Failure: LoginFailurePasswordMismatch, PrincipalID: rec.ID}
	}
	if !rec.Active {
		return LoginResult{Failure: LoginFailureInactive, PrincipalID: rec.ID}
	}

	return RunIssueSession(ctx, rec.ID, deps)
}

// RunIssueSession replaces a principal's session generation: it revokes
// every previously tracked access token, then issues and persists a new
// access+refresh pair. Revoke-before-issue is what enforces the
// single-active-session guarantee; the two steps are sequential, not
// atomic, so a store failure between them leaves the principal logged
// out rather than doubly logged in.
func RunIssueSession(ctx context.Context, principalID int64, deps LoginDeps) LoginResult {
	if err := deps.SessionStore.RevokeAllForPrincipal(ctx, principalID); err != nil {
		return LoginResult{Failure: LoginFailureRevoke, Err: err, PrincipalID: principalID}
	}

	access, err := deps.IssueAccess(principalID)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, PrincipalID: principalID}
	}
	refresh, err := deps.IssueRefresh(principalID)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, PrincipalID: principalID}
	}

	if err := deps.SessionStore.PutAccess(ctx, principalID, access, deps.AccessTTL); err != nil {
		return LoginResult{Failure: LoginFailurePersist, Err: err, PrincipalID: principalID}
	}
	if err := deps.SessionStore.PutRefresh(ctx, principalID, refresh, deps.RefreshTTL); err != nil {
		return LoginResult{Failure: LoginFailurePersist, Err: err, PrincipalID: principalID}
	}

	return LoginResult{
		Failure:      LoginFailureNone,
		PrincipalID:  principalID,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
