package flows

import (
	"context"
	"errors"
	"time"

	"github.com/authgate-io/authgate/token"
)

// RefreshFailureKind classifies refresh flow failures for root-level
// mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureDecode
	RefreshFailureKindMismatch
	RefreshFailureNotTracked
	RefreshFailureSubjectMismatch
	RefreshFailureIssue
	RefreshFailurePersist
	RefreshFailureStore
)

type RefreshSessionStore interface {
	LookupRefresh(ctx context.Context, refreshToken string) (int64, error)
	PutAccess(ctx context.Context, principalID int64, accessToken string, ttl time.Duration) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Decode           func(tokenStr string) (*token.Claims, error)
	IssueAccess      func(principalID int64) (string, error)
	AccessTTL        time.Duration
	SessionStore     RefreshSessionStore
	RedisNil         error
	StoreUnavailable error
}

// RefreshResult carries the reissued access token or failure metadata.
type RefreshResult struct {
	Failure     RefreshFailureKind
	Err         error
	PrincipalID int64
	AccessToken string
}

// RunRefresh reissues an access token under the same session generation.
// The refresh token itself is not rotated, and the previously issued
// access token stays tracked until its own TTL or a bulk revoke. The
// store lookup is cross-checked against the signed subject so a tampered
// store entry cannot redirect a refresh token to another principal.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	claims, err := deps.Decode(refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}
	if claims.Kind != token.KindRefresh {
		return RefreshResult{Failure: RefreshFailureKindMismatch}
	}

	principalID, err := claims.PrincipalID()
	if err != nil {
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}

	storedID, err := deps.SessionStore.LookupRefresh(ctx, refreshToken)
	if err != nil {
		if deps.StoreUnavailable != nil && errors.Is(err, deps.StoreUnavailable) {
			return RefreshResult{Failure: RefreshFailureStore, Err: err}
		}
		if deps.RedisNil != nil && errors.Is(err, deps.RedisNil) {
			return RefreshResult{Failure: RefreshFailureNotTracked, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}
	if storedID != principalID {
		return RefreshResult{Failure: RefreshFailureSubjectMismatch, PrincipalID: principalID}
	}

	access, err := deps.IssueAccess(principalID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, PrincipalID: principalID}
	}

	if err := deps.SessionStore.PutAccess(ctx, principalID, access, deps.AccessTTL); err != nil {
		return RefreshResult{Failure: RefreshFailurePersist, Err: err, PrincipalID: principalID}
	}

	return RefreshResult{
		Failure:     RefreshFailureNone,
		PrincipalID: principalID,
		AccessToken: access,
	}
}
