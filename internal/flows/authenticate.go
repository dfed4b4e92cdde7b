package flows

import (
	"context"
	"errors"

	"github.com/authgate-io/authgate/token"
)

// AuthenticateFailureKind classifies per-request validation failures for
// root-level mapping.
type AuthenticateFailureKind int

const (
	AuthenticateFailureNone AuthenticateFailureKind = iota
	AuthenticateFailureDecode
	AuthenticateFailureKindMismatch
	AuthenticateFailureRevoked
	AuthenticateFailureSubjectMismatch
	AuthenticateFailureStore
)

type AuthenticateSessionStore interface {
	LookupAccess(ctx context.Context, accessToken string) (int64, error)
}

// AuthenticateDeps captures access-token validation dependencies.
type AuthenticateDeps struct {
	Decode           func(tokenStr string) (*token.Claims, error)
	SessionStore     AuthenticateSessionStore
	RedisNil         error
	StoreUnavailable error
}

// AuthenticateResult returns the validated principal id or a classified
// failure.
type AuthenticateResult struct {
	Failure     AuthenticateFailureKind
	Err         error
	PrincipalID int64
	Claims      *token.Claims
}

// RunAuthenticate executes the dual check that validates an access token:
// the stateless signature/expiry decode, then the stateful store lookup,
// then a cross-check that both agree on the principal. Neither half is
// sufficient alone: the signature cannot express revocation, and the
// store entry cannot express expiry or protect against a tampered entry
// with no matching signature.
func RunAuthenticate(ctx context.Context, tokenStr string, deps AuthenticateDeps) AuthenticateResult {
	claims, err := deps.Decode(tokenStr)
	if err != nil {
		return AuthenticateResult{Failure: AuthenticateFailureDecode, Err: err}
	}
	if claims.Kind != token.KindAccess {
		return AuthenticateResult{Failure: AuthenticateFailureKindMismatch, Claims: claims}
	}

	principalID, err := claims.PrincipalID()
	if err != nil {
		return AuthenticateResult{Failure: AuthenticateFailureDecode, Err: err, Claims: claims}
	}

	storedID, err := deps.SessionStore.LookupAccess(ctx, tokenStr)
	if err != nil {
		if deps.StoreUnavailable != nil && errors.Is(err, deps.StoreUnavailable) {
			// Fail closed: an unreachable store must reject the
			// request, never fall back to signature-only trust.
			return AuthenticateResult{Failure: AuthenticateFailureStore, Err: err, Claims: claims}
		}
		if deps.RedisNil != nil && errors.Is(err, deps.RedisNil) {
			return AuthenticateResult{Failure: AuthenticateFailureRevoked, Err: err, Claims: claims}
		}
		return AuthenticateResult{Failure: AuthenticateFailureStore, Err: err, Claims: claims}
	}

	if storedID != principalID {
		return AuthenticateResult{Failure: AuthenticateFailureSubjectMismatch, Claims: claims}
	}

	return AuthenticateResult{
		Failure:     AuthenticateFailureNone,
		PrincipalID: principalID,
		Claims:      claims,
	}
}
