package authgate

import (
	"errors"

	"github.com/authgate-io/authgate/store"
	"github.com/authgate-io/authgate/token"
)

var (
	// ErrInvalidCredentials is returned by Login when the username is
	// unknown or the password does not match. The two cases are
	// deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive is returned when the principal exists but is
	// disabled.
	ErrAccountInactive = errors.New("account inactive")
	// ErrPrincipalNotFound is returned by [Directory] implementations
	// when no principal matches the query.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrTokenRevoked is returned when a token decodes fine but the
	// session store no longer honors it.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenTypeMismatch is returned when a refresh token is presented
	// where an access token is expected, or vice versa.
	ErrTokenTypeMismatch = errors.New("token type mismatch")
	// ErrRefreshTokenInvalid is returned by Refresh when the presented
	// refresh token fails any of its checks.
	ErrRefreshTokenInvalid = errors.New("invalid refresh token")
	// ErrGateNotReady is returned when a Gate is used before Build
	// wired it.
	ErrGateNotReady = errors.New("gate not initialized")
)

// Re-exported sentinels for callers that only import the root package.
// The taxonomy exists for diagnostics; user-facing layers should collapse
// all of it to a uniform unauthenticated outcome rather than leak which
// check failed.
var (
	// ErrTokenMalformed mirrors [token.ErrMalformed].
	ErrTokenMalformed = token.ErrMalformed
	// ErrTokenExpired mirrors [token.ErrExpired].
	ErrTokenExpired = token.ErrExpired
	// ErrTokenInvalidSignature mirrors [token.ErrInvalidSignature].
	ErrTokenInvalidSignature = token.ErrInvalidSignature
	// ErrStoreUnavailable mirrors [store.ErrStoreUnavailable].
	ErrStoreUnavailable = store.ErrStoreUnavailable
)
