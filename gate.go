package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalaudit "github.com/authgate-io/authgate/internal/audit"
	"github.com/authgate-io/authgate/internal/flows"
	"github.com/authgate-io/authgate/store"
	"github.com/authgate-io/authgate/token"
)

// Gate is the authentication front door: it verifies credentials, issues
// and validates token pairs, and revokes sessions. Safe for concurrent
// use. Build one with [New].
type Gate struct {
	cfg       Config
	codec     *token.Codec
	sessions  *store.Store
	directory Directory
	verifier  PasswordVerifier
	service   flows.Service
	metrics   *Metrics
	audit     *internalaudit.Dispatcher
}

func (g *Gate) ready() error {
	if g == nil || !g.service.Initialized() {
		return ErrGateNotReady
	}
	return nil
}

func (g *Gate) metricInc(id MetricID) {
	g.metrics.Inc(id)
}

func (g *Gate) noteStoreErr(err error) {
	if err != nil && errors.Is(err, ErrStoreUnavailable) {
		g.metricInc(MetricStoreUnavailable)
	}
}

func (g *Gate) pair(access, refresh string) TokenPair {
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(g.codec.AccessTTL() / time.Second),
	}
}

// Login verifies a username and password against the directory and, on
// success, replaces the principal's session generation: every previously
// issued access token is revoked before the new pair is stored. Unknown
// username and wrong password both surface [ErrInvalidCredentials].
func (g *Gate) Login(ctx context.Context, username, password string) (TokenPair, error) {
	if err := g.ready(); err != nil {
		return TokenPair{}, err
	}

	res := g.service.Login(ctx, username, password)
	if res.Failure != flows.LoginFailureNone {
		err := mapLoginFailure(res)
		g.metricInc(MetricLoginFailure)
		g.noteStoreErr(err)
		g.emitAudit(ctx, auditEventLogin, res.PrincipalID, false, err)
		return TokenPair{}, err
	}

	g.metricInc(MetricLoginSuccess)
	g.metricInc(MetricSessionRevoked)
	g.emitAudit(ctx, auditEventLogin, res.PrincipalID, true, nil)
	return g.pair(res.AccessToken, res.RefreshToken), nil
}

// LoginPrincipal issues a fresh session for an already-authenticated
// principal, bypassing the password check. Intended for flows where
// identity was established elsewhere, for example a one-time link.
// The principal must exist and be active.
func (g *Gate) LoginPrincipal(ctx context.Context, principalID int64) (TokenPair, error) {
	if err := g.ready(); err != nil {
		return TokenPair{}, err
	}

	p, err := g.directory.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			g.metricInc(MetricLoginFailure)
			g.emitAudit(ctx, auditEventLogin, principalID, false, ErrPrincipalNotFound)
			return TokenPair{}, ErrPrincipalNotFound
		}
		g.metricInc(MetricLoginFailure)
		g.emitAudit(ctx, auditEventLogin, principalID, false, err)
		return TokenPair{}, fmt.Errorf("directory lookup: %w", err)
	}
	if !p.Active {
		g.metricInc(MetricLoginFailure)
		g.emitAudit(ctx, auditEventLogin, principalID, false, ErrAccountInactive)
		return TokenPair{}, ErrAccountInactive
	}

	res := g.service.IssueSession(ctx, principalID)
	if res.Failure != flows.LoginFailureNone {
		err := mapLoginFailure(res)
		g.metricInc(MetricLoginFailure)
		g.noteStoreErr(err)
		g.emitAudit(ctx, auditEventLogin, principalID, false, err)
		return TokenPair{}, err
	}

	g.metricInc(MetricLoginSuccess)
	g.metricInc(MetricSessionRevoked)
	g.emitAudit(ctx, auditEventLogin, principalID, true, nil)
	return g.pair(res.AccessToken, res.RefreshToken), nil
}

// Authenticate validates an access token and returns the principal id it
// was issued to. Both checks must pass: the signature must verify and be
// unexpired, and the token must still be present in the session store.
// When the store is unreachable the request is rejected with
// [ErrStoreUnavailable]; the signature alone is never trusted.
func (g *Gate) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	if err := g.ready(); err != nil {
		return 0, err
	}

	res := g.service.Authenticate(ctx, accessToken)
	if res.Failure != flows.AuthenticateFailureNone {
		err := mapAuthenticateFailure(res)
		g.metricInc(MetricAuthenticateFailure)
		g.noteStoreErr(err)
		g.emitAudit(ctx, auditEventAuthenticate, res.PrincipalID, false, err)
		return 0, err
	}

	g.metricInc(MetricAuthenticateSuccess)
	return res.PrincipalID, nil
}

// CurrentPrincipal validates an access token and returns the directory
// record of the principal behind it. A principal that has disappeared
// from the directory or been deactivated since login is rejected.
func (g *Gate) CurrentPrincipal(ctx context.Context, accessToken string) (Principal, error) {
	principalID, err := g.Authenticate(ctx, accessToken)
	if err != nil {
		return Principal{}, err
	}

	p, err := g.directory.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return Principal{}, ErrPrincipalNotFound
		}
		return Principal{}, fmt.Errorf("directory lookup: %w", err)
	}
	if !p.Active {
		return Principal{}, ErrAccountInactive
	}
	return p, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token is not rotated; the returned pair carries it unchanged.
// Previously issued access tokens stay valid until their own expiry or
// the next login.
func (g *Gate) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if err := g.ready(); err != nil {
		return TokenPair{}, err
	}

	res := g.service.Refresh(ctx, refreshToken)
	if res.Failure != flows.RefreshFailureNone {
		err := mapRefreshFailure(res)
		g.metricInc(MetricRefreshFailure)
		g.noteStoreErr(err)
		g.emitAudit(ctx, auditEventRefresh, res.PrincipalID, false, err)
		return TokenPair{}, err
	}

	g.metricInc(MetricRefreshSuccess)
	g.emitAudit(ctx, auditEventRefresh, res.PrincipalID, true, nil)
	return g.pair(res.AccessToken, refreshToken), nil
}

// Logout revokes every tracked access token for a principal. Idempotent:
// logging out a principal with no active session succeeds.
func (g *Gate) Logout(ctx context.Context, principalID int64) error {
	if err := g.ready(); err != nil {
		return err
	}

	if err := g.service.Logout(ctx, principalID); err != nil {
		g.noteStoreErr(err)
		g.emitAudit(ctx, auditEventLogout, principalID, false, err)
		return err
	}

	g.metricInc(MetricLogout)
	g.metricInc(MetricSessionRevoked)
	g.emitAudit(ctx, auditEventLogout, principalID, true, nil)
	return nil
}

// LogoutByAccessToken revokes the session identified by an access token.
// Only the signature is checked before revoking, so presenting an
// already-revoked token still succeeds and keeps logout idempotent.
func (g *Gate) LogoutByAccessToken(ctx context.Context, accessToken string) error {
	if err := g.ready(); err != nil {
		return err
	}

	claims, err := g.codec.Decode(accessToken)
	if err != nil {
		return err
	}
	if claims.Kind != token.KindAccess {
		return ErrTokenTypeMismatch
	}
	principalID, err := claims.PrincipalID()
	if err != nil {
		return err
	}

	return g.Logout(ctx, principalID)
}

// Ping checks session store reachability and reports the round-trip
// latency.
func (g *Gate) Ping(ctx context.Context) (time.Duration, error) {
	if err := g.ready(); err != nil {
		return 0, err
	}
	return g.sessions.Ping(ctx)
}

// MetricsSnapshot returns the current counter values keyed by metric
// name. Empty when metrics are disabled.
func (g *Gate) MetricsSnapshot() map[string]uint64 {
	if g == nil {
		return map[string]uint64{}
	}
	return g.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (g *Gate) AuditDropped() uint64 {
	if g == nil {
		return 0
	}
	return g.audit.Dropped()
}

// Close flushes and stops the audit dispatcher. The injected Redis
// client and directory are owned by the caller and left open.
func (g *Gate) Close() error {
	if g == nil {
		return nil
	}
	g.audit.Close()
	return nil
}

func (g *Gate) lookupPrincipal(ctx context.Context, username string) (flows.PrincipalRecord, bool, error) {
	p, err := g.directory.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return flows.PrincipalRecord{}, false, nil
		}
		return flows.PrincipalRecord{}, false, fmt.Errorf("directory lookup: %w", err)
	}
	return flows.PrincipalRecord{
		ID:           p.ID,
		PasswordHash: p.PasswordHash,
		Active:       p.Active,
	}, true, nil
}

func mapLoginFailure(res flows.LoginResult) error {
	switch res.Failure {
	case flows.LoginFailurePrincipalNotFound, flows.LoginFailurePasswordMismatch:
		return ErrInvalidCredentials
	case flows.LoginFailureInactive:
		return ErrAccountInactive
	case flows.LoginFailureDirectory, flows.LoginFailureRevoke,
		flows.LoginFailureIssue, flows.LoginFailurePersist:
		return res.Err
	default:
		return res.Err
	}
}

func mapAuthenticateFailure(res flows.AuthenticateResult) error {
	switch res.Failure {
	case flows.AuthenticateFailureDecode:
		return res.Err
	case flows.AuthenticateFailureKindMismatch:
		return ErrTokenTypeMismatch
	case flows.AuthenticateFailureRevoked, flows.AuthenticateFailureSubjectMismatch:
		return ErrTokenRevoked
	default:
		return res.Err
	}
}

func mapRefreshFailure(res flows.RefreshResult) error {
	switch res.Failure {
	case flows.RefreshFailureDecode, flows.RefreshFailureNotTracked,
		flows.RefreshFailureSubjectMismatch:
		if res.Err == nil {
			return ErrRefreshTokenInvalid
		}
		return fmt.Errorf("%w: %v", ErrRefreshTokenInvalid, res.Err)
	case flows.RefreshFailureKindMismatch:
		return ErrTokenTypeMismatch
	case flows.RefreshFailureStore, flows.RefreshFailureIssue,
		flows.RefreshFailurePersist:
		return res.Err
	default:
		return res.Err
	}
}
