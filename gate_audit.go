package authgate

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLogin        = "login"
	auditEventRefresh      = "token_refresh"
	auditEventLogout       = "logout"
	auditEventAuthenticate = "authenticate"
)

func (g *Gate) emitAudit(ctx context.Context, eventType string, principalID int64, success bool, opErr error) {
	if g.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		PrincipalID: principalID,
		IP:          clientIPFromContext(ctx),
		Success:     success,
	}
	if opErr != nil {
		event.Error = auditErrorCode(opErr)
	}

	g.audit.Emit(ctx, event)
}

// auditErrorCode collapses an operation error to a stable code so sinks
// never see raw error text.
func auditErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountInactive):
		return "account_inactive"
	case errors.Is(err, ErrPrincipalNotFound):
		return "principal_not_found"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenInvalidSignature):
		return "token_signature_invalid"
	case errors.Is(err, ErrTokenMalformed):
		return "token_malformed"
	case errors.Is(err, ErrTokenTypeMismatch):
		return "token_type_mismatch"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrRefreshTokenInvalid):
		return "refresh_token_invalid"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}
