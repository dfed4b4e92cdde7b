package authgate

import (
	"context"
	"io"

	internalaudit "github.com/authgate-io/authgate/internal/audit"
)

// Principal is the minimal identity record the gate reads from the
// directory. The gate never mutates it; user lifecycle belongs to the
// directory's owner.
type Principal struct {
	ID           int64
	Username     string
	PasswordHash string
	Active       bool
	Admin        bool
}

// Directory is the interface callers implement to connect the gate to
// their user database. Implementations return [ErrPrincipalNotFound]
// when no principal matches.
type Directory interface {
	GetByUsername(ctx context.Context, username string) (Principal, error)
	GetByID(ctx context.Context, id int64) (Principal, error)
}

// PasswordVerifier checks a plaintext password against a stored hash.
// [github.com/authgate-io/authgate/password.Bcrypt] satisfies it.
type PasswordVerifier interface {
	Verify(password, hash string) bool
}

// TokenPair is the caller-facing result of Login and Refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuditEvent is a structured audit record emitted by the gate.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the gate's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
