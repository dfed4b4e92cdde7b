package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMalformed is returned when a token cannot be parsed as a JWT or its
// claim set is structurally invalid.
var ErrMalformed = errors.New("token malformed")

// ErrExpired is returned when a token's exp claim is at or before now.
var ErrExpired = errors.New("token expired")

// ErrInvalidSignature is returned when the signature does not verify
// against the service secret.
var ErrInvalidSignature = errors.New("token signature invalid")

// ErrUnknownKind is returned when the type claim is neither "access" nor
// "refresh".
var ErrUnknownKind = errors.New("unknown token kind")

// Kind is the closed set of token types the codec issues.
type Kind uint8

const (
	// KindUnknown is the zero value; it is never issued.
	KindUnknown Kind = iota
	// KindAccess marks short-lived tokens presented on each request.
	KindAccess
	// KindRefresh marks long-lived tokens used only to mint access tokens.
	KindRefresh
)

const (
	kindAccessWire  = "access"
	kindRefreshWire = "refresh"
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return kindAccessWire
	case KindRefresh:
		return kindRefreshWire
	default:
		return "unknown"
	}
}

// ParseKind maps the wire-level type claim onto a [Kind].
func ParseKind(s string) (Kind, error) {
	switch s {
	case kindAccessWire:
		return KindAccess, nil
	case kindRefreshWire:
		return KindRefresh, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Claims is the decoded, immutable view of a signed token.
type Claims struct {
	Subject   string
	Kind      Kind
	ExpiresAt int64
	ID        string
}

// PrincipalID parses the subject claim as a principal identifier.
func (c Claims) PrincipalID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric subject %q", ErrMalformed, c.Subject)
	}
	return id, nil
}

// Config holds the shared signing secret and the nominal token lifetimes.
// It is loaded once at process start and treated as read-only afterwards.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec issues and decodes signed tokens. It holds no mutable state and is
// safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates the configuration and returns a ready codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL must not be shorter than access TTL")
	}
	return &Codec{config: cfg}, nil
}

type wireClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// IssueAccess mints an access token for the given principal using the
// configured access lifetime.
func (c *Codec) IssueAccess(principalID int64) (string, error) {
	return c.Issue(strconv.FormatInt(principalID, 10), KindAccess, c.config.AccessTTL)
}

// IssueRefresh mints a refresh token for the given principal using the
// configured refresh lifetime.
func (c *Codec) IssueRefresh(principalID int64) (string, error) {
	return c.Issue(strconv.FormatInt(principalID, 10), KindRefresh, c.config.RefreshTTL)
}

// Issue signs {subject, kind, exp = now + ttl} with the service secret.
// exp is truncated to whole seconds. A fresh jti is embedded so two tokens
// minted within the same second for the same subject are still distinct.
// Issue has no side effects.
func (c *Codec) Issue(subject string, kind Kind, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrMalformed)
	}
	if kind != KindAccess && kind != KindRefresh {
		return "", fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	expiresAt := time.Unix(time.Now().Add(ttl).Unix(), 0)
	claims := wireClaims{
		Type: kind.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Secret)
}

// Decode verifies the signature and expiry and returns the claims. It is a
// pure function of the token and the secret; it never performs I/O.
//
//	Failure modes: [ErrMalformed], [ErrExpired], [ErrInvalidSignature],
//	[ErrUnknownKind].
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.ParseWithClaims(tokenStr, &wireClaims{}, func(*jwt.Token) (interface{}, error) {
		return c.config.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	wire, ok := parsed.Claims.(*wireClaims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if wire.Subject == "" || wire.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing required claims", ErrMalformed)
	}

	kind, err := ParseKind(wire.Type)
	if err != nil {
		return nil, err
	}

	return &Claims{
		Subject:   wire.Subject,
		Kind:      kind,
		ExpiresAt: wire.ExpiresAt.Unix(),
		ID:        wire.ID,
	}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.config.AccessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.config.RefreshTTL }
