package authgate

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/authgate-io/authgate/internal/audit"
	"github.com/authgate-io/authgate/internal/flows"
	"github.com/authgate-io/authgate/password"
	"github.com/authgate-io/authgate/store"
	"github.com/authgate-io/authgate/token"
)

// Builder assembles a [Gate]. Obtain one with [New], chain the With*
// options, then call [Builder.Build]. A Redis client and a principal
// directory are required; everything else has defaults.
type Builder struct {
	cfg       Config
	cfgSet    bool
	redis     redis.UniversalClient
	directory Directory
	verifier  PasswordVerifier
	sink      AuditSink
}

// New starts a gate builder.
func New() *Builder {
	return &Builder{}
}

// WithConfig supplies the gate configuration. The config is cloned;
// later mutation by the caller has no effect. When omitted,
// [DefaultConfig] is used.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cloneConfig(cfg)
	b.cfgSet = true
	return b
}

// WithRedis injects the Redis client backing the session store. The
// client's lifecycle stays with the caller; [Gate.Close] does not close
// it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory injects the principal directory.
func (b *Builder) WithDirectory(d Directory) *Builder {
	b.directory = d
	return b
}

// WithPasswordVerifier overrides the default bcrypt verifier.
func (b *Builder) WithPasswordVerifier(v PasswordVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditSink sets the destination for audit events. Ignored unless
// auditing is enabled in the config.
func (b *Builder) WithAuditSink(s AuditSink) *Builder {
	b.sink = s
	return b
}

// Build validates the configuration, wires the codec, session store,
// flow service, metrics, and audit dispatcher, and returns a ready gate.
func (b *Builder) Build() (*Gate, error) {
	if !b.cfgSet {
		b.cfg = DefaultConfig()
	}
	b.cfg.applyDefaults()
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.directory == nil {
		return nil, errors.New("principal directory is required")
	}

	verifier := b.verifier
	if verifier == nil {
		bc, err := password.NewBcrypt(password.Config{})
		if err != nil {
			return nil, fmt.Errorf("password verifier: %w", err)
		}
		verifier = bc
	}

	codec, err := token.NewCodec(token.Config{
		Secret:     b.cfg.JWT.Secret,
		AccessTTL:  b.cfg.JWT.AccessTTL,
		RefreshTTL: b.cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	// The per-principal token index must outlive every token it lists,
	// so it expires on the refresh lifetime.
	sessions := store.NewStore(b.redis, b.cfg.JWT.RefreshTTL)

	g := &Gate{
		cfg:       b.cfg,
		codec:     codec,
		sessions:  sessions,
		directory: b.directory,
		verifier:  verifier,
		metrics:   NewMetrics(b.cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    b.cfg.Audit.Enabled,
			BufferSize: b.cfg.Audit.BufferSize,
			DropIfFull: b.cfg.Audit.DropIfFull,
		}, b.sink),
	}

	g.service = flows.New(flows.Deps{
		Login: flows.LoginDeps{
			LookupPrincipal: g.lookupPrincipal,
			VerifyPassword:  verifier.Verify,
			IssueAccess:     codec.IssueAccess,
			IssueRefresh:    codec.IssueRefresh,
			AccessTTL:       codec.AccessTTL(),
			RefreshTTL:      codec.RefreshTTL(),
			SessionStore:    sessions,
		},
		Refresh: flows.RefreshDeps{
			Decode:           codec.Decode,
			IssueAccess:      codec.IssueAccess,
			AccessTTL:        codec.AccessTTL(),
			SessionStore:     sessions,
			RedisNil:         redis.Nil,
			StoreUnavailable: store.ErrStoreUnavailable,
		},
		Authenticate: flows.AuthenticateDeps{
			Decode:           codec.Decode,
			SessionStore:     sessions,
			RedisNil:         redis.Nil,
			StoreUnavailable: store.ErrStoreUnavailable,
		},
		Logout: flows.LogoutDeps{
			SessionStore: sessions,
		},
	})

	return g, nil
}
