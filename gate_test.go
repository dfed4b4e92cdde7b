package authgate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/authgate-io/authgate/password"
	"github.com/authgate-io/authgate/token"
)

type memoryDirectory struct {
	mu         sync.RWMutex
	byID       map[int64]Principal
	byUsername map[string]int64
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{
		byID:       make(map[int64]Principal),
		byUsername: make(map[string]int64),
	}
}

func (d *memoryDirectory) Put(p Principal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[p.ID] = p
	d.byUsername[p.Username] = p.ID
}

func (d *memoryDirectory) SetActive(id int64, active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.byID[id]
	p.Active = active
	d.byID[id] = p
}

func (d *memoryDirectory) GetByUsername(_ context.Context, username string) (Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byUsername[username]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return d.byID[id], nil
}

func (d *memoryDirectory) GetByID(_ context.Context, id int64) (Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byID[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return p, nil
}

func testGateConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("gate-test-secret-0123456789abcdef")
	cfg.JWT.AccessTTL = time.Minute
	cfg.JWT.RefreshTTL = time.Hour
	cfg.Audit.Enabled = false
	return cfg
}

func newGateTest(t *testing.T) (*Gate, *miniredis.Miniredis, *memoryDirectory, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hasher, err := password.NewBcrypt(password.Config{Cost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	aliceHash, err := hasher.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	dir := newMemoryDirectory()
	dir.Put(Principal{ID: 42, Username: "alice", PasswordHash: aliceHash, Active: true})
	dir.Put(Principal{ID: 7, Username: "carol", PasswordHash: aliceHash, Active: false})
	dir.Put(Principal{ID: 9, Username: "root", PasswordHash: aliceHash, Active: true, Admin: true})

	gate, err := New().
		WithConfig(testGateConfig()).
		WithRedis(rdb).
		WithDirectory(dir).
		WithPasswordVerifier(hasher).
		Build()
	if err != nil {
		t.Fatalf("gate build: %v", err)
	}

	return gate, mr, dir, func() {
		gate.Close()
		rdb.Close()
		mr.Close()
	}
}

func TestLoginIssuesValidPair(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if pair.TokenType != "bearer" {
		t.Fatalf("token type: %q", pair.TokenType)
	}
	if pair.ExpiresIn != 60 {
		t.Fatalf("expires_in: expected 60, got %d", pair.ExpiresIn)
	}

	id, err := gate.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected principal 42, got %d", id)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	_, unknownErr := gate.Login(ctx, "nobody", "whatever")
	_, wrongErr := gate.Login(ctx, "alice", "wrong-horse")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
}

func TestLoginInactivePrincipal(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()

	if _, err := gate.Login(context.Background(), "carol", "correct-horse"); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestLoginRevokesPriorSession(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	first, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if _, err := gate.Authenticate(ctx, first.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("first session: expected ErrTokenRevoked, got %v", err)
	}
	if _, err := gate.Authenticate(ctx, second.AccessToken); err != nil {
		t.Fatalf("second session should stay valid: %v", err)
	}
}

func TestAuthenticateRejectsGarbageAndForgery(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	if _, err := gate.Authenticate(ctx, "not-a-token"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("garbage: expected ErrTokenMalformed, got %v", err)
	}

	forger, err := token.NewCodec(token.Config{
		Secret:     []byte("attacker-controlled-secret-32byte"),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("forger codec: %v", err)
	}
	forged, err := forger.IssueAccess(42)
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	if _, err := gate.Authenticate(ctx, forged); !errors.Is(err, ErrTokenInvalidSignature) {
		t.Fatalf("forgery: expected ErrTokenInvalidSignature, got %v", err)
	}
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()

	// Expiry is checked before the store lookup, so the token never
	// needs to be tracked.
	expired, err := gate.codec.Issue("42", token.KindAccess, -time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := gate.Authenticate(context.Background(), expired); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := gate.Authenticate(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Fatalf("expected ErrTokenTypeMismatch, got %v", err)
	}
}

func TestAuthenticateUntrackedTokenIsRevoked(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()

	// A well-signed token that was never stored, or whose store entry
	// expired, reads as revoked.
	untracked, err := gate.codec.IssueAccess(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := gate.Authenticate(context.Background(), untracked); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestAuthenticateFailsClosedWhenStoreDown(t *testing.T) {
	gate, mr, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	mr.Close()

	if _, err := gate.Authenticate(ctx, pair.AccessToken); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestRefreshIssuesNewAccessKeepsRefresh(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := gate.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken != pair.RefreshToken {
		t.Fatal("refresh token must not rotate")
	}
	if refreshed.AccessToken == pair.AccessToken {
		t.Fatal("expected a new access token")
	}

	again, err := gate.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if again.AccessToken == refreshed.AccessToken {
		t.Fatal("two refreshes must yield distinct access tokens")
	}

	// All issued access tokens stay valid until expiry or bulk revoke.
	for _, tok := range []string{pair.AccessToken, refreshed.AccessToken, again.AccessToken} {
		if _, err := gate.Authenticate(ctx, tok); err != nil {
			t.Fatalf("authenticate after refresh: %v", err)
		}
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := gate.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Fatalf("expected ErrTokenTypeMismatch, got %v", err)
	}
}

func TestRefreshRejectsUntrackedToken(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()

	untracked, err := gate.codec.IssueRefresh(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := gate.Refresh(context.Background(), untracked); !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Fatalf("expected ErrRefreshTokenInvalid, got %v", err)
	}
}

func TestRefreshFailsClosedWhenStoreDown(t *testing.T) {
	gate, mr, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	mr.Close()

	if _, err := gate.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestLogoutRevokesAndIsIdempotent(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := gate.Logout(ctx, 42); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := gate.Authenticate(ctx, pair.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after logout, got %v", err)
	}

	if err := gate.Logout(ctx, 42); err != nil {
		t.Fatalf("second logout must succeed: %v", err)
	}
	if err := gate.Logout(ctx, 99999); err != nil {
		t.Fatalf("logout of unknown principal must succeed: %v", err)
	}
}

func TestLogoutByAccessToken(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := gate.LogoutByAccessToken(ctx, pair.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// The token is already revoked but its signature still verifies, so
	// a repeat logout succeeds.
	if err := gate.LogoutByAccessToken(ctx, pair.AccessToken); err != nil {
		t.Fatalf("repeat logout: %v", err)
	}

	if err := gate.LogoutByAccessToken(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Fatalf("refresh token: expected ErrTokenTypeMismatch, got %v", err)
	}
	if err := gate.LogoutByAccessToken(ctx, "garbage"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("garbage: expected ErrTokenMalformed, got %v", err)
	}
}

func TestCurrentPrincipal(t *testing.T) {
	gate, _, dir, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	p, err := gate.CurrentPrincipal(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("current principal: %v", err)
	}
	if p.ID != 42 || p.Username != "alice" {
		t.Fatalf("unexpected principal: %+v", p)
	}

	// Deactivation after login invalidates the session on the next
	// directory-backed check.
	dir.SetActive(42, false)
	if _, err := gate.CurrentPrincipal(ctx, pair.AccessToken); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestLoginPrincipal(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.LoginPrincipal(ctx, 42)
	if err != nil {
		t.Fatalf("login principal: %v", err)
	}
	if _, err := gate.Authenticate(ctx, pair.AccessToken); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if _, err := gate.LoginPrincipal(ctx, 99999); !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("unknown id: expected ErrPrincipalNotFound, got %v", err)
	}
	if _, err := gate.LoginPrincipal(ctx, 7); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("inactive: expected ErrAccountInactive, got %v", err)
	}
}

func TestGateNotReady(t *testing.T) {
	var nilGate *Gate
	if _, err := nilGate.Authenticate(context.Background(), "tok"); !errors.Is(err, ErrGateNotReady) {
		t.Fatalf("nil gate: expected ErrGateNotReady, got %v", err)
	}

	var zero Gate
	if _, err := zero.Login(context.Background(), "alice", "pw"); !errors.Is(err, ErrGateNotReady) {
		t.Fatalf("zero gate: expected ErrGateNotReady, got %v", err)
	}
}

func TestPing(t *testing.T) {
	gate, mr, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	if _, err := gate.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	mr.Close()

	if _, err := gate.Ping(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSessionLifecycleEndToEnd(t *testing.T) {
	gate, _, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	// Login on device A.
	deviceA, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("device A login: %v", err)
	}
	if _, err := gate.Authenticate(ctx, deviceA.AccessToken); err != nil {
		t.Fatalf("device A authenticate: %v", err)
	}

	// Keep the session fresh.
	refreshed, err := gate.Refresh(ctx, deviceA.RefreshToken)
	if err != nil {
		t.Fatalf("device A refresh: %v", err)
	}

	// Login on device B revokes everything device A holds.
	deviceB, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("device B login: %v", err)
	}
	for _, tok := range []string{deviceA.AccessToken, refreshed.AccessToken} {
		if _, err := gate.Authenticate(ctx, tok); !errors.Is(err, ErrTokenRevoked) {
			t.Fatalf("device A token should be revoked, got %v", err)
		}
	}

	// Device B works, refreshes, and then logs out; logout revokes both
	// the original and the refreshed access token.
	if _, err := gate.Authenticate(ctx, deviceB.AccessToken); err != nil {
		t.Fatalf("device B authenticate: %v", err)
	}
	refreshedB, err := gate.Refresh(ctx, deviceB.RefreshToken)
	if err != nil {
		t.Fatalf("device B refresh: %v", err)
	}
	if _, err := gate.Authenticate(ctx, refreshedB.AccessToken); err != nil {
		t.Fatalf("device B refreshed authenticate: %v", err)
	}

	if err := gate.LogoutByAccessToken(ctx, deviceB.AccessToken); err != nil {
		t.Fatalf("device B logout: %v", err)
	}
	for _, tok := range []string{deviceB.AccessToken, refreshedB.AccessToken} {
		if _, err := gate.Authenticate(ctx, tok); !errors.Is(err, ErrTokenRevoked) {
			t.Fatalf("device B token should be revoked, got %v", err)
		}
	}
}
