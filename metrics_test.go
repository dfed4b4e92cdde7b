package authgate

import (
	"context"
	"sync"
	"testing"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLogout)

	if got := m.Get(MetricLoginSuccess); got != 2 {
		t.Fatalf("login_success: expected 2, got %d", got)
	}
	if got := m.Get(MetricLogout); got != 1 {
		t.Fatalf("logout: expected 1, got %d", got)
	}
	if got := m.Get(MetricRefreshFailure); got != 0 {
		t.Fatalf("refresh_failure: expected 0, got %d", got)
	}

	snap := m.Snapshot()
	if snap["login_success"] != 2 || snap["logout"] != 1 {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
	if len(snap) != int(metricIDCount) {
		t.Fatalf("snapshot should carry every counter, got %d", len(snap))
	}
}

func TestMetricsDisabledIsNilSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{})
	if m != nil {
		t.Fatal("disabled metrics must be nil")
	}

	m.Inc(MetricLoginSuccess)
	if m.Get(MetricLoginSuccess) != 0 {
		t.Fatal("nil metrics reads zero")
	}
	if len(m.Snapshot()) != 0 {
		t.Fatal("nil metrics snapshot is empty")
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricAuthenticateSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Get(MetricAuthenticateSuccess); got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
}

func TestGateRecordsMetrics(t *testing.T) {
	gate, mr, _, done := newGateTest(t)
	defer done()
	ctx := context.Background()

	pair, err := gate.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := gate.Login(ctx, "alice", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	if _, err := gate.Authenticate(ctx, pair.AccessToken); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := gate.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := gate.Logout(ctx, 42); err != nil {
		t.Fatalf("logout: %v", err)
	}

	mr.Close()
	if _, err := gate.Authenticate(ctx, pair.AccessToken); err == nil {
		t.Fatal("expected store failure")
	}

	snap := gate.MetricsSnapshot()
	expect := map[string]uint64{
		"login_success":        1,
		"login_failure":        1,
		"authenticate_success": 1,
		"authenticate_failure": 1,
		"refresh_success":      1,
		"logout":               1,
		"store_unavailable":    1,
	}
	for name, want := range expect {
		if snap[name] != want {
			t.Fatalf("%s: expected %d, got %d (snapshot %v)", name, want, snap[name], snap)
		}
	}
}
