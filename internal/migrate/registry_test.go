package migrate

import (
	"errors"
	"testing"

	"github.com/yndnr/strata-go/internal/core/domain"
)

func TestModelOf(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"user:42", "user"},
		{"user:42:profile", "user"},
		{"plain", DefaultModel},
		{":odd", DefaultModel},
	}
	for _, tt := range tests {
		if got := ModelOf(tt.key); got != tt.want {
			t.Fatalf("ModelOf(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestRegistry_ChainApplication(t *testing.T) {
	r := NewRegistry()

	mustRegister(t, r, "user", 1, 2, func(v any) (any, error) {
		m := v.(map[string]any)
		m["v2"] = true
		return m, nil
	})
	mustRegister(t, r, "user", 2, 3, func(v any) (any, error) {
		m := v.(map[string]any)
		m["v3"] = true
		return m, nil
	})

	if latest := r.LatestVersion("user"); latest != 3 {
		t.Fatalf("LatestVersion = %d, want 3", latest)
	}

	got, version, err := r.Apply("user", map[string]any{}, 1, 3)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if version != 3 {
		t.Fatalf("version = %d, want 3", version)
	}
	m := got.(map[string]any)
	if m["v2"] != true || m["v3"] != true {
		t.Fatalf("chain skipped a step: %v", m)
	}
}

func TestRegistry_Idempotence(t *testing.T) {
	r := NewRegistry()
	calls := 0
	mustRegister(t, r, "user", 1, 2, func(v any) (any, error) {
		calls++
		return v, nil
	})

	// Already at the latest version: no transform runs.
	got, version, err := r.Apply("user", "value", 2, 2)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if version != 2 || got != "value" || calls != 0 {
		t.Fatalf("no-op apply changed state: v=%d got=%v calls=%d", version, got, calls)
	}
}

func TestRegistry_StopsAtChainGap(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, "user", 1, 2, func(v any) (any, error) { return v, nil })
	// No step from v2; target v4 is unreachable.

	_, version, err := r.Apply("user", "x", 1, 4)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if version != 2 {
		t.Fatalf("version = %d, want 2 (stop at gap)", version)
	}
}

func TestRegistry_TransformFailure(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("bad shape")
	mustRegister(t, r, "user", 1, 2, func(v any) (any, error) { return nil, boom })

	_, version, err := r.Apply("user", "x", 1, 2)
	if !errors.Is(err, domain.ErrMigrationFailed) {
		t.Fatalf("err = %v, want ErrMigrationFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Fatal("cause not preserved")
	}
	if version != 1 {
		t.Fatalf("version = %d, want 1 (failed step does not advance)", version)
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("m", 2, 2, func(v any) (any, error) { return v, nil }); err == nil {
		t.Fatal("accepted non-forward step")
	}
	if err := r.Register("m", 1, 2, nil); err == nil {
		t.Fatal("accepted nil transform")
	}
	mustRegister(t, r, "m", 1, 2, func(v any) (any, error) { return v, nil })
	if err := r.Register("m", 1, 3, func(v any) (any, error) { return v, nil }); err == nil {
		t.Fatal("accepted duplicate fromVersion")
	}
}

func TestRegistry_InProgressGuard(t *testing.T) {
	r := NewRegistry()

	if !r.Begin("user", "user:1") {
		t.Fatal("first Begin refused")
	}
	if r.Begin("user", "user:1") {
		t.Fatal("re-entrant Begin allowed")
	}
	// A different key is unaffected.
	if !r.Begin("user", "user:2") {
		t.Fatal("unrelated key blocked")
	}

	r.End("user", "user:1")
	if !r.Begin("user", "user:1") {
		t.Fatal("Begin refused after End")
	}
}

func mustRegister(t *testing.T, r *Registry, model string, from, to int, tr Transform) {
	t.Helper()
	if err := r.Register(model, from, to, tr); err != nil {
		t.Fatalf("Register(%s v%d->v%d): %v", model, from, to, err)
	}
}
