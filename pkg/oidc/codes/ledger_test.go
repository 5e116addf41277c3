package codes

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	ledger := NewLedger()

	code := ledger.Generate("dev-client", "http://localhost:3000/callback", "openid profile", "xyz", "n-0", "user-1")

	if code.Code == "" {
		t.Fatal("expected non-empty code value")
	}
	if strings.Contains(code.Code, "-") {
		t.Errorf("code value should not contain hyphens, got %q", code.Code)
	}
	if len(code.Code) != 32 {
		t.Errorf("expected 32-character code, got %d characters", len(code.Code))
	}
	if code.ClientID != "dev-client" {
		t.Errorf("expected client ID dev-client, got %q", code.ClientID)
	}
	if code.Scope != "openid profile" {
		t.Errorf("expected scope to round-trip, got %q", code.Scope)
	}
	if code.Used {
		t.Error("freshly generated code should not be marked used")
	}

	ttl := code.ExpiresAt.Sub(code.CreatedAt)
	if ttl != Lifetime {
		t.Errorf("expected lifetime %v, got %v", Lifetime, ttl)
	}
}

func TestGenerateUnique(t *testing.T) {
	ledger := NewLedger()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := ledger.Generate("c", "http://localhost/cb", "openid", "", "", "s")
		if seen[code.Code] {
			t.Fatalf("duplicate code generated: %s", code.Code)
		}
		seen[code.Code] = true
	}
}

func TestValidateAndConsume(t *testing.T) {
	ledger := NewLedger()
	issued := ledger.Generate("dev-client", "http://localhost:3000/callback", "openid", "state", "nonce", "user-1")

	consumed, err := ledger.ValidateAndConsume(issued.Code, "dev-client", "http://localhost:3000/callback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumed.Subject != "user-1" {
		t.Errorf("expected subject user-1, got %q", consumed.Subject)
	}
	if consumed.Nonce != "nonce" {
		t.Errorf("expected nonce to round-trip, got %q", consumed.Nonce)
	}
	if !consumed.Used {
		t.Error("consumed code should be marked used")
	}
}

func TestValidateAndConsumeSingleUse(t *testing.T) {
	ledger := NewLedger()
	issued := ledger.Generate("dev-client", "http://localhost:3000/callback", "openid", "", "", "user-1")

	if _, err := ledger.ValidateAndConsume(issued.Code, "dev-client", "http://localhost:3000/callback"); err != nil {
		t.Fatalf("first exchange failed: %v", err)
	}

	_, err := ledger.ValidateAndConsume(issued.Code, "dev-client", "http://localhost:3000/callback")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("second exchange should fail with ErrCodeNotFound, got %v", err)
	}
}

func TestValidateAndConsumeErrors(t *testing.T) {
	tests := []struct {
		name        string
		clientID    string
		redirectURI string
		want        error
	}{
		{
			name:        "client mismatch",
			clientID:    "other-client",
			redirectURI: "http://localhost:3000/callback",
			want:        ErrClientMismatch,
		},
		{
			name:        "redirect mismatch",
			clientID:    "dev-client",
			redirectURI: "http://evil.example/callback",
			want:        ErrRedirectMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewLedger()
			issued := ledger.Generate("dev-client", "http://localhost:3000/callback", "openid", "", "", "user-1")

			_, err := ledger.ValidateAndConsume(issued.Code, tt.clientID, tt.redirectURI)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}

			// A failed match must not consume the code.
			if _, err := ledger.ValidateAndConsume(issued.Code, "dev-client", "http://localhost:3000/callback"); err != nil {
				t.Errorf("code should still be exchangeable after mismatch, got %v", err)
			}
		})
	}
}

func TestValidateAndConsumeUnknown(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.ValidateAndConsume("nosuchcode", "dev-client", "http://localhost:3000/callback")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("expected ErrCodeNotFound, got %v", err)
	}
}

func TestValidateAndConsumeExpired(t *testing.T) {
	ledger := NewLedger()
	issued := ledger.Generate("dev-client", "http://localhost:3000/callback", "openid", "", "", "user-1")

	ledger.mu.Lock()
	ledger.codes[issued.Code].ExpiresAt = time.Now().Add(-time.Second)
	ledger.mu.Unlock()

	_, err := ledger.ValidateAndConsume(issued.Code, "dev-client", "http://localhost:3000/callback")
	if !errors.Is(err, ErrCodeExpiredOrUsed) {
		t.Errorf("expected ErrCodeExpiredOrUsed, got %v", err)
	}
}

func TestCleanupExpired(t *testing.T) {
	ledger := NewLedger()

	fresh := ledger.Generate("c", "http://localhost/cb", "openid", "", "", "s")
	stale := ledger.Generate("c", "http://localhost/cb", "openid", "", "", "s")

	ledger.mu.Lock()
	ledger.codes[stale.Code].ExpiresAt = time.Now().Add(-time.Minute)
	ledger.mu.Unlock()

	if got := ledger.CleanupExpired(); got != 1 {
		t.Errorf("expected 1 cleaned, got %d", got)
	}

	if _, err := ledger.ValidateAndConsume(fresh.Code, "c", "http://localhost/cb"); err != nil {
		t.Errorf("fresh code should survive cleanup, got %v", err)
	}
	if _, err := ledger.ValidateAndConsume(stale.Code, "c", "http://localhost/cb"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("stale code should be gone after cleanup, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	ledger := NewLedger()

	ledger.Generate("c", "http://localhost/cb", "openid", "", "", "s")
	stale := ledger.Generate("c", "http://localhost/cb", "openid", "", "", "s")
	consumed := ledger.Generate("c", "http://localhost/cb", "openid", "", "", "s")

	ledger.mu.Lock()
	ledger.codes[stale.Code].ExpiresAt = time.Now().Add(-time.Minute)
	ledger.mu.Unlock()

	if _, err := ledger.ValidateAndConsume(consumed.Code, "c", "http://localhost/cb"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := ledger.GetStats()
	if stats.Active != 1 {
		t.Errorf("expected 1 active, got %d", stats.Active)
	}
	if stats.Expired != 1 {
		t.Errorf("expected 1 expired, got %d", stats.Expired)
	}
	if stats.TotalIssued != 3 {
		t.Errorf("expected 3 total issued, got %d", stats.TotalIssued)
	}
}

func TestConcurrentConsume(t *testing.T) {
	ledger := NewLedger()
	issued := ledger.Generate("c", "http://localhost/cb", "openid", "", "", "s")

	const workers = 16
	var wg sync.WaitGroup
	var successes atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.ValidateAndConsume(issued.Code, "c", "http://localhost/cb"); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := successes.Load(); got != 1 {
		t.Errorf("expected exactly one successful exchange, got %d", got)
	}
}
