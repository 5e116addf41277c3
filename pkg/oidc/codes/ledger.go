package codes

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Lifetime is how long an issued authorization code stays exchangeable.
const Lifetime = 600 * time.Second

// Code is a single-use authorization code and the request context it was
// issued for. A code moves from issued to consumed or expired exactly once;
// there is no path back to validity.
type Code struct {
	Code        string
	ClientID    string
	RedirectURI string
	Scope       string
	State       string
	Nonce       string
	Subject     string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Used        bool
}

// Expired reports whether the code is past its lifetime.
func (c *Code) Expired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Valid reports whether the code can still be exchanged.
func (c *Code) Valid() bool {
	return !c.Used && !c.Expired()
}

// Stats summarizes the ledger's contents.
type Stats struct {
	// Active is the number of stored codes still exchangeable.
	Active int `json:"active"`

	// Expired is the number of stored codes past their lifetime that the
	// periodic sweep has not yet removed.
	Expired int `json:"expired"`

	// TotalIssued counts every code ever generated; it never decreases.
	TotalIssued int64 `json:"totalIssued"`
}

// Ledger issues, validates, and single-use-consumes authorization codes.
// All methods are safe for concurrent use; consumption is atomic, so a code
// can be exchanged at most once no matter how many callers race on it.
type Ledger struct {
	mu          sync.Mutex
	codes       map[string]*Code
	totalIssued atomic.Int64
	logger      *slog.Logger
}

// NewLedger creates an empty authorization code ledger.
func NewLedger() *Ledger {
	return &Ledger{
		codes:  make(map[string]*Code),
		logger: slog.Default().With("component", "oidc.codes"),
	}
}

// Generate issues a fresh authorization code bound to the given client,
// redirect target, and subject. The code value is opaque and hyphen-free.
func (l *Ledger) Generate(clientID, redirectURI, scope, state, nonce, subject string) *Code {
	now := time.Now()
	code := &Code{
		Code:        strings.ReplaceAll(uuid.New().String(), "-", ""),
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Scope:       scope,
		State:       state,
		Nonce:       nonce,
		Subject:     subject,
		CreatedAt:   now,
		ExpiresAt:   now.Add(Lifetime),
	}

	l.mu.Lock()
	l.codes[code.Code] = code
	l.mu.Unlock()
	l.totalIssued.Add(1)

	l.logger.Debug("generated authorization code", "client_id", clientID, "scope", scope)
	return code
}

// ValidateAndConsume exchanges a code: it checks existence, validity, and
// that the presented client and redirect match the stored ones, then marks
// the code used and removes it in one step. A second call with the same
// code fails with ErrCodeNotFound.
func (l *Ledger) ValidateAndConsume(code, clientID, redirectURI string) (*Code, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.codes[code]
	if !ok {
		l.logger.Warn("authorization code not found", "code", code)
		return nil, ErrCodeNotFound
	}

	if !entry.Valid() {
		l.logger.Warn("authorization code expired or already used", "code", code)
		return nil, ErrCodeExpiredOrUsed
	}

	if entry.ClientID != clientID {
		l.logger.Warn("client ID mismatch for authorization code",
			"code", code,
			"expected", entry.ClientID,
			"actual", clientID,
		)
		return nil, ErrClientMismatch
	}

	if entry.RedirectURI != redirectURI {
		l.logger.Warn("redirect URI mismatch for authorization code",
			"code", code,
			"expected", entry.RedirectURI,
			"actual", redirectURI,
		)
		return nil, ErrRedirectMismatch
	}

	entry.Used = true
	delete(l.codes, code)

	l.logger.Info("authorization code consumed", "client_id", clientID)

	consumed := *entry
	return &consumed, nil
}

// CleanupExpired removes every stored code past its lifetime and returns
// how many were removed. Consumed codes are already gone, so this mainly
// collects abandoned ones. Removal is idempotent with respect to
// concurrent consumption.
func (l *Ledger) CleanupExpired() int {
	now := time.Now()
	cleaned := 0

	l.mu.Lock()
	for value, entry := range l.codes {
		if now.After(entry.ExpiresAt) {
			delete(l.codes, value)
			cleaned++
		}
	}
	l.mu.Unlock()

	if cleaned > 0 {
		l.logger.Info("cleaned up expired authorization codes", "count", cleaned)
	}
	return cleaned
}

// GetStats returns a snapshot of the ledger's contents.
func (l *Ledger) GetStats() Stats {
	now := time.Now()

	l.mu.Lock()
	active, expired := 0, 0
	for _, entry := range l.codes {
		if now.After(entry.ExpiresAt) {
			expired++
		} else {
			active++
		}
	}
	l.mu.Unlock()

	return Stats{
		Active:      active,
		Expired:     expired,
		TotalIssued: l.totalIssued.Load(),
	}
}
