package tokens

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/telemetry/metrics"
)

// RefreshThreshold is how close to expiry a cached token set may get
// before the background refresher re-mints it.
const RefreshThreshold = 300 * time.Second

// Signer produces signed JWTs. *keystore.Store satisfies it.
type Signer interface {
	Sign(subject string, claims map[string]any, expiry time.Duration, algorithm, keyID string) (string, error)
}

// TokenSet is the pair of tokens minted for one persona, plus the response
// metadata the token endpoint returns alongside them.
type TokenSet struct {
	IDToken      string    `json:"idToken"`
	AccessToken  string    `json:"accessToken"`
	TokenType    string    `json:"tokenType"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	Scope        string    `json:"scope"`
	ExpiresIn    int64     `json:"expiresIn"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Expired reports whether the set is past its lifetime.
func (t *TokenSet) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}

// Valid reports whether the set can still be handed out.
func (t *TokenSet) Valid() bool {
	return !t.Expired()
}

// expiringSoon reports whether the set is within the refresh threshold.
func (t *TokenSet) expiringSoon() bool {
	return time.Until(t.ExpiresAt) < RefreshThreshold
}

// Stats summarizes the cache's contents.
type Stats struct {
	CachedPresets int      `json:"cachedPresets"`
	Valid         int      `json:"valid"`
	Expired       int      `json:"expired"`
	Presets       []string `json:"presets"`
}

// Cache mints and caches token sets per preset. A preset's tokens are
// reused until they expire, so repeated authorization flows against the
// same persona see stable token values.
type Cache struct {
	signer  Signer
	store   *config.Store
	metrics *metrics.OIDCMetrics
	logger  *slog.Logger

	mu   sync.RWMutex
	sets map[string]*TokenSet
}

// NewCache creates an empty token cache backed by the given signer and
// configuration store.
func NewCache(signer Signer, store *config.Store) *Cache {
	return &Cache{
		signer: signer,
		store:  store,
		logger: slog.Default().With("component", "oidc.tokens"),
		sets:   make(map[string]*TokenSet),
	}
}

// SetMetrics attaches the identity provider metric family. Must be called
// before the cache is shared between goroutines.
func (c *Cache) SetMetrics(om *metrics.OIDCMetrics) {
	c.metrics = om
}

// issuer returns the configured issuer URL, or the default when the
// configuration leaves it blank.
func (c *Cache) issuer() string {
	if iss := c.store.Snapshot().OIDC.Issuer; iss != "" {
		return iss
	}
	return config.DefaultIssuer
}

// Mint generates a fresh token set for the named preset and replaces any
// cached one. It fails when the preset is unknown or has no enabled
// identity configuration.
func (c *Cache) Mint(name string) (*TokenSet, error) {
	preset := c.store.PresetByName(name)
	if preset == nil {
		return nil, &PresetError{Preset: name, Err: ErrPresetNotFound}
	}
	if !preset.OIDCEnabled() {
		return nil, &PresetError{Preset: name, Err: ErrOIDCDisabled}
	}

	persona := preset.OIDC
	issuer := c.issuer()
	expiry := time.Duration(persona.TokenExpirationSeconds) * time.Second

	idToken, err := c.signer.Sign(persona.Subject, idTokenClaims(persona, issuer), expiry, persona.Algorithm, persona.KeyID)
	if err != nil {
		return nil, &PresetError{Preset: name, Err: err}
	}

	accessToken, err := c.signer.Sign(persona.Subject, accessTokenClaims(persona, issuer, persona.Scopes), expiry, persona.Algorithm, persona.KeyID)
	if err != nil {
		return nil, &PresetError{Preset: name, Err: err}
	}

	now := time.Now()
	set := &TokenSet{
		IDToken:     idToken,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Scope:       strings.Join(persona.Scopes, " "),
		ExpiresIn:   persona.TokenExpirationSeconds,
		ExpiresAt:   now.Add(expiry),
		CreatedAt:   now,
	}

	c.mu.Lock()
	c.sets[name] = set
	c.mu.Unlock()

	c.metrics.RecordTokensMinted(name)
	c.logger.Info("minted token set",
		"preset", name,
		"subject", persona.Subject,
		"algorithm", persona.Algorithm,
		"expires_in", persona.TokenExpirationSeconds,
	)
	return set, nil
}

// ValidTokens returns the cached token set for the named preset, minting a
// fresh one when nothing valid is cached.
func (c *Cache) ValidTokens(name string) (*TokenSet, error) {
	c.mu.RLock()
	set, ok := c.sets[name]
	c.mu.RUnlock()

	if ok && set.Valid() {
		return set, nil
	}
	return c.Mint(name)
}

// GenerateAllOnStartup mints token sets for every preset with an enabled
// identity configuration. Failures are logged and skipped so that one
// broken persona does not block the rest.
func (c *Cache) GenerateAllOnStartup() {
	presets := c.store.OIDCEnabledPresets()
	if len(presets) == 0 {
		return
	}

	c.logger.Info("generating startup token sets", "presets", len(presets))
	for _, preset := range presets {
		if _, err := c.Mint(preset.Name); err != nil {
			c.logger.Error("failed to mint startup tokens", "preset", preset.Name, "error", err)
		}
	}
}

// RefreshExpiringSoon re-mints every cached token set within the refresh
// threshold of its expiry and returns how many were refreshed. Sets whose
// preset no longer exists or no longer has an identity are dropped.
func (c *Cache) RefreshExpiringSoon() int {
	c.mu.RLock()
	var stale []string
	for name, set := range c.sets {
		if set.expiringSoon() {
			stale = append(stale, name)
		}
	}
	c.mu.RUnlock()

	refreshed := 0
	for _, name := range stale {
		if _, err := c.Mint(name); err != nil {
			c.logger.Warn("dropping unrefreshable token set", "preset", name, "error", err)
			c.mu.Lock()
			delete(c.sets, name)
			c.mu.Unlock()
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		c.logger.Info("refreshed expiring token sets", "count", refreshed)
	}
	return refreshed
}

// Clear drops the cached token set for the named preset, if any. The next
// request for the preset mints fresh tokens.
func (c *Cache) Clear(name string) {
	c.mu.Lock()
	delete(c.sets, name)
	c.mu.Unlock()
	c.logger.Info("cleared cached token set", "preset", name)
}

// ClearAll drops every cached token set.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.sets = make(map[string]*TokenSet)
	c.mu.Unlock()
	c.logger.Info("cleared token cache")
}

// GetStats returns a snapshot of the cache's contents.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		CachedPresets: len(c.sets),
		Presets:       make([]string, 0, len(c.sets)),
	}
	for name, set := range c.sets {
		stats.Presets = append(stats.Presets, name)
		if set.Valid() {
			stats.Valid++
		} else {
			stats.Expired++
		}
	}
	return stats
}
