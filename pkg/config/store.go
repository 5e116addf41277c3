package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Store provides point-in-time snapshots of the configuration document.
// Reads return the most recently loaded document; the backing file is
// re-read when its modification time advances or when an fsnotify event
// reports a change. Snapshots are replaced wholesale on reload, so a caller
// holding a *Config sees a consistent document and must not mutate it.
type Store struct {
	path string

	mu       sync.RWMutex
	cfg      *Config
	lastMod  time.Time
	logger   *slog.Logger
	watching bool
}

// NewStore loads the configuration document at path and returns a store
// serving snapshots of it.
func NewStore(path string) (*Store, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:   path,
		cfg:    cfg,
		logger: slog.Default().With("component", "config.store"),
	}

	if info, err := os.Stat(path); err == nil {
		s.lastMod = info.ModTime()
	}

	return s, nil
}

// NewStaticStore returns a store serving a fixed in-memory document. It is
// intended for tests and for callers that assemble configuration
// programmatically.
func NewStaticStore(cfg *Config) *Store {
	ApplyDefaults(cfg)
	return &Store{
		cfg:    cfg,
		logger: slog.Default().With("component", "config.store"),
	}
}

// Snapshot returns the current configuration document, reloading from disk
// first if the backing file changed since the last read.
func (s *Store) Snapshot() *Config {
	s.maybeReload()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// maybeReload re-reads the backing file when its mtime has advanced.
// Reload failures keep the previous snapshot.
func (s *Store) maybeReload() {
	if s.path == "" {
		return
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return
	}

	s.mu.RLock()
	stale := info.ModTime().After(s.lastMod)
	s.mu.RUnlock()

	if !stale {
		return
	}

	s.reload()
}

// reload unconditionally re-reads the backing file.
func (s *Store) reload() {
	cfg, err := LoadConfigWithEnvOverrides(s.path)
	if err != nil {
		s.logger.Error("configuration reload failed, keeping previous snapshot",
			"path", s.path,
			"error", err,
		)
		return
	}

	s.mu.Lock()
	s.cfg = cfg
	if info, err := os.Stat(s.path); err == nil {
		s.lastMod = info.ModTime()
	}
	s.mu.Unlock()

	s.logger.Info("configuration reloaded", "path", s.path)
}

// Watch starts an fsnotify watcher on the backing file and reloads the
// snapshot on write events until the context is cancelled. It returns
// immediately; watching happens on a background goroutine.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return fmt.Errorf("store has no backing file to watch")
	}

	s.mu.Lock()
	if s.watching {
		s.mu.Unlock()
		return fmt.Errorf("store is already watching %s", s.path)
	}
	s.watching = true
	s.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					s.logger.Debug("config file changed", "event", event.Op.String())
					s.reload()
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("config watcher error", "error", err)
			}
		}
	}()

	s.logger.Info("watching configuration file", "path", s.path)
	return nil
}

// Save writes the document to the backing file and replaces the current
// snapshot. The document is validated before writing.
func (s *Store) Save(cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if s.path != "" {
		if err := os.WriteFile(s.path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write configuration file %q: %w", s.path, err)
		}
	}

	s.mu.Lock()
	s.cfg = cfg
	if info, err := os.Stat(s.path); err == nil {
		s.lastMod = info.ModTime()
	}
	s.mu.Unlock()

	return nil
}

// ActivePreset returns the preset proxied requests should use: the preset
// named by active_preset, or the first declared preset when the name is
// unset or dangling, or nil when no presets exist.
func (s *Store) ActivePreset() *Preset {
	cfg := s.Snapshot()

	if cfg.ActivePreset != "" {
		for i := range cfg.Presets {
			if cfg.Presets[i].Name == cfg.ActivePreset {
				return &cfg.Presets[i]
			}
		}
	}

	if len(cfg.Presets) > 0 {
		return &cfg.Presets[0]
	}

	return nil
}

// SetActivePreset persists a new active preset name. It fails if no preset
// with that name exists.
func (s *Store) SetActivePreset(name string) error {
	cfg := s.Snapshot()

	found := false
	for i := range cfg.Presets {
		if cfg.Presets[i].Name == name {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("preset %q: %w", name, ErrPresetNotFound)
	}

	updated := *cfg
	updated.ActivePreset = name
	return s.Save(&updated)
}

// PresetByName returns the named preset, or nil if absent.
func (s *Store) PresetByName(name string) *Preset {
	cfg := s.Snapshot()
	for i := range cfg.Presets {
		if cfg.Presets[i].Name == name {
			return &cfg.Presets[i]
		}
	}
	return nil
}

// PresetByClientID returns the first OIDC-enabled preset whose persona
// client_id matches, or nil if none does.
func (s *Store) PresetByClientID(clientID string) *Preset {
	cfg := s.Snapshot()
	for i := range cfg.Presets {
		p := &cfg.Presets[i]
		if p.OIDCEnabled() && p.OIDC.ClientID == clientID {
			return p
		}
	}
	return nil
}

// OIDCEnabledPresets returns every preset with an enabled persona.
func (s *Store) OIDCEnabledPresets() []*Preset {
	cfg := s.Snapshot()
	var presets []*Preset
	for i := range cfg.Presets {
		if cfg.Presets[i].OIDCEnabled() {
			presets = append(presets, &cfg.Presets[i])
		}
	}
	return presets
}
