package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/oidc/codes"
	"github.com/FreeSideNomad/proxima/pkg/oidc/tokens"
)

// ConfigAdmin serves the runtime configuration API under
// /proxima/api/config: inspecting the loaded document, switching the
// active preset, and reading identity-provider statistics.
type ConfigAdmin struct {
	store  *config.Store
	ledger *codes.Ledger
	cache  *tokens.Cache
	logger *slog.Logger
}

// NewConfigAdmin creates the config admin handler.
func NewConfigAdmin(store *config.Store, ledger *codes.Ledger, cache *tokens.Cache) *ConfigAdmin {
	return &ConfigAdmin{
		store:  store,
		ledger: ledger,
		cache:  cache,
		logger: slog.Default().With("component", "oidc.configadmin"),
	}
}

const configAdminPrefix = "/proxima/api/config"

// Register mounts the config API on mux.
func (h *ConfigAdmin) Register(mux *http.ServeMux) {
	mux.HandleFunc(configAdminPrefix, h.route)
	mux.HandleFunc(configAdminPrefix+"/", h.route)
}

func (h *ConfigAdmin) route(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, configAdminPrefix), "/")

	switch rest {
	case "":
		h.document(w, r)
	case "active-preset":
		h.activePreset(w, r)
	case "presets":
		h.presets(w, r)
	case "routes":
		h.routes(w, r)
	case "stats":
		h.stats(w, r)
	case "tokens":
		h.clearTokens(w, r)
	default:
		if name, ok := strings.CutPrefix(rest, "tokens/"); ok && name != "" {
			h.clearPresetTokens(w, r, name)
			return
		}
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *ConfigAdmin) document(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// activePresetRequest is the body of PUT /proxima/api/config/active-preset.
type activePresetRequest struct {
	Name string `json:"name"`
}

func (h *ConfigAdmin) activePreset(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		preset := h.store.ActivePreset()
		if preset == nil {
			writeJSON(w, http.StatusOK, map[string]any{"activePreset": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"activePreset": preset.Name,
			"preset":       preset,
		})

	case http.MethodPut:
		var req activePresetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := h.store.SetActivePreset(req.Name); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, config.ErrPresetNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err.Error())
			return
		}
		h.logger.Info("active preset switched", "preset", req.Name)
		writeJSON(w, http.StatusOK, map[string]string{
			"status":       "success",
			"activePreset": req.Name,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ConfigAdmin) presets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot().Presets)
}

func (h *ConfigAdmin) routes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot().Routes)
}

func (h *ConfigAdmin) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authorizationCodes": h.ledger.GetStats(),
		"tokenCache":         h.cache.GetStats(),
	})
}

func (h *ConfigAdmin) clearTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.cache.ClearAll()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "token cache cleared",
	})
}

func (h *ConfigAdmin) clearPresetTokens(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store.PresetByName(name) == nil {
		writeError(w, http.StatusNotFound, "preset not found")
		return
	}
	h.cache.Clear(name)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "token cache cleared for preset " + name,
	})
}
