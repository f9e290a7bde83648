package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/angkringan-pos/api/internal/database"
	"github.com/angkringan-pos/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// ConfigStore defines the database methods needed by config handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ConfigStore interface {
	GetAppConfig(ctx context.Context, key string) (database.AppConfig, error)
	UpsertAppConfig(ctx context.Context, arg database.UpsertAppConfigParams) (database.AppConfig, error)
}

// ConfigHandler handles the key -> JSON app config endpoints.
type ConfigHandler struct {
	store ConfigStore
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(store ConfigStore) *ConfigHandler {
	return &ConfigHandler{store: store}
}

// RegisterRoutes registers config endpoints on the given Chi router.
// Expected to be mounted at /config
func (h *ConfigHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{key}", h.Get)
	r.Put("/{key}", h.Put)
}

func isKnownConfigKey(key string) bool {
	return key == enum.ConfigKeyQRIS
}

// Get handles GET /config/{key}, returning the stored JSON value as-is.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !isKnownConfigKey(key) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown config key"})
		return
	}

	cfg, err := h.store.GetAppConfig(r.Context(), key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "config not set"})
			return
		}
		log.Printf("ERROR: get config %s: %v", key, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(cfg.ConfigValue) //nolint:errcheck
}

// Put handles PUT /config/{key}, upserting an arbitrary JSON value.
func (h *ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !isKnownConfigKey(key) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown config key"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be valid JSON"})
		return
	}

	if _, err := h.store.UpsertAppConfig(r.Context(), database.UpsertAppConfigParams{
		ConfigKey:   key,
		ConfigValue: body,
	}); err != nil {
		log.Printf("ERROR: upsert config %s: %v", key, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
