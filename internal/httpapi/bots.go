// Package httpapi exposes the admin REST surface for managing bots at
// runtime.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iyadk/idbot/internal/bot"
	"github.com/iyadk/idbot/internal/registry"
)

// BotsHandler handles the bot management endpoints. Persistence hooks are
// best-effort: a failed save or purge never blocks the registry change.
type BotsHandler struct {
	// baseCtx parents new engines; the request context dies with the
	// request, long before the bot should.
	baseCtx context.Context
	reg     *registry.Registry
	save    func(bot.Config) error
	purge   func(name string) error
}

// NewBotsHandler creates the handler. save and purge may be nil when no
// store is configured.
func NewBotsHandler(ctx context.Context, reg *registry.Registry, save func(bot.Config) error, purge func(name string) error) *BotsHandler {
	return &BotsHandler{baseCtx: ctx, reg: reg, save: save, purge: purge}
}

// RegisterRoutes registers the bot management routes on the given mux.
func (h *BotsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/bots", h.handleList)
	mux.HandleFunc("POST /api/bots", h.handleCreate)
	mux.HandleFunc("GET /api/bots/{name}", h.handleGet)
	mux.HandleFunc("DELETE /api/bots/{name}", h.handleDelete)
}

func (h *BotsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"bots": h.reg.StatusAll()})
}

func (h *BotsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var cfg bot.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	err := h.reg.Register(h.baseCtx, cfg)
	switch {
	case errors.Is(err, registry.ErrAlreadyRunning):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already running"})
		return
	case err != nil:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if h.save != nil {
		if err := h.save(cfg); err != nil {
			slog.Error("persist registered bot", "bot", cfg.Name, "error", err)
		}
	}

	snap, _ := h.reg.Status(cfg.Name)
	writeJSON(w, http.StatusCreated, snap)
}

func (h *BotsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.reg.Status(r.PathValue("name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *BotsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !h.reg.Unregister(name) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if h.purge != nil {
		if err := h.purge(name); err != nil {
			slog.Error("purge stored bot", "bot", name, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
