// Package registry supervises the set of running bot identities. Each
// identity gets its own session engine and dispatcher; nothing is shared
// between bots except the dial function and the collaborator clients.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/iyadk/idbot/internal/bot"
	"github.com/iyadk/idbot/internal/dispatch"
	"github.com/iyadk/idbot/internal/session"
)

// ErrAlreadyRunning is returned when registering a name that is already
// supervised.
var ErrAlreadyRunning = errors.New("registry: bot already running")

// runner is the lifecycle surface of a session engine.
type runner interface {
	Start(ctx context.Context)
	Stop()
}

type entry struct {
	ident  *bot.Identity
	engine runner
}

// Registry owns every running identity, keyed by lowercased name.
type Registry struct {
	dial   session.Dialer
	collab dispatch.Collaborators
	opts   session.Options

	// newEngine is swappable for tests.
	newEngine func(*bot.Identity) runner

	mu   sync.RWMutex
	bots map[string]*entry
}

// New builds an empty registry. Every registered bot dials with dial and
// shares the collaborator set.
func New(dial session.Dialer, collab dispatch.Collaborators, opts session.Options) *Registry {
	r := &Registry{
		dial:   dial,
		collab: collab,
		opts:   opts,
		bots:   make(map[string]*entry),
	}
	r.newEngine = func(ident *bot.Identity) runner {
		return session.NewEngine(ident, r.dial, dispatch.New(ident, r.collab), r.opts)
	}
	return r
}

// Register starts a new bot from cfg. Names are case-insensitive; a second
// registration of a running name fails with ErrAlreadyRunning.
func (r *Registry) Register(ctx context.Context, cfg bot.Config) error {
	if cfg.Name == "" || cfg.Secret == "" || cfg.Room == "" {
		return fmt.Errorf("registry: name, secret and room are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := cfg.Key()
	if _, ok := r.bots[key]; ok {
		return ErrAlreadyRunning
	}

	ident := bot.New(cfg)
	e := &entry{ident: ident, engine: r.newEngine(ident)}
	r.bots[key] = e
	e.engine.Start(ctx)

	slog.Info("bot registered", "bot", cfg.Name, "room", cfg.Room)
	return nil
}

// Unregister stops and removes the named bot. Returns false when the name
// is not registered.
func (r *Registry) Unregister(name string) bool {
	key := strings.ToLower(name)

	r.mu.Lock()
	e, ok := r.bots[key]
	delete(r.bots, key)
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.engine.Stop()
	slog.Info("bot unregistered", "bot", e.ident.Name)
	return true
}

// Status returns a snapshot for one bot.
func (r *Registry) Status(name string) (bot.Snapshot, bool) {
	r.mu.RLock()
	e, ok := r.bots[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return bot.Snapshot{}, false
	}
	return e.ident.Snapshot(), true
}

// StatusAll returns snapshots of every bot, ordered by name.
func (r *Registry) StatusAll() []bot.Snapshot {
	r.mu.RLock()
	snaps := make([]bot.Snapshot, 0, len(r.bots))
	for _, e := range r.bots {
		snaps = append(snaps, e.ident.Snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Name < snaps[j].Name })
	return snaps
}

// Sync registers any configs not yet supervised. Running bots are left
// alone, so identities added at runtime survive a config reload.
func (r *Registry) Sync(ctx context.Context, configs []bot.Config) {
	for _, cfg := range configs {
		err := r.Register(ctx, cfg)
		switch {
		case errors.Is(err, ErrAlreadyRunning):
			// already supervised
		case err != nil:
			slog.Error("sync: register failed", "bot", cfg.Name, "error", err)
		default:
			slog.Info("sync: new bot from config", "bot", cfg.Name)
		}
	}
}

// StopAll stops every bot and empties the registry.
func (r *Registry) StopAll() {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.bots))
	for _, e := range r.bots {
		entries = append(entries, e)
	}
	r.bots = make(map[string]*entry)
	r.mu.Unlock()

	slog.Info("stopping all bots", "count", len(entries))
	for _, e := range entries {
		e.engine.Stop()
	}
}
