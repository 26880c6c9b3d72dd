package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iyadk/idbot/internal/bot"
	"github.com/iyadk/idbot/internal/config"
	"github.com/iyadk/idbot/internal/dispatch"
	"github.com/iyadk/idbot/internal/draw"
	"github.com/iyadk/idbot/internal/httpapi"
	"github.com/iyadk/idbot/internal/providers"
	"github.com/iyadk/idbot/internal/registry"
	"github.com/iyadk/idbot/internal/session"
	"github.com/iyadk/idbot/internal/store"
	"github.com/iyadk/idbot/internal/tools"
)

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := store.NewDB(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open identity database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	st := store.New(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := registry.New(
		session.NewDialer(cfg.Socket.URL, cfg.Socket.InsecureTLS),
		buildCollaborators(cfg, st),
		session.Options{
			KeepAlive:  cfg.Socket.KeepAlive(),
			RetryDelay: cfg.Socket.RetryDelay(),
		},
	)

	// Stored identities first, then the config file's. Sync skips names
	// already running, so stored state wins for bots present in both.
	stored, err := st.ListIdentities(ctx)
	if err != nil {
		slog.Error("failed to load stored identities", "error", err)
		os.Exit(1)
	}
	reg.Sync(ctx, stored)
	reg.Sync(ctx, cfg.Bots)

	mux := http.NewServeMux()
	httpapi.NewBotsHandler(ctx, reg,
		func(c bot.Config) error { return st.SaveIdentity(ctx, c) },
		func(name string) error { return st.DeleteIdentity(ctx, name) },
	).RegisterRoutes(mux)

	srv := &http.Server{Addr: cfg.Admin.Addr(), Handler: mux}
	go func() {
		slog.Info("admin API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("admin API server failed", "error", err)
		}
	}()

	go watchConfig(ctx, cfgPath, reg)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("admin API shutdown", "error", err)
	}
	reg.StopAll()
}

// buildCollaborators assembles the dispatcher's external clients from
// config. Unconfigured pieces stay nil and their commands degrade.
func buildCollaborators(cfg *config.Config, st *store.Store) dispatch.Collaborators {
	c := dispatch.Collaborators{
		Images:    tools.NewBingImages(),
		Horoscope: tools.NewHoroscope(),
	}

	if cfg.AI.APIKey != "" {
		c.AI = providers.NewGroq(cfg.AI.APIKey, cfg.AI.APIBase, cfg.AI.Model)
	} else {
		slog.Warn("no AI api key configured, trigger replies disabled")
	}

	uploads := tools.NewCDNUploader()
	if cfg.Uploads.URL != "" {
		uploads.URL = cfg.Uploads.URL
	}
	c.Uploads = uploads

	profiles := tools.NewProfileClient()
	if cfg.Profiles.URL != "" {
		profiles.BaseURL = cfg.Profiles.URL
	}
	c.Profiles = profiles

	cards, err := draw.NewRenderer(cfg.Draw.FontPath)
	if err != nil {
		slog.Warn("card renderer disabled", "error", err)
	} else {
		c.Cards = cards
	}

	c.Persist = func(ident *bot.Identity) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.SaveIdentity(ctx, ident.ConfigSnapshot()); err != nil {
			slog.Error("failed to persist identity", "bot", ident.Name, "error", err)
		}
	}
	return c
}

// watchConfig reloads the config file on change and registers any new bot
// entries. Socket and collaborator settings need a restart.
func watchConfig(ctx context.Context, path string, reg *registry.Registry) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("config watcher unavailable", "error", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		slog.Debug("config file not watchable", "path", path, "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := config.Load(path)
			if err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			slog.Info("config reloaded", "bots", len(cfg.Bots))
			reg.Sync(ctx, cfg.Bots)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}
