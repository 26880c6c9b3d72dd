// Package session owns the full lifecycle of one bot identity's connection:
// connect, authenticate, join, keepalive, and reconnection after transport
// failures. One engine supervises exactly one identity.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iyadk/idbot/internal/bot"
	"github.com/iyadk/idbot/internal/protocol"
)

const (
	// DefaultKeepAlive is how often a live session pings the server.
	DefaultKeepAlive = 15 * time.Second
	// DefaultRetryDelay is the constant wait between reconnect attempts.
	// Deliberately not exponential: the service drops idle sockets often
	// and a fixed short delay recovers fastest.
	DefaultRetryDelay = 5 * time.Second

	closeCodeNormal = 1000
)

// Handler consumes classified room events for one identity. Implementations
// decide internally which work to run inline and which to spawn.
type Handler interface {
	HandleChat(ctx context.Context, out *Sender, ev Event)
	HandleUserJoined(ctx context.Context, out *Sender, ev Event)
}

// Options tune engine timing; zero values pick the defaults above.
type Options struct {
	KeepAlive  time.Duration
	RetryDelay time.Duration
}

// Engine keeps one identity connected and authenticated for as long as the
// identity is running. The engine's run goroutine is the only writer of
// session state; handlers only read it through the Sender.
type Engine struct {
	ident      *bot.Identity
	dial       Dialer
	handler    Handler
	keepAlive  time.Duration
	retryDelay time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine builds an engine for one identity.
func NewEngine(ident *bot.Identity, dial Dialer, handler Handler, opts Options) *Engine {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = DefaultKeepAlive
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Engine{
		ident:      ident,
		dial:       dial,
		handler:    handler,
		keepAlive:  opts.KeepAlive,
		retryDelay: opts.RetryDelay,
	}
}

// Start begins the connect loop. Idempotent: starting an already-active
// engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}

	e.ident.SetRunning(true)
	rctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.run(rctx)
}

// Stop requests a clean shutdown and waits for the run loop to exit. Safe to
// call from any goroutine, and a no-op if the engine is not running.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	e.ident.SetRunning(false)
	cancel()
	<-done
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	log := slog.With("bot", e.ident.Name)

	for ctx.Err() == nil && e.ident.Running() {
		err := e.runSession(ctx, log)
		if ctx.Err() != nil || !e.ident.Running() {
			break
		}
		log.Warn("session ended, reconnecting", "error", err, "delay", e.retryDelay)
		e.ident.SetStatus(bot.StatusReconnecting)
		select {
		case <-time.After(e.retryDelay):
		case <-ctx.Done():
		}
	}

	e.ident.SetStatus(bot.StatusStopped)
	log.Info("session engine stopped")
}

// runSession drives one socket connection from dial to failure. Any returned
// error is a transport-level failure; the caller decides whether to retry.
func (e *Engine) runSession(ctx context.Context, log *slog.Logger) error {
	e.ident.SetStatus(bot.StatusConnecting)
	tr, err := e.dial(ctx)
	if err != nil {
		e.ident.SetStatus(bot.StatusError)
		return err
	}
	log.Info("connected")

	sctx, cancel := context.WithCancel(ctx)
	var tasks sync.WaitGroup
	defer func() {
		// Cancel keepalive and spawned handlers before abandoning the
		// socket so nothing writes to a dead connection.
		cancel()
		tr.Close(closeCodeNormal, "")
		tasks.Wait()
	}()

	out := NewSender(tr)
	if err := out.send(sctx, protocol.Login(e.ident.Name, e.ident.Secret)); err != nil {
		return fmt.Errorf("session: send login: %w", err)
	}

	var (
		keepAliveStarted bool
		announcedRoom    string
	)

	for {
		data, err := tr.ReadMessage(sctx)
		if err != nil {
			return fmt.Errorf("session: read: %w", err)
		}

		env, err := protocol.Decode(data)
		if err != nil {
			// Malformed individual frames are skipped; the session lives on.
			log.Debug("skipping malformed frame", "error", err)
			continue
		}

		ev := Classify(env)
		switch ev.Kind {
		case EventLoginSucceeded:
			out.SetToken(ev.Token)
			e.ident.SetStatus(bot.StatusAuthenticated)
			log.Info("authenticated, joining room", "room", e.ident.Room())
			if err := out.SendJoin(sctx, e.ident.Room()); err != nil {
				return fmt.Errorf("session: send join: %w", err)
			}
			if !keepAliveStarted {
				keepAliveStarted = true
				tasks.Add(1)
				go func() {
					defer tasks.Done()
					e.keepAliveLoop(sctx, out, cancel, log)
				}()
			}

		case EventRoomJoined:
			e.ident.SetStatus(bot.StatusJoined)
			log.Info("joined room", "room", ev.Room, "members", len(ev.Members))
			if e.ident.Announce != "" && ev.Room != announcedRoom {
				announcedRoom = ev.Room
				if err := out.SendText(sctx, ev.Room, e.ident.Announce); err != nil {
					return fmt.Errorf("session: send announce: %w", err)
				}
			}

		case EventChatMessage:
			e.handler.HandleChat(sctx, out, ev)

		case EventUserJoined:
			e.handler.HandleUserJoined(sctx, out, ev)

		default:
			// Well-formed but unrecognized (handler, type): dropped silently.
		}
	}
}

// keepAliveLoop pings at a fixed interval while the session is live. A send
// failure is a session-ending event: it cancels the session context so the
// blocked read unwinds, rather than retrying the ping itself.
func (e *Engine) keepAliveLoop(ctx context.Context, out *Sender, cancel context.CancelFunc, log *slog.Logger) {
	ticker := time.NewTicker(e.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := out.send(ctx, protocol.Ping()); err != nil {
				if ctx.Err() == nil {
					log.Warn("keepalive send failed", "error", err)
					cancel()
				}
				return
			}
		}
	}
}
