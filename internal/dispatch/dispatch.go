// Package dispatch interprets inbound chat for one bot identity: the
// trigger-reply path (the bot's name in a message) and the prefixed command
// table. Slow handlers run as fire-and-forget goroutines so an external call
// for one message never blocks the session's receive loop.
package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/iyadk/idbot/internal/bot"
	"github.com/iyadk/idbot/internal/session"
)

// Collaborator interfaces. All are synchronous, fallible, and must never be
// allowed to take down the session: failures degrade to literal fallback
// text in chat. Nil collaborators disable the matching commands gracefully.
type (
	// TextCompletion produces an AI reply under a persona system prompt.
	TextCompletion interface {
		Complete(ctx context.Context, system, prompt string) (string, error)
	}

	// ImageSearch resolves a query to an image URL, or "" when nothing fits.
	ImageSearch interface {
		Search(ctx context.Context, query string) (string, error)
	}

	// ContentUpload stores an image and returns its public URL.
	ContentUpload interface {
		Upload(ctx context.Context, png []byte, room, identity string) (string, error)
	}

	// Horoscope returns the daily text for a sign, or a literal error string
	// for invalid input. It never fails with an error value.
	Horoscope interface {
		Daily(ctx context.Context, sign, day string) string
	}

	// ProfileLookup resolves a cached numeric id to a display name using the
	// session token for authentication.
	ProfileLookup interface {
		DisplayName(ctx context.Context, token string, userID int64) (string, error)
	}

	// CardRenderer draws avatar and welcome card images.
	CardRenderer interface {
		AvatarCard(ctx context.Context, avatarURL, text string) ([]byte, error)
		WelcomeCard(room, user string) ([]byte, error)
	}
)

// Collaborators bundles everything a dispatcher may call out to.
type Collaborators struct {
	AI        TextCompletion
	Images    ImageSearch
	Uploads   ContentUpload
	Horoscope Horoscope
	Profiles  ProfileLookup
	Cards     CardRenderer

	// Persist, when set, is called after a command mutates durable identity
	// state (!wc, !addm, !persona, !join).
	Persist func(*bot.Identity)
}

// Dispatcher handles classified room events for one identity. It only ever
// touches state scoped to that identity.
type Dispatcher struct {
	ident *bot.Identity
	c     Collaborators
	log   *slog.Logger
}

// New builds a dispatcher for one identity.
func New(ident *bot.Identity, c Collaborators) *Dispatcher {
	return &Dispatcher{ident: ident, c: c, log: slog.With("bot", ident.Name)}
}

// HandleChat implements session.Handler for room chat messages.
func (d *Dispatcher) HandleChat(ctx context.Context, out *session.Sender, ev session.Event) {
	if strings.EqualFold(ev.Sender, d.ident.Name) || d.ident.Ignored(ev.Sender) {
		return
	}
	if ev.SenderID != 0 {
		d.ident.CacheUserID(ev.Sender, ev.SenderID)
	}

	// The trigger path wins over command parsing: a message is never both.
	if prompt, ok := d.triggerPrompt(ev.Body); ok {
		if prompt != "" {
			d.log.Debug("trigger reply", "from", ev.Sender, "prompt", prompt)
			go d.aiReply(ctx, out, ev.Room, ev.Sender, prompt)
		}
		return
	}

	if !strings.HasPrefix(ev.Body, commandPrefix) {
		return
	}
	name, args, _ := strings.Cut(ev.Body, " ")
	cmd, ok := commands[strings.ToLower(name)]
	if !ok {
		return // unknown commands are silently ignored
	}
	if cmd.master && !d.ident.IsMaster(ev.Sender) {
		return // no response, no error
	}

	args = strings.TrimSpace(args)
	if cmd.slow {
		go cmd.run(d, ctx, out, ev, args)
		return
	}
	cmd.run(d, ctx, out, ev, args)
}

// HandleUserJoined implements session.Handler for join events: when welcome
// cards are on, render and post one for the new user (fire and forget).
func (d *Dispatcher) HandleUserJoined(ctx context.Context, out *session.Sender, ev session.Event) {
	if !d.ident.WelcomeOn() || d.c.Cards == nil || d.c.Uploads == nil {
		return
	}
	if strings.EqualFold(ev.Username, d.ident.Name) {
		return
	}
	go func() {
		png, err := d.c.Cards.WelcomeCard(ev.Room, ev.Username)
		if err != nil {
			d.log.Warn("welcome card render failed", "error", err)
			return
		}
		url, err := d.c.Uploads.Upload(ctx, png, ev.Room, d.ident.Name)
		if err != nil {
			d.log.Warn("welcome card upload failed", "error", err)
			return
		}
		d.sendImage(ctx, out, ev.Room, url)
	}()
}

// triggerPrompt reports whether the body activates the trigger path, and if
// so returns the remainder after stripping the first case-insensitive
// occurrence of the bot's name and surrounding punctuation.
func (d *Dispatcher) triggerPrompt(body string) (string, bool) {
	if strings.HasPrefix(body, commandPrefix) {
		return "", false
	}
	name := strings.ToLower(d.ident.Name)
	idx := strings.Index(strings.ToLower(body), name)
	if idx < 0 {
		return "", false
	}
	rest := body[:idx] + body[idx+len(name):]
	return strings.Trim(rest, " @,:"), true
}

// aiReply runs the persona-tagged completion and posts the result.
func (d *Dispatcher) aiReply(ctx context.Context, out *session.Sender, room, sender, prompt string) {
	if d.c.AI == nil {
		d.reply(ctx, out, room, "[!] AI not configured.")
		return
	}
	system := bot.SystemPrompt(d.ident.Persona(room), d.ident.Name)
	text, err := d.c.AI.Complete(ctx, system, prompt)
	if err != nil {
		d.log.Warn("completion failed", "error", err)
		d.reply(ctx, out, room, "AI is unavailable right now.")
		return
	}
	d.reply(ctx, out, room, "@"+sender+" "+text)
}

// reply sends chat text, logging rather than propagating send errors: the
// session engine notices a dead socket on its own read path.
func (d *Dispatcher) reply(ctx context.Context, out *session.Sender, room, body string) {
	if err := out.SendText(ctx, room, body); err != nil {
		d.log.Debug("reply send failed", "error", err)
	}
}

func (d *Dispatcher) sendImage(ctx context.Context, out *session.Sender, room, url string) {
	if err := out.SendImage(ctx, room, url); err != nil {
		d.log.Debug("image send failed", "error", err)
	}
}
