package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/iyadk/idbot/internal/bot"
	"github.com/iyadk/idbot/internal/session"
)

const commandPrefix = "!"

type commandFunc func(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, args string)

// command describes one table entry. slow commands call external
// collaborators and run in their own goroutine; fast ones run inline on the
// receive path. Adding a command is a table entry, not a new branch.
type command struct {
	master bool
	slow   bool
	run    commandFunc
}

var commands = map[string]command{
	"!ai":      {slow: true, run: cmdAI},
	"!img":     {slow: true, run: cmdImage},
	"!horo":    {slow: true, run: cmdHoroscope},
	"!profile": {slow: true, run: cmdProfile},
	"!draw":    {slow: true, run: cmdDraw},
	"!persona": {master: true, run: cmdPersona},
	"!wc":      {master: true, run: cmdWelcome},
	"!addm":    {master: true, run: cmdAddMaster},
	"!join":    {master: true, run: cmdJoin},
	"!quit":    {master: true, run: cmdQuit},
}

func cmdAI(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, args string) {
	if args == "" {
		d.reply(ctx, out, ev.Room, "Usage: !ai <text>")
		return
	}
	d.aiReply(ctx, out, ev.Room, ev.Sender, args)
}

func cmdImage(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, args string) {
	if args == "" {
		d.reply(ctx, out, ev.Room, "Usage: !img <query>")
		return
	}
	if d.c.Images == nil {
		d.reply(ctx, out, ev.Room, "Image search not configured.")
		return
	}
	d.reply(ctx, out, ev.Room, "Searching image...")
	url, err := d.c.Images.Search(ctx, args)
	if err != nil || url == "" {
		if err != nil {
			d.log.Warn("image search failed", "query", args, "error", err)
		}
		d.reply(ctx, out, ev.Room, "No image found.")
		return
	}
	d.sendImage(ctx, out, ev.Room, url)
}

func cmdHoroscope(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		d.reply(ctx, out, ev.Room, "Usage: !horo <sign> <day>")
		return
	}
	if d.c.Horoscope == nil {
		d.reply(ctx, out, ev.Room, "Horoscope not configured.")
		return
	}
	d.reply(ctx, out, ev.Room, d.c.Horoscope.Daily(ctx, fields[0], fields[1]))
}

func cmdProfile(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, args string) {
	target := ev.Sender
	if args != "" {
		target = strings.TrimPrefix(args, "@")
	}
	userID, ok := d.ident.UserID(target)
	if !ok {
		d.reply(ctx, out, ev.Room, "User not seen yet.")
		return
	}
	if d.c.Profiles == nil {
		d.reply(ctx, out, ev.Room, "Profile lookup not configured.")
		return
	}
	name, err := d.c.Profiles.DisplayName(ctx, out.Token(), userID)
	if err != nil {
		d.log.Warn("profile lookup failed", "user_id", userID, "error", err)
		d.reply(ctx, out, ev.Room, "Profile unavailable.")
		return
	}
	d.reply(ctx, out, ev.Room, fmt.Sprintf("👤 %s | 🆔 %d", name, userID))
}

func cmdDraw(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, args string) {
	if args == "" {
		d.reply(ctx, out, ev.Room, "Usage: !draw <text>")
		return
	}
	if ev.AvatarURL == "" {
		return // nothing to draw on; matches the silent original behavior
	}
	if d.c.Cards == nil || d.c.Uploads == nil {
		d.reply(ctx, out, ev.Room, "Drawing not configured.")
		return
	}
	png, err := d.c.Cards.AvatarCard(ctx, ev.AvatarURL, args)
	if err != nil {
		d.log.Warn("avatar card render failed", "error", err)
		d.reply(ctx, out, ev.Room, "Could not render that.")
		return
	}
	url, err := d.c.Uploads.Upload(ctx, png, ev.Room, d.ident.Name)
	if err != nil {
		d.log.Warn("avatar card upload failed", "error", err)
		d.reply(ctx, out, ev.Room, "Upload failed.")
		return
	}
	d.sendImage(ctx, out, ev.Room, url)
}

func cmdPersona(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, args string) {
	key := strings.ToLower(args)
	if key == "" || !bot.KnownPersona(key) {
		d.reply(ctx, out, ev.Room, "Available: "+strings.Join(bot.PersonaKeys(), ", "))
		return
	}
	d.ident.SetPersona(ev.Room, key)
	d.persist()
	d.reply(ctx, out, ev.Room, "Mode set to: "+key)
}

func cmdWelcome(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, _ string) {
	state := "off"
	if d.ident.ToggleWelcome() {
		state = "on"
	}
	d.persist()
	d.reply(ctx, out, ev.Room, "Welcome card: "+state)
}

func cmdAddMaster(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, args string) {
	if args == "" {
		d.reply(ctx, out, ev.Room, "Usage: !addm <user>")
		return
	}
	user := strings.TrimPrefix(args, "@")
	if !d.ident.AddMaster(user) {
		d.reply(ctx, out, ev.Room, user+" is already a master.")
		return
	}
	d.persist()
	d.reply(ctx, out, ev.Room, "Added master: "+user)
}

func cmdJoin(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, args string) {
	if args == "" {
		d.reply(ctx, out, ev.Room, "Usage: !join <room>")
		return
	}
	d.ident.SetRoom(args)
	d.persist()
	if err := out.SendJoin(ctx, args); err != nil {
		d.log.Warn("join send failed", "room", args, "error", err)
	}
}

func cmdQuit(d *Dispatcher, ctx context.Context, out *session.Sender, ev session.Event, _ string) {
	if err := out.SendLeave(ctx, ev.Room); err != nil {
		d.log.Warn("leave send failed", "room", ev.Room, "error", err)
	}
}

func (d *Dispatcher) persist() {
	if d.c.Persist != nil {
		d.c.Persist(d.ident)
	}
}
