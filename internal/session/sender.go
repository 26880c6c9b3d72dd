package session

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/iyadk/idbot/internal/protocol"
)

// Chat messages are throttled so a burst of command replies cannot flood the
// room; control traffic (login, join, ping) is never delayed.
const (
	messageRate  = rate.Limit(2) // sustained messages per second
	messageBurst = 5
)

// Sender is the outbound half of one live session: it encodes envelopes and
// writes them to the session's transport. It also carries the session token
// received on login, which collaborators need for authenticated API calls.
// Safe for concurrent use by fire-and-forget command handlers.
type Sender struct {
	tr      Transport
	limiter *rate.Limiter

	mu    sync.RWMutex
	token string
}

// NewSender wraps a transport for outbound use.
func NewSender(tr Transport) *Sender {
	return &Sender{tr: tr, limiter: rate.NewLimiter(messageRate, messageBurst)}
}

// Token returns the session token, or "" before authentication.
func (s *Sender) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken records the token from a login success event.
func (s *Sender) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SendText delivers a chat message to a room.
func (s *Sender) SendText(ctx context.Context, room, body string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.send(ctx, protocol.TextMessage(room, body))
}

// SendImage delivers an image message to a room.
func (s *Sender) SendImage(ctx context.Context, room, url string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.send(ctx, protocol.ImageMessage(room, url))
}

// SendJoin issues a room join request.
func (s *Sender) SendJoin(ctx context.Context, room string) error {
	return s.send(ctx, protocol.Join(room))
}

// SendLeave issues a room leave request.
func (s *Sender) SendLeave(ctx context.Context, room string) error {
	return s.send(ctx, protocol.Leave(room))
}

func (s *Sender) send(ctx context.Context, env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	return s.tr.WriteMessage(ctx, data)
}
