// Package protocol implements the chatp wire envelope: a flat JSON object
// exchanged over a long-lived websocket. The codec is stateless; it only
// converts between outbound intents and bytes, and back.
package protocol

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strconv"
)

// Request-direction handlers.
const (
	HandlerLogin       = "login"
	HandlerRoomJoin    = "room_join"
	HandlerRoomLeave   = "room_leave"
	HandlerRoomMessage = "room_message"
	HandlerPing        = "ping"
)

// Response-direction handlers.
const (
	HandlerLoginEvent = "login_event"
	HandlerRoomEvent  = "room_event"
)

// Envelope types.
const (
	TypeText       = "text"
	TypeImage      = "image"
	TypeAudio      = "audio"
	TypeSuccess    = "success"
	TypeUserJoined = "user_joined"
	TypeYouJoined  = "you_joined"
)

// Member is one room occupant as reported in a join confirmation.
type Member struct {
	Username string `json:"username"`
}

// Envelope is one structured message unit on the socket. Fields are a union
// across every handler; unused ones stay empty and are omitted on the wire.
// Values are immutable once constructed.
type Envelope struct {
	Handler   string   `json:"handler"`
	Type      string   `json:"type,omitempty"`
	ID        string   `json:"id,omitempty"`
	Username  string   `json:"username,omitempty"`
	Password  string   `json:"password,omitempty"`
	Name      string   `json:"name,omitempty"`
	Room      string   `json:"room,omitempty"`
	Body      string   `json:"body,omitempty"`
	URL       string   `json:"url,omitempty"`
	Length    string   `json:"length,omitempty"`
	From      string   `json:"from,omitempty"`
	AvatarURL string   `json:"avatar_url,omitempty"`
	UserID    FlexID   `json:"user_id,omitempty"`
	Token     string   `json:"s,omitempty"`
	Users     []Member `json:"users,omitempty"`
}

// FlexID accepts both 123 and "123" on the wire. The server is not
// consistent about numeric field encoding across event types.
type FlexID int64

func (f *FlexID) UnmarshalJSON(data []byte) error {
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("protocol: user_id %q: %w", s, err)
		}
		*f = FlexID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n)
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(f), 10)), nil
}

// Decode parses inbound bytes into an Envelope. Unknown extra fields are
// tolerated; anything that is not a JSON object is a decode error.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	return env, nil
}

// Encode serializes an Envelope for the wire.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode envelope: %w", err)
	}
	return data, nil
}

// Login builds the authentication request.
func Login(username, password string) Envelope {
	return Envelope{Handler: HandlerLogin, ID: NewID(), Username: username, Password: password}
}

// Join builds a room join request.
func Join(room string) Envelope {
	return Envelope{Handler: HandlerRoomJoin, ID: NewID(), Name: room}
}

// Leave builds a room leave request.
func Leave(room string) Envelope {
	return Envelope{Handler: HandlerRoomLeave, ID: NewID(), Name: room}
}

// TextMessage builds an outbound chat message for a room.
func TextMessage(room, body string) Envelope {
	return Envelope{Handler: HandlerRoomMessage, ID: NewID(), Room: room, Type: TypeText, Body: body, Length: "0"}
}

// ImageMessage builds an outbound image message for a room.
func ImageMessage(room, url string) Envelope {
	return Envelope{Handler: HandlerRoomMessage, ID: NewID(), Room: room, Type: TypeImage, URL: url, Length: "0"}
}

// Ping builds the keepalive envelope.
func Ping() Envelope {
	return Envelope{Handler: HandlerPing, ID: NewID()}
}

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 20
)

// NewID returns a fresh random envelope id. Collision-improbable is enough;
// ids are opaque correlation tokens, not secrets.
func NewID() string {
	buf := make([]byte, idLength)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}
