package session

import "github.com/iyadk/idbot/internal/protocol"

// EventKind classifies a decoded inbound envelope.
type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventLoginSucceeded
	EventRoomJoined
	EventChatMessage
	EventUserJoined
)

// Event is a classified inbound envelope. Only the fields relevant to the
// kind are populated.
type Event struct {
	Kind EventKind

	Token   string   // EventLoginSucceeded
	Room    string   // EventRoomJoined, EventChatMessage, EventUserJoined
	Members []string // EventRoomJoined

	Sender    string // EventChatMessage
	Body      string // EventChatMessage
	AvatarURL string // EventChatMessage, when the server includes it
	SenderID  int64  // EventChatMessage, 0 when absent

	Username string // EventUserJoined
}

// Classify maps a decoded envelope to an event by (handler, type) lookup.
// Unrecognized combinations yield EventUnrecognized and are dropped by the
// caller without error.
func Classify(env protocol.Envelope) Event {
	switch {
	case env.Handler == protocol.HandlerLoginEvent && env.Type == protocol.TypeSuccess:
		return Event{Kind: EventLoginSucceeded, Token: env.Token}

	// The server delivers room chat as room_event/text; room_message/text is
	// accepted as well since some server builds echo chats there.
	case env.Type == protocol.TypeText &&
		(env.Handler == protocol.HandlerRoomEvent || env.Handler == protocol.HandlerRoomMessage):
		return Event{
			Kind:      EventChatMessage,
			Sender:    env.From,
			Room:      env.Room,
			Body:      env.Body,
			AvatarURL: env.AvatarURL,
			SenderID:  int64(env.UserID),
		}

	case env.Handler == protocol.HandlerRoomEvent && env.Type == protocol.TypeYouJoined:
		members := make([]string, 0, len(env.Users))
		for _, m := range env.Users {
			members = append(members, m.Username)
		}
		return Event{Kind: EventRoomJoined, Room: joinedRoom(env), Members: members}

	case env.Handler == protocol.HandlerRoomEvent && env.Type == protocol.TypeUserJoined:
		return Event{Kind: EventUserJoined, Username: env.Username, Room: joinedRoom(env)}
	}
	return Event{Kind: EventUnrecognized}
}

// joinedRoom picks the room field for join events: the server reports the
// room under "name" on join events, but "room" on some builds.
func joinedRoom(env protocol.Envelope) string {
	if env.Name != "" {
		return env.Name
	}
	return env.Room
}
