package session

import (
	"testing"

	"github.com/iyadk/idbot/internal/protocol"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		env  protocol.Envelope
		want EventKind
	}{
		{"login success", protocol.Envelope{Handler: "login_event", Type: "success", Token: "tok"}, EventLoginSucceeded},
		{"room chat", protocol.Envelope{Handler: "room_event", Type: "text", From: "alice", Room: "lounge", Body: "hi"}, EventChatMessage},
		{"room_message fallback chat", protocol.Envelope{Handler: "room_message", Type: "text", From: "bob"}, EventChatMessage},
		{"you joined", protocol.Envelope{Handler: "room_event", Type: "you_joined", Name: "lounge"}, EventRoomJoined},
		{"user joined", protocol.Envelope{Handler: "room_event", Type: "user_joined", Username: "carol", Name: "lounge"}, EventUserJoined},
		{"audio dropped", protocol.Envelope{Handler: "room_event", Type: "audio"}, EventUnrecognized},
		{"unknown handler", protocol.Envelope{Handler: "presence", Type: "text"}, EventUnrecognized},
		{"login failure type", protocol.Envelope{Handler: "login_event", Type: "failure"}, EventUnrecognized},
		{"empty", protocol.Envelope{}, EventUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.env)
			if got.Kind != tt.want {
				t.Errorf("Classify kind = %d, want %d", got.Kind, tt.want)
			}
		})
	}
}

func TestClassify_ChatFields(t *testing.T) {
	env := protocol.Envelope{
		Handler: "room_event", Type: "text",
		From: "alice", Room: "lounge", Body: "hello",
		AvatarURL: "https://cdn.example/a.png", UserID: 42,
	}
	ev := Classify(env)
	if ev.Sender != "alice" || ev.Room != "lounge" || ev.Body != "hello" {
		t.Errorf("chat fields lost: %+v", ev)
	}
	if ev.AvatarURL != "https://cdn.example/a.png" {
		t.Errorf("avatar lost: %q", ev.AvatarURL)
	}
	if ev.SenderID != 42 {
		t.Errorf("SenderID = %d, want 42", ev.SenderID)
	}
}

func TestClassify_RoomJoinedMembers(t *testing.T) {
	env := protocol.Envelope{
		Handler: "room_event", Type: "you_joined", Name: "lounge",
		Users: []protocol.Member{{Username: "a"}, {Username: "b"}},
	}
	ev := Classify(env)
	if ev.Room != "lounge" {
		t.Errorf("Room = %q", ev.Room)
	}
	if len(ev.Members) != 2 || ev.Members[0] != "a" {
		t.Errorf("Members = %v", ev.Members)
	}
}

func TestClassify_JoinedRoomFallback(t *testing.T) {
	// Some server builds report the room under "room" instead of "name".
	env := protocol.Envelope{Handler: "room_event", Type: "user_joined", Username: "x", Room: "den"}
	if ev := Classify(env); ev.Room != "den" {
		t.Errorf("Room = %q, want den", ev.Room)
	}
}
