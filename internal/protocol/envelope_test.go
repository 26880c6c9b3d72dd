package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecode_LoginSuccess(t *testing.T) {
	raw := `{"handler":"login_event","type":"success","s":"tok-123","unknown_field":42}`
	env, err := Decode([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if env.Handler != HandlerLoginEvent {
		t.Errorf("Handler = %q, want %q", env.Handler, HandlerLoginEvent)
	}
	if env.Type != TypeSuccess {
		t.Errorf("Type = %q, want %q", env.Type, TypeSuccess)
	}
	if env.Token != "tok-123" {
		t.Errorf("Token = %q, want 'tok-123'", env.Token)
	}
}

func TestDecode_RoomEventText(t *testing.T) {
	raw := `{
		"handler": "room_event",
		"type": "text",
		"from": "alice",
		"room": "lounge",
		"body": "hello there",
		"avatar_url": "https://cdn.example/a.png",
		"user_id": 9901
	}`
	env, err := Decode([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if env.From != "alice" || env.Room != "lounge" || env.Body != "hello there" {
		t.Errorf("unexpected fields: %+v", env)
	}
	if env.UserID != 9901 {
		t.Errorf("UserID = %d, want 9901", env.UserID)
	}
}

func TestDecode_NonObject(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `"just a string"`, `42`, `not json at all`} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("Decode(%q) should fail", raw)
		}
	}
}

func TestFlexID_StringForm(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"handler":"room_event","user_id":"777"}`), &env); err != nil {
		t.Fatal(err)
	}
	if env.UserID != 777 {
		t.Errorf("UserID = %d, want 777", env.UserID)
	}

	// Empty string means absent.
	if err := json.Unmarshal([]byte(`{"handler":"room_event","user_id":""}`), &env); err != nil {
		t.Fatal(err)
	}
	if env.UserID != 0 {
		t.Errorf("UserID = %d, want 0 for empty string", env.UserID)
	}
}

func TestEncode_TextMessage(t *testing.T) {
	env := TextMessage("lounge", "hi all")
	data, err := Encode(env)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["handler"] != HandlerRoomMessage {
		t.Errorf("handler = %v", decoded["handler"])
	}
	if decoded["type"] != TypeText {
		t.Errorf("type = %v", decoded["type"])
	}
	if decoded["body"] != "hi all" || decoded["room"] != "lounge" {
		t.Errorf("unexpected payload: %v", decoded)
	}
	if decoded["id"] == "" || decoded["id"] == nil {
		t.Error("outbound envelope must carry an id")
	}
	// Login-only fields must not leak into chat messages.
	if _, ok := decoded["password"]; ok {
		t.Error("password field present on room_message")
	}
}

func TestEncode_Login(t *testing.T) {
	env := Login("bot", "secret")
	data, err := Encode(env)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["username"] != "bot" || decoded["password"] != "secret" {
		t.Errorf("unexpected login payload: %v", decoded)
	}
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := NewID()
		if len(id) != idLength {
			t.Fatalf("len(id) = %d, want %d", len(id), idLength)
		}
		for _, r := range id {
			if !strings.ContainsRune(idAlphabet, r) {
				t.Fatalf("id %q contains %q outside the alphabet", id, r)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q after %d draws", id, i)
		}
		seen[id] = true
	}
}
