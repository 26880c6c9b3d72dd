package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Socket.URL != "wss://chatp.net:5333/server" {
		t.Errorf("socket url = %q", cfg.Socket.URL)
	}
	if !cfg.Socket.InsecureTLS {
		t.Error("insecure TLS should default on for the self-signed endpoint")
	}
	if cfg.Admin.Addr() != "127.0.0.1:8793" {
		t.Errorf("admin addr = %q", cfg.Admin.Addr())
	}
}

func TestLoadFile(t *testing.T) {
	// JSON5: comments and trailing commas are fine.
	path := writeConfig(t, `{
		// local test setup
		socket: { url: "wss://example.test/server", keepalive_seconds: 30 },
		ai: { api_key: "k", model: "m" },
		bots: [
			{ name: "Luna", secret: "s", room: "lounge", masters: ["boss"] },
		],
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Socket.URL != "wss://example.test/server" {
		t.Errorf("socket url = %q", cfg.Socket.URL)
	}
	if cfg.Socket.KeepAlive() != 30*time.Second {
		t.Errorf("keepalive = %v", cfg.Socket.KeepAlive())
	}
	if cfg.Socket.RetryDelay() != 0 {
		t.Errorf("unset retry delay = %v, want 0", cfg.Socket.RetryDelay())
	}
	if cfg.AI.APIKey != "k" || cfg.AI.Model != "m" {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if len(cfg.Bots) != 1 || cfg.Bots[0].Name != "Luna" || cfg.Bots[0].Masters[0] != "boss" {
		t.Errorf("bots = %+v", cfg.Bots)
	}
	// File values merge over unset defaults.
	if cfg.Uploads.URL != "https://cdn.talkinchat.com/post.php" {
		t.Errorf("uploads url = %q", cfg.Uploads.URL)
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := writeConfig(t, `{socket:`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `{ ai: { api_key: "from-file" } }`)

	t.Setenv("IDBOT_AI_API_KEY", "from-env")
	t.Setenv("IDBOT_ADMIN_PORT", "9999")
	t.Setenv("IDBOT_INSECURE_TLS", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.APIKey != "from-env" {
		t.Errorf("api key = %q, env should win over file", cfg.AI.APIKey)
	}
	if cfg.Admin.Port != 9999 {
		t.Errorf("admin port = %d", cfg.Admin.Port)
	}
	if cfg.Socket.InsecureTLS {
		t.Error("IDBOT_INSECURE_TLS=false not applied")
	}
}
