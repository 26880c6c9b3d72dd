// Package config loads the daemon configuration from a JSON5 file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/titanous/json5"

	"github.com/iyadk/idbot/internal/bot"
)

// Config is the full daemon configuration.
type Config struct {
	Socket   SocketConfig   `json:"socket"`
	Admin    AdminConfig    `json:"admin"`
	AI       AIConfig       `json:"ai"`
	Uploads  UploadsConfig  `json:"uploads"`
	Profiles ProfilesConfig `json:"profiles"`
	Draw     DrawConfig     `json:"draw"`
	Database DatabaseConfig `json:"database"`

	// Bots are identities started at boot, merged with the stored ones.
	Bots []bot.Config `json:"bots"`
}

// SocketConfig points at the chat service websocket.
type SocketConfig struct {
	URL               string `json:"url"`
	InsecureTLS       bool   `json:"insecure_tls"`
	KeepAliveSeconds  int    `json:"keepalive_seconds"`
	RetryDelaySeconds int    `json:"retry_delay_seconds"`
}

// KeepAlive returns the ping interval, zero when unset.
func (s SocketConfig) KeepAlive() time.Duration {
	return time.Duration(s.KeepAliveSeconds) * time.Second
}

// RetryDelay returns the reconnect wait, zero when unset.
func (s SocketConfig) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelaySeconds) * time.Second
}

// AdminConfig is the management HTTP listener.
type AdminConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns the host:port listen address.
func (a AdminConfig) Addr() string { return fmt.Sprintf("%s:%d", a.Host, a.Port) }

// AIConfig selects the chat completion backend. An empty APIKey disables
// AI replies.
type AIConfig struct {
	APIKey  string `json:"api_key"`
	APIBase string `json:"api_base"`
	Model   string `json:"model"`
}

// UploadsConfig points at the image CDN.
type UploadsConfig struct {
	URL string `json:"url"`
}

// ProfilesConfig points at the user profile API.
type ProfilesConfig struct {
	URL string `json:"url"`
}

// DrawConfig holds card rendering options. An empty FontPath uses the
// bundled typeface.
type DrawConfig struct {
	FontPath string `json:"font_path"`
}

// DatabaseConfig locates the identity database.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// Default returns a Config with the deployed service endpoints.
func Default() *Config {
	return &Config{
		Socket: SocketConfig{
			URL:         "wss://chatp.net:5333/server",
			InsecureTLS: true,
		},
		Admin: AdminConfig{
			Host: "127.0.0.1",
			Port: 8793,
		},
		Uploads: UploadsConfig{
			URL: "https://cdn.talkinchat.com/post.php",
		},
		Profiles: ProfilesConfig{
			URL: "https://api.chatp.net/v2/user_profile",
		},
		Database: DatabaseConfig{
			Path: "idbot.db",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A missing
// file is not an error: defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config. Env vars take
// precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("IDBOT_SOCKET_URL", &c.Socket.URL)
	envStr("IDBOT_AI_API_KEY", &c.AI.APIKey)
	envStr("IDBOT_AI_API_BASE", &c.AI.APIBase)
	envStr("IDBOT_AI_MODEL", &c.AI.Model)
	envStr("IDBOT_DB_PATH", &c.Database.Path)
	envStr("IDBOT_ADMIN_HOST", &c.Admin.Host)
	envStr("IDBOT_FONT_PATH", &c.Draw.FontPath)

	if v := os.Getenv("IDBOT_ADMIN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Admin.Port = port
		}
	}
	if v := os.Getenv("IDBOT_INSECURE_TLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Socket.InsecureTLS = b
		}
	}
}
