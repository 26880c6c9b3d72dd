// Package bot holds the per-identity state bundle: credentials, target room,
// permission tiers, and the mutable caches command handlers read and write.
// Every field is scoped to one identity; nothing here is shared across bots.
package bot

import (
	"strings"
	"sync"
)

// Status is the lifecycle state of an identity's session engine.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusConnecting    Status = "connecting"
	StatusAuthenticated Status = "authenticated"
	StatusJoined        Status = "joined"
	StatusReconnecting  Status = "reconnecting"
	StatusStopped       Status = "stopped"
	StatusError         Status = "error"
)

// Config is the immutable registration input for one identity.
type Config struct {
	Name     string   `json:"name"`
	Secret   string   `json:"secret"`
	Room     string   `json:"room"`
	Masters  []string `json:"masters,omitempty"`
	Ignore   []string `json:"ignore,omitempty"`
	Welcome  bool     `json:"welcome,omitempty"`
	Announce string   `json:"announce,omitempty"`
}

// Key returns the registry key for this config: the lowercased bot name.
func (c Config) Key() string { return strings.ToLower(c.Name) }

// Identity is one supervised bot. The session engine is the only writer of
// running/status; command handlers touch only the caches, which are guarded
// for concurrent use within the identity.
type Identity struct {
	Name     string
	Secret   string
	Announce string

	mu       sync.RWMutex
	room     string
	running  bool
	status   Status
	welcome  bool
	masters  map[string]bool // lowercase usernames
	ignored  map[string]bool // lowercase usernames
	personas map[string]string // room -> persona key
	userIDs  map[string]int64  // lowercase username -> remote id, never evicted
}

// Snapshot is a read-only view of an identity for the admin surface.
type Snapshot struct {
	Name    string   `json:"name"`
	Room    string   `json:"room"`
	Running bool     `json:"running"`
	Status  Status   `json:"status"`
	Welcome bool     `json:"welcome"`
	Masters []string `json:"masters"`
}

// New builds an identity from its registration config. The bot's own name is
// always an implicit master.
func New(cfg Config) *Identity {
	id := &Identity{
		Name:     cfg.Name,
		Secret:   cfg.Secret,
		Announce: cfg.Announce,
		room:     cfg.Room,
		status:   StatusIdle,
		welcome:  cfg.Welcome,
		masters:  make(map[string]bool, len(cfg.Masters)+1),
		ignored:  make(map[string]bool, len(cfg.Ignore)),
		personas: make(map[string]string),
		userIDs:  make(map[string]int64),
	}
	for _, m := range cfg.Masters {
		id.masters[strings.ToLower(m)] = true
	}
	for _, u := range cfg.Ignore {
		id.ignored[strings.ToLower(u)] = true
	}
	return id
}

// Key returns the registry key: the lowercased bot name.
func (id *Identity) Key() string { return strings.ToLower(id.Name) }

// Room returns the currently configured target room.
func (id *Identity) Room() string {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.room
}

// SetRoom re-targets the identity to a new room.
func (id *Identity) SetRoom(room string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.room = room
}

// Running reports whether the identity wants a live session.
func (id *Identity) Running() bool {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.running
}

// SetRunning flips the run flag. The engine observes false as a stop request.
func (id *Identity) SetRunning(v bool) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.running = v
}

// Status returns the current lifecycle state.
func (id *Identity) Status() Status {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.status
}

// SetStatus records a lifecycle transition.
func (id *Identity) SetStatus(s Status) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.status = s
}

// IsMaster reports whether a sender may run master-only commands.
// Matching is case-insensitive; the bot itself always qualifies.
func (id *Identity) IsMaster(sender string) bool {
	if strings.EqualFold(sender, id.Name) {
		return true
	}
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.masters[strings.ToLower(sender)]
}

// AddMaster adds a username to the master set. Returns false if it was
// already present.
func (id *Identity) AddMaster(user string) bool {
	key := strings.ToLower(user)
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.masters[key] {
		return false
	}
	id.masters[key] = true
	return true
}

// Masters returns the master usernames (lowercased, unordered).
func (id *Identity) Masters() []string {
	id.mu.RLock()
	defer id.mu.RUnlock()
	out := make([]string, 0, len(id.masters))
	for m := range id.masters {
		out = append(out, m)
	}
	return out
}

// Ignored reports whether messages from a user are dropped.
func (id *Identity) Ignored(user string) bool {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.ignored[strings.ToLower(user)]
}

// WelcomeOn reports whether welcome cards are enabled.
func (id *Identity) WelcomeOn() bool {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.welcome
}

// ToggleWelcome flips the welcome-card flag and returns the new state.
func (id *Identity) ToggleWelcome() bool {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.welcome = !id.welcome
	return id.welcome
}

// Persona returns the persona key configured for a room, or the default.
func (id *Identity) Persona(room string) string {
	id.mu.RLock()
	defer id.mu.RUnlock()
	if key, ok := id.personas[room]; ok {
		return key
	}
	return DefaultPersona
}

// SetPersona assigns a persona key to a room.
func (id *Identity) SetPersona(room, key string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.personas[room] = key
}

// CacheUserID records the remote numeric id observed for a username.
// Entries are kept for the identity's lifetime; room populations are small
// enough that growth is bounded in practice.
func (id *Identity) CacheUserID(username string, remoteID int64) {
	if username == "" || remoteID == 0 {
		return
	}
	id.mu.Lock()
	defer id.mu.Unlock()
	id.userIDs[strings.ToLower(username)] = remoteID
}

// UserID looks up the cached remote id for a username.
func (id *Identity) UserID(username string) (int64, bool) {
	id.mu.RLock()
	defer id.mu.RUnlock()
	remoteID, ok := id.userIDs[strings.ToLower(username)]
	return remoteID, ok
}

// Snapshot returns a point-in-time copy for the admin surface.
func (id *Identity) Snapshot() Snapshot {
	id.mu.RLock()
	defer id.mu.RUnlock()
	masters := make([]string, 0, len(id.masters))
	for m := range id.masters {
		masters = append(masters, m)
	}
	return Snapshot{
		Name:    id.Name,
		Room:    id.room,
		Running: id.running,
		Status:  id.status,
		Welcome: id.welcome,
		Masters: masters,
	}
}

// ConfigSnapshot rebuilds a Config from current state, for persistence.
func (id *Identity) ConfigSnapshot() Config {
	id.mu.RLock()
	defer id.mu.RUnlock()
	masters := make([]string, 0, len(id.masters))
	for m := range id.masters {
		masters = append(masters, m)
	}
	ignore := make([]string, 0, len(id.ignored))
	for u := range id.ignored {
		ignore = append(ignore, u)
	}
	return Config{
		Name:     id.Name,
		Secret:   id.Secret,
		Room:     id.room,
		Masters:  masters,
		Ignore:   ignore,
		Welcome:  id.welcome,
		Announce: id.Announce,
	}
}
