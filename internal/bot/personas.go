package bot

import (
	"sort"
	"strings"
)

// DefaultPersona is used for any room without an explicit assignment.
const DefaultPersona = "sweet"

// corePrompt is shared by every persona. {bot_name} is substituted when the
// system prompt is built.
const corePrompt = `[RULE: Reply shortly under 20 words.]
[IDENTITY: You are '{bot_name}'. Not an AI, but a chat companion.]
[LANGUAGE: Reply in the user's language.]`

// personas are read-only global templates; rooms pick one by key.
var personas = map[string]string{
	"sweet":    corePrompt + "\n[MOOD: SWEET]\nBe cute & use emojis ✨.",
	"tsundere": corePrompt + "\n[MOOD: TSUNDERE]\nAct annoyed but care 😒.",
	"rude":     corePrompt + "\n[MOOD: RUDE]\nBe sarcastic and mean.",
}

// KnownPersona reports whether a key names a built-in persona.
func KnownPersona(key string) bool {
	_, ok := personas[strings.ToLower(key)]
	return ok
}

// PersonaKeys returns the available persona keys, sorted.
func PersonaKeys() []string {
	keys := make([]string, 0, len(personas))
	for k := range personas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SystemPrompt renders the persona template for a bot. Unknown keys fall
// back to the default persona.
func SystemPrompt(key, botName string) string {
	tmpl, ok := personas[strings.ToLower(key)]
	if !ok {
		tmpl = personas[DefaultPersona]
	}
	return strings.ReplaceAll(tmpl, "{bot_name}", botName)
}
