// Package util holds small helpers shared by the daemon and CLI entrypoints.
package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads a boolean from the environment, falling back to def when
// the variable is unset or spells nothing recognizable. Accepted spellings,
// case-insensitive: true/1/yes/on and false/0/no/off.
func ParseBoolEnv(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		slog.Warn("ParseBoolEnv: unrecognized boolean, falling back", "key", key, "value", raw, "fallback", def)
		return def
	}
}
