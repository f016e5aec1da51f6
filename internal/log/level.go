package log

import (
	"log/slog"
	"strings"
)

// Level is the minimum severity a logger emits. The zero value is
// LevelDebug, so an unconfigured Config logs everything rather than
// silently dropping records.
type Level int

const (
	// LevelDebug is for verification traces and serialization detail
	LevelDebug Level = iota
	// LevelInfo is for normal operation (bundles sealed, imported, verified)
	LevelInfo
	// LevelWarn is for recoverable conditions such as skipped datasets
	LevelWarn
	// LevelError is for failed operations
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ToSlogLevel maps a Level onto the underlying slog handler's levels
func (l Level) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel reads a level name as given on the command line. Matching
// is case-insensitive, "warning" is accepted for warn, and anything
// unrecognized falls back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
