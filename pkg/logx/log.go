package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Log is the shared logger used throughout the relay.
var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Configure sets the global level from a name such as "debug" or "warn".
// Unknown names fall back to info; "none" disables logging.
func Configure(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
}

// SetOutput redirects the shared logger, keeping timestamps.
func SetOutput(w io.Writer) {
	Log = zerolog.New(w).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "all":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "none", "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
