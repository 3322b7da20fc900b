package logging

import (
	"os"
	"strings"

	"github.com/phuslu/log"
)

func CreateDebugLogger() *log.Logger {
	return CreateLogger("debug")
}

// CreateLogger builds a console logger writing to stderr. Unknown level
// names fall back to info.
func CreateLogger(level string) *log.Logger {
	return &log.Logger{
		Level:  parseLevel(level),
		Caller: 0,
		Writer: &log.ConsoleWriter{
			ColorOutput:    false,
			EndWithMessage: true,
			Writer:         os.Stderr,
		},
	}
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
