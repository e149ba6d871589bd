package util

import (
	"log/slog"
	"os"
	"strings"
)

// logLevelEnvVar names the environment variable InitSlog reads; unset
// leaves slog's own default logger in place rather than forcing one.
const logLevelEnvVar = "KIPSQL_LOG_LEVEL"

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// InitSlog installs a text-handler default logger writing to stderr, at
// the level named by KIPSQL_LOG_LEVEL (debug/info/warn/error, defaulting
// to info on an unrecognised value). A no-op when the variable is unset.
func InitSlog() {
	raw, ok := os.LookupEnv(logLevelEnvVar)
	if !ok {
		return
	}

	level, ok := logLevels[strings.ToLower(raw)]
	if !ok {
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
