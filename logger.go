package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// initLogger writes JSON logs to debug/go-service.log and a readable copy to
// stderr. ALTAR_DEBUG=1 lowers the level to debug; so does app.debug in the
// agent config once AltarInitAction runs.
func initLogger() (*os.File, error) {
	dir := filepath.Join(getCwd(), "debug")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "go-service.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	level := zerolog.InfoLevel
	if os.Getenv("ALTAR_DEBUG") == "1" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(io.MultiWriter(f, console)).With().Timestamp().Logger()
	return f, nil
}
