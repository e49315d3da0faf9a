package main

import (
	"os"
	"path/filepath"

	maa "github.com/MaaXYZ/maa-framework-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/exilekit/altar-agent/altarpicker"
)

func main() {
	logFile, err := initLogger()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	defer logFile.Close()

	log.Info().Str("version", Version).Msg("Altar Agent Service")

	if len(os.Args) < 2 {
		log.Fatal().Msg("Usage: altar-agent <identifier>")
	}

	identifier := os.Args[1]
	log.Info().Str("identifier", identifier).Msg("Starting agent server")

	// Initialize MAA framework first (required before any other MAA calls)
	libDir := filepath.Join(getCwd(), "maafw")
	log.Info().Str("libDir", libDir).Msg("Initializing MAA framework")
	if err := maa.Init(maa.WithLibDir(libDir)); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MAA framework")
	}
	defer maa.Release()
	log.Info().Msg("MAA framework initialized")

	userPath := getCwd()
	if err := maa.ConfigInitOption(userPath, "{}"); err != nil {
		log.Warn().Err(err).Str("userPath", userPath).Msg("Failed to init toolkit config option")
	} else {
		log.Info().Str("userPath", userPath).Msg("Toolkit config option initialized")
	}

	svc := altarpicker.NewService()
	defer svc.Close()
	altarpicker.Register(svc)
	log.Info().Msg("Registered custom actions")

	if err := maa.AgentServerStartUp(identifier); err != nil {
		log.Fatal().Err(err).Msg("Failed to start agent server")
	}
	log.Info().Msg("Agent server started")

	maa.AgentServerJoin()

	maa.AgentServerShutDown()
	log.Info().Msg("Agent server shutdown")
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
