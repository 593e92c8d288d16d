package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/contentdesk/contentdesk/contentdeskservice"
)

func main() {
	// Local development convenience; production supplies real env vars.
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("Loaded .env file")
	}

	if err := contentdeskservice.Run(); err != nil {
		os.Exit(1)
	}
}
