package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/bitelog/bitelog/server/diaryservice"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := diaryservice.Run(); err != nil {
		log.Error().Err(err).Msg("bitelog-service exited with error")
		os.Exit(1)
	}
}
