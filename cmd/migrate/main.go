package main

import (
	"errors"
	"os"
	"tourbook/config"
	"tourbook/helper"
	"tourbook/shared/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Get()

	logger.Init(cfg)

	if len(os.Args) < 2 {
		log.Fatal().Msg("Migration action is required: up, down, step-up or drop")
	}

	if err := helper.Run(cfg, helper.Action(os.Args[1])); err != nil {
		if errors.Is(err, helper.ErrUnknownAction) {
			log.Fatal().Err(err).Msg("Use up, down, step-up or drop")
		}

		log.Fatal().Err(err).Msg("Migration failed")
	}
}
