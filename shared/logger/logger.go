package logger

import (
	"io"
	"os"
	"time"
	"tourbook/config"
	"tourbook/shared/constant"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Development gets a console writer,
// every other environment emits JSON lines tagged with the app name.
func Init(cfg *config.Config) {
	Setup(cfg, os.Stdout)
}

// Setup is Init with an explicit destination.
func Setup(cfg *config.Config, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Server.Env == constant.ServerEnvDevelopment {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Str("app", cfg.App.Name).Logger()

	zerolog.SetGlobalLevel(Level(cfg.Server.LogLevel))
}

// Level parses a zerolog level name, falling back to info.
func Level(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return level
}

func ErrorWithStack(err error) {
	log.Error().Msgf("%+v", errors.WithStack(err))
}
