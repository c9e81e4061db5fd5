package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLevel names the environment variable holding the log level.
const EnvLevel = "AS3CF_MIGRATE_LOG_LEVEL"

// Init sets up the global logger to write to w.
// AS3CF_MIGRATE_LOG_LEVEL controls the log level: debug, info, warn, error (default: info)
func Init(w io.Writer) {
	switch os.Getenv(EnvLevel) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
}
