package log

import (
	"io"
	stdlog "log"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level       string `mapstructure:"level"`
	Pretty      bool   `mapstructure:"pretty"`
	ServiceName string `mapstructure:"service_name"`
}

var (
	global = zerolog.New(os.Stdout).With().Timestamp().Logger()
	once   sync.Once
)

// Init configures the process-wide logger from the service config.
// It runs at most once; later calls are no-ops.
func Init(cfg Config) {
	once.Do(func() {
		var w io.Writer = os.Stdout
		if cfg.Pretty {
			w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		}

		lvl, err := zerolog.ParseLevel(cfg.Level)
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}

		logCtx := zerolog.New(w).Level(lvl).With().Timestamp()
		if cfg.ServiceName != "" {
			logCtx = logCtx.Str(FieldService, cfg.ServiceName)
		}
		global = logCtx.Logger()

		// Anything still writing through the stdlib logger lands in the
		// same structured stream.
		stdlog.SetFlags(0)
		stdlog.SetOutput(global.With().Str("source", "stdlog").Logger())
	})
}

// L returns the process-wide logger.
func L() zerolog.Logger {
	return global
}
