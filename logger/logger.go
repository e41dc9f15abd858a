package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options selects where log lines go and how they look.
type Options struct {
	// File receives JSON log lines when set. Otherwise logs go to Out.
	File string
	// Pretty switches stdout output to zerolog's console format.
	Pretty bool
	// Level is one of trace, debug, info, warn or error. Empty means
	// LOG_LEVEL from the environment.
	Level string
	// Out defaults to os.Stdout.
	Out io.Writer
}

// New builds the process logger. The returned closer releases the log file
// and is a no-op for stdout.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	levelName := opts.Level
	if levelName == "" {
		levelName = os.Getenv("LOG_LEVEL")
	}
	level := ParseLevel(levelName)

	var (
		output io.Writer = opts.Out
		closer io.Closer = nopCloser{}
	)
	if output == nil {
		output = os.Stdout
	}

	switch {
	case opts.File != "":
		//nolint:gosec // G304: User-specified log file path is intentional
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		output = file
		closer = file
	case opts.Pretty:
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	log := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	event := log.Info().Str("level", level.String())
	switch {
	case opts.File != "":
		event = event.Str("path", opts.File)
	case opts.Pretty:
		event = event.Str("format", "pretty")
	}
	event.Msg("Logger initialized")

	return log, closer, nil
}

// InitWithOptions is New with the level taken from LOG_LEVEL.
func InitWithOptions(logFile string, pretty bool) (zerolog.Logger, io.Closer, error) {
	return New(Options{File: logFile, Pretty: pretty})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
