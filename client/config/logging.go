package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/rs/zerolog"
)

// SetupLogger builds the client logger. The returned closer releases the log
// file, if one was opened.
func SetupLogger(cfg LogConfig, component string) (zerolog.Logger, io.Closer, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return zerolog.Logger{}, nil, errors.Wrap(ErrLogDirectoryCreationFailed, err, "failed to create log directory").
				AddContext("path", cfg.FilePath)
		}

		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Logger{}, nil, errors.Wrap(ErrLogFileOpenFailed, err, "failed to open log file").
				AddContext("path", cfg.FilePath)
		}
		writers = append(writers, file)
		closer = file
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
