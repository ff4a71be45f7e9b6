package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/rs/zerolog"
)

// LogManager owns the log file and rotates it on open
type LogManager struct {
	config     *LogConfig
	currentLog *os.File
}

// NewLogManager creates a new log manager
func NewLogManager(cfg *LogConfig) *LogManager {
	return &LogManager{
		config: cfg,
	}
}

// GetWriter opens the log file, rotating it first when it has grown past MaxSize
func (lm *LogManager) GetWriter() (io.Writer, error) {
	logDir := filepath.Dir(lm.config.FilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, errors.Wrap(ErrLogDirectoryCreationFailed, err, "failed to create log directory")
	}

	if err := lm.checkRotation(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(lm.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(ErrLogFileOpenFailed, err, "failed to open log file")
	}

	lm.currentLog = file
	return file, nil
}

func (lm *LogManager) checkRotation() error {
	if lm.config.MaxSize <= 0 {
		return nil
	}

	info, err := os.Stat(lm.config.FilePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(ErrLogFileStatFailed, err, "failed to stat log file")
	}

	if info.Size() < int64(lm.config.MaxSize)*1024*1024 {
		return nil
	}

	backupPath := fmt.Sprintf("%s.%s", lm.config.FilePath, time.Now().Format("2006-01-02-15-04-05"))
	if err := os.Rename(lm.config.FilePath, backupPath); err != nil {
		return errors.Wrap(ErrLogRotationFailed, err, "failed to rotate log file").AddContext("backup_path", backupPath)
	}
	return nil
}

// Close closes the log manager and any open files
func (lm *LogManager) Close() error {
	if lm.currentLog != nil {
		return lm.currentLog.Close()
	}
	return nil
}

// SetupLogger creates a configured zerolog logger based on the configuration
func SetupLogger(cfg *Config) (zerolog.Logger, *LogManager, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer

	if cfg.Log.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	logManager := NewLogManager(&cfg.Log)
	if cfg.Log.FilePath != "" {
		fileWriter, err := logManager.GetWriter()
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
		writers = append(writers, fileWriter)
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
		Str("component", "stardog-stub").
		Logger()

	return logger, logManager, nil
}
