package history

import "github.com/gear6io/stardog-go/pkg/errors"

// Package-specific error codes for query history
var (
	ErrOpenFailed      = errors.MustNewCode("history.open_failed")
	ErrMigrationFailed = errors.MustNewCode("history.migration_failed")
	ErrWriteFailed     = errors.MustNewCode("history.write_failed")
	ErrReadFailed      = errors.MustNewCode("history.read_failed")
)
