package commands

import "github.com/gear6io/stardog-go/pkg/errors"

// Package-specific error codes for CLI commands
var (
	ErrQueryEmpty       = errors.MustNewCode("commands.query_empty")
	ErrQueryFailed      = errors.MustNewCode("commands.query_failed")
	ErrDatabaseRequired = errors.MustNewCode("commands.database_required")
	ErrLifecycleFailed  = errors.MustNewCode("commands.lifecycle_failed")
	ErrRenderFailed     = errors.MustNewCode("commands.render_failed")
	ErrHistoryFailed    = errors.MustNewCode("commands.history_failed")
	ErrShellInput       = errors.MustNewCode("commands.shell_input_failed")
)
