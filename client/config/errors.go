package config

import "github.com/gear6io/stardog-go/pkg/errors"

// Error codes for client config package
var (
	// File operation errors
	ErrConfigFileReadFailed    = errors.MustNewCode("client_config.file_read_failed")
	ErrConfigFileParseFailed   = errors.MustNewCode("client_config.file_parse_failed")
	ErrConfigFileWriteFailed   = errors.MustNewCode("client_config.file_write_failed")
	ErrConfigFileMarshalFailed = errors.MustNewCode("client_config.file_marshal_failed")

	// Validation errors
	ErrEndpointEmpty   = errors.MustNewCode("client_config.endpoint_empty")
	ErrEndpointInvalid = errors.MustNewCode("client_config.endpoint_invalid")
	ErrTimeoutInvalid  = errors.MustNewCode("client_config.timeout_invalid")
	ErrLimitInvalid    = errors.MustNewCode("client_config.default_limit_invalid")

	// Logging
	ErrLogDirectoryCreationFailed = errors.MustNewCode("client_config.log_directory_creation_failed")
	ErrLogFileOpenFailed          = errors.MustNewCode("client_config.log_file_open_failed")
)
