package client

import (
	"strconv"

	httpproto "github.com/gear6io/stardog-go/client/protocols/http"
	"github.com/gear6io/stardog-go/pkg/errors"
	fe "github.com/go-faster/errors"
)

// Error codes for client package
var (
	// Request rejected before any network activity
	ErrValidation = errors.MustNewCode("client.validation_failed")

	// Connection refused, timeout, cancelled context or non-2xx status
	ErrTransport = errors.MustNewCode("client.transport_failed")

	// Body does not have the expected shape
	ErrMalformedResponse = errors.MustNewCode("client.malformed_response")

	ErrConfigInvalid = errors.MustNewCode("client.config_invalid")
)

// IsValidation reports whether err was raised by request validation
func IsValidation(err error) bool {
	return errors.HasCode(err, ErrValidation)
}

// IsTransport reports whether err is a transport or HTTP status failure
func IsTransport(err error) bool {
	return errors.HasCode(err, ErrTransport)
}

// IsMalformed reports whether err is a response-shape failure
func IsMalformed(err error) bool {
	return errors.HasCode(err, ErrMalformedResponse)
}

// StatusCode returns the HTTP status carried by a transport failure, or 0
// when no response was received
func StatusCode(err error) int {
	var statusErr *httpproto.StatusError
	if fe.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func transportError(err error, op, database string) *errors.Error {
	e := errors.Wrapf(ErrTransport, err, "%s request failed", op)
	if database != "" {
		e.AddContext("database", database)
	}

	var statusErr *httpproto.StatusError
	if fe.As(err, &statusErr) {
		e.AddContext("status_code", strconv.Itoa(statusErr.StatusCode))
		e.AddContext("request_id", statusErr.RequestID)
	}
	return e
}

func validationError(format string, args ...interface{}) *errors.Error {
	return errors.Newf(ErrValidation, format, args...)
}
