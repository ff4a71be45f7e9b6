package errors

import (
	"fmt"
	"sort"
	"strings"

	fe "github.com/go-faster/errors"
)

// As returns the first *Error in err's chain
func As(err error) (*Error, bool) {
	var coded *Error
	if fe.As(err, &coded) {
		return coded, true
	}
	return nil, false
}

// HasCode reports whether any *Error in err's chain carries code
func HasCode(err error, code Code) bool {
	for err != nil {
		coded, ok := As(err)
		if !ok {
			return false
		}
		if coded.Code.Equals(code) {
			return true
		}
		err = coded.Cause
	}
	return false
}

// GetCode returns the outermost code in err's chain, or ""
func GetCode(err error) string {
	if coded, ok := As(err); ok {
		return coded.Code.String()
	}
	return ""
}

// GetContext returns the context of the outermost *Error in err's chain
func GetContext(err error) map[string]string {
	if coded, ok := As(err); ok {
		return coded.Context
	}
	return nil
}

// FormatError renders err for multi-line log output
func FormatError(err error) string {
	coded, ok := As(err)
	if !ok {
		return err.Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Code: %s", coded.Code))
	parts = append(parts, fmt.Sprintf("Message: %s", coded.Message))

	if len(coded.Context) > 0 {
		keys := make([]string, 0, len(coded.Context))
		for k := range coded.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts = append(parts, "Context:")
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("  %s: %v", k, coded.Context[k]))
		}
	}

	if coded.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", coded.Cause))
	}

	return strings.Join(parts, "\n")
}

// AsError converts any error into an *Error, wrapping foreign errors as internal
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if coded, ok := As(err); ok {
		return coded
	}
	return Wrap(CommonInternal, err, err.Error())
}
