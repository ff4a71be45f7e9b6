package server

import "github.com/gear6io/stardog-go/pkg/errors"

var (
	ErrFixtureLoadFailed = errors.MustNewCode("server.fixture_load_failed")
	ErrListenFailed      = errors.MustNewCode("server.listen_failed")
	ErrAlreadyStarted    = errors.MustNewCode("server.already_started")
)
