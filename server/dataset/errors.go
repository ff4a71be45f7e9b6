package dataset

import "github.com/gear6io/stardog-go/pkg/errors"

var (
	ErrFixtureReadFailed   = errors.MustNewCode("dataset.fixture_read_failed")
	ErrFixtureParseFailed  = errors.MustNewCode("dataset.fixture_parse_failed")
	ErrFixtureInvalid      = errors.MustNewCode("dataset.fixture_invalid")
	ErrDatabaseNotFound    = errors.MustNewCode("dataset.database_not_found")
	ErrDatabaseOffline     = errors.MustNewCode("dataset.database_offline")
	ErrPaginationInvalid   = errors.MustNewCode("dataset.pagination_invalid")
	ErrStrategyUnsupported = errors.MustNewCode("dataset.strategy_unsupported")
)
