package client

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Strategy controls whether a lifecycle call returns before the database has
// finished changing state
type Strategy string

const (
	StrategyWait   Strategy = "WAIT"
	StrategyNoWait Strategy = "NO_WAIT"
)

// OnlineRequest brings Database online
type OnlineRequest struct {
	Database string
	Strategy Strategy // empty means StrategyWait
}

// OfflineRequest takes Database offline, waiting up to Timeout for open
// transactions when Strategy is StrategyWait
type OfflineRequest struct {
	Database string
	Strategy Strategy
	Timeout  time.Duration
}

func resolveStrategy(s Strategy) (Strategy, error) {
	switch s {
	case "":
		return StrategyWait, nil
	case StrategyWait, StrategyNoWait:
		return s, nil
	default:
		return "", validationError("unknown strategy %q", string(s))
	}
}

// OnlineDB asks the server to bring a database online. The server does the
// work; queries against the database should wait for this to return.
func (c *Connection) OnlineDB(ctx context.Context, req OnlineRequest) error {
	if err := validateDatabase(req.Database); err != nil {
		return err
	}
	strategy, err := resolveStrategy(req.Strategy)
	if err != nil {
		return err
	}

	snap := c.snapshot()
	body := map[string]interface{}{"strategy": string(strategy)}
	if _, err := c.transport.PutJSON(ctx, snap.target, body, "admin", "databases", req.Database, "online"); err != nil {
		return transportError(err, "online", req.Database)
	}

	c.logger.Info().Str("database", req.Database).Str("strategy", string(strategy)).Msg("Database online")
	return nil
}

// OfflineDB asks the server to take a database offline
func (c *Connection) OfflineDB(ctx context.Context, req OfflineRequest) error {
	if err := validateDatabase(req.Database); err != nil {
		return err
	}
	if req.Timeout < 0 {
		return validationError("timeout must be non-negative, got %s", req.Timeout)
	}
	strategy, err := resolveStrategy(req.Strategy)
	if err != nil {
		return err
	}

	snap := c.snapshot()
	body := map[string]interface{}{
		"strategy": string(strategy),
		"timeout":  req.Timeout.Milliseconds(),
	}
	if _, err := c.transport.PutJSON(ctx, snap.target, body, "admin", "databases", req.Database, "offline"); err != nil {
		return transportError(err, "offline", req.Database)
	}

	c.logger.Info().Str("database", req.Database).Str("strategy", string(strategy)).Msg("Database offline")
	return nil
}

// ListDatabases returns the names of the databases on the server
func (c *Connection) ListDatabases(ctx context.Context) ([]string, error) {
	snap := c.snapshot()
	resp, err := c.transport.Get(ctx, snap.target, "application/json", "admin", "databases")
	if err != nil {
		return nil, transportError(err, "list databases", "")
	}

	list := gjson.GetBytes(resp.Body, "databases")
	if !gjson.ValidBytes(resp.Body) || !list.IsArray() {
		return nil, malformed("response has no databases array", resp.Body)
	}

	names := []string{}
	for _, v := range list.Array() {
		if v.Type != gjson.String {
			return nil, malformed("database names must be strings", resp.Body)
		}
		names = append(names, v.String())
	}
	return names, nil
}

// DatabaseSize returns the number of triples in database
func (c *Connection) DatabaseSize(ctx context.Context, database string) (int64, error) {
	if err := validateDatabase(database); err != nil {
		return 0, err
	}

	snap := c.snapshot()
	resp, err := c.transport.Get(ctx, snap.target, "text/plain", database, "size")
	if err != nil {
		return 0, transportError(err, "size", database)
	}

	size, err := strconv.ParseInt(strings.TrimSpace(string(resp.Body)), 10, 64)
	if err != nil || size < 0 {
		e := malformed("size response is not a non-negative integer", resp.Body)
		if err != nil {
			e.WithCause(err)
		}
		return 0, e.AddContext("database", database)
	}
	return size, nil
}
