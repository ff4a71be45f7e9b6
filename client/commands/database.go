package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gear6io/stardog-go/client"
	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// DatabaseCommand drives the server's database lifecycle API
type DatabaseCommand struct {
	conn   *client.Connection
	out    io.Writer
	logger zerolog.Logger
}

// NewDatabaseCommand creates a new database command
func NewDatabaseCommand(conn *client.Connection, out io.Writer, logger zerolog.Logger) *DatabaseCommand {
	return &DatabaseCommand{conn: conn, out: out, logger: logger}
}

// Online brings database online
func (d *DatabaseCommand) Online(ctx context.Context, database string, wait bool) error {
	req := client.OnlineRequest{Database: database, Strategy: strategy(wait)}
	if err := d.conn.OnlineDB(ctx, req); err != nil {
		return errors.Wrap(ErrLifecycleFailed, err, "failed to bring database online").AddContext("database", database)
	}
	fmt.Fprintf(d.out, "Database %s is online\n", database)
	return nil
}

// Offline takes database offline
func (d *DatabaseCommand) Offline(ctx context.Context, database string, wait bool, timeout time.Duration) error {
	req := client.OfflineRequest{Database: database, Strategy: strategy(wait), Timeout: timeout}
	if err := d.conn.OfflineDB(ctx, req); err != nil {
		return errors.Wrap(ErrLifecycleFailed, err, "failed to take database offline").AddContext("database", database)
	}
	fmt.Fprintf(d.out, "Database %s is offline\n", database)
	return nil
}

// List prints the databases on the server
func (d *DatabaseCommand) List(ctx context.Context) error {
	names, err := d.conn.ListDatabases(ctx)
	if err != nil {
		return errors.Wrap(ErrLifecycleFailed, err, "failed to list databases")
	}

	items := make([]pterm.BulletListItem, len(names))
	for i, name := range names {
		items[i] = pterm.BulletListItem{Level: 0, Text: name}
	}
	list, err := pterm.DefaultBulletList.WithItems(items).Srender()
	if err != nil {
		return errors.Wrap(ErrRenderFailed, err, "failed to render database list")
	}
	fmt.Fprint(d.out, list)
	return nil
}

// Size prints the triple count of database
func (d *DatabaseCommand) Size(ctx context.Context, database string) error {
	size, err := d.conn.DatabaseSize(ctx, database)
	if err != nil {
		return errors.Wrap(ErrLifecycleFailed, err, "failed to read database size").AddContext("database", database)
	}
	fmt.Fprintf(d.out, "%s: %d triples\n", database, size)
	return nil
}

func strategy(wait bool) client.Strategy {
	if wait {
		return client.StrategyWait
	}
	return client.StrategyNoWait
}
