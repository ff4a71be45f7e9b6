package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/uptrace/bun"
)

// Migration is one versioned schema change
type Migration interface {
	Version() int
	Name() string
	Up(ctx context.Context, tx bun.Tx) error
}

type migrationRecord struct {
	bun.BaseModel `bun:"table:history_migrations"`

	Version   int       `bun:"version,pk"`
	Name      string    `bun:"name,notnull"`
	AppliedAt time.Time `bun:"applied_at,notnull"`
}

// migration001 creates the entries table
type migration001 struct{}

func (m *migration001) Version() int { return 1 }
func (m *migration001) Name() string { return "create_entries" }

func (m *migration001) Up(ctx context.Context, tx bun.Tx) error {
	if _, err := tx.NewCreateTable().
		Model((*Entry)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(ErrMigrationFailed, err, "failed to create entries table")
	}

	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at)`); err != nil {
		return errors.Wrap(ErrMigrationFailed, err, "failed to create entries index")
	}
	return nil
}

func availableMigrations() []Migration {
	return []Migration{
		&migration001{},
	}
}

// migrate applies every pending migration in a single transaction
func migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*migrationRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(ErrMigrationFailed, err, "failed to create migrations table")
	}

	var current int
	err := db.NewSelect().
		Model((*migrationRecord)(nil)).
		Column("version").
		Order("version DESC").
		Limit(1).
		Scan(ctx, &current)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrap(ErrMigrationFailed, err, "failed to read schema version")
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range availableMigrations() {
			if m.Version() <= current {
				continue
			}
			if err := m.Up(ctx, tx); err != nil {
				return err
			}

			record := &migrationRecord{Version: m.Version(), Name: m.Name(), AppliedAt: time.Now().UTC()}
			if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
				return errors.Wrapf(ErrMigrationFailed, err, "failed to record migration %d", m.Version())
			}
		}
		return nil
	})
}
