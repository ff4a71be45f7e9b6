// Package history keeps a local SQLite log of queries run from the CLI.
// It is an audit trail, never consulted to answer a query.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/gear6io/stardog-go/utils"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Entry is one executed query
type Entry struct {
	bun.BaseModel `bun:"table:entries"`

	ID        string        `bun:"id,pk"`
	Database  string        `bun:"database,notnull"`
	Query     string        `bun:"query,notnull"`
	Reasoning bool          `bun:"reasoning,notnull"`
	Bindings  int           `bun:"bindings,notnull"`
	Duration  time.Duration `bun:"duration,notnull"`
	Error     string        `bun:"error"`
	CreatedAt time.Time     `bun:"created_at,notnull"`
}

// Failed reports whether the query returned an error
func (e *Entry) Failed() bool {
	return e.Error != ""
}

// Store is the history database
type Store struct {
	db     *bun.DB
	path   string
	logger zerolog.Logger
}

// Open opens or creates the history database at path and brings its schema
// up to date
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(ErrOpenFailed, err, "failed to create history directory").AddContext("path", path)
	}

	sqldb, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(ErrOpenFailed, err, "failed to open history database").AddContext("path", path)
	}
	// sqlite allows one writer at a time
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, errors.AsError(err).AddContext("path", path)
	}

	return &Store{
		db:     db,
		path:   path,
		logger: logger.With().Str("component", "history").Logger(),
	}, nil
}

// Record stores e, filling in ID and CreatedAt when unset
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = utils.GenerateULIDString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.NewInsert().Model(e).Exec(ctx); err != nil {
		return errors.Wrap(ErrWriteFailed, err, "failed to record query").AddContext("database", e.Database)
	}

	s.logger.Debug().Str("id", e.ID).Str("database", e.Database).Msg("Recorded query")
	return nil
}

// Recent returns up to n entries, newest first
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry
	q := s.db.NewSelect().Model(&entries).Order("created_at DESC", "id DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.Wrap(ErrReadFailed, err, "failed to read history")
	}
	return entries, nil
}

// Clear deletes every entry and returns how many were removed
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().Model((*Entry)(nil)).Where("1 = 1").Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(ErrWriteFailed, err, "failed to clear history")
	}
	n, _ := res.RowsAffected()
	s.logger.Info().Int64("removed", n).Msg("History cleared")
	return n, nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}
