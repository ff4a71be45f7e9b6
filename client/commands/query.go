package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gear6io/stardog-go/client"
	"github.com/gear6io/stardog-go/client/history"
	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// QueryCommand runs SPARQL queries and prints their results
type QueryCommand struct {
	conn    *client.Connection
	history *history.Store // nil disables recording
	out     io.Writer
	logger  zerolog.Logger
}

// NewQueryCommand creates a new query command
func NewQueryCommand(conn *client.Connection, hist *history.Store, out io.Writer, logger zerolog.Logger) *QueryCommand {
	return &QueryCommand{
		conn:    conn,
		history: hist,
		out:     out,
		logger:  logger,
	}
}

// Execute runs a SELECT query and renders the bindings as a table
func (q *QueryCommand) Execute(ctx context.Context, req client.QueryRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return errors.New(ErrQueryEmpty, "query cannot be empty")
	}
	if strings.TrimSpace(req.Database) == "" {
		return errors.New(ErrDatabaseRequired, "database is required, set --database or query.database in the config")
	}

	q.logger.Debug().Str("database", req.Database).Msg("Executing SPARQL query")

	start := time.Now()
	rs, err := q.conn.Query(ctx, req)
	elapsed := time.Since(start)
	q.record(ctx, req, rs, elapsed, err)
	if err != nil {
		return errors.Wrap(ErrQueryFailed, err, "failed to execute query")
	}

	return q.displayResults(rs, elapsed)
}

// Ask runs an ASK query and prints its answer
func (q *QueryCommand) Ask(ctx context.Context, req client.QueryRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return errors.New(ErrQueryEmpty, "query cannot be empty")
	}
	if strings.TrimSpace(req.Database) == "" {
		return errors.New(ErrDatabaseRequired, "database is required, set --database or query.database in the config")
	}

	start := time.Now()
	res, err := q.conn.Ask(ctx, req)
	q.record(ctx, req, nil, time.Since(start), err)
	if err != nil {
		return errors.Wrap(ErrQueryFailed, err, "failed to execute ask query")
	}

	fmt.Fprintln(q.out, res.Boolean)
	return nil
}

func (q *QueryCommand) record(ctx context.Context, req client.QueryRequest, rs *client.ResultSet, elapsed time.Duration, queryErr error) {
	if q.history == nil {
		return
	}

	entry := &history.Entry{
		Database:  req.Database,
		Query:     req.Query,
		Reasoning: req.EffectiveReasoning(q.conn.Reasoning()),
		Duration:  elapsed,
	}
	if rs != nil {
		entry.Bindings = rs.Len()
	}
	if queryErr != nil {
		entry.Error = queryErr.Error()
	}

	// history is best effort; a failed write never fails the query
	if err := q.history.Record(ctx, entry); err != nil {
		q.logger.Warn().Err(err).Msg("Failed to record query history")
	}
}

func (q *QueryCommand) displayResults(rs *client.ResultSet, elapsed time.Duration) error {
	vars := rs.Head.Vars
	if len(vars) == 0 && rs.Len() > 0 {
		vars = bindingVars(rs.Results.Bindings)
	}

	if len(vars) > 0 && rs.Len() > 0 {
		data := pterm.TableData{vars}
		for _, b := range rs.Results.Bindings {
			row := make([]string, len(vars))
			for i, v := range vars {
				if term, ok := b[v]; ok {
					row[i] = term.String()
				}
			}
			data = append(data, row)
		}

		table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
		if err != nil {
			return errors.Wrap(ErrRenderFailed, err, "failed to render results")
		}
		fmt.Fprintln(q.out, table)
	}

	fmt.Fprintf(q.out, "%d binding(s) in %s\n", rs.Len(), elapsed.Round(time.Millisecond))
	return nil
}

// bindingVars collects variable names from the rows when the head has none
func bindingVars(bindings []client.Binding) []string {
	seen := map[string]bool{}
	var vars []string
	for _, b := range bindings {
		for name := range b {
			if !seen[name] {
				seen[name] = true
				vars = append(vars, name)
			}
		}
	}
	sort.Strings(vars)
	return vars
}
