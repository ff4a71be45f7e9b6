package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gear6io/stardog-go/client"
	"github.com/gear6io/stardog-go/client/history"
	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/gear6io/stardog-go/server"
	serverconfig "github.com/gear6io/stardog-go/server/config"
	"github.com/gear6io/stardog-go/server/dataset"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

type harness struct {
	conn    *client.Connection
	store   *dataset.Store
	history *history.Store
	out     *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := serverconfig.LoadDefaultConfig()
	cfg.Listen.Port = 0
	srv, err := server.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Shutdown() })

	conn := client.NewConnection(srv.URL(), zerolog.Nop())
	conn.SetCredentials("admin", "admin")

	hist, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = hist.Close() })

	return &harness{conn: conn, store: srv.Store(), history: hist, out: &bytes.Buffer{}}
}

func (h *harness) queryCommand() *QueryCommand {
	return NewQueryCommand(h.conn, h.history, h.out, zerolog.Nop())
}

func TestQueryExecute(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.queryCommand().Execute(ctx, client.QueryRequest{
		Database: "nodeDB",
		Query:    "select distinct ?s where { ?s ?p ?o }",
		Limit:    client.Int(20),
	})
	require.NoError(t, err)

	out := h.out.String()
	assert.Contains(t, out, "<http://localhost/publications/persons/Paul_Erdoes>")
	assert.Contains(t, out, "6 binding(s)")

	entries, err := h.history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "nodeDB", entries[0].Database)
	assert.Equal(t, 6, entries[0].Bindings)
	assert.False(t, entries[0].Failed())
}

func TestQueryExecuteRecordsFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.queryCommand().Execute(ctx, client.QueryRequest{Database: "missing", Query: "select * where { ?s ?p ?o }"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrQueryFailed))
	assert.True(t, client.IsTransport(err))

	entries, err := h.history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Failed())
}

func TestQueryExecuteRequiresInput(t *testing.T) {
	h := newHarness(t)
	q := h.queryCommand()

	err := q.Execute(context.Background(), client.QueryRequest{Database: "nodeDB", Query: " "})
	assert.True(t, errors.HasCode(err, ErrQueryEmpty))

	err = q.Execute(context.Background(), client.QueryRequest{Query: "ask {}"})
	assert.True(t, errors.HasCode(err, ErrDatabaseRequired))

	assert.Empty(t, h.store.Requests())
}

func TestQueryWithoutHistory(t *testing.T) {
	h := newHarness(t)
	q := NewQueryCommand(h.conn, nil, h.out, zerolog.Nop())

	require.NoError(t, q.Execute(context.Background(), client.QueryRequest{Database: "nodeDB", Query: "select ?x where { ?x a <urn:none> }"}))
	assert.Contains(t, h.out.String(), "0 binding(s)")
}

func TestAskCommand(t *testing.T) {
	h := newHarness(t)

	err := h.queryCommand().Ask(context.Background(), client.QueryRequest{
		Database: "nodeDB",
		Query:    "ask { <http://localhost/publications/articles/Journal1/1940/Article1> ?p ?o }",
	})
	require.NoError(t, err)
	assert.Equal(t, "true\n", h.out.String())
}

func TestDatabaseCommand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := NewDatabaseCommand(h.conn, h.out, zerolog.Nop())

	require.NoError(t, d.Online(ctx, "catalogDB", false))
	assert.True(t, h.store.IsOnline("catalogDB"))
	assert.Equal(t, "NO_WAIT", h.store.Requests()[0].Params["strategy"])

	require.NoError(t, d.Offline(ctx, "catalogDB", true, time.Second))
	assert.False(t, h.store.IsOnline("catalogDB"))

	require.NoError(t, d.List(ctx))
	require.NoError(t, d.Size(ctx, "nodeDB"))

	out := h.out.String()
	assert.Contains(t, out, "nodeDBReasoning")
	assert.Contains(t, out, "nodeDB: 15 triples")

	err := d.Size(ctx, "catalogDB")
	assert.True(t, errors.HasCode(err, ErrLifecycleFailed))
}

func TestHistoryCommand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hc := NewHistoryCommand(h.history, h.out)

	require.NoError(t, hc.List(ctx, 10))
	assert.Contains(t, h.out.String(), "No queries recorded")

	require.NoError(t, h.queryCommand().Execute(ctx, client.QueryRequest{Database: "nodeDB", Query: "select * where { ?s ?p ?o }"}))
	h.out.Reset()

	require.NoError(t, hc.List(ctx, 10))
	assert.Contains(t, h.out.String(), "select * where { ?s ?p ?o }")

	h.out.Reset()
	require.NoError(t, hc.Clear(ctx))
	assert.Contains(t, h.out.String(), "Removed 1 entries")
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "select * where { ?s ?p ?o }", abbreviate("select *\n  where { ?s ?p ?o }", 60))
	assert.Equal(t, "abcdefg...", abbreviate(strings.Repeat("abcdefghij", 3), 10))
}

func TestShell(t *testing.T) {
	h := newHarness(t)

	input := strings.Join([]string{
		`select distinct ?s`,
		`where { ?s ?p ?o }`,
		``,
		`\db nodeDBReasoning`,
		`\reasoning on`,
		`select distinct ?s where { ?s a <http://example.org/vehicles/Vehicle> }`,
		``,
		`ask { <http://example.org/vehicles/car1> a <http://example.org/vehicles/Vehicle> }`,
		`\ask`,
		`\limit 1`,
		`select distinct ?s where { ?s a <http://example.org/vehicles/Car> }`,
		``,
		`select nothing`,
		`\reset`,
		`\bogus`,
		`\q`,
		`select never sent`,
	}, "\n")

	shell := NewShell(h.conn, h.queryCommand(), "nodeDB", strings.NewReader(input), h.out, zerolog.Nop())
	require.NoError(t, shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "6 binding(s)")
	assert.Contains(t, out, "3 binding(s)")
	assert.Contains(t, out, "Reasoning: true")
	assert.Contains(t, out, "true\n")
	assert.Contains(t, out, "1 binding(s)")
	assert.Contains(t, out, "Unknown command \\bogus")

	reqs := h.store.Requests()
	require.Len(t, reqs, 4)
	assert.Equal(t, "nodeDB", reqs[0].Database)
	assert.Equal(t, "select distinct ?s\nwhere { ?s ?p ?o }", reqs[0].Params["query"])
	assert.Equal(t, "nodeDBReasoning", reqs[1].Database)
	assert.Equal(t, "true", reqs[1].Params["reasoning"])
	assert.Equal(t, "1", reqs[3].Params["limit"])
}

func TestShellSubmitsOnEOF(t *testing.T) {
	h := newHarness(t)

	shell := NewShell(h.conn, h.queryCommand(), "nodeDB", strings.NewReader("select * where { ?s ?p ?o }"), h.out, zerolog.Nop())
	require.NoError(t, shell.Run(context.Background()))
	assert.Contains(t, h.out.String(), "15 binding(s)")
}

func TestShellReportsErrors(t *testing.T) {
	h := newHarness(t)

	shell := NewShell(h.conn, h.queryCommand(), "missing", strings.NewReader("select * where { ?s ?p ?o }\n\n"), h.out, zerolog.Nop())
	require.NoError(t, shell.Run(context.Background()))
	assert.Contains(t, h.out.String(), "Error:")
}
