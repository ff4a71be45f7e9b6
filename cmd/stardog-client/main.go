package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gear6io/stardog-go/client"
	"github.com/gear6io/stardog-go/client/commands"
	"github.com/gear6io/stardog-go/client/config"
	"github.com/gear6io/stardog-go/client/history"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app carries what every subcommand needs once the root command has
// resolved configuration
type app struct {
	cfg       *config.Config
	conn      *client.Connection
	history   *history.Store
	logger    zerolog.Logger
	logCloser io.Closer
}

type globalFlags struct {
	configFile string
	endpoint   string
	username   string
	password   string
	database   string
	reasoning  bool
	logLevel   string
	noHistory  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{}
	rootCmd := newRootCommand(a)

	err := rootCmd.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "stardog-client",
		Short: "Query a Stardog triplestore over its HTTP API",
		Long: `stardog-client sends SPARQL queries to a Stardog server and prints the
result bindings. It can also bring databases online or offline.

Examples:
  stardog-client query -d nodeDB "select distinct ?s where { ?s ?p ?o }" --limit 20
  stardog-client query -d nodeDBReasoning --reasoning "select ?s where { ?s a <urn:Vehicle> }"
  stardog-client db online nodeDB --no-wait
  stardog-client shell -d nodeDB`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file (default: search for "+config.FileName+")")
	pf.StringVar(&flags.endpoint, "endpoint", "", "server endpoint, e.g. http://localhost:5820/")
	pf.StringVarP(&flags.username, "user", "u", "", "username")
	pf.StringVarP(&flags.password, "password", "p", "", "password (prompted when --user is given without it)")
	pf.StringVarP(&flags.database, "database", "d", "", "database name")
	pf.BoolVar(&flags.reasoning, "reasoning", false, "enable reasoning for every query")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&flags.noHistory, "no-history", false, "do not record queries in the local history")

	rootCmd.AddCommand(
		newQueryCommand(a),
		newAskCommand(a),
		newShellCommand(a),
		newDatabaseCommand(a),
		newHistoryCommand(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, flags *globalFlags) error {
	var (
		cfg *config.Config
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.LoadFromFile(flags.configFile)
		if err == nil {
			cfg.ApplyEnv()
		}
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("endpoint") {
		cfg.Server.Endpoint = flags.endpoint
	}
	if changed("user") {
		cfg.Auth.Username = flags.username
		cfg.Auth.Password = ""
	}
	if changed("password") {
		cfg.Auth.Password = flags.password
	} else if changed("user") {
		password, err := promptPassword(cfg.Auth.Username)
		if err != nil {
			return err
		}
		cfg.Auth.Password = password
	}
	if changed("database") {
		cfg.Query.Database = flags.database
	}
	if changed("reasoning") {
		cfg.Query.Reasoning = flags.reasoning
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.noHistory {
		cfg.History.Enabled = false
	}

	logger, closer, err := config.SetupLogger(cfg.Logging, "stardog-client")
	if err != nil {
		return err
	}
	a.logger = logger
	a.logCloser = closer

	conn, err := client.New(cfg, logger)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.conn = conn

	if cfg.History.Enabled {
		hist, err := history.Open(cmd.Context(), cfg.History.Path, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Query history disabled")
		} else {
			a.history = hist
		}
	}
	return nil
}

func (a *app) close() {
	if a.history != nil {
		a.history.Close()
	}
	if a.conn != nil {
		a.conn.Close()
	}
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}

// promptPassword reads a password without echo when stdin is a terminal
func promptPassword(username string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

type queryFlags struct {
	limit     int
	offset    int
	baseURI   string
	reasoning string
	file      string
}

func (qf *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&qf.limit, "limit", 0, "maximum number of bindings")
	cmd.Flags().IntVar(&qf.offset, "offset", 0, "number of bindings to skip")
	cmd.Flags().StringVar(&qf.baseURI, "base-uri", "", "base IRI for relative IRIs in the query")
	cmd.Flags().StringVar(&qf.reasoning, "query-reasoning", "", "override reasoning for this query (true or false)")
	cmd.Flags().StringVarP(&qf.file, "file", "f", "", "read the query from a file")
}

// request builds a QueryRequest from positional args or --file
func (qf *queryFlags) request(cmd *cobra.Command, a *app, args []string) (client.QueryRequest, error) {
	query := strings.Join(args, " ")
	if qf.file != "" {
		data, err := os.ReadFile(qf.file)
		if err != nil {
			return client.QueryRequest{}, fmt.Errorf("failed to read query file: %w", err)
		}
		query = string(data)
	}

	req := client.QueryRequest{
		Database: a.cfg.Query.Database,
		Query:    query,
		BaseURI:  qf.baseURI,
	}

	switch {
	case cmd.Flags().Changed("limit"):
		req.Limit = client.Int(qf.limit)
	case a.cfg.Query.Limit > 0:
		req.Limit = client.Int(a.cfg.Query.Limit)
	}
	if cmd.Flags().Changed("offset") {
		req.Offset = client.Int(qf.offset)
	}
	if qf.reasoning != "" {
		switch strings.ToLower(qf.reasoning) {
		case "true", "on":
			req.Reasoning = client.Bool(true)
		case "false", "off":
			req.Reasoning = client.Bool(false)
		default:
			return client.QueryRequest{}, fmt.Errorf("--query-reasoning must be true or false, got %q", qf.reasoning)
		}
	}
	return req, nil
}

func newQueryCommand(a *app) *cobra.Command {
	qf := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query [sparql]",
		Short: "Run a SELECT query and print its bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := qf.request(cmd, a, args)
			if err != nil {
				return err
			}
			return commands.NewQueryCommand(a.conn, a.history, cmd.OutOrStdout(), a.logger).Execute(cmd.Context(), req)
		},
	}
	qf.register(cmd)
	return cmd
}

func newAskCommand(a *app) *cobra.Command {
	qf := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "ask [sparql]",
		Short: "Run an ASK query and print true or false",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := qf.request(cmd, a, args)
			if err != nil {
				return err
			}
			return commands.NewQueryCommand(a.conn, a.history, cmd.OutOrStdout(), a.logger).Ask(cmd.Context(), req)
		},
	}
	qf.register(cmd)
	return cmd
}

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive SPARQL shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			qc := commands.NewQueryCommand(a.conn, a.history, cmd.OutOrStdout(), a.logger)
			shell := commands.NewShell(a.conn, qc, a.cfg.Query.Database, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger)
			return shell.Run(cmd.Context())
		},
	}
}

func newDatabaseCommand(a *app) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Manage databases on the server",
	}

	var noWait bool
	onlineCmd := &cobra.Command{
		Use:   "online <database>",
		Short: "Bring a database online",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.NewDatabaseCommand(a.conn, cmd.OutOrStdout(), a.logger).Online(cmd.Context(), args[0], !noWait)
		},
	}
	onlineCmd.Flags().BoolVar(&noWait, "no-wait", false, "return before the database has finished starting")

	var (
		offlineNoWait bool
		timeout       time.Duration
	)
	offlineCmd := &cobra.Command{
		Use:   "offline <database>",
		Short: "Take a database offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.NewDatabaseCommand(a.conn, cmd.OutOrStdout(), a.logger).Offline(cmd.Context(), args[0], !offlineNoWait, timeout)
		},
	}
	offlineCmd.Flags().BoolVar(&offlineNoWait, "no-wait", false, "do not wait for open transactions")
	offlineCmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "how long to wait for open transactions")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.NewDatabaseCommand(a.conn, cmd.OutOrStdout(), a.logger).List(cmd.Context())
		},
	}

	sizeCmd := &cobra.Command{
		Use:   "size <database>",
		Short: "Print the number of triples in a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.NewDatabaseCommand(a.conn, cmd.OutOrStdout(), a.logger).Size(cmd.Context(), args[0])
		},
	}

	dbCmd.AddCommand(onlineCmd, offlineCmd, listCmd, sizeCmd)
	return dbCmd
}

func newHistoryCommand(a *app) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the local query history",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.history == nil {
				return fmt.Errorf("query history is disabled")
			}
			return commands.NewHistoryCommand(a.history, cmd.OutOrStdout()).List(cmd.Context(), limit)
		},
	}
	listCmd.Flags().IntVarP(&limit, "number", "n", 20, "number of entries to show (0 for all)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.history == nil {
				return fmt.Errorf("query history is disabled")
			}
			return commands.NewHistoryCommand(a.history, cmd.OutOrStdout()).Clear(cmd.Context())
		},
	}

	historyCmd.AddCommand(listCmd, clearCmd)
	return historyCmd
}
