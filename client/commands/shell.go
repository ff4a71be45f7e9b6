package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gear6io/stardog-go/client"
	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/rs/zerolog"
)

const shellHelp = `Enter a SPARQL query, finish it with an empty line.
  \db <name>          switch database
  \reasoning on|off   toggle reasoning for this session
  \limit <n>|off      set or clear the result limit
  \ask                run the buffered query as ASK
  \reset              discard the buffered query
  \help               show this help
  \q                  quit`

// Shell is an interactive read-eval-print loop over a connection
type Shell struct {
	conn     *client.Connection
	query    *QueryCommand
	in       io.Reader
	out      io.Writer
	logger   zerolog.Logger
	database string
	limit    *int
}

// NewShell creates a shell starting on database
func NewShell(conn *client.Connection, query *QueryCommand, database string, in io.Reader, out io.Writer, logger zerolog.Logger) *Shell {
	return &Shell{
		conn:     conn,
		query:    query,
		in:       in,
		out:      out,
		logger:   logger,
		database: database,
	}
}

// Run reads until EOF or \q. Query failures are printed, not returned.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "Connected to %s (type \\help for help)\n", s.conn.Endpoint())

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var buf []string
	s.prompt(len(buf) > 0)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, `\`):
			quit, ask := s.meta(trimmed, &buf)
			if quit {
				return nil
			}
			if ask {
				s.run(ctx, buf, true)
				buf = nil
			}
		case trimmed == "":
			if len(buf) > 0 {
				s.run(ctx, buf, false)
				buf = nil
			}
		default:
			buf = append(buf, line)
		}

		s.prompt(len(buf) > 0)
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(ErrShellInput, err, "failed to read input")
	}

	// EOF submits whatever is buffered
	if len(buf) > 0 {
		s.run(ctx, buf, false)
	}
	return nil
}

func (s *Shell) prompt(continuation bool) {
	if continuation {
		fmt.Fprint(s.out, "   ...> ")
		return
	}
	fmt.Fprintf(s.out, "%s> ", s.database)
}

func (s *Shell) run(ctx context.Context, lines []string, ask bool) {
	req := client.QueryRequest{
		Database: s.database,
		Query:    strings.Join(lines, "\n"),
		Limit:    s.limit,
	}

	var err error
	if ask {
		err = s.query.Ask(ctx, req)
	} else {
		err = s.query.Execute(ctx, req)
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("Shell query failed")
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

// meta handles a backslash command
func (s *Shell) meta(line string, buf *[]string) (quit, ask bool) {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case `\q`, `\quit`:
		return true, false
	case `\help`, `\?`:
		fmt.Fprintln(s.out, shellHelp)
	case `\db`:
		if arg == "" {
			fmt.Fprintf(s.out, "Current database: %s\n", s.database)
			break
		}
		s.database = arg
	case `\reasoning`:
		switch strings.ToLower(arg) {
		case "on", "true":
			s.conn.SetReasoning(true)
		case "off", "false":
			s.conn.SetReasoning(false)
		}
		fmt.Fprintf(s.out, "Reasoning: %t\n", s.conn.Reasoning())
	case `\limit`:
		if arg == "off" || arg == "" {
			s.limit = nil
		} else if n, err := strconv.Atoi(arg); err == nil && n >= 0 {
			s.limit = &n
		} else {
			fmt.Fprintf(s.out, "Invalid limit %q\n", arg)
		}
	case `\ask`:
		if len(*buf) == 0 {
			fmt.Fprintln(s.out, "Nothing to ask")
			break
		}
		return false, true
	case `\reset`:
		*buf = nil
	default:
		fmt.Fprintf(s.out, "Unknown command %s\n", fields[0])
	}
	return false, false
}
