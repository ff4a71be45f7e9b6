package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gear6io/stardog-go/client/history"
	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/pterm/pterm"
)

const maxQueryColumn = 60

// HistoryCommand shows and clears the local query history
type HistoryCommand struct {
	store *history.Store
	out   io.Writer
}

// NewHistoryCommand creates a new history command
func NewHistoryCommand(store *history.Store, out io.Writer) *HistoryCommand {
	return &HistoryCommand{store: store, out: out}
}

// List prints the n most recent entries
func (h *HistoryCommand) List(ctx context.Context, n int) error {
	entries, err := h.store.Recent(ctx, n)
	if err != nil {
		return errors.Wrap(ErrHistoryFailed, err, "failed to read history")
	}
	if len(entries) == 0 {
		fmt.Fprintln(h.out, "No queries recorded")
		return nil
	}

	data := pterm.TableData{{"Time", "Database", "Reasoning", "Bindings", "Duration", "Query"}}
	for _, e := range entries {
		bindings := strconv.Itoa(e.Bindings)
		if e.Failed() {
			bindings = "error"
		}
		data = append(data, []string{
			e.CreatedAt.Local().Format(time.DateTime),
			e.Database,
			strconv.FormatBool(e.Reasoning),
			bindings,
			e.Duration.Round(time.Millisecond).String(),
			abbreviate(e.Query, maxQueryColumn),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(ErrRenderFailed, err, "failed to render history")
	}
	fmt.Fprintln(h.out, table)
	return nil
}

// Clear removes every entry
func (h *HistoryCommand) Clear(ctx context.Context) error {
	n, err := h.store.Clear(ctx)
	if err != nil {
		return errors.Wrap(ErrHistoryFailed, err, "failed to clear history")
	}
	fmt.Fprintf(h.out, "Removed %d entries\n", n)
	return nil
}

// abbreviate collapses whitespace and cuts s to limit runes
func abbreviate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
