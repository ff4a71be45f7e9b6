package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/sourcegraph/conc"
)

// SPARQLResultsJSON is the media type requested for SELECT and ASK results
const SPARQLResultsJSON = "application/sparql-results+json"

// QueryRequest describes one SPARQL query. Database and Query are required.
type QueryRequest struct {
	Database string
	Query    string

	// Limit and Offset are forwarded to the server as-is; nil sends nothing
	Limit  *int
	Offset *int

	// BaseURI resolves relative IRIs inside Query; empty leaves the server default
	BaseURI string

	// Reasoning overrides the connection flag for this call when non-nil
	Reasoning *bool
}

// Int returns a pointer to n, for QueryRequest.Limit and Offset
func Int(n int) *int { return &n }

// Bool returns a pointer to b, for QueryRequest.Reasoning
func Bool(b bool) *bool { return &b }

// Validate checks the request without touching the network
func (r QueryRequest) Validate() error {
	if err := validateDatabase(r.Database); err != nil {
		return err
	}
	if strings.TrimSpace(r.Query) == "" {
		return validationError("query is required")
	}
	if r.Limit != nil && *r.Limit < 0 {
		return validationError("limit must be non-negative, got %d", *r.Limit)
	}
	if r.Offset != nil && *r.Offset < 0 {
		return validationError("offset must be non-negative, got %d", *r.Offset)
	}
	if r.BaseURI != "" {
		if err := rdf.ValidateIRI(r.BaseURI); err != nil {
			return validationError("invalid baseURI: %v", err)
		}
	}
	return nil
}

// validateDatabase rejects names that cannot be sent as one path segment
func validateDatabase(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return validationError("database is required")
	case name == "." || name == "..", strings.ContainsAny(name, "/\\"):
		return validationError("invalid database name %q", name)
	}
	return nil
}

// EffectiveReasoning resolves the request flag against the connection flag
func (r QueryRequest) EffectiveReasoning(connection bool) bool {
	if r.Reasoning != nil {
		return *r.Reasoning
	}
	return connection
}

func (r QueryRequest) form(reasoning bool) url.Values {
	form := url.Values{}
	form.Set("query", r.Query)
	form.Set("reasoning", strconv.FormatBool(reasoning))
	if r.Limit != nil {
		form.Set("limit", strconv.Itoa(*r.Limit))
	}
	if r.Offset != nil {
		form.Set("offset", strconv.Itoa(*r.Offset))
	}
	if r.BaseURI != "" {
		form.Set("baseURI", r.BaseURI)
	}
	return form
}

// Query sends a SELECT query and returns its bindings. Exactly one request is
// made; results are neither truncated locally nor cached.
func (c *Connection) Query(ctx context.Context, req QueryRequest) (*ResultSet, error) {
	body, err := c.send(ctx, "query", req)
	if err != nil {
		return nil, err
	}

	rs, perr := parseResultSet(body)
	if perr != nil {
		return nil, perr.AddContext("database", req.Database)
	}

	c.logger.Debug().Str("database", req.Database).Int("bindings", rs.Len()).Msg("Query completed")
	return rs, nil
}

// Ask sends an ASK query and returns its boolean answer
func (c *Connection) Ask(ctx context.Context, req QueryRequest) (*AskResult, error) {
	body, err := c.send(ctx, "ask", req)
	if err != nil {
		return nil, err
	}

	res, perr := parseAskResult(body)
	if perr != nil {
		return nil, perr.AddContext("database", req.Database)
	}
	return res, nil
}

func (c *Connection) send(ctx context.Context, op string, req QueryRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	snap := c.snapshot()
	reasoning := req.EffectiveReasoning(snap.reasoning)

	c.logger.Debug().
		Str("op", op).
		Str("database", req.Database).
		Bool("reasoning", reasoning).
		Int("query_bytes", len(req.Query)).
		Msg("Sending query")

	start := time.Now()
	resp, err := c.transport.PostForm(ctx, snap.target, req.form(reasoning), SPARQLResultsJSON, req.Database, "query")
	if err != nil {
		c.logger.Debug().Err(err).Str("database", req.Database).Dur("elapsed", time.Since(start)).Msg("Query failed")
		return nil, transportError(err, op, req.Database)
	}

	c.logger.Debug().
		Str("database", req.Database).
		Str("request_id", resp.RequestID).
		Dur("elapsed", time.Since(start)).
		Msg("Query response received")

	return resp.Body, nil
}

// QueryAsync runs Query on its own goroutine and calls done exactly once
func (c *Connection) QueryAsync(ctx context.Context, req QueryRequest, done func(*ResultSet, error)) {
	go func() {
		done(c.Query(ctx, req))
	}()
}

// QueryBatch runs every request concurrently. Requests complete in any
// order; results and errors are indexed by request position.
func (c *Connection) QueryBatch(ctx context.Context, reqs []QueryRequest) ([]*ResultSet, []error) {
	results := make([]*ResultSet, len(reqs))
	errs := make([]error, len(reqs))

	var wg conc.WaitGroup
	for i := range reqs {
		wg.Go(func() {
			results[i], errs[i] = c.Query(ctx, reqs[i])
		})
	}
	wg.Wait()

	return results, errs
}
