package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gear6io/stardog-go/client"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// probe is one query with the binding count a seeded server returns for it
type probe struct {
	req  client.QueryRequest
	want int
}

func probes() []probe {
	vehicle := "select distinct ?s where { ?s a <http://example.org/vehicles/Vehicle> }"
	return []probe{
		{client.QueryRequest{Database: "nodeDB", Query: "select distinct ?s where { ?s ?p ?o }", Limit: client.Int(20), Offset: client.Int(0)}, 6},
		{client.QueryRequest{Database: "nodeDB", Query: "select * where { ?s ?p ?o }", Limit: client.Int(10), Offset: client.Int(0)}, 10},
		{client.QueryRequest{Database: "nodeDBReasoning", Query: vehicle, Reasoning: client.Bool(true)}, 3},
		{client.QueryRequest{Database: "nodeDBReasoning", Query: vehicle, Reasoning: client.Bool(false)}, 0},
		{client.QueryRequest{Database: "nodeDBReasoning", Query: "select distinct ?s where { ?s a <http://example.org/vehicles/SportsCar> }"}, 1},
	}
}

func main() {
	var (
		endpoint string
		username string
		password string
		rounds   int
	)

	cmd := &cobra.Command{
		Use:          "query-load",
		Short:        "Fire concurrent query batches at a seeded server and check every answer",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			return run(cmd.Context(), logger, endpoint, username, password, rounds)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "http://127.0.0.1:5820/", "server endpoint")
	cmd.Flags().StringVar(&username, "user", "admin", "username")
	cmd.Flags().StringVar(&password, "password", "admin", "password")
	cmd.Flags().IntVar(&rounds, "rounds", 50, "number of batches")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, logger zerolog.Logger, endpoint, username, password string, rounds int) error {
	conn := client.NewConnection(endpoint, logger)
	conn.SetCredentials(username, password)
	defer conn.Close()

	if err := conn.OnlineDB(ctx, client.OnlineRequest{Database: "nodeDB", Strategy: client.StrategyNoWait}); err != nil {
		return err
	}
	logger.Info().Str("endpoint", endpoint).Int("rounds", rounds).Msg("Starting query load")

	ps := probes()
	reqs := make([]client.QueryRequest, len(ps))
	for i, p := range ps {
		reqs[i] = p.req
	}

	var latencies []time.Duration
	mismatches := 0
	for round := 0; round < rounds; round++ {
		start := time.Now()
		results, errs := conn.QueryBatch(ctx, reqs)
		latencies = append(latencies, time.Since(start))

		for i, err := range errs {
			if err != nil {
				return err
			}
			if got := results[i].Len(); got != ps[i].want {
				mismatches++
				logger.Error().
					Int("round", round).
					Str("database", ps[i].req.Database).
					Int("want", ps[i].want).
					Int("got", got).
					Msg("Unexpected binding count")
			}
		}
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	logger.Info().
		Int("batches", len(latencies)).
		Int("queries", len(latencies)*len(reqs)).
		Dur("p50", percentile(latencies, 50)).
		Dur("p99", percentile(latencies, 99)).
		Int("mismatches", mismatches).
		Msg("Query load completed")

	if mismatches > 0 {
		return fmt.Errorf("%d answers did not match the seeded dataset", mismatches)
	}
	return nil
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*p + 99) / 100
	if idx > 0 {
		idx--
	}
	return sorted[idx]
}
