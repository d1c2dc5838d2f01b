// bls-pull is a one-shot CLI that pulls national and Louisiana-parish labor
// statistics from the BLS public API, pivots them into a wide monthly table,
// left-joins parish rows with national reference columns, and writes the
// merged table to CSV (and optionally PostgreSQL).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/laborstats/bls-client/pkg/catalog"
	"github.com/laborstats/bls-client/pkg/client"
	"github.com/laborstats/bls-client/pkg/config"
	"github.com/laborstats/bls-client/pkg/export"
	"github.com/laborstats/bls-client/pkg/fetch"
	"github.com/laborstats/bls-client/pkg/logging"
	"github.com/laborstats/bls-client/pkg/ratelimit"
	"github.com/laborstats/bls-client/pkg/table"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}

// run executes one full pull: fetch, reshape, merge, persist.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	clientCfg := client.DefaultConfig(cfg.APIKey)
	if cfg.APIBaseURL != "" {
		clientCfg.BaseURL = cfg.APIBaseURL
	}

	blsClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	fetchCfg := fetch.DefaultConfig()
	fetchCfg.MaxBatchFailures = cfg.MaxBatchFailures
	fetchCfg.Gate = ratelimit.NewFixedDelay(cfg.BatchInterval, logger)
	fetcher := fetch.New(blsClient, fetchCfg)

	logger.Info().
		Int("start_year", cfg.StartYear).
		Int("end_year", cfg.EndYear).
		Msg("Fetching national data")

	nationalObs, nationalReport, err := fetcher.Fetch(ctx, catalog.NationalSeries(), cfg.StartYear, cfg.EndYear)
	if err != nil {
		return fmt.Errorf("fetch national data: %w", err)
	}

	logger.Info().
		Int("parishes", catalog.Parishes()).
		Msg("Fetching parish data")

	parishObs, parishReport, err := fetcher.Fetch(ctx, catalog.ParishSeries(), cfg.StartYear, cfg.EndYear)
	if err != nil {
		return fmt.Errorf("fetch parish data: %w", err)
	}

	national := table.Reshape(nationalObs)
	parish := table.Reshape(parishObs)

	merged, err := table.Merge(national, parish)
	if err != nil {
		return fmt.Errorf("merge tables: %w", err)
	}

	writers, err := openWriters(cfg)
	if err != nil {
		return err
	}

	for _, w := range writers {
		if err := w.Write(merged); err != nil {
			for _, c := range writers {
				_ = c.Close()
			}
			return fmt.Errorf("write output: %w", err)
		}
	}
	for _, w := range writers {
		if err := w.Close(); err != nil {
			return fmt.Errorf("close output: %w", err)
		}
	}

	logger.Info().
		Int("merged_rows", len(merged)).
		Int("national_rows", len(national)).
		Int("parish_rows", len(parish)).
		Int("batches_failed", nationalReport.BatchesFailed+parishReport.BatchesFailed).
		Int("points_dropped", nationalReport.PointsDropped()+parishReport.PointsDropped()).
		Str("csv", cfg.CSVOutputPath).
		Msg("Pull complete")

	return nil
}

// openWriters builds the configured output sinks.
func openWriters(cfg *config.Config) ([]export.Writer, error) {
	csvWriter, err := export.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		return nil, fmt.Errorf("open csv writer: %w", err)
	}
	writers := []export.Writer{csvWriter}

	if cfg.PostgresDSN != "" {
		pgWriter, err := export.NewPostgresWriter(cfg.PostgresDSN)
		if err != nil {
			_ = csvWriter.Close()
			return nil, fmt.Errorf("open postgres writer: %w", err)
		}
		writers = append(writers, pgWriter)
	}

	return writers, nil
}
