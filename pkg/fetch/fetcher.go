// Package fetch implements the batched series fetcher: it partitions series
// IDs into API-sized batches, paces calls through a rate-limit gate, and
// parses raw data points into monthly observations.
package fetch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/laborstats/bls-client/pkg/catalog"
	"github.com/laborstats/bls-client/pkg/client"
	"github.com/laborstats/bls-client/pkg/logging"
	"github.com/laborstats/bls-client/pkg/ratelimit"
)

// Prometheus metrics for fetch operations.
var (
	blsBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bls_batches_total",
		Help: "Total batched series requests by result",
	}, []string{"result"})

	blsPointsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bls_points_dropped_total",
		Help: "Total data points dropped during parsing by reason",
	}, []string{"reason"})

	blsObservationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bls_observations_total",
		Help: "Total observations kept across all batches",
	})
)

// BatchSize is the documented per-call series cap of the BLS v2 API.
const BatchSize = 50

// MaxYearSpan is the widest year window the BLS v2 API serves per
// registered request. Wider requests are split into consecutive windows.
const MaxYearSpan = 20

// monthlyPeriodPrefix marks monthly granularity in BLS period codes.
const monthlyPeriodPrefix = "M"

// noDataSentinel is the API's "no data" value marker.
const noDataSentinel = "-"

// Observation is a single parsed fact: one entity, one calendar month, one
// metric, one numeric value. Dates are normalized to the first of the month.
type Observation struct {
	Entity string
	Date   time.Time
	Metric catalog.Metric
	Value  float64
}

// SeriesClient is the slice of the BLS client the fetcher depends on.
type SeriesClient interface {
	SeriesData(ctx context.Context, req client.SeriesRequest) (*client.SeriesResponse, error)
}

// Config holds fetcher configuration.
type Config struct {
	// BatchSize caps series IDs per request (default: BatchSize).
	BatchSize int

	// MaxYearSpan caps years per request window (default: MaxYearSpan).
	MaxYearSpan int

	// MaxBatchFailures aborts the run when more than this many batches are
	// skipped for a missing results envelope. Negative disables the
	// threshold; skipped batches are then only counted and logged.
	MaxBatchFailures int

	// Gate paces consecutive batch calls (default: 1s fixed delay).
	Gate ratelimit.Gate
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:        BatchSize,
		MaxYearSpan:      MaxYearSpan,
		MaxBatchFailures: -1,
		Gate:             nil, // filled in by New
	}
}

// Report summarizes what a run kept and dropped. Skipped batches and dropped
// points are deliberate policy (a partial dataset beats no dataset), but the
// counts must be visible so a systemic failure is not mistaken for thin data.
type Report struct {
	BatchesSent   int
	BatchesFailed int

	PointsKept              int
	PointsDroppedNonMonthly int
	PointsDroppedNoData     int
	PointsDroppedBadValue   int
	PointsDroppedBadDate    int

	UnknownSeries int
}

// PointsDropped returns the total dropped data points across all reasons.
func (r Report) PointsDropped() int {
	return r.PointsDroppedNonMonthly + r.PointsDroppedNoData +
		r.PointsDroppedBadValue + r.PointsDroppedBadDate
}

// Fetcher executes batched series fetches against the BLS API.
type Fetcher struct {
	client SeriesClient
	gate   ratelimit.Gate
	config Config
	logger zerolog.Logger
}

// New creates a new batched fetcher.
func New(seriesClient SeriesClient, cfg Config) *Fetcher {
	logger := logging.NewLogger("fetcher")

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = BatchSize
	}
	if cfg.MaxYearSpan <= 0 {
		cfg.MaxYearSpan = MaxYearSpan
	}

	gate := cfg.Gate
	if gate == nil {
		gate = ratelimit.NewFixedDelay(ratelimit.DefaultInterval, logger)
	}

	return &Fetcher{
		client: seriesClient,
		gate:   gate,
		config: cfg,
		logger: logger,
	}
}

// Fetch retrieves all monthly observations for the given series catalog over
// [startYear, endYear] inclusive. Batches whose response lacks the results
// envelope are skipped and counted; unparseable points are dropped and
// counted. Transport errors that survive the client's retries abort the run.
func (f *Fetcher) Fetch(ctx context.Context, series map[string]catalog.SeriesInfo, startYear, endYear int) ([]Observation, Report, error) {
	var report Report

	if startYear > endYear {
		return nil, report, fmt.Errorf("start year %d after end year %d", startYear, endYear)
	}
	if startYear < 1000 || endYear > 9999 {
		return nil, report, fmt.Errorf("years must be 4-digit calendar years (got %d-%d)", startYear, endYear)
	}
	if len(series) == 0 {
		return nil, report, nil
	}

	// Sort IDs so batch composition is reproducible across runs.
	ids := make([]string, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	windows := yearWindows(startYear, endYear, f.config.MaxYearSpan)
	start := time.Now()

	var observations []Observation

	for _, window := range windows {
		for offset := 0; offset < len(ids); offset += f.config.BatchSize {
			end := offset + f.config.BatchSize
			if end > len(ids) {
				end = len(ids)
			}
			batchIDs := ids[offset:end]

			if err := f.gate.Wait(ctx); err != nil {
				return observations, report, fmt.Errorf("pacing gate: %w", err)
			}

			resp, err := f.client.SeriesData(ctx, client.SeriesRequest{
				SeriesIDs: batchIDs,
				StartYear: strconv.Itoa(window.start),
				EndYear:   strconv.Itoa(window.end),
			})
			if err != nil {
				return observations, report, fmt.Errorf("batch %d (%d-%d): %w", report.BatchesSent, window.start, window.end, err)
			}
			report.BatchesSent++

			if !resp.HasResults() {
				report.BatchesFailed++
				blsBatchesTotal.WithLabelValues("failed").Inc()

				f.logger.Warn().
					Int("batch", report.BatchesSent-1).
					Int("series_count", len(batchIDs)).
					Str("status", resp.Status).
					Str("raw", string(resp.Raw)).
					Msg("Batch response missing results envelope - skipping")

				if f.config.MaxBatchFailures >= 0 && report.BatchesFailed > f.config.MaxBatchFailures {
					return observations, report, fmt.Errorf("%d batches failed (threshold %d)", report.BatchesFailed, f.config.MaxBatchFailures)
				}
				continue
			}
			blsBatchesTotal.WithLabelValues("ok").Inc()

			for _, s := range resp.Results.Series {
				meta, ok := series[s.SeriesID]
				if !ok {
					report.UnknownSeries++
					f.logger.Debug().
						Str("series_id", s.SeriesID).
						Msg("Response contains series not in catalog - ignoring")
					continue
				}

				for _, dp := range s.Data {
					obs, drop := f.parsePoint(meta, s.SeriesID, dp, startYear, endYear)
					if drop != "" {
						report.countDrop(drop)
						blsPointsDroppedTotal.WithLabelValues(string(drop)).Inc()
						continue
					}
					observations = append(observations, obs)
					report.PointsKept++
				}
			}
		}
	}

	blsObservationsTotal.Add(float64(report.PointsKept))

	f.logger.Info().
		Int("observations", report.PointsKept).
		Int("batches_sent", report.BatchesSent).
		Int("batches_failed", report.BatchesFailed).
		Int("points_dropped", report.PointsDropped()).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return observations, report, nil
}

// dropReason names why a data point was discarded.
type dropReason string

const (
	dropNonMonthly dropReason = "non_monthly"
	dropNoData     dropReason = "no_data"
	dropBadDate    dropReason = "bad_date"
	dropBadValue   dropReason = "bad_value"
)

func (r *Report) countDrop(reason dropReason) {
	switch reason {
	case dropNonMonthly:
		r.PointsDroppedNonMonthly++
	case dropNoData:
		r.PointsDroppedNoData++
	case dropBadDate:
		r.PointsDroppedBadDate++
	case dropBadValue:
		r.PointsDroppedBadValue++
	}
}

// parsePoint coerces one raw data point into an Observation, or returns the
// reason it was dropped. Quarterly and annual periods are dropped silently;
// so are non-numeric values. Unparseable dates get a one-line diagnostic.
func (f *Fetcher) parsePoint(meta catalog.SeriesInfo, seriesID string, dp client.DataPoint, startYear, endYear int) (Observation, dropReason) {
	if !strings.HasPrefix(dp.Period, monthlyPeriodPrefix) {
		return Observation{}, dropNonMonthly
	}

	if dp.Value == noDataSentinel {
		return Observation{}, dropNoData
	}

	date, err := parseMonth(dp.Year, dp.Period)
	if err != nil {
		f.logger.Debug().
			Str("series_id", seriesID).
			Str("year", dp.Year).
			Str("period", dp.Period).
			Err(err).
			Msg("Dropping point with unparseable date")
		return Observation{}, dropBadDate
	}

	if date.Year() < startYear || date.Year() > endYear {
		f.logger.Debug().
			Str("series_id", seriesID).
			Time("date", date).
			Msg("Dropping point outside requested window")
		return Observation{}, dropBadDate
	}

	value, err := strconv.ParseFloat(dp.Value, 64)
	if err != nil {
		return Observation{}, dropBadValue
	}

	return Observation{
		Entity: meta.Entity,
		Date:   date,
		Metric: meta.Metric,
		Value:  value,
	}, ""
}

// parseMonth converts a (year, period) pair like ("2020", "M01") into the
// first of the month in UTC. "M13" (annual average) has no calendar month
// and fails here.
func parseMonth(yearStr, period string) (time.Time, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse year %q: %w", yearStr, err)
	}

	month, err := strconv.Atoi(period[len(monthlyPeriodPrefix):])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse period %q: %w", period, err)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("period %q is not a calendar month", period)
	}

	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// yearWindow is an inclusive [start, end] year range.
type yearWindow struct {
	start int
	end   int
}

// yearWindows splits [startYear, endYear] into consecutive windows of at
// most maxSpan years each.
func yearWindows(startYear, endYear, maxSpan int) []yearWindow {
	var windows []yearWindow
	for from := startYear; from <= endYear; from += maxSpan {
		to := from + maxSpan - 1
		if to > endYear {
			to = endYear
		}
		windows = append(windows, yearWindow{start: from, end: to})
	}
	return windows
}
