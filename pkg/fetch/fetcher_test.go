package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/laborstats/bls-client/pkg/catalog"
	"github.com/laborstats/bls-client/pkg/client"
	"github.com/laborstats/bls-client/pkg/ratelimit"
)

// fakeClient records requests and answers from a canned responder.
type fakeClient struct {
	requests []client.SeriesRequest
	respond  func(req client.SeriesRequest) (*client.SeriesResponse, error)
}

func (f *fakeClient) SeriesData(ctx context.Context, req client.SeriesRequest) (*client.SeriesResponse, error) {
	f.requests = append(f.requests, req)
	if f.respond != nil {
		return f.respond(req)
	}
	return emptySuccess(req), nil
}

// emptySuccess echoes every requested series with no data points.
func emptySuccess(req client.SeriesRequest) *client.SeriesResponse {
	series := make([]client.Series, 0, len(req.SeriesIDs))
	for _, id := range req.SeriesIDs {
		series = append(series, client.Series{SeriesID: id})
	}
	return &client.SeriesResponse{
		Status:  "REQUEST_SUCCEEDED",
		Results: &client.Results{Series: series},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Gate = ratelimit.Nop{}
	return cfg
}

func syntheticCatalog(n int) map[string]catalog.SeriesInfo {
	series := make(map[string]catalog.SeriesInfo, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("SYN%04d", i)
		series[id] = catalog.SeriesInfo{Entity: "A", Metric: catalog.MetricEmployment}
	}
	return series
}

func TestFetch_EmptyCatalog(t *testing.T) {
	fake := &fakeClient{}
	fetcher := New(fake, testConfig())

	obs, report, err := fetcher.Fetch(context.Background(), nil, 2020, 2020)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("Fetch() returned %d observations, want 0", len(obs))
	}
	if report.BatchesSent != 0 {
		t.Errorf("BatchesSent = %d, want 0 (no calls for an empty catalog)", report.BatchesSent)
	}
	if len(fake.requests) != 0 {
		t.Errorf("Client received %d requests, want 0", len(fake.requests))
	}
}

func TestFetch_InvalidYearRange(t *testing.T) {
	fetcher := New(&fakeClient{}, testConfig())

	if _, _, err := fetcher.Fetch(context.Background(), syntheticCatalog(1), 2021, 2020); err == nil {
		t.Error("Fetch() with start > end should fail")
	}
	if _, _, err := fetcher.Fetch(context.Background(), syntheticCatalog(1), 500, 2020); err == nil {
		t.Error("Fetch() with non-4-digit year should fail")
	}
}

func TestFetch_BatchPartitioning(t *testing.T) {
	const n = 120 // ceil(120/50) = 3 batches
	series := syntheticCatalog(n)

	fake := &fakeClient{}
	fetcher := New(fake, testConfig())

	_, report, err := fetcher.Fetch(context.Background(), series, 2020, 2020)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if report.BatchesSent != 3 {
		t.Fatalf("BatchesSent = %d, want 3", report.BatchesSent)
	}

	// Union of all batches equals the input set, no omissions or duplicates.
	seen := make(map[string]int)
	for _, req := range fake.requests {
		if len(req.SeriesIDs) > BatchSize {
			t.Errorf("Batch has %d IDs, cap is %d", len(req.SeriesIDs), BatchSize)
		}
		for _, id := range req.SeriesIDs {
			seen[id]++
		}
	}
	if len(seen) != n {
		t.Errorf("Union covers %d IDs, want %d", len(seen), n)
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("ID %s requested %d times, want 1", id, count)
		}
		if _, ok := series[id]; !ok {
			t.Errorf("ID %s was requested but is not in the catalog", id)
		}
	}
}

func TestFetch_DeterministicBatchOrder(t *testing.T) {
	series := syntheticCatalog(75)

	var orders [][]string
	for run := 0; run < 3; run++ {
		fake := &fakeClient{}
		fetcher := New(fake, testConfig())
		if _, _, err := fetcher.Fetch(context.Background(), series, 2020, 2020); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}

		var flat []string
		for _, req := range fake.requests {
			flat = append(flat, req.SeriesIDs...)
		}
		orders = append(orders, flat)
	}

	if !sort.StringsAreSorted(orders[0]) {
		t.Error("Batch composition should follow sorted series ID order")
	}
	for run := 1; run < len(orders); run++ {
		for i := range orders[0] {
			if orders[run][i] != orders[0][i] {
				t.Fatalf("Run %d ordered IDs differently at index %d", run, i)
			}
		}
	}
}

func TestFetch_MonthlyPeriodFilter(t *testing.T) {
	series := map[string]catalog.SeriesInfo{
		"X": {Entity: "A", Metric: catalog.MetricEmployment},
	}

	fake := &fakeClient{
		respond: func(req client.SeriesRequest) (*client.SeriesResponse, error) {
			return &client.SeriesResponse{
				Status: "REQUEST_SUCCEEDED",
				Results: &client.Results{Series: []client.Series{{
					SeriesID: "X",
					Data: []client.DataPoint{
						{Year: "2020", Period: "M01", Value: "100"},
						{Year: "2020", Period: "Q01", Value: "101"}, // quarterly
						{Year: "2020", Period: "A01", Value: "102"}, // annual
						{Year: "2020", Period: "M13", Value: "103"}, // annual average
					},
				}}},
			}, nil
		},
	}

	fetcher := New(fake, testConfig())
	obs, report, err := fetcher.Fetch(context.Background(), series, 2020, 2020)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(obs) != 1 {
		t.Fatalf("Fetch() kept %d observations, want 1", len(obs))
	}
	if obs[0].Value != 100 {
		t.Errorf("Kept value = %v, want 100", obs[0].Value)
	}
	if !obs[0].Date.Equal(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v, want 2020-01-01 UTC", obs[0].Date)
	}
	if report.PointsDroppedNonMonthly != 2 {
		t.Errorf("PointsDroppedNonMonthly = %d, want 2", report.PointsDroppedNonMonthly)
	}
	if report.PointsDroppedBadDate != 1 {
		t.Errorf("PointsDroppedBadDate = %d, want 1 (M13 has no calendar month)", report.PointsDroppedBadDate)
	}
}

func TestFetch_SentinelAndBadValueFilters(t *testing.T) {
	series := map[string]catalog.SeriesInfo{
		"X": {Entity: "A", Metric: catalog.MetricUnemploymentRate},
	}

	fake := &fakeClient{
		respond: func(req client.SeriesRequest) (*client.SeriesResponse, error) {
			return &client.SeriesResponse{
				Status: "REQUEST_SUCCEEDED",
				Results: &client.Results{Series: []client.Series{{
					SeriesID: "X",
					Data: []client.DataPoint{
						{Year: "2020", Period: "M01", Value: "-"},   // no-data sentinel
						{Year: "2020", Period: "M02", Value: "N/A"}, // non-numeric
						{Year: "2020", Period: "M03", Value: "4.5"},
					},
				}}},
			}, nil
		},
	}

	fetcher := New(fake, testConfig())
	obs, report, err := fetcher.Fetch(context.Background(), series, 2020, 2020)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(obs) != 1 || obs[0].Value != 4.5 {
		t.Fatalf("Fetch() = %+v, want exactly the 4.5 observation", obs)
	}
	if report.PointsDroppedNoData != 1 {
		t.Errorf("PointsDroppedNoData = %d, want 1", report.PointsDroppedNoData)
	}
	if report.PointsDroppedBadValue != 1 {
		t.Errorf("PointsDroppedBadValue = %d, want 1", report.PointsDroppedBadValue)
	}
	if report.PointsKept != 1 {
		t.Errorf("PointsKept = %d, want 1", report.PointsKept)
	}
}

func TestFetch_OutOfWindowDatesDropped(t *testing.T) {
	series := map[string]catalog.SeriesInfo{
		"X": {Entity: "A", Metric: catalog.MetricEmployment},
	}

	fake := &fakeClient{
		respond: func(req client.SeriesRequest) (*client.SeriesResponse, error) {
			return &client.SeriesResponse{
				Status: "REQUEST_SUCCEEDED",
				Results: &client.Results{Series: []client.Series{{
					SeriesID: "X",
					Data: []client.DataPoint{
						{Year: "2019", Period: "M12", Value: "99"}, // before window
						{Year: "2020", Period: "M01", Value: "100"},
					},
				}}},
			}, nil
		},
	}

	fetcher := New(fake, testConfig())
	obs, report, err := fetcher.Fetch(context.Background(), series, 2020, 2020)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(obs) != 1 || obs[0].Value != 100 {
		t.Fatalf("Fetch() = %+v, want only the in-window observation", obs)
	}
	if report.PointsDroppedBadDate != 1 {
		t.Errorf("PointsDroppedBadDate = %d, want 1", report.PointsDroppedBadDate)
	}
}

func TestFetch_FailedBatchSkippedRunContinues(t *testing.T) {
	series := map[string]catalog.SeriesInfo{
		"A1": {Entity: "A", Metric: catalog.MetricEmployment},
		"B2": {Entity: "B", Metric: catalog.MetricEmployment},
	}

	cfg := testConfig()
	cfg.BatchSize = 1 // force two batches

	fake := &fakeClient{
		respond: func(req client.SeriesRequest) (*client.SeriesResponse, error) {
			if req.SeriesIDs[0] == "A1" {
				// Valid JSON, no results envelope.
				return &client.SeriesResponse{
					Status:  "REQUEST_NOT_PROCESSED",
					Message: []string{"daily threshold exceeded"},
					Raw:     []byte(`{"status":"REQUEST_NOT_PROCESSED"}`),
				}, nil
			}
			return &client.SeriesResponse{
				Status: "REQUEST_SUCCEEDED",
				Results: &client.Results{Series: []client.Series{{
					SeriesID: "B2",
					Data:     []client.DataPoint{{Year: "2020", Period: "M01", Value: "7"}},
				}}},
			}, nil
		},
	}

	fetcher := New(fake, cfg)
	obs, report, err := fetcher.Fetch(context.Background(), series, 2020, 2020)
	if err != nil {
		t.Fatalf("Fetch() error = %v (a failed batch must not abort the run)", err)
	}

	if report.BatchesSent != 2 {
		t.Errorf("BatchesSent = %d, want 2", report.BatchesSent)
	}
	if report.BatchesFailed != 1 {
		t.Errorf("BatchesFailed = %d, want 1", report.BatchesFailed)
	}
	if len(obs) != 1 || obs[0].Entity != "B" || obs[0].Value != 7 {
		t.Errorf("Fetch() = %+v, want one observation for entity B", obs)
	}
}

func TestFetch_MaxBatchFailuresThreshold(t *testing.T) {
	series := map[string]catalog.SeriesInfo{
		"A1": {Entity: "A", Metric: catalog.MetricEmployment},
		"B2": {Entity: "B", Metric: catalog.MetricEmployment},
	}

	cfg := testConfig()
	cfg.BatchSize = 1
	cfg.MaxBatchFailures = 0

	fake := &fakeClient{
		respond: func(req client.SeriesRequest) (*client.SeriesResponse, error) {
			return &client.SeriesResponse{Status: "REQUEST_NOT_PROCESSED"}, nil
		},
	}

	fetcher := New(fake, cfg)
	_, report, err := fetcher.Fetch(context.Background(), series, 2020, 2020)
	if err == nil {
		t.Fatal("Fetch() = nil error, want threshold breach")
	}
	if report.BatchesFailed != 1 {
		t.Errorf("BatchesFailed = %d, want 1 (aborted on first failure)", report.BatchesFailed)
	}
	if len(fake.requests) != 1 {
		t.Errorf("Client received %d requests, want 1", len(fake.requests))
	}
}

func TestFetch_TransportErrorAborts(t *testing.T) {
	transportErr := errors.New("connection refused")
	fake := &fakeClient{
		respond: func(req client.SeriesRequest) (*client.SeriesResponse, error) {
			return nil, transportErr
		},
	}

	fetcher := New(fake, testConfig())
	_, _, err := fetcher.Fetch(context.Background(), syntheticCatalog(1), 2020, 2020)
	if !errors.Is(err, transportErr) {
		t.Errorf("Fetch() error = %v, want wrapped transport error", err)
	}
}

func TestFetch_YearWindowSplitting(t *testing.T) {
	fake := &fakeClient{}
	fetcher := New(fake, testConfig())

	_, report, err := fetcher.Fetch(context.Background(), syntheticCatalog(1), 1990, 2025)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if report.BatchesSent != 2 {
		t.Fatalf("BatchesSent = %d, want 2 (one per 20-year window)", report.BatchesSent)
	}

	want := []struct{ start, end string }{
		{"1990", "2009"},
		{"2010", "2025"},
	}
	for i, w := range want {
		if fake.requests[i].StartYear != w.start || fake.requests[i].EndYear != w.end {
			t.Errorf("requests[%d] window = %s-%s, want %s-%s",
				i, fake.requests[i].StartYear, fake.requests[i].EndYear, w.start, w.end)
		}
	}
}

func TestYearWindows(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		end      int
		maxSpan  int
		expected []yearWindow
	}{
		{
			name:     "single year",
			start:    2020,
			end:      2020,
			maxSpan:  20,
			expected: []yearWindow{{2020, 2020}},
		},
		{
			name:     "fits one window",
			start:    2010,
			end:      2025,
			maxSpan:  20,
			expected: []yearWindow{{2010, 2025}},
		},
		{
			name:     "splits on the cap",
			start:    1990,
			end:      2025,
			maxSpan:  20,
			expected: []yearWindow{{1990, 2009}, {2010, 2025}},
		},
		{
			name:     "exact multiple",
			start:    2000,
			end:      2039,
			maxSpan:  20,
			expected: []yearWindow{{2000, 2019}, {2020, 2039}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := yearWindows(tt.start, tt.end, tt.maxSpan)
			if len(got) != len(tt.expected) {
				t.Fatalf("yearWindows() = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("yearWindows()[%d] = %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestFetch_UnknownSeriesIgnored(t *testing.T) {
	series := map[string]catalog.SeriesInfo{
		"X": {Entity: "A", Metric: catalog.MetricEmployment},
	}

	fake := &fakeClient{
		respond: func(req client.SeriesRequest) (*client.SeriesResponse, error) {
			return &client.SeriesResponse{
				Status: "REQUEST_SUCCEEDED",
				Results: &client.Results{Series: []client.Series{
					{SeriesID: "X", Data: []client.DataPoint{{Year: "2020", Period: "M01", Value: "1"}}},
					{SeriesID: "UNKNOWN", Data: []client.DataPoint{{Year: "2020", Period: "M01", Value: "2"}}},
				}},
			}, nil
		},
	}

	fetcher := New(fake, testConfig())
	obs, report, err := fetcher.Fetch(context.Background(), series, 2020, 2020)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(obs) != 1 || obs[0].Value != 1 {
		t.Errorf("Fetch() = %+v, want only the cataloged observation", obs)
	}
	if report.UnknownSeries != 1 {
		t.Errorf("UnknownSeries = %d, want 1", report.UnknownSeries)
	}
}
