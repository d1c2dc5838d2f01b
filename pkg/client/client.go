// Package client provides the core BLS time-series HTTP client with retry
// logic, error classification, and request metrics.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the BLS public API v2 time-series endpoint.
const DefaultBaseURL = "https://api.bls.gov/publicAPI/v2/timeseries/data/"

// Prometheus metrics for BLS client operations.
var (
	blsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bls_requests_total",
		Help: "Total BLS requests by status",
	}, []string{"status"})

	blsRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bls_request_duration_seconds",
		Help:    "BLS request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	blsErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bls_errors_total",
		Help: "Total BLS errors by class",
	}, []string{"class"})
)

// SeriesRequest describes one batched time-series data request.
type SeriesRequest struct {
	// SeriesIDs are the BLS series identifiers to fetch (max 50 per call).
	SeriesIDs []string

	// StartYear and EndYear bound the requested window, as 4-digit years.
	StartYear string
	EndYear   string
}

// seriesPayload is the JSON body the BLS v2 API expects.
type seriesPayload struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationKey,omitempty"`
}

// SeriesResponse is the BLS v2 response envelope.
type SeriesResponse struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results *Results `json:"Results"`

	// Raw is the unparsed response body, kept for diagnostics when the
	// results envelope is missing.
	Raw []byte `json:"-"`
}

// HasResults reports whether the response carries the expected results envelope.
func (r *SeriesResponse) HasResults() bool {
	return r.Results != nil
}

// Results holds the per-series data lists.
type Results struct {
	Series []Series `json:"series"`
}

// Series is one requested series with its data points.
type Series struct {
	SeriesID string      `json:"seriesID"`
	Data     []DataPoint `json:"data"`
}

// DataPoint is one raw observation as returned by the API. Year and Value
// arrive as strings; Period is a granularity code ("M01".."M12" for months,
// "M13" for annual averages, "Q01".."Q04" for quarters, "A01" for years).
type DataPoint struct {
	Year       string `json:"year"`
	Period     string `json:"period"`
	PeriodName string `json:"periodName"`
	Value      string `json:"value"`
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the time-series endpoint (default: DefaultBaseURL).
	BaseURL string

	// RegistrationKey is the BLS API key sent with every request.
	RegistrationKey string

	// Timeout per HTTP request.
	Timeout time.Duration

	// Retry controls backoff behavior for server and network errors.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(registrationKey string) Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		RegistrationKey: registrationKey,
		Timeout:         30 * time.Second,
		Retry:           DefaultRetryConfig(),
	}
}

// Client is the BLS time-series API client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new BLS client.
func New(cfg Config) (*Client, error) {
	if cfg.RegistrationKey == "" {
		return nil, fmt.Errorf("registration key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "bls-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// SeriesData posts one batched time-series request and returns the parsed
// envelope. Server and network errors are retried with backoff; 4xx errors
// are returned immediately. A 2xx response whose envelope lacks Results is
// NOT an error here - the caller decides how to handle it.
func (c *Client) SeriesData(ctx context.Context, req SeriesRequest) (*SeriesResponse, error) {
	payload := seriesPayload{
		SeriesID:        req.SeriesIDs,
		StartYear:       req.StartYear,
		EndYear:         req.EndYear,
		RegistrationKey: c.config.RegistrationKey,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	startTime := time.Now()
	defer func() {
		blsRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Int("series_count", len(req.SeriesIDs)).
		Str("start_year", req.StartYear).
		Str("end_year", req.EndYear).
		Msg("Executing BLS series request")

	var result *SeriesResponse

	retryErr := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Error().Err(err).Msg("HTTP request failed")
			blsErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			blsRequestsTotal.WithLabelValues("network_error").Inc()
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			blsErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return fmt.Errorf("read response body: %w", err)
		}

		blsRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			blsErrorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Int("status_code", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("BLS request error")

			return &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    resp.Status,
			}
		}

		var parsed SeriesResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			blsErrorsTotal.WithLabelValues(string(ErrorClassServer)).Inc()
			return &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassServer,
				Message:    "unparseable response body",
				Err:        err,
			}
		}
		parsed.Raw = raw

		result = &parsed
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return result, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
