// Package testutil provides testing utilities for the BLS client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// SeriesPayload mirrors the JSON body the client posts, so tests can assert
// on batch composition and credentials.
type SeriesPayload struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationKey"`
}

// Responder maps one decoded request payload to a status code and body.
type Responder func(payload SeriesPayload) (statusCode int, body string)

// MockBLS is a configurable mock BLS API server for testing.
type MockBLS struct {
	server *httptest.Server

	mu        sync.Mutex
	responder Responder
	payloads  []SeriesPayload
}

// NewMockBLS creates a new mock BLS server. The default responder returns a
// success envelope with one empty series per requested ID.
func NewMockBLS() *MockBLS {
	mock := &MockBLS{}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload SeriesPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"status":"REQUEST_FAILED","message":["invalid payload: %s"]}`, err)
			return
		}

		mock.mu.Lock()
		mock.payloads = append(mock.payloads, payload)
		responder := mock.responder
		mock.mu.Unlock()

		if responder == nil {
			responder = defaultResponder
		}

		status, body := responder(payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockBLS) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBLS) Close() {
	m.server.Close()
}

// SetResponder installs a custom responder for subsequent requests.
func (m *MockBLS) SetResponder(responder Responder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = responder
}

// RequestCount returns the number of decoded requests received.
func (m *MockBLS) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

// Payloads returns a copy of all decoded request payloads, in arrival order.
func (m *MockBLS) Payloads() []SeriesPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SeriesPayload, len(m.payloads))
	copy(out, m.payloads)
	return out
}

// Reset clears recorded payloads.
func (m *MockBLS) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = nil
}

// defaultResponder echoes every requested series ID with no data points.
func defaultResponder(payload SeriesPayload) (int, string) {
	series := make([]SeriesJSON, 0, len(payload.SeriesID))
	for _, id := range payload.SeriesID {
		series = append(series, SeriesJSON{ID: id})
	}
	return http.StatusOK, SuccessBody(series...)
}

// PointJSON is one raw data point in a canned response.
type PointJSON struct {
	Year   string
	Period string
	Value  string
}

// SeriesJSON is one series with its canned data points.
type SeriesJSON struct {
	ID     string
	Points []PointJSON
}

// SuccessBody builds a BLS success envelope carrying the given series.
func SuccessBody(series ...SeriesJSON) string {
	var b strings.Builder
	b.WriteString(`{"status":"REQUEST_SUCCEEDED","responseTime":42,"message":[],"Results":{"series":[`)
	for i, s := range series {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"seriesID":%q,"data":[`, s.ID)
		for j, p := range s.Points {
			if j > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"year":%q,"period":%q,"periodName":"","value":%q}`, p.Year, p.Period, p.Value)
		}
		b.WriteString("]}")
	}
	b.WriteString(`]}}`)
	return b.String()
}

// FailureBody builds a valid-JSON response that lacks the Results envelope,
// as the API returns for bad credentials or exceeded daily quotas.
func FailureBody(messages ...string) string {
	encoded, _ := json.Marshal(messages)
	return fmt.Sprintf(`{"status":"REQUEST_NOT_PROCESSED","responseTime":42,"message":%s}`, encoded)
}
