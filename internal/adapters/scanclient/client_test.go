package scanclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralsafe/content-safety/internal/domain"
)

func submitPayload(id string) map[string]any {
	return map[string]any{"data": map[string]any{"id": id}}
}

func analysisPayload(status string, malicious, suspicious, harmless, undetected int) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"status": status,
				"stats": map[string]any{
					"malicious":  malicious,
					"suspicious": suspicious,
					"harmless":   harmless,
					"undetected": undetected,
				},
			},
		},
	}
}

func TestClientScanMaliciousVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-apikey"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/urls":
			assert.Equal(t, "http://evil.example", r.PostFormValue("url"))
			json.NewEncoder(w).Encode(submitPayload("job-123"))
		case r.Method == http.MethodGet && r.URL.Path == "/analyses/job-123":
			json.NewEncoder(w).Encode(analysisPayload("completed", 3, 0, 60, 5))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	monitor := NewHealthMonitor(true)
	client := NewClient(server.URL, "test-key", monitor, WithPolling(time.Millisecond, time.Second))

	verdict, err := client.Scan(context.Background(), "http://evil.example")

	require.NoError(t, err)
	assert.Equal(t, "job-123", verdict.JobID)
	assert.Equal(t, domain.ScanMalicious, verdict.State)
	assert.Equal(t, 3, verdict.EngineStats.Malicious)
	assert.Equal(t, domain.HealthConnected, monitor.Snapshot().Status)
}

func TestClientScanPollsUntilCompleted(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(submitPayload("job-1"))
			return
		}
		polls++
		if polls < 3 {
			json.NewEncoder(w).Encode(analysisPayload("queued", 0, 0, 0, 0))
			return
		}
		json.NewEncoder(w).Encode(analysisPayload("completed", 0, 0, 70, 2))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", NewHealthMonitor(true), WithPolling(time.Millisecond, time.Second))

	verdict, err := client.Scan(context.Background(), "http://example.com")

	require.NoError(t, err)
	assert.Equal(t, domain.ScanHarmless, verdict.State)
	assert.Equal(t, 3, polls)
}

func TestClientScanTimedOutIsVerdictNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(submitPayload("job-slow"))
			return
		}
		// analysis never completes
		json.NewEncoder(w).Encode(analysisPayload("queued", 0, 0, 0, 0))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", NewHealthMonitor(true),
		WithPolling(10*time.Millisecond, 50*time.Millisecond))

	verdict, err := client.Scan(context.Background(), "http://example.com")

	require.NoError(t, err, "budget expiry is a verdict, never an error")
	assert.Equal(t, domain.ScanTimedOut, verdict.State)
	assert.Equal(t, "job-slow", verdict.JobID)
}

func TestClientSubmitFailureReportsToMonitor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	monitor := NewHealthMonitor(true)
	client := NewClient(server.URL, "bad-key", monitor)

	_, err := client.Submit(context.Background(), "http://example.com")

	assert.Error(t, err)
	assert.Equal(t, domain.HealthDegraded, monitor.Snapshot().Status)
}

func TestClientSubmitMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	monitor := NewHealthMonitor(true)
	client := NewClient(server.URL, "k", monitor)

	_, err := client.Submit(context.Background(), "http://example.com")

	assert.Error(t, err)
	assert.Equal(t, 1, monitor.Snapshot().TotalCalls)
}

func TestClientPollIncompleteIsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(analysisPayload("queued", 0, 0, 0, 0))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", NewHealthMonitor(true))

	verdict, err := client.Poll(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, domain.ScanPending, verdict.State)
}
