// Package scanclient integrates a multi-engine URL-scanning aggregator
// over its submit-then-poll v3 API, and maintains a traffic-derived
// health state for the dependency.
package scanclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/viralsafe/content-safety/internal/domain"
)

// Client submits URLs to the scan aggregator and polls for verdicts
// within a hard wall-clock budget. Every submit or poll call that
// completes or definitively fails updates the health monitor.
type Client struct {
	baseURL    string
	apiKey     string
	httpc      *http.Client
	monitor    *HealthMonitor
	pollDelay  time.Duration
	pollBudget time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithPolling overrides the poll delay and the wall-clock budget
func WithPolling(delay, budget time.Duration) Option {
	return func(c *Client) {
		c.pollDelay = delay
		c.pollBudget = budget
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// NewClient creates a scan client reporting to monitor
func NewClient(baseURL, apiKey string, monitor *HealthMonitor, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpc:      &http.Client{Timeout: 10 * time.Second},
		monitor:    monitor,
		pollDelay:  2 * time.Second,
		pollBudget: 12 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type analysisResponse struct {
	Data struct {
		Attributes struct {
			Status string `json:"status"`
			Stats  struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
				Harmless   int `json:"harmless"`
				Undetected int `json:"undetected"`
			} `json:"stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// Submit registers a URL for analysis and returns the opaque job id
func (c *Client) Submit(ctx context.Context, target string) (string, error) {
	form := url.Values{}
	form.Set("url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/urls", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.monitor.RecordFailure()
		return "", fmt.Errorf("scan submit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.monitor.RecordFailure()
		return "", fmt.Errorf("scan submit failed: status %d", resp.StatusCode)
	}

	var decoded submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.monitor.RecordFailure()
		return "", fmt.Errorf("scan submit failed: malformed response: %w", err)
	}
	if decoded.Data.ID == "" {
		c.monitor.RecordFailure()
		return "", fmt.Errorf("scan submit failed: empty job id")
	}

	c.monitor.RecordSuccess()
	return decoded.Data.ID, nil
}

// Poll retrieves the current verdict for a job. An incomplete analysis
// yields state Pending.
func (c *Client) Poll(ctx context.Context, jobID string) (domain.ExternalScanVerdict, error) {
	verdict := domain.ExternalScanVerdict{JobID: jobID, State: domain.ScanPending}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyses/"+jobID, nil)
	if err != nil {
		return verdict, err
	}
	req.Header.Set("x-apikey", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.monitor.RecordFailure()
		return verdict, fmt.Errorf("scan poll failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.monitor.RecordFailure()
		return verdict, fmt.Errorf("scan poll failed: status %d", resp.StatusCode)
	}

	var decoded analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.monitor.RecordFailure()
		return verdict, fmt.Errorf("scan poll failed: malformed response: %w", err)
	}

	c.monitor.RecordSuccess()

	if decoded.Data.Attributes.Status != "completed" {
		return verdict, nil
	}

	stats := decoded.Data.Attributes.Stats
	verdict.EngineStats = domain.EngineStats{
		Malicious:  stats.Malicious,
		Suspicious: stats.Suspicious,
		Harmless:   stats.Harmless,
		Undetected: stats.Undetected,
	}
	verdict.State = domain.DeriveScanState(verdict.EngineStats)
	return verdict, nil
}

// Scan drives the full submit-then-poll protocol under the wall-clock
// budget. When the budget elapses before a non-pending verdict is
// observed, it returns a TimedOut verdict rather than blocking: the
// overall analysis must never wait unboundedly on this dependency.
func (c *Client) Scan(ctx context.Context, target string) (domain.ExternalScanVerdict, error) {
	deadline := time.Now().Add(c.pollBudget)
	budgetCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	jobID, err := c.Submit(budgetCtx, target)
	if err != nil {
		return domain.ExternalScanVerdict{State: domain.ScanTimedOut}, err
	}

	verdict := domain.ExternalScanVerdict{JobID: jobID, State: domain.ScanPending}
	for {
		if time.Now().After(deadline) {
			verdict.State = domain.ScanTimedOut
			return verdict, nil
		}

		polled, err := c.Poll(budgetCtx, jobID)
		if err == nil && polled.State != domain.ScanPending {
			return polled, nil
		}
		if budgetCtx.Err() != nil {
			verdict.State = domain.ScanTimedOut
			return verdict, nil
		}

		select {
		case <-time.After(c.pollDelay):
		case <-budgetCtx.Done():
			verdict.State = domain.ScanTimedOut
			return verdict, nil
		}
	}
}
