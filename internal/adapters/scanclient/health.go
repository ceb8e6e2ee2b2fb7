package scanclient

import (
	"sync"
	"time"

	"github.com/viralsafe/content-safety/internal/domain"
)

// errorThreshold is how many consecutive failures move the status from
// Degraded to Error
const errorThreshold = 3

// HealthMonitor infers the scan dependency's availability from the
// outcomes of real production calls. It never issues a network call of
// its own: the external service enforces a strict shared daily quota, and
// synthetic probes would spend quota that real analyses need.
//
// All methods are safe for concurrent use; many request-handling
// goroutines record outcomes on the same monitor.
type HealthMonitor struct {
	mu                  sync.Mutex
	status              domain.HealthStatus
	totalCalls          int
	successfulCalls     int
	consecutiveFailures int
	lastSuccessAt       *time.Time
}

// NewHealthMonitor creates a monitor in the Unknown state, or
// NotConfigured when no credential is present. NotConfigured is terminal.
func NewHealthMonitor(configured bool) *HealthMonitor {
	status := domain.HealthUnknown
	if !configured {
		status = domain.HealthNotConfigured
	}
	return &HealthMonitor{status: status}
}

// RecordSuccess notes a successful call: status becomes Connected and the
// consecutive-failure count resets
func (m *HealthMonitor) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == domain.HealthNotConfigured {
		return
	}
	now := time.Now().UTC()
	m.totalCalls++
	m.successfulCalls++
	m.consecutiveFailures = 0
	m.lastSuccessAt = &now
	m.status = domain.HealthConnected
}

// RecordFailure notes a failed call: Degraded until the consecutive
// failure threshold is reached, then Error
func (m *HealthMonitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == domain.HealthNotConfigured {
		return
	}
	m.totalCalls++
	m.consecutiveFailures++
	if m.consecutiveFailures >= errorThreshold {
		m.status = domain.HealthError
	} else {
		m.status = domain.HealthDegraded
	}
}

// Snapshot returns the cached health state. Pure read: zero latency, zero
// external-service quota.
func (m *HealthMonitor) Snapshot() domain.HealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	rate := 0.0
	if m.totalCalls > 0 {
		rate = float64(m.successfulCalls) / float64(m.totalCalls)
	}
	return domain.HealthSnapshot{
		Status:              m.status,
		TotalCalls:          m.totalCalls,
		SuccessfulCalls:     m.successfulCalls,
		ConsecutiveFailures: m.consecutiveFailures,
		LastSuccessAt:       m.lastSuccessAt,
		SuccessRate:         rate,
	}
}
