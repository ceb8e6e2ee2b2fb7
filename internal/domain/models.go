package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContentKind distinguishes what the caller submitted for analysis
type ContentKind string

const (
	ContentKindText ContentKind = "text"
	ContentKindURL  ContentKind = "url"
)

// SourceKind identifies which component produced a risk signal
type SourceKind string

const (
	SourceHeuristic     SourceKind = "heuristic"
	SourceClassifier    SourceKind = "classifier"
	SourceURLReputation SourceKind = "url_reputation"
	SourceExternalScan  SourceKind = "external_scan"
)

// SignalSource is a tagged variant: Provider is only set for classifier
// signals and names the remote provider that produced the assessment.
type SignalSource struct {
	Kind     SourceKind `json:"kind"`
	Provider string     `json:"provider,omitempty"`
}

// RiskSignal is one independent risk assessment. Signals are produced by
// exactly one component and never mutated after creation.
type RiskSignal struct {
	Source     SignalSource `json:"source"`
	Score      int          `json:"score"`      // 0-100
	Confidence int          `json:"confidence"` // 0-100
	Flags      []string     `json:"flags,omitempty"`
}

// MaxContentLength is the upper bound on submitted content
const MaxContentLength = 5000

// AnalysisRequest is the input to one analysis. It is validated once by
// the application service and never mutated afterwards.
type AnalysisRequest struct {
	ContentKind  ContentKind `json:"content_kind"`
	RawContent   string      `json:"raw_content"`
	DeclaredURL  string      `json:"declared_url,omitempty"`
	PlatformHint string      `json:"platform_hint,omitempty"`
}

// AnalysisResult is constructed exactly once per request by the combiner.
// It is persisted by the storage adapter and never mutated afterwards.
type AnalysisResult struct {
	ID              uuid.UUID    `json:"id"`
	Score           int          `json:"score"`
	Level           string       `json:"level"` // "low", "medium", "high", "critical"
	Reasons         []string     `json:"reasons"`
	Categories      []string     `json:"categories"`
	Recommendations []string     `json:"recommendations"`
	SignalBreakdown []RiskSignal `json:"signal_breakdown"`
	ContentHash     string       `json:"content_hash"`
	ContentPreview  string       `json:"content_preview"`
	Platform        string       `json:"platform,omitempty"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

// ScanState is the lifecycle state of an external scan verdict.
// A verdict starts Pending and transitions exactly once, either on poll
// completion or on budget expiry; it never transitions back.
type ScanState string

const (
	ScanPending    ScanState = "pending"
	ScanHarmless   ScanState = "harmless"
	ScanSuspicious ScanState = "suspicious"
	ScanMalicious  ScanState = "malicious"
	ScanTimedOut   ScanState = "timed_out"
)

// EngineStats holds per-engine verdict counts from the scan aggregator
type EngineStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
}

// ExternalScanVerdict is the outcome of one submitted URL scan
type ExternalScanVerdict struct {
	JobID       string      `json:"job_id"`
	State       ScanState   `json:"state"`
	EngineStats EngineStats `json:"engine_stats"`
}

// DeriveScanState maps engine statistics to a categorical verdict.
// Two independent malicious engine verdicts are treated as conclusive; a
// single malicious or a cluster of suspicious verdicts is suspicious.
func DeriveScanState(stats EngineStats) ScanState {
	switch {
	case stats.Malicious >= 2:
		return ScanMalicious
	case stats.Malicious >= 1 || stats.Suspicious >= 3:
		return ScanSuspicious
	case stats.Harmless >= 1:
		return ScanHarmless
	default:
		return ScanPending
	}
}

// HealthStatus is the cached availability state of an external dependency
type HealthStatus string

const (
	HealthUnknown       HealthStatus = "unknown"
	HealthConnected     HealthStatus = "connected"
	HealthDegraded      HealthStatus = "degraded"
	HealthError         HealthStatus = "error"
	HealthNotConfigured HealthStatus = "not_configured"
)

// HealthSnapshot is a point-in-time read of a dependency's health state.
// Producing a snapshot never triggers a network call.
type HealthSnapshot struct {
	Status              HealthStatus `json:"status"`
	TotalCalls          int          `json:"total_calls"`
	SuccessfulCalls     int          `json:"successful_calls"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	LastSuccessAt       *time.Time   `json:"last_success_at,omitempty"`
	SuccessRate         float64      `json:"success_rate"`
}

// RiskLevel converts a 0-100 risk score to a categorical level
func RiskLevel(score int) string {
	switch {
	case score >= 80:
		return "critical"
	case score >= 60:
		return "high"
	case score >= 35:
		return "medium"
	default:
		return "low"
	}
}

// Recommendations returns user-facing guidance for a risk level
func Recommendations(level string) []string {
	switch level {
	case "critical", "high":
		return []string{
			"Do not interact with this content",
			"Do not click any links or provide personal information",
			"Consider reporting this content to the platform",
			"Verify information through official sources",
		}
	case "medium":
		return []string{
			"Exercise caution",
			"Verify information from multiple reliable sources",
			"Be skeptical of sensational claims",
		}
	default:
		return []string{
			"Content appears relatively safe",
			"Still recommended to verify important information",
		}
	}
}
