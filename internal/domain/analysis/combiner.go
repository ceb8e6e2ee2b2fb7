package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/viralsafe/content-safety/internal/domain"
	"github.com/viralsafe/content-safety/internal/ports"
)

// Weights are the fixed per-source merge weights. A successful remote
// classifier is asserted to have higher discriminative power than the
// local signals, so it carries the largest weight. Scan verdicts do not
// use a weight: they add a fixed bonus when the aggregator flags the URL.
type Weights struct {
	Heuristic           float64 `yaml:"heuristic"`
	URLReputation       float64 `yaml:"url_reputation"`
	Classifier          float64 `yaml:"classifier"`
	ScanMaliciousBonus  int     `yaml:"scan_malicious_bonus"`
	ScanSuspiciousBonus int     `yaml:"scan_suspicious_bonus"`
}

// Thresholds map a merged score to a severity level
type Thresholds struct {
	Critical int `yaml:"critical"`
	High     int `yaml:"high"`
	Medium   int `yaml:"medium"`
}

// Policy holds the ensemble's tunable constants. They are policy, not
// derived per request; the composition root may override the defaults
// from configuration.
type Policy struct {
	Weights      Weights    `yaml:"weights"`
	Thresholds   Thresholds `yaml:"thresholds"`
	GlobalBudget time.Duration
}

// DefaultPolicy returns the default merge policy
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			Heuristic:           0.8,
			URLReputation:       0.8,
			Classifier:          1.0,
			ScanMaliciousBonus:  65,
			ScanSuspiciousBonus: 30,
		},
		Thresholds:   Thresholds{Critical: 80, High: 60, Medium: 35},
		GlobalBudget: 15 * time.Second,
	}
}

// platformFactors scale the heuristic signal by platform moderation
// quality. Remote signals are platform-independent and never scaled.
var platformFactors = map[string]float64{
	"telegram": 1.1,
	"twitter":  0.9,
}

// Combiner is the top-level orchestrator: it fans out to the signal
// producers, applies timeouts and fallbacks, and merges whatever signals
// completed into one AnalysisResult.
//
// The classifier and scanner dependencies may be nil; their absence is
// handled the same way as their failure. The heuristic scanner guarantees
// a non-empty signal breakdown even when every remote dependency is
// unreachable.
type Combiner struct {
	heuristics *HeuristicScanner
	urls       *URLAnalyzer
	classifier ports.Classifier
	scanner    ports.URLScanner
	policy     Policy
}

// NewCombiner creates a combiner. classifier and scanner may be nil when
// the corresponding dependency is not configured.
func NewCombiner(heuristics *HeuristicScanner, urls *URLAnalyzer, classifier ports.Classifier, scanner ports.URLScanner, policy Policy) *Combiner {
	return &Combiner{
		heuristics: heuristics,
		urls:       urls,
		classifier: classifier,
		scanner:    scanner,
		policy:     policy,
	}
}

// classifierOutcome and scanOutcome carry the concurrent sub-task results
// back to Evaluate. Channels are buffered so an abandoned sub-task can
// still send and exit; its result is simply discarded.
type classifierOutcome struct {
	result *ports.ClassifierResult
	err    error
}

type scanOutcome struct {
	verdict domain.ExternalScanVerdict
	err     error
}

// Evaluate runs the full ensemble for one request. It always returns a
// result for a well-formed request: remote failures reduce the number of
// contributing signals, they never fail the analysis.
func (c *Combiner) Evaluate(ctx context.Context, req domain.AnalysisRequest) domain.AnalysisResult {
	var signals []domain.RiskSignal
	var reasons []string

	// Local signals run synchronously: cheap, deterministic, no failure mode.
	heuristic := c.heuristics.Scan(req.RawContent)
	heuristic.Score = applyPlatformFactor(heuristic.Score, req.PlatformHint)
	signals = append(signals, heuristic)
	reasons = append(reasons, heuristicReason(heuristic))

	targetURL := req.DeclaredURL
	if targetURL == "" {
		targetURL = ExtractFirstURL(req.RawContent)
	}

	var urlSignal *domain.RiskSignal
	if targetURL != "" {
		assessment := c.urls.Analyze(targetURL)
		urlSignal = &assessment.Signal
		signals = append(signals, assessment.Signal)
		reasons = append(reasons, fmt.Sprintf("url reputation: %s classified as %s (score %d)",
			assessment.Domain, assessment.Tier, assessment.Signal.Score))
	}

	// Remote signals fan out concurrently, each under its own timeout,
	// joined below under the global budget.
	classifierCh := make(chan classifierOutcome, 1)
	scanCh := make(chan scanOutcome, 1)

	if c.classifier != nil {
		go func() {
			res, err := c.classifier.Classify(ctx, req.RawContent)
			classifierCh <- classifierOutcome{result: res, err: err}
		}()
	} else {
		classifierCh <- classifierOutcome{err: ports.ErrNoClassifier}
	}

	scanRequested := c.scanner != nil && targetURL != ""
	if scanRequested {
		go func() {
			verdict, err := c.scanner.Scan(ctx, targetURL)
			scanCh <- scanOutcome{verdict: verdict, err: err}
		}()
	}

	deadline := time.NewTimer(c.policy.GlobalBudget)
	defer deadline.Stop()

	var classifierSignal *domain.RiskSignal
	var scanVerdict *domain.ExternalScanVerdict
	classifierDone := false
	scanDone := !scanRequested
	for !(classifierDone && scanDone) {
		select {
		case out := <-classifierCh:
			classifierDone = true
			switch {
			case errors.Is(out.err, ports.ErrNoClassifier):
				reasons = append(reasons, "no remote classifier available")
			case out.err != nil:
				log.Printf("classifier chain failed: %v", out.err)
				reasons = append(reasons, "remote classifier unavailable")
			default:
				classifierSignal = &out.result.Signal
				signals = append(signals, out.result.Signal)
				reasons = append(reasons, fmt.Sprintf("classifier %s assessed risk %d (confidence %d)",
					out.result.Signal.Source.Provider, out.result.Signal.Score, out.result.Signal.Confidence))
			}
		case out := <-scanCh:
			scanDone = true
			if out.err != nil {
				log.Printf("external scan failed: %v", out.err)
				reasons = append(reasons, "external scan unavailable")
				break
			}
			v := out.verdict
			scanVerdict = &v
			signals = append(signals, scanSignal(v))
			reasons = append(reasons, scanReason(v))
		case <-deadline.C:
			// Budget expired: abandon whatever is still running. The
			// goroutines send into buffered channels, so they exit on
			// their own and their results are discarded.
			if !classifierDone {
				classifierDone = true
				reasons = append(reasons, "remote classifier timed out")
			}
			if !scanDone {
				scanDone = true
				reasons = append(reasons, "external scan timed out")
			}
		}
	}

	score := c.mergeScore(heuristic, urlSignal, classifierSignal, scanVerdict)
	level := c.levelFor(score)

	return domain.AnalysisResult{
		ID:              uuid.New(),
		Score:           score,
		Level:           level,
		Reasons:         reasons,
		Categories:      unionFlags(signals),
		Recommendations: domain.Recommendations(level),
		SignalBreakdown: signals,
		ContentHash:     contentHash(req.RawContent),
		ContentPreview:  preview(req.RawContent),
		Platform:        req.PlatformHint,
		GeneratedAt:     time.Now().UTC(),
	}
}

// mergeScore combines the available signals. Each weighted signal
// contributes score x weight x confidence/100; the scan verdict adds its
// fixed bonus; the sum is clamped to [0,100].
func (c *Combiner) mergeScore(heuristic domain.RiskSignal, urlSignal, classifierSignal *domain.RiskSignal, verdict *domain.ExternalScanVerdict) int {
	w := c.policy.Weights

	total := contribution(heuristic, w.Heuristic)
	if urlSignal != nil {
		total += contribution(*urlSignal, w.URLReputation)
	}
	if classifierSignal != nil {
		total += contribution(*classifierSignal, w.Classifier)
	}
	if verdict != nil {
		switch verdict.State {
		case domain.ScanMalicious:
			total += float64(w.ScanMaliciousBonus)
		case domain.ScanSuspicious:
			total += float64(w.ScanSuspiciousBonus)
		}
	}

	score := int(total + 0.5)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (c *Combiner) levelFor(score int) string {
	t := c.policy.Thresholds
	switch {
	case score >= t.Critical:
		return "critical"
	case score >= t.High:
		return "high"
	case score >= t.Medium:
		return "medium"
	default:
		return "low"
	}
}

func contribution(sig domain.RiskSignal, weight float64) float64 {
	return float64(sig.Score) * weight * float64(sig.Confidence) / 100
}

// scanSignal converts a scan verdict into a breakdown entry. A TimedOut
// or Pending verdict is excluded from scoring by mergeScore but still
// recorded here so the breakdown explains itself.
func scanSignal(v domain.ExternalScanVerdict) domain.RiskSignal {
	sig := domain.RiskSignal{
		Source: domain.SignalSource{Kind: domain.SourceExternalScan},
	}
	switch v.State {
	case domain.ScanMalicious:
		sig.Score = 90
		sig.Confidence = 95
		sig.Flags = []string{"malicious_url"}
	case domain.ScanSuspicious:
		sig.Score = 60
		sig.Confidence = 80
		sig.Flags = []string{CategorySuspiciousLink}
	case domain.ScanHarmless:
		sig.Score = 0
		sig.Confidence = 90
	default:
		sig.Score = 0
		sig.Confidence = 0
	}
	return sig
}

func scanReason(v domain.ExternalScanVerdict) string {
	total := v.EngineStats.Malicious + v.EngineStats.Suspicious + v.EngineStats.Harmless + v.EngineStats.Undetected
	switch v.State {
	case domain.ScanTimedOut:
		return "external scan timed out"
	case domain.ScanPending:
		return "external scan still pending"
	default:
		return fmt.Sprintf("external scan verdict %s (%d/%d engines flagged)",
			v.State, v.EngineStats.Malicious+v.EngineStats.Suspicious, total)
	}
}

func heuristicReason(sig domain.RiskSignal) string {
	if len(sig.Flags) == 0 {
		return "heuristic scanner found no known risk patterns"
	}
	return fmt.Sprintf("heuristic scanner matched %s (score %d)",
		strings.Join(sig.Flags, ", "), sig.Score)
}

func applyPlatformFactor(score int, platform string) int {
	factor, ok := platformFactors[strings.ToLower(platform)]
	if !ok {
		return score
	}
	scaled := int(float64(score)*factor + 0.5)
	if scaled > 100 {
		scaled = 100
	}
	return scaled
}

func unionFlags(signals []domain.RiskSignal) []string {
	seen := make(map[string]bool)
	for _, sig := range signals {
		for _, f := range sig.Flags {
			seen[f] = true
		}
	}
	flags := make([]string, 0, len(seen))
	for f := range seen {
		flags = append(flags, f)
	}
	sort.Strings(flags)
	return flags
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:8])
}

func preview(content string) string {
	const maxPreview = 150
	if len(content) <= maxPreview {
		return content
	}
	return content[:maxPreview] + "..."
}
