// Package classifiers implements the remote text-classification fallback
// chain: an ordered list of providers tried strictly in priority order,
// each normalized into the common risk-signal shape.
package classifiers

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/viralsafe/content-safety/internal/domain"
	"github.com/viralsafe/content-safety/internal/ports"
)

// Provider is one remote classifier in the chain. Classify either returns
// a normalized assessment or an error; the chain treats every error the
// same way and advances to the next provider.
type Provider interface {
	Name() string
	Classify(ctx context.Context, content string) (*Assessment, error)
}

// Assessment is a provider's raw output after schema validation
type Assessment struct {
	RiskScore  int
	Confidence int
	Categories []string
}

// Chain tries providers sequentially until one succeeds. Providers never
// run concurrently with each other: sequential fallback bounds worst-case
// latency and avoids burning quota on lower-priority providers when a
// higher-priority one succeeds.
type Chain struct {
	providers      []Provider
	perCallTimeout time.Duration
	chainTimeout   time.Duration
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithTimeouts overrides the per-provider and chain-wide timeouts
func WithTimeouts(perCall, chain time.Duration) ChainOption {
	return func(c *Chain) {
		c.perCallTimeout = perCall
		c.chainTimeout = chain
	}
}

// NewChain creates a fallback chain over the given providers, ordered by
// the priority assigned at construction (the slice order).
func NewChain(providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers:      providers,
		perCallTimeout: 4 * time.Second,
		chainTimeout:   8 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify tries each provider in order and normalizes the first success.
// If every provider fails, or none is configured, it returns
// ports.ErrNoClassifier; it never decides the heuristic fallback itself.
func (c *Chain) Classify(ctx context.Context, content string) (*ports.ClassifierResult, error) {
	if len(c.providers) == 0 {
		return nil, ports.ErrNoClassifier
	}

	chainCtx, cancel := context.WithTimeout(ctx, c.chainTimeout)
	defer cancel()

	for _, provider := range c.providers {
		if chainCtx.Err() != nil {
			break
		}
		callCtx, callCancel := context.WithTimeout(chainCtx, c.perCallTimeout)
		assessment, err := provider.Classify(callCtx, content)
		callCancel()
		if err != nil {
			log.Printf("classifier provider %s failed: %v", provider.Name(), err)
			continue
		}
		return normalize(provider.Name(), assessment), nil
	}

	return nil, fmt.Errorf("%w: all providers failed", ports.ErrNoClassifier)
}

// canonicalFlags is the fixed acceptable flag vocabulary. Provider-specific
// wording is mapped into it, never passed through verbatim.
var canonicalFlags = map[string]string{
	"phishing":           "phishing_language",
	"phish":              "phishing_language",
	"credential_theft":   "phishing_language",
	"scam":               "scam_vocabulary",
	"fraud":              "scam_vocabulary",
	"financial_scam":     "scam_vocabulary",
	"crypto_scam":        "scam_vocabulary",
	"malware":            "malware_indicators",
	"virus":              "malware_indicators",
	"trojan":             "malware_indicators",
	"social_engineering": "social_engineering",
	"impersonation":      "social_engineering",
	"spam":               "spam",
	"misinformation":     "misinformation",
	"fake_news":          "misinformation",
	"suspicious_link":    "suspicious_link",
	"malicious_url":      "suspicious_link",
}

func normalize(providerName string, a *Assessment) *ports.ClassifierResult {
	seen := make(map[string]bool)
	var flags []string
	var patterns []string
	for _, raw := range a.Categories {
		patterns = append(patterns, raw)
		if canonical, ok := canonicalFlags[raw]; ok && !seen[canonical] {
			seen[canonical] = true
			flags = append(flags, canonical)
		}
	}
	sort.Strings(flags)

	return &ports.ClassifierResult{
		Signal: domain.RiskSignal{
			Source:     domain.SignalSource{Kind: domain.SourceClassifier, Provider: providerName},
			Score:      a.RiskScore,
			Confidence: a.Confidence,
			Flags:      flags,
		},
		ThreatLevel:      domain.RiskLevel(a.RiskScore),
		DetectedPatterns: patterns,
	}
}
