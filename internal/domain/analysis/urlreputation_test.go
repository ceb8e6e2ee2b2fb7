package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viralsafe/content-safety/internal/domain"
)

func TestURLAnalyzerTrustedDomain(t *testing.T) {
	analyzer := NewURLAnalyzer(nil)

	tests := []string{
		"https://google.com",
		"https://docs.github.com/en/actions",
		"http://www.wikipedia.org",
	}

	for _, rawURL := range tests {
		assessment := analyzer.Analyze(rawURL)
		assert.Equal(t, TierTrusted, assessment.Tier, rawURL)
		assert.Equal(t, 0, assessment.Signal.Score, rawURL)
		assert.Equal(t, 90, assessment.Signal.Confidence, rawURL)
	}
}

func TestURLAnalyzerExtraTrusted(t *testing.T) {
	analyzer := NewURLAnalyzer([]string{"internal.example.org"})

	assessment := analyzer.Analyze("https://internal.example.org/dashboard")
	assert.Equal(t, TierTrusted, assessment.Tier)
}

func TestURLAnalyzerShortener(t *testing.T) {
	analyzer := NewURLAnalyzer(nil)

	assessment := analyzer.Analyze("bit.ly/xyz")

	assert.Equal(t, domain.SourceURLReputation, assessment.Signal.Source.Kind)
	assert.Equal(t, TierSuspicious, assessment.Tier)
	assert.Equal(t, "bit.ly", assessment.Domain)
	// shortener points plus missing TLS
	assert.Equal(t, 50, assessment.Signal.Score)
	assert.Equal(t, 80, assessment.Signal.Confidence)
	assert.Contains(t, assessment.Signal.Flags, CategorySuspiciousLink)
}

func TestURLAnalyzerSuspiciousTLD(t *testing.T) {
	analyzer := NewURLAnalyzer(nil)

	assessment := analyzer.Analyze("https://free-gift.tk")

	assert.Equal(t, TierSuspicious, assessment.Tier)
	assert.Contains(t, assessment.Signal.Flags, CategorySuspiciousLink)
}

func TestURLAnalyzerBrandImpersonation(t *testing.T) {
	analyzer := NewURLAnalyzer(nil)

	tests := []struct {
		name string
		url  string
	}{
		{"brand token in hostname", "http://paypal-secure-login.example.com"},
		{"typosquat one edit away", "http://paypa1.com/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessment := analyzer.Analyze(tt.url)
			assert.Contains(t, assessment.Signal.Flags, CategoryBrandImpersonation)
		})
	}
}

func TestURLAnalyzerMaliciousTier(t *testing.T) {
	analyzer := NewURLAnalyzer(nil)

	// brand token, no TLS, suspicious TLD crosses the malicious cutoff
	assessment := analyzer.Analyze("http://paypal-account-verify.tk")

	assert.Equal(t, TierMalicious, assessment.Tier)
	assert.GreaterOrEqual(t, assessment.Signal.Score, 60)
	assert.LessOrEqual(t, assessment.Signal.Score, 95)
}

func TestURLAnalyzerHomograph(t *testing.T) {
	analyzer := NewURLAnalyzer(nil)

	plain := analyzer.Analyze("http://plainhost.com")
	punycode := analyzer.Analyze("http://xn--80ak6aa92e.com")
	cyrillic := analyzer.Analyze("http://аррlе.com")

	assert.Greater(t, punycode.Signal.Score, plain.Signal.Score)
	assert.Greater(t, cyrillic.Signal.Score, plain.Signal.Score)
}

func TestURLAnalyzerUnknownDomain(t *testing.T) {
	analyzer := NewURLAnalyzer(nil)

	assessment := analyzer.Analyze("https://myblog-about-cats.com")

	assert.Equal(t, TierUnknown, assessment.Tier)
	assert.Equal(t, 50, assessment.Signal.Confidence)
	assert.Empty(t, assessment.Signal.Flags)
}

func TestURLAnalyzerUnparseableInput(t *testing.T) {
	analyzer := NewURLAnalyzer(nil)

	assessment := analyzer.Analyze("   ")

	assert.Equal(t, TierUnknown, assessment.Tier)
	assert.Equal(t, 0, assessment.Signal.Score)
}

func TestURLAnalyzerScoreNeverExceedsCap(t *testing.T) {
	analyzer := NewURLAnalyzer(nil)

	// stacks subdomain depth, digits, hyphens, brand, no TLS and TLD points
	assessment := analyzer.Analyze("http://secure-login-verify-account-paypal.a.b.c.d.28491.tk")

	assert.LessOrEqual(t, assessment.Signal.Score, 95)
	assert.Equal(t, TierMalicious, assessment.Tier)
}
