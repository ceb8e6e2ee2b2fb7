package classifiers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralsafe/content-safety/internal/domain"
	"github.com/viralsafe/content-safety/internal/ports"
)

type fakeProvider struct {
	name       string
	assessment *Assessment
	err        error
	delay      time.Duration
	calls      int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Classify(ctx context.Context, _ string) (*Assessment, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.assessment, f.err
}

func TestChainFirstProviderWins(t *testing.T) {
	primary := &fakeProvider{name: "groq", assessment: &Assessment{RiskScore: 70, Confidence: 85}}
	secondary := &fakeProvider{name: "openai", assessment: &Assessment{RiskScore: 10, Confidence: 50}}
	chain := NewChain([]Provider{primary, secondary})

	result, err := chain.Classify(context.Background(), "some content")

	require.NoError(t, err)
	assert.Equal(t, "groq", result.Signal.Source.Provider)
	assert.Equal(t, 70, result.Signal.Score)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls, "secondary must not be consulted when primary succeeds")
}

func TestChainFallsBackOnFailure(t *testing.T) {
	primary := &fakeProvider{name: "groq", err: errors.New("rate limited")}
	secondary := &fakeProvider{name: "openai", assessment: &Assessment{RiskScore: 40, Confidence: 60}}
	chain := NewChain([]Provider{primary, secondary})

	result, err := chain.Classify(context.Background(), "some content")

	require.NoError(t, err)
	assert.Equal(t, "openai", result.Signal.Source.Provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestChainAllProvidersFail(t *testing.T) {
	chain := NewChain([]Provider{
		&fakeProvider{name: "groq", err: errors.New("down")},
		&fakeProvider{name: "openai", err: errors.New("down")},
		&fakeProvider{name: "anthropic", err: errors.New("down")},
	})

	result, err := chain.Classify(context.Background(), "some content")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ports.ErrNoClassifier)
}

func TestChainNoProviders(t *testing.T) {
	chain := NewChain(nil)

	result, err := chain.Classify(context.Background(), "some content")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ports.ErrNoClassifier)
}

func TestChainPerCallTimeout(t *testing.T) {
	slow := &fakeProvider{name: "groq", delay: time.Second, assessment: &Assessment{RiskScore: 99, Confidence: 99}}
	fast := &fakeProvider{name: "openai", assessment: &Assessment{RiskScore: 20, Confidence: 70}}
	chain := NewChain([]Provider{slow, fast}, WithTimeouts(20*time.Millisecond, time.Second))

	result, err := chain.Classify(context.Background(), "some content")

	require.NoError(t, err)
	assert.Equal(t, "openai", result.Signal.Source.Provider)
}

func TestChainWideTimeout(t *testing.T) {
	slow := &fakeProvider{name: "groq", delay: 200 * time.Millisecond, err: errors.New("slow failure")}
	never := &fakeProvider{name: "openai", assessment: &Assessment{RiskScore: 20, Confidence: 70}}
	chain := NewChain([]Provider{slow, never}, WithTimeouts(time.Second, 50*time.Millisecond))

	_, err := chain.Classify(context.Background(), "some content")

	assert.ErrorIs(t, err, ports.ErrNoClassifier)
	assert.Equal(t, 0, never.calls, "chain budget exhausted before the second provider")
}

func TestNormalizeCanonicalFlags(t *testing.T) {
	assessment := &Assessment{
		RiskScore:  85,
		Confidence: 90,
		Categories: []string{"phish", "credential_theft", "fraud", "weird_custom_label"},
	}

	result := normalize("groq", assessment)

	assert.Equal(t, domain.SourceClassifier, result.Signal.Source.Kind)
	assert.Equal(t, "groq", result.Signal.Source.Provider)
	// provider wording is canonicalized and deduplicated
	assert.Equal(t, []string{"phishing_language", "scam_vocabulary"}, result.Signal.Flags)
	// raw labels survive for diagnostics
	assert.Contains(t, result.DetectedPatterns, "weird_custom_label")
	assert.Equal(t, "critical", result.ThreatLevel)
}
