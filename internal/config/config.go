package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viralsafe/content-safety/internal/domain/analysis"
)

// Config holds the runtime configuration, read from environment
// variables with an optional YAML policy overlay.
type Config struct {
	ListenAddr  string
	DatabaseURL string

	GroqAPIKey      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	ScanAPIKey  string
	ScanBaseURL string

	PolicyFile         string
	RateLimitPerMinute int

	// ClassifierPriority is the fallback-chain order. Providers without
	// credentials are skipped at wiring time.
	ClassifierPriority []string

	Policy analysis.Policy
}

// policyFile mirrors the YAML policy overlay. Zero values mean "keep
// the default"; partial files are fine.
type policyFile struct {
	Weights struct {
		Heuristic           float64 `yaml:"heuristic"`
		URLReputation       float64 `yaml:"url_reputation"`
		Classifier          float64 `yaml:"classifier"`
		ScanMaliciousBonus  int     `yaml:"scan_malicious_bonus"`
		ScanSuspiciousBonus int     `yaml:"scan_suspicious_bonus"`
	} `yaml:"weights"`
	Thresholds struct {
		Critical int `yaml:"critical"`
		High     int `yaml:"high"`
		Medium   int `yaml:"medium"`
	} `yaml:"thresholds"`
	GlobalBudgetSeconds int      `yaml:"global_budget_seconds"`
	ClassifierPriority  []string `yaml:"classifier_priority"`
}

var knownProviders = map[string]bool{
	"groq":      true,
	"openai":    true,
	"anthropic": true,
}

// Load reads configuration from the environment. Only the policy file,
// when named, can fail.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:         envOr("LISTEN_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		ScanAPIKey:         os.Getenv("SCAN_API_KEY"),
		ScanBaseURL:        envOr("SCAN_BASE_URL", "https://www.virustotal.com/api/v3"),
		PolicyFile:         os.Getenv("POLICY_FILE"),
		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		ClassifierPriority: []string{"groq", "openai", "anthropic"},
		Policy:             analysis.DefaultPolicy(),
	}

	if cfg.PolicyFile != "" {
		if err := cfg.loadPolicyFile(cfg.PolicyFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) loadPolicyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse policy file: %w", err)
	}

	if file.Weights.Heuristic > 0 {
		c.Policy.Weights.Heuristic = file.Weights.Heuristic
	}
	if file.Weights.URLReputation > 0 {
		c.Policy.Weights.URLReputation = file.Weights.URLReputation
	}
	if file.Weights.Classifier > 0 {
		c.Policy.Weights.Classifier = file.Weights.Classifier
	}
	if file.Weights.ScanMaliciousBonus > 0 {
		c.Policy.Weights.ScanMaliciousBonus = file.Weights.ScanMaliciousBonus
	}
	if file.Weights.ScanSuspiciousBonus > 0 {
		c.Policy.Weights.ScanSuspiciousBonus = file.Weights.ScanSuspiciousBonus
	}
	if file.Thresholds.Critical > 0 {
		c.Policy.Thresholds.Critical = file.Thresholds.Critical
	}
	if file.Thresholds.High > 0 {
		c.Policy.Thresholds.High = file.Thresholds.High
	}
	if file.Thresholds.Medium > 0 {
		c.Policy.Thresholds.Medium = file.Thresholds.Medium
	}
	if file.GlobalBudgetSeconds > 0 {
		c.Policy.GlobalBudget = time.Duration(file.GlobalBudgetSeconds) * time.Second
	}
	if len(file.ClassifierPriority) > 0 {
		for _, name := range file.ClassifierPriority {
			if !knownProviders[name] {
				return fmt.Errorf("invalid policy: unknown classifier provider %q", name)
			}
		}
		c.ClassifierPriority = file.ClassifierPriority
	}

	if c.Policy.Thresholds.Medium >= c.Policy.Thresholds.High ||
		c.Policy.Thresholds.High >= c.Policy.Thresholds.Critical {
		return fmt.Errorf("invalid policy: thresholds must be strictly increasing")
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
