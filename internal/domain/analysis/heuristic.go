package analysis

import (
	"strings"

	"github.com/viralsafe/content-safety/internal/domain"
)

// Category names emitted by the heuristic scanner. These are the same
// canonical names used as flags across all signal sources.
const (
	CategoryPhishing          = "phishing_language"
	CategoryScam              = "scam_vocabulary"
	CategoryMalware           = "malware_indicators"
	CategorySocialEngineering = "social_engineering"
	CategoryShortenerLink     = "shortener_link"
)

// categoryDetector is one fixed entry in the scanner's ordered detector
// set. A category contributes its weight once no matter how many of its
// keywords match.
type categoryDetector struct {
	category string
	weight   int
	keywords []string
}

// HeuristicScanner is the deterministic local signal producer. It is a
// pure function of its input: no I/O, no failure mode, always available.
type HeuristicScanner struct {
	detectors []categoryDetector
}

// NewHeuristicScanner creates a scanner with the standard detector set
func NewHeuristicScanner() *HeuristicScanner {
	return &HeuristicScanner{
		detectors: []categoryDetector{
			{
				category: CategoryPhishing,
				weight:   35,
				keywords: []string{
					"urgent", "immediately", "act now", "act fast",
					"verify account", "verify your account", "suspended",
					"confirm identity", "update payment", "click here",
					"limited time", "expires today", "security alert",
					"unauthorized access", "unusual activity", "password expired",
				},
			},
			{
				category: CategoryScam,
				weight:   25,
				keywords: []string{
					"congratulations you won", "claim your prize", "lottery",
					"you have been selected", "bitcoin", "crypto", "investment opportunity",
					"double your money", "guaranteed returns", "gift card",
					"wire transfer", "western union", "miracle cure", "get rich",
				},
			},
			{
				category: CategoryMalware,
				weight:   30,
				keywords: []string{
					".exe", ".scr", ".bat", ".vbs", ".apk", ".jar",
					"malware", "ransomware", "keylogger", "trojan",
					"disable your antivirus", "download and run", "crack", "keygen",
				},
			},
			{
				category: CategorySocialEngineering,
				weight:   20,
				keywords: []string{
					"this is the irs", "tax authority", "law enforcement",
					"arrest warrant", "legal action", "tech support",
					"microsoft support", "do not tell anyone", "keep this confidential",
					"i am the ceo", "on my behalf", "between us",
				},
			},
			{
				category: CategoryShortenerLink,
				weight:   25,
				keywords: []string{
					"bit.ly", "tinyurl", "t.co/", "goo.gl", "is.gd",
					"ow.ly", "cutt.ly", "rb.gy", "shorturl",
				},
			},
		},
	}
}

// Scan applies the ordered detector set to content and returns one signal.
// Matched category weights are summed (one contribution per category) and
// capped at 100. Absence of a local match is weak evidence of safety, so
// confidence is lower when nothing matched.
func (s *HeuristicScanner) Scan(content string) domain.RiskSignal {
	text := strings.ToLower(content)

	score := 0
	var flags []string
	for _, d := range s.detectors {
		if matched := countKeywords(text, d.keywords); len(matched) > 0 {
			score += d.weight
			flags = append(flags, d.category)
		}
	}
	if score > 100 {
		score = 100
	}

	confidence := 35
	if len(flags) > 0 {
		confidence = 70
	}

	return domain.RiskSignal{
		Source:     domain.SignalSource{Kind: domain.SourceHeuristic},
		Score:      score,
		Confidence: confidence,
		Flags:      flags,
	}
}
