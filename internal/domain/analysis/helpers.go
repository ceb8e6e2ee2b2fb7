package analysis

import (
	"net/url"
	"strings"
	"unicode"
)

// ExtractFirstURL returns the first URL-shaped token in free text, or ""
// if none is found. A scheme is not required: "bit.ly/xyz" counts.
func ExtractFirstURL(text string) string {
	for _, token := range strings.Fields(text) {
		token = strings.Trim(token, ".,;:!?()[]<>\"'")
		if token == "" {
			continue
		}
		if strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://") {
			return token
		}
		host := token
		if i := strings.IndexAny(host, "/?#"); i >= 0 {
			host = host[:i]
		}
		if looksLikeHost(host) {
			return token
		}
	}
	return ""
}

// looksLikeHost reports whether s is a plausible bare hostname:
// at least two dot-separated labels and a two-letter-or-longer TLD.
func looksLikeHost(s string) bool {
	if strings.Contains(s, "@") {
		return false
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	for _, label := range labels {
		if label == "" {
			return false
		}
	}
	return true
}

// normalizeURL splits a raw URL into scheme and bare lowercase hostname.
// Scheme-less input is treated as having no secure transport.
func normalizeURL(raw string) (scheme, host string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	withScheme := raw
	if !strings.Contains(raw, "://") {
		withScheme = "http://" + raw
	} else {
		scheme = strings.ToLower(raw[:strings.Index(raw, "://")])
	}
	u, err := url.Parse(withScheme)
	if err != nil {
		return scheme, ""
	}
	host = strings.ToLower(u.Hostname())
	return scheme, host
}

// longestDigitRun returns the length of the longest run of consecutive
// ASCII digits in s
func longestDigitRun(s string) int {
	longest, run := 0, 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

// countKeywords counts how many keywords from the list appear in text
func countKeywords(text string, keywords []string) []string {
	var matched []string
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			matched = append(matched, keyword)
		}
	}
	return matched
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}
