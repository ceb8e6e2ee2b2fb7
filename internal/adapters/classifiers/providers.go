package classifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// maxClassifierContent bounds how much content is sent to a provider
const maxClassifierContent = 1000

// classifyInstruction is the fixed instruction sent with every request.
// Providers must answer with a single JSON object; anything else is a
// provider failure.
const classifyInstruction = `You are a cybersecurity analyst. Assess the following content for scam, phishing, and malware risk. Respond with ONLY valid JSON:
{"risk_score": 0-100, "confidence": 0-100, "categories": ["phishing"|"scam"|"malware"|"social_engineering"|"spam"|"misinformation"|"suspicious_link"]}

Content:
`

// assessmentPayload is the strict response schema expected from every
// provider. Any shape mismatch is a provider failure, never a propagated
// parse error.
type assessmentPayload struct {
	RiskScore  *int     `json:"risk_score"`
	Confidence *int     `json:"confidence"`
	Categories []string `json:"categories"`
}

func parseAssessment(raw string) (*Assessment, error) {
	raw = stripFences(raw)

	var payload assessmentPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if payload.RiskScore == nil || payload.Confidence == nil {
		return nil, fmt.Errorf("response missing required fields")
	}
	if *payload.RiskScore < 0 || *payload.RiskScore > 100 {
		return nil, fmt.Errorf("risk_score %d out of range", *payload.RiskScore)
	}
	if *payload.Confidence < 0 || *payload.Confidence > 100 {
		return nil, fmt.Errorf("confidence %d out of range", *payload.Confidence)
	}
	return &Assessment{
		RiskScore:  *payload.RiskScore,
		Confidence: *payload.Confidence,
		Categories: payload.Categories,
	}, nil
}

// stripFences removes markdown code fences some models wrap JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(content string, limit int) string {
	if len(content) <= limit {
		return content
	}
	return content[:limit]
}

// OpenAICompatProvider calls any chat-completions API that speaks the
// OpenAI wire format. Both the primary (Groq) and secondary (OpenAI)
// providers use it with different endpoints and models.
type OpenAICompatProvider struct {
	name     string
	endpoint string
	apiKey   string
	model    string
	httpc    *http.Client
}

// NewOpenAICompatProvider creates a chat-completions classifier provider
func NewOpenAICompatProvider(name, endpoint, apiKey, model string) *OpenAICompatProvider {
	return &OpenAICompatProvider{
		name:     name,
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		httpc:    &http.Client{},
	}
}

// Name returns the provider's registry name
func (p *OpenAICompatProvider) Name() string { return p.name }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends the bounded content with the fixed instruction and
// parses the strict response schema
func (p *OpenAICompatProvider) Classify(ctx context.Context, content string) (*Assessment, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "user", Content: classifyInstruction + truncate(content, maxClassifierContent)},
		},
		Temperature: 0.1,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("malformed completion response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("completion response has no choices")
	}
	return parseAssessment(decoded.Choices[0].Message.Content)
}

// AnthropicProvider calls the Anthropic messages API
type AnthropicProvider struct {
	name     string
	endpoint string
	apiKey   string
	model    string
	httpc    *http.Client
}

// NewAnthropicProvider creates an Anthropic messages classifier provider
func NewAnthropicProvider(endpoint, apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		name:     "anthropic",
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		httpc:    &http.Client{},
	}
}

// Name returns the provider's registry name
func (p *AnthropicProvider) Name() string { return p.name }

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Classify sends the bounded content with the fixed instruction and
// parses the strict response schema
func (p *AnthropicProvider) Classify(ctx context.Context, content string) (*Assessment, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     p.model,
		MaxTokens: 400,
		Messages: []chatMessage{
			{Role: "user", Content: classifyInstruction + truncate(content, maxClassifierContent)},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("malformed messages response: %w", err)
	}
	if len(decoded.Content) == 0 {
		return nil, fmt.Errorf("messages response has no content")
	}
	return parseAssessment(decoded.Content[0].Text)
}
