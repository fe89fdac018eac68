package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/quarrydata/quarry/internal/config"
)

// AssistService wraps the Gemini client used for canonical-name keyword
// generation and sensitive-entity detection. A nil AssistService is valid
// and means no API key was configured; callers degrade to heuristics.
type AssistService struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	limiter *rate.Limiter
}

// NewAssistService initializes the Gemini client. With an empty API key the
// caller receives a nil service and no error so wiring can decide how to
// handle missing configuration.
func NewAssistService(ctx context.Context, conf config.Assist) (*AssistService, error) {
	if conf.GeminiAPIKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(conf.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := client.GenerativeModel(conf.Model)

	return &AssistService{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(conf.RatePerSec), 1),
	}, nil
}

// Close releases underlying resources.
func (s *AssistService) Close() {
	if s == nil || s.client == nil {
		return
	}
	s.client.Close()
}

// Enabled reports whether LLM assist is available.
func (s *AssistService) Enabled() bool {
	return s != nil && s.model != nil
}

type keywordResponse struct {
	Keywords []string `json:"keywords"`
}

// GenerateKeywords asks the model for canonical-name candidates for a
// catalog field described by its name, type, and description.
func (s *AssistService) GenerateKeywords(ctx context.Context, fieldName, dataType, description string) ([]string, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("assist is not configured")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	systemPrompt := `You are a data-catalog assistant. Given a database field, propose up to five canonical schema names that a data steward would map it to.
RULES:
1. Canonical names are lower snake_case (e.g. "customer_email").
2. Respond ONLY with a single minified JSON object, no markdown.
3. The JSON format MUST be: {"keywords": ["name1", "name2"]}`

	userPrompt := fmt.Sprintf("Field: %q, Type: %q, Description: %q", fieldName, dataType, description)

	s.model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	text, err := s.generate(ctx, userPrompt)
	if err != nil {
		return nil, err
	}

	var parsed keywordResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse keyword response: %w (response was: %s)", err, text)
	}

	return parsed.Keywords, nil
}

type detectionResponse struct {
	Entities []DetectedEntity `json:"entities"`
}

// DetectedEntity is one sensitive entity kind found in sample values.
type DetectedEntity struct {
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
}

// DetectEntities asks the model which sensitive entity kinds the sample
// values contain (email, phone, ssn, name, address, ...).
func (s *AssistService) DetectEntities(ctx context.Context, samples []string) ([]DetectedEntity, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("assist is not configured")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	systemPrompt := `You are a data-privacy classifier. Given sample values from one database column, identify which sensitive entity kinds they contain.
RULES:
1. Use kinds: email, phone, ssn, credit_card, name, address, date_of_birth, ip_address, none.
2. Respond ONLY with a single minified JSON object, no markdown.
3. The JSON format MUST be: {"entities": [{"kind": "email", "confidence": 0.95}]}`

	quoted := make([]string, len(samples))
	for i, sample := range samples {
		quoted[i] = fmt.Sprintf("%q", sample)
	}
	userPrompt := fmt.Sprintf("Samples: [%s]", strings.Join(quoted, ", "))

	s.model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	text, err := s.generate(ctx, userPrompt)
	if err != nil {
		return nil, err
	}

	var parsed detectionResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse detection response: %w (response was: %s)", err, text)
	}

	return parsed.Entities, nil
}

func (s *AssistService) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from model")
	}

	part := resp.Candidates[0].Content.Parts[0]
	textPart, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from model: %T", part)
	}

	return strings.TrimSpace(string(textPart)), nil
}
