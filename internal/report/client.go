package report

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/exam-analytics/backend/internal/models"
)

// LLMClient is the interface both reporter implementations satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// Reporter turns an analysis run into a narrative findings report for
// instructors. It is strictly optional: the analysis endpoints never depend
// on it, and a failed report leaves the numbers untouched.
type Reporter struct {
	llm   LLMClient
	model string
}

func NewReporter() *Reporter {
	var llm LLMClient
	model := "mock"

	if os.Getenv("MOCK_REPORTER") == "true" || os.Getenv("ANTHROPIC_API_KEY") == "" {
		llm = NewMockClient()
		log.Println("Reporter using mock data")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5"
		}
		llm = NewAPIClient(model)
		log.Println("Reporter using Anthropic API:", model)
	}

	return &Reporter{llm: llm, model: model}
}

func (r *Reporter) ModelName() string {
	return r.model
}

// Summarize produces the findings report for one analysis run. integrity may
// be nil when similarity matrices were not requested.
func (r *Reporter) Summarize(ctx context.Context, analysis *models.BiPointAnalysisResult, integrity *models.IntegrityResult) (*Report, error) {
	systemPrompt := SystemPrompt()
	userPrompt := BuildUserPrompt(analysis, integrity)

	resp, err := r.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	rep, err := ParseReport(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	rep.Model = r.model
	return rep, nil
}

// ── APIClient — Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   4096,
		Temperature: param.NewOpt(0.3),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			time.Sleep(sleepDuration)
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient — Local Development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	mockJSON := `{
		"summary": "[Mock] The exam performed within expected ranges. Two items showed weak discrimination and one student pair answered nearly identically across different variants.",
		"findings": [
			{"severity": "warning", "title": "Weakly discriminating item", "detail": "[Mock] An item was answered correctly at similar rates by high and low scorers, so it adds little measurement value."},
			{"severity": "critical", "title": "High answer similarity", "detail": "[Mock] Two students on different variants agreed on nearly every question, which variant shuffling makes unlikely by chance."}
		],
		"recommendations": [
			"[Mock] Review the flagged item's distractors before reusing it.",
			"[Mock] Compare seating and submission times for the flagged student pair."
		]
	}`
	return &LLMResponse{
		Content:      mockJSON,
		PromptTokens: 800,
		OutputTokens: 400,
	}, nil
}
