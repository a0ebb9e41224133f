// Package aidecision wraps the external language-model completion service
// behind three request/response operations. Every failure mode (network,
// timeout, missing JSON, wrong shape) resolves to a fixed fallback so that
// callers never special-case "no AI available"; errors never propagate past
// this package's public methods.
package aidecision

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/pkg/metrics"
)

// The completion call gets a longer leash than regular request handling:
// 30s here versus the 10s default elsewhere.
const DefaultTimeout = 30 * time.Second

// defaultQuestions is served verbatim whenever the model cannot produce a
// usable question list. The contract upstream is only "a non-empty list".
var defaultQuestions = []string{
	"How long have you been experiencing these symptoms?",
	"Have you taken any medication for these symptoms?",
	"Are your symptoms getting better, worse, or staying the same?",
}

// defaultWaitingInstructions is the literal fallback for the waiting-room
// operation.
const defaultWaitingInstructions = "Please stay in the clinic. A clerk will find you when it's your turn. If your symptoms worsen, please alert the clinic staff immediately."

type TopQuestionsResponse struct {
	Success      bool     `json:"success"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	TopQuestions []string `json:"topQuestions"`
}

type RecommendationsResponse struct {
	Success                bool     `json:"success"`
	ErrorMessage           string   `json:"errorMessage,omitempty"`
	PossibleTreatments     []string `json:"possibleTreatments"`
	SuggestedPrescriptions []string `json:"suggestedPrescriptions"`
}

type WaitingInstructionsResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Instructions string `json:"instructions"`
}

// completionClient is the slice of the OpenAI-compatible API this package
// uses; tests substitute a stub.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key" envconfig:"AI_API_KEY"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Client is constructed once at process start and reused for the process
// lifetime.
type Client struct {
	completer completionClient
	model     string
	timeout   time.Duration
	cache     *cache.Cache
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

func NewClient(cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Client {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		completer: openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		cache:     cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:    logger,
		metrics:   m,
	}
}

// newClientWithCompleter is the test seam.
func newClientWithCompleter(c completionClient, logger zerolog.Logger) *Client {
	return &Client{
		completer: c,
		model:     openai.GPT4oMini,
		timeout:   DefaultTimeout,
		cache:     cache.New(5*time.Minute, 10*time.Minute),
		logger:    logger,
	}
}

// TopQuestions asks for exactly five follow-up questions for the given
// visit. Any failure yields the fixed default list with Success still true.
func (c *Client) TopQuestions(ctx context.Context, purposeOfVisit, symptoms string) TopQuestionsResponse {
	cacheKey := "topq\x00" + purposeOfVisit + "\x00" + symptoms
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(TopQuestionsResponse)
	}

	systemPrompt := `You are a clinical intake assistant. Given a patient's purpose of visit and symptoms, produce exactly 5 follow-up questions a clinician would ask next. Respond with a JSON object of exactly this shape and nothing else: {"topQuestions": ["question 1", "question 2", "question 3", "question 4", "question 5"]}`
	userPrompt := fmt.Sprintf("Purpose of visit: %s\nSymptoms: %s", purposeOfVisit, symptoms)

	raw, err := c.complete(ctx, "topquestions", systemPrompt, userPrompt)
	if err != nil {
		c.fallback("topquestions", err)
		return TopQuestionsResponse{Success: true, TopQuestions: defaultQuestions}
	}

	var payload struct {
		TopQuestions []string `json:"topQuestions"`
	}
	if outcome := extractPayload(raw, &payload); outcome != extractOK || len(payload.TopQuestions) == 0 {
		c.fallback("topquestions", fmt.Errorf("unusable completion output"))
		return TopQuestionsResponse{Success: true, TopQuestions: defaultQuestions}
	}

	resp := TopQuestionsResponse{Success: true, TopQuestions: payload.TopQuestions}
	c.cache.SetDefault(cacheKey, resp)
	return resp
}

// Recommendations asks for treatment and prescription suggestions. Failure
// yields empty lists with Success false.
func (c *Client) Recommendations(ctx context.Context, purposeOfVisit, symptoms string, pairs []model.FollowUpQA) RecommendationsResponse {
	systemPrompt := `You are a clinical decision-support assistant. Given a patient's purpose of visit, symptoms and follow-up answers, suggest possible treatments and prescriptions for the clinician to review. Respond with a JSON object of exactly this shape and nothing else: {"possibleTreatments": ["..."], "suggestedPrescriptions": ["..."]}`
	userPrompt := buildVisitPrompt(purposeOfVisit, symptoms, pairs)

	raw, err := c.complete(ctx, "recommendations", systemPrompt, userPrompt)
	if err != nil {
		c.fallback("recommendations", err)
		return RecommendationsResponse{
			Success:                false,
			ErrorMessage:           "recommendations unavailable",
			PossibleTreatments:     []string{},
			SuggestedPrescriptions: []string{},
		}
	}

	var payload struct {
		PossibleTreatments     []string `json:"possibleTreatments"`
		SuggestedPrescriptions []string `json:"suggestedPrescriptions"`
	}
	if outcome := extractPayload(raw, &payload); outcome != extractOK || payload.PossibleTreatments == nil || payload.SuggestedPrescriptions == nil {
		c.fallback("recommendations", fmt.Errorf("unusable completion output"))
		return RecommendationsResponse{
			Success:                false,
			ErrorMessage:           "recommendations unavailable",
			PossibleTreatments:     []string{},
			SuggestedPrescriptions: []string{},
		}
	}

	return RecommendationsResponse{
		Success:                true,
		PossibleTreatments:     payload.PossibleTreatments,
		SuggestedPrescriptions: payload.SuggestedPrescriptions,
	}
}

// WaitingInstructions asks for waiting-room guidance. Failure yields the
// literal fallback sentence with Success false.
func (c *Client) WaitingInstructions(ctx context.Context, purposeOfVisit, symptoms string, pairs []model.FollowUpQA) WaitingInstructionsResponse {
	systemPrompt := `You are a clinical intake assistant. Given a patient's purpose of visit, symptoms and follow-up answers, write short waiting-room instructions for the patient. Respond with a JSON object of exactly this shape and nothing else: {"instructions": "..."}`
	userPrompt := buildVisitPrompt(purposeOfVisit, symptoms, pairs)

	raw, err := c.complete(ctx, "waitinginstructions", systemPrompt, userPrompt)
	if err != nil {
		c.fallback("waitinginstructions", err)
		return WaitingInstructionsResponse{
			Success:      false,
			ErrorMessage: "instructions unavailable",
			Instructions: defaultWaitingInstructions,
		}
	}

	var payload struct {
		Instructions string `json:"instructions"`
	}
	if outcome := extractPayload(raw, &payload); outcome != extractOK || strings.TrimSpace(payload.Instructions) == "" {
		c.fallback("waitinginstructions", fmt.Errorf("unusable completion output"))
		return WaitingInstructionsResponse{
			Success:      false,
			ErrorMessage: "instructions unavailable",
			Instructions: defaultWaitingInstructions,
		}
	}

	return WaitingInstructionsResponse{Success: true, Instructions: payload.Instructions}
}

// complete performs one bounded completion call. No retries.
func (c *Client) complete(ctx context.Context, operation, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.completer.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if c.metrics != nil {
		c.metrics.AILatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.countRequest(operation, "error")
		return "", fmt.Errorf("completion call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.countRequest(operation, "error")
		return "", fmt.Errorf("completion returned no choices")
	}

	c.countRequest(operation, "ok")
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) fallback(operation string, err error) {
	c.logger.Warn().Err(err).Str("operation", operation).Msg("serving AI fallback")
	if c.metrics != nil {
		c.metrics.AIFallbacksTotal.WithLabelValues(operation).Inc()
	}
}

func (c *Client) countRequest(operation, outcome string) {
	if c.metrics != nil {
		c.metrics.AIRequestsTotal.WithLabelValues(operation, outcome).Inc()
	}
}

func buildVisitPrompt(purposeOfVisit, symptoms string, pairs []model.FollowUpQA) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Purpose of visit: %s\nSymptoms: %s\n", purposeOfVisit, symptoms)
	if len(pairs) > 0 {
		b.WriteString("Follow-up answers:\n")
		for _, qa := range pairs {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", qa.Question, qa.Answer)
		}
	}
	return b.String()
}
