package aidecision

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/clinicore/intake-api/internal/model"
)

type stubCompleter struct {
	content string
	err     error
	calls   int
}

func (s *stubCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

func newTestClient(stub *stubCompleter) *Client {
	return newClientWithCompleter(stub, zerolog.Nop())
}

func TestTopQuestionsSuccess(t *testing.T) {
	stub := &stubCompleter{content: `Of course. {"topQuestions": ["Q1?", "Q2?", "Q3?", "Q4?", "Q5?"]}`}
	c := newTestClient(stub)

	resp := c.TopQuestions(context.Background(), "fever", "cough")
	assert.True(t, resp.Success)
	assert.Len(t, resp.TopQuestions, 5)
	assert.Equal(t, "Q1?", resp.TopQuestions[0])
}

func TestTopQuestionsFallbackOnError(t *testing.T) {
	c := newTestClient(&stubCompleter{err: errors.New("connection refused")})

	resp := c.TopQuestions(context.Background(), "fever", "cough")
	assert.True(t, resp.Success)
	assert.Equal(t, []string{
		"How long have you been experiencing these symptoms?",
		"Have you taken any medication for these symptoms?",
		"Are your symptoms getting better, worse, or staying the same?",
	}, resp.TopQuestions)
}

func TestTopQuestionsFallbackOnGarbage(t *testing.T) {
	c := newTestClient(&stubCompleter{content: "I'd rather not produce JSON today."})

	resp := c.TopQuestions(context.Background(), "fever", "cough")
	assert.True(t, resp.Success)
	assert.Len(t, resp.TopQuestions, 3)
}

func TestTopQuestionsCachesModelOutput(t *testing.T) {
	stub := &stubCompleter{content: `{"topQuestions": ["Q1?"]}`}
	c := newTestClient(stub)

	c.TopQuestions(context.Background(), "fever", "cough")
	c.TopQuestions(context.Background(), "fever", "cough")
	assert.Equal(t, 1, stub.calls)

	c.TopQuestions(context.Background(), "fever", "headache")
	assert.Equal(t, 2, stub.calls)
}

func TestTopQuestionsDoesNotCacheFallback(t *testing.T) {
	stub := &stubCompleter{err: errors.New("timeout")}
	c := newTestClient(stub)

	c.TopQuestions(context.Background(), "fever", "cough")
	c.TopQuestions(context.Background(), "fever", "cough")
	assert.Equal(t, 2, stub.calls)
}

func TestRecommendationsSuccess(t *testing.T) {
	stub := &stubCompleter{content: `{"possibleTreatments": ["rest", "fluids"], "suggestedPrescriptions": ["paracetamol"]}`}
	c := newTestClient(stub)

	resp := c.Recommendations(context.Background(), "fever", "cough", []model.FollowUpQA{
		{Question: "Q1", Answer: "A1"},
	})
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"rest", "fluids"}, resp.PossibleTreatments)
	assert.Equal(t, []string{"paracetamol"}, resp.SuggestedPrescriptions)
}

func TestRecommendationsFallback(t *testing.T) {
	c := newTestClient(&stubCompleter{err: errors.New("gateway timeout")})

	resp := c.Recommendations(context.Background(), "fever", "cough", nil)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.ErrorMessage)
	assert.Empty(t, resp.PossibleTreatments)
	assert.Empty(t, resp.SuggestedPrescriptions)
	assert.NotNil(t, resp.PossibleTreatments)
	assert.NotNil(t, resp.SuggestedPrescriptions)
}

func TestRecommendationsFallbackOnMissingKey(t *testing.T) {
	c := newTestClient(&stubCompleter{content: `{"possibleTreatments": ["rest"]}`})

	resp := c.Recommendations(context.Background(), "fever", "cough", nil)
	assert.False(t, resp.Success)
	assert.Empty(t, resp.PossibleTreatments)
}

func TestWaitingInstructionsSuccess(t *testing.T) {
	c := newTestClient(&stubCompleter{content: `{"instructions": "Take a seat near reception."}`})

	resp := c.WaitingInstructions(context.Background(), "fever", "cough", nil)
	assert.True(t, resp.Success)
	assert.Equal(t, "Take a seat near reception.", resp.Instructions)
}

func TestWaitingInstructionsFallbackVerbatim(t *testing.T) {
	c := newTestClient(&stubCompleter{err: errors.New("dns failure")})

	resp := c.WaitingInstructions(context.Background(), "fever", "cough", nil)
	assert.False(t, resp.Success)
	assert.Equal(t,
		"Please stay in the clinic. A clerk will find you when it's your turn. If your symptoms worsen, please alert the clinic staff immediately.",
		resp.Instructions,
	)
}

func TestWaitingInstructionsFallbackOnEmptyInstructions(t *testing.T) {
	c := newTestClient(&stubCompleter{content: `{"instructions": "  "}`})

	resp := c.WaitingInstructions(context.Background(), "fever", "cough", nil)
	assert.False(t, resp.Success)
	assert.Equal(t,
		"Please stay in the clinic. A clerk will find you when it's your turn. If your symptoms worsen, please alert the clinic staff immediately.",
		resp.Instructions,
	)
}
