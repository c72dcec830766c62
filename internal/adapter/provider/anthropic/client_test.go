package anthropic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questforge/questforge/internal/domain"
)

type stubMessageAPI struct {
	newFunc func(ctx context.Context, params sdk.MessageNewParams) (*sdk.Message, error)
	calls   int
}

func (s *stubMessageAPI) New(ctx context.Context, params sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.calls++
	return s.newFunc(ctx, params)
}

func textMessage(text string) *sdk.Message {
	return &sdk.Message{Content: []sdk.ContentBlockUnion{{Text: text}}}
}

func newTestClient(api messageAPI) *Client {
	return &Client{
		messages: api,
		cfg:      Config{Model: "test", MaxTokens: 1024, MaxAttempts: 3, RetryDelay: time.Millisecond},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

const validBatteryJSON = `{
  "questions": [
    {
      "statement": "Which article opens the constitution?",
      "kind": "multiple_choice",
      "difficulty": "medium",
      "correct_answer": "a",
      "choices": [
        {"letter": "A", "text": "Article 1"},
        {"letter": "B", "text": "Article 5"},
        {"letter": "C", "text": "Article 37"}
      ]
    }
  ]
}`

func TestClient_GenerateQuestions(t *testing.T) {
	t.Parallel()

	api := &stubMessageAPI{
		newFunc: func(_ context.Context, params sdk.MessageNewParams) (*sdk.Message, error) {
			return textMessage("Sure, here you go:\n" + validBatteryJSON + "\nHope this helps!"), nil
		},
	}

	client := newTestClient(api)

	battery, err := client.GenerateQuestions(context.Background(),
		domain.TopicContext{TopicName: "constitutional principles", SubjectName: "Law"},
		1, domain.QuestionKindMultipleChoice, domain.DifficultyMedium)
	require.NoError(t, err)

	require.Len(t, battery.Questions, 1)
	q := battery.Questions[0]
	assert.Equal(t, domain.QuestionKindMultipleChoice, q.Kind, "kind is normalized to uppercase")
	assert.Equal(t, domain.DifficultyMedium, q.Difficulty)
	assert.Equal(t, "A", q.CorrectAnswer)
	assert.Len(t, q.Choices, 3)
	assert.NotEmpty(t, battery.PromptHash)
	assert.Len(t, battery.PromptHash, 64)
}

func TestClient_GenerateQuestions_BadPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
	}{
		{"no json at all", "I cannot help with that."},
		{"broken json", `{"questions": [`},
		{"empty battery", `{"questions": []}`},
		{"correct answer matches no choice", `{"questions": [{
			"statement": "s", "kind": "MULTIPLE_CHOICE", "difficulty": "EASY",
			"correct_answer": "D",
			"choices": [{"letter": "A", "text": "x"}, {"letter": "B", "text": "y"}]}]}`},
		{"single choice", `{"questions": [{
			"statement": "s", "kind": "TRUE_FALSE", "difficulty": "EASY",
			"correct_answer": "TRUE",
			"choices": [{"letter": "TRUE", "text": "True"}]}]}`},
		{"unstorable kind", `{"questions": [{
			"statement": "s", "kind": "MIXED", "difficulty": "EASY",
			"correct_answer": "A",
			"choices": [{"letter": "A", "text": "x"}, {"letter": "B", "text": "y"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := &stubMessageAPI{
				newFunc: func(_ context.Context, _ sdk.MessageNewParams) (*sdk.Message, error) {
					return textMessage(tt.response), nil
				},
			}

			client := newTestClient(api)

			_, err := client.GenerateQuestions(context.Background(),
				domain.TopicContext{TopicName: "t", SubjectName: "s"},
				1, domain.QuestionKindMultipleChoice, domain.DifficultyEasy)
			assert.Error(t, err)
		})
	}
}

func TestClient_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	api := &stubMessageAPI{}
	api.newFunc = func(_ context.Context, _ sdk.MessageNewParams) (*sdk.Message, error) {
		if api.calls < 3 {
			return nil, errors.New("overloaded")
		}
		return textMessage(validBatteryJSON), nil
	}

	client := newTestClient(api)

	battery, err := client.GenerateQuestions(context.Background(),
		domain.TopicContext{TopicName: "t", SubjectName: "s"},
		1, domain.QuestionKindMultipleChoice, domain.DifficultyMedium)
	require.NoError(t, err)
	assert.Equal(t, 3, api.calls)
	assert.Len(t, battery.Questions, 1)
}

func TestClient_RetriesExhausted(t *testing.T) {
	t.Parallel()

	api := &stubMessageAPI{
		newFunc: func(_ context.Context, _ sdk.MessageNewParams) (*sdk.Message, error) {
			return nil, errors.New("overloaded")
		},
	}

	client := newTestClient(api)

	_, err := client.GenerateExplanation(context.Background(),
		&domain.Question{Statement: "s", CorrectAnswer: "A"},
		domain.TopicContext{TopicName: "t"})
	require.Error(t, err)
	assert.Equal(t, 3, api.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestClient_GenerateExplanation(t *testing.T) {
	t.Parallel()

	api := &stubMessageAPI{
		newFunc: func(_ context.Context, params sdk.MessageNewParams) (*sdk.Message, error) {
			return textMessage("  The answer is A because the statute says so.  "), nil
		},
	}

	client := newTestClient(api)

	text, err := client.GenerateExplanation(context.Background(),
		&domain.Question{Statement: "Which article?", CorrectAnswer: "A",
			Choices: []domain.Choice{{Letter: "A", Text: "Article 1"}}},
		domain.TopicContext{TopicName: "t", SubjectName: "s"})
	require.NoError(t, err)
	assert.Equal(t, "The answer is A because the statute says so.", text)
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	got, err := extractJSON("prefix {\"a\": 1} suffix")
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, got)

	_, err = extractJSON("no braces here")
	assert.Error(t, err)

	_, err = extractJSON("} backwards {")
	assert.Error(t, err)
}
