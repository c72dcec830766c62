// Package anthropic implements the question and explanation generator on
// top of the Anthropic Messages API. Responses are free text that must
// contain one JSON object; the client extracts it, validates its shape and
// maps it onto domain types.
package anthropic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/questforge/questforge/internal/domain"
)

type messageAPI interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Config tunes the generator client.
type Config struct {
	Model       string
	MaxTokens   int64
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

func (c *Config) withDefaults() {
	if c.Model == "" {
		c.Model = "claude-sonnet-4-20250514"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	if c.Timeout == 0 {
		c.Timeout = 90 * time.Second
	}
}

// Client generates questions and explanations.
type Client struct {
	messages messageAPI
	cfg      Config
	log      *slog.Logger
}

// NewClient creates a generator backed by the given SDK client.
func NewClient(log *slog.Logger, api sdk.Client, cfg Config) *Client {
	cfg.withDefaults()
	return &Client{
		messages: &api.Messages,
		cfg:      cfg,
		log:      log.With("component", "anthropic"),
	}
}

type generatedPayload struct {
	Questions []struct {
		Statement     string `json:"statement"`
		Kind          string `json:"kind"`
		Difficulty    string `json:"difficulty"`
		CorrectAnswer string `json:"correct_answer"`
		Choices       []struct {
			Letter string `json:"letter"`
			Text   string `json:"text"`
		} `json:"choices"`
	} `json:"questions"`
}

// GenerateQuestions asks the model for a battery of questions about one
// topic. The returned battery carries the hash of the prompt so persisted
// questions can be traced back to their generation request.
func (c *Client) GenerateQuestions(ctx context.Context, topic domain.TopicContext, count int, kind domain.QuestionKind, difficulty domain.Difficulty) (*domain.GeneratedBattery, error) {
	prompt := buildQuestionPrompt(topic, count, kind, difficulty)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("response for topic %q: %w", topic.TopicName, err)
	}

	var payload generatedPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("decode response for topic %q: %w", topic.TopicName, err)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("response for topic %q contains no questions", topic.TopicName)
	}

	battery := &domain.GeneratedBattery{PromptHash: hashPrompt(prompt)}
	for i, q := range payload.Questions {
		gq, err := mapQuestion(q.Statement, q.Kind, q.Difficulty, q.CorrectAnswer, q.Choices)
		if err != nil {
			return nil, fmt.Errorf("question %d for topic %q: %w", i, topic.TopicName, err)
		}
		battery.Questions = append(battery.Questions, gq)
	}

	c.log.Debug("battery received",
		slog.String("topic", topic.TopicName),
		slog.Int("questions", len(battery.Questions)),
	)

	return battery, nil
}

// GenerateExplanation asks the model for a plain-text explanation of why
// the stored correct answer is correct.
func (c *Client) GenerateExplanation(ctx context.Context, q *domain.Question, topic domain.TopicContext) (string, error) {
	raw, err := c.complete(ctx, buildExplanationPrompt(q, topic))
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("empty explanation for question %s", q.ID)
	}
	return text, nil
}

// complete runs one prompt with bounded retries and backoff. Each attempt
// gets its own deadline; context cancellation aborts between attempts.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	delay := c.cfg.RetryDelay

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		msg, err := c.messages.New(attemptCtx, sdk.MessageNewParams{
			Model:     sdk.Model(c.cfg.Model),
			MaxTokens: c.cfg.MaxTokens,
			Messages: []sdk.MessageParam{
				sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
			},
		})
		cancel()
		if err != nil {
			lastErr = err
			c.log.Warn("generation attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(msg.Content) == 0 {
			lastErr = fmt.Errorf("empty response")
			continue
		}
		return msg.Content[0].Text, nil
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

func mapQuestion(statement, kind, difficulty, correctAnswer string, choices []struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}) (domain.GeneratedQuestion, error) {
	var gq domain.GeneratedQuestion

	statement = strings.TrimSpace(statement)
	if statement == "" {
		return gq, fmt.Errorf("empty statement")
	}

	k := domain.QuestionKind(strings.ToUpper(strings.TrimSpace(kind)))
	if !k.IsStorable() {
		return gq, fmt.Errorf("unexpected kind %q", kind)
	}

	d := domain.Difficulty(strings.ToUpper(strings.TrimSpace(difficulty)))
	if !d.IsValid() || d == domain.DifficultyAdaptive {
		return gq, fmt.Errorf("unexpected difficulty %q", difficulty)
	}

	correct := strings.ToUpper(strings.TrimSpace(correctAnswer))
	if correct == "" {
		return gq, fmt.Errorf("empty correct answer")
	}

	if len(choices) < 2 {
		return gq, fmt.Errorf("needs at least two choices, got %d", len(choices))
	}

	seen := make(map[string]struct{}, len(choices))
	matched := false
	for _, ch := range choices {
		letter := strings.ToUpper(strings.TrimSpace(ch.Letter))
		text := strings.TrimSpace(ch.Text)
		if letter == "" || text == "" {
			return gq, fmt.Errorf("choice with empty letter or text")
		}
		if _, dup := seen[letter]; dup {
			return gq, fmt.Errorf("duplicate choice letter %q", letter)
		}
		seen[letter] = struct{}{}
		if letter == correct {
			matched = true
		}
		gq.Choices = append(gq.Choices, domain.GeneratedChoice{Letter: letter, Text: text})
	}
	if !matched {
		return gq, fmt.Errorf("correct answer %q matches no choice", correct)
	}

	gq.Statement = statement
	gq.Kind = k
	gq.Difficulty = d
	gq.CorrectAnswer = correct
	return gq, nil
}

// extractJSON finds the first complete JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	out := s[start : end+1]
	if !json.Valid([]byte(out)) {
		return "", fmt.Errorf("response does not contain valid JSON")
	}
	return out, nil
}

func hashPrompt(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(h[:])
}
