package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/service/question"
)

type mockQuestionService struct {
	generateFunc     func(ctx context.Context, userID uuid.UUID, in question.GenerateInput) ([]*domain.Question, error)
	recordAnswerFunc func(ctx context.Context, userID uuid.UUID, in question.AnswerInput) (*question.AnswerResult, error)
	explanationFunc  func(ctx context.Context, userID, questionID uuid.UUID, answerID *uuid.UUID) (*question.ExplanationResult, error)
}

func (m *mockQuestionService) Generate(ctx context.Context, userID uuid.UUID, in question.GenerateInput) ([]*domain.Question, error) {
	return m.generateFunc(ctx, userID, in)
}
func (m *mockQuestionService) RecordAnswer(ctx context.Context, userID uuid.UUID, in question.AnswerInput) (*question.AnswerResult, error) {
	return m.recordAnswerFunc(ctx, userID, in)
}
func (m *mockQuestionService) Explanation(ctx context.Context, userID, questionID uuid.UUID, answerID *uuid.UUID) (*question.ExplanationResult, error) {
	return m.explanationFunc(ctx, userID, questionID, answerID)
}

func TestQuestionHandler_Generate_HidesCorrectAnswer(t *testing.T) {
	topicID := uuid.New().String()
	mock := &mockQuestionService{
		generateFunc: func(ctx context.Context, userID uuid.UUID, in question.GenerateInput) ([]*domain.Question, error) {
			if in.Mode != domain.GenerationModeTopic {
				t.Errorf("expected TOPIC mode, got %s", in.Mode)
			}
			return []*domain.Question{{
				ID:            uuid.New(),
				TopicID:       in.TopicID,
				Statement:     "What is 2+2?",
				Kind:          domain.QuestionKindMultipleChoice,
				Difficulty:    domain.DifficultyEasy,
				CorrectAnswer: "B",
				Choices: []domain.Choice{
					{Letter: "A", Text: "3", IsCorrect: false},
					{Letter: "B", Text: "4", IsCorrect: true},
				},
			}}, nil
		},
	}
	h := NewQuestionHandler(mock, discardLogger())

	req := authedRequest(http.MethodPost, "/api/questions/generate", map[string]any{
		"mode":    "TOPIC",
		"topicId": topicID,
		"count":   1,
	}, uuid.New())
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	raw := rec.Body.String()
	var body struct {
		Questions []questionResponse `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(body.Questions))
	}
	// Serving a fresh battery must not leak the answer key.
	for _, forbidden := range []string{`"correctAnswer"`, `"isCorrect"`} {
		if strings.Contains(raw, forbidden) {
			t.Errorf("response must not contain %s", forbidden)
		}
	}
}

func TestQuestionHandler_Generate_BadTopicID(t *testing.T) {
	h := NewQuestionHandler(&mockQuestionService{}, discardLogger())

	req := authedRequest(http.MethodPost, "/api/questions/generate", map[string]any{
		"mode":    "TOPIC",
		"topicId": "nope",
	}, uuid.New())
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestQuestionHandler_Answer(t *testing.T) {
	questionID := uuid.New()
	mock := &mockQuestionService{
		recordAnswerFunc: func(ctx context.Context, userID uuid.UUID, in question.AnswerInput) (*question.AnswerResult, error) {
			if in.QuestionID != questionID {
				t.Errorf("expected question %s, got %s", questionID, in.QuestionID)
			}
			return &question.AnswerResult{
				Answer:        &domain.Answer{ID: uuid.New(), Correct: false, Answer: in.Answer},
				CorrectAnswer: "C",
				Card: &domain.ReviewCard{
					ID:           uuid.New(),
					QuestionID:   questionID,
					IntervalDays: 1,
					Status:       domain.CardStatusPending,
				},
			}, nil
		},
	}
	h := NewQuestionHandler(mock, discardLogger())

	req := authedRequest(http.MethodPost, "/api/answers", map[string]any{
		"questionId": questionID.String(),
		"answer":     "A",
		"mode":       "TOPIC",
	}, uuid.New())
	rec := httptest.NewRecorder()
	h.Answer(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body answerResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Correct {
		t.Error("expected incorrect answer")
	}
	if body.CorrectAnswer != "C" {
		t.Errorf("expected correct answer C, got %q", body.CorrectAnswer)
	}
	if body.Card == nil || body.Card.IntervalDays != 1 {
		t.Errorf("expected reset card in response, got %+v", body.Card)
	}
}

func TestQuestionHandler_Explanation(t *testing.T) {
	questionID := uuid.New()
	mock := &mockQuestionService{
		explanationFunc: func(ctx context.Context, userID, gotID uuid.UUID, answerID *uuid.UUID) (*question.ExplanationResult, error) {
			if gotID != questionID {
				t.Errorf("expected question %s, got %s", questionID, gotID)
			}
			return &question.ExplanationResult{Explanation: "Because 2+2=4.", Cached: true}, nil
		},
	}
	h := NewQuestionHandler(mock, discardLogger())

	req := authedRequest(http.MethodPost, "/api/questions/"+questionID.String()+"/explanation",
		map[string]any{}, uuid.New())
	req.SetPathValue("id", questionID.String())
	rec := httptest.NewRecorder()
	h.Explanation(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body explanationResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Cached {
		t.Error("expected cached=true")
	}
	if body.Explanation != "Because 2+2=4." {
		t.Errorf("unexpected explanation %q", body.Explanation)
	}
}
