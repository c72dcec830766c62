package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/service/question"
)

// questionService defines the minimal interface needed by QuestionHandler.
type questionService interface {
	Generate(ctx context.Context, userID uuid.UUID, in question.GenerateInput) ([]*domain.Question, error)
	RecordAnswer(ctx context.Context, userID uuid.UUID, in question.AnswerInput) (*question.AnswerResult, error)
	Explanation(ctx context.Context, userID, questionID uuid.UUID, answerID *uuid.UUID) (*question.ExplanationResult, error)
}

// QuestionHandler serves question generation and answering endpoints.
type QuestionHandler struct {
	svc questionService
	log *slog.Logger
}

// NewQuestionHandler creates a QuestionHandler.
func NewQuestionHandler(svc questionService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{svc: svc, log: logger.With("handler", "question")}
}

type generateRequest struct {
	Mode       string  `json:"mode"`
	TopicID    *string `json:"topicId"`
	SubjectID  *string `json:"subjectId"`
	SyllabusID *string `json:"syllabusId"`
	Count      int     `json:"count"`
	Kind       string  `json:"kind"`
	Difficulty string  `json:"difficulty"`
}

type answerRequest struct {
	QuestionID     string `json:"questionId"`
	Answer         string `json:"answer"`
	Mode           string `json:"mode"`
	ElapsedSeconds *int   `json:"elapsedSeconds"`
}

type explanationRequest struct {
	AnswerID *string `json:"answerId"`
}

type questionResponse struct {
	ID          string           `json:"id"`
	TopicID     string           `json:"topicId"`
	Statement   string           `json:"statement"`
	Kind        string           `json:"kind"`
	Difficulty  string           `json:"difficulty"`
	Choices     []choiceResponse `json:"choices,omitempty"`
	Explanation *string          `json:"explanation,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type choiceResponse struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

type answerResponse struct {
	ID            string        `json:"id"`
	Correct       bool          `json:"correct"`
	CorrectAnswer string        `json:"correctAnswer"`
	Card          *cardResponse `json:"card,omitempty"`
}

type explanationResponse struct {
	Explanation string        `json:"explanation"`
	Cached      bool          `json:"cached"`
	Card        *cardResponse `json:"card,omitempty"`
}

// Generate handles POST /questions/generate.
func (h *QuestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := question.GenerateInput{
		Mode:       domain.GenerationMode(req.Mode),
		Count:      req.Count,
		Kind:       domain.QuestionKind(req.Kind),
		Difficulty: domain.Difficulty(req.Difficulty),
	}
	if !parseOptionalUUID(w, req.TopicID, "topicId", &in.TopicID) ||
		!parseOptionalUUID(w, req.SubjectID, "subjectId", &in.SubjectID) ||
		!parseOptionalUUID(w, req.SyllabusID, "syllabusId", &in.SyllabusID) {
		return
	}

	questions, err := h.svc.Generate(r.Context(), userID, in)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, toQuestionResponse(q, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": out})
}

// Answer handles POST /answers.
func (h *QuestionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid questionId")
		return
	}

	result, err := h.svc.RecordAnswer(r.Context(), userID, question.AnswerInput{
		QuestionID:     questionID,
		Answer:         req.Answer,
		Mode:           domain.GenerationMode(req.Mode),
		ElapsedSeconds: req.ElapsedSeconds,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := answerResponse{
		ID:            result.Answer.ID.String(),
		Correct:       result.Answer.Correct,
		CorrectAnswer: result.CorrectAnswer,
	}
	if result.Card != nil {
		card := toCardResponse(result.Card)
		resp.Card = &card
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Explanation handles POST /questions/{id}/explanation. Asking for an
// explanation counts as a miss on the question's review card.
func (h *QuestionHandler) Explanation(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	questionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req explanationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var answerID *uuid.UUID
	if req.AnswerID != nil {
		id, err := uuid.Parse(*req.AnswerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid answerId")
			return
		}
		answerID = &id
	}

	result, err := h.svc.Explanation(r.Context(), userID, questionID, answerID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := explanationResponse{
		Explanation: result.Explanation,
		Cached:      result.Cached,
	}
	if result.Card != nil {
		card := toCardResponse(result.Card)
		resp.Card = &card
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseOptionalUUID(w http.ResponseWriter, raw *string, name string, dst *uuid.UUID) bool {
	if raw == nil || *raw == "" {
		return true
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return false
	}
	*dst = id
	return true
}

// toQuestionResponse hides the correct answer unless explicitly requested;
// serving questions must not leak the key.
func toQuestionResponse(q *domain.Question, includeExplanation bool) questionResponse {
	choices := make([]choiceResponse, 0, len(q.Choices))
	for _, c := range q.Choices {
		choices = append(choices, choiceResponse{Letter: c.Letter, Text: c.Text})
	}
	resp := questionResponse{
		ID:         q.ID.String(),
		TopicID:    q.TopicID.String(),
		Statement:  q.Statement,
		Kind:       q.Kind.String(),
		Difficulty: q.Difficulty.String(),
		Choices:    choices,
		CreatedAt:  q.CreatedAt,
	}
	if includeExplanation {
		resp.Explanation = q.Explanation
	}
	return resp
}
