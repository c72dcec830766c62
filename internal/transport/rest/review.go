package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
)

// reviewService defines the minimal interface needed by ReviewHandler.
type reviewService interface {
	DueQuestions(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Question, error)
	Summary(ctx context.Context, userID uuid.UUID) (*domain.ReviewSummary, error)
	ListCards(ctx context.Context, userID uuid.UUID, status *domain.CardStatus, limit, offset int) ([]*domain.ReviewCard, int, error)
	ResetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewCard, error)
}

// ReviewHandler serves spaced-repetition endpoints.
type ReviewHandler struct {
	svc reviewService
	log *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(svc reviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, log: logger.With("handler", "review")}
}

type cardResponse struct {
	ID                 string     `json:"id"`
	QuestionID         string     `json:"questionId"`
	TopicID            string     `json:"topicId"`
	ConsecutiveCorrect int        `json:"consecutiveCorrect"`
	IntervalDays       int        `json:"intervalDays"`
	Status             string     `json:"status"`
	LastReviewedAt     *time.Time `json:"lastReviewedAt,omitempty"`
	NextDueAt          time.Time  `json:"nextDueAt"`
}

type summaryResponse struct {
	Total     int                       `json:"total"`
	Pending   int                       `json:"pending"`
	Mastered  int                       `json:"mastered"`
	Overdue   int                       `json:"overdue"`
	Agenda    []agendaEntryResponse     `json:"agenda"`
	BySubject []subjectDueCountResponse `json:"bySubject"`
}

type agendaEntryResponse struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

type subjectDueCountResponse struct {
	SubjectName string `json:"subjectName"`
	Due         int    `json:"due"`
}

// Due handles GET /reviews/due?limit=N.
func (h *ReviewHandler) Due(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 0)

	questions, err := h.svc.DueQuestions(r.Context(), userID, limit)
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

// Summary handles GET /reviews/summary.
func (h *ReviewHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	agenda := make([]agendaEntryResponse, 0, len(summary.Agenda))
	for _, e := range summary.Agenda {
		agenda = append(agenda, agendaEntryResponse{Date: e.Date, Count: e.Count})
	}
	bySubject := make([]subjectDueCountResponse, 0, len(summary.BySubject))
	for _, s := range summary.BySubject {
		bySubject = append(bySubject, subjectDueCountResponse{SubjectName: s.SubjectName, Due: s.Due})
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Total:     summary.Total,
		Pending:   summary.Pending,
		Mastered:  summary.Mastered,
		Overdue:   summary.Overdue,
		Agenda:    agenda,
		BySubject: bySubject,
	})
}

// Cards handles GET /reviews/cards?status=&limit=&offset=.
func (h *ReviewHandler) Cards(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	var status *domain.CardStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.CardStatus(raw)
		status = &s
	}
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	cards, total, err := h.svc.ListCards(r.Context(), userID, status, limit, offset)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": out, "total": total})
}

// ResetCard handles POST /reviews/cards/{id}/reset.
func (h *ReviewHandler) ResetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	cardID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	card, err := h.svc.ResetCard(r.Context(), userID, cardID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func toCardResponse(c *domain.ReviewCard) cardResponse {
	return cardResponse{
		ID:                 c.ID.String(),
		QuestionID:         c.QuestionID.String(),
		TopicID:            c.TopicID.String(),
		ConsecutiveCorrect: c.ConsecutiveCorrect,
		IntervalDays:       c.IntervalDays,
		Status:             c.Status.String(),
		LastReviewedAt:     c.LastReviewedAt,
		NextDueAt:          c.NextDueAt,
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
