package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/service/pomodoro"
)

// pomodoroService defines the minimal interface needed by PomodoroHandler.
type pomodoroService interface {
	Start(ctx context.Context, userID uuid.UUID, in pomodoro.StartInput) (*domain.PomodoroSession, error)
	Heartbeat(ctx context.Context, userID, sessionID uuid.UUID, blocks int) (*domain.PomodoroSession, error)
	Finish(ctx context.Context, userID, sessionID uuid.UUID) (*domain.PomodoroSession, error)
	History(ctx context.Context, userID uuid.UUID, status *domain.PomodoroStatus, limit, offset int) ([]*domain.PomodoroSession, error)
	WeekSummary(ctx context.Context, userID uuid.UUID) (*pomodoro.Summary, error)
}

// PomodoroHandler serves focus-timer endpoints.
type PomodoroHandler struct {
	svc pomodoroService
	log *slog.Logger
}

// NewPomodoroHandler creates a PomodoroHandler.
func NewPomodoroHandler(svc pomodoroService, logger *slog.Logger) *PomodoroHandler {
	return &PomodoroHandler{svc: svc, log: logger.With("handler", "pomodoro")}
}

type startSessionRequest struct {
	TopicID      *string `json:"topicId"`
	FocusMinutes int     `json:"focusMinutes"`
	BreakMinutes int     `json:"breakMinutes"`
}

type heartbeatRequest struct {
	CompletedBlocks int `json:"completedBlocks"`
}

type sessionResponse struct {
	ID              string     `json:"id"`
	TopicID         *string    `json:"topicId,omitempty"`
	Status          string     `json:"status"`
	FocusMinutes    int        `json:"focusMinutes"`
	BreakMinutes    int        `json:"breakMinutes"`
	CompletedBlocks int        `json:"completedBlocks"`
	StartedAt       time.Time  `json:"startedAt"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
}

type weekSummaryResponse struct {
	Days         []dayBlocksResponse `json:"days"`
	TotalBlocks  int                 `json:"totalBlocks"`
	FocusMinutes int                 `json:"focusMinutes"`
}

type dayBlocksResponse struct {
	Date   time.Time `json:"date"`
	Blocks int       `json:"blocks"`
}

// Start handles POST /pomodoro/sessions.
func (h *PomodoroHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := pomodoro.StartInput{
		FocusMinutes: req.FocusMinutes,
		BreakMinutes: req.BreakMinutes,
	}
	if req.TopicID != nil && *req.TopicID != "" {
		id, err := uuid.Parse(*req.TopicID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid topicId")
			return
		}
		in.TopicID = &id
	}

	session, err := h.svc.Start(r.Context(), userID, in)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Heartbeat handles PUT /pomodoro/sessions/{id}.
func (h *PomodoroHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req heartbeatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.svc.Heartbeat(r.Context(), userID, sessionID, req.CompletedBlocks)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// Finish handles POST /pomodoro/sessions/{id}/finish.
func (h *PomodoroHandler) Finish(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	session, err := h.svc.Finish(r.Context(), userID, sessionID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// History handles GET /pomodoro/sessions?status=&limit=&offset=.
func (h *PomodoroHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	var status *domain.PomodoroStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.PomodoroStatus(raw)
		status = &s
	}
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	sessions, err := h.svc.History(r.Context(), userID, status, limit, offset)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// WeekSummary handles GET /pomodoro/summary.
func (h *PomodoroHandler) WeekSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.WeekSummary(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	days := make([]dayBlocksResponse, 0, len(summary.Days))
	for _, d := range summary.Days {
		days = append(days, dayBlocksResponse{Date: d.Date, Blocks: d.Blocks})
	}
	writeJSON(w, http.StatusOK, weekSummaryResponse{
		Days:         days,
		TotalBlocks:  summary.TotalBlocks,
		FocusMinutes: int(summary.FocusTime.Minutes()),
	})
}

func toSessionResponse(s *domain.PomodoroSession) sessionResponse {
	resp := sessionResponse{
		ID:              s.ID.String(),
		Status:          s.Status.String(),
		FocusMinutes:    s.FocusMinutes,
		BreakMinutes:    s.BreakMinutes,
		CompletedBlocks: s.CompletedBlocks,
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
	}
	if s.TopicID != nil {
		id := s.TopicID.String()
		resp.TopicID = &id
	}
	return resp
}
