package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
)

// dashboardService defines the minimal interface needed by DashboardHandler.
type dashboardService interface {
	Stats(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error)
	Vulnerabilities(ctx context.Context, userID uuid.UUID) ([]domain.TopicAccuracy, error)
}

// DashboardHandler serves progress rollup endpoints.
type DashboardHandler struct {
	svc dashboardService
	log *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(svc dashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: logger.With("handler", "dashboard")}
}

type statsResponse struct {
	Overall   overallStatsResponse      `json:"overall"`
	BySubject []subjectAccuracyResponse `json:"bySubject"`
	Daily     []dayActivityResponse     `json:"daily"`
	DueCount  int                       `json:"dueCount"`
}

type overallStatsResponse struct {
	TotalAnswers int     `json:"totalAnswers"`
	Correct      int     `json:"correct"`
	Accuracy     float64 `json:"accuracy"`
}

type subjectAccuracyResponse struct {
	SubjectName string  `json:"subjectName"`
	Total       int     `json:"total"`
	Correct     int     `json:"correct"`
	Accuracy    float64 `json:"accuracy"`
}

type topicAccuracyResponse struct {
	TopicName   string  `json:"topicName"`
	SubjectName string  `json:"subjectName"`
	Total       int     `json:"total"`
	Correct     int     `json:"correct"`
	Accuracy    float64 `json:"accuracy"`
}

type dayActivityResponse struct {
	Date    time.Time `json:"date"`
	Total   int       `json:"total"`
	Correct int       `json:"correct"`
}

// Stats handles GET /dashboard/stats.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	bySubject := make([]subjectAccuracyResponse, 0, len(stats.BySubject))
	for _, s := range stats.BySubject {
		bySubject = append(bySubject, subjectAccuracyResponse{
			SubjectName: s.SubjectName,
			Total:       s.Total,
			Correct:     s.Correct,
			Accuracy:    s.Accuracy,
		})
	}
	daily := make([]dayActivityResponse, 0, len(stats.Daily))
	for _, d := range stats.Daily {
		daily = append(daily, dayActivityResponse{Date: d.Date, Total: d.Total, Correct: d.Correct})
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Overall: overallStatsResponse{
			TotalAnswers: stats.Overall.TotalAnswers,
			Correct:      stats.Overall.Correct,
			Accuracy:     stats.Overall.Accuracy,
		},
		BySubject: bySubject,
		Daily:     daily,
		DueCount:  stats.DueCount,
	})
}

// Vulnerabilities handles GET /dashboard/vulnerabilities.
func (h *DashboardHandler) Vulnerabilities(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	topics, err := h.svc.Vulnerabilities(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]topicAccuracyResponse, 0, len(topics))
	for _, t := range topics {
		out = append(out, topicAccuracyResponse{
			TopicName:   t.TopicName,
			SubjectName: t.SubjectName,
			Total:       t.Total,
			Correct:     t.Correct,
			Accuracy:    t.Accuracy,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": out})
}
