package rest

import (
	"log/slog"
	"net/http"

	"github.com/questforge/questforge/internal/config"
	"github.com/questforge/questforge/internal/transport/middleware"
)

// RouterDeps bundles everything the HTTP router needs.
type RouterDeps struct {
	Log       *slog.Logger
	Auth      middleware.Middleware
	RateLimit *middleware.RateLimiter
	CORS      config.CORSConfig
	Limits    config.RateLimitConfig

	AuthHandler      *AuthHandler
	SyllabusHandler  *SyllabusHandler
	QuestionHandler  *QuestionHandler
	ReviewHandler    *ReviewHandler
	PomodoroHandler  *PomodoroHandler
	DashboardHandler *DashboardHandler
	HealthHandler    *HealthHandler
}

// NewRouter assembles the full HTTP surface. Health probes skip auth and
// rate limiting; register/login are IP-limited; everything else requires a
// bearer token, and question generation gets an extra per-user limit.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", deps.HealthHandler.Live)
	mux.HandleFunc("GET /ready", deps.HealthHandler.Ready)
	mux.HandleFunc("GET /health", deps.HealthHandler.Health)

	authLimit := deps.RateLimit.Limit(deps.Limits.AuthPerMinute, middleware.ByIP)
	mux.Handle("POST /api/auth/register", authLimit(http.HandlerFunc(deps.AuthHandler.Register)))
	mux.Handle("POST /api/auth/login", authLimit(http.HandlerFunc(deps.AuthHandler.Login)))

	private := http.NewServeMux()

	private.HandleFunc("GET /api/me", deps.AuthHandler.Me)
	private.HandleFunc("PATCH /api/me", deps.AuthHandler.UpdateProfile)
	private.HandleFunc("PUT /api/me/password", deps.AuthHandler.ChangePassword)

	private.HandleFunc("POST /api/syllabi/preview", deps.SyllabusHandler.Preview)
	private.HandleFunc("POST /api/syllabi", deps.SyllabusHandler.Create)
	private.HandleFunc("GET /api/syllabi", deps.SyllabusHandler.List)
	private.HandleFunc("GET /api/syllabi/{id}", deps.SyllabusHandler.Get)
	private.HandleFunc("PATCH /api/syllabi/{id}", deps.SyllabusHandler.Update)
	private.HandleFunc("PUT /api/syllabi/{id}/source", deps.SyllabusHandler.Reparse)
	private.HandleFunc("DELETE /api/syllabi/{id}", deps.SyllabusHandler.Delete)
	private.HandleFunc("POST /api/syllabi/{id}/subjects", deps.SyllabusHandler.AppendSubject)
	private.HandleFunc("POST /api/subjects/{id}/topics", deps.SyllabusHandler.AppendTopic)
	private.HandleFunc("DELETE /api/subjects/{id}", deps.SyllabusHandler.DeleteSubject)
	private.HandleFunc("DELETE /api/topics/{id}", deps.SyllabusHandler.DeleteTopic)

	generateLimit := deps.RateLimit.Limit(deps.Limits.GenerationPerMinute, middleware.ByUser)
	private.Handle("POST /api/questions/generate", generateLimit(http.HandlerFunc(deps.QuestionHandler.Generate)))
	private.HandleFunc("POST /api/answers", deps.QuestionHandler.Answer)
	private.HandleFunc("POST /api/questions/{id}/explanation", deps.QuestionHandler.Explanation)

	private.HandleFunc("GET /api/reviews/due", deps.ReviewHandler.Due)
	private.HandleFunc("GET /api/reviews/summary", deps.ReviewHandler.Summary)
	private.HandleFunc("GET /api/reviews/cards", deps.ReviewHandler.Cards)
	private.HandleFunc("POST /api/reviews/cards/{id}/reset", deps.ReviewHandler.ResetCard)

	private.HandleFunc("POST /api/pomodoro/sessions", deps.PomodoroHandler.Start)
	private.HandleFunc("PUT /api/pomodoro/sessions/{id}", deps.PomodoroHandler.Heartbeat)
	private.HandleFunc("POST /api/pomodoro/sessions/{id}/finish", deps.PomodoroHandler.Finish)
	private.HandleFunc("GET /api/pomodoro/sessions", deps.PomodoroHandler.History)
	private.HandleFunc("GET /api/pomodoro/summary", deps.PomodoroHandler.WeekSummary)

	private.HandleFunc("GET /api/dashboard/stats", deps.DashboardHandler.Stats)
	private.HandleFunc("GET /api/dashboard/vulnerabilities", deps.DashboardHandler.Vulnerabilities)

	mux.Handle("/api/", deps.Auth(private))

	base := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(deps.Log),
		middleware.Recovery(deps.Log),
		middleware.CORS(deps.CORS),
	)
	return base(mux)
}
