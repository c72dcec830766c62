package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/questforge/questforge/internal/adapter/postgres"
	answerrepo "github.com/questforge/questforge/internal/adapter/postgres/answer"
	cardrepo "github.com/questforge/questforge/internal/adapter/postgres/card"
	dashboardrepo "github.com/questforge/questforge/internal/adapter/postgres/dashboard"
	pomodororepo "github.com/questforge/questforge/internal/adapter/postgres/pomodoro"
	questionrepo "github.com/questforge/questforge/internal/adapter/postgres/question"
	"github.com/questforge/questforge/internal/adapter/postgres/syllabusrepo"
	userrepo "github.com/questforge/questforge/internal/adapter/postgres/user"
	"github.com/questforge/questforge/internal/adapter/provider/anthropic"
	"github.com/questforge/questforge/internal/auth"
	"github.com/questforge/questforge/internal/config"
	dashboardsvc "github.com/questforge/questforge/internal/service/dashboard"
	pomodorosvc "github.com/questforge/questforge/internal/service/pomodoro"
	questionsvc "github.com/questforge/questforge/internal/service/question"
	reviewsvc "github.com/questforge/questforge/internal/service/review"
	syllabussvc "github.com/questforge/questforge/internal/service/syllabus"
	usersvc "github.com/questforge/questforge/internal/service/user"
	"github.com/questforge/questforge/internal/transport/middleware"
	"github.com/questforge/questforge/internal/transport/rest"
)

// Run assembles and starts the application: config, logger, database pool,
// repositories, services, HTTP router and server. It blocks until ctx is
// cancelled, then shuts the server down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	users := userrepo.New(pool)
	syllabi := syllabusrepo.New(pool)
	questions := questionrepo.New(pool)
	answers := answerrepo.New(pool)
	cards := cardrepo.New(pool)
	sessions := pomodororepo.New(pool)
	stats := dashboardrepo.New(pool)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	apiClient := sdk.NewClient(option.WithAPIKey(cfg.Generator.APIKey))
	generator := anthropic.NewClient(logger, apiClient, anthropic.Config{
		Model:       cfg.Generator.Model,
		MaxTokens:   cfg.Generator.MaxTokens,
		MaxAttempts: cfg.Generator.MaxAttempts,
		RetryDelay:  cfg.Generator.RetryDelay,
		Timeout:     cfg.Generator.Timeout,
	})

	userService := usersvc.NewService(logger, users, jwtManager, cfg.Auth.PasswordHashCost)
	syllabusService := syllabussvc.NewService(logger, syllabi, txManager)
	reviewService := reviewsvc.NewService(logger, cards, questions, txManager)
	questionService := questionsvc.NewService(logger, questions, answers, syllabi, generator, reviewService, txManager)
	pomodoroService := pomodorosvc.NewService(logger, sessions)
	dashboardService := dashboardsvc.NewService(logger, stats, reviewService)

	rateLimiter := middleware.NewRateLimiter(time.Minute)
	defer rateLimiter.Stop()

	router := rest.NewRouter(rest.RouterDeps{
		Log:       logger,
		Auth:      middleware.Auth(jwtManager),
		RateLimit: rateLimiter,
		CORS:      cfg.CORS,
		Limits:    cfg.RateLimit,

		AuthHandler:      rest.NewAuthHandler(userService, logger),
		SyllabusHandler:  rest.NewSyllabusHandler(syllabusService, logger),
		QuestionHandler:  rest.NewQuestionHandler(questionService, logger),
		ReviewHandler:    rest.NewReviewHandler(reviewService, logger),
		PomodoroHandler:  rest.NewPomodoroHandler(pomodoroService, logger),
		DashboardHandler: rest.NewDashboardHandler(dashboardService, logger),
		HealthHandler:    rest.NewHealthHandler(pool, BuildVersion()),
	})

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
