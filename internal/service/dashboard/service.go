// Package dashboard serves read-only aggregations over answers and cards:
// the headline stats block, per-subject accuracy, daily activity and the
// weakest-topics rollup.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
)

type statsRepo interface {
	Overall(ctx context.Context, userID uuid.UUID) (domain.OverallStats, error)
	BySubject(ctx context.Context, userID uuid.UUID) ([]domain.SubjectAccuracy, error)
	WeakestTopics(ctx context.Context, userID uuid.UUID, minAnswers, limit int) ([]domain.TopicAccuracy, error)
	DailyActivity(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.DayActivity, error)
}

type dueCounter interface {
	DueCount(ctx context.Context, userID uuid.UUID) (int, error)
}

const (
	activityDays = 30

	// Topics with fewer answers than this are too noisy to call weak.
	weakTopicMinAnswers = 4
	weakTopicLimit      = 5
)

// Service implements the dashboard aggregations.
type Service struct {
	stats statsRepo
	due   dueCounter
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a new dashboard service.
func NewService(log *slog.Logger, stats statsRepo, due dueCounter) *Service {
	return &Service{
		stats: stats,
		due:   due,
		log:   log.With("service", "dashboard"),
		now:   time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Stats assembles the main dashboard payload.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error) {
	overall, err := s.stats.Overall(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("overall stats: %w", err)
	}

	bySubject, err := s.stats.BySubject(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("subject stats: %w", err)
	}

	daily, err := s.stats.DailyActivity(ctx, userID, s.now().AddDate(0, 0, -activityDays))
	if err != nil {
		return nil, fmt.Errorf("daily activity: %w", err)
	}

	dueCount, err := s.due.DueCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("due count: %w", err)
	}

	return &domain.DashboardStats{
		Overall:   overall,
		BySubject: bySubject,
		Daily:     daily,
		DueCount:  dueCount,
	}, nil
}

// Vulnerabilities returns the topics where the user's accuracy is lowest,
// skipping topics with too little history to judge.
func (s *Service) Vulnerabilities(ctx context.Context, userID uuid.UUID) ([]domain.TopicAccuracy, error) {
	topics, err := s.stats.WeakestTopics(ctx, userID, weakTopicMinAnswers, weakTopicLimit)
	if err != nil {
		return nil, fmt.Errorf("weakest topics: %w", err)
	}
	return topics, nil
}
