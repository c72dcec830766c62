// Package pomodoro implements focus-session bookkeeping. The client owns
// the timer; the server records sessions, block-completion heartbeats and
// the daily summary.
package pomodoro

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
)

type sessionRepo interface {
	Create(ctx context.Context, s *domain.PomodoroSession) (*domain.PomodoroSession, error)
	GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*domain.PomodoroSession, error)
	UpdateBlocks(ctx context.Context, userID, sessionID uuid.UUID, blocks int) (*domain.PomodoroSession, error)
	Close(ctx context.Context, userID, sessionID uuid.UUID, status domain.PomodoroStatus, at time.Time) (*domain.PomodoroSession, error)
	List(ctx context.Context, userID uuid.UUID, status *domain.PomodoroStatus, limit, offset int) ([]*domain.PomodoroSession, error)
	DailyBlocks(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.DayBlockCount, error)
}

const (
	defaultFocusMinutes = 25
	defaultBreakMinutes = 5
	maxSessionMinutes   = 180
	summaryDays         = 7
)

// StartInput configures a new session.
type StartInput struct {
	TopicID      *uuid.UUID
	FocusMinutes int
	BreakMinutes int
}

func (in *StartInput) Validate() error {
	var fields []domain.FieldError

	if in.FocusMinutes == 0 {
		in.FocusMinutes = defaultFocusMinutes
	}
	if in.BreakMinutes == 0 {
		in.BreakMinutes = defaultBreakMinutes
	}

	if in.FocusMinutes < 1 || in.FocusMinutes > maxSessionMinutes {
		fields = append(fields, domain.FieldError{Field: "focus_minutes", Message: "must be between 1 and 180"})
	}
	if in.BreakMinutes < 1 || in.BreakMinutes > maxSessionMinutes {
		fields = append(fields, domain.FieldError{Field: "break_minutes", Message: "must be between 1 and 180"})
	}
	if in.TopicID != nil && *in.TopicID == uuid.Nil {
		fields = append(fields, domain.FieldError{Field: "topic_id", Message: "must not be empty when set"})
	}

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}

// Summary is the recent pomodoro roll-up.
type Summary struct {
	Days        []domain.DayBlockCount
	TotalBlocks int
	FocusTime   time.Duration
}

// Service implements pomodoro bookkeeping.
type Service struct {
	sessions sessionRepo
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new pomodoro service.
func NewService(log *slog.Logger, sessions sessionRepo) *Service {
	return &Service{
		sessions: sessions,
		log:      log.With("service", "pomodoro"),
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Start opens a running session.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, in StartInput) (*domain.PomodoroSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, &domain.PomodoroSession{
		UserID:       userID,
		TopicID:      in.TopicID,
		Status:       domain.PomodoroStatusRunning,
		FocusMinutes: in.FocusMinutes,
		BreakMinutes: in.BreakMinutes,
		StartedAt:    s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Debug("pomodoro started", slog.String("session_id", session.ID.String()))
	return session, nil
}

// Heartbeat updates the completed block count of a running session. Blocks
// only move forward; a stale heartbeat is rejected.
func (s *Service) Heartbeat(ctx context.Context, userID, sessionID uuid.UUID, blocks int) (*domain.PomodoroSession, error) {
	if blocks < 0 {
		return nil, domain.NewValidationError("completed_blocks", "must not be negative")
	}

	existing, err := s.sessions.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if existing.Status != domain.PomodoroStatusRunning {
		return nil, domain.NewValidationError("session_id", "session is not running")
	}
	if blocks < existing.CompletedBlocks {
		return nil, domain.NewValidationError("completed_blocks", "must not decrease")
	}

	session, err := s.sessions.UpdateBlocks(ctx, userID, sessionID, blocks)
	if err != nil {
		return nil, fmt.Errorf("update blocks: %w", err)
	}
	return session, nil
}

// Finish closes a running session. A session with zero completed blocks is
// recorded as abandoned rather than finished.
func (s *Service) Finish(ctx context.Context, userID, sessionID uuid.UUID) (*domain.PomodoroSession, error) {
	existing, err := s.sessions.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if existing.Status != domain.PomodoroStatusRunning {
		return nil, domain.NewValidationError("session_id", "session is not running")
	}

	status := domain.PomodoroStatusFinished
	if existing.CompletedBlocks == 0 {
		status = domain.PomodoroStatusAbandoned
	}

	session, err := s.sessions.Close(ctx, userID, sessionID, status, s.now())
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}

	s.log.Debug("pomodoro closed",
		slog.String("session_id", sessionID.String()),
		slog.String("status", status.String()),
		slog.Int("blocks", session.CompletedBlocks),
	)
	return session, nil
}

// History lists past sessions, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, status *domain.PomodoroStatus, limit, offset int) ([]*domain.PomodoroSession, error) {
	if status != nil && !status.IsValid() {
		return nil, domain.NewValidationError("status", "must be RUNNING, FINISHED or ABANDONED")
	}
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	sessions, err := s.sessions.List(ctx, userID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// WeekSummary aggregates the last seven days of completed blocks.
func (s *Service) WeekSummary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	since := s.now().AddDate(0, 0, -summaryDays)

	days, err := s.sessions.DailyBlocks(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("daily blocks: %w", err)
	}

	summary := &Summary{Days: days}
	for _, d := range days {
		summary.TotalBlocks += d.Blocks
	}
	// Block length varies per session; the roll-up assumes the default.
	summary.FocusTime = time.Duration(summary.TotalBlocks) * defaultFocusMinutes * time.Minute

	return summary, nil
}
