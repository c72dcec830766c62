// Package pomodoro implements pomodoro session persistence using PostgreSQL.
package pomodoro

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/adapter/postgres"
	"github.com/questforge/questforge/internal/domain"
)

// Repo provides pomodoro session persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Pool
}

// New creates a new pomodoro repository.
func New(pool postgres.Pool) *Repo {
	return &Repo{pool: pool}
}

const sessionColumns = `id, user_id, topic_id, status, focus_minutes, break_minutes,
       completed_blocks, started_at, finished_at`

const insertSessionSQL = `
INSERT INTO pomodoro_sessions
    (id, user_id, topic_id, status, focus_minutes, break_minutes, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + sessionColumns

const getSessionSQL = `
SELECT ` + sessionColumns + `
FROM pomodoro_sessions
WHERE id = $1 AND user_id = $2`

const updateBlocksSQL = `
UPDATE pomodoro_sessions SET completed_blocks = $3
WHERE id = $1 AND user_id = $2 AND status = 'RUNNING'
RETURNING ` + sessionColumns

const finishSessionSQL = `
UPDATE pomodoro_sessions SET status = $3, finished_at = $4
WHERE id = $1 AND user_id = $2 AND status = 'RUNNING'
RETURNING ` + sessionColumns

const dailyBlocksSQL = `
SELECT date_trunc('day', started_at) AS date,
       coalesce(sum(completed_blocks), 0) AS blocks
FROM pomodoro_sessions
WHERE user_id = $1 AND started_at >= $2
GROUP BY date
ORDER BY date ASC`

// sessionRow mirrors pomodoro_sessions for scany.
type sessionRow struct {
	ID              uuid.UUID  `db:"id"`
	UserID          uuid.UUID  `db:"user_id"`
	TopicID         *uuid.UUID `db:"topic_id"`
	Status          string     `db:"status"`
	FocusMinutes    int        `db:"focus_minutes"`
	BreakMinutes    int        `db:"break_minutes"`
	CompletedBlocks int        `db:"completed_blocks"`
	StartedAt       time.Time  `db:"started_at"`
	FinishedAt      *time.Time `db:"finished_at"`
}

func (r sessionRow) toDomain() *domain.PomodoroSession {
	return &domain.PomodoroSession{
		ID:              r.ID,
		UserID:          r.UserID,
		TopicID:         r.TopicID,
		Status:          domain.PomodoroStatus(r.Status),
		FocusMinutes:    r.FocusMinutes,
		BreakMinutes:    r.BreakMinutes,
		CompletedBlocks: r.CompletedBlocks,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
	}
}

func scanSession(row interface{ Scan(dest ...any) error }) (*domain.PomodoroSession, error) {
	var s sessionRow
	err := row.Scan(&s.ID, &s.UserID, &s.TopicID, &s.Status, &s.FocusMinutes,
		&s.BreakMinutes, &s.CompletedBlocks, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		return nil, err
	}
	return s.toDomain(), nil
}

// Create inserts a running session.
func (r *Repo) Create(ctx context.Context, s *domain.PomodoroSession) (*domain.PomodoroSession, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	stored, err := scanSession(q.QueryRow(ctx, insertSessionSQL,
		s.ID, s.UserID, s.TopicID, s.Status.String(), s.FocusMinutes, s.BreakMinutes, s.StartedAt))
	if err != nil {
		return nil, postgres.MapError(err, "pomodoro session", s.ID)
	}
	return stored, nil
}

// GetByID returns a session by primary key filtered by user_id.
func (r *Repo) GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*domain.PomodoroSession, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	s, err := scanSession(q.QueryRow(ctx, getSessionSQL, sessionID, userID))
	if err != nil {
		return nil, postgres.MapError(err, "pomodoro session", sessionID)
	}
	return s, nil
}

// UpdateBlocks records the completed block count on a running session.
// Returns domain.ErrNotFound if the session is absent or already closed.
func (r *Repo) UpdateBlocks(ctx context.Context, userID, sessionID uuid.UUID, blocks int) (*domain.PomodoroSession, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	s, err := scanSession(q.QueryRow(ctx, updateBlocksSQL, sessionID, userID, blocks))
	if err != nil {
		return nil, postgres.MapError(err, "pomodoro session", sessionID)
	}
	return s, nil
}

// Close transitions a running session to FINISHED or ABANDONED.
func (r *Repo) Close(ctx context.Context, userID, sessionID uuid.UUID, status domain.PomodoroStatus, at time.Time) (*domain.PomodoroSession, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	s, err := scanSession(q.QueryRow(ctx, finishSessionSQL, sessionID, userID, status.String(), at))
	if err != nil {
		return nil, postgres.MapError(err, "pomodoro session", sessionID)
	}
	return s, nil
}

// List returns the user's sessions newest first, optionally filtered by
// status, with limit/offset pagination.
func (r *Repo) List(ctx context.Context, userID uuid.UUID, status *domain.PomodoroStatus, limit, offset int) ([]*domain.PomodoroSession, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	where := squirrel.And{squirrel.Eq{"user_id": userID}}
	if status != nil {
		where = append(where, squirrel.Eq{"status": status.String()})
	}

	listSQL, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id", "user_id", "topic_id", "status", "focus_minutes", "break_minutes",
			"completed_blocks", "started_at", "finished_at").
		From("pomodoro_sessions").
		Where(where).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sessions query: %w", err)
	}

	var rows []sessionRow
	if err := pgxscan.Select(ctx, q, &rows, listSQL, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]*domain.PomodoroSession, len(rows))
	for i, row := range rows {
		sessions[i] = row.toDomain()
	}
	return sessions, nil
}

// DailyBlocks returns completed blocks per day since the given time.
func (r *Repo) DailyBlocks(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.DayBlockCount, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var rows []struct {
		Date   time.Time `db:"date"`
		Blocks int       `db:"blocks"`
	}
	if err := pgxscan.Select(ctx, q, &rows, dailyBlocksSQL, userID, since); err != nil {
		return nil, fmt.Errorf("daily blocks: %w", err)
	}

	days := make([]domain.DayBlockCount, len(rows))
	for i, row := range rows {
		days[i] = domain.DayBlockCount{Date: row.Date, Blocks: row.Blocks}
	}
	return days, nil
}
