// Package dashboard implements the read-only aggregation queries behind the
// dashboard endpoints. Pure SQL rollups, no mutation.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/adapter/postgres"
	"github.com/questforge/questforge/internal/domain"
)

// Repo provides dashboard aggregations backed by PostgreSQL.
type Repo struct {
	pool postgres.Pool
}

// New creates a new dashboard repository.
func New(pool postgres.Pool) *Repo {
	return &Repo{pool: pool}
}

const overallStatsSQL = `
SELECT count(*) AS total,
       coalesce(sum(CASE WHEN correct THEN 1 ELSE 0 END), 0) AS correct
FROM answers
WHERE user_id = $1`

const subjectAccuracySQL = `
SELECT s.name AS subject_name,
       count(*) AS total,
       coalesce(sum(CASE WHEN a.correct THEN 1 ELSE 0 END), 0) AS correct
FROM answers a
JOIN questions q ON q.id = a.question_id
JOIN topics t ON t.id = q.topic_id
JOIN subjects s ON s.id = t.subject_id
WHERE a.user_id = $1
GROUP BY s.id, s.name
ORDER BY s.name ASC`

const topicAccuracySQL = `
SELECT t.name AS topic_name,
       s.name AS subject_name,
       count(*) AS total,
       coalesce(sum(CASE WHEN a.correct THEN 1 ELSE 0 END), 0) AS correct
FROM answers a
JOIN questions q ON q.id = a.question_id
JOIN topics t ON t.id = q.topic_id
JOIN subjects s ON s.id = t.subject_id
WHERE a.user_id = $1
GROUP BY t.id, t.name, s.name
HAVING count(*) >= $2
ORDER BY (sum(CASE WHEN a.correct THEN 1 ELSE 0 END)::float / count(*)) ASC, count(*) DESC
LIMIT $3`

const dailyActivitySQL = `
SELECT date_trunc('day', created_at) AS date,
       count(*) AS total,
       coalesce(sum(CASE WHEN correct THEN 1 ELSE 0 END), 0) AS correct
FROM answers
WHERE user_id = $1 AND created_at >= $2
GROUP BY date
ORDER BY date ASC`

// Overall returns the headline totals for one user.
func (r *Repo) Overall(ctx context.Context, userID uuid.UUID) (domain.OverallStats, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var stats domain.OverallStats
	if err := q.QueryRow(ctx, overallStatsSQL, userID).Scan(&stats.TotalAnswers, &stats.Correct); err != nil {
		return domain.OverallStats{}, fmt.Errorf("overall stats: %w", err)
	}
	if stats.TotalAnswers > 0 {
		stats.Accuracy = float64(stats.Correct) / float64(stats.TotalAnswers)
	}
	return stats, nil
}

// BySubject returns per-subject accuracy for one user.
func (r *Repo) BySubject(ctx context.Context, userID uuid.UUID) ([]domain.SubjectAccuracy, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var rows []struct {
		SubjectName string `db:"subject_name"`
		Total       int    `db:"total"`
		Correct     int    `db:"correct"`
	}
	if err := pgxscan.Select(ctx, q, &rows, subjectAccuracySQL, userID); err != nil {
		return nil, fmt.Errorf("accuracy by subject: %w", err)
	}

	out := make([]domain.SubjectAccuracy, len(rows))
	for i, row := range rows {
		out[i] = domain.SubjectAccuracy{
			SubjectName: row.SubjectName,
			Total:       row.Total,
			Correct:     row.Correct,
			Accuracy:    float64(row.Correct) / float64(row.Total),
		}
	}
	return out, nil
}

// WeakestTopics returns up to limit topics with the lowest accuracy, among
// topics with at least minAnswers recorded answers.
func (r *Repo) WeakestTopics(ctx context.Context, userID uuid.UUID, minAnswers, limit int) ([]domain.TopicAccuracy, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var rows []struct {
		TopicName   string `db:"topic_name"`
		SubjectName string `db:"subject_name"`
		Total       int    `db:"total"`
		Correct     int    `db:"correct"`
	}
	if err := pgxscan.Select(ctx, q, &rows, topicAccuracySQL, userID, minAnswers, limit); err != nil {
		return nil, fmt.Errorf("weakest topics: %w", err)
	}

	out := make([]domain.TopicAccuracy, len(rows))
	for i, row := range rows {
		out[i] = domain.TopicAccuracy{
			TopicName:   row.TopicName,
			SubjectName: row.SubjectName,
			Total:       row.Total,
			Correct:     row.Correct,
			Accuracy:    float64(row.Correct) / float64(row.Total),
		}
	}
	return out, nil
}

// DailyActivity returns per-day answer counts since the given time.
func (r *Repo) DailyActivity(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.DayActivity, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var rows []struct {
		Date    time.Time `db:"date"`
		Total   int       `db:"total"`
		Correct int       `db:"correct"`
	}
	if err := pgxscan.Select(ctx, q, &rows, dailyActivitySQL, userID, since); err != nil {
		return nil, fmt.Errorf("daily activity: %w", err)
	}

	out := make([]domain.DayActivity, len(rows))
	for i, row := range rows {
		out[i] = domain.DayActivity{Date: row.Date, Total: row.Total, Correct: row.Correct}
	}
	return out, nil
}
