// Package answer implements answer-history persistence using PostgreSQL.
package answer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/adapter/postgres"
	"github.com/questforge/questforge/internal/domain"
)

// Repo provides answer persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Pool
}

// New creates a new answer repository.
func New(pool postgres.Pool) *Repo {
	return &Repo{pool: pool}
}

const insertAnswerSQL = `
INSERT INTO answers (id, user_id, question_id, answer, correct, elapsed_seconds)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`

const markExplanationRequestedSQL = `
UPDATE answers SET explanation_requested = TRUE
WHERE id = $1 AND user_id = $2`

const topicAccuracySQL = `
SELECT count(*) AS total,
       coalesce(sum(CASE WHEN a.correct THEN 1 ELSE 0 END), 0) AS correct
FROM answers a
JOIN questions q ON q.id = a.question_id
WHERE a.user_id = $1 AND q.topic_id = $2`

// Create persists one answer record.
func (r *Repo) Create(ctx context.Context, a *domain.Answer) (*domain.Answer, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := q.QueryRow(ctx, insertAnswerSQL,
		a.ID, a.UserID, a.QuestionID, a.Answer, a.Correct, a.ElapsedSeconds).
		Scan(&a.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "answer", a.QuestionID)
	}
	return a, nil
}

// MarkExplanationRequested flags an answer as having triggered an
// explanation request.
func (r *Repo) MarkExplanationRequested(ctx context.Context, userID, answerID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, markExplanationRequestedSQL, answerID, userID)
	if err != nil {
		return postgres.MapError(err, "answer", answerID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("answer %s: %w", answerID, domain.ErrNotFound)
	}
	return nil
}

// TopicAccuracy returns the user's total and correct answer counts on one
// topic, for adaptive difficulty resolution.
func (r *Repo) TopicAccuracy(ctx context.Context, userID, topicID uuid.UUID) (total, correct int, err error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if err := q.QueryRow(ctx, topicAccuracySQL, userID, topicID).Scan(&total, &correct); err != nil {
		return 0, 0, fmt.Errorf("topic accuracy: %w", err)
	}
	return total, correct, nil
}
