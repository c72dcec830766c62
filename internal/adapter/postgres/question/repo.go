// Package question implements question and choice persistence using
// PostgreSQL. Batteries are inserted question-by-question inside the
// caller's transaction so a failed generation run never leaves a partial
// battery behind.
package question

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/adapter/postgres"
	"github.com/questforge/questforge/internal/domain"
)

// Repo provides question persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Pool
}

// New creates a new question repository.
func New(pool postgres.Pool) *Repo {
	return &Repo{pool: pool}
}

const insertQuestionSQL = `
INSERT INTO questions (id, topic_id, statement, kind, difficulty, correct_answer, prompt_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`

const insertChoiceSQL = `
INSERT INTO choices (id, question_id, letter, text, is_correct)
VALUES ($1, $2, $3, $4, $5)`

const getQuestionSQL = `
SELECT id, topic_id, statement, kind, difficulty, correct_answer, explanation, prompt_hash, created_at
FROM questions
WHERE id = $1`

const getQuestionOwnerSQL = `
SELECT sy.user_id
FROM questions q
JOIN topics t ON t.id = q.topic_id
JOIN subjects s ON s.id = t.subject_id
JOIN syllabi sy ON sy.id = s.syllabus_id
WHERE q.id = $1`

const choicesByQuestionSQL = `
SELECT id, question_id, letter, text, is_correct
FROM choices
WHERE question_id = $1
ORDER BY letter ASC`

const choicesByQuestionsSQL = `
SELECT id, question_id, letter, text, is_correct
FROM choices
WHERE question_id = ANY($1::uuid[])
ORDER BY question_id, letter ASC`

const setExplanationSQL = `
UPDATE questions SET explanation = $2 WHERE id = $1`

// Create persists one generated question with its choices under a topic.
func (r *Repo) Create(ctx context.Context, topicID uuid.UUID, gq domain.GeneratedQuestion, promptHash *string) (*domain.Question, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	q := &domain.Question{
		ID:            uuid.New(),
		TopicID:       topicID,
		Statement:     gq.Statement,
		Kind:          gq.Kind,
		Difficulty:    gq.Difficulty,
		CorrectAnswer: gq.CorrectAnswer,
		PromptHash:    promptHash,
	}

	err := querier.QueryRow(ctx, insertQuestionSQL,
		q.ID, q.TopicID, q.Statement, q.Kind.String(), q.Difficulty.String(),
		q.CorrectAnswer, promptHash).Scan(&q.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "question", q.ID)
	}

	for _, gc := range gq.Choices {
		choice := domain.Choice{
			ID:         uuid.New(),
			QuestionID: q.ID,
			Letter:     gc.Letter,
			Text:       gc.Text,
			IsCorrect:  gc.Letter == gq.CorrectAnswer,
		}
		if _, err := querier.Exec(ctx, insertChoiceSQL,
			choice.ID, choice.QuestionID, choice.Letter, choice.Text, choice.IsCorrect); err != nil {
			return nil, postgres.MapError(err, "choice", choice.Letter)
		}
		q.Choices = append(q.Choices, choice)
	}

	return q, nil
}

// GetByID returns a question with its choices.
func (r *Repo) GetByID(ctx context.Context, questionID uuid.UUID) (*domain.Question, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		q    domain.Question
		kind string
		diff string
	)
	err := querier.QueryRow(ctx, getQuestionSQL, questionID).Scan(
		&q.ID, &q.TopicID, &q.Statement, &kind, &diff,
		&q.CorrectAnswer, &q.Explanation, &q.PromptHash, &q.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "question", questionID)
	}
	q.Kind = domain.QuestionKind(kind)
	q.Difficulty = domain.Difficulty(diff)

	choices, err := r.choices(ctx, choicesByQuestionSQL, questionID)
	if err != nil {
		return nil, err
	}
	q.Choices = choices

	return &q, nil
}

// Owner resolves the user owning the syllabus a question belongs to.
func (r *Repo) Owner(ctx context.Context, questionID uuid.UUID) (uuid.UUID, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var ownerID uuid.UUID
	if err := querier.QueryRow(ctx, getQuestionOwnerSQL, questionID).Scan(&ownerID); err != nil {
		return uuid.Nil, postgres.MapError(err, "question", questionID)
	}
	return ownerID, nil
}

// LoadChoices attaches choices to each of the given questions in one query.
func (r *Repo) LoadChoices(ctx context.Context, questions []*domain.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(questions))
	byID := make(map[uuid.UUID]*domain.Question, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		byID[q.ID] = q
	}

	choices, err := r.choices(ctx, choicesByQuestionsSQL, ids)
	if err != nil {
		return err
	}

	for _, c := range choices {
		if q, ok := byID[c.QuestionID]; ok {
			q.Choices = append(q.Choices, c)
		}
	}
	return nil
}

// SetExplanation caches a generated explanation on the question row.
func (r *Repo) SetExplanation(ctx context.Context, questionID uuid.UUID, explanation string) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, setExplanationSQL, questionID, explanation)
	if err != nil {
		return postgres.MapError(err, "question", questionID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %s: %w", questionID, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) choices(ctx context.Context, sql string, arg any) ([]domain.Choice, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var choices []domain.Choice
	if err := pgxscan.Select(ctx, querier, &choices, sql, arg); err != nil {
		return nil, fmt.Errorf("load choices: %w", err)
	}
	return choices, nil
}
