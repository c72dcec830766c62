// Package card implements the ReviewCard repository using PostgreSQL.
// Single-row lookups use raw SQL with QueryRow; list queries go through
// scany; the dynamic status filter is built with squirrel.
//
// The (user_id, question_id) unique constraint is the concurrency guard for
// the whole scheduler: Upsert relies on ON CONFLICT and GetForUpdate takes a
// row lock, so two simultaneous outcomes for the same pair can never leave
// two rows behind.
package card

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

// Repo provides review card persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Pool
}

// New creates a new review card repository.
func New(pool postgres.Pool) *Repo {
	return &Repo{pool: pool}
}

const cardColumns = `id, user_id, question_id, topic_id, consecutive_correct,
       interval_days, status, last_reviewed_at, next_due_at, created_at, updated_at`

const getByIDSQL = `
SELECT ` + cardColumns + `
FROM review_cards
WHERE id = $1 AND user_id = $2`

const getByQuestionForUpdateSQL = `
SELECT ` + cardColumns + `
FROM review_cards
WHERE user_id = $1 AND question_id = $2
FOR UPDATE`

const upsertSQL = `
INSERT INTO review_cards
    (id, user_id, question_id, topic_id, consecutive_correct, interval_days,
     status, last_reviewed_at, next_due_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (user_id, question_id) DO UPDATE SET
    topic_id            = EXCLUDED.topic_id,
    consecutive_correct = EXCLUDED.consecutive_correct,
    interval_days       = EXCLUDED.interval_days,
    status              = EXCLUDED.status,
    last_reviewed_at    = EXCLUDED.last_reviewed_at,
    next_due_at         = EXCLUDED.next_due_at,
    updated_at          = now()
RETURNING ` + cardColumns

const updateStateSQL = `
UPDATE review_cards SET
    consecutive_correct = $2,
    interval_days       = $3,
    status              = $4,
    last_reviewed_at    = $5,
    next_due_at         = $6,
    updated_at          = now()
WHERE id = $1
RETURNING ` + cardColumns

const dueQuestionsSQL = `
SELECT q.id, q.topic_id, q.statement, q.kind, q.difficulty, q.correct_answer,
       q.explanation, q.prompt_hash, q.created_at
FROM review_cards c
JOIN questions q ON q.id = c.question_id
WHERE c.user_id = $1
  AND c.status = 'PENDING'
  AND c.next_due_at <= $2
ORDER BY c.next_due_at ASC, c.id ASC
LIMIT $3`

const countDueSQL = `
SELECT count(*)
FROM review_cards
WHERE user_id = $1 AND status = 'PENDING' AND next_due_at <= $2`

const countDueBySubjectSQL = `
SELECT s.name AS subject_name, count(*) AS due
FROM review_cards c
JOIN topics t ON t.id = c.topic_id
JOIN subjects s ON s.id = t.subject_id
WHERE c.user_id = $1 AND c.status = 'PENDING' AND c.next_due_at <= $2
GROUP BY s.name
ORDER BY due DESC, s.name ASC`

const countByStatusSQL = `
SELECT status, count(*) AS count
FROM review_cards
WHERE user_id = $1
GROUP BY status`

const agendaSQL = `
SELECT date_trunc('day', next_due_at) AS date, count(*) AS count
FROM review_cards
WHERE user_id = $1 AND status = 'PENDING'
  AND next_due_at > $2 AND next_due_at <= $3
GROUP BY date
ORDER BY date ASC`

// cardRow mirrors the review_cards columns for scany.
type cardRow struct {
	ID                 uuid.UUID  `db:"id"`
	UserID             uuid.UUID  `db:"user_id"`
	QuestionID         uuid.UUID  `db:"question_id"`
	TopicID            uuid.UUID  `db:"topic_id"`
	ConsecutiveCorrect int        `db:"consecutive_correct"`
	IntervalDays       int        `db:"interval_days"`
	Status             string     `db:"status"`
	LastReviewedAt     *time.Time `db:"last_reviewed_at"`
	NextDueAt          time.Time  `db:"next_due_at"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func (r cardRow) toDomain() *domain.ReviewCard {
	return &domain.ReviewCard{
		ID:                 r.ID,
		UserID:             r.UserID,
		QuestionID:         r.QuestionID,
		TopicID:            r.TopicID,
		ConsecutiveCorrect: r.ConsecutiveCorrect,
		IntervalDays:       r.IntervalDays,
		Status:             domain.CardStatus(r.Status),
		LastReviewedAt:     r.LastReviewedAt,
		NextDueAt:          r.NextDueAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func scanCard(row interface{ Scan(dest ...any) error }) (*domain.ReviewCard, error) {
	var c cardRow
	err := row.Scan(&c.ID, &c.UserID, &c.QuestionID, &c.TopicID, &c.ConsecutiveCorrect,
		&c.IntervalDays, &c.Status, &c.LastReviewedAt, &c.NextDueAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c.toDomain(), nil
}

// GetByID returns a card by primary key filtered by user_id.
func (r *Repo) GetByID(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewCard, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCard(q.QueryRow(ctx, getByIDSQL, cardID, userID))
	if err != nil {
		return nil, postgres.MapError(err, "review card", cardID)
	}
	return c, nil
}

// GetForUpdate returns the card for a (user, question) pair with a row lock.
// Must be called inside a TxManager transaction; the lock is held until
// commit, serializing concurrent outcome recording for the same pair.
// Returns domain.ErrNotFound when no card exists yet.
func (r *Repo) GetForUpdate(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCard(q.QueryRow(ctx, getByQuestionForUpdateSQL, userID, questionID))
	if err != nil {
		return nil, postgres.MapError(err, "review card", questionID)
	}
	return c, nil
}

// Upsert inserts a card or, when a concurrent insert won the race on the
// (user_id, question_id) constraint, overwrites the scheduling state with
// this outcome (last-writer-wins). Returns the stored row.
func (r *Repo) Upsert(ctx context.Context, card *domain.ReviewCard) (*domain.ReviewCard, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	id := card.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	stored, err := scanCard(q.QueryRow(ctx, upsertSQL,
		id, card.UserID, card.QuestionID, card.TopicID,
		card.ConsecutiveCorrect, card.IntervalDays, card.Status.String(),
		card.LastReviewedAt, card.NextDueAt))
	if err != nil {
		return nil, postgres.MapError(err, "review card", card.QuestionID)
	}
	return stored, nil
}

// UpdateState overwrites the scheduling fields of an existing card.
type UpdateStateParams struct {
	ConsecutiveCorrect int
	IntervalDays       int
	Status             domain.CardStatus
	LastReviewedAt     *time.Time
	NextDueAt          time.Time
}

// UpdateState applies new scheduling state to the card and returns the row.
func (r *Repo) UpdateState(ctx context.Context, cardID uuid.UUID, p UpdateStateParams) (*domain.ReviewCard, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCard(q.QueryRow(ctx, updateStateSQL,
		cardID, p.ConsecutiveCorrect, p.IntervalDays, p.Status.String(),
		p.LastReviewedAt, p.NextDueAt))
	if err != nil {
		return nil, postgres.MapError(err, "review card", cardID)
	}
	return c, nil
}

// GetDueQuestions returns the questions behind due pending cards, oldest
// scheduling debt first. Choices are loaded separately by the caller.
func (r *Repo) GetDueQuestions(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.Question, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, dueQuestionsSQL, userID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("get due questions: %w", err)
	}
	defer rows.Close()

	questions := []*domain.Question{}
	for rows.Next() {
		var (
			qr   domain.Question
			kind string
			diff string
		)
		if err := rows.Scan(&qr.ID, &qr.TopicID, &qr.Statement, &kind, &diff,
			&qr.CorrectAnswer, &qr.Explanation, &qr.PromptHash, &qr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan due question: %w", err)
		}
		qr.Kind = domain.QuestionKind(kind)
		qr.Difficulty = domain.Difficulty(diff)
		questions = append(questions, &qr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get due questions: %w", err)
	}

	return questions, nil
}

// CountDue returns how many pending cards are due at the given time.
func (r *Repo) CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := q.QueryRow(ctx, countDueSQL, userID, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("count due cards: %w", err)
	}
	return count, nil
}

// CountDueBySubject returns the due-card breakdown grouped by subject name,
// descending by count.
func (r *Repo) CountDueBySubject(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.SubjectDueCount, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var rows []struct {
		SubjectName string `db:"subject_name"`
		Due         int    `db:"due"`
	}
	if err := pgxscan.Select(ctx, q, &rows, countDueBySubjectSQL, userID, now); err != nil {
		return nil, fmt.Errorf("count due by subject: %w", err)
	}

	counts := make([]domain.SubjectDueCount, len(rows))
	for i, row := range rows {
		counts[i] = domain.SubjectDueCount{SubjectName: row.SubjectName, Due: row.Due}
	}
	return counts, nil
}

// StatusCounts holds per-status card totals for one user.
type StatusCounts struct {
	Total    int
	Pending  int
	Mastered int
}

// CountByStatus returns card totals grouped by status.
func (r *Repo) CountByStatus(ctx context.Context, userID uuid.UUID) (StatusCounts, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, countByStatusSQL, userID)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("count cards by status: %w", err)
	}
	defer rows.Close()

	var counts StatusCounts
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return StatusCounts{}, fmt.Errorf("scan status count: %w", err)
		}
		switch domain.CardStatus(status) {
		case domain.CardStatusPending:
			counts.Pending = count
		case domain.CardStatusMastered:
			counts.Mastered = count
		}
		counts.Total += count
	}
	if err := rows.Err(); err != nil {
		return StatusCounts{}, fmt.Errorf("count cards by status: %w", err)
	}

	return counts, nil
}

// Agenda returns per-day counts of pending cards becoming due in (from, to].
func (r *Repo) Agenda(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.AgendaEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var rows []struct {
		Date  time.Time `db:"date"`
		Count int       `db:"count"`
	}
	if err := pgxscan.Select(ctx, q, &rows, agendaSQL, userID, from, to); err != nil {
		return nil, fmt.Errorf("card agenda: %w", err)
	}

	agenda := make([]domain.AgendaEntry, len(rows))
	for i, row := range rows {
		agenda[i] = domain.AgendaEntry{Date: row.Date, Count: row.Count}
	}
	return agenda, nil
}

// List returns the user's cards ordered by next_due_at, optionally filtered
// by status, with limit/offset pagination. Also returns the total matching
// the filter.
func (r *Repo) List(ctx context.Context, userID uuid.UUID, status *domain.CardStatus, limit, offset int) ([]*domain.ReviewCard, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	builder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	where := squirrel.And{squirrel.Eq{"user_id": userID}}
	if status != nil {
		where = append(where, squirrel.Eq{"status": status.String()})
	}

	listSQL, args, err := builder.
		Select("id", "user_id", "question_id", "topic_id", "consecutive_correct",
			"interval_days", "status", "last_reviewed_at", "next_due_at", "created_at", "updated_at").
		From("review_cards").
		Where(where).
		OrderBy("next_due_at ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list cards query: %w", err)
	}

	var rows []cardRow
	if err := pgxscan.Select(ctx, q, &rows, listSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("list cards: %w", err)
	}

	countSQL, countArgs, err := builder.
		Select("count(*)").
		From("review_cards").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count cards query: %w", err)
	}

	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cards: %w", err)
	}

	cards := make([]*domain.ReviewCard, len(rows))
	for i, row := range rows {
		cards[i] = row.toDomain()
	}
	return cards, total, nil
}
