// Package syllabusrepo implements syllabus, subject and topic persistence
// using PostgreSQL. The outline (subjects + topics) is always written as a
// unit: ReplaceOutline deletes and recreates it, relying on the caller's
// TxManager transaction for atomicity.
package syllabusrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/adapter/postgres"
	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/syllabus"
)

// Repo provides syllabus persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Pool
}

// New creates a new syllabus repository.
func New(pool postgres.Pool) *Repo {
	return &Repo{pool: pool}
}

const insertSyllabusSQL = `
INSERT INTO syllabi (id, user_id, name, description, exam_date, source_text)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, name, description, exam_date, source_text, created_at, updated_at`

const getSyllabusSQL = `
SELECT id, user_id, name, description, exam_date, source_text, created_at, updated_at
FROM syllabi
WHERE id = $1 AND user_id = $2`

const listSyllabiSQL = `
SELECT id, user_id, name, description, exam_date, source_text, created_at, updated_at
FROM syllabi
WHERE user_id = $1
ORDER BY created_at DESC`

const updateSyllabusSQL = `
UPDATE syllabi SET
    name        = $3,
    description = $4,
    exam_date   = $5,
    source_text = $6,
    updated_at  = now()
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, name, description, exam_date, source_text, created_at, updated_at`

const deleteSyllabusSQL = `DELETE FROM syllabi WHERE id = $1 AND user_id = $2`

const deleteOutlineSQL = `
DELETE FROM subjects WHERE syllabus_id = $1`

const countCascadedCardsSQL = `
SELECT count(*)
FROM review_cards c
JOIN topics t ON t.id = c.topic_id
JOIN subjects s ON s.id = t.subject_id
WHERE s.syllabus_id = $1`

const subjectsBySyllabusSQL = `
SELECT id, syllabus_id, name, position
FROM subjects
WHERE syllabus_id = $1
ORDER BY position ASC`

const topicsBySyllabusSQL = `
SELECT t.id, t.subject_id, t.name, t.position
FROM topics t
JOIN subjects s ON s.id = t.subject_id
WHERE s.syllabus_id = $1
ORDER BY s.position ASC, t.position ASC`

const getTopicContextSQL = `
SELECT t.id, t.name, s.name, sy.user_id
FROM topics t
JOIN subjects s ON s.id = t.subject_id
JOIN syllabi sy ON sy.id = s.syllabus_id
WHERE t.id = $1`

const topicContextsBySubjectSQL = `
SELECT t.id AS topic_id, t.name AS topic_name, s.name AS subject_name
FROM topics t
JOIN subjects s ON s.id = t.subject_id
WHERE s.id = $1
ORDER BY t.position ASC`

const topicContextsBySyllabusSQL = `
SELECT t.id AS topic_id, t.name AS topic_name, s.name AS subject_name
FROM topics t
JOIN subjects s ON s.id = t.subject_id
WHERE s.syllabus_id = $1
ORDER BY s.position ASC, t.position ASC`

const getTopicOwnerSQL = `
SELECT sy.user_id, t.subject_id
FROM topics t
JOIN subjects s ON s.id = t.subject_id
JOIN syllabi sy ON sy.id = s.syllabus_id
WHERE t.id = $1`

const getSubjectOwnerSQL = `
SELECT sy.user_id, s.syllabus_id
FROM subjects s
JOIN syllabi sy ON sy.id = s.syllabus_id
WHERE s.id = $1`

const maxSubjectPositionSQL = `
SELECT coalesce(max(position) + 1, 0) FROM subjects WHERE syllabus_id = $1`

const maxTopicPositionSQL = `
SELECT coalesce(max(position) + 1, 0) FROM topics WHERE subject_id = $1`

const deleteSubjectSQL = `DELETE FROM subjects WHERE id = $1`
const deleteTopicSQL = `DELETE FROM topics WHERE id = $1`

const countSubjectsSQL = `SELECT count(*) FROM subjects WHERE syllabus_id = $1`
const countTopicsOfSubjectSQL = `SELECT count(*) FROM topics WHERE subject_id = $1`

// CreateParams holds the syllabus header fields.
type CreateParams struct {
	UserID      uuid.UUID
	Name        string
	Description *string
	ExamDate    *time.Time
	SourceText  string
}

// Create inserts a syllabus header row.
func (r *Repo) Create(ctx context.Context, p CreateParams) (*domain.Syllabus, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	s, err := scanSyllabus(q.QueryRow(ctx, insertSyllabusSQL,
		uuid.New(), p.UserID, p.Name, p.Description, p.ExamDate, p.SourceText))
	if err != nil {
		return nil, postgres.MapError(err, "syllabus", p.Name)
	}
	return s, nil
}

// GetByID returns a syllabus header by primary key filtered by user_id.
func (r *Repo) GetByID(ctx context.Context, userID, syllabusID uuid.UUID) (*domain.Syllabus, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	s, err := scanSyllabus(q.QueryRow(ctx, getSyllabusSQL, syllabusID, userID))
	if err != nil {
		return nil, postgres.MapError(err, "syllabus", syllabusID)
	}
	return s, nil
}

// List returns all syllabi of a user, newest first, headers only.
func (r *Repo) List(ctx context.Context, userID uuid.UUID) ([]*domain.Syllabus, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listSyllabiSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list syllabi: %w", err)
	}
	defer rows.Close()

	syllabi := []*domain.Syllabus{}
	for rows.Next() {
		s, err := scanSyllabus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan syllabus: %w", err)
		}
		syllabi = append(syllabi, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list syllabi: %w", err)
	}

	return syllabi, nil
}

// UpdateParams holds the updatable syllabus header fields.
type UpdateParams struct {
	Name        string
	Description *string
	ExamDate    *time.Time
	SourceText  string
}

// Update overwrites the syllabus header.
func (r *Repo) Update(ctx context.Context, userID, syllabusID uuid.UUID, p UpdateParams) (*domain.Syllabus, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	s, err := scanSyllabus(q.QueryRow(ctx, updateSyllabusSQL,
		syllabusID, userID, p.Name, p.Description, p.ExamDate, p.SourceText))
	if err != nil {
		return nil, postgres.MapError(err, "syllabus", syllabusID)
	}
	return s, nil
}

// Delete removes a syllabus; subjects, topics, questions and cards cascade.
func (r *Repo) Delete(ctx context.Context, userID, syllabusID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, deleteSyllabusSQL, syllabusID, userID)
	if err != nil {
		return postgres.MapError(err, "syllabus", syllabusID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("syllabus %s: %w", syllabusID, domain.ErrNotFound)
	}
	return nil
}

// ReplaceOutline deletes the syllabus outline and recreates it from the
// parsed structure with dense position indices. Deleting the subjects
// cascades to topics, questions and review cards, so callers must run this
// inside a transaction and only after the new text has been validated.
func (r *Repo) ReplaceOutline(ctx context.Context, syllabusID uuid.UUID, outline syllabus.Outline) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, deleteOutlineSQL, syllabusID); err != nil {
		return fmt.Errorf("delete outline: %w", err)
	}

	for subjPos, subj := range outline {
		subjectID := uuid.New()
		if _, err := q.Exec(ctx,
			`INSERT INTO subjects (id, syllabus_id, name, position) VALUES ($1, $2, $3, $4)`,
			subjectID, syllabusID, subj.Name, subjPos); err != nil {
			return postgres.MapError(err, "subject", subj.Name)
		}

		for topicPos, topicName := range subj.Topics {
			if _, err := q.Exec(ctx,
				`INSERT INTO topics (id, subject_id, name, position) VALUES ($1, $2, $3, $4)`,
				uuid.New(), subjectID, topicName, topicPos); err != nil {
				return postgres.MapError(err, "topic", topicName)
			}
		}
	}

	return nil
}

// CountOutlineCards returns how many review cards hang off the syllabus
// outline. Used to log the cascade size before a replace.
func (r *Repo) CountOutlineCards(ctx context.Context, syllabusID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := q.QueryRow(ctx, countCascadedCardsSQL, syllabusID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count outline cards: %w", err)
	}
	return count, nil
}

// LoadOutline populates Subjects (with Topics) on the given syllabus,
// ordered by position.
func (r *Repo) LoadOutline(ctx context.Context, s *domain.Syllabus) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var subjects []domain.Subject
	if err := pgxscan.Select(ctx, q, &subjects, subjectsBySyllabusSQL, s.ID); err != nil {
		return fmt.Errorf("load subjects: %w", err)
	}

	var topics []domain.Topic
	if err := pgxscan.Select(ctx, q, &topics, topicsBySyllabusSQL, s.ID); err != nil {
		return fmt.Errorf("load topics: %w", err)
	}

	bySubject := make(map[uuid.UUID][]domain.Topic, len(subjects))
	for _, t := range topics {
		bySubject[t.SubjectID] = append(bySubject[t.SubjectID], t)
	}
	for i := range subjects {
		subjects[i].Topics = bySubject[subjects[i].ID]
	}

	s.Subjects = subjects
	return nil
}

// GetTopicContext resolves a topic to its names and owning user, for
// generation prompts and ownership checks.
func (r *Repo) GetTopicContext(ctx context.Context, topicID uuid.UUID) (domain.TopicContext, uuid.UUID, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		tc      domain.TopicContext
		ownerID uuid.UUID
	)
	err := q.QueryRow(ctx, getTopicContextSQL, topicID).
		Scan(&tc.TopicID, &tc.TopicName, &tc.SubjectName, &ownerID)
	if err != nil {
		return domain.TopicContext{}, uuid.Nil, postgres.MapError(err, "topic", topicID)
	}
	return tc, ownerID, nil
}

// TopicContextsBySubject returns the topic contexts of one subject in
// position order.
func (r *Repo) TopicContextsBySubject(ctx context.Context, subjectID uuid.UUID) ([]domain.TopicContext, error) {
	return r.topicContexts(ctx, topicContextsBySubjectSQL, subjectID)
}

// TopicContextsBySyllabus returns the topic contexts of the whole syllabus
// in outline order.
func (r *Repo) TopicContextsBySyllabus(ctx context.Context, syllabusID uuid.UUID) ([]domain.TopicContext, error) {
	return r.topicContexts(ctx, topicContextsBySyllabusSQL, syllabusID)
}

func (r *Repo) topicContexts(ctx context.Context, sql string, key uuid.UUID) ([]domain.TopicContext, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var rows []struct {
		TopicID     uuid.UUID `db:"topic_id"`
		TopicName   string    `db:"topic_name"`
		SubjectName string    `db:"subject_name"`
	}
	if err := pgxscan.Select(ctx, q, &rows, sql, key); err != nil {
		return nil, fmt.Errorf("topic contexts: %w", err)
	}

	contexts := make([]domain.TopicContext, len(rows))
	for i, row := range rows {
		contexts[i] = domain.TopicContext{
			TopicID:     row.TopicID,
			TopicName:   row.TopicName,
			SubjectName: row.SubjectName,
		}
	}
	return contexts, nil
}

// AppendSubject adds one subject (with topics) after the current outline.
func (r *Repo) AppendSubject(ctx context.Context, syllabusID uuid.UUID, name string, topics []string) (*domain.Subject, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var position int
	if err := q.QueryRow(ctx, maxSubjectPositionSQL, syllabusID).Scan(&position); err != nil {
		return nil, fmt.Errorf("next subject position: %w", err)
	}

	subject := &domain.Subject{
		ID:         uuid.New(),
		SyllabusID: syllabusID,
		Name:       name,
		Position:   position,
	}
	if _, err := q.Exec(ctx,
		`INSERT INTO subjects (id, syllabus_id, name, position) VALUES ($1, $2, $3, $4)`,
		subject.ID, syllabusID, name, position); err != nil {
		return nil, postgres.MapError(err, "subject", name)
	}

	for i, topicName := range topics {
		topic := domain.Topic{
			ID:        uuid.New(),
			SubjectID: subject.ID,
			Name:      topicName,
			Position:  i,
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO topics (id, subject_id, name, position) VALUES ($1, $2, $3, $4)`,
			topic.ID, subject.ID, topicName, i); err != nil {
			return nil, postgres.MapError(err, "topic", topicName)
		}
		subject.Topics = append(subject.Topics, topic)
	}

	return subject, nil
}

// AppendTopic adds one topic after the subject's current topics.
func (r *Repo) AppendTopic(ctx context.Context, subjectID uuid.UUID, name string) (*domain.Topic, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var position int
	if err := q.QueryRow(ctx, maxTopicPositionSQL, subjectID).Scan(&position); err != nil {
		return nil, fmt.Errorf("next topic position: %w", err)
	}

	topic := &domain.Topic{
		ID:        uuid.New(),
		SubjectID: subjectID,
		Name:      name,
		Position:  position,
	}
	if _, err := q.Exec(ctx,
		`INSERT INTO topics (id, subject_id, name, position) VALUES ($1, $2, $3, $4)`,
		topic.ID, subjectID, name, position); err != nil {
		return nil, postgres.MapError(err, "topic", name)
	}
	return topic, nil
}

// SubjectOwner resolves a subject to its owning user and syllabus.
func (r *Repo) SubjectOwner(ctx context.Context, subjectID uuid.UUID) (userID, syllabusID uuid.UUID, err error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if err := q.QueryRow(ctx, getSubjectOwnerSQL, subjectID).Scan(&userID, &syllabusID); err != nil {
		return uuid.Nil, uuid.Nil, postgres.MapError(err, "subject", subjectID)
	}
	return userID, syllabusID, nil
}

// TopicOwner resolves a topic to its owning user and parent subject.
func (r *Repo) TopicOwner(ctx context.Context, topicID uuid.UUID) (userID, subjectID uuid.UUID, err error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if err := q.QueryRow(ctx, getTopicOwnerSQL, topicID).Scan(&userID, &subjectID); err != nil {
		return uuid.Nil, uuid.Nil, postgres.MapError(err, "topic", topicID)
	}
	return userID, subjectID, nil
}

// DeleteSubject removes one subject; topics cascade.
func (r *Repo) DeleteSubject(ctx context.Context, subjectID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, deleteSubjectSQL, subjectID)
	if err != nil {
		return postgres.MapError(err, "subject", subjectID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subject %s: %w", subjectID, domain.ErrNotFound)
	}
	return nil
}

// DeleteTopic removes one topic.
func (r *Repo) DeleteTopic(ctx context.Context, topicID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, deleteTopicSQL, topicID)
	if err != nil {
		return postgres.MapError(err, "topic", topicID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topic %s: %w", topicID, domain.ErrNotFound)
	}
	return nil
}

// CountSubjects returns the number of subjects in a syllabus.
func (r *Repo) CountSubjects(ctx context.Context, syllabusID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := q.QueryRow(ctx, countSubjectsSQL, syllabusID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return count, nil
}

// CountTopics returns the number of topics in a subject.
func (r *Repo) CountTopics(ctx context.Context, subjectID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := q.QueryRow(ctx, countTopicsOfSubjectSQL, subjectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count topics: %w", err)
	}
	return count, nil
}

func scanSyllabus(row interface{ Scan(dest ...any) error }) (*domain.Syllabus, error) {
	var s domain.Syllabus
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.ExamDate,
		&s.SourceText, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
