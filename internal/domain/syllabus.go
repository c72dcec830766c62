package domain

import (
	"time"

	"github.com/google/uuid"
)

// Syllabus is a user-defined exam outline ("concurso"). SourceText holds the
// compact edital syntax exactly as the user entered it, so the outline can be
// re-derived and previewed byte-for-byte.
type Syllabus struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description *string
	ExamDate    *time.Time
	SourceText  string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Subjects is populated by reads that load the full outline.
	Subjects []Subject
}

// Subject is a top-level grouping inside a syllabus. Position is its dense
// zero-based index in the source text order.
type Subject struct {
	ID         uuid.UUID
	SyllabusID uuid.UUID
	Name       string
	Position   int

	Topics []Topic
}

// Topic is a leaf study item belonging to one subject.
type Topic struct {
	ID        uuid.UUID
	SubjectID uuid.UUID
	Name      string
	Position  int
}

// TopicContext carries the subject/topic names needed to prompt the
// question generator.
type TopicContext struct {
	TopicID     uuid.UUID
	TopicName   string
	SubjectName string
}
