package question

import (
	"strings"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
)

const (
	defaultBatchSize = 5
	maxBatchSize     = 20
)

// GenerateInput selects what to generate questions about.
type GenerateInput struct {
	Mode       domain.GenerationMode
	TopicID    uuid.UUID
	SubjectID  uuid.UUID
	SyllabusID uuid.UUID
	Count      int
	Kind       domain.QuestionKind
	Difficulty domain.Difficulty
}

func (in *GenerateInput) Validate() error {
	var fields []domain.FieldError

	if !in.Mode.IsValid() {
		fields = append(fields, domain.FieldError{Field: "mode", Message: "must be TOPIC, SUBJECT, SYLLABUS or SRS_REVIEW"})
	}

	switch in.Mode {
	case domain.GenerationModeTopic:
		if in.TopicID == uuid.Nil {
			fields = append(fields, domain.FieldError{Field: "topic_id", Message: "required for TOPIC mode"})
		}
	case domain.GenerationModeSubject:
		if in.SubjectID == uuid.Nil {
			fields = append(fields, domain.FieldError{Field: "subject_id", Message: "required for SUBJECT mode"})
		}
	case domain.GenerationModeSyllabus:
		if in.SyllabusID == uuid.Nil {
			fields = append(fields, domain.FieldError{Field: "syllabus_id", Message: "required for SYLLABUS mode"})
		}
	}

	if in.Count <= 0 {
		in.Count = defaultBatchSize
	}
	if in.Count > maxBatchSize {
		in.Count = maxBatchSize
	}

	if in.Kind == "" {
		in.Kind = domain.QuestionKindMultipleChoice
	}
	if !in.Kind.IsValid() {
		fields = append(fields, domain.FieldError{Field: "kind", Message: "must be MULTIPLE_CHOICE, TRUE_FALSE or MIXED"})
	}

	if in.Difficulty == "" {
		in.Difficulty = domain.DifficultyMedium
	}
	if !in.Difficulty.IsValid() {
		fields = append(fields, domain.FieldError{Field: "difficulty", Message: "must be EASY, MEDIUM, HARD or ADAPTIVE"})
	}

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}

// AnswerInput is one user response to a stored question.
type AnswerInput struct {
	QuestionID     uuid.UUID
	Answer         string
	Mode           domain.GenerationMode
	ElapsedSeconds *int
}

func (in *AnswerInput) Validate() error {
	var fields []domain.FieldError

	if in.QuestionID == uuid.Nil {
		fields = append(fields, domain.FieldError{Field: "question_id", Message: "required"})
	}

	in.Answer = strings.TrimSpace(in.Answer)
	if in.Answer == "" {
		fields = append(fields, domain.FieldError{Field: "answer", Message: "required"})
	}

	if in.Mode == "" {
		in.Mode = domain.GenerationModeTopic
	}
	if !in.Mode.IsValid() {
		fields = append(fields, domain.FieldError{Field: "mode", Message: "unknown mode"})
	}

	if in.ElapsedSeconds != nil && *in.ElapsedSeconds < 0 {
		fields = append(fields, domain.FieldError{Field: "elapsed_seconds", Message: "must not be negative"})
	}

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}
