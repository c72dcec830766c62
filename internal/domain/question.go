package domain

import (
	"time"

	"github.com/google/uuid"
)

// Question is a persisted practice question belonging to a topic.
// Explanation is filled lazily the first time a user asks for one.
type Question struct {
	ID            uuid.UUID
	TopicID       uuid.UUID
	Statement     string
	Kind          QuestionKind
	Difficulty    Difficulty
	CorrectAnswer string
	Explanation   *string
	PromptHash    *string
	CreatedAt     time.Time

	Choices []Choice
}

// Choice is one lettered alternative of a multiple-choice question.
type Choice struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	Letter     string
	Text       string
	IsCorrect  bool
}

// Answer records one user response to a question.
type Answer struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	QuestionID           uuid.UUID
	Answer               string
	Correct              bool
	ExplanationRequested bool
	ElapsedSeconds       *int
	CreatedAt            time.Time
}

// GeneratedQuestion is the generator's output before persistence: the same
// shape as Question minus identity and topic binding.
type GeneratedQuestion struct {
	Statement     string
	Kind          QuestionKind
	Difficulty    Difficulty
	CorrectAnswer string
	Choices       []GeneratedChoice
}

// GeneratedChoice is one alternative of a generated question.
type GeneratedChoice struct {
	Letter string
	Text   string
}

// GeneratedBattery is one generator call's worth of questions for a single
// topic, plus the hash of the prompt that produced them.
type GeneratedBattery struct {
	Questions  []GeneratedQuestion
	PromptHash string
}
