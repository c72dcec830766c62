package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewCard is the per-(user, question) spaced-repetition state record.
// At most one card exists per pair, enforced by a unique constraint.
// TopicID is denormalized from the question for per-subject grouping.
type ReviewCard struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	QuestionID         uuid.UUID
	TopicID            uuid.UUID
	ConsecutiveCorrect int
	IntervalDays       int
	Status             CardStatus
	LastReviewedAt     *time.Time
	NextDueAt          time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsDue reports whether the card should appear in the review queue at the
// given time. Mastered cards are never due.
func (c *ReviewCard) IsDue(now time.Time) bool {
	if c.Status == CardStatusMastered {
		return false
	}
	return !c.NextDueAt.After(now)
}

// SubjectDueCount is one row of the due-cards-per-subject breakdown.
type SubjectDueCount struct {
	SubjectName string
	Due         int
}

// ReviewSummary is the SRS progress overview for one user.
type ReviewSummary struct {
	Total     int
	Pending   int
	Mastered  int
	Overdue   int
	Agenda    []AgendaEntry
	BySubject []SubjectDueCount
}

// AgendaEntry is the number of reviews scheduled on one upcoming day.
type AgendaEntry struct {
	Date  time.Time
	Count int
}
