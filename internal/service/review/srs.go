package review

import (
	"time"

	"github.com/questforge/questforge/internal/domain"
)

// Interval table in days, indexed by consecutiveCorrect AFTER the increment
// applied on a correct answer. Index 0 is the reset interval used on any
// miss. Everything at or beyond masteryThreshold maps to masteryInterval.
var intervalTable = [...]int{0: 1, 1: 1, 2: 3, 3: 7, 4: 14}

const (
	masteryThreshold = 5
	masteryInterval  = 30
)

// TransitionInput holds the card state feeding one scheduling step.
// Pure value — no side effects.
type TransitionInput struct {
	ConsecutiveCorrect int
	WasCorrect         bool
	Now                time.Time
}

// TransitionOutput is the new scheduling state of the card.
type TransitionOutput struct {
	ConsecutiveCorrect int
	IntervalDays       int
	Status             domain.CardStatus
	LastReviewedAt     time.Time
	NextDueAt          time.Time
}

// Transition is a pure function computing one scheduling step. No DB, no
// context, no logger; fully deterministic given the input.
//
// A miss (or an explanation request, which callers model as a miss) resets
// the card to one day out. A hit advances through the fixed interval table;
// the fifth consecutive hit and every hit after it schedules thirty days out
// and marks the card mastered.
func Transition(input TransitionInput) TransitionOutput {
	out := TransitionOutput{LastReviewedAt: input.Now}

	if !input.WasCorrect {
		out.ConsecutiveCorrect = 0
		out.IntervalDays = intervalTable[0]
		out.Status = domain.CardStatusPending
	} else {
		streak := input.ConsecutiveCorrect + 1
		out.ConsecutiveCorrect = streak
		if streak >= masteryThreshold {
			out.IntervalDays = masteryInterval
			out.Status = domain.CardStatusMastered
		} else {
			out.IntervalDays = intervalTable[streak]
			out.Status = domain.CardStatusPending
		}
	}

	out.NextDueAt = input.Now.Add(time.Duration(out.IntervalDays) * 24 * time.Hour)
	return out
}
