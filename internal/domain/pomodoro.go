package domain

import (
	"time"

	"github.com/google/uuid"
)

// PomodoroSession is one focus-timer run, optionally tied to a topic.
// The client drives the timer; the server only keeps the books.
type PomodoroSession struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	TopicID         *uuid.UUID
	Status          PomodoroStatus
	FocusMinutes    int
	BreakMinutes    int
	CompletedBlocks int
	StartedAt       time.Time
	FinishedAt      *time.Time
}

// DayBlockCount is the number of completed pomodoro blocks on one day.
type DayBlockCount struct {
	Date   time.Time
	Blocks int
}
