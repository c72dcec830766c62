package domain

// CardStatus represents the review state of a spaced-repetition card.
type CardStatus string

const (
	CardStatusPending  CardStatus = "PENDING"
	CardStatusMastered CardStatus = "MASTERED"
)

func (s CardStatus) String() string { return string(s) }

func (s CardStatus) IsValid() bool {
	switch s {
	case CardStatusPending, CardStatusMastered:
		return true
	}
	return false
}

// QuestionKind represents the answer format of a generated question.
type QuestionKind string

const (
	QuestionKindMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	QuestionKindTrueFalse      QuestionKind = "TRUE_FALSE"
	// QuestionKindMixed is accepted in generation requests only; stored
	// questions always carry one of the concrete kinds.
	QuestionKindMixed QuestionKind = "MIXED"
)

func (k QuestionKind) String() string { return string(k) }

func (k QuestionKind) IsValid() bool {
	switch k {
	case QuestionKindMultipleChoice, QuestionKindTrueFalse, QuestionKindMixed:
		return true
	}
	return false
}

// IsStorable reports whether the kind may appear on a persisted question.
func (k QuestionKind) IsStorable() bool {
	return k == QuestionKindMultipleChoice || k == QuestionKindTrueFalse
}

// Difficulty represents the requested difficulty of generated questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
	// DifficultyAdaptive is resolved to a concrete difficulty from the
	// user's recent accuracy before generation; never stored.
	DifficultyAdaptive Difficulty = "ADAPTIVE"
)

func (d Difficulty) String() string { return string(d) }

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyAdaptive:
		return true
	}
	return false
}

// GenerationMode selects the topic context for a question battery.
type GenerationMode string

const (
	GenerationModeTopic     GenerationMode = "TOPIC"
	GenerationModeSubject   GenerationMode = "SUBJECT"
	GenerationModeSyllabus  GenerationMode = "SYLLABUS"
	GenerationModeSRSReview GenerationMode = "SRS_REVIEW"
)

func (m GenerationMode) String() string { return string(m) }

func (m GenerationMode) IsValid() bool {
	switch m {
	case GenerationModeTopic, GenerationModeSubject, GenerationModeSyllabus, GenerationModeSRSReview:
		return true
	}
	return false
}

// PomodoroStatus represents the state of a pomodoro session.
type PomodoroStatus string

const (
	PomodoroStatusRunning   PomodoroStatus = "RUNNING"
	PomodoroStatusFinished  PomodoroStatus = "FINISHED"
	PomodoroStatusAbandoned PomodoroStatus = "ABANDONED"
)

func (s PomodoroStatus) String() string { return string(s) }

func (s PomodoroStatus) IsValid() bool {
	switch s {
	case PomodoroStatusRunning, PomodoroStatusFinished, PomodoroStatusAbandoned:
		return true
	}
	return false
}

// UserRole represents the authorization level of a user.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin:
		return true
	}
	return false
}

func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin
}
