package syllabus

import (
	"fmt"

	"github.com/questforge/questforge/internal/domain"
)

// ErrorKind enumerates every way the edital syntax can be rejected.
// The set is closed: transports switch over it exhaustively.
type ErrorKind int

const (
	ErrEmptyInput ErrorKind = iota
	ErrNoSubjects
	ErrMalformedBlock
	ErrEmptySubjectName
	ErrDuplicateSubject
	ErrNoTopics
)

func (k ErrorKind) String() string {
	switch k {
	case ErrEmptyInput:
		return "EMPTY_INPUT"
	case ErrNoSubjects:
		return "NO_SUBJECTS"
	case ErrMalformedBlock:
		return "MALFORMED_BLOCK"
	case ErrEmptySubjectName:
		return "EMPTY_SUBJECT_NAME"
	case ErrDuplicateSubject:
		return "DUPLICATE_SUBJECT"
	case ErrNoTopics:
		return "NO_TOPICS"
	default:
		return "UNKNOWN"
	}
}

// ParseError is a user-input rejection of the edital syntax. Block carries
// the offending fragment so callers can point the user at it. It unwraps to
// domain.ErrValidation so the transport layer maps it like any other
// validation failure.
type ParseError struct {
	Kind  ErrorKind
	Block string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrEmptyInput:
		return "syllabus syntax must not be empty"
	case ErrNoSubjects:
		return "no subject blocks found in syllabus syntax"
	case ErrMalformedBlock:
		return fmt.Sprintf("block %q has no '-' separator; expected SubjectName-topic1,topic2", e.Block)
	case ErrEmptySubjectName:
		return fmt.Sprintf("block %q has an empty subject name", e.Block)
	case ErrDuplicateSubject:
		return fmt.Sprintf("duplicate subject %q", e.Block)
	case ErrNoTopics:
		return fmt.Sprintf("subject %q has no topics", e.Block)
	default:
		return "invalid syllabus syntax"
	}
}

func (e *ParseError) Unwrap() error { return domain.ErrValidation }
