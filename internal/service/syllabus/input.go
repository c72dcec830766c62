package syllabus

import (
	"strings"
	"time"

	"github.com/questforge/questforge/internal/domain"
)

const (
	maxNameLen       = 150
	maxSourceTextLen = 20000
)

// CreateInput carries a new syllabus header plus its compact outline text.
type CreateInput struct {
	Name        string
	Description *string
	ExamDate    *time.Time
	SourceText  string
}

// Validate checks header-level constraints. Outline syntax is validated
// separately by the parser so its structured errors survive intact.
func (in *CreateInput) Validate() error {
	var fields []domain.FieldError

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		fields = append(fields, domain.FieldError{Field: "name", Message: "required"})
	}
	if len(in.Name) > maxNameLen {
		fields = append(fields, domain.FieldError{Field: "name", Message: "too long"})
	}
	if len(in.SourceText) > maxSourceTextLen {
		fields = append(fields, domain.FieldError{Field: "source_text", Message: "too long"})
	}

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}

// UpdateInput carries header-only changes; the outline is untouched.
type UpdateInput struct {
	Name        string
	Description *string
	ExamDate    *time.Time
}

func (in *UpdateInput) Validate() error {
	var fields []domain.FieldError

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		fields = append(fields, domain.FieldError{Field: "name", Message: "required"})
	}
	if len(in.Name) > maxNameLen {
		fields = append(fields, domain.FieldError{Field: "name", Message: "too long"})
	}

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}

// AppendSubjectInput adds one subject block to an existing outline.
type AppendSubjectInput struct {
	Name   string
	Topics []string
}

func (in *AppendSubjectInput) Validate() error {
	var fields []domain.FieldError

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		fields = append(fields, domain.FieldError{Field: "name", Message: "required"})
	}

	cleaned := make([]string, 0, len(in.Topics))
	seen := make(map[string]struct{}, len(in.Topics))
	for _, t := range in.Topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	in.Topics = cleaned

	if len(in.Topics) == 0 {
		fields = append(fields, domain.FieldError{Field: "topics", Message: "at least one topic is required"})
	}

	if len(fields) > 0 {
		return domain.NewValidationErrors(fields)
	}
	return nil
}
