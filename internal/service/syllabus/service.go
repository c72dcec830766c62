// Package syllabus implements syllabus lifecycle: parsing the compact
// outline syntax, materializing it into subjects and topics, and the
// destructive reparse that replaces an outline wholesale.
package syllabus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/adapter/postgres/syllabusrepo"
	"github.com/questforge/questforge/internal/domain"
	parser "github.com/questforge/questforge/internal/syllabus"
)

type syllabusRepo interface {
	Create(ctx context.Context, p syllabusrepo.CreateParams) (*domain.Syllabus, error)
	GetByID(ctx context.Context, userID, syllabusID uuid.UUID) (*domain.Syllabus, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Syllabus, error)
	Update(ctx context.Context, userID, syllabusID uuid.UUID, p syllabusrepo.UpdateParams) (*domain.Syllabus, error)
	Delete(ctx context.Context, userID, syllabusID uuid.UUID) error
	ReplaceOutline(ctx context.Context, syllabusID uuid.UUID, outline parser.Outline) error
	CountOutlineCards(ctx context.Context, syllabusID uuid.UUID) (int, error)
	LoadOutline(ctx context.Context, s *domain.Syllabus) error
	AppendSubject(ctx context.Context, syllabusID uuid.UUID, name string, topics []string) (*domain.Subject, error)
	AppendTopic(ctx context.Context, subjectID uuid.UUID, name string) (*domain.Topic, error)
	SubjectOwner(ctx context.Context, subjectID uuid.UUID) (userID, syllabusID uuid.UUID, err error)
	TopicOwner(ctx context.Context, topicID uuid.UUID) (userID, subjectID uuid.UUID, err error)
	DeleteSubject(ctx context.Context, subjectID uuid.UUID) error
	DeleteTopic(ctx context.Context, topicID uuid.UUID) error
	CountSubjects(ctx context.Context, syllabusID uuid.UUID) (int, error)
	CountTopics(ctx context.Context, subjectID uuid.UUID) (int, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements the syllabus business logic.
type Service struct {
	syllabi syllabusRepo
	tx      txManager
	log     *slog.Logger
}

// NewService creates a new syllabus service.
func NewService(log *slog.Logger, syllabi syllabusRepo, tx txManager) *Service {
	return &Service{
		syllabi: syllabi,
		tx:      tx,
		log:     log.With("service", "syllabus"),
	}
}

// Preview parses outline text without persisting anything, so the client
// can show the derived structure before the user commits to it.
func (s *Service) Preview(ctx context.Context, sourceText string) (parser.Outline, error) {
	return parser.Parse(sourceText)
}

// Create parses the outline text and, only if it is fully valid, persists
// the syllabus header and its subjects and topics in one transaction.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*domain.Syllabus, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	outline, err := parser.Parse(in.SourceText)
	if err != nil {
		return nil, err
	}

	var created *domain.Syllabus
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		created, err = s.syllabi.Create(txCtx, syllabusrepo.CreateParams{
			UserID:      userID,
			Name:        in.Name,
			Description: in.Description,
			ExamDate:    in.ExamDate,
			SourceText:  in.SourceText,
		})
		if err != nil {
			return fmt.Errorf("create syllabus: %w", err)
		}

		if err := s.syllabi.ReplaceOutline(txCtx, created.ID, outline); err != nil {
			return fmt.Errorf("materialize outline: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.syllabi.LoadOutline(ctx, created); err != nil {
		return nil, fmt.Errorf("load outline: %w", err)
	}

	s.log.Info("syllabus created",
		slog.String("syllabus_id", created.ID.String()),
		slog.Int("subjects", len(created.Subjects)),
		slog.Int("topics", outline.TopicCount()),
	)

	return created, nil
}

// Get returns one syllabus with its full outline.
func (s *Service) Get(ctx context.Context, userID, syllabusID uuid.UUID) (*domain.Syllabus, error) {
	if syllabusID == uuid.Nil {
		return nil, domain.NewValidationError("syllabus_id", "required")
	}

	syl, err := s.syllabi.GetByID(ctx, userID, syllabusID)
	if err != nil {
		return nil, fmt.Errorf("get syllabus: %w", err)
	}
	if err := s.syllabi.LoadOutline(ctx, syl); err != nil {
		return nil, fmt.Errorf("load outline: %w", err)
	}
	return syl, nil
}

// List returns the user's syllabi headers, newest first, without outlines.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*domain.Syllabus, error) {
	syllabi, err := s.syllabi.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list syllabi: %w", err)
	}
	return syllabi, nil
}

// Update changes header fields only. Outline text is changed via Reparse.
func (s *Service) Update(ctx context.Context, userID, syllabusID uuid.UUID, in UpdateInput) (*domain.Syllabus, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.syllabi.GetByID(ctx, userID, syllabusID)
	if err != nil {
		return nil, fmt.Errorf("get syllabus: %w", err)
	}

	updated, err := s.syllabi.Update(ctx, userID, syllabusID, syllabusrepo.UpdateParams{
		Name:        in.Name,
		Description: in.Description,
		ExamDate:    in.ExamDate,
		SourceText:  existing.SourceText,
	})
	if err != nil {
		return nil, fmt.Errorf("update syllabus: %w", err)
	}
	return updated, nil
}

// Reparse replaces the syllabus outline with one derived from new source
// text. The text is parsed BEFORE anything is touched: on a syntax error
// the stored outline survives untouched. A valid reparse deletes the old
// subjects, and with them every topic, question and review card underneath.
func (s *Service) Reparse(ctx context.Context, userID, syllabusID uuid.UUID, sourceText string) (*domain.Syllabus, error) {
	if len(sourceText) > maxSourceTextLen {
		return nil, domain.NewValidationError("source_text", "too long")
	}

	outline, err := parser.Parse(sourceText)
	if err != nil {
		return nil, err
	}

	var updated *domain.Syllabus
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.syllabi.GetByID(txCtx, userID, syllabusID)
		if err != nil {
			return fmt.Errorf("get syllabus: %w", err)
		}

		cascaded, err := s.syllabi.CountOutlineCards(txCtx, syllabusID)
		if err != nil {
			return fmt.Errorf("count outline cards: %w", err)
		}
		if cascaded > 0 {
			s.log.Warn("reparse cascades review cards",
				slog.String("syllabus_id", syllabusID.String()),
				slog.Int("cards", cascaded),
			)
		}

		updated, err = s.syllabi.Update(txCtx, userID, syllabusID, syllabusrepo.UpdateParams{
			Name:        existing.Name,
			Description: existing.Description,
			ExamDate:    existing.ExamDate,
			SourceText:  sourceText,
		})
		if err != nil {
			return fmt.Errorf("update source text: %w", err)
		}

		if err := s.syllabi.ReplaceOutline(txCtx, syllabusID, outline); err != nil {
			return fmt.Errorf("replace outline: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.syllabi.LoadOutline(ctx, updated); err != nil {
		return nil, fmt.Errorf("load outline: %w", err)
	}

	s.log.Info("syllabus reparsed",
		slog.String("syllabus_id", syllabusID.String()),
		slog.Int("subjects", len(updated.Subjects)),
	)

	return updated, nil
}

// Delete removes a syllabus and its entire tree.
func (s *Service) Delete(ctx context.Context, userID, syllabusID uuid.UUID) error {
	if syllabusID == uuid.Nil {
		return domain.NewValidationError("syllabus_id", "required")
	}
	if err := s.syllabi.Delete(ctx, userID, syllabusID); err != nil {
		return fmt.Errorf("delete syllabus: %w", err)
	}
	s.log.Info("syllabus deleted", slog.String("syllabus_id", syllabusID.String()))
	return nil
}

// AppendSubject adds one subject with its topics at the end of the outline.
// Duplicate subject names are rejected case-insensitively, matching the
// parser's rule for full outlines.
func (s *Service) AppendSubject(ctx context.Context, userID, syllabusID uuid.UUID, in AppendSubjectInput) (*domain.Subject, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var subject *domain.Subject
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.syllabi.GetByID(txCtx, userID, syllabusID)
		if err != nil {
			return fmt.Errorf("get syllabus: %w", err)
		}
		if err := s.syllabi.LoadOutline(txCtx, existing); err != nil {
			return fmt.Errorf("load outline: %w", err)
		}
		for _, sub := range existing.Subjects {
			if strings.EqualFold(sub.Name, in.Name) {
				return domain.NewValidationError("name", "subject already exists in this syllabus")
			}
		}

		subject, err = s.syllabi.AppendSubject(txCtx, syllabusID, in.Name, in.Topics)
		if err != nil {
			return fmt.Errorf("append subject: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subject, nil
}

// AppendTopic adds one topic at the end of a subject the user owns.
func (s *Service) AppendTopic(ctx context.Context, userID, subjectID uuid.UUID, name string) (*domain.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "required")
	}

	var topic *domain.Topic
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		ownerID, _, err := s.syllabi.SubjectOwner(txCtx, subjectID)
		if err != nil {
			return fmt.Errorf("get subject owner: %w", err)
		}
		if ownerID != userID {
			return domain.ErrNotFound
		}

		topic, err = s.syllabi.AppendTopic(txCtx, subjectID, name)
		if err != nil {
			return fmt.Errorf("append topic: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topic, nil
}

// DeleteSubject removes one subject and everything underneath, but never
// the last subject: an outline with zero subjects would be unparsable.
func (s *Service) DeleteSubject(ctx context.Context, userID, subjectID uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		ownerID, syllabusID, err := s.syllabi.SubjectOwner(txCtx, subjectID)
		if err != nil {
			return fmt.Errorf("get subject owner: %w", err)
		}
		if ownerID != userID {
			return domain.ErrNotFound
		}

		remaining, err := s.syllabi.CountSubjects(txCtx, syllabusID)
		if err != nil {
			return fmt.Errorf("count subjects: %w", err)
		}
		if remaining <= 1 {
			return domain.NewValidationError("subject_id", "cannot delete the only subject of a syllabus")
		}

		if err := s.syllabi.DeleteSubject(txCtx, subjectID); err != nil {
			return fmt.Errorf("delete subject: %w", err)
		}
		return nil
	})
}

// DeleteTopic removes one topic, but never the last topic of a subject.
func (s *Service) DeleteTopic(ctx context.Context, userID, topicID uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		ownerID, subjectID, err := s.syllabi.TopicOwner(txCtx, topicID)
		if err != nil {
			return fmt.Errorf("get topic owner: %w", err)
		}
		if ownerID != userID {
			return domain.ErrNotFound
		}

		remaining, err := s.syllabi.CountTopics(txCtx, subjectID)
		if err != nil {
			return fmt.Errorf("count topics: %w", err)
		}
		if remaining <= 1 {
			return domain.NewValidationError("topic_id", "cannot delete the only topic of a subject")
		}

		if err := s.syllabi.DeleteTopic(txCtx, topicID); err != nil {
			return fmt.Errorf("delete topic: %w", err)
		}
		return nil
	})
}
