// Package review implements the spaced-repetition scheduler. One review
// card exists per (user, question); recording an outcome advances or resets
// it through a fixed interval table, and due-queries surface the oldest
// scheduling debt first.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/adapter/postgres/card"
	"github.com/questforge/questforge/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type cardRepo interface {
	GetByID(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewCard, error)
	GetForUpdate(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error)
	Upsert(ctx context.Context, c *domain.ReviewCard) (*domain.ReviewCard, error)
	UpdateState(ctx context.Context, cardID uuid.UUID, p card.UpdateStateParams) (*domain.ReviewCard, error)
	GetDueQuestions(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.Question, error)
	CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	CountDueBySubject(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.SubjectDueCount, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (card.StatusCounts, error)
	Agenda(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.AgendaEntry, error)
	List(ctx context.Context, userID uuid.UUID, status *domain.CardStatus, limit, offset int) ([]*domain.ReviewCard, int, error)
}

type questionRepo interface {
	LoadChoices(ctx context.Context, questions []*domain.Question) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

const (
	defaultDueLimit = 20
	maxDueLimit     = 50
	agendaDays      = 7
)

// Service implements the scheduler business logic.
type Service struct {
	cards     cardRepo
	questions questionRepo
	tx        txManager
	log       *slog.Logger

	// now is the injected clock; tests pin it for determinism.
	now func() time.Time
}

// NewService creates a new review scheduler service.
func NewService(log *slog.Logger, cards cardRepo, questions questionRepo, tx txManager) *Service {
	return &Service{
		cards:     cards,
		questions: questions,
		tx:        tx,
		log:       log.With("service", "review"),
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecordOutcome creates or advances the review card for (user, question).
// wasCorrect=false covers both wrong answers and explanation requests: any
// sign of doubt resets the streak and schedules a next-day review.
//
// The upsert runs inside a transaction: an existing card is row-locked
// before the transition is applied, and a brand-new card is written with
// ON CONFLICT so concurrent first outcomes collapse to a single row.
func (s *Service) RecordOutcome(ctx context.Context, userID, questionID, topicID uuid.UUID, wasCorrect bool) (*domain.ReviewCard, error) {
	if userID == uuid.Nil || questionID == uuid.Nil || topicID == uuid.Nil {
		return nil, domain.NewValidationError("id", "user, question and topic are required")
	}

	now := s.now()
	var updated *domain.ReviewCard

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.cards.GetForUpdate(txCtx, userID, questionID)
		switch {
		case err == nil:
			next := Transition(TransitionInput{
				ConsecutiveCorrect: existing.ConsecutiveCorrect,
				WasCorrect:         wasCorrect,
				Now:                now,
			})
			updated, err = s.cards.UpdateState(txCtx, existing.ID, card.UpdateStateParams{
				ConsecutiveCorrect: next.ConsecutiveCorrect,
				IntervalDays:       next.IntervalDays,
				Status:             next.Status,
				LastReviewedAt:     &next.LastReviewedAt,
				NextDueAt:          next.NextDueAt,
			})
			if err != nil {
				return fmt.Errorf("update card: %w", err)
			}
			return nil

		case isNotFound(err):
			next := Transition(TransitionInput{
				ConsecutiveCorrect: 0,
				WasCorrect:         wasCorrect,
				Now:                now,
			})
			updated, err = s.cards.Upsert(txCtx, &domain.ReviewCard{
				UserID:             userID,
				QuestionID:         questionID,
				TopicID:            topicID,
				ConsecutiveCorrect: next.ConsecutiveCorrect,
				IntervalDays:       next.IntervalDays,
				Status:             next.Status,
				LastReviewedAt:     &next.LastReviewedAt,
				NextDueAt:          next.NextDueAt,
			})
			if err != nil {
				return fmt.Errorf("create card: %w", err)
			}
			return nil

		default:
			return fmt.Errorf("lock card: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("outcome recorded",
		slog.String("question_id", questionID.String()),
		slog.Bool("correct", wasCorrect),
		slog.Int("streak", updated.ConsecutiveCorrect),
		slog.String("status", updated.Status.String()),
	)

	return updated, nil
}

// DueQuestions returns questions behind due pending cards, oldest due first,
// resolved with their choices for display. Limit is clamped to 1..50 with a
// default of 20.
func (s *Service) DueQuestions(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Question, error) {
	if limit <= 0 {
		limit = defaultDueLimit
	}
	if limit > maxDueLimit {
		limit = maxDueLimit
	}

	questions, err := s.cards.GetDueQuestions(ctx, userID, s.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("get due questions: %w", err)
	}

	if err := s.questions.LoadChoices(ctx, questions); err != nil {
		return nil, fmt.Errorf("load choices: %w", err)
	}

	return questions, nil
}

// DueCount returns how many cards are currently due.
func (s *Service) DueCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.cards.CountDue(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("count due: %w", err)
	}
	return count, nil
}

// DueCountBySubject returns the due breakdown per subject, descending.
func (s *Service) DueCountBySubject(ctx context.Context, userID uuid.UUID) ([]domain.SubjectDueCount, error) {
	counts, err := s.cards.CountDueBySubject(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("count due by subject: %w", err)
	}
	return counts, nil
}

// Summary returns the user's SRS progress overview: totals by status, how
// many are overdue right now, the next seven days of scheduled reviews and
// the per-subject due breakdown.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (*domain.ReviewSummary, error) {
	now := s.now()

	counts, err := s.cards.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}

	overdue, err := s.cards.CountDue(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("count overdue: %w", err)
	}

	agenda, err := s.cards.Agenda(ctx, userID, now, now.Add(agendaDays*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("agenda: %w", err)
	}

	bySubject, err := s.cards.CountDueBySubject(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("due by subject: %w", err)
	}

	return &domain.ReviewSummary{
		Total:     counts.Total,
		Pending:   counts.Pending,
		Mastered:  counts.Mastered,
		Overdue:   overdue,
		Agenda:    agenda,
		BySubject: bySubject,
	}, nil
}

// ListCards returns the user's cards with an optional status filter.
func (s *Service) ListCards(ctx context.Context, userID uuid.UUID, status *domain.CardStatus, limit, offset int) ([]*domain.ReviewCard, int, error) {
	if status != nil && !status.IsValid() {
		return nil, 0, domain.NewValidationError("status", "must be PENDING or MASTERED")
	}
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	cards, total, err := s.cards.List(ctx, userID, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list cards: %w", err)
	}
	return cards, total, nil
}

// ResetCard rewinds a card to immediate review: streak zero, one-day
// interval, pending, due now. The record itself survives.
func (s *Service) ResetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewCard, error) {
	if cardID == uuid.Nil {
		return nil, domain.NewValidationError("card_id", "required")
	}

	now := s.now()
	var updated *domain.ReviewCard

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.cards.GetByID(txCtx, userID, cardID)
		if err != nil {
			return fmt.Errorf("get card: %w", err)
		}

		updated, err = s.cards.UpdateState(txCtx, existing.ID, card.UpdateStateParams{
			ConsecutiveCorrect: 0,
			IntervalDays:       1,
			Status:             domain.CardStatusPending,
			LastReviewedAt:     existing.LastReviewedAt,
			NextDueAt:          now,
		})
		if err != nil {
			return fmt.Errorf("reset card: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("card reset", slog.String("card_id", cardID.String()))
	return updated, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
