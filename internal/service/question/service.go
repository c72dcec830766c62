// Package question implements question generation, answer recording and
// explanation delivery. Generation resolves a topic context (one topic, a
// subject's topics or a whole syllabus), asks the generative client for a
// battery per topic and persists everything in one transaction. Answers and
// explanation requests feed the review scheduler.
package question

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
)

type questionRepo interface {
	Create(ctx context.Context, topicID uuid.UUID, gq domain.GeneratedQuestion, promptHash *string) (*domain.Question, error)
	GetByID(ctx context.Context, questionID uuid.UUID) (*domain.Question, error)
	Owner(ctx context.Context, questionID uuid.UUID) (uuid.UUID, error)
	SetExplanation(ctx context.Context, questionID uuid.UUID, explanation string) error
}

type answerRepo interface {
	Create(ctx context.Context, a *domain.Answer) (*domain.Answer, error)
	MarkExplanationRequested(ctx context.Context, userID, answerID uuid.UUID) error
	TopicAccuracy(ctx context.Context, userID, topicID uuid.UUID) (total, correct int, err error)
}

type topicResolver interface {
	GetTopicContext(ctx context.Context, topicID uuid.UUID) (domain.TopicContext, uuid.UUID, error)
	TopicContextsBySubject(ctx context.Context, subjectID uuid.UUID) ([]domain.TopicContext, error)
	TopicContextsBySyllabus(ctx context.Context, syllabusID uuid.UUID) ([]domain.TopicContext, error)
	SubjectOwner(ctx context.Context, subjectID uuid.UUID) (userID, syllabusID uuid.UUID, err error)
	GetByID(ctx context.Context, userID, syllabusID uuid.UUID) (*domain.Syllabus, error)
}

type generator interface {
	GenerateQuestions(ctx context.Context, topic domain.TopicContext, count int, kind domain.QuestionKind, difficulty domain.Difficulty) (*domain.GeneratedBattery, error)
	GenerateExplanation(ctx context.Context, q *domain.Question, topic domain.TopicContext) (string, error)
}

type scheduler interface {
	RecordOutcome(ctx context.Context, userID, questionID, topicID uuid.UUID, wasCorrect bool) (*domain.ReviewCard, error)
	DueQuestions(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Question, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AnswerResult is what the client gets back after answering.
type AnswerResult struct {
	Answer        *domain.Answer
	CorrectAnswer string
	Card          *domain.ReviewCard
}

// ExplanationResult carries the explanation text and whether it came from
// the question row's cache.
type ExplanationResult struct {
	Explanation string
	Cached      bool
	Card        *domain.ReviewCard
}

// Service implements the question business logic.
type Service struct {
	questions questionRepo
	answers   answerRepo
	topics    topicResolver
	gen       generator
	review    scheduler
	tx        txManager
	log       *slog.Logger
}

// NewService creates a new question service.
func NewService(log *slog.Logger, questions questionRepo, answers answerRepo, topics topicResolver, gen generator, review scheduler, tx txManager) *Service {
	return &Service{
		questions: questions,
		answers:   answers,
		topics:    topics,
		gen:       gen,
		review:    review,
		tx:        tx,
		log:       log.With("service", "question"),
	}
}

// Generate produces a battery of questions for the requested scope.
// SRS_REVIEW mode never calls the generator: it re-serves the questions
// behind due cards.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, in GenerateInput) ([]*domain.Question, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.Mode == domain.GenerationModeSRSReview {
		return s.review.DueQuestions(ctx, userID, in.Count)
	}

	contexts, err := s.resolveContexts(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	if len(contexts) == 0 {
		return nil, domain.NewValidationError("mode", "scope has no topics to generate from")
	}

	batches := splitCount(in.Count, len(contexts))

	var batteries []generatedForTopic
	for i, tc := range contexts {
		if batches[i] == 0 {
			continue
		}

		difficulty := in.Difficulty
		if difficulty == domain.DifficultyAdaptive {
			difficulty, err = s.resolveDifficulty(ctx, userID, tc.TopicID)
			if err != nil {
				return nil, err
			}
		}

		battery, err := s.gen.GenerateQuestions(ctx, tc, batches[i], in.Kind, difficulty)
		if err != nil {
			return nil, fmt.Errorf("generate for topic %s: %w", tc.TopicName, err)
		}
		batteries = append(batteries, generatedForTopic{topicID: tc.TopicID, battery: battery})
	}

	var persisted []*domain.Question
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, b := range batteries {
			hash := b.battery.PromptHash
			for _, gq := range b.battery.Questions {
				if !gq.Kind.IsStorable() {
					return fmt.Errorf("generator returned unstorable kind %q", gq.Kind)
				}
				q, err := s.questions.Create(txCtx, b.topicID, gq, &hash)
				if err != nil {
					return fmt.Errorf("persist question: %w", err)
				}
				persisted = append(persisted, q)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("battery generated",
		slog.String("mode", in.Mode.String()),
		slog.Int("topics", len(batteries)),
		slog.Int("questions", len(persisted)),
	)

	return persisted, nil
}

// RecordAnswer stores the response and, per the scheduler triggers, feeds
// the review card: a wrong answer always counts as a miss, a correct answer
// advances the card only when practicing in SRS review mode.
func (s *Service) RecordAnswer(ctx context.Context, userID uuid.UUID, in AnswerInput) (*AnswerResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	q, err := s.ownedQuestion(ctx, userID, in.QuestionID)
	if err != nil {
		return nil, err
	}

	correct := strings.EqualFold(in.Answer, q.CorrectAnswer)

	answer, err := s.answers.Create(ctx, &domain.Answer{
		UserID:         userID,
		QuestionID:     q.ID,
		Answer:         in.Answer,
		Correct:        correct,
		ElapsedSeconds: in.ElapsedSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("store answer: %w", err)
	}

	result := &AnswerResult{Answer: answer, CorrectAnswer: q.CorrectAnswer}

	switch {
	case !correct:
		result.Card, err = s.review.RecordOutcome(ctx, userID, q.ID, q.TopicID, false)
	case in.Mode == domain.GenerationModeSRSReview:
		result.Card, err = s.review.RecordOutcome(ctx, userID, q.ID, q.TopicID, true)
	}
	if err != nil {
		return nil, fmt.Errorf("record outcome: %w", err)
	}

	return result, nil
}

// Explanation returns the explanation for a question, generating and
// caching it on first request. Asking for an explanation is treated as a
// miss: the review card resets even when the text was already cached.
func (s *Service) Explanation(ctx context.Context, userID, questionID uuid.UUID, answerID *uuid.UUID) (*ExplanationResult, error) {
	if questionID == uuid.Nil {
		return nil, domain.NewValidationError("question_id", "required")
	}

	q, err := s.ownedQuestion(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}

	result := &ExplanationResult{}
	if q.Explanation != nil && *q.Explanation != "" {
		result.Explanation = *q.Explanation
		result.Cached = true
	} else {
		tc, _, err := s.topics.GetTopicContext(ctx, q.TopicID)
		if err != nil {
			return nil, fmt.Errorf("get topic context: %w", err)
		}

		text, err := s.gen.GenerateExplanation(ctx, q, tc)
		if err != nil {
			return nil, fmt.Errorf("generate explanation: %w", err)
		}
		if err := s.questions.SetExplanation(ctx, q.ID, text); err != nil {
			return nil, fmt.Errorf("cache explanation: %w", err)
		}
		result.Explanation = text
	}

	result.Card, err = s.review.RecordOutcome(ctx, userID, q.ID, q.TopicID, false)
	if err != nil {
		return nil, fmt.Errorf("record outcome: %w", err)
	}

	if answerID != nil {
		if err := s.answers.MarkExplanationRequested(ctx, userID, *answerID); err != nil {
			return nil, fmt.Errorf("mark explanation requested: %w", err)
		}
	}

	return result, nil
}

type generatedForTopic struct {
	topicID uuid.UUID
	battery *domain.GeneratedBattery
}

func (s *Service) resolveContexts(ctx context.Context, userID uuid.UUID, in GenerateInput) ([]domain.TopicContext, error) {
	switch in.Mode {
	case domain.GenerationModeTopic:
		tc, ownerID, err := s.topics.GetTopicContext(ctx, in.TopicID)
		if err != nil {
			return nil, fmt.Errorf("get topic: %w", err)
		}
		if ownerID != userID {
			return nil, domain.ErrNotFound
		}
		return []domain.TopicContext{tc}, nil

	case domain.GenerationModeSubject:
		ownerID, _, err := s.topics.SubjectOwner(ctx, in.SubjectID)
		if err != nil {
			return nil, fmt.Errorf("get subject: %w", err)
		}
		if ownerID != userID {
			return nil, domain.ErrNotFound
		}
		return s.topics.TopicContextsBySubject(ctx, in.SubjectID)

	case domain.GenerationModeSyllabus:
		if _, err := s.topics.GetByID(ctx, userID, in.SyllabusID); err != nil {
			return nil, fmt.Errorf("get syllabus: %w", err)
		}
		return s.topics.TopicContextsBySyllabus(ctx, in.SyllabusID)

	default:
		return nil, domain.NewValidationError("mode", "unknown mode")
	}
}

// resolveDifficulty maps the user's recent accuracy on a topic to a
// concrete difficulty: below 50% easy, below 75% medium, otherwise hard.
// With no history the middle of the road wins.
func (s *Service) resolveDifficulty(ctx context.Context, userID, topicID uuid.UUID) (domain.Difficulty, error) {
	total, correct, err := s.answers.TopicAccuracy(ctx, userID, topicID)
	if err != nil {
		return "", fmt.Errorf("topic accuracy: %w", err)
	}
	if total == 0 {
		return domain.DifficultyMedium, nil
	}

	accuracy := float64(correct) / float64(total)
	switch {
	case accuracy < 0.5:
		return domain.DifficultyEasy, nil
	case accuracy < 0.75:
		return domain.DifficultyMedium, nil
	default:
		return domain.DifficultyHard, nil
	}
}

func (s *Service) ownedQuestion(ctx context.Context, userID, questionID uuid.UUID) (*domain.Question, error) {
	ownerID, err := s.questions.Owner(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("get question owner: %w", err)
	}
	if ownerID != userID {
		return nil, domain.ErrNotFound
	}

	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// splitCount spreads n questions over k topics, front-loading the
// remainder so early topics get at most one extra.
func splitCount(n, k int) []int {
	out := make([]int, k)
	for i := range out {
		out[i] = n / k
	}
	for i := 0; i < n%k; i++ {
		out[i]++
	}
	return out
}
