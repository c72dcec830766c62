package syllabus

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questforge/questforge/internal/adapter/postgres/syllabusrepo"
	"github.com/questforge/questforge/internal/domain"
	parser "github.com/questforge/questforge/internal/syllabus"
)

type mockSyllabusRepo struct {
	createFunc            func(ctx context.Context, p syllabusrepo.CreateParams) (*domain.Syllabus, error)
	getByIDFunc           func(ctx context.Context, userID, syllabusID uuid.UUID) (*domain.Syllabus, error)
	listFunc              func(ctx context.Context, userID uuid.UUID) ([]*domain.Syllabus, error)
	updateFunc            func(ctx context.Context, userID, syllabusID uuid.UUID, p syllabusrepo.UpdateParams) (*domain.Syllabus, error)
	deleteFunc            func(ctx context.Context, userID, syllabusID uuid.UUID) error
	replaceOutlineFunc    func(ctx context.Context, syllabusID uuid.UUID, outline parser.Outline) error
	countOutlineCardsFunc func(ctx context.Context, syllabusID uuid.UUID) (int, error)
	loadOutlineFunc       func(ctx context.Context, s *domain.Syllabus) error
	appendSubjectFunc     func(ctx context.Context, syllabusID uuid.UUID, name string, topics []string) (*domain.Subject, error)
	appendTopicFunc       func(ctx context.Context, subjectID uuid.UUID, name string) (*domain.Topic, error)
	subjectOwnerFunc      func(ctx context.Context, subjectID uuid.UUID) (uuid.UUID, uuid.UUID, error)
	topicOwnerFunc        func(ctx context.Context, topicID uuid.UUID) (uuid.UUID, uuid.UUID, error)
	deleteSubjectFunc     func(ctx context.Context, subjectID uuid.UUID) error
	deleteTopicFunc       func(ctx context.Context, topicID uuid.UUID) error
	countSubjectsFunc     func(ctx context.Context, syllabusID uuid.UUID) (int, error)
	countTopicsFunc       func(ctx context.Context, subjectID uuid.UUID) (int, error)
}

func (m *mockSyllabusRepo) Create(ctx context.Context, p syllabusrepo.CreateParams) (*domain.Syllabus, error) {
	return m.createFunc(ctx, p)
}

func (m *mockSyllabusRepo) GetByID(ctx context.Context, userID, syllabusID uuid.UUID) (*domain.Syllabus, error) {
	return m.getByIDFunc(ctx, userID, syllabusID)
}

func (m *mockSyllabusRepo) List(ctx context.Context, userID uuid.UUID) ([]*domain.Syllabus, error) {
	return m.listFunc(ctx, userID)
}

func (m *mockSyllabusRepo) Update(ctx context.Context, userID, syllabusID uuid.UUID, p syllabusrepo.UpdateParams) (*domain.Syllabus, error) {
	return m.updateFunc(ctx, userID, syllabusID, p)
}

func (m *mockSyllabusRepo) Delete(ctx context.Context, userID, syllabusID uuid.UUID) error {
	return m.deleteFunc(ctx, userID, syllabusID)
}

func (m *mockSyllabusRepo) ReplaceOutline(ctx context.Context, syllabusID uuid.UUID, outline parser.Outline) error {
	return m.replaceOutlineFunc(ctx, syllabusID, outline)
}

func (m *mockSyllabusRepo) CountOutlineCards(ctx context.Context, syllabusID uuid.UUID) (int, error) {
	return m.countOutlineCardsFunc(ctx, syllabusID)
}

func (m *mockSyllabusRepo) LoadOutline(ctx context.Context, s *domain.Syllabus) error {
	return m.loadOutlineFunc(ctx, s)
}

func (m *mockSyllabusRepo) AppendSubject(ctx context.Context, syllabusID uuid.UUID, name string, topics []string) (*domain.Subject, error) {
	return m.appendSubjectFunc(ctx, syllabusID, name, topics)
}

func (m *mockSyllabusRepo) AppendTopic(ctx context.Context, subjectID uuid.UUID, name string) (*domain.Topic, error) {
	return m.appendTopicFunc(ctx, subjectID, name)
}

func (m *mockSyllabusRepo) SubjectOwner(ctx context.Context, subjectID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	return m.subjectOwnerFunc(ctx, subjectID)
}

func (m *mockSyllabusRepo) TopicOwner(ctx context.Context, topicID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	return m.topicOwnerFunc(ctx, topicID)
}

func (m *mockSyllabusRepo) DeleteSubject(ctx context.Context, subjectID uuid.UUID) error {
	return m.deleteSubjectFunc(ctx, subjectID)
}

func (m *mockSyllabusRepo) DeleteTopic(ctx context.Context, topicID uuid.UUID) error {
	return m.deleteTopicFunc(ctx, topicID)
}

func (m *mockSyllabusRepo) CountSubjects(ctx context.Context, syllabusID uuid.UUID) (int, error) {
	return m.countSubjectsFunc(ctx, syllabusID)
}

func (m *mockSyllabusRepo) CountTopics(ctx context.Context, subjectID uuid.UUID) (int, error) {
	return m.countTopicsFunc(ctx, subjectID)
}

type mockTxManager struct{}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	var gotCreate syllabusrepo.CreateParams
	var gotOutline parser.Outline
	repo := &mockSyllabusRepo{
		createFunc: func(_ context.Context, p syllabusrepo.CreateParams) (*domain.Syllabus, error) {
			gotCreate = p
			return &domain.Syllabus{ID: uuid.New(), UserID: p.UserID, Name: p.Name, SourceText: p.SourceText}, nil
		},
		replaceOutlineFunc: func(_ context.Context, _ uuid.UUID, outline parser.Outline) error {
			gotOutline = outline
			return nil
		},
		loadOutlineFunc: func(_ context.Context, s *domain.Syllabus) error {
			s.Subjects = []domain.Subject{{Name: "Math"}, {Name: "Law"}}
			return nil
		},
	}

	svc := NewService(discardLogger(), repo, &mockTxManager{})

	got, err := svc.Create(context.Background(), userID, CreateInput{
		Name:       "TRF 2026",
		SourceText: "Math-algebra,geometry;Law-constitutional",
	})
	require.NoError(t, err)

	assert.Equal(t, userID, gotCreate.UserID)
	assert.Equal(t, "Math-algebra,geometry;Law-constitutional", gotCreate.SourceText)
	require.Len(t, gotOutline, 2)
	assert.Equal(t, []string{"algebra", "geometry"}, gotOutline[0].Topics)
	assert.Len(t, got.Subjects, 2)
}

func TestService_Create_InvalidOutlineDoesNotPersist(t *testing.T) {
	t.Parallel()

	created := false
	repo := &mockSyllabusRepo{
		createFunc: func(_ context.Context, _ syllabusrepo.CreateParams) (*domain.Syllabus, error) {
			created = true
			return nil, nil
		},
	}

	svc := NewService(discardLogger(), repo, &mockTxManager{})

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Name:       "TRF 2026",
		SourceText: "Math", // no topics
	})

	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, parser.ErrNoTopics, perr.Kind)
	assert.False(t, created)
}

func TestService_Reparse_InvalidTextLeavesOutlineUntouched(t *testing.T) {
	t.Parallel()

	touched := false
	repo := &mockSyllabusRepo{
		getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Syllabus, error) {
			touched = true
			return nil, nil
		},
		replaceOutlineFunc: func(_ context.Context, _ uuid.UUID, _ parser.Outline) error {
			touched = true
			return nil
		},
	}

	svc := NewService(discardLogger(), repo, &mockTxManager{})

	_, err := svc.Reparse(context.Background(), uuid.New(), uuid.New(), "   ")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, touched, "a syntax error must not reach the repository")
}

func TestService_Reparse_ReplacesOutline(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	syllabusID := uuid.New()
	existing := &domain.Syllabus{
		ID:         syllabusID,
		UserID:     userID,
		Name:       "TRF 2026",
		SourceText: "Math-algebra",
	}

	var gotUpdate syllabusrepo.UpdateParams
	var gotOutline parser.Outline
	repo := &mockSyllabusRepo{
		getByIDFunc: func(_ context.Context, u, id uuid.UUID) (*domain.Syllabus, error) {
			assert.Equal(t, userID, u)
			assert.Equal(t, syllabusID, id)
			return existing, nil
		},
		countOutlineCardsFunc: func(_ context.Context, _ uuid.UUID) (int, error) {
			return 3, nil
		},
		updateFunc: func(_ context.Context, _, _ uuid.UUID, p syllabusrepo.UpdateParams) (*domain.Syllabus, error) {
			gotUpdate = p
			out := *existing
			out.SourceText = p.SourceText
			return &out, nil
		},
		replaceOutlineFunc: func(_ context.Context, _ uuid.UUID, outline parser.Outline) error {
			gotOutline = outline
			return nil
		},
		loadOutlineFunc: func(_ context.Context, _ *domain.Syllabus) error { return nil },
	}

	svc := NewService(discardLogger(), repo, &mockTxManager{})

	got, err := svc.Reparse(context.Background(), userID, syllabusID, "Law-constitutional,administrative")
	require.NoError(t, err)

	assert.Equal(t, "TRF 2026", gotUpdate.Name, "header fields survive a reparse")
	assert.Equal(t, "Law-constitutional,administrative", gotUpdate.SourceText)
	require.Len(t, gotOutline, 1)
	assert.Equal(t, "Law", gotOutline[0].Name)
	assert.Equal(t, "Law-constitutional,administrative", got.SourceText)
}

func TestService_AppendSubject_RejectsDuplicateName(t *testing.T) {
	t.Parallel()

	repo := &mockSyllabusRepo{
		getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Syllabus, error) {
			return &domain.Syllabus{}, nil
		},
		loadOutlineFunc: func(_ context.Context, s *domain.Syllabus) error {
			s.Subjects = []domain.Subject{{Name: "Math"}}
			return nil
		},
	}

	svc := NewService(discardLogger(), repo, &mockTxManager{})

	_, err := svc.AppendSubject(context.Background(), uuid.New(), uuid.New(), AppendSubjectInput{
		Name:   "math",
		Topics: []string{"algebra"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_AppendTopic_ForeignSubject(t *testing.T) {
	t.Parallel()

	repo := &mockSyllabusRepo{
		subjectOwnerFunc: func(_ context.Context, _ uuid.UUID) (uuid.UUID, uuid.UUID, error) {
			return uuid.New(), uuid.New(), nil // someone else's subject
		},
	}

	svc := NewService(discardLogger(), repo, &mockTxManager{})

	_, err := svc.AppendTopic(context.Background(), uuid.New(), uuid.New(), "sets")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_DeleteSubject_LastSubjectRefused(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockSyllabusRepo{
		subjectOwnerFunc: func(_ context.Context, _ uuid.UUID) (uuid.UUID, uuid.UUID, error) {
			return userID, uuid.New(), nil
		},
		countSubjectsFunc: func(_ context.Context, _ uuid.UUID) (int, error) {
			return 1, nil
		},
	}

	svc := NewService(discardLogger(), repo, &mockTxManager{})

	err := svc.DeleteSubject(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_DeleteTopic_LastTopicRefused(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockSyllabusRepo{
		topicOwnerFunc: func(_ context.Context, _ uuid.UUID) (uuid.UUID, uuid.UUID, error) {
			return userID, uuid.New(), nil
		},
		countTopicsFunc: func(_ context.Context, _ uuid.UUID) (int, error) {
			return 1, nil
		},
	}

	svc := NewService(discardLogger(), repo, &mockTxManager{})

	err := svc.DeleteTopic(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Preview_DoesNotPersist(t *testing.T) {
	t.Parallel()

	svc := NewService(discardLogger(), &mockSyllabusRepo{}, &mockTxManager{})

	outline, err := svc.Preview(context.Background(), "Math-algebra;Law-penal")
	require.NoError(t, err)
	assert.Len(t, outline, 2)
}
