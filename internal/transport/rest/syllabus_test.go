package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
	svc "github.com/questforge/questforge/internal/service/syllabus"
	parser "github.com/questforge/questforge/internal/syllabus"
	"github.com/questforge/questforge/pkg/ctxutil"
)

type mockSyllabusService struct {
	previewFunc       func(ctx context.Context, sourceText string) (parser.Outline, error)
	createFunc        func(ctx context.Context, userID uuid.UUID, in svc.CreateInput) (*domain.Syllabus, error)
	getFunc           func(ctx context.Context, userID, syllabusID uuid.UUID) (*domain.Syllabus, error)
	listFunc          func(ctx context.Context, userID uuid.UUID) ([]*domain.Syllabus, error)
	updateFunc        func(ctx context.Context, userID, syllabusID uuid.UUID, in svc.UpdateInput) (*domain.Syllabus, error)
	reparseFunc       func(ctx context.Context, userID, syllabusID uuid.UUID, sourceText string) (*domain.Syllabus, error)
	deleteFunc        func(ctx context.Context, userID, syllabusID uuid.UUID) error
	appendSubjectFunc func(ctx context.Context, userID, syllabusID uuid.UUID, in svc.AppendSubjectInput) (*domain.Subject, error)
	appendTopicFunc   func(ctx context.Context, userID, subjectID uuid.UUID, name string) (*domain.Topic, error)
	deleteSubjectFunc func(ctx context.Context, userID, subjectID uuid.UUID) error
	deleteTopicFunc   func(ctx context.Context, userID, topicID uuid.UUID) error
}

func (m *mockSyllabusService) Preview(ctx context.Context, sourceText string) (parser.Outline, error) {
	return m.previewFunc(ctx, sourceText)
}
func (m *mockSyllabusService) Create(ctx context.Context, userID uuid.UUID, in svc.CreateInput) (*domain.Syllabus, error) {
	return m.createFunc(ctx, userID, in)
}
func (m *mockSyllabusService) Get(ctx context.Context, userID, syllabusID uuid.UUID) (*domain.Syllabus, error) {
	return m.getFunc(ctx, userID, syllabusID)
}
func (m *mockSyllabusService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Syllabus, error) {
	return m.listFunc(ctx, userID)
}
func (m *mockSyllabusService) Update(ctx context.Context, userID, syllabusID uuid.UUID, in svc.UpdateInput) (*domain.Syllabus, error) {
	return m.updateFunc(ctx, userID, syllabusID, in)
}
func (m *mockSyllabusService) Reparse(ctx context.Context, userID, syllabusID uuid.UUID, sourceText string) (*domain.Syllabus, error) {
	return m.reparseFunc(ctx, userID, syllabusID, sourceText)
}
func (m *mockSyllabusService) Delete(ctx context.Context, userID, syllabusID uuid.UUID) error {
	return m.deleteFunc(ctx, userID, syllabusID)
}
func (m *mockSyllabusService) AppendSubject(ctx context.Context, userID, syllabusID uuid.UUID, in svc.AppendSubjectInput) (*domain.Subject, error) {
	return m.appendSubjectFunc(ctx, userID, syllabusID, in)
}
func (m *mockSyllabusService) AppendTopic(ctx context.Context, userID, subjectID uuid.UUID, name string) (*domain.Topic, error) {
	return m.appendTopicFunc(ctx, userID, subjectID, name)
}
func (m *mockSyllabusService) DeleteSubject(ctx context.Context, userID, subjectID uuid.UUID) error {
	return m.deleteSubjectFunc(ctx, userID, subjectID)
}
func (m *mockSyllabusService) DeleteTopic(ctx context.Context, userID, topicID uuid.UUID) error {
	return m.deleteTopicFunc(ctx, userID, topicID)
}

func authedRequest(method, target string, body any, userID uuid.UUID) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(ctxutil.WithUserID(req.Context(), userID))
}

func TestSyllabusHandler_Preview(t *testing.T) {
	mock := &mockSyllabusService{
		previewFunc: func(ctx context.Context, sourceText string) (parser.Outline, error) {
			return parser.Parse(sourceText)
		},
	}
	h := NewSyllabusHandler(mock, discardLogger())

	req := authedRequest(http.MethodPost, "/api/syllabi/preview",
		map[string]string{"sourceText": "Math-algebra,geometry;Portuguese-grammar"}, uuid.New())
	rec := httptest.NewRecorder()
	h.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body previewResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(body.Subjects))
	}
	if body.TopicCount != 3 {
		t.Errorf("expected topic count 3, got %d", body.TopicCount)
	}
}

func TestSyllabusHandler_Preview_BadSyntax(t *testing.T) {
	mock := &mockSyllabusService{
		previewFunc: func(ctx context.Context, sourceText string) (parser.Outline, error) {
			return parser.Parse(sourceText)
		},
	}
	h := NewSyllabusHandler(mock, discardLogger())

	req := authedRequest(http.MethodPost, "/api/syllabi/preview",
		map[string]string{"sourceText": "Math-"}, uuid.New())
	rec := httptest.NewRecorder()
	h.Preview(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body validationResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "NO_TOPICS" {
		t.Errorf("expected code NO_TOPICS, got %q", body.Code)
	}
}

func TestSyllabusHandler_Create(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	mock := &mockSyllabusService{
		createFunc: func(ctx context.Context, gotUser uuid.UUID, in svc.CreateInput) (*domain.Syllabus, error) {
			if gotUser != userID {
				t.Errorf("expected user %s, got %s", userID, gotUser)
			}
			return &domain.Syllabus{
				ID:         uuid.New(),
				UserID:     gotUser,
				Name:       in.Name,
				SourceText: in.SourceText,
				CreatedAt:  now,
				UpdatedAt:  now,
				Subjects: []domain.Subject{
					{ID: uuid.New(), Name: "Math", Topics: []domain.Topic{{ID: uuid.New(), Name: "algebra"}}},
				},
			}, nil
		},
	}
	h := NewSyllabusHandler(mock, discardLogger())

	req := authedRequest(http.MethodPost, "/api/syllabi", map[string]string{
		"name":       "TRF Analyst",
		"sourceText": "Math-algebra",
	}, userID)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body syllabusResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Name != "TRF Analyst" {
		t.Errorf("expected name TRF Analyst, got %q", body.Name)
	}
	if len(body.Subjects) != 1 || len(body.Subjects[0].Topics) != 1 {
		t.Errorf("expected outline in response, got %+v", body.Subjects)
	}
}

func TestSyllabusHandler_Get_NotFound(t *testing.T) {
	mock := &mockSyllabusService{
		getFunc: func(ctx context.Context, userID, syllabusID uuid.UUID) (*domain.Syllabus, error) {
			return nil, domain.ErrNotFound
		},
	}
	h := NewSyllabusHandler(mock, discardLogger())

	id := uuid.New()
	req := authedRequest(http.MethodGet, "/api/syllabi/"+id.String(), nil, uuid.New())
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSyllabusHandler_Get_BadID(t *testing.T) {
	h := NewSyllabusHandler(&mockSyllabusService{}, discardLogger())

	req := authedRequest(http.MethodGet, "/api/syllabi/not-a-uuid", nil, uuid.New())
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSyllabusHandler_Delete(t *testing.T) {
	deleted := false
	mock := &mockSyllabusService{
		deleteFunc: func(ctx context.Context, userID, syllabusID uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	h := NewSyllabusHandler(mock, discardLogger())

	id := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/syllabi/"+id.String(), nil, uuid.New())
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !deleted {
		t.Error("expected service Delete to be called")
	}
}

func TestSyllabusHandler_MissingUser(t *testing.T) {
	h := NewSyllabusHandler(&mockSyllabusService{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/syllabi", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user in context, got %d", rec.Code)
	}
}
