package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
	svc "github.com/questforge/questforge/internal/service/syllabus"
	parser "github.com/questforge/questforge/internal/syllabus"
)

// syllabusService defines the minimal interface needed by SyllabusHandler.
type syllabusService interface {
	Preview(ctx context.Context, sourceText string) (parser.Outline, error)
	Create(ctx context.Context, userID uuid.UUID, in svc.CreateInput) (*domain.Syllabus, error)
	Get(ctx context.Context, userID, syllabusID uuid.UUID) (*domain.Syllabus, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Syllabus, error)
	Update(ctx context.Context, userID, syllabusID uuid.UUID, in svc.UpdateInput) (*domain.Syllabus, error)
	Reparse(ctx context.Context, userID, syllabusID uuid.UUID, sourceText string) (*domain.Syllabus, error)
	Delete(ctx context.Context, userID, syllabusID uuid.UUID) error
	AppendSubject(ctx context.Context, userID, syllabusID uuid.UUID, in svc.AppendSubjectInput) (*domain.Subject, error)
	AppendTopic(ctx context.Context, userID, subjectID uuid.UUID, name string) (*domain.Topic, error)
	DeleteSubject(ctx context.Context, userID, subjectID uuid.UUID) error
	DeleteTopic(ctx context.Context, userID, topicID uuid.UUID) error
}

// SyllabusHandler serves syllabus and outline endpoints.
type SyllabusHandler struct {
	svc syllabusService
	log *slog.Logger
}

// NewSyllabusHandler creates a SyllabusHandler.
func NewSyllabusHandler(svc syllabusService, logger *slog.Logger) *SyllabusHandler {
	return &SyllabusHandler{svc: svc, log: logger.With("handler", "syllabus")}
}

type previewRequest struct {
	SourceText string `json:"sourceText"`
}

type createSyllabusRequest struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	ExamDate    *time.Time `json:"examDate"`
	SourceText  string     `json:"sourceText"`
}

type updateSyllabusRequest struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	ExamDate    *time.Time `json:"examDate"`
}

type reparseRequest struct {
	SourceText string `json:"sourceText"`
}

type appendSubjectRequest struct {
	Name   string   `json:"name"`
	Topics []string `json:"topics"`
}

type appendTopicRequest struct {
	Name string `json:"name"`
}

type previewResponse struct {
	Subjects   []previewSubject `json:"subjects"`
	TopicCount int              `json:"topicCount"`
}

type previewSubject struct {
	Name   string   `json:"name"`
	Topics []string `json:"topics"`
}

type syllabusResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	ExamDate    *time.Time        `json:"examDate,omitempty"`
	SourceText  string            `json:"sourceText"`
	Subjects    []subjectResponse `json:"subjects"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type subjectResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Position int             `json:"position"`
	Topics   []topicResponse `json:"topics"`
}

type topicResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Preview handles POST /syllabi/preview. Parses without persisting.
func (h *SyllabusHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	outline, err := h.svc.Preview(r.Context(), req.SourceText)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPreviewResponse(outline))
}

// Create handles POST /syllabi.
func (h *SyllabusHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	var req createSyllabusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sy, err := h.svc.Create(r.Context(), userID, svc.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		ExamDate:    req.ExamDate,
		SourceText:  req.SourceText,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSyllabusResponse(sy))
}

// List handles GET /syllabi.
func (h *SyllabusHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}

	items, err := h.svc.List(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]syllabusResponse, 0, len(items))
	for _, sy := range items {
		out = append(out, toSyllabusResponse(sy))
	}
	writeJSON(w, http.StatusOK, map[string]any{"syllabi": out})
}

// Get handles GET /syllabi/{id}.
func (h *SyllabusHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	sy, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSyllabusResponse(sy))
}

// Update handles PATCH /syllabi/{id}. Header fields only; the outline is
// changed through Reparse or the subject/topic endpoints.
func (h *SyllabusHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateSyllabusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sy, err := h.svc.Update(r.Context(), userID, id, svc.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		ExamDate:    req.ExamDate,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSyllabusResponse(sy))
}

// Reparse handles PUT /syllabi/{id}/source. Replaces the whole outline.
func (h *SyllabusHandler) Reparse(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req reparseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sy, err := h.svc.Reparse(r.Context(), userID, id, req.SourceText)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSyllabusResponse(sy))
}

// Delete handles DELETE /syllabi/{id}.
func (h *SyllabusHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AppendSubject handles POST /syllabi/{id}/subjects.
func (h *SyllabusHandler) AppendSubject(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req appendSubjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	subject, err := h.svc.AppendSubject(r.Context(), userID, id, svc.AppendSubjectInput{
		Name:   req.Name,
		Topics: req.Topics,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSubjectResponse(*subject))
}

// DeleteSubject handles DELETE /subjects/{id}.
func (h *SyllabusHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteSubject(r.Context(), userID, id); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AppendTopic handles POST /subjects/{id}/topics.
func (h *SyllabusHandler) AppendTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req appendTopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	topic, err := h.svc.AppendTopic(r.Context(), userID, id, req.Name)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTopicResponse(*topic))
}

// DeleteTopic handles DELETE /topics/{id}.
func (h *SyllabusHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteTopic(r.Context(), userID, id); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toPreviewResponse(outline parser.Outline) previewResponse {
	subjects := make([]previewSubject, 0, len(outline))
	for _, s := range outline {
		subjects = append(subjects, previewSubject{Name: s.Name, Topics: s.Topics})
	}
	return previewResponse{Subjects: subjects, TopicCount: outline.TopicCount()}
}

func toSyllabusResponse(sy *domain.Syllabus) syllabusResponse {
	subjects := make([]subjectResponse, 0, len(sy.Subjects))
	for _, s := range sy.Subjects {
		subjects = append(subjects, toSubjectResponse(s))
	}
	return syllabusResponse{
		ID:          sy.ID.String(),
		Name:        sy.Name,
		Description: sy.Description,
		ExamDate:    sy.ExamDate,
		SourceText:  sy.SourceText,
		Subjects:    subjects,
		CreatedAt:   sy.CreatedAt,
		UpdatedAt:   sy.UpdatedAt,
	}
}

func toSubjectResponse(s domain.Subject) subjectResponse {
	topics := make([]topicResponse, 0, len(s.Topics))
	for _, t := range s.Topics {
		topics = append(topics, toTopicResponse(t))
	}
	return subjectResponse{
		ID:       s.ID.String(),
		Name:     s.Name,
		Position: s.Position,
		Topics:   topics,
	}
}

func toTopicResponse(t domain.Topic) topicResponse {
	return topicResponse{
		ID:       t.ID.String(),
		Name:     t.Name,
		Position: t.Position,
	}
}
