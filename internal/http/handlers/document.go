package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/selgeapp/selge-backend/internal/docgen"
	"github.com/selgeapp/selge-backend/internal/domain"
	"github.com/selgeapp/selge-backend/internal/http/response"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
	"github.com/selgeapp/selge-backend/internal/services"
)

type DocumentHandler struct {
	log        *logger.Logger
	generation services.GenerationService
	documents  services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, generation services.GenerationService, documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		log:        log.With("handler", "DocumentHandler"),
		generation: generation,
		documents:  documents,
	}
}

func (h *DocumentHandler) Generate(c *gin.Context) {
	var req services.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	out, err := h.generation.Generate(c.Request.Context(), req)
	if err != nil {
		h.respondGenerationFailure(c, err)
		return
	}

	response.RespondCreated(c, gin.H{
		"document": out.Record,
		"sections": out.Sections,
		"validation": gin.H{
			"passed":   true,
			"warnings": out.Warnings,
		},
		"attempts": out.Attempts,
		"cached":   out.Cached,
	})
}

// respondGenerationFailure maps the generation failure taxonomy onto HTTP.
// Input problems are the caller's fault, upstream problems are 5xx-shaped
// gateway failures, and validation exhaustion is a 422 with full findings.
func (h *DocumentHandler) respondGenerationFailure(c *gin.Context, err error) {
	var ge *docgen.GenerationError
	if !errors.As(err, &ge) {
		h.log.Error("generation failed", "error", err.Error())
		response.RespondError(c, http.StatusInternalServerError, "generation_failed", err)
		return
	}

	switch ge.Kind {
	case docgen.FailureInvalidInput:
		response.RespondError(c, http.StatusBadRequest, string(ge.Kind), ge)
	case docgen.FailureNoteTooLong:
		response.RespondError(c, http.StatusRequestEntityTooLarge, string(ge.Kind), ge)
	case docgen.FailureRateLimited:
		if ge.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(ge.RetryAfter.Seconds())))
		}
		response.RespondError(c, http.StatusTooManyRequests, string(ge.Kind), ge)
	case docgen.FailurePaymentRequired:
		response.RespondError(c, http.StatusPaymentRequired, string(ge.Kind), ge)
	case docgen.FailureMalformedResponse:
		response.RespondError(c, http.StatusBadGateway, string(ge.Kind), ge)
	case docgen.FailureUpstreamUnavailable:
		response.RespondError(c, http.StatusServiceUnavailable, string(ge.Kind), ge)
	case docgen.FailureValidationExhausted:
		response.RespondValidationFailure(c, http.StatusUnprocessableEntity, string(ge.Kind),
			"document failed clinical validation after retry", ge.ValidationErrors, ge.ValidationWarnings)
	default:
		response.RespondError(c, http.StatusInternalServerError, "generation_failed", ge)
	}
}

func (h *DocumentHandler) List(c *gin.Context) {
	patientRef := strings.TrimSpace(c.Query("patient_ref"))
	var statuses []string
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		statuses = strings.Split(s, ",")
	}

	rows, err := h.documents.List(c.Request.Context(), patientRef, statuses)
	if err != nil {
		h.log.Error("List failed", "error", err.Error())
		response.RespondError(c, http.StatusInternalServerError, "list_documents_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"documents": rows})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	row, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		h.respondReviewFailure(c, err, "load_document_failed")
		return
	}
	response.RespondOK(c, gin.H{"document": row})
}

func (h *DocumentHandler) Sections(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	sections, err := h.documents.Sections(c.Request.Context(), id)
	if err != nil {
		h.respondReviewFailure(c, err, "load_sections_failed")
		return
	}
	response.RespondOK(c, gin.H{"sections": sections})
}

type updateSectionsRequest struct {
	Sections map[docgen.SectionKey]string `json:"sections" binding:"required"`
}

func (h *DocumentHandler) UpdateSections(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req updateSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	sections, err := h.documents.UpdateSections(c.Request.Context(), id, req.Sections)
	if err != nil {
		h.respondReviewFailure(c, err, "update_sections_failed")
		return
	}
	response.RespondOK(c, gin.H{"sections": sections})
}

type reviewRequest struct {
	Reviewer string `json:"reviewer"`
	Note     string `json:"note"`
}

func (h *DocumentHandler) Approve(c *gin.Context) {
	h.review(c, h.documents.Approve)
}

func (h *DocumentHandler) Reject(c *gin.Context) {
	h.review(c, h.documents.Reject)
}

func (h *DocumentHandler) review(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, reviewer, note string) (*domain.PatientDocumentRecord, error)) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Reviewer == "" {
		req.Reviewer = strings.TrimSpace(c.GetHeader("X-Reviewer-Id"))
	}

	row, err := fn(c.Request.Context(), id, req.Reviewer, req.Note)
	if err != nil {
		h.respondReviewFailure(c, err, "review_failed")
		return
	}
	response.RespondOK(c, gin.H{"document": row})
}

func (h *DocumentHandler) FlatText(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	text, err := h.documents.FlatText(c.Request.Context(), id)
	if err != nil {
		h.respondReviewFailure(c, err, "load_text_failed")
		return
	}
	c.String(http.StatusOK, text)
}

func (h *DocumentHandler) Runs(c *gin.Context) {
	id, err := uuid.Parse(strings.TrimSpace(c.Query("document_id")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	runs, err := h.documents.RunsForDocument(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Runs failed", "error", err.Error())
		response.RespondError(c, http.StatusInternalServerError, "list_runs_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}

func (h *DocumentHandler) documentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// respondReviewFailure maps document-service errors onto HTTP statuses:
// unknown id 404, editing outside draft 409, releasing unapproved text 403.
func (h *DocumentHandler) respondReviewFailure(c *gin.Context, err error, code string) {
	switch {
	case errors.Is(err, services.ErrDocumentNotFound):
		response.RespondError(c, http.StatusNotFound, "document_not_found", err)
	case errors.Is(err, services.ErrNotEditable), errors.Is(err, services.ErrInvalidTransition):
		response.RespondError(c, http.StatusConflict, "invalid_document_state", err)
	case errors.Is(err, services.ErrNotApproved):
		response.RespondError(c, http.StatusForbidden, "document_not_approved", err)
	case errors.Is(err, services.ErrReviewerRequired):
		response.RespondError(c, http.StatusBadRequest, "reviewer_required", err)
	default:
		h.log.Error("document operation failed", "error", err.Error())
		response.RespondError(c, http.StatusInternalServerError, code, err)
	}
}
