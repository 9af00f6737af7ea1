package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"brightpath/casedesk/internal/cache"
	"brightpath/casedesk/internal/models"
	"brightpath/casedesk/internal/services"
	"brightpath/casedesk/internal/workflow"
)

// CaseWorkflow is the slice of the workflow engine the handlers consume.
type CaseWorkflow interface {
	ListCases(ctx context.Context, caseType models.CaseType, filter services.Filter) ([]models.Case, error)
	GetCase(ctx context.Context, caseType models.CaseType, id string) (*models.Case, error)
	TransitionStatus(ctx context.Context, caseType models.CaseType, id, nextStatus string) (*workflow.TransitionResult, error)
	AttachDocument(ctx context.Context, caseType models.CaseType, id, slot string, data []byte, meta workflow.FileMeta) (*models.Case, error)
	RemoveDocument(ctx context.Context, caseType models.CaseType, id, slot string) (*models.Case, error)
	SetVerified(ctx context.Context, caseType models.CaseType, id string, verified bool) (*models.Case, error)
	DeleteCase(ctx context.Context, caseType models.CaseType, id string) error
}

// maxUploadBody bounds how much of a request body the handler will read.
// Per-slot ceilings are stricter; this only protects against oversized raw
// requests.
const maxUploadBody = 20 << 20

// CaseHandler exposes the workflow engine over the admin console REST API.
type CaseHandler struct {
	engine CaseWorkflow
	lists  *cache.ListCache
}

// NewCaseHandler creates a new CaseHandler. lists may be nil to disable
// caching.
func NewCaseHandler(engine CaseWorkflow, lists *cache.ListCache) *CaseHandler {
	return &CaseHandler{engine: engine, lists: lists}
}

func (h *CaseHandler) caseType(c *gin.Context) (models.CaseType, bool) {
	caseType, ok := models.ParseCaseType(c.Param("type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown case type %q", c.Param("type"))})
		return "", false
	}
	return caseType, true
}

// ListCases handles GET /v1/cases/:type. Results are cached briefly;
// ?refresh=1 is the manual "Refresh" action and bypasses plus repopulates
// the cache.
func (h *CaseHandler) ListCases(c *gin.Context) {
	caseType, ok := h.caseType(c)
	if !ok {
		return
	}

	filter := services.Filter{
		Status: c.Query("status"),
		Search: c.Query("q"),
	}
	variant := fmt.Sprintf("s=%s&q=%s", filter.Status, filter.Search)
	refresh := c.Query("refresh") == "1"

	if !refresh && h.lists != nil {
		if body, hit := h.lists.Get(c.Request.Context(), caseType, variant); hit {
			c.Data(http.StatusOK, "application/json", []byte(body))
			return
		}
	}

	cases, err := h.engine.ListCases(c.Request.Context(), caseType, filter)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if cases == nil {
		cases = []models.Case{}
	}

	body, err := json.Marshal(gin.H{"data": cases})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
	if h.lists != nil {
		h.lists.Set(c.Request.Context(), caseType, variant, string(body))
	}
}

// GetCase handles GET /v1/cases/:type/:id.
func (h *CaseHandler) GetCase(c *gin.Context) {
	caseType, ok := h.caseType(c)
	if !ok {
		return
	}

	kase, err := h.engine.GetCase(c.Request.Context(), caseType, c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": kase})
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransitionStatus handles POST /v1/cases/:type/:id/status. A committed
// status change with a failed email is a 200 with a warning, not an error.
func (h *CaseHandler) TransitionStatus(c *gin.Context) {
	caseType, ok := h.caseType(c)
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	result, err := h.engine.TransitionStatus(c.Request.Context(), caseType, c.Param("id"), req.Status)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.invalidate(c, caseType)

	resp := gin.H{"data": result.Case}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	c.JSON(http.StatusOK, resp)
}

// AttachDocument handles POST /v1/cases/:type/:id/attachments/:slot with a
// multipart "file" field.
func (h *CaseHandler) AttachDocument(c *gin.Context) {
	caseType, ok := h.caseType(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	meta := workflow.FileMeta{
		FileName:  fileHeader.Filename,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		SizeBytes: fileHeader.Size,
	}

	kase, err := h.engine.AttachDocument(c.Request.Context(), caseType, c.Param("id"), c.Param("slot"), data, meta)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.invalidate(c, caseType)
	c.JSON(http.StatusOK, gin.H{"data": kase})
}

// RemoveDocument handles DELETE /v1/cases/:type/:id/attachments/:slot.
func (h *CaseHandler) RemoveDocument(c *gin.Context) {
	caseType, ok := h.caseType(c)
	if !ok {
		return
	}

	kase, err := h.engine.RemoveDocument(c.Request.Context(), caseType, c.Param("id"), c.Param("slot"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.invalidate(c, caseType)
	c.JSON(http.StatusOK, gin.H{"data": kase})
}

type verifyRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// SetVerified handles POST /v1/cases/:type/:id/verify.
func (h *CaseHandler) SetVerified(c *gin.Context) {
	caseType, ok := h.caseType(c)
	if !ok {
		return
	}

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "verified is required"})
		return
	}

	kase, err := h.engine.SetVerified(c.Request.Context(), caseType, c.Param("id"), *req.Verified)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.invalidate(c, caseType)
	c.JSON(http.StatusOK, gin.H{"data": kase})
}

// DeleteCase handles DELETE /v1/cases/:type/:id.
func (h *CaseHandler) DeleteCase(c *gin.Context) {
	caseType, ok := h.caseType(c)
	if !ok {
		return
	}

	if err := h.engine.DeleteCase(c.Request.Context(), caseType, c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	h.invalidate(c, caseType)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *CaseHandler) invalidate(c *gin.Context, caseType models.CaseType) {
	if h.lists != nil {
		h.lists.Invalidate(c.Request.Context(), caseType)
	}
}

// renderError maps workflow errors to HTTP responses. Every failure carries a
// human-readable reason; the admin console shows it inline.
func (h *CaseHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrCaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
	case errors.Is(err, workflow.ErrInvalidState),
		errors.Is(err, workflow.ErrUnknownSlot),
		errors.Is(err, workflow.ErrUnknownCaseType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrNotVerifiable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrDeleteNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrUploadFailed),
		errors.Is(err, workflow.ErrDetachFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "case store unavailable, please retry"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
