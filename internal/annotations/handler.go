package annotations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"annotate-backend/internal/documents"
	"annotate-backend/internal/shared/server/middleware"
	"annotate-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches annotation routes to the router group. Listing is
// nested under the owning document, mutations are top-level.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/annotations", h.create)
	rg.PATCH("/annotations/:id", h.update)
	rg.DELETE("/annotations/:id", h.delete)
	rg.GET("/documents/:id/annotations", h.listByDocument)
}

type createRequest struct {
	DocumentID string        `json:"documentId"`
	Selector   Selector      `json:"selector"`
	Quote      QuoteSelector `json:"quoteSelector"`
	Body       string        `json:"body"`
	Orphaned   bool          `json:"orphaned"`
}

type updateRequest struct {
	Selector *Selector      `json:"selector"`
	Quote    *QuoteSelector `json:"quoteSelector"`
	Body     *string        `json:"body"`
	Orphaned *bool          `json:"orphaned"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	a, err := h.Svc.Create(c.Request.Context(), userID, CreateInput{
		DocumentID: req.DocumentID,
		Selector:   req.Selector,
		Quote:      req.Quote,
		Body:       req.Body,
		Orphaned:   req.Orphaned,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Set("documentId", a.DocumentID)
	respond.JSON(c, http.StatusCreated, gin.H{"annotation": toResponse(a)})
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	role := middleware.UserRoleFromContext(c)
	a, err := h.Svc.Update(c.Request.Context(), userID, role, c.Param("id"), UpdateInput{
		Selector: req.Selector,
		Quote:    req.Quote,
		Body:     req.Body,
		Orphaned: req.Orphaned,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Set("documentId", a.DocumentID)
	respond.OK(c, gin.H{"annotation": toResponse(a)})
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	role := middleware.UserRoleFromContext(c)
	if err := h.Svc.Delete(c.Request.Context(), userID, role, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listByDocument(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	page, err := h.Svc.ListByDocument(c.Request.Context(), c.Param("id"), c.Query("cursor"), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond.OK(c, toListResponse(page))
}

func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidCursor):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, respond.CodeForbidden, "forbidden", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "annotation not found", nil)
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found", nil)
	case errors.Is(err, ErrDuplicateRange):
		respond.Error(c, http.StatusConflict, respond.CodeConflict, "duplicate annotation for this range", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "annotation operation failed", nil)
	}
}
