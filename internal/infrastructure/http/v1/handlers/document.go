package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/id"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/delivery"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/infrastructure/http/v1/dto"
)

// DocumentHandler handles HTTP requests for invoices and quotes.
type DocumentHandler struct {
	*BaseHandler
	documents *document.Service
	delivery  *delivery.Service
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(base *BaseHandler, documents *document.Service, deliverySvc *delivery.Service) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: base,
		documents:   documents,
		delivery:    deliverySvc,
	}
}

// Create handles document creation.
// POST /documents
func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.documents.Create(c.Request.Context(), h.GetOwnerID(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromRecord(rec))
}

// Get returns one document.
// GET /documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	docID, ok := h.parseID(c)
	if !ok {
		return
	}

	rec, err := h.documents.Get(c.Request.Context(), h.GetOwnerID(c), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRecord(rec))
}

// List returns a page of the owner's documents.
// GET /documents
func (h *DocumentHandler) List(c *gin.Context) {
	filter := document.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Type = document.Type(c.Query("type"))
	filter.Status = document.Status(c.Query("status"))
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", filter.OrderBy)
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	result, err := h.documents.List(c.Request.Context(), h.GetOwnerID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.DocumentResponse, 0, len(result.Items))
	for _, rec := range result.Items {
		items = append(items, dto.FromRecord(rec))
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Update replaces the mutable fields of a draft.
// PUT /documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	docID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.documents.Update(c.Request.Context(), h.GetOwnerID(c), docID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRecord(rec))
}

// Delete soft-deletes a document.
// DELETE /documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	docID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.documents.Delete(c.Request.Context(), h.GetOwnerID(c), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// SetStatus performs a lifecycle transition.
// POST /documents/:id/status
func (h *DocumentHandler) SetStatus(c *gin.Context) {
	docID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.documents.SetStatus(c.Request.Context(), h.GetOwnerID(c), docID, document.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRecord(rec))
}

// PreviewTotals computes totals without persisting anything.
// POST /documents/totals/preview
func (h *DocumentHandler) PreviewTotals(c *gin.Context) {
	var req dto.PreviewTotalsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	totals, items, err := h.documents.PreviewTotals(req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	preview := dto.PreviewTotalsResponse{
		Items:  make([]dto.LineItemResponse, 0, len(items)),
		Totals: dto.FromTotals(totals),
	}
	for _, it := range items {
		preview.Items = append(preview.Items, dto.LineItemResponse{
			Name:          it.Name,
			Specification: it.Specification,
			UnitPrice:     it.UnitPrice.StringFixed(2),
			Quantity:      it.Quantity,
			LineTotal:     it.LineTotal.StringFixed(2),
		})
	}

	h.OK(c, preview)
}

// Send delivers the document by email.
// POST /documents/:id/send
func (h *DocumentHandler) Send(c *gin.Context) {
	docID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.SendDocumentRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	ownerID := h.GetOwnerID(c)

	res, err := h.delivery.Send(ctx, ownerID, docID, delivery.Options{
		RecipientOverride: req.Recipient,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.documents.Get(ctx, ownerID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, dto.FromDeliveryResult(res, rec.Status))
}

// Artifact returns the archived PDF of a delivered document.
// GET /documents/:id/artifact
func (h *DocumentHandler) Artifact(c *gin.Context) {
	docID, ok := h.parseID(c)
	if !ok {
		return
	}

	content, err := h.delivery.Artifact(c.Request.Context(), h.GetOwnerID(c), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Data(http.StatusOK, "application/pdf", content)
}

func (h *DocumentHandler) parseID(c *gin.Context) (id.ID, bool) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return id.Nil(), false
	}
	return docID, true
}
