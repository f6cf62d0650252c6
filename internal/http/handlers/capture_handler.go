// Capture HTTP handlers.
//
// This file exposes the add-flow as REST endpoints:
//   - POST   /captures                      (photo in, pending batch out)
//   - GET    /captures/{id}                 (current review state)
//   - PATCH  /captures/{id}/items/{idx}     (review edit)
//   - DELETE /captures/{id}/items/{idx}     (drop one candidate)
//   - POST   /captures/{id}/save            (confirm and persist)
//   - DELETE /captures/{id}                 (discard)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate sentinel errors into the HTTP taxonomy. The three
// detection failure classes map to distinct, user-actionable responses.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ownly/go-vault-backend/internal/domain"
	"github.com/ownly/go-vault-backend/internal/services"
)

// CaptureService defines the add-flow operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and must honor the
// provided context for cancellation: an abandoned request aborts the
// in-flight model call, and nothing partial is ever persisted.
type CaptureService interface {
	// Start preprocesses the photo, runs detection, and opens a pending batch.
	Start(ctx context.Context, photo io.Reader) (*domain.PendingBatch, error)
	// Get returns the current state of a pending batch.
	Get(batchID string) (*domain.PendingBatch, error)
	// UpdateItem applies a review edit to one candidate record.
	UpdateItem(batchID string, idx int, patch services.ItemPatch) (*domain.PendingBatch, error)
	// RemoveItem drops one candidate; removing the last collapses the batch.
	RemoveItem(batchID string, idx int) (*domain.PendingBatch, error)
	// Discard drops the whole batch without persisting.
	Discard(batchID string) error
	// Save confirms the batch and returns the merged catalog.
	Save(ctx context.Context, batchID string) ([]domain.InventoryRecord, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for captures, the catalog, and the
// assistant. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	captureSvc   CaptureService
	catalogSvc   CatalogService
	assistantSvc AssistantService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(captureSvc CaptureService, catalogSvc CatalogService, assistantSvc AssistantService) *Handlers {
	return &Handlers{captureSvc: captureSvc, catalogSvc: catalogSvc, assistantSvc: assistantSvc}
}

// SaveResponse wraps the merged catalog returned after a successful save.
type SaveResponse struct {
	Items []domain.InventoryRecord `json:"items"`
	Saved int                      `json:"saved"`
}

// StartCapture godoc
// @ID          startCapture
// @Summary     Analyze a storage photo
// @Description Uploads a photo, runs item detection, and opens a pending batch for review.
// @Tags        Captures
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       photo  formData  file  true  "Storage area photo (JPEG or PNG)"
//
// @Success     201  {object}  domain.PendingBatch
// @Failure     400  {object}  handlers.ErrorResponse  "Undecodable photo"
// @Failure     409  {object}  handlers.ErrorResponse  "A capture is already in flight"
// @Failure     422  {object}  handlers.ErrorResponse  "No items found — retake the photo"
// @Failure     502  {object}  handlers.ErrorResponse  "Detector unreachable or reply not understood"
// @Router      /captures [post]
func (h *Handlers) StartCapture(c *gin.Context) {
	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing photo upload")
		return
	}
	defer file.Close()

	batch, err := h.captureSvc.Start(c.Request.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCaptureInFlight):
			fail(c, http.StatusConflict, ErrCodeConflict, "a capture is already being analyzed")
		case errors.Is(err, services.ErrBadImage):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "photo could not be decoded")
		case errors.Is(err, services.ErrNoDetections):
			fail(c, http.StatusUnprocessableEntity, ErrCodeNoItemsFound,
				"no items found — try retaking the photo with different framing")
		case services.IsRetryable(err):
			fail(c, http.StatusBadGateway, ErrCodeDetectorFailed, "analysis failed, please try again")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, batch)
}

// GetCapture godoc
// @ID          getCapture
// @Summary     Get a pending batch
// @Tags        Captures
// @Produce     json
// @Param       id  path  string  true  "Batch ID"
// @Success     200  {object}  domain.PendingBatch
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /captures/{id} [get]
func (h *Handlers) GetCapture(c *gin.Context) {
	batch, err := h.captureSvc.Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "pending batch not found")
		return
	}
	ok(c, http.StatusOK, batch)
}

// UpdateCaptureItem godoc
// @ID          updateCaptureItem
// @Summary     Edit one candidate record during review
// @Tags        Captures
// @Accept      json
// @Produce     json
// @Param       id   path  string              true  "Batch ID"
// @Param       idx  path  int                 true  "Item index"
// @Param       body body  services.ItemPatch  true  "Fields to change"
// @Success     200  {object}  domain.PendingBatch
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /captures/{id}/items/{idx} [patch]
func (h *Handlers) UpdateCaptureItem(c *gin.Context) {
	idx, ok2 := itemIndex(c)
	if !ok2 {
		return
	}
	var patch services.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	batch, err := h.captureSvc.UpdateItem(c.Param("id"), idx, patch)
	if err != nil {
		failBatch(c, err)
		return
	}
	ok(c, http.StatusOK, batch)
}

// RemoveCaptureItem godoc
// @ID          removeCaptureItem
// @Summary     Remove one candidate record from a batch
// @Description Removing the last record discards the whole batch (204).
// @Tags        Captures
// @Produce     json
// @Param       id   path  string  true  "Batch ID"
// @Param       idx  path  int     true  "Item index"
// @Success     200  {object}  domain.PendingBatch
// @Success     204  {string}  string "Batch collapsed"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /captures/{id}/items/{idx} [delete]
func (h *Handlers) RemoveCaptureItem(c *gin.Context) {
	idx, ok2 := itemIndex(c)
	if !ok2 {
		return
	}

	batch, err := h.captureSvc.RemoveItem(c.Param("id"), idx)
	if err != nil {
		failBatch(c, err)
		return
	}
	if batch == nil {
		noContent(c)
		return
	}
	ok(c, http.StatusOK, batch)
}

// SaveCapture godoc
// @ID          saveCapture
// @Summary     Confirm a pending batch
// @Description Flags duplicates against the existing catalog, prepends the batch, and persists atomically.
// @Tags        Captures
// @Produce     json
// @Param       id  path  string  true  "Batch ID"
// @Success     200  {object}  handlers.SaveResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Persist failed; batch remains reviewable"
// @Router      /captures/{id}/save [post]
func (h *Handlers) SaveCapture(c *gin.Context) {
	merged, err := h.captureSvc.Save(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "pending batch not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SaveResponse{Items: merged, Saved: len(merged)})
}

// DiscardCapture godoc
// @ID          discardCapture
// @Summary     Discard a pending batch
// @Tags        Captures
// @Produce     json
// @Param       id  path  string  true  "Batch ID"
// @Success     204  {string}  string "Discarded"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /captures/{id} [delete]
func (h *Handlers) DiscardCapture(c *gin.Context) {
	if err := h.captureSvc.Discard(c.Param("id")); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "pending batch not found")
		return
	}
	noContent(c)
}

// itemIndex parses the {idx} path parameter, failing the request on garbage.
func itemIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid item index")
		return 0, false
	}
	return idx, true
}

// failBatch maps batch-level service errors onto HTTP responses.
func failBatch(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBatchNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "pending batch not found")
	case errors.Is(err, services.ErrItemOutOfRange):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item index out of range")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
