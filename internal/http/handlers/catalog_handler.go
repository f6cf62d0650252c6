// Catalog HTTP handlers.
//
// This file exposes the saved inventory as REST endpoints:
//   - GET    /items              (list, filter, sort, paginated)
//   - GET    /items/{id}         (single record)
//   - GET    /items/{id}/image   (stored thumbnail as image/jpeg)
//   - DELETE /items/{id}         (remove one)
//   - POST   /items/bulk-delete  (remove many)
package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ownly/go-vault-backend/internal/domain"
	"github.com/ownly/go-vault-backend/internal/services"
	"github.com/ownly/go-vault-backend/internal/utils"
)

// CatalogService defines the read and delete operations on the saved
// inventory consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use; deletes must honor the
// provided context since they touch persistent storage.
type CatalogService interface {
	// List returns records matching the given filter, already sorted.
	List(opts services.ListOptions) []domain.InventoryRecord
	// Get returns one record by id.
	Get(id string) (domain.InventoryRecord, error)
	// Delete removes one record and persists the remaining catalog.
	Delete(ctx context.Context, id string) error
	// BulkDelete removes every matching record, returning how many went.
	BulkDelete(ctx context.Context, ids []string) (int, error)
}

//
// DTOs
//

// BulkDeleteRequest is the JSON payload for removing several records at once.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// BulkDeleteResponse reports how many records a bulk delete removed.
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// ListItemsResponse wraps a page of inventory records and pagination
// information. Filtering and sorting happen before pagination.
type ListItemsResponse struct {
	Items      []domain.InventoryRecord `json:"items"`
	Pagination Pagination               `json:"pagination"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 50
		maxPageSize     = 200
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// ListItems godoc
// @ID          listItems
// @Summary     List inventory records
// @Description Returns saved records, optionally filtered by free-text query and category, sorted and paginated.
// @Tags        Items
// @Produce     json
//
// @Param       q         query  string  false  "Case-insensitive match on name and description"
// @Param       category  query  string  false  "Exact category filter"  Enums(Food, Clothes, Gym, Tools, Electronics, Other)
// @Param       sort      query  string  false  "Sort order"  Enums(newest, name, price)  default(newest)
// @Param       page      query  int     false  "Page (1-based)"
// @Param       page_size query  int     false  "Page size (max 200)"
//
// @Success     200  {object}  handlers.ListItemsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown category or sort"
// @Router      /items [get]
func (h *Handlers) ListItems(c *gin.Context) {
	opts := services.ListOptions{
		Query: strings.TrimSpace(c.Query("q")),
		Sort:  c.DefaultQuery("sort", services.SortNewest),
	}
	switch opts.Sort {
	case services.SortNewest, services.SortName, services.SortPrice:
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown sort order")
		return
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		cat := domain.Category(raw)
		if !cat.Valid() {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown category")
			return
		}
		opts.Category = cat
	}

	all := h.catalogSvc.List(opts)
	page, pageSize := clampPagination(c)

	total := len(all)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	ok(c, http.StatusOK, ListItemsResponse{
		Items: all[start:end],
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetItem godoc
// @ID          getItem
// @Summary     Get one inventory record
// @Tags        Items
// @Produce     json
// @Param       id  path  string  true  "Record ID"
// @Success     200  {object}  domain.InventoryRecord
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /items/{id} [get]
func (h *Handlers) GetItem(c *gin.Context) {
	rec, err := h.catalogSvc.Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found")
		return
	}
	ok(c, http.StatusOK, rec)
}

// GetItemImage godoc
// @ID          getItemImage
// @Summary     Get the stored thumbnail for a record
// @Description Serves the record's processed photo as raw JPEG bytes.
// @Tags        Items
// @Produce     jpeg
// @Param       id  path  string  true  "Record ID"
// @Success     200  {string}  binary  "JPEG image"
// @Failure     404  {object}  handlers.ErrorResponse  "Record missing or has no image"
// @Router      /items/{id}/image [get]
func (h *Handlers) GetItemImage(c *gin.Context) {
	rec, err := h.catalogSvc.Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found")
		return
	}
	data, err := decodeDataURL(rec.ImageURL)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "record has no stored image")
		return
	}
	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, "image/jpeg", data)
}

// DeleteItem godoc
// @ID          deleteItem
// @Summary     Delete one inventory record
// @Tags        Items
// @Produce     json
// @Param       id  path  string  true  "Record ID"
// @Success     204  {string}  string "Deleted"
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Persist failed; catalog unchanged"
// @Router      /items/{id} [delete]
func (h *Handlers) DeleteItem(c *gin.Context) {
	if err := h.catalogSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}

// BulkDeleteItems godoc
// @ID          bulkDeleteItems
// @Summary     Delete several inventory records
// @Description Unknown ids are ignored; the response reports how many records were removed.
// @Tags        Items
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.BulkDeleteRequest  true  "Record IDs to delete"
// @Success     200  {object}  handlers.BulkDeleteResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Persist failed; catalog unchanged"
// @Router      /items/bulk-delete [post]
func (h *Handlers) BulkDeleteItems(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	n, err := h.catalogSvc.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, BulkDeleteResponse{Deleted: n})
}

// decodeDataURL extracts the raw bytes from a base64 data URL. Only the
// payload matters; the media type prefix is not re-validated because stored
// images are always re-encoded JPEGs.
func decodeDataURL(u string) ([]byte, error) {
	_, b64, found := strings.Cut(u, ";base64,")
	if !found || b64 == "" {
		return nil, errors.New("not a base64 data url")
	}
	return base64.StdEncoding.DecodeString(b64)
}
