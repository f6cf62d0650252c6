// Package services – CaptureService
//
// CaptureService drives the add flow: photo in, reviewed records out.
//
//	Idle → Preprocessing → Detecting → Reviewing(batch) → {Saving | Discarding} → Idle
//
// Only one capture may be analyzing at a time; a second Start while one is
// in flight is rejected with ErrCaptureInFlight. Review edits mutate the
// in-memory batch only — nothing reaches the catalog until Save, and a
// failed persist leaves the batch intact and reviewable.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ownly/go-vault-backend/internal/ai"
	"github.com/ownly/go-vault-backend/internal/domain"
	"github.com/ownly/go-vault-backend/internal/imaging"
)

// CaptureService coordinates preprocessing, detection, review, and save.
type CaptureService struct {
	AI      ai.Client
	Proc    *imaging.Processor
	Catalog *CatalogService

	// Now is a seam for tests; defaults to time.Now.
	Now func() time.Time

	mu        sync.Mutex
	analyzing bool
	batches   map[string]*domain.PendingBatch
}

// NewCaptureService constructs a CaptureService.
func NewCaptureService(client ai.Client, proc *imaging.Processor, catalog *CatalogService) *CaptureService {
	return &CaptureService{
		AI:      client,
		Proc:    proc,
		Catalog: catalog,
		Now:     time.Now,
		batches: make(map[string]*domain.PendingBatch),
	}
}

// Start preprocesses the photo, runs detection, and opens a pending batch
// for review.
//
// Errors:
//   - ErrCaptureInFlight: another capture is still analyzing.
//   - ErrBadImage: the upload is not a decodable JPEG/PNG.
//   - ErrDetectorUnavailable / ErrBadDetectorReply: the model call failed;
//     no state was created, the caller may retry.
//   - ErrNoDetections: the model found nothing; the caller should ask the
//     user to retake the photo. Reviewing is never entered.
func (s *CaptureService) Start(ctx context.Context, photo io.Reader) (*domain.PendingBatch, error) {
	tr := otel.Tracer("services/CaptureService")
	ctx, span := tr.Start(ctx, "Start")
	defer span.End()

	s.mu.Lock()
	if s.analyzing {
		s.mu.Unlock()
		return nil, ErrCaptureInFlight
	}
	s.analyzing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.analyzing = false
		s.mu.Unlock()
	}()

	prepared, err := s.Proc.Prepare(photo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	raw, err := s.AI.DetectItems(ctx, prepared.Data)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrBadReply):
			return nil, fmt.Errorf("%w: %v", ErrBadDetectorReply, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
		}
	}
	span.SetAttributes(attribute.Int("detections", len(raw)))
	if len(raw) == 0 {
		return nil, ErrNoDetections
	}

	batch := &domain.PendingBatch{
		ID:        uuid.NewString(),
		PhotoURL:  prepared.DataURL(),
		Items:     NormalizeDetections(raw, prepared, s.Proc, s.Now()),
		CreatedAt: s.Now().UTC(),
	}

	s.mu.Lock()
	s.batches[batch.ID] = batch
	s.mu.Unlock()

	return copyBatch(batch), nil
}

// Get returns the pending batch with the given id.
func (s *CaptureService) Get(batchID string) (*domain.PendingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}
	return copyBatch(b), nil
}

// ItemPatch carries the review edits for one pending record. Nil fields are
// left unchanged; supplied categories are re-normalized so nothing outside
// the closed set can be smuggled in through an edit.
type ItemPatch struct {
	Name            *string  `json:"name,omitempty"`
	Brand           *string  `json:"brand,omitempty"`
	Color           *string  `json:"color,omitempty"`
	Size            *string  `json:"size,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Category        *string  `json:"category,omitempty"`
	StorageLocation *string  `json:"storageLocation,omitempty"`
	DatePurchased   *string  `json:"datePurchased,omitempty"`
	ExpiryDate      *string  `json:"expiryDate,omitempty"`
	Price           *float64 `json:"price,omitempty"`
}

// UpdateItem applies a review edit to one record of a pending batch and
// returns the updated batch.
func (s *CaptureService) UpdateItem(batchID string, idx int, patch ItemPatch) (*domain.PendingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}
	if idx < 0 || idx >= len(b.Items) {
		return nil, ErrItemOutOfRange
	}

	rec := &b.Items[idx]
	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.Brand != nil {
		rec.Brand = *patch.Brand
	}
	if patch.Color != nil {
		rec.Color = *patch.Color
	}
	if patch.Size != nil {
		rec.Size = *patch.Size
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.Category != nil {
		rec.Category = NormalizeCategory(*patch.Category)
	}
	if patch.StorageLocation != nil {
		rec.StorageLocation = *patch.StorageLocation
	}
	if patch.DatePurchased != nil {
		rec.DatePurchased = *patch.DatePurchased
	}
	if patch.ExpiryDate != nil {
		rec.ExpiryDate = *patch.ExpiryDate
	}
	if patch.Price != nil {
		rec.Price = *patch.Price
		if rec.Price < 0 {
			rec.Price = 0
		}
	}

	return copyBatch(b), nil
}

// RemoveItem drops one record from a pending batch. Removing the last
// record collapses the whole batch back to Idle; the returned batch is nil
// in that case.
func (s *CaptureService) RemoveItem(batchID string, idx int) (*domain.PendingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}
	if idx < 0 || idx >= len(b.Items) {
		return nil, ErrItemOutOfRange
	}

	b.Items = append(b.Items[:idx], b.Items[idx+1:]...)
	if len(b.Items) == 0 {
		delete(s.batches, batchID)
		return nil, nil
	}
	return copyBatch(b), nil
}

// Discard drops a pending batch without persisting anything.
func (s *CaptureService) Discard(batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batchID]; !ok {
		return ErrBatchNotFound
	}
	delete(s.batches, batchID)
	return nil
}

// Save confirms a pending batch: every record gets a fresh id, the duplicate
// resolver annotates it against the pre-merge catalog, and the batch is
// prepended and persisted in one operation. The batch is destroyed only
// after the persist succeeds; on failure it stays open for review or retry.
func (s *CaptureService) Save(ctx context.Context, batchID string) ([]domain.InventoryRecord, error) {
	tr := otel.Tracer("services/CaptureService")
	ctx, span := tr.Start(ctx, "Save",
		trace.WithAttributes(attribute.String("batch.id", batchID)),
	)
	defer span.End()

	s.mu.Lock()
	b, ok := s.batches[batchID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrBatchNotFound
	}
	pending := make([]domain.PendingRecord, len(b.Items))
	copy(pending, b.Items)
	s.mu.Unlock()

	AnnotateDuplicates(pending, s.Catalog.Snapshot())

	confirmed := make([]domain.InventoryRecord, 0, len(pending))
	for _, p := range pending {
		confirmed = append(confirmed, domain.InventoryRecord{
			ID:              uuid.NewString(),
			Name:            p.Name,
			Brand:           p.Brand,
			Color:           p.Color,
			Size:            p.Size,
			Description:     p.Description,
			Category:        p.Category,
			StorageLocation: p.StorageLocation,
			DateAdded:       p.DateAdded,
			DatePurchased:   p.DatePurchased,
			ExpiryDate:      p.ExpiryDate,
			Price:           p.Price,
			ImageURL:        p.ImageURL,
			IsDuplicate:     p.IsDuplicate,
		})
	}

	merged, err := s.Catalog.Merge(ctx, confirmed)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.batches, batchID)
	s.mu.Unlock()

	return merged, nil
}

// copyBatch returns a deep-enough copy so callers can't mutate the live
// batch behind the service's back.
func copyBatch(b *domain.PendingBatch) *domain.PendingBatch {
	out := *b
	out.Items = make([]domain.PendingRecord, len(b.Items))
	copy(out.Items, b.Items)
	return &out
}
