// Package services – CatalogService
//
// CatalogService owns the catalog: the ordered, newest-first collection of
// confirmed inventory records. It is the single writer; the repo layer
// underneath is a dumb replace-all backend. Read consumers (catalog list,
// search, the chat assistant, the shopping advisor) work from immutable
// snapshots and can watch for changes through Subscribe, so nothing in the
// process holds a reference to the live collection.
//
// All mutations (merge, delete, bulk delete) re-persist the full collection
// under one mutex, which both keeps the in-memory and persisted state within
// a single operation of each other and guarantees persists land in issuing
// order.
package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/ownly/go-vault-backend/internal/domain"
	"github.com/ownly/go-vault-backend/internal/repo"
)

// Sort orders accepted by List.
const (
	SortNewest = "newest"
	SortName   = "name"
	SortPrice  = "price"
)

// ListOptions filters and orders a catalog listing.
type ListOptions struct {
	// Query matches name and description, case-insensitively.
	Query string
	// Category restricts results to one category when non-empty.
	Category domain.Category
	// Sort is one of SortNewest (default), SortName, SortPrice.
	Sort string
}

// CatalogService holds the in-memory catalog and coordinates persistence.
type CatalogService struct {
	DB *gorm.DB

	mu    sync.Mutex
	items []domain.InventoryRecord

	subMu sync.Mutex
	subs  []chan struct{}
}

// NewCatalogService constructs a CatalogService over the given database and
// loads the persisted catalog. Unreadable persisted state degrades to an
// empty catalog — startup never fails on bad data.
func NewCatalogService(ctx context.Context, db *gorm.DB) *CatalogService {
	s := &CatalogService{DB: db}
	items, err := repo.LoadCatalog(ctx, db)
	if err != nil {
		log.Warn().Err(err).Msg("catalog unreadable, starting empty")
		items = nil
	}
	s.items = items
	return s
}

// Snapshot returns a copy of the current catalog, newest first.
func (s *CatalogService) Snapshot() []domain.InventoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.InventoryRecord, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of records in the catalog.
func (s *CatalogService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns the record with the given id.
func (s *CatalogService) Get(id string) (domain.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.items {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.InventoryRecord{}, ErrRecordNotFound
}

// List returns the records matching opts. The default order is the catalog
// order itself (newest first by insertion).
func (s *CatalogService) List(opts ListOptions) []domain.InventoryRecord {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(opts.Query))

	out := make([]domain.InventoryRecord, 0)
	for _, rec := range s.Snapshot() {
		if opts.Category != "" && rec.Category != opts.Category {
			continue
		}
		if q != "" &&
			!strings.Contains(fold.String(rec.Name), q) &&
			!strings.Contains(fold.String(rec.Description), q) {
			continue
		}
		out = append(out, rec)
	}

	switch opts.Sort {
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return fold.String(out[i].Name) < fold.String(out[j].Name)
		})
	case SortPrice:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out
}

// Merge prepends the confirmed batch to the catalog (batch order preserved,
// existing order preserved) and persists the merged collection atomically.
// Nothing is visible to readers until the persist succeeds.
func (s *CatalogService) Merge(ctx context.Context, batch []domain.InventoryRecord) ([]domain.InventoryRecord, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Merge",
		trace.WithAttributes(attribute.Int("batch.size", len(batch))),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]domain.InventoryRecord, 0, len(batch)+len(s.items))
	merged = append(merged, batch...)
	merged = append(merged, s.items...)

	if err := repo.ReplaceCatalog(ctx, s.DB, merged); err != nil {
		return nil, err
	}

	s.items = merged
	s.notifyLocked()

	out := make([]domain.InventoryRecord, len(merged))
	copy(out, merged)
	return out, nil
}

// Delete removes exactly the record with the given id and re-persists.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("record.id", id)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]domain.InventoryRecord, 0, len(s.items))
	found := false
	for _, rec := range s.items {
		if rec.ID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return ErrRecordNotFound
	}

	if err := repo.ReplaceCatalog(ctx, s.DB, kept); err != nil {
		return err
	}
	s.items = kept
	s.notifyLocked()
	return nil
}

// BulkDelete removes every record whose id appears in ids and re-persists
// once. It returns the number of records removed; unknown ids are ignored.
func (s *CatalogService) BulkDelete(ctx context.Context, ids []string) (int, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "BulkDelete",
		trace.WithAttributes(attribute.Int("ids.count", len(ids))),
	)
	defer span.End()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]domain.InventoryRecord, 0, len(s.items))
	removed := 0
	for _, rec := range s.items {
		if _, ok := drop[rec.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	if removed == 0 {
		return 0, nil
	}

	if err := repo.ReplaceCatalog(ctx, s.DB, kept); err != nil {
		return 0, err
	}
	s.items = kept
	s.notifyLocked()
	return removed, nil
}

// Subscribe returns a channel that receives a signal after every successful
// mutation. The channel has a buffer of one; a slow consumer coalesces
// notifications instead of blocking writers.
func (s *CatalogService) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

// notifyLocked signals all subscribers. Callers hold s.mu.
func (s *CatalogService) notifyLocked() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
