// Package repo implements the data persistence layer for the catalog.
//
// The catalog is a dumb replace-all backend: the in-memory collection owned
// by services.CatalogService is the state machine, and persistence is a full
// snapshot swap. There is deliberately no upsert path — deletion and merging
// are caller responsibilities expressed as a new snapshot.
//
// Error semantics:
//   - LoadCatalog propagates raw DB errors; the service layer decides whether
//     an unreadable catalog degrades to empty.
//   - ReplaceCatalog runs inside a single transaction so a crash mid-write
//     leaves the previous snapshot intact, never a mix of old and new rows.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/ownly/go-vault-backend/internal/domain"
)

// LoadCatalog returns the full catalog ordered by position (newest first).
// An empty database yields an empty slice, not an error.
func LoadCatalog(ctx context.Context, db *gorm.DB) ([]domain.InventoryRecord, error) {
	var out []domain.InventoryRecord
	err := db.WithContext(ctx).
		Order("position asc").
		Find(&out).Error
	return out, err
}

// ReplaceCatalog atomically replaces the persisted catalog with exactly the
// given collection. Positions are reassigned from slice order, so the stored
// ordering always mirrors the in-memory ordering. Calling it twice with the
// same slice is idempotent.
func ReplaceCatalog(ctx context.Context, db *gorm.DB, items []domain.InventoryRecord) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Hard delete: the snapshot is the source of truth, soft-deleted
		// leftovers would only bloat the file.
		if err := tx.Unscoped().Where("1 = 1").Delete(&domain.InventoryRecord{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].Position = i
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountRecords returns the number of persisted records. Used by health
// reporting and tests.
func CountRecords(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.InventoryRecord{}).Count(&total).Error
	return total, err
}
