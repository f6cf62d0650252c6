// Package domain defines the persistence and exchange models for the vault:
// confirmed inventory records, raw AI detections, and the pending batches
// that sit between the two. InventoryRecord is mapped with GORM and forms
// the core data layer of the application; everything else is transient.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Category is the closed set of item categories. Free-text category strings
// coming back from the AI model must be normalized into this set before a
// record may reach storage (see services.NormalizeCategory).
type Category string

// The closed category enumeration.
const (
	CategoryFood        Category = "Food"
	CategoryClothes     Category = "Clothes"
	CategoryGym         Category = "Gym"
	CategoryTools       Category = "Tools"
	CategoryElectronics Category = "Electronics"
	CategoryOther       Category = "Other"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryFood, CategoryClothes, CategoryGym,
		CategoryTools, CategoryElectronics, CategoryOther,
	}
}

// Valid reports whether c is a member of the closed enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryClothes, CategoryGym,
		CategoryTools, CategoryElectronics, CategoryOther:
		return true
	}
	return false
}

// InventoryRecord is a confirmed, persisted belonging.
//
// Fields:
//   - ID: stable UUID primary key, assigned once at confirmation, never reused.
//   - Position: explicit catalog ordering (0 = newest); merges prepend the
//     confirmed batch so the catalog stays newest-first regardless of
//     DateAdded string comparison.
//   - Category: always one of the closed enumeration.
//   - DateAdded: set once at confirmation ("2006-01-02"); immutable.
//   - DatePurchased / ExpiryDate: optional free-text dates, not validated.
//   - ImageURL: embedded data URL (whole photo or per-item crop); may be empty.
//   - IsDuplicate: computed by the duplicate resolver at save time, never
//     supplied by callers.
type InventoryRecord struct {
	ID              string         `json:"id"              gorm:"type:char(36);primaryKey"`
	Position        int            `json:"-"               gorm:"not null;index"`
	Name            string         `json:"name"            gorm:"type:varchar(255);not null"`
	Brand           string         `json:"brand,omitempty" gorm:"type:varchar(255)"`
	Color           string         `json:"color,omitempty" gorm:"type:varchar(64)"`
	Size            string         `json:"size,omitempty"  gorm:"type:varchar(64)"`
	Description     string         `json:"description"     gorm:"type:text"`
	Category        Category       `json:"category"        gorm:"type:varchar(32);not null"`
	StorageLocation string         `json:"storageLocation" gorm:"type:varchar(255);not null"`
	DateAdded       string         `json:"dateAdded"       gorm:"type:varchar(32);not null"`
	DatePurchased   string         `json:"datePurchased,omitempty" gorm:"type:varchar(64)"`
	ExpiryDate      string         `json:"expiryDate,omitempty"    gorm:"type:varchar(64)"`
	Price           float64        `json:"price"           gorm:"not null;default:0"`
	ImageURL        string         `json:"imageUrl"        gorm:"type:text"`
	IsDuplicate     bool           `json:"isDuplicate"     gorm:"not null;default:false"`
	CreatedAt       time.Time      `json:"-"`
	UpdatedAt       time.Time      `json:"-"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for InventoryRecord.
func (InventoryRecord) TableName() string { return "inventory_records" }

// RawDetection is one loosely-typed candidate item as returned by the AI
// model. Every field may be absent; nothing here is trusted until the
// normalizer has mapped it into a PendingRecord. Price appears under either
// "price" or "estimatedPrice" depending on the model's mood.
type RawDetection struct {
	Name            string    `json:"name,omitempty"`
	Brand           string    `json:"brand,omitempty"`
	Color           string    `json:"color,omitempty"`
	Size            string    `json:"size,omitempty"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category,omitempty"`
	StorageLocation string    `json:"storageLocation,omitempty"`
	DatePurchased   string    `json:"datePurchased,omitempty"`
	Price           *float64  `json:"price,omitempty"`
	EstimatedPrice  *float64  `json:"estimatedPrice,omitempty"`
	Box2D           []float64 `json:"box_2d,omitempty"`
}

// BoundingBox locates one detected item within the source photo, expressed
// as [top, left, bottom, right] on a 1000-unit normalized scale.
type BoundingBox struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// Bounds converts the raw box_2d values into a BoundingBox. It reports false
// when the field is absent, short, or degenerate (non-positive area), in
// which case the caller should fall back to the whole-scene photo.
func (d RawDetection) Bounds() (BoundingBox, bool) {
	if len(d.Box2D) < 4 {
		return BoundingBox{}, false
	}
	b := BoundingBox{Top: d.Box2D[0], Left: d.Box2D[1], Bottom: d.Box2D[2], Right: d.Box2D[3]}
	if b.Bottom <= b.Top || b.Right <= b.Left {
		return BoundingBox{}, false
	}
	return b, true
}

// PendingRecord is a user-editable candidate produced by the normalizer.
// It has no identity yet; an ID and the IsDuplicate flag are assigned only
// when the batch is confirmed and saved.
type PendingRecord struct {
	Name            string   `json:"name"`
	Brand           string   `json:"brand,omitempty"`
	Color           string   `json:"color,omitempty"`
	Size            string   `json:"size,omitempty"`
	Description     string   `json:"description"`
	Category        Category `json:"category"`
	StorageLocation string   `json:"storageLocation"`
	DateAdded       string   `json:"dateAdded"`
	DatePurchased   string   `json:"datePurchased,omitempty"`
	ExpiryDate      string   `json:"expiryDate,omitempty"`
	Price           float64  `json:"price"`
	ImageURL        string   `json:"imageUrl"`
	IsDuplicate     bool     `json:"isDuplicate"`
}

// PendingBatch is the transient, in-review set of detections from a single
// capture. It lives in memory only, between detection and save/discard, and
// is never persisted.
type PendingBatch struct {
	ID        string          `json:"id"`
	PhotoURL  string          `json:"photoUrl"`
	Items     []PendingRecord `json:"items"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ChatMessage is one turn of the assistant transcript. The transcript is a
// read-only convenience for the UI and has no bearing on persisted state.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
