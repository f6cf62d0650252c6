// Package services – detection normalizer
//
// This file maps the loosely-typed detections coming back from the AI model
// into fully-populated pending records. Every field gets a value: missing
// names and locations fall back to placeholders, prices default to zero,
// and free-text categories are coerced into the closed enumeration. Untyped
// data never crosses into the typed catalog.
package services

import (
	"strings"
	"time"

	"github.com/ownly/go-vault-backend/internal/domain"
	"github.com/ownly/go-vault-backend/internal/imaging"
)

// Placeholder defaults applied when the model omits a field.
const (
	DefaultItemName        = "Unnamed Object"
	DefaultStorageLocation = "Main Storage"
)

// dateLayout is the display form stored in dateAdded.
const dateLayout = "2006-01-02"

// categoryRule maps a free-text substring to a canonical category. Rules are
// evaluated in order; the first hit wins.
type categoryRule struct {
	substrings []string
	category   domain.Category
}

var categoryRules = []categoryRule{
	{[]string{"food"}, domain.CategoryFood},
	{[]string{"cloth"}, domain.CategoryClothes},
	{[]string{"gym", "fit", "sport"}, domain.CategoryGym},
	{[]string{"tool"}, domain.CategoryTools},
	{[]string{"elect"}, domain.CategoryElectronics},
}

// NormalizeCategory coerces an arbitrary category string into the closed
// enumeration. The mapping is total and deterministic: matching is
// case-insensitive substring search in fixed precedence order, and anything
// unrecognized lands in Other.
func NormalizeCategory(raw string) domain.Category {
	s := strings.ToLower(raw)
	for _, rule := range categoryRules {
		for _, sub := range rule.substrings {
			if strings.Contains(s, sub) {
				return rule.category
			}
		}
	}
	return domain.CategoryOther
}

// NormalizeDetections builds one pending record per raw detection, filling
// defaults and attaching an image: the item's own crop when the model
// supplied a usable bounding box, otherwise the whole prepared photo. The
// dateAdded field is always stamped with now, ignoring any model-supplied
// value.
//
// A nil processor or photo disables cropping; records then carry the photo's
// data URL (possibly empty).
func NormalizeDetections(raw []domain.RawDetection, photo *imaging.Prepared, proc *imaging.Processor, now time.Time) []domain.PendingRecord {
	photoURL := photo.DataURL()
	out := make([]domain.PendingRecord, 0, len(raw))

	for _, d := range raw {
		rec := domain.PendingRecord{
			Name:            strings.TrimSpace(d.Name),
			Brand:           strings.TrimSpace(d.Brand),
			Color:           strings.TrimSpace(d.Color),
			Size:            strings.TrimSpace(d.Size),
			Description:     strings.TrimSpace(d.Description),
			Category:        NormalizeCategory(d.Category),
			StorageLocation: strings.TrimSpace(d.StorageLocation),
			DateAdded:       now.Format(dateLayout),
			DatePurchased:   strings.TrimSpace(d.DatePurchased),
			Price:           detectionPrice(d),
			ImageURL:        photoURL,
		}
		if rec.Name == "" {
			rec.Name = DefaultItemName
		}
		if rec.StorageLocation == "" {
			rec.StorageLocation = DefaultStorageLocation
		}

		if proc != nil && photo != nil {
			if box, ok := d.Bounds(); ok {
				rec.ImageURL = proc.Crop(photo, box).DataURL()
			}
		}

		out = append(out, rec)
	}
	return out
}

// detectionPrice picks the model's price estimate, tolerating both field
// spellings, and clamps it to non-negative.
func detectionPrice(d domain.RawDetection) float64 {
	var p float64
	switch {
	case d.Price != nil:
		p = *d.Price
	case d.EstimatedPrice != nil:
		p = *d.EstimatedPrice
	}
	if p < 0 {
		return 0
	}
	return p
}
