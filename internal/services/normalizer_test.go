package services

import (
	"strings"
	"testing"
	"time"

	"github.com/ownly/go-vault-backend/internal/domain"
	"github.com/ownly/go-vault-backend/internal/imaging"
)

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		raw  string
		want domain.Category
	}{
		// direct matches, case-insensitive
		{"food", domain.CategoryFood},
		{"FOOD", domain.CategoryFood},
		{"Canned Food", domain.CategoryFood},
		{"clothing", domain.CategoryClothes},
		{"Clothes", domain.CategoryClothes},
		{"gym", domain.CategoryGym},
		{"fitness", domain.CategoryGym},
		{"sports equipment", domain.CategoryGym},
		{"power tools", domain.CategoryTools},
		{"electronics", domain.CategoryElectronics},
		{"Electronic Gadget", domain.CategoryElectronics},
		// precedence: earlier rules win when several substrings match
		{"food electronics", domain.CategoryFood},
		{"clothing tools", domain.CategoryClothes},
		// unknowns land in Other
		{"", domain.CategoryOther},
		{"miscellaneous", domain.CategoryOther},
		{"garden", domain.CategoryOther},
	}

	for _, tc := range cases {
		if got := NormalizeCategory(tc.raw); got != tc.want {
			t.Errorf("NormalizeCategory(%q) = %q; want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeCategoryDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		if got := NormalizeCategory("sportswear clothing"); got != domain.CategoryClothes {
			t.Fatalf("run %d: got %q; want %q", i, got, domain.CategoryClothes)
		}
	}
}

func TestNormalizeDetectionsDefaults(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	raw := []domain.RawDetection{
		{Category: "tool"}, // everything else missing
	}

	recs := NormalizeDetections(raw, &imaging.Prepared{}, nil, now)
	if len(recs) != 1 {
		t.Fatalf("got %d records; want 1", len(recs))
	}
	rec := recs[0]
	if rec.Name != DefaultItemName {
		t.Errorf("Name = %q; want %q", rec.Name, DefaultItemName)
	}
	if rec.StorageLocation != DefaultStorageLocation {
		t.Errorf("StorageLocation = %q; want %q", rec.StorageLocation, DefaultStorageLocation)
	}
	if rec.Category != domain.CategoryTools {
		t.Errorf("Category = %q; want %q", rec.Category, domain.CategoryTools)
	}
	if rec.Price != 0 {
		t.Errorf("Price = %v; want 0", rec.Price)
	}
	if rec.DateAdded != "2025-03-14" {
		t.Errorf("DateAdded = %q; want 2025-03-14", rec.DateAdded)
	}
}

func TestNormalizeDetectionsPrice(t *testing.T) {
	now := time.Now()
	price := 19.99
	est := 7.5
	neg := -3.0

	raw := []domain.RawDetection{
		{Name: "a", Price: &price, EstimatedPrice: &est}, // price wins
		{Name: "b", EstimatedPrice: &est},
		{Name: "c", Price: &neg}, // clamped
		{Name: "d"},
	}
	recs := NormalizeDetections(raw, &imaging.Prepared{}, nil, now)
	wants := []float64{19.99, 7.5, 0, 0}
	for i, w := range wants {
		if recs[i].Price != w {
			t.Errorf("recs[%d].Price = %v; want %v", i, recs[i].Price, w)
		}
	}
}

func TestNormalizeDetectionsCropFallback(t *testing.T) {
	proc := imaging.NewProcessor(64, 70)
	photo := testPhoto(t, proc, 40, 40)
	now := time.Now()

	raw := []domain.RawDetection{
		// no box at all: keep the whole photo
		{Name: "whole"},
		// degenerate box: Bounds() rejects it, keep the whole photo
		{Name: "degenerate", Box2D: []float64{500, 500, 500, 500}},
		// usable box: record gets its own crop
		{Name: "cropped", Box2D: []float64{0, 0, 500, 500}},
	}
	recs := NormalizeDetections(raw, photo, proc, now)

	whole := photo.DataURL()
	if recs[0].ImageURL != whole {
		t.Error("record without box should carry the whole photo")
	}
	if recs[1].ImageURL != whole {
		t.Error("record with degenerate box should fall back to the whole photo")
	}
	if recs[2].ImageURL == whole || recs[2].ImageURL == "" {
		t.Error("record with usable box should carry its own crop")
	}
	if !strings.HasPrefix(recs[2].ImageURL, "data:image/jpeg;base64,") {
		t.Errorf("crop is not a JPEG data URL: %.40s", recs[2].ImageURL)
	}
}
