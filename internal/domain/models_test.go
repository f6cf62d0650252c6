package domain

import (
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableName(t *testing.T) {
	if (InventoryRecord{}).TableName() != "inventory_records" {
		t.Fatalf("InventoryRecord.TableName() = %q; want %q", (InventoryRecord{}).TableName(), "inventory_records")
	}
}

func TestMigration_TableAndIndexes(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&InventoryRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	if !m.HasTable(&InventoryRecord{}) {
		t.Fatalf("expected inventory_records table to exist")
	}
	if !m.HasIndex(&InventoryRecord{}, "Position") {
		t.Fatalf("expected index on Position")
	}
	if !m.HasIndex(&InventoryRecord{}, "DeletedAt") {
		t.Fatalf("expected index on DeletedAt")
	}
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Fatalf("Categories() member %q reported invalid", c)
		}
	}
	for _, c := range []Category{"", "food", "Furniture", "OTHER"} {
		if c.Valid() {
			t.Fatalf("Category(%q).Valid() = true; want false", c)
		}
	}
	if n := len(Categories()); n != 6 {
		t.Fatalf("len(Categories()) = %d; want 6", n)
	}
}

func TestRawDetection_Bounds(t *testing.T) {
	cases := []struct {
		name string
		box  []float64
		want BoundingBox
		ok   bool
	}{
		{"absent", nil, BoundingBox{}, false},
		{"short", []float64{1, 2, 3}, BoundingBox{}, false},
		{"zero area", []float64{500, 500, 500, 500}, BoundingBox{}, false},
		{"inverted", []float64{800, 100, 200, 900}, BoundingBox{}, false},
		{"usable", []float64{100, 200, 300, 400}, BoundingBox{Top: 100, Left: 200, Bottom: 300, Right: 400}, true},
		{"extra values ignored", []float64{0, 0, 10, 10, 99}, BoundingBox{Top: 0, Left: 0, Bottom: 10, Right: 10}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := RawDetection{Box2D: tc.box}.Bounds()
			if ok != tc.ok {
				t.Fatalf("ok = %v; want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("box = %+v; want %+v", got, tc.want)
			}
		})
	}
}
