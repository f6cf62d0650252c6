package services

import (
	"context"
	"testing"

	"github.com/ownly/go-vault-backend/internal/domain"
)

func catalogIDs(recs []domain.InventoryRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

func TestMergePrependsBatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(context.Background(), db)

	if _, err := svc.Merge(context.Background(), []domain.InventoryRecord{record("A", ""), record("B", "")}); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	merged, err := svc.Merge(context.Background(), []domain.InventoryRecord{record("C", ""), record("D", "")})
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}

	want := []string{"C", "D", "A", "B"}
	got := catalogIDs(merged)
	if len(got) != len(want) {
		t.Fatalf("merged length = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("merged order = %v; want %v", got, want)
		}
	}
}

func TestMergePersistsAcrossRestart(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(context.Background(), db)

	if _, err := svc.Merge(context.Background(), []domain.InventoryRecord{record("A", ""), record("B", "")}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// A second service over the same database sees the same ordered catalog.
	again := NewCatalogService(context.Background(), db)
	got := catalogIDs(again.Snapshot())
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("reloaded catalog = %v; want [A B]", got)
	}
}

func TestDeleteExactRecord(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(context.Background(), db)

	a, b := record("A", ""), record("B", "")
	if _, err := svc.Merge(context.Background(), []domain.InventoryRecord{a, b}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	if err := svc.Delete(context.Background(), a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if svc.Len() != 1 {
		t.Fatalf("len = %d; want 1", svc.Len())
	}
	if _, err := svc.Get(a.ID); err == nil {
		t.Error("deleted record still retrievable")
	}
	if _, err := svc.Get(b.ID); err != nil {
		t.Errorf("unrelated record gone: %v", err)
	}

	if err := svc.Delete(context.Background(), "nope"); err != ErrRecordNotFound {
		t.Errorf("delete unknown id: err = %v; want ErrRecordNotFound", err)
	}
}

func TestBulkDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(context.Background(), db)

	a, b, c := record("A", ""), record("B", ""), record("C", "")
	if _, err := svc.Merge(context.Background(), []domain.InventoryRecord{a, b, c}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// Unknown ids are ignored, not errors.
	n, err := svc.BulkDelete(context.Background(), []string{a.ID, c.ID, "nope"})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if n != 2 {
		t.Errorf("removed = %d; want 2", n)
	}
	if svc.Len() != 1 {
		t.Errorf("len = %d; want 1", svc.Len())
	}

	// All-unknown input is a no-op.
	n, err = svc.BulkDelete(context.Background(), []string{"x", "y"})
	if err != nil || n != 0 {
		t.Errorf("no-op bulk delete: n=%d err=%v; want 0, nil", n, err)
	}
}

func TestListFilterAndSort(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(context.Background(), db)

	drill := record("Drill", "DeWalt")
	drill.Category = domain.CategoryTools
	drill.Price = 120
	drill.Description = "Cordless hammer drill"

	socks := record("Wool Socks", "")
	socks.Category = domain.CategoryClothes
	socks.Price = 8

	saw := record("Saw", "")
	saw.Category = domain.CategoryTools
	saw.Price = 30

	if _, err := svc.Merge(context.Background(), []domain.InventoryRecord{drill, socks, saw}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// Free-text query matches name and description, case-insensitively.
	got := svc.List(ListOptions{Query: "HAMMER"})
	if len(got) != 1 || got[0].Name != "Drill" {
		t.Errorf("query HAMMER = %v; want [Drill]", catalogIDs(got))
	}

	// Category filter.
	got = svc.List(ListOptions{Category: domain.CategoryTools})
	if len(got) != 2 {
		t.Errorf("tools = %v; want 2 records", catalogIDs(got))
	}

	// Price sort is descending.
	got = svc.List(ListOptions{Sort: SortPrice})
	if got[0].Name != "Drill" || got[2].Name != "Wool Socks" {
		t.Errorf("price sort = %v", catalogIDs(got))
	}

	// Name sort is case-insensitive ascending.
	got = svc.List(ListOptions{Sort: SortName})
	if got[0].Name != "Drill" || got[1].Name != "Saw" || got[2].Name != "Wool Socks" {
		t.Errorf("name sort = %v", catalogIDs(got))
	}
}

func TestSubscribeSignalsOnMutation(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(context.Background(), db)
	ch := svc.Subscribe()

	if _, err := svc.Merge(context.Background(), []domain.InventoryRecord{record("A", "")}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	select {
	case <-ch:
	default:
		t.Fatal("no notification after merge")
	}
}
