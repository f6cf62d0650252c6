package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ownly/go-vault-backend/internal/domain"
	"github.com/ownly/go-vault-backend/internal/imaging"
)

func newAssistantHarness(t *testing.T, fake *fakeAI) (*AssistantService, *CatalogService) {
	t.Helper()
	catalog := NewCatalogService(context.Background(), newTestDB(t))
	return NewAssistantService(fake, imaging.NewProcessor(64, 70), catalog), catalog
}

func TestChatSendsCatalogContext(t *testing.T) {
	fake := &fakeAI{reply: "It's in the garage."}
	svc, catalog := newAssistantHarness(t, fake)

	drill := record("Drill", "DeWalt")
	drill.StorageLocation = "Garage"
	drill.Category = domain.CategoryTools
	drill.DateAdded = "2025-02-01"
	if _, err := catalog.Merge(context.Background(), []domain.InventoryRecord{drill}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reply, err := svc.Chat(context.Background(), "where is my drill?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "It's in the garage." {
		t.Errorf("reply = %q", reply)
	}
	if fake.gotQuery != "where is my drill?" {
		t.Errorf("query seen by model = %q", fake.gotQuery)
	}

	// The model receives the catalog as compact JSON entries.
	var entries []map[string]string
	if err := json.Unmarshal([]byte(fake.gotCtx), &entries); err != nil {
		t.Fatalf("context not JSON: %v (%q)", err, fake.gotCtx)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d; want 1", len(entries))
	}
	e := entries[0]
	if e["name"] != "Drill" || e["location"] != "Garage" || e["cat"] != "Tools" || e["added"] != "2025-02-01" {
		t.Errorf("entry = %v", e)
	}
}

func TestChatEmptyQuery(t *testing.T) {
	svc, _ := newAssistantHarness(t, &fakeAI{})
	if _, err := svc.Chat(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("err = %v; want ErrEmptyQuery", err)
	}
	if len(svc.Transcript()) != 0 {
		t.Error("rejected query must not enter the transcript")
	}
}

func TestChatFallbackOnEmptyReply(t *testing.T) {
	svc, _ := newAssistantHarness(t, &fakeAI{reply: "  "})
	reply, err := svc.Chat(context.Background(), "anything there?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != fallbackChatReply {
		t.Errorf("reply = %q; want fallback", reply)
	}
}

func TestChatTranscript(t *testing.T) {
	svc, _ := newAssistantHarness(t, &fakeAI{reply: "yes"})
	if _, err := svc.Chat(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Chat(context.Background(), "second"); err != nil {
		t.Fatal(err)
	}

	tr := svc.Transcript()
	if len(tr) != 4 {
		t.Fatalf("transcript = %d turns; want 4", len(tr))
	}
	if tr[0].Role != "user" || tr[0].Content != "first" {
		t.Errorf("turn 0 = %+v", tr[0])
	}
	if tr[1].Role != "assistant" || tr[3].Role != "assistant" {
		t.Errorf("roles = %v", []string{tr[0].Role, tr[1].Role, tr[2].Role, tr[3].Role})
	}

	// Transcript returns a copy.
	tr[0].Content = "mutated"
	if svc.Transcript()[0].Content != "first" {
		t.Error("transcript exposes internal state")
	}
}

func TestAdvise(t *testing.T) {
	fake := &fakeAI{advice: "You already own one — it's in the Garage."}
	svc, catalog := newAssistantHarness(t, fake)

	drill := record("Drill", "DeWalt")
	drill.Category = domain.CategoryTools
	drill.StorageLocation = "Garage"
	saw := record("Saw", "")
	saw.Category = domain.CategoryTools
	saw.StorageLocation = "Shed"
	if _, err := catalog.Merge(context.Background(), []domain.InventoryRecord{drill, saw}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	advice, err := svc.Advise(context.Background(), bytes.NewReader(pngBytes(t, 32, 32)))
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if advice != fake.advice {
		t.Errorf("advice = %q", advice)
	}
	if fake.gotSummary != "Drill (Tools) in Garage, Saw (Tools) in Shed" {
		t.Errorf("summary = %q", fake.gotSummary)
	}

	tr := svc.Transcript()
	if len(tr) != 2 || tr[0].Content != "Should I buy this? (Photo attached)" {
		t.Errorf("transcript = %+v", tr)
	}
}

func TestAdviseErrors(t *testing.T) {
	svc, _ := newAssistantHarness(t, &fakeAI{})
	if _, err := svc.Advise(context.Background(), strings.NewReader("junk")); !errors.Is(err, ErrBadImage) {
		t.Errorf("err = %v; want ErrBadImage", err)
	}

	svc, _ = newAssistantHarness(t, &fakeAI{advice: "", adviceErr: nil})
	advice, err := svc.Advise(context.Background(), bytes.NewReader(pngBytes(t, 16, 16)))
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if advice != fallbackAdviceReply {
		t.Errorf("advice = %q; want fallback", advice)
	}
}
