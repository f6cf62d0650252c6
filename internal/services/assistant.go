// Package services – AssistantService
//
// The assistant and the shopping advisor are read-only consumers of the
// catalog: they serialize a snapshot, ship it to the model alongside the
// user's query or photo, and return the reply verbatim. They never mutate
// persisted state. The running transcript is process-local convenience for
// the UI.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/ownly/go-vault-backend/internal/ai"
	"github.com/ownly/go-vault-backend/internal/domain"
	"github.com/ownly/go-vault-backend/internal/imaging"
)

// Fallback replies used when the model returns an empty body without error.
const (
	fallbackChatReply   = "I couldn't find an answer to that."
	fallbackAdviceReply = "I'm not sure, but checking your inventory is always a good idea!"
)

// AssistantService answers natural-language questions over the catalog and
// renders purchase advice for prospective items.
type AssistantService struct {
	AI      ai.Client
	Proc    *imaging.Processor
	Catalog *CatalogService

	mu         sync.Mutex
	transcript []domain.ChatMessage
}

// NewAssistantService constructs an AssistantService.
func NewAssistantService(client ai.Client, proc *imaging.Processor, catalog *CatalogService) *AssistantService {
	return &AssistantService{AI: client, Proc: proc, Catalog: catalog}
}

// chatContextEntry is the compact per-record shape serialized for the model.
type chatContextEntry struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Cat      string `json:"cat"`
	Added    string `json:"added"`
}

// Chat sends the query plus a serialized catalog snapshot to the model and
// returns the assistant's reply. Both turns are appended to the transcript.
func (s *AssistantService) Chat(ctx context.Context, query string) (string, error) {
	tr := otel.Tracer("services/AssistantService")
	ctx, span := tr.Start(ctx, "Chat")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	snapshot := s.Catalog.Snapshot()
	entries := make([]chatContextEntry, 0, len(snapshot))
	for _, rec := range snapshot {
		entries = append(entries, chatContextEntry{
			Name:     rec.Name,
			Location: rec.StorageLocation,
			Cat:      string(rec.Category),
			Added:    rec.DateAdded,
		})
	}
	contextJSON, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}

	reply, err := s.AI.Chat(ctx, query, string(contextJSON))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		reply = fallbackChatReply
	}

	s.appendTranscript(
		domain.ChatMessage{Role: "user", Content: query},
		domain.ChatMessage{Role: "assistant", Content: reply},
	)
	return reply, nil
}

// Advise preprocesses the photo of a prospective purchase, summarizes the
// catalog, and returns the model's buy/don't-buy advice.
func (s *AssistantService) Advise(ctx context.Context, photo io.Reader) (string, error) {
	tr := otel.Tracer("services/AssistantService")
	ctx, span := tr.Start(ctx, "Advise")
	defer span.End()

	prepared, err := s.Proc.Prepare(photo)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	advice, err := s.AI.ShoppingAdvice(ctx, prepared.Data, s.inventorySummary())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(advice) == "" {
		advice = fallbackAdviceReply
	}

	s.appendTranscript(
		domain.ChatMessage{Role: "user", Content: "Should I buy this? (Photo attached)"},
		domain.ChatMessage{Role: "assistant", Content: advice},
	)
	return advice, nil
}

// Transcript returns a copy of the running conversation.
func (s *AssistantService) Transcript() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// inventorySummary renders the catalog as "Name (Category) in Location"
// entries joined by commas, the shape the advisor prompt expects.
func (s *AssistantService) inventorySummary() string {
	snapshot := s.Catalog.Snapshot()
	parts := make([]string, 0, len(snapshot))
	for _, rec := range snapshot {
		parts = append(parts, fmt.Sprintf("%s (%s) in %s", rec.Name, rec.Category, rec.StorageLocation))
	}
	return strings.Join(parts, ", ")
}

func (s *AssistantService) appendTranscript(msgs ...domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, msgs...)
}

// IsRetryable reports whether err represents a failure worth retrying as-is
// (transport or parse), as opposed to ErrNoDetections-style outcomes that
// call for a different user action.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDetectorUnavailable) || errors.Is(err, ErrBadDetectorReply) ||
		errors.Is(err, ai.ErrUnavailable) || errors.Is(err, ai.ErrBadReply)
}
