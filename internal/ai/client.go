// Package ai talks to the external multimodal model. The rest of the
// application consumes it through the narrow Client interface so services
// can swap in a stub for tests; the concrete implementation (GeminiClient)
// speaks the Generative Language REST API directly.
package ai

import (
	"context"
	"errors"

	"github.com/ownly/go-vault-backend/internal/domain"
)

// Sentinel errors describing the two failure classes the capture flow must
// distinguish: the model could not be reached at all, or it answered with
// something the application cannot use. Both are retryable from the user's
// point of view; neither mutates any state.
var (
	// ErrUnavailable covers network errors, timeouts, and HTTP-level
	// failures from the model endpoint.
	ErrUnavailable = errors.New("ai: model unavailable")

	// ErrBadReply covers syntactically or structurally invalid model output
	// (non-JSON bodies, schema-violating arrays).
	ErrBadReply = errors.New("ai: malformed model reply")
)

// Client is the request/response contract with the external model.
//
// Implementations must honor the context for cancellation and must not
// retain the image buffers after returning.
type Client interface {
	// DetectItems sends one encoded JPEG of a storage area and returns the
	// raw candidate items the model identified. An empty slice is a valid,
	// non-error outcome (the photo contained nothing recognizable).
	DetectItems(ctx context.Context, jpegData []byte) ([]domain.RawDetection, error)

	// ShoppingAdvice sends a photo of a prospective purchase plus a summary
	// of the current catalog and returns free-text advice, displayed verbatim.
	ShoppingAdvice(ctx context.Context, jpegData []byte, inventorySummary string) (string, error)

	// Chat answers a free-text query over the serialized catalog context.
	// The reply is displayed verbatim; no structured parsing happens.
	Chat(ctx context.Context, query, inventoryContext string) (string, error)
}
