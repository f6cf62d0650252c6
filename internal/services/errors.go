// Package services implements the application core: detection normalization,
// duplicate resolution, the capture review flow, and catalog ownership.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Capture-flow errors.
var (
	// ErrCaptureInFlight is returned when a capture starts while another is
	// still being analyzed. Policy: the second request is rejected rather
	// than cancelling the first.
	ErrCaptureInFlight = errors.New("a capture is already being analyzed")

	// ErrNoDetections means the model answered successfully but found no
	// items. Distinct from transport or parse failures: the user should
	// retake the photo with different framing, not retry the same request.
	ErrNoDetections = errors.New("no items detected in photo")

	// ErrDetectorUnavailable wraps transport-level failures reaching the
	// model (network error, timeout, upstream 5xx). Retryable.
	ErrDetectorUnavailable = errors.New("detector unavailable")

	// ErrBadDetectorReply wraps malformed model output (non-JSON or
	// schema-violating). Retryable from the user's perspective.
	ErrBadDetectorReply = errors.New("detector reply not understood")

	// ErrBadImage is returned when the uploaded photo cannot be decoded.
	ErrBadImage = errors.New("photo could not be decoded")

	// ErrBatchNotFound indicates the referenced pending batch does not exist
	// (already saved, discarded, or never created).
	ErrBatchNotFound = errors.New("pending batch not found")

	// ErrItemOutOfRange indicates a review edit referenced an item index the
	// batch does not contain.
	ErrItemOutOfRange = errors.New("batch item index out of range")
)

// Catalog errors.
var (
	// ErrRecordNotFound indicates the requested inventory record does not
	// exist in the catalog.
	ErrRecordNotFound = errors.New("inventory record not found")
)

// Assistant errors.
var (
	// ErrEmptyQuery is returned when a chat request contains no text.
	ErrEmptyQuery = errors.New("query is empty")
)
