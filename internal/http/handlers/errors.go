// Package handlers defines HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case; generic codes mirror common
// HTTP status semantics, domain-specific codes carry outcomes a status alone
// cannot express — most importantly the three distinct capture failures:
// retryable detector trouble (detector_failed), a photo with nothing in it
// (no_items_found), and an undecodable upload (bad_request).
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeNoItemsFound   = "no_items_found"
	ErrCodeDetectorFailed = "detector_failed"
	ErrCodeSaveFailed     = "save_failed"
	ErrCodeDeleteFailed   = "delete_failed"
	ErrCodeChatFailed     = "chat_failed"
	ErrCodeAdviceFailed   = "advice_failed"
)
