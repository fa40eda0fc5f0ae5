package domain

import "errors"

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrAnnotationNotFound = errors.New("annotation not found")
	ErrUserNotFound       = errors.New("user not found")

	// Store state-machine guards.
	ErrNoPendingSelection = errors.New("no pending selection")
	ErrSubmitInFlight     = errors.New("create already in flight")

	// Fixed-layout documents render as overlays, never as markup.
	ErrNoRenderedForm = errors.New("document has no rendered markup form")

	// Anchor resolution failures; always recovered per annotation, never fatal.
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrInvalidAnchor    = errors.New("invalid annotation anchor")
)
