package model

import "errors"

// Failure kinds shared across the engine. Services wrap these with
// context via fmt.Errorf("...: %w", ...); callers match with errors.Is.
var (
	// ErrInvalidOrder marks a malformed creation or mutation request.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInvalidTransition marks a status change the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidState marks a mutation attempted on a terminal order.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnknownMenuItem marks an order line referencing a menu item
	// the catalog does not know.
	ErrUnknownMenuItem = errors.New("unknown menu item")

	// ErrNotFound marks an entity id that does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a concurrent-write version mismatch.
	ErrConflict = errors.New("version conflict")

	// ErrStoreUnavailable marks an infrastructure failure in the
	// record store; nothing was committed.
	ErrStoreUnavailable = errors.New("store unavailable")
)
