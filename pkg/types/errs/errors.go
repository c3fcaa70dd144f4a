package errs

import "errors"

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnknownTopic     = errors.New("unknown topic")

	// ErrConflict signals a lost conditional update on a versioned row.
	ErrConflict = errors.New("concurrent update conflict")

	// Already-done outcomes let idempotent handlers report a duplicate
	// without exception-style control flow at the call site.
	ErrAlreadyCancelled     = errors.New("subscription already cancelled")
	ErrAlreadyDeprovisioned = errors.New("tenant already deprovisioned")
	ErrAlreadyCompensated   = errors.New("saga already compensated")
	ErrAlreadyCompleted     = errors.New("saga already completed")
)
