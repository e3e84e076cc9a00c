package history

import "errors"

// Sentinel errors for history operations.
var (
	ErrRecordNotFound = errors.New("history record not found")
)
