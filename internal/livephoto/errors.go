package livephoto

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind. A *Failure matches its kind's
// sentinel under errors.Is.
var (
	ErrNoContainerFound = errors.New("livephoto: no container signature found")
	ErrInvalidContainer = errors.New("livephoto: no media structure follows container signature")
	ErrIO               = errors.New("livephoto: source read failed")
	ErrCancelled        = errors.New("livephoto: extraction cancelled")

	// ErrPoolClosed is the cause attached to jobs submitted after Pool.Close.
	ErrPoolClosed = errors.New("livephoto: pool closed")

	errUnknownFailure = errors.New("livephoto: extraction failed")
)

// Kind tags an extraction failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoContainerFound
	KindInvalidContainer
	KindIO
	KindCancelled
)

// String returns the snake_case name used in logs, metrics labels and API
// responses.
func (k Kind) String() string {
	switch k {
	case KindNoContainerFound:
		return "no_container_found"
	case KindInvalidContainer:
		return "invalid_container"
	case KindIO:
		return "io_error"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNoContainerFound:
		return ErrNoContainerFound
	case KindInvalidContainer:
		return ErrInvalidContainer
	case KindIO:
		return ErrIO
	case KindCancelled:
		return ErrCancelled
	default:
		return errUnknownFailure
	}
}

// Failure is the typed error returned when a source cannot be split.
type Failure struct {
	Kind Kind
	// Offset is the proposed split point rejected by validation, or -1 when
	// no candidate was reached.
	Offset int
	// Err is the underlying cause: the reader's error for KindIO, the
	// context's error for KindCancelled. Nil otherwise.
	Err error
}

func (f *Failure) Error() string {
	msg := f.Kind.sentinel().Error()
	if f.Offset >= 0 {
		msg = fmt.Sprintf("%s (candidate offset %d)", msg, f.Offset)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind.sentinel()}
	}
	return []error{f.Kind.sentinel(), f.Err}
}

// KindOf returns the failure kind carried by err, or KindUnknown when err is
// not a *Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

func cancelled(cause error) *Failure {
	return &Failure{Kind: KindCancelled, Offset: -1, Err: cause}
}
