// Package livephoto splits Live Photo files, a still image with an ISO-BMFF
// video stream appended after it, into a photo segment and a video segment.
//
// No index records where the video begins, so the boundary is recovered from
// the bytes alone. [FindLastOccurrence] walks the buffer backward for the last
// "ftyp" tag, [Probe] confirms that a moov or mdat box follows within a
// bounded lookahead window, and [Splitter.Split] slices the source at the box
// header that precedes the tag. Both segments are views over the caller's
// buffer; nothing is copied.
//
// Content that is not a Live Photo is an ordinary outcome, reported as a
// [*Failure] whose kind can be tested with errors.Is against
// [ErrNoContainerFound], [ErrInvalidContainer], [ErrIO] and [ErrCancelled].
//
// Scans over large files can be moved off the calling goroutine with [Pool],
// which accepts a buffer plus a context as cancellation token and replies on
// a channel with exactly one [Outcome].
package livephoto
