package object

import "errors"

// Sentinel errors for the value-level entries of spec.md §7's error taxonomy;
// internal/command translates these into the corresponding RESP error
// reply text. Grounded on the teacher's internal/storage/errors.go, with
// the Hash-only error types generalized to every type.
var (
	ErrWrongType       = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrNotInteger      = errors.New("value is not an integer or out of range")
	ErrOverflow        = errors.New("increment or decrement would overflow")
	ErrNoSuchKey       = errors.New("no such key")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNotAFloat       = errors.New("value is not a valid float")
)
