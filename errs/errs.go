// Package errs defines barrel's distinct error kinds as sentinel/typed
// errors rather than string messages, matched with errors.Is/errors.As,
// so a caller can map them to status codes or retry behavior without
// parsing text.
package errs

import "fmt"

// ErrNotFound denotes an unknown database, document, or revision.
var ErrNotFound = fmt.Errorf("barrel: not found")

// ErrBadDoc denotes malformed input: a non-object body, or "_rev" supplied
// to Post.
var ErrBadDoc = fmt.Errorf("barrel: bad document")

// ErrUnknownStore denotes a store name that was never registered.
var ErrUnknownStore = fmt.Errorf("barrel: unknown store")

// ConflictKind distinguishes the two ways a write can conflict.
type ConflictKind int

const (
	// DocExists is reported when a write without "_rev" targets an
	// existing live document.
	DocExists ConflictKind = iota
	// RevisionConflict is reported when a write's "_rev" is not a
	// current leaf of the revision tree.
	RevisionConflict
)

func (k ConflictKind) String() string {
	switch k {
	case DocExists:
		return "doc_exists"
	case RevisionConflict:
		return "revision_conflict"
	default:
		return "unknown_conflict"
	}
}

// ConflictError is returned when an update function rejects a write as a
// conflict.
type ConflictError struct {
	Kind ConflictKind
}

func (e *ConflictError) Error() string {
	return "barrel: conflict: " + e.Kind.String()
}

// Conflict constructs a ConflictError of the given kind.
func Conflict(kind ConflictKind) error {
	return &ConflictError{Kind: kind}
}

// StorageError wraps an underlying KV-engine error, propagated verbatim
// rather than translated into a domain error.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "barrel: storage error: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError, or returns nil if err is nil.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Err: err}
}
