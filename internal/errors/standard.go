// Package errors provides the standardized error taxonomy for regionpool:
// out-of-memory, out-of-space, not-freed, invalid-handle,
// already-initialized and not-initialized, plus a generic internal
// inconsistency signal for invariant violations.
package errors

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
)

// Category groups a StandardError into one of the taxonomy buckets.
type Category string

const (
	CategoryOutOfMemory   Category = "OUT_OF_MEMORY"
	CategoryOutOfSpace    Category = "OUT_OF_SPACE"
	CategoryNotFreed      Category = "NOT_FREED"
	CategoryInvalidHandle Category = "INVALID_HANDLE"
	CategoryLifecycle     Category = "LIFECYCLE"
	CategoryInconsistency Category = "INCONSISTENCY"
)

// Sentinel errors. Use errors.Is against these after unwrapping a
// StandardError returned by the engine.
var (
	ErrOutOfMemory           = errors.New("out-of-memory")
	ErrOutOfSpace            = errors.New("out-of-space")
	ErrNotFreed              = errors.New("not-freed")
	ErrInvalidHandle         = errors.New("invalid-handle")
	ErrAlreadyInitialized    = errors.New("already-initialized")
	ErrNotInitialized        = errors.New("not-initialized")
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// StandardError carries a sentinel, a category, free-form context and the
// caller that raised it, mirroring the teacher's error-reporting shape.
type StandardError struct {
	sentinel error
	Category Category
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface.
func (e *StandardError) Error() string {
	return fmt.Sprintf("[%s] %s (caller: %s)", e.Category, e.sentinel, e.Caller)
}

// Unwrap lets errors.Is/errors.As reach the sentinel and any pkg/errors
// stack trace wrapping it.
func (e *StandardError) Unwrap() error {
	return e.sentinel
}

func newStandardError(sentinel error, category Category, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(2)
	caller := "unknown"

	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		sentinel: sentinel,
		Category: category,
		Context:  context,
		Caller:   caller,
	}
}

// OutOfMemory reports that a growth step or initial internal allocation failed.
func OutOfMemory(op string) error {
	return newStandardError(errors.WithMessage(ErrOutOfMemory, op), CategoryOutOfMemory,
		map[string]interface{}{"op": op})
}

// OutOfSpace reports that no gap satisfies a request.
func OutOfSpace(size int) error {
	return newStandardError(errors.Wrapf(ErrOutOfSpace, "requested %d bytes", size), CategoryOutOfSpace,
		map[string]interface{}{"size": size})
}

// NotFreed reports that pool_close was refused.
func NotFreed(numAllocs, numGaps int) error {
	return newStandardError(
		errors.Wrapf(ErrNotFreed, "num_allocs=%d num_gaps=%d", numAllocs, numGaps),
		CategoryNotFreed,
		map[string]interface{}{"num_allocs": numAllocs, "num_gaps": numGaps})
}

// InvalidHandle reports a release of an already-released or foreign handle.
func InvalidHandle(reason string) error {
	return newStandardError(errors.WithMessage(ErrInvalidHandle, reason), CategoryInvalidHandle,
		map[string]interface{}{"reason": reason})
}

// AlreadyInitialized reports a registry-level double-open.
func AlreadyInitialized(id string) error {
	return newStandardError(errors.WithMessage(ErrAlreadyInitialized, id), CategoryLifecycle,
		map[string]interface{}{"id": id})
}

// NotInitialized reports a registry-level access to an unopened/closed pool.
func NotInitialized(id string) error {
	return newStandardError(errors.WithMessage(ErrNotInitialized, id), CategoryLifecycle,
		map[string]interface{}{"id": id})
}

// Inconsistency reports a violated engine invariant. Production code never
// panics on this; callers may choose to in a debug build.
func Inconsistency(detail string) error {
	return newStandardError(errors.WithMessage(ErrInternalInconsistency, detail), CategoryInconsistency,
		map[string]interface{}{"detail": detail})
}
