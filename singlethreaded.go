package lolalloc

// AssumeSingleThreaded wraps an allocator that is not safe for
// concurrent use so it can be installed in places (process-global
// state, a package-level variable accessed from multiple goroutines)
// that would otherwise require the allocator itself to tolerate
// concurrent access. It adds no synchronization of its own: it exists
// purely to document, at the type level, that the caller has taken on
// the responsibility of only ever calling the wrapped allocator from a
// single goroutine at a time.
//
// Use NewAssumeSingleThreaded to construct one; its name is a reminder
// that the caller is asserting a property the compiler cannot check.
type AssumeSingleThreaded[A Allocator] struct {
	inner A
}

// NewAssumeSingleThreaded wraps inner, asserting it will only ever be
// accessed from one goroutine at a time. Violating that assertion is a
// data race; Go's race detector, not this type, is what will catch it.
func NewAssumeSingleThreaded[A Allocator](inner A) *AssumeSingleThreaded[A] {
	return &AssumeSingleThreaded[A]{inner: inner}
}

// Alloc implements Allocator by delegating to the wrapped allocator.
func (a *AssumeSingleThreaded[A]) Alloc(size, align uintptr) uintptr {
	return a.inner.Alloc(size, align)
}

// Release implements Allocator by delegating to the wrapped allocator.
func (a *AssumeSingleThreaded[A]) Release(ptr, size, align uintptr) {
	a.inner.Release(ptr, size, align)
}
