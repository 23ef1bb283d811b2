package lolalloc

import (
	"runtime"

	"go.uber.org/atomic"
)

// spinMutex is a mutual-exclusion primitive implemented with
// busy-waiting rather than an OS futex, so it has no OS dependency and
// is usable in freestanding targets such as wasm. It is the primitive
// LockedAllocator is built on.
type spinMutex struct {
	locked atomic.Bool
}

func (m *spinMutex) Lock() {
	for !m.locked.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (m *spinMutex) Unlock() {
	m.locked.Store(false)
}

// LockedAllocator wraps any inner Allocator with spin-lock based mutual
// exclusion, turning a single-threaded-correct allocator into a
// multi-thread-safe one. Alloc and Release acquire the lock, delegate
// to the inner allocator, and release the lock on every path, including
// when the inner allocator fails.
type LockedAllocator[A Allocator] struct {
	mu    spinMutex
	inner A
}

// NewLockedAllocator wraps inner in a spin lock.
func NewLockedAllocator[A Allocator](inner A) *LockedAllocator[A] {
	return &LockedAllocator[A]{inner: inner}
}

// Alloc implements Allocator.
func (a *LockedAllocator[A]) Alloc(size, align uintptr) uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inner.Alloc(size, align)
}

// Release implements Allocator.
func (a *LockedAllocator[A]) Release(ptr, size, align uintptr) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inner.Release(ptr, size, align)
}
