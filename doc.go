// Package lolalloc implements a family of heap allocators for hosts that
// expose memory as a contiguous, monotonically growable linear address
// space divided into fixed-size pages — the canonical target being
// WebAssembly linear memory (PageSize = 65536 bytes).
//
// The package provides, in increasing order of sophistication:
//
//   - FailAllocator, an allocator that always fails.
//   - LeakingPageAllocator, which hands out whole pages and never frees.
//   - BumpAllocator, a bump-pointer allocator that never frees.
//   - FreeListAllocator, a coalescing, tail-carving free-list allocator
//     that reclaims released memory. This is the allocator most programs
//     should use.
//
// and two composition wrappers:
//
//   - AssumeSingleThreaded, which marks a non-concurrent-safe allocator
//     as installable in process-global state.
//   - LockedAllocator, which adds spin-lock based mutual exclusion around
//     any inner allocator.
//
// All allocators share the same three-operation contract: a size/align
// pair is given to Alloc and the identical pair must be given back to
// Release. None of the allocators detect misuse (double release,
// mismatched layout, foreign pointers) — see the Allocator interface doc
// for the full contract.
package lolalloc
