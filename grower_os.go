//go:build unix

package lolalloc

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// OSGrower is a production Grower for ordinary OS processes: it reserves
// a large, page-aligned address range up front (PROT_NONE, so touching
// uncommitted pages faults rather than silently succeeding) and commits
// pages into that range as MemoryGrow is called. This lets the
// allocators in this package be installed over real OS memory on
// GOARCH values other than wasm — an embedder that wants a small,
// dependency-light heap manager over a byte arena it owns.
//
// OSGrower is not safe for concurrent use; wrap the allocator built on
// top of it in LockedAllocator for that.
type OSGrower struct {
	reserved  []byte
	basePage  PageCount // base address of the reservation, in pages
	committed PageCount
	maxPages  PageCount
}

// NewOSGrower reserves address space for up to maxPages pages and
// returns a Grower that commits them on demand. The PageCount values it
// returns from MemoryGrow are absolute: SizeInBytes on the returned
// value is the real process address of the newly committed region, the
// same convention DefaultGrower follows for wasm linear memory address
// 0. This lets FreeListAllocator treat every Grower identically
// regardless of backing.
func NewOSGrower(maxPages PageCount) (*OSGrower, error) {
	size := int(maxPages.SizeInBytes())
	b, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrap(err, "lolalloc: reserve address range")
	}
	if len(b) == 0 {
		return nil, errors.New("lolalloc: reserved zero-length address range")
	}
	base := uintptr(unsafe.Pointer(&b[0]))
	if base%PageSize != 0 {
		panic("lolalloc: mmap returned a misaligned base address")
	}
	return &OSGrower{reserved: b, basePage: PageCount(base / PageSize), maxPages: maxPages}, nil
}

// MemoryGrow implements Grower.
func (g *OSGrower) MemoryGrow(delta PageCount) PageCount {
	if g.committed+delta > g.maxPages {
		return ErrorPageCount
	}
	offset := g.committed.SizeInBytes()
	size := delta.SizeInBytes()
	region := g.reserved[offset : offset+size]
	if len(region) != 0 {
		if err := unix.Mprotect(region, unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return ErrorPageCount
		}
	}
	prev := g.basePage + g.committed
	g.committed += delta
	return prev
}

// Close releases the reserved address range. It is not required before
// process exit.
func (g *OSGrower) Close() error {
	if g.reserved == nil {
		return nil
	}
	err := unix.Munmap(g.reserved)
	g.reserved = nil
	return errors.Wrap(err, "lolalloc: release reserved address range")
}
