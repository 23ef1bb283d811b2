//go:build windows

package lolalloc

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// OSGrower is the Windows counterpart of the unix implementation in
// grower_os.go: it reserves a large address range with VirtualAlloc and
// commits pages into it as MemoryGrow is called.
type OSGrower struct {
	base      uintptr
	basePage  PageCount
	committed PageCount
	maxPages  PageCount
}

// NewOSGrower reserves address space for up to maxPages pages and
// returns a Grower that commits them on demand. See the unix
// implementation's doc comment for the addressing convention MemoryGrow
// follows.
func NewOSGrower(maxPages PageCount) (*OSGrower, error) {
	size := maxPages.SizeInBytes()
	addr, err := windows.VirtualAlloc(0, size, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, errors.Wrap(err, "lolalloc: reserve address range")
	}
	if addr%PageSize != 0 {
		panic("lolalloc: VirtualAlloc returned a misaligned base address")
	}
	return &OSGrower{base: addr, basePage: PageCount(addr / PageSize), maxPages: maxPages}, nil
}

// MemoryGrow implements Grower.
func (g *OSGrower) MemoryGrow(delta PageCount) PageCount {
	if g.committed+delta > g.maxPages {
		return ErrorPageCount
	}
	offset := g.committed.SizeInBytes()
	size := delta.SizeInBytes()
	if _, err := windows.VirtualAlloc(g.base+offset, size, windows.MEM_COMMIT, windows.PAGE_READWRITE); err != nil {
		return ErrorPageCount
	}
	prev := g.basePage + g.committed
	g.committed += delta
	return prev
}

// Close releases the reserved address range. It is not required before
// process exit.
func (g *OSGrower) Close() error {
	if g.base == 0 {
		return nil
	}
	err := windows.VirtualFree(g.base, 0, windows.MEM_RELEASE)
	g.base = 0
	return errors.Wrap(err, "lolalloc: release reserved address range")
}
