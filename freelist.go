package lolalloc

import "unsafe"

// freeListNode is stored at the beginning of each free region. Its
// layout is fixed at two machine words, which is therefore also the
// minimum granularity of any allocation and the minimum alignment of
// any free region's base.
type freeListNode struct {
	next uintptr // address of the next free region, or emptyFreeList
	size uintptr // size of this free region, including this header
}

// nodeSize is the header size: two machine words.
const nodeSize = unsafe.Sizeof(freeListNode{})

// emptyFreeList is a sentinel address that can never be a real free
// region base; it marks the end of the list.
const emptyFreeList = ^uintptr(0)

func nodeAt(addr uintptr) *freeListNode {
	return (*freeListNode)(unsafe.Pointer(addr)) //nolint:govet // intrusive list lives in raw memory
}

// fullSize computes the effective, header-satisfying request size for a
// raw byte count.
func fullSize(size uintptr) uintptr {
	return roundUp(max(size, nodeSize), nodeSize)
}

// FreeListAllocator is a single-threaded, coalescing, tail-carving
// free-list allocator. Allocation and release are both O(length of the
// free list). The free list is kept sorted by descending base address,
// and adjacent free regions are always coalesced, so the list never
// contains two regions that touch or overlap.
//
// The zero value is not ready for use: construct one with
// NewFreeListAllocator so the free list starts in its empty state.
// FreeListAllocator is not safe for concurrent use; wrap it in
// LockedAllocator for that.
type FreeListAllocator[G Grower] struct {
	Grower G

	freeList uintptr

	heapBase       uintptr
	heapBaseSet    bool
	committedPages PageCount
}

// NewFreeListAllocator constructs a FreeListAllocator with an empty free
// list, backed by grower.
func NewFreeListAllocator[G Grower](grower G) *FreeListAllocator[G] {
	return &FreeListAllocator[G]{Grower: grower, freeList: emptyFreeList}
}

// Alloc implements Allocator.
//
// It walks the free list in descending-address order looking for a
// region that can host need = round_up(max(size, header), header) bytes
// at alignment align_eff = max(align, header). Within a fitting region
// the allocation is placed at the highest aligned offset (tail carving),
// so any leftover space stays at the region's low address and the
// region's list node, if it survives, keeps its original base. If no
// region fits, the heap is grown by just enough pages, the appended
// region is released into the free list (coalescing with any existing
// high-address region), and the search is retried — which always
// succeeds unless growth itself fails.
func (a *FreeListAllocator[G]) Alloc(size, align uintptr) (result uintptr) {
	if trace {
		defer func() { traceAlloc(size, align, result) }()
	}
	assertAlign(align)

	need := fullSize(size)
	alignEff := max(align, nodeSize)

	link := &a.freeList
	for *link != emptyFreeList {
		base := *link
		node := nodeAt(base)
		end := base + node.size

		if need < end {
			candidate := multipleBelow(end-need, alignEff)
			if candidate >= base {
				endUsed := candidate + need
				if endUsed < end {
					// Tail sliver remains; splice it in ahead of the
					// current node (it has the higher address).
					tail := nodeAt(endUsed)
					tail.next = base
					tail.size = end - endUsed
					*link = endUsed
					link = &tail.next
				}
				if candidate == base {
					*link = node.next
				} else {
					node.size = candidate - base
				}
				return candidate
			}
		}
		link = &node.next
	}

	// Nothing fits: grow the heap and retry. This recursion bottoms out
	// after at most one extra level, since the freshly released region
	// is guaranteed large enough for need.
	requested := roundUp(need, PageSize)
	prev := a.Grower.MemoryGrow(pagesFor(requested))
	if prev == ErrorPageCount {
		return 0
	}

	base := prev.SizeInBytes()
	if !a.heapBaseSet {
		a.heapBase = base
		a.heapBaseSet = true
	}
	a.committedPages += pagesFor(requested)
	a.Release(base, requested, PageSize)
	return a.Alloc(size, align)
}

// Release implements Allocator.
//
// It walks the free list in descending-address order to find ptr's
// sorted position, coalescing it with whichever neighbor(s) it touches:
// a region immediately above ptr, a region immediately below it, or
// both at once (a three-way merge bridging a gap between two existing
// free regions).
func (a *FreeListAllocator[G]) Release(ptr, size, align uintptr) {
	if trace {
		defer traceRelease(ptr, size, align)
	}
	assertAlign(align)

	need := fullSize(size)
	afterNew := ptr + need

	link := &a.freeList
	for {
		switch {
		case *link == emptyFreeList:
			n := nodeAt(ptr)
			n.next = emptyFreeList
			n.size = need
			*link = ptr
			return

		case *link == afterNew:
			cur := nodeAt(*link)
			newSize := need + cur.size
			next := cur.next
			if next != emptyFreeList {
				nextNode := nodeAt(next)
				if next+nextNode.size == ptr {
					// Three-way merge: the new region bridges the gap
					// between cur and next. Absorb both into next and
					// drop cur from the list.
					nextNode.size += newSize
					*link = next
					return
				}
			}
			n := nodeAt(ptr)
			*link = ptr
			n.size = newSize
			n.next = next
			return

		case *link < ptr:
			cur := nodeAt(*link)
			if *link+cur.size == ptr {
				cur.size += need
				return
			}
			n := nodeAt(ptr)
			n.next = *link
			n.size = need
			*link = ptr
			return

		default:
			link = &nodeAt(*link).next
		}
	}
}

// FreeListContent describes one node of the free list, for tests and
// diagnostics.
type FreeListContent struct {
	Size   uintptr
	Offset uintptr // relative to the heap's first committed page
}

// DebugFreeList walks the free list and returns its content in
// descending-address order, validating every invariant from the
// allocator's contract as it goes: header alignment, strictly
// descending bases, no adjacency, no overlap, and containment within
// the committed heap extent. It panics on the first violation found.
func (a *FreeListAllocator[G]) DebugFreeList() []FreeListContent {
	var out []FreeListContent
	extentEnd := a.heapBase + a.committedPages.SizeInBytes()
	prevBase := uintptr(0)
	first := true
	for link := a.freeList; link != emptyFreeList; link = nodeAt(link).next {
		node := nodeAt(link)
		if link%nodeSize != 0 {
			panic("lolalloc: free list node is not header-aligned")
		}
		if node.size < nodeSize || node.size%nodeSize != 0 {
			panic("lolalloc: free list node has an invalid size")
		}
		if link < a.heapBase || link+node.size > extentEnd {
			panic("lolalloc: free list node lies outside the heap extent")
		}
		if !first {
			switch {
			case link+node.size > prevBase:
				panic("lolalloc: free list nodes are out of order or overlap")
			case link+node.size == prevBase:
				panic("lolalloc: free list nodes are adjacent")
			}
		}
		out = append(out, FreeListContent{Size: node.size, Offset: link - a.heapBase})
		prevBase = link
		first = false
	}
	return out
}

// FreeListStats summarizes the allocator's current state. It is computed
// on demand by walking the free list (O(length of the free list)), not
// kept by a statistics subsystem.
type FreeListStats struct {
	CommittedPages PageCount
	FreeBytes      uintptr
	FreeNodeCount  int
}

// Stats returns a snapshot of the allocator's current state.
func (a *FreeListAllocator[G]) Stats() FreeListStats {
	stats := FreeListStats{CommittedPages: a.committedPages}
	for link := a.freeList; link != emptyFreeList; link = nodeAt(link).next {
		node := nodeAt(link)
		stats.FreeBytes += node.size
		stats.FreeNodeCount++
	}
	return stats
}
