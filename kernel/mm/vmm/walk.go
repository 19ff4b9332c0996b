package vmm

import (
	"unsafe"

	"rvos/kernel/mm"
)

var (
	// ptePtrFn returns a pointer to the page table entry at the supplied
	// physical address. It is used by tests to redirect the generated
	// entry pointers so walk() can be exercised against synthetic tables.
	ptePtrFn = func(entryAddr uintptr) unsafe.Pointer {
		return unsafe.Pointer(entryAddr)
	}
)

// pageTableWalker is a function that can be passed to the walk method. The
// function receives the current page level and page table entry as its
// arguments. If the function returns false, the page walk is aborted.
type pageTableWalker func(pteLevel uint8, pte *pageTableEntry) bool

// walk performs a software page table walk from the supplied root frame for
// the given virtual address. It calls walkFn with the page table entry that
// corresponds to each level. After walkFn returns true for a non-final
// level, the walk descends into the table the entry points at, so walkFn may
// install a missing table entry and have the walk follow it.
func walk(root mm.Frame, virtAddr uintptr, walkFn pageTableWalker) {
	var (
		level     uint8
		tableAddr = root.Address()
	)

	for level = 0; level < pageLevels; level++ {
		entryIndex := (virtAddr >> pageLevelShifts[level]) & (1<<pageLevelBits - 1)
		entryAddr := tableAddr + entryIndex<<mm.PointerShift

		pte := (*pageTableEntry)(ptePtrFn(entryAddr))
		if !walkFn(level, pte) {
			return
		}

		tableAddr = pte.Frame().Address()
	}
}
