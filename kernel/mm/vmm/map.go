package vmm

import (
	"rvos/kernel"
	"rvos/kernel/mm"
)

var (
	errNoSuperPageSupport = &kernel.Error{Module: "vmm", Message: "superpage mappings are not supported"}
)

// Map establishes a mapping between a virtual page and a physical memory
// frame in this address space. Missing intermediate page tables are
// allocated through the registered frame allocator; attempting to replace a
// live mapping fails with ErrRemapped.
func (a *AddressSpace) Map(page mm.Page, frame mm.Frame, flags PageTableEntryFlag) *kernel.Error {
	var err *kernel.Error

	if page.Address() >= mm.MaxVA {
		return ErrAddressOutOfRange
	}

	walk(a.root, page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		// If we reached the last level all we need to do is install
		// the frame and flush any stale translation for the page.
		if pteLevel == pageLevels-1 {
			if pte.HasFlags(FlagValid) {
				err = ErrRemapped
				return false
			}

			*pte = 0
			pte.SetFrame(frame)
			pte.SetFlags(FlagValid | flags)
			sfenceVMAFn()
			return true
		}

		if pte.HasFlags(FlagValid) {
			if pte.IsLeaf() {
				err = errNoSuperPageSupport
				return false
			}
			return true
		}

		// Next-level table does not exist yet; allocate a frame for
		// it, clear it and hook it into the walk.
		var tableFrame mm.Frame
		tableFrame, err = mm.AllocFrame()
		if err != nil {
			return false
		}

		kernel.Memset(tableFrame.Address(), 0, mm.PageSize)
		*pte = 0
		pte.SetFrame(tableFrame)
		pte.SetFlags(FlagValid)
		return true
	})

	return err
}

// MapRange maps the size bytes of physical memory starting at physAddr into
// this address space beginning at virtAddr. Both addresses are rounded down
// to a page boundary and the size is rounded up so the whole range is
// covered.
func (a *AddressSpace) MapRange(virtAddr, physAddr, size uintptr, flags PageTableEntryFlag) *kernel.Error {
	var (
		curVirt  = mm.AlignDown(virtAddr)
		curPhys  = mm.AlignDown(physAddr)
		lastVirt = mm.AlignDown(virtAddr + size - 1)
	)

	if size == 0 {
		return nil
	}

	for {
		if err := a.Map(mm.PageFromAddress(curVirt), mm.FrameFromAddress(curPhys), flags); err != nil {
			return err
		}
		if curVirt == lastVirt {
			return nil
		}
		curVirt += mm.PageSize
		curPhys += mm.PageSize
	}
}

// Unmap removes a mapping previously installed by Map. The intermediate
// page tables are left in place; only the leaf translation is invalidated.
func (a *AddressSpace) Unmap(page mm.Page) *kernel.Error {
	var err *kernel.Error

	if page.Address() >= mm.MaxVA {
		return ErrAddressOutOfRange
	}

	walk(a.root, page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		if pteLevel == pageLevels-1 {
			if !pte.HasFlags(FlagValid) {
				err = ErrInvalidMapping
				return false
			}

			pte.ClearFlags(FlagValid)
			sfenceVMAFn()
			return true
		}

		if !pte.HasFlags(FlagValid) {
			err = ErrInvalidMapping
			return false
		}

		if pte.IsLeaf() {
			err = errNoSuperPageSupport
			return false
		}

		return true
	})

	return err
}
