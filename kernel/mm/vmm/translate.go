package vmm

import (
	"rvos/kernel"
	"rvos/kernel/mm"
)

// Translate returns the physical address that corresponds to the supplied
// virtual address in this address space, or ErrInvalidMapping if the address
// does not resolve to a mapped physical page.
func (a *AddressSpace) Translate(virtAddr uintptr) (uintptr, *kernel.Error) {
	var (
		physAddr uintptr
		err      *kernel.Error
	)

	if virtAddr >= mm.MaxVA {
		return 0, ErrAddressOutOfRange
	}

	walk(a.root, virtAddr, func(pteLevel uint8, pte *pageTableEntry) bool {
		if !pte.HasFlags(FlagValid) {
			err = ErrInvalidMapping
			return false
		}

		if pteLevel == pageLevels-1 {
			if !pte.IsLeaf() {
				err = ErrInvalidMapping
				return false
			}

			physAddr = pte.Frame().Address() + mm.PageOffset(virtAddr)
			return true
		}

		if pte.IsLeaf() {
			err = errNoSuperPageSupport
			return false
		}

		return true
	})

	return physAddr, err
}
