package vmm

const (
	// pageLevels indicates the number of translation levels used by the
	// Sv39 scheme.
	pageLevels = 3

	// pageLevelBits defines the number of virtual address bits consumed
	// by each page level. Sv39 uses 9 bits (512 entries) per level.
	pageLevelBits = 9

	// ptePPNShift is the bit position of the physical page number inside
	// a page table entry.
	ptePPNShift = 10

	// ptePPNMask extracts the physical page number from a page table
	// entry after shifting by ptePPNShift (bits 10-53 of the entry).
	ptePPNMask = uintptr(1)<<44 - 1

	// satpModeSv39 is the translation-mode field value selecting Sv39,
	// stored in the top four bits of the satp CSR.
	satpModeSv39 = uint64(8) << 60

	// satpPPNMask extracts the root page number from a satp value.
	satpPPNMask = uint64(1)<<44 - 1
)

// pageLevelShifts defines the shift required to extract each page table
// index from a virtual address.
var pageLevelShifts = [pageLevels]uint8{30, 21, 12}

const (
	// FlagValid is set when the entry holds a live translation. A clear
	// entry terminates the walk with a page fault on real hardware.
	FlagValid PageTableEntryFlag = 1 << iota

	// FlagRead allows loads through this mapping.
	FlagRead

	// FlagWrite allows stores through this mapping.
	FlagWrite

	// FlagExec allows instruction fetch through this mapping.
	FlagExec

	// FlagUser allows U-mode access through this mapping.
	FlagUser

	// FlagGlobal marks the mapping as present in all address spaces, so
	// a page-table switch does not invalidate it.
	FlagGlobal

	// FlagAccessed is set by hardware when the page is referenced.
	FlagAccessed

	// FlagDirty is set by hardware when the page is written.
	FlagDirty
)
