package vmm

import (
	"rvos/kernel"
	"rvos/kernel/mm"
)

var (
	// ErrInvalidMapping is returned when trying to look up a virtual
	// memory address that is not yet mapped.
	ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

	// ErrRemapped is returned when trying to map a virtual page that
	// already holds a live translation.
	ErrRemapped = &kernel.Error{Module: "vmm", Message: "virtual page is already mapped"}

	// ErrAddressOutOfRange is returned when a virtual address exceeds
	// the translatable range.
	ErrAddressOutOfRange = &kernel.Error{Module: "vmm", Message: "virtual address exceeds the Sv39 range"}
)

// PageTableEntryFlag describes a flag that can be applied to a page table entry.
type PageTableEntryFlag uintptr

// pageTableEntry describes an Sv39 page table entry: a physical page number
// at bits 10-53 and the permission/status flags in the low bits. An entry
// with any of R/W/X set is a leaf; an entry with only FlagValid points at
// the next-level table.
type pageTableEntry uintptr

// HasFlags returns true if this entry has all the input flags set.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return (uintptr(pte) & uintptr(flags)) == uintptr(flags)
}

// HasAnyFlag returns true if this entry has at least one of the input flags set.
func (pte pageTableEntry) HasAnyFlag(flags PageTableEntryFlag) bool {
	return (uintptr(pte) & uintptr(flags)) != 0
}

// SetFlags sets the input list of flags on the page table entry.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) | uintptr(flags))
}

// ClearFlags unsets the input list of flags from the page table entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) &^ uintptr(flags))
}

// IsLeaf returns true if this entry maps a physical page rather than
// pointing at a next-level table.
func (pte pageTableEntry) IsLeaf() bool {
	return pte.HasAnyFlag(FlagRead | FlagWrite | FlagExec)
}

// Frame returns the physical page frame that this page table entry points to.
func (pte pageTableEntry) Frame() mm.Frame {
	return mm.Frame((uintptr(pte) >> ptePPNShift) & ptePPNMask)
}

// SetFrame updates the page table entry to point to the given physical frame.
func (pte *pageTableEntry) SetFrame(frame mm.Frame) {
	*pte = pageTableEntry(uintptr(*pte)&^(ptePPNMask<<ptePPNShift) | uintptr(frame)<<ptePPNShift)
}
