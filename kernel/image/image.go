// Package image captures the memory-layout contract normally expressed in
// linker scripts: a fixed load base, page-aligned boundaries between
// segments, the trampoline code section placed first in the executable
// segment, and the discarding of non-essential debug sections from user
// images.
package image

import (
	"strings"

	"rvos/kernel"
	"rvos/kernel/mm"
)

var (
	// ErrUnalignedBase is returned when a layout's load base is not
	// page-aligned.
	ErrUnalignedBase = &kernel.Error{Module: "image", Message: "load base is not page-aligned"}

	// ErrTrampolineNotFirst is returned when the trampoline section is
	// present but not the first section of the image.
	ErrTrampolineNotFirst = &kernel.Error{Module: "image", Message: "trampoline section must be placed first in the executable segment"}

	// ErrTrampolineTooBig is returned when the trampoline code does not
	// fit in a single page.
	ErrTrampolineTooBig = &kernel.Error{Module: "image", Message: "trampoline section exceeds one page"}
)

// TrampolineSection is the name of the section holding the trap entry/exit
// code. The kernel layout must place it first so its physical frame is the
// first page of the text segment.
const TrampolineSection = ".text.trampoline"

// Perm describes the access permissions of a section.
type Perm uint8

const (
	// PermR allows reads.
	PermR Perm = 1 << iota

	// PermW allows writes.
	PermW

	// PermX allows instruction fetch.
	PermX
)

// Section describes one input section of an image.
type Section struct {
	Name string
	Size uintptr
	Perm Perm
}

// Placement is a section with its resolved address range. End is always
// page-aligned: the gap between Start+Size and End is padding demanded by
// the contract so that no two sections with different permissions share a
// page.
type Placement struct {
	Section
	Start uintptr
	End   uintptr
}

// Layout describes an image to be placed: a load base, an ordered list of
// sections and an optional set of section-name prefixes to discard before
// placement.
type Layout struct {
	Base     uintptr
	Sections []Section
	Discard  []string
}

// Placements is the resolved form of a layout.
type Placements []Placement

// Place resolves the layout: discarded sections are dropped, every kept
// section starts at the previous section's page-aligned end, and every end
// boundary is rounded up to the next page. A present trampoline section must
// be first and fit in one page.
func (l Layout) Place() (Placements, *kernel.Error) {
	if mm.PageOffset(l.Base) != 0 {
		return nil, ErrUnalignedBase
	}

	var placements Placements
	next := l.Base

	for _, sec := range l.Sections {
		if l.discards(sec.Name) {
			continue
		}

		if sec.Name == TrampolineSection {
			if len(placements) != 0 {
				return nil, ErrTrampolineNotFirst
			}
			if sec.Size > mm.PageSize {
				return nil, ErrTrampolineTooBig
			}
		}

		start := next
		end := mm.AlignUp(start + sec.Size)
		if end == start {
			// Zero-sized sections still claim a page so boundary
			// symbols stay distinct.
			end = start + mm.PageSize
		}

		placements = append(placements, Placement{Section: sec, Start: start, End: end})
		next = end
	}

	return placements, nil
}

// discards reports whether a section name matches one of the layout's
// discard prefixes.
func (l Layout) discards(name string) bool {
	for _, prefix := range l.Discard {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Find returns the placement of the named section, or nil if the section was
// not part of the image.
func (p Placements) Find(name string) *Placement {
	for i := range p {
		if p[i].Name == name {
			return &p[i]
		}
	}
	return nil
}

// ImageEnd returns the first address past the placed image, the equivalent
// of the traditional "end" linker symbol.
func (p Placements) ImageEnd() uintptr {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].End
}

// TrampolineFrame returns the physical frame holding the trampoline code.
// It is the frame every address space maps at mm.TrampolineBase.
func (p Placements) TrampolineFrame() (mm.Frame, *kernel.Error) {
	place := p.Find(TrampolineSection)
	if place == nil {
		return mm.InvalidFrame, ErrTrampolineNotFirst
	}
	return mm.FrameFromAddress(place.Start), nil
}

// KernelLayout returns the layout of the kernel image on the qemu virt
// board: loaded at the start of RAM, trampoline first, then the rest of the
// executable segment and the data segments, each padded to a page boundary.
func KernelLayout(textSize, rodataSize, dataSize, bssSize uintptr) Layout {
	return Layout{
		Base: mm.KernBase,
		Sections: []Section{
			{Name: TrampolineSection, Size: mm.PageSize, Perm: PermR | PermX},
			{Name: ".text", Size: textSize, Perm: PermR | PermX},
			{Name: ".rodata", Size: rodataSize, Perm: PermR},
			{Name: ".data", Size: dataSize, Perm: PermR | PermW},
			{Name: ".bss", Size: bssSize, Perm: PermR | PermW},
		},
	}
}

// UserLayout returns the layout of a user program image: a fixed load base,
// the same page-alignment rule between segments, and the debug sections
// dropped from the final image.
func UserLayout(textSize, rodataSize, dataSize, bssSize uintptr) Layout {
	return Layout{
		Base: mm.UserBase,
		Sections: []Section{
			{Name: ".text", Size: textSize, Perm: PermR | PermX},
			{Name: ".rodata", Size: rodataSize, Perm: PermR},
			{Name: ".data", Size: dataSize, Perm: PermR | PermW},
			{Name: ".bss", Size: bssSize, Perm: PermR | PermW},
			{Name: ".eh_frame", Size: mm.PageSize, Perm: PermR},
			{Name: ".debug_info", Size: mm.PageSize, Perm: PermR},
		},
		Discard: []string{".eh_frame", ".debug"},
	}
}
