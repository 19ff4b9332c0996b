// Package pmm provides the physical memory arena backing the machine model.
// Frames are carved out of host memory, page-aligned and pinned for the
// lifetime of the arena, so a mm.Frame address can be dereferenced exactly
// like a physical address on real hardware.
package pmm

import (
	"unsafe"

	"rvos/kernel"
	"rvos/kernel/mm"
)

var (
	// ErrOutOfMemory is returned when the arena cannot hand out any more
	// frames.
	ErrOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of physical frames"}

	arena frameArena
)

// frameArena hands out page-aligned frames from host-allocated blocks. The
// backing slices are retained so the frames stay pinned; frames are never
// returned individually (boot-memory style arena).
type frameArena struct {
	// blocks pins the host allocations that back handed-out frames.
	blocks [][]byte

	// frames maps each handed-out frame to its backing bytes.
	frames map[mm.Frame][]byte

	// limit caps the number of frames the arena will hand out. Zero
	// means no cap.
	limit int
}

// Init resets the arena. A non-zero maxFrames caps the number of frames the
// arena will hand out, letting callers exercise allocation failures. Init
// also registers the arena with the mm frame allocator seam.
func Init(maxFrames int) {
	arena = frameArena{
		frames: make(map[mm.Frame][]byte),
		limit:  maxFrames,
	}
	mm.SetFrameAllocator(AllocFrame)
}

// AllocFrame reserves a zeroed, page-aligned frame and returns it. The frame
// contents stay resident until the next call to Init.
func AllocFrame() (mm.Frame, *kernel.Error) {
	if arena.frames == nil {
		Init(0)
	}
	if arena.limit != 0 && len(arena.frames) >= arena.limit {
		return mm.InvalidFrame, ErrOutOfMemory
	}

	// Over-allocate by one page so a page-aligned window always fits.
	block := make([]byte, 2*mm.PageSize)
	arena.blocks = append(arena.blocks, block)

	base := mm.AlignUp(uintptr(unsafe.Pointer(&block[0])))
	off := base - uintptr(unsafe.Pointer(&block[0]))
	frame := mm.FrameFromAddress(base)
	arena.frames[frame] = block[off : off+mm.PageSize]

	return frame, nil
}

// FrameSlice returns the bytes backing a frame handed out by this arena, or
// nil if the frame is not one of ours.
func FrameSlice(frame mm.Frame) []byte {
	return arena.frames[frame]
}

// Owns reports whether the supplied physical address falls inside a frame
// handed out by this arena.
func Owns(physAddr uintptr) bool {
	_, ok := arena.frames[mm.FrameFromAddress(physAddr)]
	return ok
}

// Word reads the machine word at the supplied physical address. The address
// must be word-aligned and belong to an arena frame.
func Word(physAddr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(physAddr))
}

// SetWord stores a machine word at the supplied physical address. The
// address must be word-aligned and belong to an arena frame.
func SetWord(physAddr uintptr, val uint64) {
	*(*uint64)(unsafe.Pointer(physAddr)) = val
}
