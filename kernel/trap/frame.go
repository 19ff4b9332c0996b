// Package trap implements the trap trampoline: the code path that carries a
// hart between user-mode execution and the supervisor trap handler, swapping
// page tables mid-flight, plus the trap-cause dispatcher that runs on the
// kernel side.
//
// The trap frame is a fixed array of machine words accessed only through the
// Frame view in this package. The word offsets below are a hardware/software
// contract shared with the trampoline save/restore sequences; reordering any
// field is a breaking change to every consumer at once.
package trap

import (
	"rvos/kernel/cpu"
	"rvos/kernel/mm"
	"rvos/kernel/mm/pmm"
)

// Word offsets into a trap frame. Offsets 1-31 hold the general-purpose
// registers x1-x31 at their architectural register number; slot 0 (x0) is
// never written. Slot 2 holds the interrupted stack pointer, recovered from
// sscratch during trap entry. The three kernel fields exist only in the full
// layout.
const (
	frameSstatus    = 32
	frameSepc       = 33
	frameKernelSatp = 34
	frameKernelSP   = 35
	frameHandler    = 36

	bareFrameWords = 34
	fullFrameWords = 37
)

// FrameLayout selects one of the two observed trap frame revisions. The
// choice is build configuration: it must match the trampoline the kernel was
// linked with and never vary at runtime.
type FrameLayout uint8

const (
	// LayoutFull is the 37-word frame that embeds the kernel address
	// space token, kernel stack pointer and handler entry point, letting
	// the trampoline find them from inside a user address space.
	LayoutFull FrameLayout = iota

	// LayoutBare is the 34-word frame used before paging is enabled; the
	// frame is pushed onto the kernel stack on every trap and the kernel
	// environment comes from trampoline configuration instead.
	LayoutBare
)

// Words returns the number of machine words in a frame with this layout.
func (l FrameLayout) Words() int {
	if l == LayoutBare {
		return bareFrameWords
	}
	return fullFrameWords
}

// Bytes returns the size in bytes of a frame with this layout.
func (l FrameLayout) Bytes() uintptr {
	return uintptr(l.Words()) * mm.WordSize
}

// Frame is a view over a trap frame resident in physical memory. It is the
// only sanctioned way to read or mutate frame fields; the raw offsets stay
// private to this package.
type Frame struct {
	pa     uintptr
	layout FrameLayout
}

// FrameAt returns a view over the trap frame at the given physical address.
func FrameAt(physAddr uintptr, layout FrameLayout) Frame {
	return Frame{pa: physAddr, layout: layout}
}

// PhysAddr returns the physical address of the frame.
func (f Frame) PhysAddr() uintptr {
	return f.pa
}

// Layout returns the frame's layout revision.
func (f Frame) Layout() FrameLayout {
	return f.layout
}

func (f Frame) word(idx int) uint64 {
	return pmm.Word(f.pa + uintptr(idx)*mm.WordSize)
}

func (f Frame) setWord(idx int, val uint64) {
	pmm.SetWord(f.pa+uintptr(idx)*mm.WordSize, val)
}

// Reg returns the saved value of a general-purpose register. Reading x0
// yields zero without touching the frame.
func (f Frame) Reg(r cpu.Reg) uint64 {
	if r == cpu.Zero {
		return 0
	}
	return f.word(int(r))
}

// SetReg updates the saved value of a general-purpose register. Writes to x0
// are discarded.
func (f Frame) SetReg(r cpu.Reg, val uint64) {
	if r == cpu.Zero {
		return
	}
	f.setWord(int(r), val)
}

// Sstatus returns the saved supervisor status register.
func (f Frame) Sstatus() uint64 { return f.word(frameSstatus) }

// SetSstatus updates the saved supervisor status register.
func (f Frame) SetSstatus(val uint64) { f.setWord(frameSstatus, val) }

// Sepc returns the saved program counter the trapped task resumes at.
func (f Frame) Sepc() uint64 { return f.word(frameSepc) }

// SetSepc updates the saved program counter.
func (f Frame) SetSepc(val uint64) { f.setWord(frameSepc, val) }

// HasKernelFields reports whether this frame embeds the kernel environment.
func (f Frame) HasKernelFields() bool { return f.layout == LayoutFull }

// KernelSatp returns the embedded kernel address-space token.
func (f Frame) KernelSatp() uint64 { return f.kernelWord(frameKernelSatp) }

// SetKernelSatp updates the embedded kernel address-space token.
func (f Frame) SetKernelSatp(val uint64) { f.setKernelWord(frameKernelSatp, val) }

// KernelSP returns the embedded kernel stack pointer.
func (f Frame) KernelSP() uint64 { return f.kernelWord(frameKernelSP) }

// SetKernelSP updates the embedded kernel stack pointer.
func (f Frame) SetKernelSP(val uint64) { f.setKernelWord(frameKernelSP, val) }

// Handler returns the embedded trap handler entry point.
func (f Frame) Handler() uint64 { return f.kernelWord(frameHandler) }

// SetHandler updates the embedded trap handler entry point.
func (f Frame) SetHandler(val uint64) { f.setKernelWord(frameHandler, val) }

func (f Frame) kernelWord(idx int) uint64 {
	if !f.HasKernelFields() {
		panic("trap: bare frame layout has no kernel fields")
	}
	return f.word(idx)
}

func (f Frame) setKernelWord(idx int, val uint64) {
	if !f.HasKernelFields() {
		panic("trap: bare frame layout has no kernel fields")
	}
	f.setWord(idx, val)
}

// InitUserFrame populates a frame so that a trampoline exit through it drops
// the hart into user mode at entry with the supplied user stack. The saved
// sstatus selects user mode in SPP and re-enables interrupts on return. For
// the full layout the kernel environment is embedded so the next trap entry
// can find its way back.
func InitUserFrame(f Frame, entry, userSP uint64, env KernelEnv) {
	for i := 1; i < f.layout.Words(); i++ {
		f.setWord(i, 0)
	}

	f.SetReg(cpu.SP, userSP)
	f.SetSstatus(cpu.StatusSPIE)
	f.SetSepc(entry)

	if f.HasKernelFields() {
		f.SetKernelSatp(env.Satp)
		f.SetKernelSP(env.StackTop)
		f.SetHandler(env.Handler)
	}
}
