package trap

import (
	"rvos/kernel/cpu"
	"rvos/kernel/mm"
	"rvos/kernel/mm/vmm"
)

var (
	// switchSatpFn is used by tests to observe the page-table switches
	// the trampoline performs.
	switchSatpFn = (*cpu.Hart).WriteSatp

	// sfenceVMAFn is used by tests to verify the mandatory translation
	// fence ordering around each page-table switch.
	sfenceVMAFn = cpu.SFenceVMA

	// translateFn resolves a virtual address through the page tables
	// named by a satp token. Tests override it to inject synthetic
	// translations.
	translateFn = translate

	// layout is the frame layout the trampoline was configured with.
	layout = LayoutFull

	// kernelEnv supplies the kernel environment for the bare layout,
	// where the frame does not embed it.
	kernelEnv KernelEnv
)

// KernelEnv carries the kernel-side state the trampoline needs to leave a
// user address space: the kernel's address-space token, the kernel stack to
// continue on and the trap handler entry point.
type KernelEnv struct {
	Satp     uint64
	StackTop uint64
	Handler  uint64
}

// Init configures the trampoline for the selected frame layout and points
// the hart's trap vector at the trampoline entry. The trampoline page is
// mapped at mm.TrampolineBase in every address space, so the vector stays
// valid no matter which page table is live when a trap fires.
func Init(h *cpu.Hart, l FrameLayout, env KernelEnv) {
	layout = l
	kernelEnv = env
	h.Stvec = uint64(mm.TrampolineBase)
}

// translate resolves virtAddr through the page tables named by token. A
// token without a translation mode (satp zero) means translation is off and
// physical addresses are used directly.
func translate(token uint64, virtAddr uintptr) uintptr {
	if token>>60 == 0 {
		return virtAddr
	}

	physAddr, err := vmm.AddressSpaceOfToken(token).Translate(virtAddr)
	if err != nil {
		// A trap frame that does not resolve is a malformed execution
		// context; there is no error path inside the trampoline.
		panic("trap: execution context is not mapped: " + err.Message)
	}
	return physAddr
}

// Enter performs the software side of trap entry, picking up the hart right
// after the hardware transferred control to the trap vector. It saves the
// interrupted context into the task's trap frame, switches to the kernel
// page table and kernel stack, and leaves the hart at the trap handler entry
// point. The returned Frame is the kernel-addressable view of the saved
// context.
//
// Enter is not an ordinary function call on real hardware; it models code
// that is entered with nothing but sscratch to stand on.
func Enter(h *cpu.Hart) Frame {
	// One atomic exchange: sp now addresses the execution context while
	// sscratch preserves the interrupted stack pointer.
	h.SwapSscratchSP()

	frameVA := uintptr(h.Reg(cpu.SP))
	if layout == LayoutBare {
		// The bare trampoline carves the frame out of the kernel stack
		// on every trap.
		frameVA -= layout.Bytes()
		h.SetReg(cpu.SP, uint64(frameVA))
	}

	f := FrameAt(translateFn(h.Satp, frameVA), layout)

	// Save every general-purpose register except x0 (hardwired), x2 (the
	// stack pointer, recovered from sscratch below) and x4 (the thread
	// pointer, unused by the tasks this kernel runs).
	for r := cpu.RA; r < cpu.NumRegs; r++ {
		if r == cpu.SP || r == cpu.TP {
			continue
		}
		f.SetReg(r, h.Reg(r))
	}

	// The status register and the trap-time program counter belong to
	// the context too; a nested trap would overwrite the CSRs.
	f.SetSstatus(h.Sstatus)
	f.SetSepc(h.Sepc)

	// The interrupted stack pointer survived the entry swap in sscratch.
	f.SetReg(cpu.SP, h.Sscratch)

	env := kernelEnv
	if f.HasKernelFields() {
		env = KernelEnv{Satp: f.KernelSatp(), StackTop: f.KernelSP(), Handler: f.Handler()}
	}

	// Leave the user address space. The fence must follow the satp write
	// before any access outside the trampoline page; only the trampoline
	// mapping itself is guaranteed identical across the switch.
	if layout == LayoutFull {
		switchSatpFn(h, env.Satp)
		sfenceVMAFn()
		h.SetReg(cpu.SP, env.StackTop)
	}

	// Hand the context to the kernel: a0 carries the frame pointer for
	// the bare layout's ordinary call contract.
	if layout == LayoutBare {
		h.SetReg(cpu.A0, uint64(frameVA))
	}
	h.PC = env.Handler

	return f
}

// Return performs the software side of trap exit: given the virtual address
// of an execution context and the address-space token to resume into, it
// reinstates the saved context and executes the privileged return. On the
// way out the stack pointer is restored last; once it stops addressing the
// frame no further frame reads are possible.
func Return(h *cpu.Hart, ctxVA uintptr, token uint64) {
	// Switch to the target address space first: the context must be read
	// through the mapping it will be resumed under.
	switchSatpFn(h, token)
	sfenceVMAFn()

	f := FrameAt(translateFn(token, ctxVA), layout)

	// Arm sscratch for the next trap entry and address the frame.
	if layout == LayoutBare {
		h.Sscratch = uint64(ctxVA + layout.Bytes())
	} else {
		h.Sscratch = uint64(ctxVA)
	}
	h.SetReg(cpu.SP, uint64(ctxVA))

	h.Sstatus = f.Sstatus()
	h.Sepc = f.Sepc()

	for r := cpu.RA; r < cpu.NumRegs; r++ {
		if r == cpu.SP || r == cpu.TP {
			continue
		}
		h.SetReg(r, f.Reg(r))
	}

	// The stack pointer leaves the frame last.
	h.SetReg(cpu.SP, f.Reg(cpu.SP))

	h.SRet()
}
