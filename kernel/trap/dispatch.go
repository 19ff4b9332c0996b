package trap

import (
	"rvos/kernel/cpu"
	"rvos/kernel/kfmt"
	"rvos/kernel/mm"
)

// Outcome is the dispatcher's verdict on a trap. The layers above this
// package (the task processor) decide how to act on it; the trampoline
// itself never interprets trap causes.
type Outcome uint8

const (
	// OutcomeResume resumes the trapped task as if nothing happened.
	OutcomeResume Outcome = iota

	// OutcomeYield hands the hart to the scheduler before resuming.
	OutcomeYield

	// OutcomeKill terminates the trapped task.
	OutcomeKill

	// OutcomeFatal marks a trap the kernel cannot attribute to a task.
	OutcomeFatal
)

// SyscallFn handles a system call: the selector arrives in a7 and up to
// three arguments in a0-a2; the return value is stored back into a0.
type SyscallFn func(num uint64, args [3]uint64) uint64

var (
	// syscallFn is the registered system call handler.
	syscallFn SyscallFn

	// timerRearmFn reprograms the timer for the next tick when a timer
	// interrupt is taken.
	timerRearmFn func()
)

// SetSyscallHandler registers the system call handler invoked for user
// environment calls.
func SetSyscallHandler(fn SyscallFn) { syscallFn = fn }

// SetTimerRearm registers the callback that schedules the next timer tick.
func SetTimerRearm(fn func()) { timerRearmFn = fn }

// HandleTrap interprets the cause of the trap whose context was saved in f
// and returns the outcome. It mutates only the frame; the interrupted
// context itself is opaque data faithfully delivered by the trampoline.
func HandleTrap(h *cpu.Hart, f Frame) Outcome {
	scause := h.Scause
	stval := h.Stval

	switch scause {
	case cpu.ExcUserEnvCall:
		// Resume past the ecall instruction.
		f.SetSepc(f.Sepc() + 4)
		if syscallFn == nil {
			kfmt.Printf("[trap] no syscall handler registered, task killed\n")
			return OutcomeKill
		}
		ret := syscallFn(f.Reg(cpu.A7), [3]uint64{f.Reg(cpu.A0), f.Reg(cpu.A1), f.Reg(cpu.A2)})
		f.SetReg(cpu.A0, ret)
		return OutcomeResume

	case cpu.ExcStoreFault, cpu.ExcStorePageFault:
		kfmt.Printf("[trap] bad store at %x, task killed\n", uint64(stval))
		return OutcomeKill

	case cpu.ExcIllegalInstruction:
		kfmt.Printf("[trap] illegal instruction at %x, task killed\n", f.Sepc())
		return OutcomeKill

	case cpu.IntSupervisorTimer:
		if timerRearmFn != nil {
			timerRearmFn()
		}
		return OutcomeYield

	case cpu.IntSupervisorSoft, cpu.IntSupervisorExternal:
		return OutcomeResume

	default:
		kfmt.Printf("[trap] unhandled cause %x, stval %x\n", scause, uint64(stval))
		DumpFrame(f)
		return OutcomeFatal
	}
}

// Deliver runs a complete trap round trip on the hart: the hardware entry,
// the trampoline save path, the dispatcher, and, when the outcome allows it,
// the trampoline exit back into the address space named by resumeToken. The
// outcome is returned so the caller can schedule or reap the task on yields
// and kills.
func Deliver(h *cpu.Hart, cause, tval, resumeToken uint64) Outcome {
	h.Trap(cause, tval)

	f := Enter(h)
	outcome := HandleTrap(h, f)

	if outcome == OutcomeResume {
		Return(h, resumeVA(f), resumeToken)
	}
	return outcome
}

// resumeVA is the virtual address the execution context is reachable at in
// the address space it resumes into.
func resumeVA(f Frame) uintptr {
	if f.Layout() == LayoutBare {
		return f.PhysAddr()
	}
	return mm.TrapFrameBase
}

// DumpFrame prints the saved register file of a trap frame to the active
// console.
func DumpFrame(f Frame) {
	kfmt.Printf("ra  = %16x sp  = %16x\n", f.Reg(cpu.RA), f.Reg(cpu.SP))
	kfmt.Printf("gp  = %16x tp  = %16x\n", f.Reg(cpu.GP), f.Reg(cpu.TP))
	kfmt.Printf("t0  = %16x t1  = %16x t2  = %16x\n", f.Reg(cpu.T0), f.Reg(cpu.T1), f.Reg(cpu.T2))
	kfmt.Printf("s0  = %16x s1  = %16x\n", f.Reg(cpu.S0), f.Reg(cpu.S1))
	kfmt.Printf("a0  = %16x a1  = %16x a2  = %16x\n", f.Reg(cpu.A0), f.Reg(cpu.A1), f.Reg(cpu.A2))
	kfmt.Printf("a3  = %16x a4  = %16x a5  = %16x\n", f.Reg(cpu.A3), f.Reg(cpu.A4), f.Reg(cpu.A5))
	kfmt.Printf("a6  = %16x a7  = %16x\n", f.Reg(cpu.A6), f.Reg(cpu.A7))
	kfmt.Printf("sepc = %16x sstatus = %16x\n", f.Sepc(), f.Sstatus())
}
