// Package cpu models the architectural state of a single RISC-V hart:
// the general-purpose register file, the supervisor CSRs and the privilege
// level, together with the state transitions the hardware performs on trap
// entry (Trap) and privileged return (SRet).
package cpu

// Reg names a general-purpose register by its ABI mnemonic. The constant
// values follow the architectural register numbering (x0..x31).
type Reg uint8

// General-purpose registers in x0..x31 order.
const (
	Zero Reg = iota // x0, hardwired zero
	RA              // x1, return address
	SP              // x2, stack pointer
	GP              // x3, global pointer
	TP              // x4, thread pointer
	T0
	T1
	T2
	S0 // x8, frame pointer
	S1
	A0 // x10, first argument / return value
	A1
	A2
	A3
	A4
	A5
	A6
	A7 // x17, syscall number
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6

	// NumRegs is the size of the register file.
	NumRegs = 32
)

// CalleeSaved lists the registers the calling convention requires a called
// routine to preserve, in the order they appear in a switch frame.
var CalleeSaved = [12]Reg{S0, S1, S2, S3, S4, S5, S6, S7, S8, S9, S10, S11}

// PrivLevel is a hart privilege level.
type PrivLevel uint8

const (
	// PrivUser is U-mode.
	PrivUser PrivLevel = iota

	// PrivSupervisor is S-mode.
	PrivSupervisor
)

// sstatus bits.
const (
	// StatusSIE enables supervisor interrupts.
	StatusSIE = uint64(1) << 1

	// StatusSPIE holds the interrupt-enable state active before the most
	// recent trap.
	StatusSPIE = uint64(1) << 5

	// StatusSPP holds the privilege level active before the most recent
	// trap (0 = user, 1 = supervisor).
	StatusSPP = uint64(1) << 8
)

// scause encodings. Interrupt causes carry the top bit; exception causes do
// not.
const (
	// CauseInterrupt flags an scause value as an interrupt.
	CauseInterrupt = uint64(1) << 63

	ExcIllegalInstruction = uint64(2)
	ExcStoreFault         = uint64(7)
	ExcUserEnvCall        = uint64(8)
	ExcStorePageFault     = uint64(15)

	IntSupervisorSoft     = CauseInterrupt | 1
	IntSupervisorTimer    = CauseInterrupt | 5
	IntSupervisorExternal = CauseInterrupt | 9
)

// Hart is the architectural state of one hardware thread.
type Hart struct {
	// X is the general-purpose register file. X[0] reads as zero; use
	// SetReg to keep it that way.
	X [NumRegs]uint64

	// PC is the program counter.
	PC uint64

	// Supervisor CSRs.
	Sstatus  uint64
	Sepc     uint64
	Scause   uint64
	Stval    uint64
	Sscratch uint64
	Satp     uint64
	Stvec    uint64

	// Priv is the current privilege level.
	Priv PrivLevel
}

// Reg returns the value of a general-purpose register. Reading x0 always
// yields zero.
func (h *Hart) Reg(r Reg) uint64 {
	if r == Zero {
		return 0
	}
	return h.X[r]
}

// SetReg writes a general-purpose register. Writes to x0 are discarded, as
// on hardware.
func (h *Hart) SetReg(r Reg, val uint64) {
	if r == Zero {
		return
	}
	h.X[r] = val
}

// SwapSscratchSP exchanges sscratch and sp in one step, mirroring the csrrw
// instruction the trampoline uses to bootstrap a save sequence without
// clobbering any register.
func (h *Hart) SwapSscratchSP() {
	h.Sscratch, h.X[SP] = h.X[SP], h.Sscratch
}

// WriteSatp installs a new address-space token, switching the active page
// table root. Callers must issue a translation fence before relying on the
// new translation for any address outside the trampoline page.
func (h *Hart) WriteSatp(token uint64) {
	h.Satp = token
}

// Trap performs the hardware side of trap entry: it records the interrupted
// program counter and the trap cause, stacks the privilege and interrupt
// state into sstatus, raises the hart to S-mode and jumps to the trap vector.
func (h *Hart) Trap(cause, tval uint64) {
	h.Sepc = h.PC
	h.Scause = cause
	h.Stval = tval

	if h.Priv == PrivSupervisor {
		h.Sstatus |= StatusSPP
	} else {
		h.Sstatus &^= StatusSPP
	}
	if h.Sstatus&StatusSIE != 0 {
		h.Sstatus |= StatusSPIE
	} else {
		h.Sstatus &^= StatusSPIE
	}
	h.Sstatus &^= StatusSIE

	h.Priv = PrivSupervisor
	h.PC = h.Stvec
}

// SRet performs the privileged return: it atomically restores the privilege
// level and interrupt state stacked in sstatus and jumps to sepc.
func (h *Hart) SRet() {
	if h.Sstatus&StatusSPP != 0 {
		h.Priv = PrivSupervisor
	} else {
		h.Priv = PrivUser
	}
	if h.Sstatus&StatusSPIE != 0 {
		h.Sstatus |= StatusSIE
	} else {
		h.Sstatus &^= StatusSIE
	}
	h.Sstatus |= StatusSPIE
	h.Sstatus &^= StatusSPP

	h.PC = h.Sepc
}

var (
	// fenceCount tracks issued translation fences so tests can assert a
	// fence was issued after a page-table switch.
	fenceCount uint64
)

// SFenceVMA issues a full translation fence, invalidating any cached
// address-translation state on this hart.
func SFenceVMA() {
	fenceCount++
}

// FenceCount returns the number of translation fences issued since startup.
func FenceCount() uint64 {
	return fenceCount
}

// Halt stops instruction execution, parking the hart in an idle loop it
// never leaves.
func Halt() {
	for {
	}
}
