package vmm

import (
	"rvos/kernel"
	"rvos/kernel/cpu"
	"rvos/kernel/mm"
)

var (
	// switchSatpFn is used by tests to observe address-space switches
	// without a hart CSR write.
	switchSatpFn = (*cpu.Hart).WriteSatp

	// sfenceVMAFn is used by tests to verify that a translation fence is
	// issued after every page-table change.
	sfenceVMAFn = cpu.SFenceVMA
)

// AddressSpace describes one Sv39 address space: a tree of page table frames
// hanging off a single root frame. The root frame doubles as the address
// space identity; packed into a satp value it becomes the opaque token the
// trampoline uses to switch spaces mid-trap.
type AddressSpace struct {
	root mm.Frame
}

// NewAddressSpace allocates and clears a root page table frame and returns
// the empty address space built on it.
func NewAddressSpace() (*AddressSpace, *kernel.Error) {
	root, err := mm.AllocFrame()
	if err != nil {
		return nil, err
	}
	kernel.Memset(root.Address(), 0, mm.PageSize)

	return &AddressSpace{root: root}, nil
}

// AddressSpaceOfToken reconstructs an address space handle from a satp
// token. The token carries no ownership; the page tables it names must be
// kept alive by whoever minted it.
func AddressSpaceOfToken(token uint64) *AddressSpace {
	return &AddressSpace{root: mm.Frame(token & satpPPNMask)}
}

// Root returns the root page table frame of this address space.
func (a *AddressSpace) Root() mm.Frame {
	return a.root
}

// Token packs this address space's root frame into a satp value with the
// Sv39 mode bits set. The result is the address-space token consumed by
// Activate and by the trap trampoline.
func (a *AddressSpace) Token() uint64 {
	return satpModeSv39 | uint64(a.root)&satpPPNMask
}

// Activate installs this address space's token on the supplied hart and
// issues the mandatory translation fence.
func (a *AddressSpace) Activate(h *cpu.Hart) {
	switchSatpFn(h, a.Token())
	sfenceVMAFn()
}

// MapTrampoline maps the shared trampoline code frame at mm.TrampolineBase.
// Every address space must carry this mapping at the identical virtual
// address; it is what keeps the program counter valid across the page-table
// switch inside the trampoline. The mapping is supervisor-only, executable
// and global.
func (a *AddressSpace) MapTrampoline(trampolineFrame mm.Frame) *kernel.Error {
	return a.Map(mm.PageFromAddress(mm.TrampolineBase), trampolineFrame, FlagRead|FlagExec|FlagGlobal)
}
