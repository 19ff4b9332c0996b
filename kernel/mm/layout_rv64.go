package mm

// Virtual and physical memory layout for the qemu "virt" board.
//
// Physical RAM starts at KernBase where the firmware jumps into the kernel
// image; everything between the end of the image and PhysTop is handed to the
// frame allocator.
//
// The top of the kernel virtual address space is laid out as follows:
//
//	TrampolineBase  the trampoline code page, mapped at the same virtual
//	                address in the kernel and in every user address space
//	KernelStackVA   per-task kernel stacks below the trampoline, each
//	                followed by an unmapped guard page
//
// A user address space reuses TrampolineBase for the same physical trampoline
// page and places the task's trap frame in the page directly below it.
const (
	// KernBase is the physical load address of the kernel image.
	KernBase = uintptr(0x80000000)

	// PhysTop is the end of the RAM available to the kernel.
	PhysTop = KernBase + 128*1024*1024

	// UserBase is the load address of user program images.
	UserBase = uintptr(0x10000)

	// TrampolineBase is the virtual address of the trampoline code page.
	// It is shared configuration: the page-table construction code and
	// the linker layout both derive their placement from it and it must
	// never differ between address spaces.
	TrampolineBase = MaxVA - PageSize

	// TrapFrameBase is the virtual address of a task's trap frame in its
	// user address space, directly below the trampoline page.
	TrapFrameBase = TrampolineBase - PageSize

	// KernelStackSize is the size of a per-task kernel stack.
	KernelStackSize = 2 * PageSize
)

// KernelStackRange returns the bottom and top virtual addresses of the kernel
// stack for the given task slot. Stacks grow down from just below the
// trampoline page and each stack is followed by an unmapped guard page that
// turns an overflow into a page fault instead of silent corruption.
func KernelStackRange(slot int) (bottom, top uintptr) {
	top = TrampolineBase - uintptr(slot)*(KernelStackSize+PageSize) - PageSize
	bottom = top - KernelStackSize
	return bottom, top
}
