package mm

const (
	// PointerShift is equal to log2(unsafe.Sizeof(uintptr)). The pointer
	// size for this architecture is defined as (1 << PointerShift).
	PointerShift = uintptr(3)

	// WordSize is the machine word size in bytes.
	WordSize = uintptr(1 << PointerShift)

	// PageShift is equal to log2(PageSize). This constant is used when
	// we need to convert a physical address to a page number (shift right
	// by PageShift) and vice-versa.
	PageShift = uintptr(12)

	// PageSize defines the system's page size in bytes.
	PageSize = uintptr(1 << PageShift)

	// PageLevels indicates the number of page table levels used by the
	// Sv39 translation scheme.
	PageLevels = 3

	// MaxVA is one past the highest virtual address the kernel uses. Sv39
	// supports 39 VA bits but the top bit is avoided so that addresses do
	// not require sign extension.
	MaxVA = uintptr(1) << 38
)
