package vmm

import (
	"testing"

	"rvos/kernel/mm"
	"rvos/kernel/mm/pmm"
)

func TestTranslateUnmapped(t *testing.T) {
	pmm.Init(0)

	asp, err := NewAddressSpace()
	if err != nil {
		t.Fatal(err)
	}

	if _, err = asp.Translate(uintptr(0x4000_0000)); err != ErrInvalidMapping {
		t.Fatalf("expected to get ErrInvalidMapping; got %v", err)
	}
}

func TestTranslateOutOfRange(t *testing.T) {
	pmm.Init(0)

	asp, err := NewAddressSpace()
	if err != nil {
		t.Fatal(err)
	}

	if _, err = asp.Translate(mm.MaxVA + 0x1000); err != ErrAddressOutOfRange {
		t.Fatalf("expected to get ErrAddressOutOfRange; got %v", err)
	}
}

func TestTranslateStopsAtNonLeaf(t *testing.T) {
	defer func(origFn func()) { sfenceVMAFn = origFn }(sfenceVMAFn)
	sfenceVMAFn = func() {}

	pmm.Init(0)

	asp, err := NewAddressSpace()
	if err != nil {
		t.Fatal(err)
	}

	frame, err := mm.AllocFrame()
	if err != nil {
		t.Fatal(err)
	}

	virtAddr := uintptr(0x4000_0000)
	if err = asp.Map(mm.PageFromAddress(virtAddr), frame, FlagRead); err != nil {
		t.Fatal(err)
	}

	// Strip the permission bits off the leaf so the entry degenerates into
	// a table pointer; the walk must refuse to treat it as a mapping.
	walk(asp.root, virtAddr, func(pteLevel uint8, pte *pageTableEntry) bool {
		if pteLevel == pageLevels-1 {
			pte.ClearFlags(FlagRead | FlagWrite | FlagExec)
			return false
		}
		return true
	})

	if _, err = asp.Translate(virtAddr); err != ErrInvalidMapping {
		t.Fatalf("expected to get ErrInvalidMapping; got %v", err)
	}
}
