package image

import (
	"testing"

	"rvos/kernel/mm"
)

func TestPlaceAlignsEverySection(t *testing.T) {
	l := Layout{
		Base: mm.KernBase,
		Sections: []Section{
			{Name: ".text", Size: 3*mm.PageSize + 17, Perm: PermR | PermX},
			{Name: ".rodata", Size: 1, Perm: PermR},
			{Name: ".data", Size: mm.PageSize, Perm: PermR | PermW},
			{Name: ".bss", Size: 0, Perm: PermR | PermW},
		},
	}

	placements, err := l.Place()
	if err != nil {
		t.Fatal(err)
	}

	if len(placements) != len(l.Sections) {
		t.Fatalf("expected %d placements; got %d", len(l.Sections), len(placements))
	}

	next := l.Base
	for _, place := range placements {
		if place.Start != next {
			t.Errorf("expected section %s to start at %x; got %x", place.Name, next, place.Start)
		}
		if mm.PageOffset(place.Start) != 0 || mm.PageOffset(place.End) != 0 {
			t.Errorf("expected section %s bounds to be page-aligned; got %x-%x", place.Name, place.Start, place.End)
		}
		if place.End < place.Start+place.Size {
			t.Errorf("expected section %s to cover its %d bytes; got %x-%x", place.Name, place.Size, place.Start, place.End)
		}
		if place.End-place.Start >= place.Size+mm.PageSize && place.Size != 0 {
			t.Errorf("expected section %s padding to stay under one page; got %x-%x", place.Name, place.Start, place.End)
		}
		next = place.End
	}

	// A zero-sized section still claims a page so its boundary symbols
	// stay distinct.
	bss := placements.Find(".bss")
	if bss == nil || bss.End-bss.Start != mm.PageSize {
		t.Error("expected the empty .bss to claim exactly one page")
	}

	if got := placements.ImageEnd(); got != next {
		t.Errorf("expected image end %x; got %x", next, got)
	}
}

func TestPlaceUnalignedBase(t *testing.T) {
	l := Layout{
		Base:     mm.KernBase + 0x100,
		Sections: []Section{{Name: ".text", Size: mm.PageSize, Perm: PermR | PermX}},
	}

	if _, err := l.Place(); err != ErrUnalignedBase {
		t.Fatalf("expected to get ErrUnalignedBase; got %v", err)
	}
}

func TestPlaceTrampolineRules(t *testing.T) {
	t.Run("must be first", func(t *testing.T) {
		l := Layout{
			Base: mm.KernBase,
			Sections: []Section{
				{Name: ".text", Size: mm.PageSize, Perm: PermR | PermX},
				{Name: TrampolineSection, Size: mm.PageSize, Perm: PermR | PermX},
			},
		}

		if _, err := l.Place(); err != ErrTrampolineNotFirst {
			t.Fatalf("expected to get ErrTrampolineNotFirst; got %v", err)
		}
	})

	t.Run("must fit one page", func(t *testing.T) {
		l := Layout{
			Base: mm.KernBase,
			Sections: []Section{
				{Name: TrampolineSection, Size: mm.PageSize + 1, Perm: PermR | PermX},
			},
		}

		if _, err := l.Place(); err != ErrTrampolineTooBig {
			t.Fatalf("expected to get ErrTrampolineTooBig; got %v", err)
		}
	})
}

func TestPlaceDiscardsSections(t *testing.T) {
	l := UserLayout(mm.PageSize, mm.PageSize, mm.PageSize, mm.PageSize)

	placements, err := l.Place()
	if err != nil {
		t.Fatal(err)
	}

	if placements.Find(".eh_frame") != nil || placements.Find(".debug_info") != nil {
		t.Error("expected debug sections to be discarded from the user image")
	}
	if placements.Find(".text") == nil {
		t.Error("expected the text section to survive placement")
	}
	if got := placements.Find(".text").Start; got != mm.UserBase {
		t.Errorf("expected the user image to load at %x; got %x", mm.UserBase, got)
	}
}

func TestKernelLayoutTrampolineFrame(t *testing.T) {
	l := KernelLayout(4*mm.PageSize, mm.PageSize, mm.PageSize, 2*mm.PageSize)

	placements, err := l.Place()
	if err != nil {
		t.Fatal(err)
	}

	frame, err := placements.TrampolineFrame()
	if err != nil {
		t.Fatal(err)
	}

	// The trampoline frame is the first physical page of the kernel image.
	if got := frame.Address(); got != mm.KernBase {
		t.Fatalf("expected the trampoline frame at %x; got %x", mm.KernBase, got)
	}
}

func TestTrampolineFrameMissing(t *testing.T) {
	l := UserLayout(mm.PageSize, 0, 0, 0)

	placements, err := l.Place()
	if err != nil {
		t.Fatal(err)
	}

	if _, err = placements.TrampolineFrame(); err != ErrTrampolineNotFirst {
		t.Fatalf("expected a user image to carry no trampoline; got %v", err)
	}
}
