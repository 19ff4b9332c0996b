package task

import (
	"testing"

	"rvos/kernel/cpu"
)

func TestSwitchPreservesCalleeSaved(t *testing.T) {
	defer func(origFn func(*Context)) { finishFn = origFn }(finishFn)
	finishFn = func(*Context) {
		t.Error("expected the task entry not to return")
	}

	hart := new(cpu.Hart)
	main := NewBootstrapContext()

	var (
		taskCtx *Context
		entryRA uint64
		entrySP uint64
	)
	taskCtx = NewContext(func() {
		entryRA = hart.Reg(cpu.RA)
		entrySP = hart.Reg(cpu.SP)

		// Clobber the callee-saved set before handing the hart back.
		for i, r := range cpu.CalleeSaved {
			hart.SetReg(r, 5000+uint64(i))
		}
		Switch(hart, taskCtx, main)
	}, 0xcafe_0000)

	// Sentinel values that must survive the round trip.
	for i, r := range cpu.CalleeSaved {
		hart.SetReg(r, 1000+uint64(i))
	}
	hart.SetReg(cpu.RA, 0x1111)
	hart.SetReg(cpu.SP, 0x2222)

	Switch(hart, main, taskCtx)

	// The bootstrap context starts at the entry stub with the task stack.
	if entryRA != entryStubPC {
		t.Errorf("expected the first switch to land on the entry stub; got ra=%x", entryRA)
	}
	if entrySP != 0xcafe_0000 {
		t.Errorf("expected the task kernel stack; got sp=%x", entrySP)
	}

	// Back on the main context the callee-saved set is restored.
	for i, r := range cpu.CalleeSaved {
		if got := hart.Reg(r); got != 1000+uint64(i) {
			t.Errorf("expected s%d to be restored to %d; got %d", i, 1000+i, got)
		}
	}
	if hart.Reg(cpu.RA) != 0x1111 || hart.Reg(cpu.SP) != 0x2222 {
		t.Errorf("expected ra/sp to be restored; got %x/%x", hart.Reg(cpu.RA), hart.Reg(cpu.SP))
	}
	if hart.PC != 0x1111 {
		t.Errorf("expected execution to continue at the saved return address; got %x", hart.PC)
	}

	// The task context captured the clobbered values when it left.
	for i := range cpu.CalleeSaved {
		if got := taskCtx.S(i); got != 5000+uint64(i) {
			t.Errorf("expected the task context to hold s%d=%d; got %d", i, 5000+i, got)
		}
	}
}

func TestSwitchHandOffOrder(t *testing.T) {
	defer func(origFn func(*Context)) { finishFn = origFn }(finishFn)
	finishFn = func(*Context) {}

	hart := new(cpu.Hart)
	main := NewBootstrapContext()

	var (
		order []int
		a, b  *Context
	)
	a = NewContext(func() {
		order = append(order, 1)
		Switch(hart, a, b)
	}, 0x1000)
	b = NewContext(func() {
		order = append(order, 2)
		Switch(hart, b, main)
	}, 0x2000)

	Switch(hart, main, a)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected the hand-off chain to run the tasks in order; got %v", order)
	}
}

func TestSwitchResumesSuspendedContext(t *testing.T) {
	defer func(origFn func(*Context)) { finishFn = origFn }(finishFn)
	finishFn = func(*Context) {}

	hart := new(cpu.Hart)
	main := NewBootstrapContext()

	var (
		order    []int
		resumedS []uint64
		a, b     *Context
	)
	a = NewContext(func() {
		order = append(order, 1)

		// Values that must survive a's suspension while b runs.
		for i, r := range cpu.CalleeSaved {
			hart.SetReg(r, 7000+uint64(i))
		}
		Switch(hart, a, b)

		// a resumes mid-body with its callee-saved set intact.
		order = append(order, 3)
		for _, r := range cpu.CalleeSaved {
			resumedS = append(resumedS, hart.Reg(r))
		}
		Switch(hart, a, main)
	}, 0x1000)
	b = NewContext(func() {
		order = append(order, 2)
		for _, r := range cpu.CalleeSaved {
			hart.SetReg(r, 0xdead)
		}
		Switch(hart, b, a)
	}, 0x2000)

	Switch(hart, main, a)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected a to resume past its switch after b handed back; got %v", order)
	}
	for i, got := range resumedS {
		if got != 7000+uint64(i) {
			t.Errorf("expected resumed a to see s%d=%d; got %d", i, 7000+i, got)
		}
	}
}

func TestContextAccessors(t *testing.T) {
	c := NewBootstrapContext()

	c.SetRA(0xabcd)
	c.SetSP(0x1234)

	if c.RA() != 0xabcd || c.SP() != 0x1234 {
		t.Fatalf("expected accessors to read back stored values; got ra=%x sp=%x", c.RA(), c.SP())
	}
}
