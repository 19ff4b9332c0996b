package task

import (
	"rvos/kernel/cpu"
)

// Switch hands the hart from the task owning cur to the task owning next.
// It saves the return address, stack pointer and callee-saved registers into
// cur, loads the same set from next, and transfers control. Caller-saved
// registers are deliberately not touched: the calling convention already
// made the caller preserve anything it needs across an ordinary call, and
// from the caller's point of view Switch is exactly that, an ordinary call
// that happens to return only when some other task switches back.
//
// Both contexts must have been initialized, either by a previous save or by
// NewContext's bootstrap values. Passing an uninitialized or retired context
// is a lifecycle violation the scheduler must rule out by construction.
func Switch(h *cpu.Hart, cur, next *Context) {
	cur.save(h)
	next.load(h)

	next.wake()
	cur.sleep()
}
