// Package task implements the cooperative side of the execution core: the
// switch frame that preserves a task's callee-saved state, the Switch
// primitive that hands the hart from one task to another, and a small
// round-robin processor driving it.
package task

import (
	"rvos/kernel/cpu"
)

// Word offsets into a switch frame. The layout is a contract with the switch
// save/restore sequence; fields are never reordered.
const (
	ctxRA = 0
	ctxSP = 1
	ctxS0 = 2 // s0..s11 occupy words 2-13

	contextWords = 14
)

// entryStubPC is the synthetic return address installed in a freshly built
// context. The first switch into the context "returns" to the task entry
// stub, which runs the task function.
const entryStubPC = uint64(0x3f_ffff_e000)

// EntryFn is a task body. It runs when the scheduler first switches into the
// task's context and may suspend itself any number of times via Switch; when
// it returns, the task is finished.
type EntryFn func()

// Context is the switch frame of one task: the return address, the stack
// pointer and the twelve callee-saved registers, at fixed word offsets. It
// is owned by the scheduler and mutated only by Switch at the moment of
// hand-off.
//
// The gate channel is the model's suspension point: the goroutine animating
// the task parks on it between the moment it switches away and the moment
// some other task switches back.
type Context struct {
	words [contextWords]uint64

	gate chan struct{}
}

// NewContext builds a bootstrap context for a task that has never run. The
// return address points at the entry stub and the stack pointer at the top
// of the task's kernel stack; the first switch into the context starts entry.
// When entry returns, finishFn is invoked on the task's goroutine; it must
// hand the hart elsewhere and never come back.
func NewContext(entry EntryFn, stackTop uint64) *Context {
	c := &Context{gate: make(chan struct{})}
	c.words[ctxRA] = entryStubPC
	c.words[ctxSP] = stackTop

	go func() {
		c.sleep()
		entry()
		finishFn(c)
	}()

	return c
}

// NewBootstrapContext builds an empty context used as the "current" slot for
// the first ever switch, typically the scheduler's own. Its words are
// populated by the first switch away from it.
func NewBootstrapContext() *Context {
	return &Context{gate: make(chan struct{})}
}

var (
	// finishFn runs on a task's goroutine when its entry function
	// returns. The processor installs an implementation that retires the
	// task; without one a returning task is a lifecycle violation.
	finishFn = func(*Context) {
		panic("task: entry function returned with no processor attached")
	}
)

// RA returns the saved return address.
func (c *Context) RA() uint64 { return c.words[ctxRA] }

// SetRA updates the saved return address.
func (c *Context) SetRA(val uint64) { c.words[ctxRA] = val }

// SP returns the saved stack pointer.
func (c *Context) SP() uint64 { return c.words[ctxSP] }

// SetSP updates the saved stack pointer.
func (c *Context) SetSP(val uint64) { c.words[ctxSP] = val }

// S returns the saved value of callee-saved register n (0-11).
func (c *Context) S(n int) uint64 { return c.words[ctxS0+n] }

// save captures the hart's return address, stack pointer and callee-saved
// registers into this context at their fixed offsets.
func (c *Context) save(h *cpu.Hart) {
	c.words[ctxRA] = h.Reg(cpu.RA)
	c.words[ctxSP] = h.Reg(cpu.SP)
	for i, r := range cpu.CalleeSaved {
		c.words[ctxS0+i] = h.Reg(r)
	}
}

// load installs this context's saved state into the hart and points the
// program counter at the saved return address.
func (c *Context) load(h *cpu.Hart) {
	h.SetReg(cpu.RA, c.words[ctxRA])
	h.SetReg(cpu.SP, c.words[ctxSP])
	for i, r := range cpu.CalleeSaved {
		h.SetReg(r, c.words[ctxS0+i])
	}
	h.PC = c.words[ctxRA]
}

// wake unparks the goroutine animating this context.
func (c *Context) wake() {
	c.gate <- struct{}{}
}

// sleep parks the calling goroutine until another task switches back here.
func (c *Context) sleep() {
	<-c.gate
}
