package task

import (
	"rvos/kernel"
	"rvos/kernel/cpu"
	"rvos/kernel/mm"
	"rvos/kernel/sync"
	"rvos/kernel/trap"
)

// NTASK is the size of the task table.
const NTASK = 8

var (
	// ErrNoFreeSlots is returned by Spawn when the task table is full.
	ErrNoFreeSlots = &kernel.Error{Module: "task", Message: "no free task slots"}
)

// Status tracks where a task is in its lifecycle.
type Status uint8

const (
	// StatusUnInit marks an empty task slot.
	StatusUnInit Status = iota

	// StatusReady marks a task that can be picked by the scheduler.
	StatusReady

	// StatusRunning marks the task currently holding the hart.
	StatusRunning

	// StatusExited marks a finished task. An exited task is never
	// selected again; its slot stays retired.
	StatusExited
)

// Task is one entry of the task table.
type Task struct {
	ID     int
	Name   string
	Status Status

	ctx *Context
}

// Processor drives the cooperative scheduler for a single hart: a fixed
// table of task slots, an idle context the scheduler runs on, and a
// round-robin loop that switches into every ready task in turn.
type Processor struct {
	hart *cpu.Hart

	lock    sync.Spinlock
	tasks   [NTASK]Task
	current *Task

	idle *Context
}

// NewProcessor builds a processor bound to the supplied hart. Only one
// processor may be active at a time; building a new one retargets the task
// retirement hook.
func NewProcessor(h *cpu.Hart) *Processor {
	p := &Processor{
		hart: h,
		idle: NewBootstrapContext(),
	}
	finishFn = p.finish
	return p
}

// Spawn reserves a task slot and builds a bootstrap context for entry. The
// task's architectural stack pointer is set to the top of the kernel stack
// carved out for its slot. The task becomes ready but does not run until the
// scheduler selects it.
func (p *Processor) Spawn(name string, entry EntryFn) (*Task, *kernel.Error) {
	p.lock.Acquire()
	defer p.lock.Release()

	for i := range p.tasks {
		t := &p.tasks[i]
		if t.Status != StatusUnInit {
			continue
		}

		_, stackTop := mm.KernelStackRange(i)
		t.ID = i
		t.Name = name
		t.ctx = NewContext(entry, uint64(stackTop))
		t.Status = StatusReady
		return t, nil
	}

	return nil, ErrNoFreeSlots
}

// Run drives the scheduler loop: it keeps sweeping the task table, switching
// into every ready task, until no task is left to run. Each hand-off
// suspends Run inside Switch until the task yields or finishes.
func (p *Processor) Run() {
	for {
		scheduled := false

		for i := range p.tasks {
			p.lock.Acquire()
			t := &p.tasks[i]
			if t.Status != StatusReady {
				p.lock.Release()
				continue
			}
			t.Status = StatusRunning
			p.current = t
			p.lock.Release()

			Switch(p.hart, p.idle, t.ctx)

			p.lock.Acquire()
			p.current = nil
			p.lock.Release()
			scheduled = true
		}

		if !scheduled {
			return
		}
	}
}

// Current returns the task currently holding the hart, or nil when the
// scheduler itself is running.
func (p *Processor) Current() *Task {
	p.lock.Acquire()
	defer p.lock.Release()
	return p.current
}

// Yield suspends the running task and hands the hart back to the scheduler.
// It returns when the scheduler switches into the task again.
func (p *Processor) Yield() {
	p.lock.Acquire()
	t := p.current
	if t == nil {
		p.lock.Release()
		return
	}
	t.Status = StatusReady
	p.lock.Release()

	Switch(p.hart, t.ctx, p.idle)
}

// ApplyOutcome reacts to a trap outcome on behalf of the running task:
// yields hand the hart to the scheduler, kills retire the task for good.
// Resumed traps need no action; the trampoline already restored the task.
func (p *Processor) ApplyOutcome(outcome trap.Outcome) {
	switch outcome {
	case trap.OutcomeYield:
		p.Yield()
	case trap.OutcomeKill, trap.OutcomeFatal:
		p.retireCurrent()
	}
}

// retireCurrent marks the running task exited and leaves its context for the
// last time. The context is never selected again, so the switch never
// returns; termination is "never chosen again", not interruption.
func (p *Processor) retireCurrent() {
	p.lock.Acquire()
	t := p.current
	if t == nil {
		p.lock.Release()
		return
	}
	t.Status = StatusExited
	p.lock.Release()

	Switch(p.hart, t.ctx, p.idle)
}

// finish retires a task whose entry function returned. It runs on the
// task's own goroutine, which terminates right after handing the hart back
// to the scheduler.
func (p *Processor) finish(c *Context) {
	p.lock.Acquire()
	for i := range p.tasks {
		t := &p.tasks[i]
		if t.ctx == c {
			t.Status = StatusExited
			break
		}
	}
	p.lock.Release()

	p.idle.load(p.hart)
	p.idle.wake()
}
