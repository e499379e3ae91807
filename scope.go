package forkjoin

import "sync/atomic"

// Scope is a fork-join boundary: jobs spawned into it may themselves spawn
// further jobs, and the caller of [Run] blocks until the whole tree has
// completed. A Scope value is a lightweight handle over shared scope state;
// each job body receives its own handle, bound to the worker executing it,
// so nested Spawn calls push onto that worker's deque instead of the slower
// injector path.
//
// A handle is valid on the goroutine it was handed to, for the duration of
// the job body (or of the [Run] body, for the root handle). Do not retain it
// past that.
type Scope struct {
	state *scopeState
	w     *worker
}

// scopeState is the state shared by every handle of one scope. The latch
// counts the scope body itself plus every outstanding job; the scope is done
// when it reaches zero. The panic slot holds at most one captured failure.
type scopeState struct {
	sched *Scheduler // nil in headless mode
	latch *CountLatch

	// First captured failure, compare-and-swapped in so concurrent
	// sibling failures resolve to exactly one winner.
	panic atomic.Pointer[PanicError]
}

func newScope(sched *Scheduler) *Scope {
	return &Scope{
		state: &scopeState{
			sched: sched,
			latch: NewCountLatch(),
		},
	}
}

// Spawn queues fn as a job of this scope. The job runs sometime before the
// scope's join completes, on an arbitrary worker, and receives its own
// Scope handle for spawning sub-jobs. Spawn never blocks the caller.
//
// Data captured by fn must be owned by the job, synchronized independently,
// or reachable through the Scope handle; the scheduler transfers the
// closure across goroutines without any further protection.
//
// In headless mode fn runs inline, to completion, before Spawn returns.
func (s *Scope) Spawn(fn func(*Scope)) {
	st := s.state

	if st.sched == nil {
		st.latch.Increment()
		st.execute(&Scope{state: st}, fn)
		return
	}

	// Order matters: both counts must be up before the job is visible
	// to any worker, so neither the join nor shutdown can complete early.
	st.sched.terminator.Increment()
	st.latch.Increment()
	st.sched.spawned.Add(1)

	j := func(w *worker) {
		st.execute(&Scope{state: st, w: w}, fn)
		st.sched.completed.Add(1)
		st.sched.terminator.Set()
	}

	if s.w != nil {
		st.sched.pushLocal(s.w, j)
	} else {
		st.sched.inject(j)
	}
}

// execute runs fn with panic capture, then drops one latch reference. On
// failure the first captured PanicError wins the slot; the rest are
// discarded. The panic is published before the latch decrement so the
// joiner always observes it.
func (st *scopeState) execute(s *Scope, fn func(*Scope)) {
	defer func() {
		if r := recover(); r != nil {
			if st.sched != nil {
				st.sched.panicked.Add(1)
			}
			st.panic.CompareAndSwap(nil, newPanicError(r))
		}
		st.latch.Set()
	}()
	fn(s)
}

// join waits for the latch to reach zero, cooperatively running queued jobs,
// then re-raises the captured failure, if any, exactly once.
func (st *scopeState) join() {
	if st.sched != nil {
		st.sched.waitUntil(st.latch, nil, newXorShift64Star())
	}
	// All jobs have finished; the slot cannot change anymore.
	if pe := st.panic.Swap(nil); pe != nil {
		panic(pe)
	}
}
