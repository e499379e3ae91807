package forkjoin

import "sync/atomic"

// runtimeCtx is the process-wide scheduler context. It is published through
// an atomic pointer so arbitrary goroutines can reach it without
// synchronizing with Setup; the explicit Setup/Discard contract is still
// enforced.
type runtimeCtx struct {
	sched        *Scheduler // nil in headless mode
	panicHandler func(any)
}

var global atomic.Pointer[runtimeCtx]

func current() *runtimeCtx {
	c := global.Load()
	if c == nil {
		panic("forkjoin: not initialized (Setup was not called, or Discard already ran)")
	}
	return c
}

// Setup initializes the process-wide scheduler with the given number of
// workers and must be called before any other operation. A worker count of
// zero selects headless mode, where every operation executes synchronously
// on the caller's stack. Setup returns once every worker is running and
// ready to steal.
//
// Calling Setup twice without an intervening [Discard] is a programmer
// error and panics.
func Setup(workers int, opts ...Option) {
	if workers < 0 {
		panic("forkjoin: Setup requires workers >= 0")
	}
	if global.Load() != nil {
		panic("forkjoin: Setup called twice without Discard")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &runtimeCtx{panicHandler: cfg.panicHandler}
	if workers > 0 {
		c.sched = newScheduler(workers)
	}

	if !global.CompareAndSwap(nil, c) {
		// Lost a Setup race; tear down the pool we just started.
		if c.sched != nil {
			c.sched.terminate()
			c.sched.waitUntilTerminated()
		}
		panic("forkjoin: Setup called twice without Discard")
	}
}

// Discard tears down the scheduler. It blocks new submissions, waits for
// every queued and running job to finish (cooperatively, so jobs that spawn
// further jobs still complete), then releases the workers. Memory
// referenced by in-flight jobs stays valid throughout; the wait is
// structural, not a caller discipline.
//
// Spawning concurrently with Discard is a programmer error. A [Spawn] that
// begins after the context is swapped out panics with the not-initialized
// message; one that slipped past the swap but reaches the drained scheduler
// panics from the termination count instead. Only jobs queued before the
// teardown began are guaranteed to run.
//
// Calling Discard without a matching [Setup] panics.
func Discard() {
	c := global.Swap(nil)
	if c == nil {
		panic("forkjoin: Discard called before Setup")
	}
	if c.sched != nil {
		c.sched.terminate()
		c.sched.waitUntilTerminated()
	}
}

// IsInitialized reports whether the scheduler is currently set up.
func IsInitialized() bool {
	return global.Load() != nil
}

// Spawn queues fn for eventual execution on some worker and returns without
// blocking. The caller gets no completion or failure signal back: a panic
// in fn is captured at the job boundary and routed to the scheduler-wide
// panic handler. Use [Run] or a [ValueLatch] when the outcome matters to
// the caller.
//
// In headless mode fn runs inline before Spawn returns.
func Spawn(fn func()) {
	c := current()

	if c.sched == nil {
		runDetached(c, nil, fn)
		return
	}

	sched := c.sched
	// Hold a termination reference until the job has executed, so Discard
	// cannot release the workers underneath it.
	sched.terminator.Increment()
	sched.spawned.Add(1)
	sched.inject(func(*worker) {
		runDetached(c, sched, fn)
		sched.completed.Add(1)
		sched.terminator.Set()
	})
}

// runDetached executes a detached job body, catching any panic at the
// boundary and handing it to the configured handler. The handler may be
// invoked concurrently from multiple workers; if the handler itself
// panics, the panic unwinds the worker goroutine and crashes the process.
func runDetached(c *runtimeCtx, sched *Scheduler, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if sched != nil {
				sched.panicked.Add(1)
			}
			c.panicHandler(newPanicError(r))
		}
	}()
	fn()
}

// Run creates a fork-join scope, invokes body with its root [Scope] handle,
// and blocks until every job spawned into the scope, transitively, has
// completed. The body runs inline on the calling goroutine as the scope's
// zeroth job; while joining, the calling goroutine pops and steals queued
// jobs instead of idling.
//
// If the body or any job panics, Run waits for all remaining jobs and then
// re-raises exactly one captured failure (the first observed) as a
// [*PanicError]. To its caller, a failing parallel computation looks like a
// failing sequential one: one failure, raised once, after all work has
// stopped.
func Run(body func(*Scope)) {
	c := current()
	s := newScope(c.sched)
	s.state.execute(s, body)
	s.state.join()
}

// RunResult is [Run] for bodies that produce a value.
func RunResult[R any](body func(*Scope) R) R {
	var result R
	Run(func(s *Scope) {
		result = body(s)
	})
	return result
}

// Join runs a and b as one fork-join pair: b is spawned into a fresh scope
// while a runs inline, and Join returns once both have completed. A panic
// in either is re-raised after both finish.
func Join(a, b func()) {
	Run(func(s *Scope) {
		s.Spawn(func(*Scope) { b() })
		a()
	})
}
