// Package forkjoin provides a fork-join task scheduler for Go: a fixed pool
// of workers executing short-lived jobs with work stealing, plus a
// structured-concurrency scope for expressing recursive divide-and-conquer
// algorithms.
//
// # Lifecycle
//
// The scheduler is process-wide state with an explicit lifecycle. Call
// [Setup] once at startup and [Discard] once at shutdown:
//
//	forkjoin.Setup(4)
//	defer forkjoin.Discard()
//
// Calling Setup twice without an intervening Discard, or using the package
// before Setup or after Discard, is a programmer error and panics. [Discard]
// waits for every queued and running job to finish before releasing the
// workers, so jobs never observe a torn-down scheduler.
//
// A worker count of zero selects headless mode: every operation executes
// synchronously, inline, on the caller's own stack, with the same external
// semantics. This makes the API usable in single-threaded embeddings.
//
// # Detached Jobs
//
// [Spawn] queues a job for eventual execution on some worker and returns
// immediately. The caller gets no handle back; a panic in the job is routed
// to the scheduler-wide handler configured via [WithPanicHandler]. The
// default handler logs the panic with its stack trace. Anything that needs a
// guaranteed completion or failure signal should use [Run] or a
// [ValueLatch] instead.
//
// # Scopes
//
// [Run] creates a fork-join scope, invokes the body with a [Scope] handle,
// and blocks until every job spawned into the scope, and everything those
// jobs transitively spawn, has finished:
//
//	forkjoin.Run(func(s *forkjoin.Scope) {
//	    s.Spawn(func(s *forkjoin.Scope) { left(s) })
//	    right(s)
//	})
//
// The body itself runs inline on the calling goroutine as the scope's zeroth
// job. While joining, the calling goroutine does not idle: it pops and
// steals queued jobs cooperatively, so a scope created inside a worker can
// never deadlock the pool.
//
// If one or more jobs in a scope panic, exactly one captured failure (the
// first observed) is re-raised to the caller of Run after every sibling has
// finished. The remaining failures are discarded; this first-failure-wins
// policy is deliberate.
//
// # Captured Data
//
// Jobs spawned into a scope run on arbitrary goroutines. Data captured by a
// job closure must be owned outright by the job, shared through its own
// synchronization, or reachable through the [Scope] handle, which is
// guaranteed live until the join completes. The [Scope] handle passed to a
// job body is bound to the goroutine executing that body; do not retain it
// past the body's return.
//
// # Latches
//
// The latch types are one-shot readiness flags with different wait
// strategies: [SpinLatch] (polled flag), [CountLatch] (set when an internal
// count reaches zero), [LockLatch] (blocking wait), and [ValueLatch] (hands
// a value from a worker to any other goroutine). They are exported for
// collaborators that need to move results across threads, e.g. delivering
// decoded bytes from a background load to whichever goroutine polls the
// pending request.
//
// # Scheduling
//
// Each worker owns a private deque. It pops its own jobs LIFO for cache
// locality, steals the oldest job from a randomly chosen peer when its deque
// is empty, falls back to the shared injector queue, and parks when no work
// exists anywhere. [Spawn] always targets the injector; [Scope.Spawn]
// prefers the calling worker's own deque. There is no ordering guarantee
// across independent jobs, no priority scheduling, and no cancellation once
// a job is queued: callers encode cancellation flags inside the job body.
package forkjoin
