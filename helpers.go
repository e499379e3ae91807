package forkjoin

// ForEach invokes fn once for each item, running the calls as independent
// jobs of one scope. It returns once every call has completed; a panic in
// any call is re-raised exactly once after all of them have finished, with
// first-failure-wins semantics, like [Run].
//
// The jobs are queued as a single batch on the injector, so a pool of idle
// workers picks the whole slice up at once. Items are processed in no
// particular order. Writes to shared state from fn need the caller's own
// synchronization; writing to distinct elements of a results slice is safe.
func ForEach[T any](items []T, fn func(item T)) {
	c := current()

	if c.sched == nil {
		st := &scopeState{latch: NewCountLatch()}
		for i := range items {
			item := items[i]
			st.latch.Increment()
			st.execute(&Scope{state: st}, func(*Scope) { fn(item) })
		}
		st.latch.Set()
		st.join()
		return
	}

	sched := c.sched
	st := &scopeState{sched: sched, latch: NewCountLatch()}

	jobs := make([]job, len(items))
	for i := range items {
		item := items[i]
		sched.terminator.Increment()
		st.latch.Increment()
		jobs[i] = func(w *worker) {
			st.execute(&Scope{state: st, w: w}, func(*Scope) { fn(item) })
			sched.completed.Add(1)
			sched.terminator.Set()
		}
	}
	sched.spawned.Add(int64(len(items)))
	sched.injectSlice(jobs)

	// Drop the baseline reference that stands in for the scope body.
	st.latch.Set()
	st.join()
}
