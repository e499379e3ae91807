package forkjoin

// Stats is a point-in-time snapshot of scheduler activity. Counters are
// cumulative since [Setup]; depths are instantaneous and may be stale by
// the time the caller reads them.
type Stats struct {
	Workers       int   // worker count (0 in headless mode)
	Spawned       int64 // jobs queued via Spawn and Scope.Spawn
	Completed     int64 // jobs finished (success or panic)
	Stolen        int64 // jobs taken from a peer's deque
	Injected      int64 // jobs that went through the injector queue
	Panicked      int64 // jobs that panicked
	InjectorDepth int   // jobs currently waiting in the injector
	DequeDepth    int   // jobs currently waiting across worker deques
}

// SchedulerStats returns a snapshot of the current scheduler's activity.
// In headless mode all fields are zero: there is no pool to observe, and
// every job has already run inline. Safe to call concurrently.
func SchedulerStats() Stats {
	c := current()
	if c.sched == nil {
		return Stats{}
	}

	s := c.sched
	st := Stats{
		Workers:       len(s.workers),
		Spawned:       s.spawned.Load(),
		Completed:     s.completed.Load(),
		Stolen:        s.stolen.Load(),
		Injected:      s.injected.Load(),
		Panicked:      s.panicked.Load(),
		InjectorDepth: s.injector.size(),
	}
	for _, w := range s.workers {
		st.DequeDepth += w.dq.size()
	}
	return st
}
