package forkjoin

import (
	"sync"
	"sync/atomic"
)

// Scheduler owns the worker set, the shared injector queue, and the
// termination reference count. There is normally a single process-wide
// instance, published by Setup and reachable only through the package-level
// functions.
type Scheduler struct {
	workers  []*workerInfo
	injector deque
	sig      signal

	// terminator counts one reference per in-flight job plus a baseline
	// reference held until terminate. Workers exit once it reaches zero.
	terminator *CountLatch

	spawned   atomic.Int64
	completed atomic.Int64
	stolen    atomic.Int64
	injected  atomic.Int64
	panicked  atomic.Int64
}

// workerInfo is the per-worker state visible to the rest of the pool: the
// stealable deque and the startup/shutdown handshake latches.
type workerInfo struct {
	dq         deque
	primed     *LockLatch
	terminated *LockLatch
}

// worker is the state owned by a single worker goroutine.
type worker struct {
	sched *Scheduler
	info  *workerInfo
	index int
	rnd   *xorShift64Star
}

func newScheduler(num int) *Scheduler {
	s := &Scheduler{
		workers:    make([]*workerInfo, num),
		terminator: NewCountLatch(),
	}
	s.sig.cond.L = &s.sig.mu

	for i := range s.workers {
		s.workers[i] = &workerInfo{
			primed:     NewLockLatch(),
			terminated: NewLockLatch(),
		}
	}

	for i := range s.workers {
		go s.runWorker(i)
	}

	// Return only once every worker is up and able to steal.
	for _, w := range s.workers {
		w.primed.Wait()
	}

	return s
}

// runWorker is the main loop of worker i. It signals primed once it is
// ready, works until the terminator latch is set with no jobs left
// anywhere, then signals terminated.
func (s *Scheduler) runWorker(i int) {
	w := &worker{
		sched: s,
		info:  s.workers[i],
		index: i,
		rnd:   newXorShift64Star(),
	}

	w.info.primed.Set()
	s.waitUntil(s.terminator, w, w.rnd)
	w.info.terminated.Set()
}

// inject pushes a job onto the shared injector queue. Reachable from any
// goroutine, worker or not.
func (s *Scheduler) inject(j job) {
	s.injector.pushBack(j)
	s.injected.Add(1)
	s.sig.notify()
}

// injectSlice pushes a batch of jobs onto the injector under one lock
// acquisition and wakes every parked worker.
func (s *Scheduler) injectSlice(jobs []job) {
	s.injector.pushAll(jobs)
	s.injected.Add(int64(len(jobs)))
	s.sig.notify()
}

// pushLocal pushes a job onto worker w's own deque. Only called on w's
// goroutine, via a scope handle bound to it.
func (s *Scheduler) pushLocal(w *worker, j job) {
	w.info.dq.pushBack(j)
	s.sig.notify()
}

// findJob locates one runnable job: the caller's own deque first (LIFO),
// then a random peer's deque (FIFO end), then the injector. Returns nil
// when no work exists anywhere at the time of the scan.
func (s *Scheduler) findJob(w *worker, rnd *xorShift64Star) job {
	if w != nil {
		if j, ok := w.info.dq.popBack(); ok {
			return j
		}
	}

	if n := len(s.workers); n > 1 || (n == 1 && w == nil) {
		start := rnd.nextN(n)
		for k := 0; k < n; k++ {
			i := (start + k) % n
			if w != nil && i == w.index {
				continue
			}
			if j, ok := s.workers[i].dq.popFront(); ok {
				s.stolen.Add(1)
				return j
			}
		}
	}

	if j, ok := s.injector.popFront(); ok {
		return j
	}
	return nil
}

// waitUntil blocks until latch is set, keeping busy by popping and stealing
// jobs in the meantime. This cooperative wait is what prevents the classic
// work-stealing deadlock: a goroutine waiting on a latch becomes an extra
// worker for exactly the jobs that can set it. Callable from worker
// goroutines (w non-nil) and external joiners (w nil) alike.
func (s *Scheduler) waitUntil(latch Latch, w *worker, rnd *xorShift64Star) {
	for {
		// The sequence must be read before the latch check: a Set whose
		// notify lands after this read unblocks the wait below, and one
		// whose notify lands before it is visible to IsSet.
		seen := s.sig.current()
		if latch.IsSet() {
			return
		}
		if j := s.findJob(w, rnd); j != nil {
			j(w)
			s.sig.notify()
		} else {
			s.sig.wait(seen)
		}
	}
}

// terminate drops the terminator's baseline reference. Workers drain any
// remaining jobs and then exit their loops.
func (s *Scheduler) terminate() {
	s.terminator.Set()
	s.sig.notify()
}

// waitUntilTerminated blocks until every worker goroutine has observed
// termination and exited.
func (s *Scheduler) waitUntilTerminated() {
	s.sig.notify()
	for _, w := range s.workers {
		w.terminated.Wait()
	}
}

// signal parks idle goroutines and wakes them when work arrives. The
// sequence number closes the race between a failed job scan and a
// concurrent enqueue: producers bump seq after enqueuing, and a parker only
// blocks if seq is unchanged since before its scan.
type signal struct {
	mu   sync.Mutex
	cond sync.Cond
	seq  uint64
}

func (s *signal) current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *signal) notify() {
	s.mu.Lock()
	s.seq++
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *signal) wait(seen uint64) {
	s.mu.Lock()
	for s.seq == seen {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

var rndCounter atomic.Uint64

// xorShift64Star is a fast pseudorandom generator for victim selection.
// It tolerates weak seeding as long as the seed is non-zero.
type xorShift64Star struct {
	state uint64
}

func newXorShift64Star() *xorShift64Star {
	var seed uint64
	for seed == 0 {
		z := rndCounter.Add(1) * 0x9E3779B97F4A7C15
		z ^= z >> 30
		z *= 0xBF58476D1CE4E5B9
		z ^= z >> 27
		z *= 0x94D049BB133111EB
		z ^= z >> 31
		seed = z
	}
	return &xorShift64Star{state: seed}
}

func (x *xorShift64Star) next() uint64 {
	v := x.state
	v ^= v >> 12
	v ^= v << 25
	v ^= v >> 27
	x.state = v
	return v * 0x2545F4914F6CDD1D
}

// nextN returns a value in [0, n).
func (x *xorShift64Star) nextN(n int) int {
	return int(x.next() % uint64(n))
}
