package forkjoin

import "sync"

// job is the internal unit of queued work. The worker executing it passes
// itself in so that scope handles created inside the job can hit the local
// deque fast path; goroutines joining from outside the pool pass nil.
type job func(w *worker)

// deque is a growable double-ended job queue. The owning worker pushes and
// pops at the back (LIFO, newest first); thieves and the injector path pop
// at the front (FIFO, oldest first), so steals take the largest remaining
// sub-problems. A mutex keeps it safe for stealing from any goroutine;
// contention is low because owners touch one end and thieves the other.
type deque struct {
	mu   sync.Mutex
	buf  []job
	head int // index of the front element
	n    int // number of elements
}

// pushBack appends a job at the back.
func (d *deque) pushBack(j job) {
	d.mu.Lock()
	if d.n == len(d.buf) {
		d.grow()
	}
	d.buf[(d.head+d.n)%len(d.buf)] = j
	d.n++
	d.mu.Unlock()
}

// pushAll appends a batch of jobs at the back under a single lock
// acquisition.
func (d *deque) pushAll(jobs []job) {
	d.mu.Lock()
	for _, j := range jobs {
		if d.n == len(d.buf) {
			d.grow()
		}
		d.buf[(d.head+d.n)%len(d.buf)] = j
		d.n++
	}
	d.mu.Unlock()
}

// popBack removes and returns the newest job, or nil and false when empty.
func (d *deque) popBack() (job, bool) {
	d.mu.Lock()
	if d.n == 0 {
		d.mu.Unlock()
		return nil, false
	}
	i := (d.head + d.n - 1) % len(d.buf)
	j := d.buf[i]
	d.buf[i] = nil
	d.n--
	d.mu.Unlock()
	return j, true
}

// popFront removes and returns the oldest job, or nil and false when empty.
func (d *deque) popFront() (job, bool) {
	d.mu.Lock()
	if d.n == 0 {
		d.mu.Unlock()
		return nil, false
	}
	j := d.buf[d.head]
	d.buf[d.head] = nil
	d.head = (d.head + 1) % len(d.buf)
	d.n--
	d.mu.Unlock()
	return j, true
}

// size returns the current number of queued jobs.
func (d *deque) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.n
}

// grow doubles the ring capacity, relocating elements to the front.
// Caller must hold d.mu.
func (d *deque) grow() {
	size := len(d.buf) * 2
	if size == 0 {
		size = 8
	}
	buf := make([]job, size)
	for i := 0; i < d.n; i++ {
		buf[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	d.buf = buf
	d.head = 0
}
