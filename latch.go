package forkjoin

import (
	"sync"
	"sync/atomic"
)

// Latch is a one-shot signaling primitive. A latch starts unset; eventually
// someone calls Set and it becomes set. IsSet probes it without blocking.
// A latch never transitions back to unset.
type Latch interface {
	// Set sets the latch, signalling others.
	Set()
	// IsSet reports whether the latch has been set.
	IsSet() bool
}

// SpinLatch is the simplest latch: a boolean flag polled in a loop. Use it
// where contention is expected to be brief. It does not support a blocking
// wait.
type SpinLatch struct {
	b atomic.Bool
}

// NewSpinLatch creates an unset SpinLatch.
func NewSpinLatch() *SpinLatch {
	return &SpinLatch{}
}

// Set implements Latch.
func (l *SpinLatch) Set() {
	l.b.Store(true)
}

// IsSet implements Latch.
func (l *SpinLatch) IsSet() bool {
	return l.b.Load()
}

// LockLatch is a latch backed by a mutex and condition variable. Unlike
// SpinLatch it supports a blocking Wait. Workers use LockLatch pairs for
// their startup and shutdown handshakes.
type LockLatch struct {
	mu   sync.Mutex
	cond sync.Cond
	set  bool
}

// NewLockLatch creates an unset LockLatch.
func NewLockLatch() *LockLatch {
	l := &LockLatch{}
	l.cond.L = &l.mu
	return l
}

// Wait blocks until the latch is set.
func (l *LockLatch) Wait() {
	l.mu.Lock()
	for !l.set {
		l.cond.Wait()
	}
	l.mu.Unlock()
}

// Set implements Latch, waking all waiters.
func (l *LockLatch) Set() {
	l.mu.Lock()
	l.set = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

// IsSet implements Latch.
func (l *LockLatch) IsSet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set
}

// CountLatch tracks a counter that starts at one. Unlike the other latches,
// calling Set does not necessarily make the latch set; it decrements the
// counter, and the latch is only set once the counter reaches zero. Scopes
// use a CountLatch to track their outstanding jobs, and the scheduler uses
// one as its termination reference count.
type CountLatch struct {
	counter atomic.Int64
}

// NewCountLatch creates a CountLatch with its counter at one.
func NewCountLatch() *CountLatch {
	l := &CountLatch{}
	l.counter.Store(1)
	return l
}

// Increment adds one to the counter. Calling Increment once the latch is
// set is a programmer error and panics: a set latch may already have
// released its waiters, so a late reference could never be honored.
func (l *CountLatch) Increment() {
	if l.counter.Add(1) == 1 {
		panic("forkjoin: CountLatch incremented after being set")
	}
}

// Set decrements the counter, setting the latch if it reaches zero.
func (l *CountLatch) Set() {
	if l.counter.Add(-1) < 0 {
		panic("forkjoin: CountLatch set below zero")
	}
}

// IsSet implements Latch.
func (l *CountLatch) IsSet() bool {
	return l.counter.Load() == 0
}

// ValueLatch is a one-shot latch that carries a value: a producer calls Set
// exactly once, and any goroutine can block in Take until the value is
// available. It is the intended channel for handing a result from a job back
// to a goroutine outside the pool, e.g. an asynchronous load delivering
// decoded bytes to whichever goroutine polls the pending request.
type ValueLatch[T any] struct {
	mu   sync.Mutex
	cond sync.Cond
	set  bool
	val  T
}

// NewValueLatch creates an unset ValueLatch.
func NewValueLatch[T any]() *ValueLatch[T] {
	l := &ValueLatch[T]{}
	l.cond.L = &l.mu
	return l
}

// Set stores the value and wakes all waiters. Calling Set twice is a
// programmer error and panics.
func (l *ValueLatch[T]) Set(v T) {
	l.mu.Lock()
	if l.set {
		l.mu.Unlock()
		panic("forkjoin: ValueLatch set twice")
	}
	l.val = v
	l.set = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

// Take blocks until the value has been set and returns it. The latch stays
// set; subsequent Take calls return the same value.
func (l *ValueLatch[T]) Take() T {
	l.mu.Lock()
	for !l.set {
		l.cond.Wait()
	}
	v := l.val
	l.mu.Unlock()
	return v
}

// IsSet reports whether the value has been set, without blocking.
func (l *ValueLatch[T]) IsSet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set
}
