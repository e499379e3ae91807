package forkjoin

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDequePopBackIsLIFO(t *testing.T) {
	var d deque
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		d.pushBack(func(*worker) { order = append(order, i) })
	}

	for {
		j, ok := d.popBack()
		if !ok {
			break
		}
		j(nil)
	}

	assert.Equal(t, []int{4, 3, 2, 1, 0}, order)
}

func TestDequePopFrontIsFIFO(t *testing.T) {
	var d deque
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		d.pushBack(func(*worker) { order = append(order, i) })
	}

	for {
		j, ok := d.popFront()
		if !ok {
			break
		}
		j(nil)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDequeInterleavedGrowth(t *testing.T) {
	var d deque
	var got []int

	// Interleave pushes and front-pops so the ring wraps while growing.
	next := 0
	for round := 0; round < 50; round++ {
		for ri := 0; ri < round%7; ri++ {
			i := next
			next++
			d.pushBack(func(*worker) { got = append(got, i) })
		}
		if j, ok := d.popFront(); ok {
			j(nil)
		}
	}
	for {
		j, ok := d.popFront()
		if !ok {
			break
		}
		j(nil)
	}

	require.Len(t, got, next)
	for i, v := range got {
		assert.Equal(t, i, v, "front-pops must preserve push order")
	}
}

func TestDequePushAll(t *testing.T) {
	var d deque
	var count atomic.Int64

	jobs := make([]job, 100)
	for i := range jobs {
		jobs[i] = func(*worker) { count.Add(1) }
	}
	d.pushAll(jobs)
	assert.Equal(t, 100, d.size())

	for {
		j, ok := d.popFront()
		if !ok {
			break
		}
		j(nil)
	}
	assert.Equal(t, int64(100), count.Load())
	assert.Equal(t, 0, d.size())
}

func TestDequeConcurrentStealsTakeEachJobOnce(t *testing.T) {
	const jobs = 10000
	const thieves = 8

	var d deque
	var executed atomic.Int64

	for ri := 0; ri < jobs; ri++ {
		d.pushBack(func(*worker) { executed.Add(1) })
	}

	var wg sync.WaitGroup
	wg.Add(thieves + 1)

	// One owner popping the back, many thieves popping the front.
	go func() {
		defer wg.Done()
		for {
			j, ok := d.popBack()
			if !ok {
				return
			}
			j(nil)
		}
	}()
	for ri := 0; ri < thieves; ri++ {
		go func() {
			defer wg.Done()
			for {
				j, ok := d.popFront()
				if !ok {
					return
				}
				j(nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(jobs), executed.Load())
}
