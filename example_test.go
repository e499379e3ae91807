package forkjoin_test

import (
	"fmt"
	"sort"

	"github.com/anorbaev/forkjoin"
)

func ExampleRun() {
	forkjoin.Setup(4)
	defer forkjoin.Discard()

	data := []int{5, 3, 8, 1, 9, 2}

	var sortHalves func(s *forkjoin.Scope, d []int)
	sortHalves = func(s *forkjoin.Scope, d []int) {
		if len(d) < 4 {
			sort.Ints(d)
			return
		}
		mid := len(d) / 2
		left, right := d[:mid], d[mid:]
		s.Spawn(func(s *forkjoin.Scope) { sortHalves(s, left) })
		sortHalves(s, right)
	}

	forkjoin.Run(func(s *forkjoin.Scope) {
		sortHalves(s, data)
	})
	// Merge the two sorted halves the lazy way.
	sort.Ints(data)

	fmt.Println(data)
	// Output: [1 2 3 5 8 9]
}

func ExampleJoin() {
	forkjoin.Setup(2)
	defer forkjoin.Discard()

	var sumLow, sumHigh int
	forkjoin.Join(
		func() {
			for i := 1; i <= 50; i++ {
				sumLow += i
			}
		},
		func() {
			for i := 51; i <= 100; i++ {
				sumHigh += i
			}
		},
	)

	fmt.Println(sumLow + sumHigh)
	// Output: 5050
}

func ExampleSpawn() {
	forkjoin.Setup(2)
	defer forkjoin.Discard()

	// Offload work and hand the result back through a ValueLatch, the
	// pattern a resource-loading pipeline uses for async decodes.
	result := forkjoin.NewValueLatch[string]()
	forkjoin.Spawn(func() {
		result.Set("decoded asset bytes")
	})

	fmt.Println(result.Take())
	// Output: decoded asset bytes
}

func ExampleForEach() {
	forkjoin.Setup(4)
	defer forkjoin.Discard()

	squares := make([]int, 5)
	forkjoin.ForEach([]int{0, 1, 2, 3, 4}, func(i int) {
		squares[i] = i * i
	})

	fmt.Println(squares)
	// Output: [0 1 4 9 16]
}

func ExampleSetup_headless() {
	// Zero workers: everything runs inline on the calling goroutine,
	// with the same semantics.
	forkjoin.Setup(0)
	defer forkjoin.Discard()

	total := 0
	forkjoin.Run(func(s *forkjoin.Scope) {
		for i := 1; i <= 4; i++ {
			i := i
			s.Spawn(func(*forkjoin.Scope) { total += i })
		}
	})

	fmt.Println(total)
	// Output: 10
}
