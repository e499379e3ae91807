// Command forkjoin-demo runs a parallel quicksort on the fork-join
// scheduler and prints activity stats. With --metrics-addr it also serves
// the scheduler's Prometheus metrics while the workload runs.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"slices"
	"sort"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/anorbaev/forkjoin"
	fjprom "github.com/anorbaev/forkjoin/observability/prometheus"
)

func main() {
	app := &cli.App{
		Name:  "forkjoin-demo",
		Usage: "sort a random slice with the fork-join scheduler",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Value: 4,
				Usage: "worker count (0 = headless, inline execution)",
			},
			&cli.IntFlag{
				Name:  "size",
				Value: 1 << 20,
				Usage: "number of elements to sort",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Value: 1,
				Usage: "seed for the input data",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address while sorting",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	workers := c.Int("workers")
	size := c.Int("size")

	forkjoin.Setup(workers)
	defer forkjoin.Discard()

	if addr := c.String("metrics-addr"); addr != "" {
		stop, err := serveMetrics(addr)
		if err != nil {
			return err
		}
		defer stop()
	}

	rng := rand.New(rand.NewSource(c.Int64("seed")))
	data := make([]int, size)
	for i := range data {
		data[i] = rng.Int()
	}

	start := time.Now()
	forkjoin.Run(func(s *forkjoin.Scope) {
		quicksort(s, data)
	})
	elapsed := time.Since(start)

	if !slices.IsSorted(data) {
		return fmt.Errorf("result is not sorted")
	}

	st := forkjoin.SchedulerStats()
	fmt.Printf("sorted %d elements in %v (workers=%d)\n", size, elapsed, workers)
	fmt.Printf("jobs spawned=%d completed=%d stolen=%d injected=%d\n",
		st.Spawned, st.Completed, st.Stolen, st.Injected)
	return nil
}

func serveMetrics(addr string) (func(), error) {
	reg := prom.NewRegistry()
	poller, err := fjprom.NewSnapshotPoller(reg, 100*time.Millisecond)
	if err != nil {
		return nil, err
	}
	poller.AddScheduler("demo", forkjoin.SchedulerStats)

	ctx, cancel := context.WithCancel(context.Background())
	poller.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server: %v", err)
		}
	}()
	log.Printf("serving metrics on %s/metrics", addr)

	return func() {
		cancel()
		poller.Stop()
		_ = srv.Shutdown(context.Background())
	}, nil
}

func quicksort(s *forkjoin.Scope, data []int) {
	if len(data) <= 1024 {
		sort.Ints(data)
		return
	}
	p := partition(data)
	left, right := data[:p], data[p+1:]
	s.Spawn(func(s *forkjoin.Scope) { quicksort(s, left) })
	quicksort(s, right)
}

func partition(data []int) int {
	pivot := data[len(data)-1]
	i := 0
	for j := 0; j < len(data)-1; j++ {
		if data[j] < pivot {
			data[i], data[j] = data[j], data[i]
			i++
		}
	}
	data[i], data[len(data)-1] = data[len(data)-1], data[i]
	return i
}
