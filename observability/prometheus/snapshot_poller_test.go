package prometheus

import (
	"context"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/anorbaev/forkjoin"
)

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSnapshotPoller_CollectsSchedulerStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddScheduler("main", func() forkjoin.Stats {
		return forkjoin.Stats{
			Workers:       4,
			Spawned:       100,
			Completed:     90,
			Stolen:        12,
			Injected:      40,
			Panicked:      1,
			InjectorDepth: 3,
			DequeDepth:    7,
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		spawned := testutil.ToFloat64(poller.jobsSpawned.WithLabelValues("main"))
		workers := testutil.ToFloat64(poller.workers.WithLabelValues("main"))
		return spawned == 100 && workers == 4
	})

	if got := testutil.ToFloat64(poller.jobsStolen.WithLabelValues("main")); got != 12 {
		t.Fatalf("stolen gauge = %v, want 12", got)
	}
	if got := testutil.ToFloat64(poller.queueDepth.WithLabelValues("main", "injector")); got != 3 {
		t.Fatalf("injector depth gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(poller.queueDepth.WithLabelValues("main", "deques")); got != 7 {
		t.Fatalf("deque depth gauge = %v, want 7", got)
	}
}

func TestSnapshotPoller_LiveScheduler(t *testing.T) {
	forkjoin.Setup(2)
	defer forkjoin.Discard()

	forkjoin.Run(func(s *forkjoin.Scope) {
		for ri := 0; ri < 50; ri++ {
			s.Spawn(func(*forkjoin.Scope) {})
		}
	})

	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}
	poller.AddScheduler("live", forkjoin.SchedulerStats)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		return testutil.ToFloat64(poller.jobsCompleted.WithLabelValues("live")) == 50
	})
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func TestSnapshotPoller_ReregisterReusesCollectors(t *testing.T) {
	reg := prom.NewRegistry()
	if _, err := NewSnapshotPoller(reg, time.Second); err != nil {
		t.Fatalf("first NewSnapshotPoller failed: %v", err)
	}
	if _, err := NewSnapshotPoller(reg, time.Second); err != nil {
		t.Fatalf("second NewSnapshotPoller failed: %v", err)
	}
}
