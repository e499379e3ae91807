// Package prometheus exports fork-join scheduler activity as Prometheus
// metrics. It polls [forkjoin.Stats] snapshots on an interval and mirrors
// them into gauges, so the scheduler core stays free of any metrics
// dependency.
package prometheus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/anorbaev/forkjoin"
)

// StatsFunc returns a current scheduler stats snapshot. The usual source is
// [forkjoin.SchedulerStats], but tests and multi-scheduler embeddings can
// supply their own.
type StatsFunc func() forkjoin.Stats

// SnapshotPoller periodically exports scheduler Stats() snapshots into
// Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	sourcesMu sync.RWMutex
	sources   map[string]StatsFunc

	workers       *prom.GaugeVec
	jobsSpawned   *prom.GaugeVec
	jobsCompleted *prom.GaugeVec
	jobsStolen    *prom.GaugeVec
	jobsInjected  *prom.GaugeVec
	jobsPanicked  *prom.GaugeVec
	queueDepth    *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	workers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "forkjoin",
		Name:      "workers",
		Help:      "Worker count per scheduler (0 in headless mode).",
	}, []string{"scheduler"})
	jobsSpawned := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "forkjoin",
		Name:      "jobs_spawned_total",
		Help:      "Jobs queued since setup, snapshot.",
	}, []string{"scheduler"})
	jobsCompleted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "forkjoin",
		Name:      "jobs_completed_total",
		Help:      "Jobs finished since setup, snapshot.",
	}, []string{"scheduler"})
	jobsStolen := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "forkjoin",
		Name:      "jobs_stolen_total",
		Help:      "Jobs taken from a peer worker's deque, snapshot.",
	}, []string{"scheduler"})
	jobsInjected := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "forkjoin",
		Name:      "jobs_injected_total",
		Help:      "Jobs routed through the shared injector queue, snapshot.",
	}, []string{"scheduler"})
	jobsPanicked := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "forkjoin",
		Name:      "jobs_panicked_total",
		Help:      "Jobs that panicked, snapshot.",
	}, []string{"scheduler"})
	queueDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "forkjoin",
		Name:      "queue_depth",
		Help:      "Jobs currently waiting, per queue kind.",
	}, []string{"scheduler", "queue"})

	var err error
	if workers, err = registerCollector(reg, workers); err != nil {
		return nil, err
	}
	if jobsSpawned, err = registerCollector(reg, jobsSpawned); err != nil {
		return nil, err
	}
	if jobsCompleted, err = registerCollector(reg, jobsCompleted); err != nil {
		return nil, err
	}
	if jobsStolen, err = registerCollector(reg, jobsStolen); err != nil {
		return nil, err
	}
	if jobsInjected, err = registerCollector(reg, jobsInjected); err != nil {
		return nil, err
	}
	if jobsPanicked, err = registerCollector(reg, jobsPanicked); err != nil {
		return nil, err
	}
	if queueDepth, err = registerCollector(reg, queueDepth); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:      interval,
		sources:       make(map[string]StatsFunc),
		workers:       workers,
		jobsSpawned:   jobsSpawned,
		jobsCompleted: jobsCompleted,
		jobsStolen:    jobsStolen,
		jobsInjected:  jobsInjected,
		jobsPanicked:  jobsPanicked,
		queueDepth:    queueDepth,
	}, nil
}

// AddScheduler adds or replaces a stats source by name.
func (p *SnapshotPoller) AddScheduler(name string, fn StatsFunc) {
	if p == nil || fn == nil {
		return
	}
	if name == "" {
		name = "default"
	}
	p.sourcesMu.Lock()
	p.sources[name] = fn
	p.sourcesMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.sourcesMu.RLock()
	defer p.sourcesMu.RUnlock()

	for name, fn := range p.sources {
		stats := fn()
		p.workers.WithLabelValues(name).Set(float64(stats.Workers))
		p.jobsSpawned.WithLabelValues(name).Set(float64(stats.Spawned))
		p.jobsCompleted.WithLabelValues(name).Set(float64(stats.Completed))
		p.jobsStolen.WithLabelValues(name).Set(float64(stats.Stolen))
		p.jobsInjected.WithLabelValues(name).Set(float64(stats.Injected))
		p.jobsPanicked.WithLabelValues(name).Set(float64(stats.Panicked))
		p.queueDepth.WithLabelValues(name, "injector").Set(float64(stats.InjectorDepth))
		p.queueDepth.WithLabelValues(name, "deques").Set(float64(stats.DequeDepth))
	}
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
