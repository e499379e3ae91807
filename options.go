package forkjoin

import "log"

type config struct {
	panicHandler func(any)
}

// Option configures the scheduler at [Setup] time.
type Option func(*config)

func defaultConfig() config {
	return config{
		panicHandler: defaultPanicHandler,
	}
}

// WithPanicHandler installs the handler invoked when a detached job spawned
// via [Spawn] panics. The handler receives the captured failure (a
// [*PanicError] for panics raised inside the job body) and may be invoked
// concurrently from multiple workers, so it must be safe to call from any
// goroutine. It panics if fn is nil.
//
// Without this option, failures are logged with their stack trace. A
// detached job's failure is never silently discarded; there is no other
// consumer for it.
func WithPanicHandler(fn func(any)) Option {
	if fn == nil {
		panic("forkjoin: WithPanicHandler requires non-nil handler")
	}
	return func(c *config) {
		c.panicHandler = fn
	}
}

func defaultPanicHandler(v any) {
	if pe, ok := v.(*PanicError); ok {
		log.Printf("forkjoin: unhandled panic in detached job: %v\n%s", pe.Value, pe.Stack)
		return
	}
	log.Printf("forkjoin: unhandled panic in detached job: %v", v)
}
