package vm

// exec.go drives the Environment's Step loop in the background, under
// external start/stop control, and reports redraws and failures on a
// channel.

import (
	"context"
	"sync"
	"sync/atomic"

	"vm1600/internal/log"
)

// Executor owns the DeviceBus (via the Environment) and shares the
// Environment with a Handle. It reuses the Environment's mutex across
// consecutive steps while running, so a paused UI only ever observes the
// machine at a stop boundary.
type Executor struct {
	env *Environment
	mu  *sync.Mutex

	running *atomic.Bool
	wake    *sync.Cond

	events chan Event

	log *log.Logger
}

// Handle is the external control surface for an Executor: Start, Stop,
// Reset, and the receive end of the event channel.
type Handle struct {
	exec *Executor
}

// NewExecutor creates an Executor and a Handle sharing one Environment.
// The event channel is buffered so a slow consumer doesn't stall a fast
// step loop indefinitely; a full channel simply blocks the executor until
// drained, matching a lossless single-producer/single-consumer channel.
func NewExecutor(env *Environment) (*Executor, *Handle) {
	mu := &sync.Mutex{}
	running := &atomic.Bool{}

	exec := &Executor{
		env:     env,
		mu:      mu,
		running: running,
		wake:    sync.NewCond(mu),
		events:  make(chan Event, 16),
		log:     log.DefaultLogger(),
	}

	return exec, &Handle{exec: exec}
}

// Events returns the receive end of the executor's report channel.
func (h *Handle) Events() <-chan Event { return h.exec.events }

// Start sets the running flag and wakes the executor if it is parked.
func (h *Handle) Start() {
	h.exec.mu.Lock()
	h.exec.running.Store(true)
	h.exec.wake.Broadcast()
	h.exec.mu.Unlock()
}

// Stop clears the running flag. The executor finishes its in-flight step
// and parks.
func (h *Handle) Stop() {
	h.exec.running.Store(false)
}

// Reset stops the executor, then replaces the Environment. Callers must
// ensure Stop has taken effect (e.g. by observing a Failure event or
// waiting briefly) before relying on the new Environment being the one
// the executor steps next; Reset itself only overwrites the shared
// Environment with a copy of env under the shared lock.
func (h *Handle) Reset(env *Environment) {
	h.exec.running.Store(false)

	h.exec.mu.Lock()
	defer h.exec.mu.Unlock()

	*h.exec.env = *env
}

// View acquires the shared lock and returns a copy of the Environment.
// Safe to call only while the executor is stopped; calling it while
// running will block until the executor pauses.
func (h *Handle) View() Environment {
	h.exec.mu.Lock()
	defer h.exec.mu.Unlock()

	return *h.exec.env
}

// Step executes a single instruction against the shared Environment and
// returns its Report. Intended for single-step debugging while the
// executor is stopped; calling it while running will block until the
// executor pauses, and the step it performs races with the run loop's
// own stepping once both resume.
func (h *Handle) Step() (Report, error) {
	h.exec.mu.Lock()
	defer h.exec.mu.Unlock()

	return h.exec.env.Step()
}

// Run drives the step loop until ctx is cancelled. It parks on the wake
// condition while stopped, and holds the Environment's lock across
// consecutive steps while running — see Executor's doc comment.
func (exec *Executor) Run(ctx context.Context) {
	exec.mu.Lock()
	held := true

	defer func() {
		if held {
			exec.mu.Unlock()
		}
	}()

	go func() {
		<-ctx.Done()

		exec.mu.Lock()
		exec.wake.Broadcast()
		exec.mu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		if !exec.running.Load() {
			exec.wake.Wait()

			continue
		}

		report, err := exec.env.Step()
		if err != nil {
			exec.running.Store(false)
			exec.send(FailureEvent{Err: err})

			continue
		}

		if report.Redraw {
			exec.send(RedrawEvent{})
		}
	}
}

// send delivers an event without holding the Environment's lock, so a
// slow consumer cannot deadlock a running executor against the Handle.
func (exec *Executor) send(ev Event) {
	exec.mu.Unlock()
	exec.events <- ev
	exec.mu.Lock()
}
