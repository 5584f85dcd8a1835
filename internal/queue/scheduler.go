package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/ferrocore/ferrocore/internal/timings"
	"github.com/ferrocore/ferrocore/internal/unit"
)

// Work is the closure a caller supplies for one unit. Returning a non-nil
// error fails the unit (Running -> Failed).
type Work func(ctx context.Context, u *unit.Unit) error

// Result is the outcome of a full Run.
type Result struct {
	Errors  map[*unit.Unit]error // failed, dependency-starved, or (fail-fast) never-scheduled units
	Summary UnitSummaries
}

// UnitSummaries is exported for the timings report.
type UnitSummaries []timings.UnitSummary

// Scheduler drains a unit graph with a fixed-size worker pool, following
// spec.md §4.4. Grounded on the teacher's internal/batch/batch.go
// scheduler: gonum-graph-driven ready queue, per-worker status rendering,
// and the markFailed/canBuild dependency-propagation shape, generalized to
// arbitrary Work closures instead of a fixed "distri build" exec.Cmd.
type Scheduler struct {
	Graph      *unit.Graph
	Jobs       int
	NoFailFast bool
	Bus        *Bus
	Sink       *timings.Sink

	tokens *TokenPool

	mu       sync.Mutex
	state    map[*unit.Unit]State
	err      map[*unit.Unit]error
	deps     map[*unit.Unit][]*unit.Unit // unit -> its deps
	dependents map[*unit.Unit][]*unit.Unit // unit -> units depending on it
	remaining map[*unit.Unit]int          // count of not-yet-Finished deps
	draining bool
}

// Run executes every unit in g, never exceeding Jobs concurrent workers,
// and returns once all reachable units have reached a terminal state
// (Finished or Failed) or the scheduler is draining and in-flight work has
// completed (spec.md §4.4 "Cancellation semantics").
func (s *Scheduler) Run(ctx context.Context, work Work) (*Result, error) {
	if s.Jobs < 1 {
		s.Jobs = 1
	}
	s.tokens = NewTokenPool(s.Jobs)
	s.state = make(map[*unit.Unit]State)
	s.err = make(map[*unit.Unit]error)
	s.deps = make(map[*unit.Unit][]*unit.Unit)
	s.dependents = make(map[*unit.Unit][]*unit.Unit)
	s.remaining = make(map[*unit.Unit]int)

	all := s.Graph.Interner.All()
	for _, u := range all {
		s.state[u] = NotStarted
	}
	for u, edges := range s.Graph.Edges {
		for _, e := range edges {
			s.deps[u] = append(s.deps[u], e.Dep)
			s.dependents[e.Dep] = append(s.dependents[e.Dep], u)
		}
		s.remaining[u] = len(edges)
	}

	ready := make(chan *unit.Unit, len(all))
	doneCh := make(chan unitResult, len(all))

	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.Jobs; i++ {
		worker := i
		eg.Go(func() error {
			return s.runWorker(egCtx, worker, ready, doneCh, work)
		})
	}

	summaries := make(UnitSummaries, 0, len(all))
	var summaryMu sync.Mutex

	dispatcher := make(chan struct{})
	go func() {
		defer close(dispatcher)
		s.dispatch(egCtx, all, ready, doneCh, &summaries, &summaryMu)
	}()

	<-dispatcher
	close(ready)
	egErr := eg.Wait()

	result := &Result{Errors: make(map[*unit.Unit]error), Summary: summaries}
	s.mu.Lock()
	for u, st := range s.state {
		if st == Failed {
			result.Errors[u] = s.err[u]
		}
	}
	s.mu.Unlock()

	if egErr != nil && len(result.Errors) == 0 {
		return result, egErr
	}
	if len(result.Errors) > 0 {
		first := firstByName(result.Errors)
		if !s.NoFailFast {
			return result, fmt.Errorf("unit %s failed: %w", first.String(), result.Errors[first])
		}
		return result, fmt.Errorf("%d unit(s) failed, first: %s: %w", len(result.Errors), first.String(), result.Errors[first])
	}
	return result, nil
}

func firstByName(errs map[*unit.Unit]error) *unit.Unit {
	var units []*unit.Unit
	for u := range errs {
		units = append(units, u)
	}
	slices.SortFunc(units, func(a, b *unit.Unit) bool { return a.String() < b.String() })
	return units[0]
}

type unitResult struct {
	u   *unit.Unit
	err error
	dur time.Duration
}

// dispatch is the single scheduling-tick goroutine: it owns s.state/
// s.remaining and feeds the ready channel, mirroring the teacher's
// single-goroutine "for len(s.built) < numNodes" tick loop.
func (s *Scheduler) dispatch(ctx context.Context, all []*unit.Unit, ready chan<- *unit.Unit, doneCh <-chan unitResult, summaries *UnitSummaries, summaryMu *sync.Mutex) {
	s.mu.Lock()
	var initial []*unit.Unit
	for _, u := range all {
		if s.remaining[u] == 0 {
			initial = append(initial, u)
		}
	}
	s.mu.Unlock()
	for _, u := range s.order(initial) {
		s.enqueue(u, ready)
	}

	finished := 0
	for finished < len(all) {
		select {
		case <-ctx.Done():
			return
		case r := <-doneCh:
			finished++
			s.mu.Lock()
			if r.err != nil {
				s.state[r.u] = Failed
				s.err[r.u] = r.err
				finished += s.starveDependents(r.u)
				if !s.NoFailFast && !s.draining {
					s.draining = true
					finished += s.skipNotStarted(all)
				}
			} else {
				s.state[r.u] = Finished
				var unblocked []*unit.Unit
				for _, dep := range s.dependents[r.u] {
					s.remaining[dep]--
					if s.remaining[dep] == 0 && s.state[dep] == NotStarted && !s.draining {
						unblocked = append(unblocked, dep)
					}
				}
				s.mu.Unlock()
				summaryMu.Lock()
				*summaries = append(*summaries, timings.UnitSummary{Name: r.u.String(), Duration: r.dur})
				summaryMu.Unlock()
				for _, u := range s.order(unblocked) {
					s.enqueue(u, ready)
				}
				continue
			}
			s.mu.Unlock()
		}
	}
}

// starveDependents marks every transitive dependent of a failed unit as
// Failed-by-propagation, mirroring the teacher's markFailed. Must be
// called with s.mu held; returns how many additional units were marked so
// the caller's finished counter stays accurate.
func (s *Scheduler) starveDependents(u *unit.Unit) int {
	marked := 0
	var walk func(u *unit.Unit)
	walk = func(u *unit.Unit) {
		for _, dep := range s.dependents[u] {
			if _, already := s.err[dep]; already {
				continue
			}
			if s.state[dep] == Finished {
				continue // already succeeded; cannot be unwound
			}
			s.state[dep] = Failed
			s.err[dep] = fmt.Errorf("queue: dependency %s failed", u.String())
			marked++
			walk(dep)
		}
	}
	walk(u)
	return marked
}

// skipNotStarted marks every unit still in NotStarted as failed-by-drain,
// so the dispatcher's completion count reaches len(all) even though those
// units were deliberately never scheduled (spec.md §4.4 "Cancellation
// semantics": fail-fast schedules no new units once draining begins). Must
// be called with s.mu held.
func (s *Scheduler) skipNotStarted(all []*unit.Unit) int {
	marked := 0
	for _, u := range all {
		if s.state[u] == NotStarted {
			s.state[u] = Failed
			s.err[u] = fmt.Errorf("queue: not scheduled, a sibling unit failed")
			marked++
		}
	}
	return marked
}

// order implements spec.md §4.4 "Ordering": most dependents first, then
// lexicographic package name, so diagnostic output is reproducible.
func (s *Scheduler) order(us []*unit.Unit) []*unit.Unit {
	slices.SortStableFunc(us, func(a, b *unit.Unit) bool {
		da, db := len(s.dependents[a]), len(s.dependents[b])
		if da != db {
			return da > db
		}
		return a.Package.Name < b.Package.Name
	})
	return us
}

func (s *Scheduler) enqueue(u *unit.Unit, ready chan<- *unit.Unit) {
	s.mu.Lock()
	s.state[u] = Queued
	s.mu.Unlock()
	ready <- u
}

func (s *Scheduler) runWorker(ctx context.Context, slot int, ready <-chan *unit.Unit, doneCh chan<- unitResult, work Work) error {
	for u := range ready {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.Lock()
		if s.state[u] == Failed {
			s.mu.Unlock()
			continue
		}
		s.state[u] = Running
		s.mu.Unlock()

		// Slot 0 runs on the scheduler's implicit token; every other slot
		// holds one of the pool's jobs-1 explicit tokens while it works.
		implicit := slot == 0
		if !implicit {
			if err := s.tokens.Acquire(ctx); err != nil {
				doneCh <- unitResult{u: u, err: err}
				continue
			}
		}
		if s.Bus != nil {
			s.Bus.Send(Message{Kind: MsgRunning, UnitName: u.String(), Worker: slot})
		}
		var ev *timings.Event
		if s.Sink != nil {
			ev = s.Sink.Begin(u.String(), slot)
		}
		start := time.Now()
		err := work(ctx, u)
		dur := time.Since(start)
		if ev != nil {
			s.Sink.End(ev)
		}
		if !implicit {
			s.tokens.Release()
		}

		if s.Bus != nil {
			s.Bus.Send(Message{Kind: MsgFinish, UnitName: u.String(), Worker: slot, Err: err})
		}
		doneCh <- unitResult{u: u, err: err, dur: dur}
	}
	return nil
}
