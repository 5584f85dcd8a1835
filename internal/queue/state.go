// Package queue implements the parallel job scheduler of spec.md §4.4: a
// fixed-size worker pool draining a unit graph in dependency order, a
// token-based concurrency limiter shared with spawned compiler processes,
// and a single-consumer message bus that keeps user-visible output
// deterministic under parallelism.
//
// Grounded on the teacher's internal/batch/batch.go scheduler (worker pool
// over a gonum graph, per-slot status rendering, markFailed/canBuild
// propagation) and on the fissile compilator's todoCh/doneCh worker-pool
// shape (github.com/cloudfoundry-incubator/fissile), generalized from
// "one package, one exec.Cmd" to "one unit, one caller-supplied work
// closure".
package queue

import "fmt"

// State is a unit's position in the state machine of spec.md §4.4.
type State int

const (
	NotStarted State = iota
	Queued
	Running
	Finished
	Failed
	Linked
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	case Linked:
		return "linked"
	default:
		return "unknown"
	}
}

// transition validates one edge of the state machine diagram in spec.md
// §4.4. Linking is driven externally (internal/layout), so Finished ->
// Linked is accepted here but never produced by the scheduler itself.
func transition(from, to State) error {
	ok := false
	switch from {
	case NotStarted:
		ok = to == Queued
	case Queued:
		ok = to == Running
	case Running:
		ok = to == Finished || to == Failed
	case Finished:
		ok = to == Linked
	case Failed, Linked:
		ok = false // terminal
	}
	if !ok {
		return fmt.Errorf("queue: invalid state transition %s -> %s", from, to)
	}
	return nil
}
