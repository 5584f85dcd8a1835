package fingerprint

import (
	"log"
	"time"
)

// LogWhy emits the one-line "why" record spec.md §4.2 "Observability" asks
// for, naming the unit and the first decision-procedure rule that fired.
func LogWhy(verbose bool, unitName string, d Decision) {
	if d.Freshness == Fresh || !verbose {
		return
	}
	if d.Detail == "" {
		log.Printf("dirty: %s: %s", unitName, d.Reason)
		return
	}
	log.Printf("dirty: %s: %s (%s)", unitName, d.Reason, d.Detail)
}

// Finalize persists the fingerprint after a unit completes successfully
// (spec.md §4.2 "Persistence"). On failure the caller simply never calls
// this, leaving the previous fingerprint file untouched.
func Finalize(dir string, composed Composed, invocationTime time.Time, envWatched map[string]string) error {
	return Save(dir, Record{
		ComposedHash:   composed.Hash(),
		InvocationTime: invocationTime,
		EnvWatched:     envWatched,
	})
}
