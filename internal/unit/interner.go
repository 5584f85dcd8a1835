package unit

import "sync"

// Interner deduplicates units so identical (package, target, profile, mode,
// kind, features, dep-hash) tuples share one identity (spec.md §3, §5: an
// atomic, append-only table accessed through shared references — modeled
// here with a mutex-protected map since the graph builder runs single
// threaded; the job queue only ever reads the finished table).
type Interner struct {
	mu      sync.Mutex
	byKey   map[key]*Unit
	all     []*Unit
}

// NewInterner returns an empty interner.
func NewInterner() *Interner {
	return &Interner{byKey: make(map[key]*Unit)}
}

// Intern returns the canonical *Unit for u's field values, creating one on
// first use. u.DepHash must already be its final value: the graph builder
// computes DepHash bottom-up (children before parents, guaranteed possible
// by the acyclic invariant) before calling Intern for a unit, specifically
// so that two field-identical units with differently-shaped dependency
// subtrees (spec.md §9, "dep-hash disambiguation") are not wrongly merged.
func (in *Interner) Intern(u Unit) *Unit {
	in.mu.Lock()
	defer in.mu.Unlock()
	k := keyOf(&u)
	if existing, ok := in.byKey[k]; ok {
		return existing
	}
	nu := u
	in.all = append(in.all, &nu)
	in.byKey[k] = &nu
	return &nu
}

// All returns every interned unit, in insertion order.
func (in *Interner) All() []*Unit {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]*Unit, len(in.all))
	copy(out, in.all)
	return out
}

// Len reports how many distinct units have been interned.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.all)
}
