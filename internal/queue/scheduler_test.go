package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ferrocore/ferrocore/internal/unit"
)

func chainGraph() (*unit.Graph, *unit.Unit, *unit.Unit) {
	in := unit.NewInterner()
	b := in.Intern(unit.Unit{Package: unit.PackageId{Name: "b", Version: "1.0.0"}, Target: unit.Target{Name: "b"}})
	a := in.Intern(unit.Unit{Package: unit.PackageId{Name: "a", Version: "1.0.0"}, Target: unit.Target{Name: "a"}})
	g := &unit.Graph{
		Interner: in,
		Roots:    []*unit.Unit{a},
		Edges: map[*unit.Unit][]unit.Edge{
			a: {{Unit: a, Dep: b}},
			b: nil,
		},
	}
	return g, a, b
}

func TestSchedulerRunsDepsBeforeDependents(t *testing.T) {
	g, a, b := chainGraph()
	var mu sync.Mutex
	var order []string

	s := &Scheduler{Graph: g, Jobs: 2}
	_, err := s.Run(context.Background(), func(ctx context.Context, u *unit.Unit) error {
		mu.Lock()
		order = append(order, u.Package.Name)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("got order %v, want [b a]", order)
	}
	_ = a
	_ = b
}

func TestSchedulerFailFastStopsDependents(t *testing.T) {
	g, a, b := chainGraph()
	s := &Scheduler{Graph: g, Jobs: 2}
	result, err := s.Run(context.Background(), func(ctx context.Context, u *unit.Unit) error {
		if u == b {
			return errors.New("boom")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected both units marked failed, got %d: %v", len(result.Errors), result.Errors)
	}
	if _, ok := result.Errors[a]; !ok {
		t.Fatal("expected dependent a to be marked failed when its dependency b fails")
	}
}

func TestSchedulerNoFailFastRunsSiblings(t *testing.T) {
	in := unit.NewInterner()
	bad := in.Intern(unit.Unit{Package: unit.PackageId{Name: "bad", Version: "1.0.0"}, Target: unit.Target{Name: "bad"}})
	good := in.Intern(unit.Unit{Package: unit.PackageId{Name: "good", Version: "1.0.0"}, Target: unit.Target{Name: "good"}})
	g := &unit.Graph{
		Interner: in,
		Roots:    []*unit.Unit{bad, good},
		Edges:    map[*unit.Unit][]unit.Edge{bad: nil, good: nil},
	}
	s := &Scheduler{Graph: g, Jobs: 2, NoFailFast: true}
	var mu sync.Mutex
	ran := make(map[string]bool)
	_, err := s.Run(context.Background(), func(ctx context.Context, u *unit.Unit) error {
		mu.Lock()
		ran[u.Package.Name] = true
		mu.Unlock()
		if u == bad {
			return errors.New("boom")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected a summary error")
	}
	if !ran["good"] {
		t.Fatal("expected the unrelated sibling to still run under no-fail-fast")
	}
}
