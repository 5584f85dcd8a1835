package unit

import "path/filepath"

// TargetFilter selects which targets of the root package(s) become root
// units (spec.md §4.1). The zero value is the default filter.
type TargetFilter struct {
	Explicit bool // true once any field below is set by the caller

	Lib         bool
	BinNames    []string // exact names or glob patterns
	AllBins     bool
	ExampleNames []string
	AllExamples  bool
	TestNames    []string
	AllTests     bool
	BenchNames   []string
	AllBenches   bool
}

// selectTargets implements spec.md §4.1's Default filter / Explicit filter /
// Required-features rules for one package.
func selectTargets(pkg ResolvedPackage, filter TargetFilter, mode Mode) ([]Target, error) {
	enabled := pkg.FeaturesEnabled
	var selected []Target

	requireOrSkip := func(t Target, explicitlyNamed bool) (Target, bool, error) {
		if t.RequiredFeaturesCovered(enabled) {
			return t, true, nil
		}
		if explicitlyNamed {
			return t, false, configErrorf("target %q of package %s requires features %v, not all enabled",
				t.Name, pkg.Id, t.RequiredFeatures)
		}
		return t, false, nil // silently skipped
	}

	if !filter.Explicit {
		// Default filter (spec.md §4.1).
		for _, t := range pkg.Targets {
			switch t.Kind {
			case TargetLibrary:
				selected = append(selected, t)
			case TargetBinary:
				if mode == Doc {
					// libs for Doc, plus binaries whose name differs from the lib.
					if hasLibNamed(pkg.Targets, t.Name) {
						continue
					}
				}
				t, ok, err := requireOrSkip(t, false)
				if err != nil {
					return nil, err
				}
				if ok {
					selected = append(selected, t)
				}
			case TargetIntegrationTest, TargetExample:
				if mode == Test {
					t, ok, err := requireOrSkip(t, false)
					if err != nil {
						return nil, err
					}
					if ok {
						selected = append(selected, t)
					}
				}
			}
		}
		return selected, nil
	}

	// Explicit filter: named targets match by exact name or glob.
	match := func(names []string, all bool, kind TargetKind) error {
		for _, t := range pkg.Targets {
			if t.Kind != kind {
				continue
			}
			if all {
				rt, ok, err := requireOrSkip(t, false)
				if err != nil {
					return err
				}
				if ok {
					selected = append(selected, rt)
				}
				continue
			}
			for _, pat := range names {
				ok, err := filepath.Match(pat, t.Name)
				if err != nil {
					return configErrorf("invalid target pattern %q: %w", pat, err)
				}
				if ok || pat == t.Name {
					rt, included, err := requireOrSkip(t, true)
					if err != nil {
						return err
					}
					if included {
						selected = append(selected, rt)
					}
				}
			}
		}
		return nil
	}

	if filter.Lib {
		for _, t := range pkg.Targets {
			if t.Kind == TargetLibrary {
				selected = append(selected, t)
			}
		}
	}
	if err := match(filter.BinNames, filter.AllBins, TargetBinary); err != nil {
		return nil, err
	}
	if err := match(filter.ExampleNames, filter.AllExamples, TargetExample); err != nil {
		return nil, err
	}
	if err := match(filter.TestNames, filter.AllTests, TargetIntegrationTest); err != nil {
		return nil, err
	}
	if err := match(filter.BenchNames, filter.AllBenches, TargetBenchmark); err != nil {
		return nil, err
	}

	// Hard-error on unmatched explicitly-named targets (spec.md §4.1).
	// Unmatched filter categories produce neither an error nor a warning:
	// this function returns only hard errors.
	for _, names := range [][]string{filter.BinNames, filter.ExampleNames, filter.TestNames, filter.BenchNames} {
		for _, name := range names {
			if !filepath.IsAbs(name) && !containsGlobMeta(name) && !anyTargetNamed(pkg.Targets, name) {
				return nil, configErrorf("no target named %q in package %s (did you mean one of the declared targets?)", name, pkg.Id)
			}
		}
	}

	return selected, nil
}

func hasLibNamed(targets []Target, name string) bool {
	for _, t := range targets {
		if t.Kind == TargetLibrary && t.Name == name {
			return true
		}
	}
	return false
}

func anyTargetNamed(targets []Target, name string) bool {
	for _, t := range targets {
		if t.Name == name {
			return true
		}
	}
	return false
}

func containsGlobMeta(s string) bool {
	for _, c := range s {
		if c == '*' || c == '?' || c == '[' {
			return true
		}
	}
	return false
}
