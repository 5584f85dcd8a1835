package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ferrocore/ferrocore/internal/unit"
)

// inputPackage is the on-disk JSON shape of one already-resolved package
// (spec.md §6, "Inputs from other subsystems"). The resolver itself is out
// of scope (spec.md §1); this is the seam a real resolver's output would be
// serialized through.
type inputPackage struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Source          string            `json:"source"` // "registry"|"git"|"path"
	FeaturesEnabled []string          `json:"features_enabled"`
	Targets         []inputTarget     `json:"targets"`
	Deps            []inputDep        `json:"deps"`
	Workspace       bool              `json:"workspace_member"`
	StdLib          bool              `json:"stdlib"`
	Links           string            `json:"links"`
	HasBuildScript  bool              `json:"has_build_script"`
}

type inputTarget struct {
	Name             string   `json:"name"`
	Kind             string   `json:"kind"` // "lib"|"bin"|"example"|"test"|"bench"|"build-script"
	Crate            string   `json:"crate"`
	SrcPath          string   `json:"src_path"`
	RequiredFeatures []string `json:"required_features"`
	Tested           bool     `json:"tested"`
	Benched          bool     `json:"benched"`
	Doctested        bool     `json:"doctested"`
	ForHost          bool     `json:"for_host"`
}

type inputDep struct {
	To              string `json:"to"` // "name-version(source)" PackageId.String()
	Kind            string `json:"kind"` // "normal"|"build"|"dev"
	Public          bool   `json:"public"`
	ExternCrateName string `json:"extern_crate_name"`
}

func loadResolvedPackages(path string) (map[unit.PackageId]unit.ResolvedPackage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var in []inputPackage
	if err := json.NewDecoder(f).Decode(&in); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	ids := make(map[string]unit.PackageId, len(in))
	out := make(map[unit.PackageId]unit.ResolvedPackage, len(in))
	for _, p := range in {
		src, err := parseSource(p.Source)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", p.Name, err)
		}
		id := unit.PackageId{Name: p.Name, Version: p.Version, Source: src}
		ids[id.String()] = id
	}

	for _, p := range in {
		src, _ := parseSource(p.Source)
		id := unit.PackageId{Name: p.Name, Version: p.Version, Source: src}

		targets := make([]unit.Target, 0, len(p.Targets))
		for _, t := range p.Targets {
			kind, err := parseTargetKind(t.Kind)
			if err != nil {
				return nil, fmt.Errorf("package %s, target %s: %w", p.Name, t.Name, err)
			}
			targets = append(targets, unit.Target{
				Name:             t.Name,
				Kind:             kind,
				Crate:            unit.CrateKind(t.Crate),
				SrcPath:          t.SrcPath,
				RequiredFeatures: t.RequiredFeatures,
				Tested:           t.Tested,
				Benched:          t.Benched,
				Doctested:        t.Doctested,
				ForHost:          t.ForHost,
				IsLibOfPkg:       kind == unit.TargetLibrary,
			})
		}

		deps := make([]unit.DepEdge, 0, len(p.Deps))
		for _, d := range p.Deps {
			toId, ok := ids[d.To]
			if !ok {
				return nil, fmt.Errorf("package %s: dependency %q references an unknown package id", p.Name, d.To)
			}
			depKind, err := parseDepKind(d.Kind)
			if err != nil {
				return nil, fmt.Errorf("package %s, dep %s: %w", p.Name, d.To, err)
			}
			deps = append(deps, unit.DepEdge{
				To:              toId,
				Kind:            depKind,
				Public:          d.Public,
				ExternCrateName: d.ExternCrateName,
			})
		}

		enabled := make(map[string]bool, len(p.FeaturesEnabled))
		for _, f := range p.FeaturesEnabled {
			enabled[f] = true
		}

		out[id] = unit.ResolvedPackage{
			Id:                id,
			FeaturesEnabled:   enabled,
			Targets:           targets,
			Deps:              deps,
			IsWorkspaceMember: p.Workspace,
			IsStdLib:          p.StdLib,
			Links:             p.Links,
			HasBuildScript:    p.HasBuildScript,
		}
	}
	return out, nil
}

func parseSource(s string) (unit.Source, error) {
	switch s {
	case "", "registry":
		return unit.SourceRegistry, nil
	case "git":
		return unit.SourceGit, nil
	case "path":
		return unit.SourcePath, nil
	default:
		return 0, fmt.Errorf("unknown source %q", s)
	}
}

func parseTargetKind(s string) (unit.TargetKind, error) {
	switch s {
	case "lib":
		return unit.TargetLibrary, nil
	case "bin":
		return unit.TargetBinary, nil
	case "example":
		return unit.TargetExample, nil
	case "test":
		return unit.TargetIntegrationTest, nil
	case "bench":
		return unit.TargetBenchmark, nil
	case "build-script":
		return unit.TargetBuildScript, nil
	default:
		return 0, fmt.Errorf("unknown target kind %q", s)
	}
}

func parseDepKind(s string) (unit.DepKind, error) {
	switch s {
	case "", "normal":
		return unit.DepNormal, nil
	case "build":
		return unit.DepBuild, nil
	case "dev":
		return unit.DepDev, nil
	default:
		return 0, fmt.Errorf("unknown dep kind %q", s)
	}
}
