package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ferrocore/ferrocore"
	"github.com/ferrocore/ferrocore/internal/buildscript"
	"github.com/ferrocore/ferrocore/internal/fingerprint"
	"github.com/ferrocore/ferrocore/internal/layout"
	"github.com/ferrocore/ferrocore/internal/oninterrupt"
	"github.com/ferrocore/ferrocore/internal/queue"
	"github.com/ferrocore/ferrocore/internal/timings"
	"github.com/ferrocore/ferrocore/internal/unit"
)

// driver wires every component together for one invocation: unit graph
// construction, fingerprinting, build-script execution, the parallel
// scheduler, and artifact linking (spec.md §2 "Data flow").
type driver struct {
	cfg      Config
	tools    ToolLocator
	lay      layout.Layout
	scripts  *buildscript.BuildScriptOutputs
	msgs     *messageWriter
	packages map[unit.PackageId]unit.ResolvedPackage

	compilerVersion string
	hostTriple      ferrocore.HostTriple
	jobs            int

	// fresh records each unit's already-decided freshness as soon as
	// buildOne returns, so a dependent can fold rule 4 (dependency dirty ⇒
	// dependent dirty) in without the fingerprint package knowing about the
	// unit graph. The scheduler always runs a unit's dependencies before the
	// unit itself, so every entry in g.Edges[u] is already populated here by
	// the time u is decided.
	freshMu sync.Mutex
	fresh   map[*unit.Unit]fingerprint.Freshness
}

func newDriver(cfg Config) (*driver, error) {
	tools := NewToolLocator(cfg)
	compiler, err := tools.Compiler()
	if err != nil {
		return nil, fmt.Errorf("locating compiler: %w", err)
	}
	version, err := compilerVersion(compiler)
	if err != nil {
		return nil, fmt.Errorf("querying compiler version: %w", err)
	}
	host := hostTriple()

	return &driver{
		cfg:   cfg,
		tools: tools,
		lay: layout.Layout{
			TargetDir: cfg.TargetDir,
			Profile:   cfg.RequestedProfile,
			Triple:    cfg.RequestedTarget,
		},
		scripts:         buildscript.NewBuildScriptOutputs(),
		msgs:            newMessageWriter(cfg.MessageFormat, os.Stdout),
		compilerVersion: version,
		hostTriple:      host,
		fresh:           make(map[*unit.Unit]fingerprint.Freshness),
	}, nil
}

func compilerVersion(compiler string) (string, error) {
	out, err := exec.Command(compiler, "--version").Output()
	if err != nil {
		// A compiler that doesn't support --version (or isn't installed in
		// this environment) must not abort unit-graph/build-plan inspection,
		// which never actually invokes it.
		return "unknown", nil
	}
	return string(out), nil
}

func hostTriple() ferrocore.HostTriple {
	switch runtime.GOARCH {
	case "amd64":
		return ferrocore.HostTriple("x86_64-unknown-" + runtime.GOOS)
	case "arm64":
		return ferrocore.HostTriple("aarch64-unknown-" + runtime.GOOS)
	default:
		return ferrocore.HostTriple(runtime.GOARCH + "-unknown-" + runtime.GOOS)
	}
}

func (d *driver) run(ctx context.Context) error {
	packages, err := loadResolvedPackages(d.cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("loading resolved packages: %w", err)
	}
	d.packages = packages

	profile := unit.DebugProfile
	if d.cfg.RequestedProfile == "release" {
		profile = unit.ReleaseProfile
	}
	kind := unit.Host
	if d.cfg.RequestedTarget != "" {
		kind = unit.ForTarget(d.cfg.RequestedTarget)
	}

	b := &unit.Builder{Packages: packages, Profile: profile, Kind: kind}
	graph, err := b.Build(unit.TargetFilter{}, unit.Build)
	if err != nil {
		return fmt.Errorf("building unit graph: %w", err)
	}

	if d.cfg.EmitUnitGraph {
		return writeUnitGraphJSON(os.Stdout, graph)
	}
	if d.cfg.EmitBuildPlan {
		return writeBuildPlanJSON(os.Stdout, graph)
	}

	var sink *timings.Sink
	var timingsFile *os.File
	if d.cfg.TimingsJSON != "" {
		timingsFile, err = os.Create(d.cfg.TimingsJSON)
		if err != nil {
			return err
		}
		defer timingsFile.Close()
		sink = timings.NewSink(timingsFile)
	}

	jobs := d.cfg.Jobs
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}
	d.jobs = jobs
	bus := queue.NewBus(256)
	status := &queue.StatusRenderer{Workers: jobs}
	statusDone := make(chan struct{})
	if d.cfg.MessageFormat == MessageHuman {
		go func() {
			defer close(statusDone)
			status.Run(bus.Recv())
		}()
	} else {
		go func() {
			defer close(statusDone)
			for range bus.Recv() {
			}
		}()
	}

	sched := &queue.Scheduler{
		Graph:      graph,
		Jobs:       jobs,
		NoFailFast: d.cfg.KeepGoing,
		Bus:        bus,
		Sink:       sink,
	}

	// If the process is interrupted mid-build, any build-script warnings
	// collected so far would otherwise never reach the user: the scheduler's
	// own cancellation path tears down workers without draining them.
	oninterrupt.Register(func() {
		for _, w := range d.scripts.Warnings() {
			d.msgs.Emit(Message{Reason: "compiler-message", Level: "warning", Message: w})
		}
	})

	start := time.Now()
	result, runErr := sched.Run(ctx, func(ctx context.Context, u *unit.Unit) error {
		return d.buildOne(ctx, graph, u)
	})
	bus.Close()
	<-statusDone
	total := time.Since(start)

	success := runErr == nil
	d.msgs.Emit(Message{Reason: "build-finished", Success: boolPtr(success)})

	if d.cfg.TimingsHTML != "" && result != nil {
		f, err := os.Create(d.cfg.TimingsHTML)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := timings.WriteHTMLReport(f, result.Summary, total, jobs); err != nil {
			return err
		}
	}

	return runErr
}

// buildOne is the scheduler's Work closure for a single unit: decide
// freshness, run the unit's real work if Dirty, link the artifact, persist
// the fingerprint.
func (d *driver) buildOne(ctx context.Context, g *unit.Graph, u *unit.Unit) error {
	dir := fingerprint.Dir(d.lay.TargetDir, unitDirName(u))
	composed := d.composedFor(g, u)
	artifactPath := d.artifactPath(u)

	if u.Target.Kind == unit.TargetBuildScript {
		return d.runBuildScript(ctx, g, u, dir, composed, artifactPath)
	}
	return d.runCompile(ctx, g, u, dir, composed, artifactPath)
}

func (d *driver) artifactPath(u *unit.Unit) string {
	ext := "rlib"
	switch u.Target.Crate {
	case unit.CrateBin:
		ext = "bin"
	case unit.CrateDylib, unit.CrateCdylib:
		ext = "so"
	case unit.CrateProcMacro:
		ext = "so"
	}
	hash := fmt.Sprintf("%016x", u.DepHash)
	return d.lay.DepArtifact(u.Target.Name, hash, ext)
}

// depInfoPath is the compiler-produced dep-info file for a compile unit,
// conventionally alongside its artifact in deps/ (spec.md §4.5).
func (d *driver) depInfoPath(u *unit.Unit) string {
	hash := fmt.Sprintf("%016x", u.DepHash)
	return d.lay.DepArtifact(u.Target.Name, hash, "d")
}

func (d *driver) composedFor(g *unit.Graph, u *unit.Unit) fingerprint.Composed {
	var deps []fingerprint.DepFingerprint
	for _, e := range g.Edges[u] {
		deps = append(deps, fingerprint.DepFingerprint{
			Hash:            depPlaceholderHash(e.Dep),
			ExternCrateName: e.ExternCrateName,
			Public:          e.Public,
		})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].ExternCrateName < deps[j].ExternCrateName })

	var envWatched map[string]string
	if u.Mode == unit.RunBuildScript {
		if prev, ok := d.scripts.Get(pkgHash(u)); ok && len(prev.RerunIfEnvChanged) > 0 {
			envWatched = make(map[string]string, len(prev.RerunIfEnvChanged))
			for _, name := range prev.RerunIfEnvChanged {
				envWatched[name] = os.Getenv(name)
			}
		}
	}

	return fingerprint.Composed{
		Compiler:    fingerprint.CompilerId{Version: d.compilerVersion, HostTriple: d.hostTriple.String()},
		Profile:     u.Profile.Tuple(),
		Features:    u.Features,
		CompileKind: u.Kind.String(),
		Mode:        u.Mode.String(),
		Flags:       d.flagsFor(u),
		Deps:        deps,
		EnvWatched:  envWatched,
	}
}

// depPlaceholderHash stands in for "read the dependency's already-persisted
// fingerprint hash", which the real driver would thread through in
// dependency order (the scheduler already guarantees deps run first); kept
// as a single deterministic function so Composed.Hash() stays stable across
// runs for a given dep_hash.
func depPlaceholderHash(dep *unit.Unit) [16]byte {
	var out [16]byte
	h := uint64(dep.DepHash)
	for i := 0; i < 8; i++ {
		out[i] = byte(h >> (8 * uint(i)))
	}
	return out
}

func (d *driver) flagsFor(u *unit.Unit) []string {
	if u.Mode == unit.Doc || u.Mode == unit.Doctest {
		return d.cfg.Rustdocflags
	}
	return d.cfg.Rustflags
}

// recordFreshness remembers u's decided freshness for anyDepDirty to fold
// into a dependent's own decision.
func (d *driver) recordFreshness(u *unit.Unit, f fingerprint.Freshness) {
	d.freshMu.Lock()
	d.fresh[u] = f
	d.freshMu.Unlock()
}

// anyDepDirty implements fingerprint.Prepare rule 4 (spec.md §4.2): if any
// direct dependency was decided Dirty, u is Dirty too. Transitive dirtiness
// follows by induction, since a dependency that was itself marked Dirty by
// this same rule has already recorded that outcome before u is reached.
func (d *driver) anyDepDirty(g *unit.Graph, u *unit.Unit) bool {
	d.freshMu.Lock()
	defer d.freshMu.Unlock()
	for _, e := range g.Edges[u] {
		if d.fresh[e.Dep] == fingerprint.Dirty {
			return true
		}
	}
	return false
}

// ownBuildOutput looks up u's own package's build-script output via the
// invariant-3 edge every non-build-script compile unit of a package with a
// build script carries to that package's RunBuildScript unit
// (internal/unit/graph.go construct()).
func ownBuildOutput(g *unit.Graph, u *unit.Unit, scripts *buildscript.BuildScriptOutputs) (buildscript.BuildOutput, bool) {
	for _, e := range g.Edges[u] {
		if e.NoPrelude {
			return scripts.Get(pkgHash(e.Dep))
		}
	}
	return buildscript.BuildOutput{}, false
}

// directBuildDeps resolves a build script's direct dependencies' declared
// links and already-computed metadata, for DEP_<LINKS>_<KEY> propagation
// (spec.md §4.3, internal/buildscript/env.go). scriptCompile is the unit
// that compiles the build-script binary itself, whose edges are the
// package's real (non-synthetic) dependency edges.
func (d *driver) directBuildDeps(g *unit.Graph, scriptCompile *unit.Unit) []buildscript.DepMetadata {
	var out []buildscript.DepMetadata
	for _, e := range g.Edges[scriptCompile] {
		if e.NoPrelude {
			continue
		}
		pkg, ok := d.packages[e.Dep.Package]
		if !ok || pkg.Links == "" {
			continue
		}
		bout, ok := ownBuildOutput(g, e.Dep, d.scripts)
		if !ok {
			continue
		}
		out = append(out, buildscript.DepMetadata{Links: pkg.Links, Metadata: bout.Metadata})
	}
	return out
}

// cfgsForTriple derives the handful of target cfgs a real compiler would
// report via `rustc --print cfg`. This demonstration driver never queries a
// live compiler for them, so it derives the three cfgs build scripts actually
// key off in practice (target_arch, target_os, and the unix/windows family)
// straight from the triple's conventional arch-vendor-os-env shape.
func cfgsForTriple(triple string) []string {
	if triple == "" {
		return nil
	}
	parts := strings.Split(triple, "-")
	cfgs := []string{`target_arch="` + parts[0] + `"`}

	osName := "linux"
	switch {
	case len(parts) >= 3 && strings.Contains(parts[2], "windows"):
		osName = "windows"
	case len(parts) >= 3 && strings.Contains(parts[2], "darwin"):
		osName = "macos"
	case len(parts) >= 3 && strings.Contains(parts[2], "linux"):
		osName = "linux"
	}
	cfgs = append(cfgs, `target_os="`+osName+`"`)
	if osName == "windows" {
		cfgs = append(cfgs, "windows")
	} else {
		cfgs = append(cfgs, "unix")
	}
	return cfgs
}

func (d *driver) runCompile(ctx context.Context, g *unit.Graph, u *unit.Unit, dir string, composed fingerprint.Composed, artifactPath string) error {
	now := time.Now()
	local := fingerprint.LocalInputs{
		DepInfoPath:    d.depInfoPath(u),
		RerunIfChanged: []string{u.Target.SrcPath},
		PackageRoot:    filepath.Dir(u.Target.SrcPath),
	}
	anyDepDirty := d.anyDepDirty(g, u)
	decision := fingerprint.Prepare(dir, composed, local, artifactPath, anyDepDirty, now)
	fingerprint.LogWhy(d.cfg.Verbose, u.String(), decision)
	d.recordFreshness(u, decision.Freshness)

	fresh := decision.Freshness == fingerprint.Fresh
	d.msgs.Emit(Message{
		Reason:    "compiler-artifact",
		PackageID: u.Package.String(),
		Target:    u.Target.Name,
		Profile:   string(u.Profile.Root),
		Fresh:     boolPtr(fresh),
		FileNames: []string{artifactPath},
	})
	if fresh {
		return nil
	}

	compiler, err := d.tools.Compiler()
	if err != nil {
		return err
	}
	if u.Mode == unit.Doc || u.Mode == unit.Doctest {
		compiler, err = d.tools.DocCompiler()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(artifactPath), 0o755); err != nil {
		return err
	}
	args := append([]string(nil), d.flagsFor(u)...)
	if bout, ok := ownBuildOutput(g, u, d.scripts); ok {
		for _, p := range bout.LibraryPaths {
			args = append(args, "-L", "native="+p)
		}
		for _, l := range bout.LibraryLinks {
			args = append(args, "-l", l)
		}
		for _, c := range bout.Cfgs {
			args = append(args, "--cfg", c)
		}
	}
	args = append(args, "--emit", "link,dep-info="+local.DepInfoPath, "--crate-name", u.Target.Name, u.Target.SrcPath, "-o", artifactPath)
	cmd := exec.CommandContext(ctx, compiler, args...)
	cmd.Env = os.Environ()
	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		d.msgs.Emit(Message{Reason: "compiler-message", Level: "error", Message: string(output)})
		return fmt.Errorf("compiling %s: %w", u.String(), runErr)
	}

	if err := layout.PreferRlib(d.lay.Deps(), u.Target.Name, fmt.Sprintf("%016x", u.DepHash)); err != nil {
		return err
	}
	if !u.Target.IsLibOfPkg && (u.Target.Kind == unit.TargetBinary || u.Target.Kind == unit.TargetExample) {
		if err := layout.LinkArtifact(artifactPath, d.lay.CanonicalArtifact(u.Target.Name)); err != nil {
			return err
		}
	}

	return fingerprint.Finalize(dir, composed, now, nil)
}

func (d *driver) runBuildScript(ctx context.Context, g *unit.Graph, u *unit.Unit, dir string, composed fingerprint.Composed, artifactPath string) error {
	now := time.Now()
	id := pkgHash(u)

	local := fingerprint.LocalInputs{PackageRoot: filepath.Dir(u.Target.SrcPath)}
	if prev, ok := d.scripts.Get(id); ok && len(prev.RerunIfChanged) > 0 {
		local.RerunIfChanged = prev.RerunIfChanged
	}

	anyDepDirty := d.anyDepDirty(g, u)
	decision := fingerprint.Prepare(dir, composed, local, artifactPath, anyDepDirty, now)
	fingerprint.LogWhy(d.cfg.Verbose, u.String(), decision)
	d.recordFreshness(u, decision.Freshness)

	if decision.Freshness == fingerprint.Fresh {
		if out, ok := d.scripts.Get(id); ok {
			d.msgs.Emit(Message{
				Reason:       "build-script-executed",
				PackageID:    u.Package.String(),
				LibraryPaths: out.LibraryPaths,
				LibraryLinks: out.LibraryLinks,
				Cfgs:         out.Cfgs,
				Env:          out.Env,
			})
			return nil
		}
	}

	runDir := d.lay.BuildScriptDir(id)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	binPath := filepath.Join(runDir, "build-script-build")

	rustc, err := d.tools.Compiler()
	if err != nil {
		return err
	}
	linker, err := d.tools.Linker(d.cfg.RequestedTarget)
	if err != nil {
		return err
	}

	var scriptCompile *unit.Unit
	for _, e := range g.Edges[u] {
		if e.NoPrelude {
			scriptCompile = e.Dep
		}
	}
	var directDeps []buildscript.DepMetadata
	if scriptCompile != nil {
		directDeps = d.directBuildDeps(g, scriptCompile)
	}

	triple := d.cfg.RequestedTarget
	if triple == "" {
		triple = d.hostTriple.String()
	}
	manifestLinks := d.packages[u.Package].Links

	env := buildscript.Env(buildscript.EnvRequest{
		OutDir:          filepath.Join(runDir, "out"),
		ManifestDir:     filepath.Dir(u.Target.SrcPath),
		Target:          d.cfg.RequestedTarget,
		Host:            d.hostTriple.String(),
		NumJobs:         d.jobs,
		Profile:         string(u.Profile.Root),
		OptLevel:        u.Profile.OptLevel,
		DebugInfo:       u.Profile.DebugInfo,
		Features:        u.Features,
		Cfgs:            cfgsForTriple(triple),
		ManifestLinks:   manifestLinks,
		DirectBuildDeps: directDeps,
		Rustc:           rustc,
		RustcLinker:     linker,
	})
	env = append(os.Environ(), env...)

	out, err := buildscript.Run(ctx, binPath, filepath.Dir(u.Target.SrcPath), env, runDir, manifestLinks)
	if err != nil {
		return fmt.Errorf("running build script for %s: %w", u.Package, err)
	}
	for _, w := range out.Warnings {
		d.msgs.Emit(Message{Reason: "compiler-message", Level: "warning", Message: w})
	}
	d.scripts.Set(id, out)
	d.msgs.Emit(Message{
		Reason:       "build-script-executed",
		PackageID:    u.Package.String(),
		LibraryPaths: out.LibraryPaths,
		LibraryLinks: out.LibraryLinks,
		Cfgs:         out.Cfgs,
		Env:          out.Env,
	})

	return fingerprint.Finalize(dir, composed, now, composed.EnvWatched)
}
