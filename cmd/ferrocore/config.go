package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/ferrocore/ferrocore/internal/env"
)

// MessageFormat selects how compiler-artifact/compiler-message/build-finished
// records are rendered on stdout (spec.md §6).
type MessageFormat string

const (
	MessageHuman MessageFormat = "human"
	MessageShort MessageFormat = "short"
	MessageJSON  MessageFormat = "json"
)

func parseMessageFormat(s string) (MessageFormat, error) {
	base := s
	var mods []string
	if i := strings.Index(s, "+"); i >= 0 {
		base, mods = s[:i], strings.Split(s[i+1:], "+")
	}
	switch MessageFormat(base) {
	case MessageHuman, MessageShort, MessageJSON:
	default:
		return "", fmt.Errorf("unknown message-format %q", s)
	}
	for _, m := range mods {
		switch m {
		case "diagnostics-short", "ansi", "render":
		default:
			return "", fmt.Errorf("unknown message-format modifier %q", m)
		}
	}
	return MessageFormat(base), nil
}

// Config mirrors spec.md §6's recognized configuration surface. Populated
// from flags in main.go; CLI parsing itself is explicitly out of the core's
// scope (spec.md §1), so Config is the seam: anything that can construct one
// can drive the orchestrator, whether from flag.FlagSet, a config file, or a
// test.
type Config struct {
	Jobs             int
	KeepGoing        bool
	MessageFormat    MessageFormat
	EmitBuildPlan    bool
	EmitUnitGraph    bool
	TimingsHTML      string
	TimingsJSON      string
	RequestedProfile string
	RequestedTarget  string // triple, empty for host
	Linker           string
	Archiver         string
	Rustflags        []string
	Rustdocflags     []string

	ManifestPath string // path to the resolved-package-set JSON (spec.md §6 "Inputs from other subsystems")
	TargetDir    string

	Verbose bool
}

func parseFlags(args []string) (Config, error) {
	fset := flag.NewFlagSet("ferrocore", flag.ContinueOnError)

	defaultJobs := 0
	if v := env.Jobs(); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			defaultJobs = n
		}
	}

	var (
		jobs          = fset.Int("jobs", defaultJobs, "maximum number of concurrent compiler invocations (0 = number of CPUs)")
		keepGoing     = fset.Bool("keep-going", false, "do not stop scheduling unrelated units after a failure")
		messageFormat = fset.String("message-format", "human", "human|short|json[+diagnostics-short|+ansi|+render]")
		buildPlan     = fset.Bool("build-plan", false, "emit the build plan as JSON instead of building")
		unitGraph     = fset.Bool("unit-graph", false, "emit the unit graph as JSON instead of building")
		timingsHTML   = fset.String("timings-html", "", "path to write an HTML timings report to")
		timingsJSON   = fset.String("timings-json", "", "path to write a chrome-trace-event JSON timings file to")
		profile       = fset.String("profile", "debug", "debug|release")
		target        = fset.String("target", "", "cross-compile target triple (empty = host)")
		linker        = fset.String("linker", "", "override the linker invoked for Target-kind units")
		archiver      = fset.String("ar", "", "override the archiver invoked for Target-kind units")
		rustflags     = fset.String("rustflags", env.Rustflags(), "space-separated extra flags for every compile unit")
		rustdocflags  = fset.String("rustdocflags", "", "space-separated extra flags for every Doc-mode unit")
		manifest      = fset.String("resolved-packages", "", "path to a JSON description of the already-resolved package set")
		targetDir     = fset.String("target-dir", env.TargetDir, "output directory root (spec.md §4.5)")
		verbose       = fset.Bool("v", false, "verbose: print why a unit was judged Dirty")
	)
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	mf, err := parseMessageFormat(*messageFormat)
	if err != nil {
		return Config{}, err
	}
	var rustflagsList, rustdocflagsList []string
	if *rustflags != "" {
		rustflagsList = strings.Fields(*rustflags)
	}
	if *rustdocflags != "" {
		rustdocflagsList = strings.Fields(*rustdocflags)
	}
	if *manifest == "" {
		return Config{}, fmt.Errorf("-resolved-packages is required: the core consumes an already-resolved package set (spec.md §1)")
	}
	return Config{
		Jobs:             *jobs,
		KeepGoing:        *keepGoing,
		MessageFormat:    mf,
		EmitBuildPlan:    *buildPlan,
		EmitUnitGraph:    *unitGraph,
		TimingsHTML:      *timingsHTML,
		TimingsJSON:      *timingsJSON,
		RequestedProfile: *profile,
		RequestedTarget:  *target,
		Linker:           *linker,
		Archiver:         *archiver,
		Rustflags:        rustflagsList,
		Rustdocflags:     rustdocflagsList,
		ManifestPath:     *manifest,
		TargetDir:        *targetDir,
		Verbose:          *verbose,
	}, nil
}
