package buildscript

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvRequest bundles everything needed to compute a build script's process
// environment (spec.md §4.3 "Execution environment").
type EnvRequest struct {
	OutDir           string
	ManifestDir      string
	Target, Host     string
	NumJobs          int
	Profile          string // "release" or "debug"
	OptLevel         string
	DebugInfo        bool
	Features         []string
	Cfgs             []string // target cfgs the compiler reports; Env itself skips debug_assertions
	ManifestLinks    string   // "" if the package doesn't declare links
	DirectBuildDeps  []DepMetadata
	Rustc, Rustdoc   string
	RustcLinker      string
	JobserverAuth    string // "" if the scheduler isn't using token-based throttling
}

// DepMetadata is one direct build-dependency's declared links value plus
// the metadata its build script emitted, used to compute DEP_<LINKS>_<KEY>.
type DepMetadata struct {
	Links    string
	Metadata map[string]string
}

// Env computes the process environment for a build-script invocation, as a
// sorted "KEY=VALUE" slice suitable for exec.Cmd.Env (after appending the
// inherited os.Environ() the caller wants to keep).
func Env(req EnvRequest) []string {
	set := map[string]string{
		"OUT_DIR":            req.OutDir,
		"CARGO_MANIFEST_DIR": req.ManifestDir,
		"TARGET":             req.Target,
		"HOST":                req.Host,
		"NUM_JOBS":           strconv.Itoa(req.NumJobs),
		"PROFILE":            req.Profile,
		"OPT_LEVEL":          req.OptLevel,
		"DEBUG":              strconv.FormatBool(req.DebugInfo),
	}
	if req.Rustc != "" {
		set["RUSTC"] = req.Rustc
	}
	if req.Rustdoc != "" {
		set["RUSTDOC"] = req.Rustdoc
	}
	if req.RustcLinker != "" {
		set["RUSTC_LINKER"] = req.RustcLinker
	}
	if req.ManifestLinks != "" {
		set["CARGO_MANIFEST_LINKS"] = req.ManifestLinks
	}
	if req.JobserverAuth != "" {
		set["CARGO_MAKEFLAGS"] = "--jobserver-auth=" + req.JobserverAuth
	}

	for _, feat := range req.Features {
		set["CARGO_FEATURE_"+featureEnvName(feat)] = "1"
	}

	cfgValues := make(map[string][]string)
	for _, cfg := range req.Cfgs {
		if cfg == "debug_assertions" {
			continue // would mislead: DEBUG already carries this signal
		}
		name, value, hasValue := strings.Cut(cfg, "=")
		if !hasValue {
			cfgValues[name] = append(cfgValues[name], "")
			continue
		}
		cfgValues[name] = append(cfgValues[name], strings.Trim(value, `"`))
	}
	for name, values := range cfgValues {
		key := "CARGO_CFG_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		nonEmpty := values[:0]
		for _, v := range values {
			if v != "" {
				nonEmpty = append(nonEmpty, v)
			}
		}
		set[key] = strings.Join(nonEmpty, ",")
	}

	for _, dep := range req.DirectBuildDeps {
		if dep.Links == "" {
			continue
		}
		prefix := "DEP_" + strings.ToUpper(strings.ReplaceAll(dep.Links, "-", "_")) + "_"
		for k, v := range dep.Metadata {
			set[prefix+strings.ToUpper(strings.ReplaceAll(k, "-", "_"))] = v
		}
	}

	out := make([]string, 0, len(set))
	for k, v := range set {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sortStrings(out)
	return out
}

func featureEnvName(feat string) string {
	return strings.ToUpper(strings.ReplaceAll(feat, "-", "_"))
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
