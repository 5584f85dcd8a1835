package buildscript

import (
	"fmt"
	"strings"
)

// ParseLine dispatches one stdout line per spec.md §4.3's output-protocol
// table. A line not starting with "cargo:" is ignored (build scripts often
// print their own diagnostics to stdout too). linksName is the declaring
// package's `links` value, needed to decide whether an unrecognized key
// becomes a surfaced metadata entry.
func ParseLine(out *BuildOutput, line, linksName string) error {
	const prefix = "cargo:"
	if !strings.HasPrefix(line, prefix) {
		return nil
	}
	rest := line[len(prefix):]
	key, value, hasEq := strings.Cut(rest, "=")
	if !hasEq {
		return fmt.Errorf("buildscript: malformed cargo: line (no '='): %q", line)
	}

	switch key {
	case "rustc-link-lib":
		out.LibraryLinks = append(out.LibraryLinks, value)
	case "rustc-link-search":
		out.LibraryPaths = append(out.LibraryPaths, value)
	case "rustc-flags":
		if err := parseRustcFlags(out, value); err != nil {
			return err
		}
	case "rustc-cfg":
		out.Cfgs = append(out.Cfgs, value)
	case "rustc-env":
		name, val, ok := strings.Cut(value, "=")
		if !ok {
			return fmt.Errorf("buildscript: malformed rustc-env value %q", value)
		}
		if name == "RUSTC_BOOTSTRAP" {
			return fmt.Errorf("buildscript: rustc-env may not set RUSTC_BOOTSTRAP")
		}
		if out.Env == nil {
			out.Env = make(map[string]string)
		}
		out.Env[name] = val
	case "rustc-link-arg":
		out.LinkArgs = append(out.LinkArgs, LinkArg{Scope: ScopeAll, Arg: value})
	case "rustc-link-arg-cdylib", "rustc-cdylib-link-arg":
		out.LinkArgs = append(out.LinkArgs, LinkArg{Scope: ScopeCdylib, Arg: value})
	case "rustc-link-arg-bins":
		out.LinkArgs = append(out.LinkArgs, LinkArg{Scope: ScopeBins, Arg: value})
	case "rustc-link-arg-bin":
		binName, arg, ok := strings.Cut(value, "=")
		if !ok {
			return fmt.Errorf("buildscript: malformed rustc-link-arg-bin value %q", value)
		}
		out.LinkArgs = append(out.LinkArgs, LinkArg{Scope: ScopeBin, BinName: binName, Arg: arg})
	case "rerun-if-changed":
		out.RerunIfChanged = append(out.RerunIfChanged, value)
	case "rerun-if-env-changed":
		out.RerunIfEnvChanged = append(out.RerunIfEnvChanged, value)
	case "warning":
		out.Warnings = append(out.Warnings, value)
	default:
		// Unrecognized keys become metadata, surfaced to direct dependents
		// as DEP_<LINKS>_<KEY> iff the declaring package has a links value
		// (spec.md §4.3's protocol table, final row).
		if linksName != "" {
			if out.Metadata == nil {
				out.Metadata = make(map[string]string)
			}
			out.Metadata[key] = value
		}
	}
	return nil
}

func parseRustcFlags(out *BuildOutput, value string) error {
	fields := strings.Fields(value)
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		switch {
		case f == "-l":
			if i+1 >= len(fields) {
				return fmt.Errorf("buildscript: rustc-flags: -l with no argument")
			}
			i++
			out.LibraryLinks = append(out.LibraryLinks, fields[i])
		case strings.HasPrefix(f, "-l"):
			out.LibraryLinks = append(out.LibraryLinks, strings.TrimPrefix(f, "-l"))
		case f == "-L":
			if i+1 >= len(fields) {
				return fmt.Errorf("buildscript: rustc-flags: -L with no argument")
			}
			i++
			out.LibraryPaths = append(out.LibraryPaths, fields[i])
		case strings.HasPrefix(f, "-L"):
			out.LibraryPaths = append(out.LibraryPaths, strings.TrimPrefix(f, "-L"))
		default:
			return fmt.Errorf("buildscript: rustc-flags only accepts -l/-L, got %q", f)
		}
	}
	return nil
}
