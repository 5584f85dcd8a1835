// Package pb reads and writes the human-editable override file that lets a
// static configuration pre-populate a package's build-script outputs,
// bypassing execution entirely (spec.md §4.3 "Script overrides"). The
// cmd/ferrocore driver does not read override files.
//
// The file is a small hand-declared textproto-like format, in the spirit of
// the teacher's pb.ReadBuildFile/pb.ReadMetaFile (pb/readbuild.go,
// pb/readmeta.go): a buffered read followed by a single unmarshal call, and
// a companion canonical-formatting pass via txtpbfmt (FormatFile) that
// normalizes a hand-edited file the way `buildifier`/`txtpbfmt` normalize
// BUILD-adjacent configs in the wild. No ferrocore subcommand calls
// FormatFile.
package pb

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/renameio"
	"github.com/protocolbuffers/txtpbfmt/parser"
)

// KV is a single key/value pair, used for both env and metadata entries.
type KV struct {
	Key   string
	Value string
}

// Override is one package's pre-baked build-script output (spec.md §4.3),
// keyed by the package's `links` value at the call site.
type Override struct {
	Links        string
	LibraryPaths []string
	LibraryLinks []string
	Cfgs         []string
	Env          []KV
	Metadata     []KV
	Warnings     []string
}

// OverrideFile is the top-level document: one entry per overridden package.
type OverrideFile struct {
	Overrides []Override
}

var bufPool = sync.Pool{New: func() interface{} { return &bytes.Buffer{} }}

// ReadOverrideFile reads and parses path, mirroring the teacher's
// ReadBuildFile/ReadMetaFile buffered-read-then-unmarshal shape.
func ReadOverrideFile(path string) (*OverrideFile, error) {
	b := bufPool.Get().(*bytes.Buffer)
	b.Reset()
	defer bufPool.Put(b)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := io.Copy(b, f); err != nil {
		return nil, err
	}
	return ParseOverrideFile(b.Bytes())
}

// WriteOverrideFile serializes f and writes it atomically (write-then-
// rename), the same contract the fingerprint and build-script-output
// persistence use.
func WriteOverrideFile(path string, f *OverrideFile) error {
	t, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer t.Cleanup()
	if _, err := t.Write(MarshalOverrideFile(f)); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}

// FormatFile canonicalizes an on-disk override file in place: parse,
// re-marshal, then run txtpbfmt's schema-free formatter so spacing/alignment
// is stable across edits. No ferrocore subcommand calls it.
func FormatFile(path string) error {
	f, err := ReadOverrideFile(path)
	if err != nil {
		return err
	}
	return WriteOverrideFile(path, f)
}

func MarshalOverrideFile(f *OverrideFile) []byte {
	var buf bytes.Buffer
	for _, o := range f.Overrides {
		marshalOverride(&buf, o)
	}
	formatted, err := parser.Format(buf.Bytes())
	if err != nil {
		// A malformed write is a bug in this package, not the caller's
		// input; fall back to the unformatted text rather than lose data.
		return buf.Bytes()
	}
	return formatted
}

func marshalOverride(buf *bytes.Buffer, o Override) {
	fmt.Fprintf(buf, "override {\n")
	fmt.Fprintf(buf, "  links: %q\n", o.Links)
	for _, p := range o.LibraryPaths {
		fmt.Fprintf(buf, "  library_path: %q\n", p)
	}
	for _, l := range o.LibraryLinks {
		fmt.Fprintf(buf, "  library_link: %q\n", l)
	}
	for _, c := range o.Cfgs {
		fmt.Fprintf(buf, "  cfg: %q\n", c)
	}
	for _, e := range o.Env {
		fmt.Fprintf(buf, "  env { key: %q value: %q }\n", e.Key, e.Value)
	}
	for _, m := range o.Metadata {
		fmt.Fprintf(buf, "  metadata { key: %q value: %q }\n", m.Key, m.Value)
	}
	for _, w := range o.Warnings {
		fmt.Fprintf(buf, "  warning: %q\n", w)
	}
	fmt.Fprintf(buf, "}\n")
}
