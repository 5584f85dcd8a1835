package fingerprint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
)

// LocalInputs are the "local" observations spec.md §4.2 distinguishes from
// the composed hash: things that can only be checked against the local
// filesystem, never shipped between machines.
type LocalInputs struct {
	// DepInfoPath is the compiler-produced dep-info file read after the
	// prior build (compile units).
	DepInfoPath string
	// RerunIfChanged / RerunIfEnvChanged are the declarations from the
	// prior build-script run (run units). When RerunIfChanged and
	// DepInfoPath are both empty and PackageRoot is set, the engine falls
	// back to a coarse "all source files" rule (spec.md §4.2 "Tie-breaks and
	// edge cases"); RerunIfEnvChanged is not consulted by Prepare. A declared
	// directory is compared by its own mtime only; the files inside it are
	// not walked.
	RerunIfChanged    []string
	RerunIfEnvChanged map[string]string
	// PackageRoot is used for the "all source files" fallback.
	PackageRoot string
}

// Record is the on-disk, persisted form of a unit's fingerprint.
type Record struct {
	ComposedHash  [16]byte
	InvocationTime time.Time
	// EnvWatched freezes the env values observed the run that produced
	// this record, so a later run can tell whether any of them changed.
	EnvWatched map[string]string
}

type jsonRecord struct {
	ComposedHash   string            `json:"composed_hash"`
	InvocationTime time.Time         `json:"invocation_time"`
	EnvWatched     map[string]string `json:"env_watched,omitempty"`
}

// Dir returns the fingerprint directory for a unit, conventionally
// <target-dir>/.fingerprint/<unit-dirname>.
func Dir(targetDir, unitDirName string) string {
	return filepath.Join(targetDir, ".fingerprint", unitDirName)
}

func recordPath(dir string) string { return filepath.Join(dir, "fingerprint.json") }

// Load reads the persisted Record, if any. A missing file is not an error:
// it is reported via ok=false so the caller treats the unit as Dirty
// (decision-procedure rule 1).
func Load(dir string) (rec Record, ok bool, err error) {
	b, err := os.ReadFile(recordPath(dir))
	if os.IsNotExist(err) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var jr jsonRecord
	if err := json.Unmarshal(b, &jr); err != nil {
		// A corrupt fingerprint file is treated the same as a missing one:
		// safer to rebuild than to trust a half-written record.
		return Record{}, false, nil
	}
	rec.InvocationTime = jr.InvocationTime
	rec.EnvWatched = jr.EnvWatched
	copy(rec.ComposedHash[:], decodeHex(jr.ComposedHash))
	return rec, true, nil
}

// Save persists rec atomically: write-then-rename, never a partial write
// (spec.md §4.2 "Persistence"), grounded on the teacher's use of
// renameio.TempFile for the analogous image-write in internal/build/build.go.
func Save(dir string, rec Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	jr := jsonRecord{
		ComposedHash:   encodeHex(rec.ComposedHash[:]),
		InvocationTime: rec.InvocationTime,
		EnvWatched:     rec.EnvWatched,
	}
	b, err := json.Marshal(jr)
	if err != nil {
		return err
	}
	t, err := renameio.TempFile("", recordPath(dir))
	if err != nil {
		return err
	}
	defer t.Cleanup()
	if _, err := t.Write(b); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}

const hexDigits = "0123456789abcdef"

func encodeHex(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0xf]
	}
	return string(out)
}

func decodeHex(s string) []byte {
	out := make([]byte, len(s)/2)
	for i := range out {
		hi := hexVal(s[i*2])
		lo := hexVal(s[i*2+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
