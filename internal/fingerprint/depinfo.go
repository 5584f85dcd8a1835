package fingerprint

import (
	"os"
	"strings"
)

// parseDepInfo reads a rustc-style dep-info file: "target: dep1 dep2 ...",
// possibly continued across lines with a trailing backslash. Only the
// right-hand-side paths matter here.
func parseDepInfo(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(b), "\\\n", " ")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		rhs := line[idx+1:]
		for _, field := range strings.Fields(rhs) {
			out = append(out, unescapeDepPath(field))
		}
	}
	return out, nil
}

func unescapeDepPath(s string) string {
	return strings.ReplaceAll(s, "\\ ", " ")
}
