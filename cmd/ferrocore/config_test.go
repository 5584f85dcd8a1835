package main

import "testing"

func TestParseMessageFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    MessageFormat
		wantErr bool
	}{
		{"human", MessageHuman, false},
		{"short", MessageShort, false},
		{"json", MessageJSON, false},
		{"json+ansi", MessageJSON, false},
		{"json+ansi+diagnostics-short", MessageJSON, false},
		{"bogus", "", true},
		{"json+bogus", "", true},
	}
	for _, tt := range tests {
		got, err := parseMessageFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMessageFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseMessageFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFlagsRequiresManifest(t *testing.T) {
	if _, err := parseFlags([]string{"-jobs", "4"}); err == nil {
		t.Fatal("expected an error when -resolved-packages is omitted")
	}
}

func TestParseFlagsRustflagsSplit(t *testing.T) {
	cfg, err := parseFlags([]string{"-resolved-packages", "x.json", "-rustflags", "-C opt-level=3"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"-C", "opt-level=3"}; !equalStrings(cfg.Rustflags, want) {
		t.Errorf("Rustflags = %v, want %v", cfg.Rustflags, want)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
