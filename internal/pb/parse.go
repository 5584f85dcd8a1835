package pb

import (
	"fmt"
	"strings"
)

// ParseOverrideFile parses the small textproto-like grammar described in
// override.go's marshaler: a sequence of `override { ... }` blocks, each
// holding scalar `key: "value"` lines and `env { key: "k" value: "v" }` /
// `metadata { ... }` sub-blocks. Unknown fields are rejected rather than
// silently ignored, since a typo'd field name in a hand-edited override
// file should fail loudly instead of quietly doing nothing.
func ParseOverrideFile(src []byte) (*OverrideFile, error) {
	p := &tokenizer{s: string(src)}
	var f OverrideFile
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		if name != "override" {
			return nil, fmt.Errorf("pb: unexpected top-level field %q, want %q", name, "override")
		}
		o, err := parseOverrideBlock(p)
		if err != nil {
			return nil, err
		}
		f.Overrides = append(f.Overrides, o)
	}
	return &f, nil
}

func parseOverrideBlock(p *tokenizer) (Override, error) {
	var o Override
	if err := p.expect('{'); err != nil {
		return o, err
	}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.next()
			return o, nil
		}
		if p.eof() {
			return o, fmt.Errorf("pb: unterminated override block")
		}
		name, err := p.ident()
		if err != nil {
			return o, err
		}
		switch name {
		case "links":
			v, err := p.scalarValue()
			if err != nil {
				return o, err
			}
			o.Links = v
		case "library_path":
			v, err := p.scalarValue()
			if err != nil {
				return o, err
			}
			o.LibraryPaths = append(o.LibraryPaths, v)
		case "library_link":
			v, err := p.scalarValue()
			if err != nil {
				return o, err
			}
			o.LibraryLinks = append(o.LibraryLinks, v)
		case "cfg":
			v, err := p.scalarValue()
			if err != nil {
				return o, err
			}
			o.Cfgs = append(o.Cfgs, v)
		case "warning":
			v, err := p.scalarValue()
			if err != nil {
				return o, err
			}
			o.Warnings = append(o.Warnings, v)
		case "env":
			kv, err := parseKV(p)
			if err != nil {
				return o, err
			}
			o.Env = append(o.Env, kv)
		case "metadata":
			kv, err := parseKV(p)
			if err != nil {
				return o, err
			}
			o.Metadata = append(o.Metadata, kv)
		default:
			return o, fmt.Errorf("pb: unknown field %q in override block", name)
		}
	}
}

func parseKV(p *tokenizer) (KV, error) {
	var kv KV
	if err := p.expect('{'); err != nil {
		return kv, err
	}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.next()
			return kv, nil
		}
		name, err := p.ident()
		if err != nil {
			return kv, err
		}
		v, err := p.scalarValue()
		if err != nil {
			return kv, err
		}
		switch name {
		case "key":
			kv.Key = v
		case "value":
			kv.Value = v
		default:
			return kv, fmt.Errorf("pb: unknown field %q in env/metadata entry", name)
		}
	}
}

// tokenizer is a minimal hand-rolled scanner for the grammar above: just
// enough to read identifiers, quoted strings, and braces.
type tokenizer struct {
	s string
	i int
}

func (t *tokenizer) eof() bool { return t.i >= len(t.s) }

func (t *tokenizer) peek() byte {
	if t.eof() {
		return 0
	}
	return t.s[t.i]
}

func (t *tokenizer) next() byte {
	c := t.peek()
	t.i++
	return c
}

func (t *tokenizer) skipSpace() {
	for !t.eof() {
		c := t.s[t.i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			t.i++
			continue
		}
		if c == '#' {
			for !t.eof() && t.s[t.i] != '\n' {
				t.i++
			}
			continue
		}
		break
	}
}

func (t *tokenizer) expect(c byte) error {
	t.skipSpace()
	if t.eof() || t.s[t.i] != c {
		return fmt.Errorf("pb: expected %q at offset %d", c, t.i)
	}
	t.i++
	return nil
}

func (t *tokenizer) ident() (string, error) {
	t.skipSpace()
	start := t.i
	for !t.eof() && isIdentByte(t.s[t.i]) {
		t.i++
	}
	if t.i == start {
		return "", fmt.Errorf("pb: expected identifier at offset %d", start)
	}
	return t.s[start:t.i], nil
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// scalarValue parses either `: "quoted string"` (for a leaf field) or the
// start of a `{` block is left for the caller; this is only used for the
// `name: "value"` shape.
func (t *tokenizer) scalarValue() (string, error) {
	t.skipSpace()
	if err := t.expect(':'); err != nil {
		return "", err
	}
	t.skipSpace()
	if err := t.expect('"'); err != nil {
		return "", err
	}
	var sb strings.Builder
	for {
		if t.eof() {
			return "", fmt.Errorf("pb: unterminated string literal")
		}
		c := t.next()
		if c == '"' {
			return sb.String(), nil
		}
		if c == '\\' && !t.eof() {
			sb.WriteByte(t.next())
			continue
		}
		sb.WriteByte(c)
	}
}
