package modifier

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode identifies which of the three modifier kinds an expression uses.
type Mode int

const (
	// Substitute is the regular expression replacement mode ("s/REGEX/REPL/FLAGS").
	Substitute Mode = iota
	// Transliterate is the character mapping mode ("y/SRC/DST/FLAGS").
	Transliterate
	// Execute pipes matching cells through an external command ("e/GATE/COMMAND/").
	Execute
)

func (m Mode) String() string {
	switch m {
	case Substitute:
		return "substitute"
	case Transliterate:
		return "transliterate"
	case Execute:
		return "execute"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// grammar describes the shape of one mode's expression.
type grammar struct {
	mode  Mode
	parts int
	flags string
}

var grammars = map[rune]grammar{
	's': {mode: Substitute, parts: 2, flags: "gims"},
	'y': {mode: Transliterate, parts: 2, flags: "i"},
	'e': {mode: Execute, parts: 2, flags: ""},
}

// Spec is a parsed modifier expression.
type Spec struct {
	// Raw is the expression as given by the user.
	Raw       string
	Mode      Mode
	Delimiter rune
	// Parts holds the delimiter-separated parts with `\<delim>` unescaped.
	// Other backslash escapes are kept for the mode compiler.
	Parts []string
	Flags string
}

// HasFlag reports whether flag was given.
func (s *Spec) HasFlag(flag rune) bool {
	return strings.ContainsRune(s.Flags, flag)
}

// Parse reads a modifier expression of the form
// <mode><delim><part1><delim><part2>[<delim><flags>].
func Parse(raw string) (*Spec, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrGrammar)
	}

	p := &scanner{input: raw}

	modeChar := p.next()
	g, ok := grammars[modeChar]
	if !ok {
		return nil, p.errorf(1, "unknown mode %q: must be one of s, y, e", modeChar)
	}

	if p.eof() {
		return nil, p.errorf(2, "missing delimiter")
	}
	delim := p.next()
	if delim == utf8.RuneError {
		return nil, p.errorf(2, "delimiter is not valid UTF-8")
	}
	if delim == '\\' || unicode.IsLetter(delim) || unicode.IsDigit(delim) {
		return nil, p.errorf(2, "delimiter %q must not be alphanumeric or a backslash", delim)
	}

	spec := &Spec{
		Raw:       raw,
		Mode:      g.mode,
		Delimiter: delim,
		Parts:     make([]string, 0, g.parts),
	}

	for len(spec.Parts) < g.parts {
		part, closed, err := p.readPart(delim)
		if err != nil {
			return nil, err
		}
		spec.Parts = append(spec.Parts, part)
		if closed {
			continue
		}
		// End of input. Only the last part may be left open.
		if len(spec.Parts) < g.parts {
			return nil, p.errorf(p.column(), "expected %d parts for %s, found %d", g.parts, g.mode, len(spec.Parts))
		}
	}

	flagStart := p.pos
	for !p.eof() {
		col := p.column()
		flag := p.next()
		if !strings.ContainsRune(g.flags, flag) {
			if flag == delim {
				return nil, p.errorf(col, "unexpected delimiter after flags (too many parts for %s)", g.mode)
			}
			return nil, p.errorf(col, "unknown flag %q for %s", flag, g.mode)
		}
	}
	spec.Flags = raw[flagStart:]

	return spec, nil
}

// scanner walks the expression rune by rune.
type scanner struct {
	input string
	pos   int // byte offset
	runes int // runes consumed
}

func (p *scanner) eof() bool {
	return p.pos >= len(p.input)
}

func (p *scanner) next() rune {
	r, size := utf8.DecodeRuneInString(p.input[p.pos:])
	p.pos += size
	p.runes++
	return r
}

// column is the 1-based character position of the next rune.
func (p *scanner) column() int {
	return p.runes + 1
}

// readPart copies runes up to the next unescaped delimiter. closed is false
// when the input ended before a delimiter was seen.
func (p *scanner) readPart(delim rune) (part string, closed bool, err error) {
	var b strings.Builder
	for !p.eof() {
		col := p.column()
		start := p.pos
		r := p.next()
		switch {
		case r == '\\':
			if p.eof() {
				return "", false, p.errorf(col, "unterminated escape sequence")
			}
			escStart := p.pos
			if p.next() == delim {
				b.WriteString(p.input[escStart:p.pos])
			} else {
				b.WriteString(p.input[start:p.pos])
			}
		case r == delim:
			return b.String(), true, nil
		default:
			b.WriteString(p.input[start:p.pos])
		}
	}
	return b.String(), false, nil
}

func (p *scanner) errorf(column int, format string, args ...any) error {
	return fmt.Errorf("%w '%s': %s at position %d", ErrGrammar, p.input, fmt.Sprintf(format, args...), column)
}
