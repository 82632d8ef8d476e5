package modifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// compileRegexp builds the pattern with the inline flags the expression asked for.
func compileRegexp(spec *Spec, pattern string, flags string) (*regexp.Regexp, error) {
	var prefix string
	if flags != "" {
		prefix = "(?" + flags + ")"
	}
	re, err := regexp.Compile(prefix + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w in '%s': %v", ErrPattern, spec.Raw, err)
	}
	return re, nil
}

func compileSubstitute(spec *Spec) (Func, error) {
	var inline strings.Builder
	for _, f := range "ims" {
		if spec.HasFlag(f) {
			inline.WriteRune(f)
		}
	}

	re, err := compileRegexp(spec, spec.Parts[0], inline.String())
	if err != nil {
		return nil, err
	}

	tmpl, err := parseReplacement(re, spec.Parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w in '%s': %v", ErrPattern, spec.Raw, err)
	}

	global := spec.HasFlag('g')

	return Pure(func(cell string) string {
		return substitute(re, tmpl, cell, global)
	}), nil
}

func substitute(re *regexp.Regexp, tmpl replacement, cell string, global bool) string {
	var matches [][]int
	if global {
		matches = re.FindAllStringSubmatchIndex(cell, -1)
	} else if m := re.FindStringSubmatchIndex(cell); m != nil {
		matches = [][]int{m}
	}
	if len(matches) == 0 {
		return cell
	}

	var b strings.Builder
	b.Grow(len(cell))
	last := 0
	for _, m := range matches {
		b.WriteString(cell[last:m[0]])
		tmpl.expand(&b, cell, m)
		last = m[1]
	}
	b.WriteString(cell[last:])
	return b.String()
}

// replacement is a pre-parsed replacement template. Each segment is either
// literal text or a capture group reference.
type replacement []segment

type segment struct {
	literal string
	group   int // -1 for literal segments
}

func (r replacement) expand(b *strings.Builder, cell string, match []int) {
	for _, seg := range r {
		if seg.group < 0 {
			b.WriteString(seg.literal)
			continue
		}
		start, end := match[2*seg.group], match[2*seg.group+1]
		if start >= 0 {
			b.WriteString(cell[start:end])
		}
	}
}

// parseReplacement reads group references: \0-\9 and \g<N> or \g<name>
// refer to groups, \0 being the whole match. \n and \t are newline and tab;
// any other escaped character stands for itself. & has no special meaning.
func parseReplacement(re *regexp.Regexp, src string) (replacement, error) {
	var out replacement
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			out = append(out, segment{literal: lit.String(), group: -1})
			lit.Reset()
		}
	}
	group := func(n int) error {
		if n > re.NumSubexp() {
			return fmt.Errorf("reference to group %d, but the pattern has %d", n, re.NumSubexp())
		}
		flush()
		out = append(out, segment{group: n})
		return nil
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '\\':
			if i+1 >= len(src) {
				lit.WriteByte('\\')
				continue
			}
			i++
			next := src[i]
			switch {
			case next >= '0' && next <= '9':
				if err := group(int(next - '0')); err != nil {
					return nil, err
				}
			case next == 'g' && i+1 < len(src) && src[i+1] == '<':
				end := strings.IndexByte(src[i+2:], '>')
				if end < 0 {
					return nil, fmt.Errorf("unterminated group reference at offset %d", i-1)
				}
				name := src[i+2 : i+2+end]
				n, err := groupIndex(re, name)
				if err != nil {
					return nil, err
				}
				if err := group(n); err != nil {
					return nil, err
				}
				i += 2 + end
			case next == 'n':
				lit.WriteByte('\n')
			case next == 't':
				lit.WriteByte('\t')
			default:
				lit.WriteByte(next)
			}
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return out, nil
}

func groupIndex(re *regexp.Regexp, name string) (int, error) {
	if n, err := strconv.Atoi(name); err == nil && n >= 0 {
		return n, nil
	}
	if name == "" {
		return 0, fmt.Errorf("empty group name")
	}
	if n := re.SubexpIndex(name); n >= 0 {
		return n, nil
	}
	return 0, fmt.Errorf("unknown group name %q", name)
}
