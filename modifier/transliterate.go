package modifier

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

func compileTransliterate(spec *Spec) (Func, error) {
	from, err := ExpandSet(spec.Parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w '%s': source set: %v", ErrGrammar, spec.Raw, err)
	}
	to, err := ExpandSet(spec.Parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w '%s': destination set: %v", ErrGrammar, spec.Raw, err)
	}

	if spec.HasFlag('i') {
		lower := make([]rune, len(from))
		upper := make([]rune, len(from))
		for i, r := range from {
			lower[i] = unicode.ToLower(r)
			upper[i] = unicode.ToUpper(r)
		}
		from = append(lower, upper...)
		to = append(append([]rune{}, to...), to...)
	}

	if len(from) != len(to) {
		return nil, fmt.Errorf("%w '%s': source set has %d characters but destination set has %d",
			ErrGrammar, spec.Raw, len(from), len(to))
	}

	table := make(map[rune]rune, len(from))
	for i, r := range from {
		if _, seen := table[r]; !seen {
			table[r] = to[i]
		}
	}

	return Pure(func(cell string) string {
		return transliterate(table, cell)
	}), nil
}

func transliterate(table map[rune]rune, cell string) string {
	var b strings.Builder
	b.Grow(len(cell))
	for i, w := 0, 0; i < len(cell); i += w {
		r, size := utf8.DecodeRuneInString(cell[i:])
		w = size
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(cell[i])
			continue
		}
		if mapped, ok := table[r]; ok {
			b.WriteRune(mapped)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExpandSet resolves a transliteration set into a flat list of characters.
// "a-z" is an inclusive range; a dash at either end of the set or escaped as
// "\-" is literal; a range continues from the last character produced, so
// "a-c-e" expands to "abcde".
func ExpandSet(set string) ([]rune, error) {
	src := []rune(set)
	out := make([]rune, 0, len(src))

	for i := 0; i < len(src); i++ {
		r := src[i]
		switch {
		case r == '\\' && i+1 < len(src):
			i++
			out = append(out, src[i])
		case r == '-' && len(out) > 0 && i+1 < len(src):
			i++
			hi := src[i]
			if hi == '\\' && i+1 < len(src) {
				i++
				hi = src[i]
			}
			lo := out[len(out)-1]
			if hi < lo {
				return nil, fmt.Errorf("range %q-%q is out of order", lo, hi)
			}
			for c := lo + 1; c <= hi; c++ {
				out = append(out, c)
			}
		default:
			out = append(out, r)
		}
	}
	return out, nil
}
