package modifier

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		mode      Mode
		delimiter rune
		parts     []string
		flags     string
	}{
		{
			name:      "SubstituteWithFlags",
			raw:       "s/a/b/gi",
			mode:      Substitute,
			delimiter: '/',
			parts:     []string{"a", "b"},
			flags:     "gi",
		},
		{
			name:      "SubstituteWithoutTrailingDelimiter",
			raw:       "s/a/b",
			mode:      Substitute,
			delimiter: '/',
			parts:     []string{"a", "b"},
		},
		{
			name:      "EmptyReplacement",
			raw:       "s/,//g",
			mode:      Substitute,
			delimiter: '/',
			parts:     []string{",", ""},
			flags:     "g",
		},
		{
			name:      "CustomDelimiter",
			raw:       "s|a/b|c|",
			mode:      Substitute,
			delimiter: '|',
			parts:     []string{"a/b", "c"},
		},
		{
			name:      "EscapedDelimiterIsLiteral",
			raw:       `s/a\/b/c\/d/`,
			mode:      Substitute,
			delimiter: '/',
			parts:     []string{"a/b", "c/d"},
		},
		{
			name:      "OtherEscapesAreKept",
			raw:       `s/(\d+)\.(\d+)/\2.\1/`,
			mode:      Substitute,
			delimiter: '/',
			parts:     []string{`(\d+)\.(\d+)`, `\2.\1`},
		},
		{
			name:      "EscapedBackslash",
			raw:       `s/\\/x/`,
			mode:      Substitute,
			delimiter: '/',
			parts:     []string{`\\`, "x"},
		},
		{
			name:      "UnicodeDelimiter",
			raw:       "s§α§β§g",
			mode:      Substitute,
			delimiter: '§',
			parts:     []string{"α", "β"},
			flags:     "g",
		},
		{
			name:      "Transliterate",
			raw:       "y/a-z/A-Z/",
			mode:      Transliterate,
			delimiter: '/',
			parts:     []string{"a-z", "A-Z"},
		},
		{
			name:      "TransliterateCaseInsensitive",
			raw:       "y/abc/def/i",
			mode:      Transliterate,
			delimiter: '/',
			parts:     []string{"abc", "def"},
			flags:     "i",
		},
		{
			name:      "Execute",
			raw:       `e/^[0-9]+$/xargs -I {} echo "{}*2" | bc/`,
			mode:      Execute,
			delimiter: '/',
			parts:     []string{"^[0-9]+$", `xargs -I {} echo "{}*2" | bc`},
		},
		{
			name:      "ExecuteWithPipeDelimiter",
			raw:       "e#.#tr a-z A-Z | rev#",
			mode:      Execute,
			delimiter: '#',
			parts:     []string{".", "tr a-z A-Z | rev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Parse(tt.raw)
			assert.NoError(t, err)
			assert.Equal(t, tt.raw, spec.Raw)
			assert.Equal(t, tt.mode, spec.Mode)
			assert.Equal(t, tt.delimiter, spec.Delimiter)
			assert.Equal(t, tt.parts, spec.Parts)
			assert.Equal(t, tt.flags, spec.Flags)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		message string
	}{
		{name: "Empty", raw: "", message: "empty expression"},
		{name: "UnknownMode", raw: "x/a/b/", message: "unknown mode"},
		{name: "MissingDelimiter", raw: "s", message: "missing delimiter"},
		{name: "AlphanumericDelimiter", raw: "sxaxbx", message: "must not be alphanumeric"},
		{name: "DigitDelimiter", raw: "s1a1b1", message: "must not be alphanumeric"},
		{name: "BackslashDelimiter", raw: `s\a\b\`, message: "must not be alphanumeric or a backslash"},
		{name: "OnlyDelimiter", raw: "s/", message: "expected 2 parts"},
		{name: "MissingReplacement", raw: "s/a", message: "expected 2 parts"},
		{name: "TrailingEscape", raw: `s/a\`, message: "unterminated escape sequence"},
		{name: "TrailingEscapeInReplacement", raw: `s/a/b\`, message: "unterminated escape sequence"},
		{name: "UnknownSubstituteFlag", raw: "s/a/b/q", message: `unknown flag 'q'`},
		{name: "TooManyParts", raw: "s/a/b/g/", message: "unexpected delimiter"},
		{name: "TransliterateFlag", raw: "y/a/b/g", message: `unknown flag 'g'`},
		{name: "ExecuteFlag", raw: "e/a/cat/g", message: `unknown flag 'g'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Parse(tt.raw)
			assert.IsError(t, err, ErrGrammar)
			assert.Contains(t, err.Error(), tt.message)
			assert.Zero(t, spec)
		})
	}
}

func TestParseErrorReportsPosition(t *testing.T) {
	_, err := Parse("s/a/b/gz")
	assert.IsError(t, err, ErrGrammar)
	assert.Contains(t, err.Error(), `'s/a/b/gz'`)
	assert.Contains(t, err.Error(), "position 8")
}

func TestSpecHasFlag(t *testing.T) {
	spec, err := Parse("s/a/b/gi")
	assert.NoError(t, err)
	assert.True(t, spec.HasFlag('g'))
	assert.True(t, spec.HasFlag('i'))
	assert.False(t, spec.HasFlag('m'))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "substitute", Substitute.String())
	assert.Equal(t, "transliterate", Transliterate.String())
	assert.Equal(t, "execute", Execute.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

func TestCompileUnsupportedMode(t *testing.T) {
	_, err := Compile(&Spec{Raw: "?", Mode: Mode(42), Parts: []string{"", ""}}, Options{})
	assert.IsError(t, err, ErrGrammar)
}
