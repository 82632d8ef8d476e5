package csvio

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func readAll(t *testing.T, r *Reader) [][]string {
	t.Helper()
	var records [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records
		}
		assert.NoError(t, err)
		records = append(records, record)
	}
}

func TestReaderRead(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		comma    byte
		quote    byte
		expected [][]string
	}{
		{name: "Basic", input: "one,two\nthree,four\n", expected: [][]string{{"one", "two"}, {"three", "four"}}},
		{name: "NoFinalTerminator", input: "a,b,c", expected: [][]string{{"a", "b", "c"}}},
		{name: "CRLF", input: "a,b\r\nc,d\r\n", expected: [][]string{{"a", "b"}, {"c", "d"}}},
		{name: "QuotedComma", input: "a,\"b,b\",c\n", expected: [][]string{{"a", "b,b", "c"}}},
		{name: "EscapedQuote", input: "a,\"b\"\"c\",d\n", expected: [][]string{{"a", "b\"c", "d"}}},
		{name: "EmbeddedNewline", input: "a,\"b\nc\",d\n", expected: [][]string{{"a", "b\nc", "d"}}},
		{name: "EmptyFields", input: ",,\n", expected: [][]string{{"", "", ""}}},
		{name: "TrailingEmptyField", input: "a,\n", expected: [][]string{{"a", ""}}},
		{name: "QuotedEmpty", input: "\"\",x\n", expected: [][]string{{"", "x"}}},
		{name: "Semicolon", input: "l;r\nu;d\n", comma: ';', expected: [][]string{{"l", "r"}, {"u", "d"}}},
		{name: "Tab", input: "a\tb,c\n", comma: '\t', expected: [][]string{{"a", "b,c"}}},
		{name: "SingleQuote", input: "'a,b',c\n", quote: '\'', expected: [][]string{{"a,b", "c"}}},
		{name: "Unicode", input: "κάππα,\"άλφα\"\n", expected: [][]string{{"κάππα", "άλφα"}}},
		{name: "WageColumn", input: "Name,Wage\nAnn,\"104,343,873.83\"\n", expected: [][]string{{"Name", "Wage"}, {"Ann", "104,343,873.83"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			if tt.comma != 0 {
				r.Comma = tt.comma
			}
			if tt.quote != 0 {
				r.Quote = tt.quote
			}
			assert.Equal(t, tt.expected, readAll(t, r))
		})
	}
}

func TestReaderBlankLines(t *testing.T) {
	r := NewReader(strings.NewReader("a,b\n\nc,d\n"))
	records := readAll(t, r)
	assert.Equal(t, [][]string{{"a", "b"}, {""}, {"c", "d"}}, records)
}

func TestReaderQuoted(t *testing.T) {
	r := NewReader(strings.NewReader("\"a\",b,\"c\"\"\"\n"))
	record, err := r.Read()
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c\""}, record)
	assert.Equal(t, []bool{true, false, true}, r.Quoted())
}

func TestReaderLineTerminator(t *testing.T) {
	r := NewReader(strings.NewReader("a\r\nb\n"))
	readAll(t, r)
	assert.True(t, r.CRLF())

	r = NewReader(strings.NewReader("a\nb\r\n"))
	readAll(t, r)
	assert.False(t, r.CRLF())
}

func TestReaderLine(t *testing.T) {
	r := NewReader(strings.NewReader("h\n\"x\ny\"\nz\n"))
	lines := []int{}
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		lines = append(lines, r.Line())
	}
	assert.Equal(t, []int{1, 2, 4}, lines)
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
		line     int
	}{
		{name: "BareQuote", input: "a,b\"c\n", expected: ErrBareQuote, line: 1},
		{name: "ExtraneousAfterQuote", input: "\"a\"b,c\n", expected: ErrQuote, line: 1},
		{name: "Unterminated", input: "a,b\nc,\"d\n", expected: ErrUnterminatedQuote, line: 2},
		{name: "FieldCount", input: "a,b\nc\n", expected: ErrFieldCount, line: 2},
		{name: "FieldCountWide", input: "a,b\nc,d,e\n", expected: ErrFieldCount, line: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			var err error
			for err == nil {
				_, err = r.Read()
			}
			assert.IsError(t, err, tt.expected)
			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.line, perr.Line)
			assert.Contains(t, err.Error(), "line")
		})
	}
}

func TestReaderRaggedRows(t *testing.T) {
	r := NewReader(strings.NewReader("a,b\nc\nd,e,f\n"))
	r.FieldsPerRecord = -1
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}, {"d", "e", "f"}}, readAll(t, r))
}

func TestReaderFieldCountReturnsRecord(t *testing.T) {
	r := NewReader(strings.NewReader("a,b\nc\n"))
	_, err := r.Read()
	assert.NoError(t, err)
	record, err := r.Read()
	assert.IsError(t, err, ErrFieldCount)
	assert.Equal(t, []string{"c"}, record)
}

func TestReaderErrorIsSticky(t *testing.T) {
	r := NewReader(strings.NewReader("a\"b\nc\n"))
	_, first := r.Read()
	_, second := r.Read()
	assert.IsError(t, first, ErrBareQuote)
	assert.Equal(t, first, second)
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank([]string{""}, nil))
	assert.True(t, IsBlank([]string{""}, []bool{false}))
	assert.False(t, IsBlank([]string{""}, []bool{true}))
	assert.False(t, IsBlank([]string{"", ""}, nil))
	assert.False(t, IsBlank([]string{"x"}, nil))
}
