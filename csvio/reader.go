// Package csvio reads and writes CSV one record at a time.
//
// Besides the usual RFC 4180 framing, the reader remembers how each field of
// the last record was written (quoted or bare) and which line terminator the
// input uses, so a Writer can reproduce untouched records byte for byte.
package csvio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrBareQuote is returned when a quote appears inside an unquoted field.
	ErrBareQuote = errors.New("bare quote in non-quoted field")
	// ErrQuote is returned when a closing quote is followed by something other than a delimiter or line end.
	ErrQuote = errors.New("extraneous character after quoted field")
	// ErrUnterminatedQuote is returned when the input ends inside a quoted field.
	ErrUnterminatedQuote = errors.New("unterminated quoted field")
	// ErrFieldCount is returned when a record has an unexpected number of fields.
	ErrFieldCount = errors.New("wrong number of fields")
)

// ParseError carries the input position of a framing error.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if errors.Is(e.Err, ErrFieldCount) {
		return fmt.Sprintf("record on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Reader parses CSV records from a stream.
type Reader struct {
	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// FieldsPerRecord is the expected record width. Zero takes the width of
	// the first record; a negative value disables the check.
	FieldsPerRecord int

	src *bufio.Reader
	err error

	line       int
	column     int
	recordLine int

	field  bytes.Buffer
	quoted []bool

	terminatorKnown bool
	crlf            bool
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("csvio: reader source cannot be nil")
	}
	return &Reader{
		Comma: ',',
		Quote: '"',
		src:   bufio.NewReader(r),
		line:  1,
	}
}

// Line returns the line on which the last record started.
func (r *Reader) Line() int {
	return r.recordLine
}

// Quoted reports, per field of the last record, whether it was quoted in the input.
func (r *Reader) Quoted() []bool {
	return r.quoted
}

// CRLF reports whether the first line terminator seen was "\r\n".
func (r *Reader) CRLF() bool {
	return r.crlf
}

// Read returns the next record. io.EOF signals the end of input. A record
// with the wrong number of fields is returned together with an error
// wrapping ErrFieldCount.
func (r *Reader) Read() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}

	comma, quote := r.Comma, r.Quote
	if comma == 0 {
		comma = ','
	}
	if quote == 0 {
		quote = '"'
	}

	if _, err := r.src.Peek(1); err != nil {
		if err == io.EOF {
			r.err = io.EOF
			return nil, io.EOF
		}
		return nil, err
	}

	r.recordLine = r.line
	record := make([]string, 0, len(r.quoted))
	r.quoted = r.quoted[:0]

	for {
		r.field.Reset()
		quoted, end, err := r.readField(comma, quote)
		if err != nil {
			r.err = err
			return nil, err
		}
		record = append(record, r.field.String())
		r.quoted = append(r.quoted, quoted)
		if end {
			break
		}
	}

	return record, r.checkWidth(record)
}

// readField reads one field into r.field. end reports that the field closed the record.
func (r *Reader) readField(comma, quote byte) (quoted bool, end bool, err error) {
	c, err := r.readByte()
	if err != nil {
		if err == io.EOF {
			return false, true, nil
		}
		return false, false, err
	}

	if c == quote {
		end, err := r.readQuoted(comma, quote)
		return true, end, err
	}

	for {
		switch c {
		case comma:
			return false, false, nil
		case '\n', '\r':
			return false, true, r.endLine(c)
		case quote:
			return false, false, r.errorAt(ErrBareQuote)
		}
		r.field.WriteByte(c)

		c, err = r.readByte()
		if err != nil {
			if err == io.EOF {
				return false, true, nil
			}
			return false, false, err
		}
	}
}

// readQuoted reads the body of a quoted field after its opening quote.
func (r *Reader) readQuoted(comma, quote byte) (end bool, err error) {
	startLine, startColumn := r.line, r.column
	for {
		c, err := r.readByte()
		if err != nil {
			if err == io.EOF {
				return false, &ParseError{Line: startLine, Column: startColumn, Err: ErrUnterminatedQuote}
			}
			return false, err
		}
		if c != quote {
			r.field.WriteByte(c)
			if c == '\n' {
				r.newline()
			}
			continue
		}

		next, err := r.readByte()
		switch {
		case err == io.EOF:
			return true, nil
		case err != nil:
			return false, err
		case next == quote:
			r.field.WriteByte(quote)
		case next == comma:
			return false, nil
		case next == '\n' || next == '\r':
			return true, r.endLine(next)
		default:
			return false, r.errorAt(ErrQuote)
		}
	}
}

func (r *Reader) readByte() (byte, error) {
	c, err := r.src.ReadByte()
	if err == nil {
		r.column++
	}
	return c, err
}

func (r *Reader) newline() {
	r.line++
	r.column = 0
}

// endLine consumes the rest of a line terminator that started with c.
func (r *Reader) endLine(c byte) error {
	crlf := false
	if c == '\r' {
		next, err := r.src.Peek(1)
		switch {
		case err == nil && next[0] == '\n':
			_, _ = r.src.ReadByte()
			crlf = true
		case err != nil && err != io.EOF:
			return err
		}
	}
	if !r.terminatorKnown {
		r.terminatorKnown = true
		r.crlf = crlf
	}
	r.newline()
	return nil
}

func (r *Reader) errorAt(err error) error {
	return &ParseError{Line: r.line, Column: r.column, Err: err}
}

func (r *Reader) checkWidth(record []string) error {
	if r.FieldsPerRecord < 0 || IsBlank(record, r.quoted) {
		return nil
	}
	if r.FieldsPerRecord == 0 {
		r.FieldsPerRecord = len(record)
		return nil
	}
	if len(record) != r.FieldsPerRecord {
		return &ParseError{
			Line:   r.recordLine,
			Column: 1,
			Err:    fmt.Errorf("%w: expected %d, got %d", ErrFieldCount, r.FieldsPerRecord, len(record)),
		}
	}
	return nil
}

// IsBlank reports whether a record came from an empty line.
func IsBlank(record []string, quoted []bool) bool {
	if len(record) != 1 || record[0] != "" {
		return false
	}
	return len(quoted) == 0 || !quoted[0]
}
