package csvio

import (
	"bufio"
	"errors"
	"io"
)

var errWriterNoTarget = errors.New("csvio: writer destination cannot be nil")

// Writer emits CSV records. Fields are quoted only when needed unless the
// caller asks to keep the quoting a Reader observed.
type Writer struct {
	dst *bufio.Writer

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// UseCRLF terminates records with \r\n.
	UseCRLF bool
	// AlwaysQuote forces quoting for all fields.
	AlwaysQuote bool

	err error
}

// NewWriter returns a buffered Writer on w.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:   bufio.NewWriter(w),
		Comma: ',',
		Quote: '"',
	}
}

// SetCRLF selects the record terminator.
func (w *Writer) SetCRLF(crlf bool) {
	w.UseCRLF = crlf
}

// Write emits a single record.
func (w *Writer) Write(record []string) error {
	return w.WriteQuoted(record, nil)
}

// WriteQuoted emits a record, quoting field i whenever quoted[i] is true even
// if its content would not require it. quoted may be shorter than record.
func (w *Writer) WriteQuoted(record []string, quoted []bool) error {
	if w.err != nil {
		return w.err
	}

	comma, quote := w.Comma, w.Quote
	if comma == 0 {
		comma = ','
	}
	if quote == 0 {
		quote = '"'
	}

	for i, field := range record {
		if i > 0 {
			if err := w.dst.WriteByte(comma); err != nil {
				w.err = err
				return err
			}
		}
		force := w.AlwaysQuote || (i < len(quoted) && quoted[i])
		if err := w.writeField(field, comma, quote, force); err != nil {
			w.err = err
			return err
		}
	}

	var err error
	if w.UseCRLF {
		_, err = w.dst.WriteString("\r\n")
	} else {
		err = w.dst.WriteByte('\n')
	}
	if err != nil {
		w.err = err
	}
	return err
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	return w.err
}

func (w *Writer) writeField(field string, comma, quote byte, force bool) error {
	if !force && !fieldNeedsQuote(field, comma, quote) {
		_, err := w.dst.WriteString(field)
		return err
	}
	if err := w.dst.WriteByte(quote); err != nil {
		return err
	}

	start := 0
	for i := 0; i < len(field); i++ {
		if field[i] != quote {
			continue
		}
		if _, err := w.dst.WriteString(field[start:i]); err != nil {
			return err
		}
		if _, err := w.dst.Write([]byte{quote, quote}); err != nil {
			return err
		}
		start = i + 1
	}
	if _, err := w.dst.WriteString(field[start:]); err != nil {
		return err
	}
	return w.dst.WriteByte(quote)
}

func fieldNeedsQuote(field string, comma, quote byte) bool {
	if field == "" {
		return false
	}
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case quote, comma, '\n', '\r':
			return true
		}
	}
	return false
}
