package csvio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned for a charset name the WHATWG index does not know.
var ErrUnknownEncoding = errors.New("unknown encoding")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Lookup resolves a WHATWG encoding label. UTF-8 (and the empty name)
// resolve to nil, meaning bytes pass through untouched.
func Lookup(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownEncoding, name)
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

// Source is a decoded input stream.
type Source struct {
	io.Reader
	// BOM reports that a UTF-8 byte order mark was stripped from the input.
	BOM bool
}

// NewSource decodes r from the named charset into UTF-8. A leading UTF-8 BOM
// is removed and remembered so NewSink can put it back.
func NewSource(r io.Reader, name string) (*Source, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		return &Source{Reader: transform.NewReader(r, enc.NewDecoder())}, nil
	}

	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return nil, err
	}
	bom := bytes.Equal(head, utf8BOM)
	if bom {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &Source{Reader: br, BOM: bom}, nil
}

// NewSink encodes UTF-8 written to it into the named charset on w. Close
// flushes any partially encoded tail; it does not close w.
func NewSink(w io.Writer, name string, bom bool) (io.WriteCloser, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		return transform.NewWriter(w, enc.NewEncoder()), nil
	}
	if bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return nil, err
		}
	}
	return nopCloser{w}, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
