// Package column resolves user-supplied column selectors against a header row.
package column

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrColumn is returned when a column selector cannot be resolved.
var ErrColumn = errors.New("invalid column")

// Resolve maps token to a position in header. A token that parses as a
// non-negative integer is a zero-based index; anything else must equal
// exactly one header entry.
func Resolve(token string, header []string) (int, error) {
	if n, err := strconv.Atoi(token); err == nil && n >= 0 {
		if n >= len(header) {
			return -1, fmt.Errorf("%w: index %d is out of range, the row has %d columns", ErrColumn, n, len(header))
		}
		return n, nil
	}

	idx := -1
	for i, name := range header {
		if name != token {
			continue
		}
		if idx >= 0 {
			return -1, fmt.Errorf("%w: name '%s' is ambiguous, it matches columns %d and %d", ErrColumn, token, idx, i)
		}
		idx = i
	}
	if idx < 0 {
		return -1, fmt.Errorf("%w: no column named '%s' (columns: %s)", ErrColumn, token, strings.Join(header, ", "))
	}
	return idx, nil
}

// SplitList splits a comma-separated selector such as "0,2" or "Name,Age"
// into its elements. It reports false when token resolves as a whole, so a
// header entry containing a comma still binds, and when any element does not
// resolve on its own.
func SplitList(token string, header []string) ([]string, bool) {
	if !strings.Contains(token, ",") {
		return nil, false
	}
	if _, err := Resolve(token, header); err == nil {
		return nil, false
	}

	parts := strings.Split(token, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if _, err := Resolve(part, header); err != nil {
			return nil, false
		}
		parts[i] = part
	}
	return parts, true
}

// Binding ties a selector to the position it resolves to. It is resolved at
// most once; later calls to Bind return the first result.
type Binding struct {
	Token string
	Index int

	err   error
	bound bool
}

// NewBinding returns an unresolved binding for token.
func NewBinding(token string) *Binding {
	return &Binding{Token: token, Index: -1}
}

// Bind resolves the binding against header the first time it is called.
func (b *Binding) Bind(header []string) (int, error) {
	if !b.bound {
		b.bound = true
		b.Index, b.err = Resolve(b.Token, header)
	}
	return b.Index, b.err
}

// Bound reports whether Bind has been called.
func (b *Binding) Bound() bool {
	return b.bound
}

// Name returns the header entry the binding resolved to, or the token itself
// when the header does not reach that far.
func (b *Binding) Name(header []string) string {
	if b.Index >= 0 && b.Index < len(header) {
		return header[b.Index]
	}
	return b.Token
}

// BindAll resolves every binding against header and rejects two selectors
// that land on the same column.
func BindAll(bindings []*Binding, header []string) error {
	seen := make(map[int]string, len(bindings))
	for _, b := range bindings {
		idx, err := b.Bind(header)
		if err != nil {
			return err
		}
		if prev, dup := seen[idx]; dup {
			return fmt.Errorf("%w: '%s' and '%s' both select column %d", ErrColumn, prev, b.Token, idx)
		}
		seen[idx] = b.Token
	}
	return nil
}

// GeneratedNames returns the names used for a file without a header row:
// a, b, ..., z, aa, ab, ...
func GeneratedNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = letterName(i)
	}
	return names
}

func letterName(i int) string {
	var buf []byte
	for i >= 0 {
		buf = append([]byte{byte('a' + i%26)}, buf...)
		i = i/26 - 1
	}
	return string(buf)
}
