// Package engine streams CSV rows through column-scoped modifiers.
//
// A Filter pulls records from a Source one at a time, binds its targets to
// the header, rewrites the bound cells and hands the row on. Nothing beyond
// the current row is held in memory.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/shibukawa/csvsed/column"
	"github.com/shibukawa/csvsed/csvio"
	"github.com/shibukawa/csvsed/modifier"
)

// ErrFormat is returned for input that is not well-formed CSV or whose rows
// are too short for a bound column.
var ErrFormat = errors.New("malformed input")

var errConsumed = errors.New("engine: rows have already been consumed")

// FailurePolicy decides what happens to a cell whose external command fails.
type FailurePolicy int

const (
	// FailurePolicyAbort stops the run at the first failure.
	FailurePolicyAbort FailurePolicy = iota
	// FailurePolicyKeep leaves the original value in place.
	FailurePolicyKeep
	// FailurePolicyEmpty replaces the value with an empty string.
	FailurePolicyEmpty
)

var policyNames = map[string]FailurePolicy{
	"abort": FailurePolicyAbort,
	"keep":  FailurePolicyKeep,
	"empty": FailurePolicyEmpty,
}

// ParseFailurePolicy converts a configuration value. The empty string is abort.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	if s == "" {
		return FailurePolicyAbort, nil
	}
	p, ok := policyNames[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown failure policy '%s': must be one of abort, keep, empty", s)
	}
	return p, nil
}

func (p FailurePolicy) String() string {
	for name, v := range policyNames {
		if v == p {
			return name
		}
	}
	return fmt.Sprintf("FailurePolicy(%d)", int(p))
}

// Target applies Modify to the column selected by Column.
type Target struct {
	Column *column.Binding
	Modify modifier.Func
}

// Source yields CSV records. io.EOF ends the stream. A Source may also
// implement Quoted() []bool, Line() int and CRLF() bool, as csvio.Reader does.
type Source interface {
	Read() ([]string, error)
}

// Sink receives CSV records. A Sink may also implement
// WriteQuoted([]string, []bool) error and SetCRLF(bool), as csvio.Writer does.
type Sink interface {
	Write(record []string) error
	Flush() error
}

type quotedSource interface {
	Quoted() []bool
}

type lineSource interface {
	Line() int
}

type terminatorSource interface {
	CRLF() bool
}

type quotedSink interface {
	WriteQuoted(record []string, quoted []bool) error
}

type terminatorSink interface {
	SetCRLF(crlf bool)
}

// Failure describes an external command failure absorbed by the policy.
type Failure struct {
	Row    int
	Column string
	Err    error
}

// Options controls a Filter.
type Options struct {
	// NoHeader treats the first record as data; columns are then named a, b, c...
	NoHeader bool
	// OnError applies to failures of Execute modifiers only.
	OnError FailurePolicy
	// Warn is called for every failure absorbed by OnError.
	Warn func(Failure)
	// Bound is called once per resolved column, after the first record.
	Bound func(name string, index int)
}

// Stats counts what a run did.
type Stats struct {
	// Rows is the number of data rows, excluding the header.
	Rows int
	// Changed is the number of cells whose value was rewritten.
	Changed int
	// Failed is the number of cells whose command failed under a non-abort policy.
	Failed int
}

// Row is one record travelling from Source to Sink.
type Row struct {
	// Number is the 1-based data row number; zero for the header.
	Number int
	// Line is the input line the record started on, when the Source knows it.
	Line   int
	Header bool
	Fields []string
	// Quoted tells, per field, whether it must be written quoted. Rewritten
	// cells lose their flag so the writer decides afresh.
	Quoted []bool
}

// Filter transforms the rows of a single Source.
type Filter struct {
	src     Source
	targets []Target
	opts    Options
	// active holds the resolved targets, with failure handling applied.
	active  []Target

	header  []string
	stats   Stats
	started bool
}

// NewFilter prepares a filter. Bindings are resolved when the first record arrives.
func NewFilter(src Source, targets []Target, opts Options) *Filter {
	return &Filter{src: src, targets: targets, opts: opts}
}

// Stats returns the counters accumulated so far.
func (f *Filter) Stats() Stats {
	return f.stats
}

// Header returns the column names bindings were resolved against.
func (f *Filter) Header() []string {
	return f.header
}

// Rows returns the transformed rows. The sequence stops after the first
// error and can only be ranged over once.
func (f *Filter) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		if f.started {
			yield(Row{}, errConsumed)
			return
		}
		f.started = true

		first := true
		for {
			if err := ctx.Err(); err != nil {
				yield(Row{}, err)
				return
			}

			fields, err := f.src.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Row{}, fmt.Errorf("%w: %w", ErrFormat, err))
				return
			}

			row := Row{Fields: fields, Quoted: f.quoted(len(fields)), Line: f.line()}

			if first {
				first = false
				if err := f.bind(fields); err != nil {
					yield(Row{}, err)
					return
				}
				if !f.opts.NoHeader {
					row.Header = true
					if !yield(row, nil) {
						return
					}
					continue
				}
			}

			f.stats.Rows++
			row.Number = f.stats.Rows
			if err := f.apply(ctx, &row); err != nil {
				yield(Row{}, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func (f *Filter) bind(first []string) error {
	if f.opts.NoHeader {
		f.header = column.GeneratedNames(len(first))
	} else {
		f.header = append([]string(nil), first...)
	}

	var targets []Target
	for _, target := range f.targets {
		parts, ok := column.SplitList(target.Column.Token, f.header)
		if !ok {
			targets = append(targets, target)
			continue
		}
		for _, part := range parts {
			targets = append(targets, Target{Column: column.NewBinding(part), Modify: target.Modify})
		}
	}

	bindings := make([]*column.Binding, len(targets))
	for i, target := range targets {
		bindings[i] = target.Column
	}
	if err := column.BindAll(bindings, f.header); err != nil {
		return err
	}

	f.active = make([]Target, len(targets))
	for i, target := range targets {
		f.active[i] = f.guard(target)
		if f.opts.Bound != nil {
			f.opts.Bound(target.Column.Name(f.header), target.Column.Index)
		}
	}
	return nil
}

func (f *Filter) quoted(n int) []bool {
	qs, ok := f.src.(quotedSource)
	if !ok {
		return nil
	}
	src := qs.Quoted()
	if len(src) > n {
		src = src[:n]
	}
	return append(make([]bool, 0, n), src...)
}

func (f *Filter) line() int {
	if ls, ok := f.src.(lineSource); ok {
		return ls.Line()
	}
	return 0
}

// guard names the cell for the modifier and applies the failure policy to
// its errors.
func (f *Filter) guard(target Target) Target {
	name := target.Column.Name(f.header)
	modify := target.Modify
	return Target{Column: target.Column, Modify: func(ctx context.Context, value string) (string, error) {
		cell, _ := modifier.CellFrom(ctx)
		cell.Column = name
		out, err := modify(modifier.WithCell(ctx, cell), value)
		if err == nil {
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if !errors.Is(err, modifier.ErrExecute) || f.opts.OnError == FailurePolicyAbort {
			return "", fmt.Errorf("%s, column '%s': %w", rowLabel(cell), name, err)
		}
		f.stats.Failed++
		if f.opts.Warn != nil {
			f.opts.Warn(Failure{Row: cell.Row, Column: name, Err: err})
		}
		if f.opts.OnError == FailurePolicyEmpty {
			return "", nil
		}
		return value, nil
	}}
}

func (f *Filter) apply(ctx context.Context, row *Row) error {
	// In a single-column file an empty line is an empty cell.
	if len(f.header) != 1 && csvio.IsBlank(row.Fields, row.Quoted) {
		return nil
	}

	ctx = modifier.WithCell(ctx, modifier.Cell{Row: row.Number, Line: row.Line})
	out, err := Transform(ctx, row.Fields, f.active)
	if err != nil {
		return err
	}

	for _, target := range f.active {
		idx := target.Column.Index
		if out[idx] == row.Fields[idx] {
			continue
		}
		if idx < len(row.Quoted) {
			row.Quoted[idx] = false
		}
		f.stats.Changed++
	}
	row.Fields = out
	return nil
}

func rowLabel(cell modifier.Cell) string {
	switch {
	case cell.Row <= 0:
		return "row"
	case cell.Line <= 0:
		return fmt.Sprintf("row %d", cell.Row)
	default:
		return fmt.Sprintf("row %d (line %d)", cell.Row, cell.Line)
	}
}

// Transform applies targets to a single row whose bindings are already
// resolved. The input slice is not modified. A position attached to ctx with
// modifier.WithCell is used in error messages.
func Transform(ctx context.Context, row []string, targets []Target) ([]string, error) {
	cell, _ := modifier.CellFrom(ctx)
	out := append([]string(nil), row...)
	for _, target := range targets {
		idx := target.Column.Index
		if idx < 0 || idx >= len(out) {
			return nil, fmt.Errorf("%w: %s has %d fields, column '%s' needs %d",
				ErrFormat, rowLabel(cell), len(out), target.Column.Token, idx+1)
		}
		value, err := target.Modify(ctx, out[idx])
		if err != nil {
			return nil, err
		}
		out[idx] = value
	}
	return out, nil
}

// Run copies src to dst through the targets. Rows already transformed are
// flushed to dst before an error is returned, unless ctx was cancelled.
func Run(ctx context.Context, src Source, dst Sink, targets []Target, opts Options) (Stats, error) {
	filter := NewFilter(src, targets, opts)
	qsink, preserveQuoting := dst.(quotedSink)
	terminatorChecked := false

	for row, err := range filter.Rows(ctx) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return filter.Stats(), err
			}
			if flushErr := dst.Flush(); flushErr != nil {
				return filter.Stats(), errors.Join(err, flushErr)
			}
			return filter.Stats(), err
		}

		if !terminatorChecked {
			terminatorChecked = true
			mirrorTerminator(src, dst)
		}

		if preserveQuoting {
			err = qsink.WriteQuoted(row.Fields, row.Quoted)
		} else {
			err = dst.Write(row.Fields)
		}
		if err != nil {
			return filter.Stats(), err
		}
	}

	return filter.Stats(), dst.Flush()
}

func mirrorTerminator(src Source, dst Sink) {
	ts, ok := src.(terminatorSource)
	if !ok {
		return
	}
	if td, ok := dst.(terminatorSink); ok {
		td.SetCRLF(ts.CRLF())
	}
}
