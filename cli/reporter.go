package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/shibukawa/csvsed"
	"github.com/shibukawa/csvsed/column"
	"github.com/shibukawa/csvsed/csvio"
	"github.com/shibukawa/csvsed/engine"
	"github.com/shibukawa/csvsed/modifier"
)

// Reporter writes human-readable diagnostics. Standard output carries CSV
// only, so everything goes to the writer given here, normally stderr.
type Reporter struct {
	w       io.Writer
	verbose bool

	status *color.Color
	warn   *color.Color
	fail   *color.Color
}

// NewReporter returns a Reporter writing to w. Status lines are printed only
// when verbose is set; warnings and errors always are.
func NewReporter(w io.Writer, verbose bool) *Reporter {
	useColor := isTerminal(w)
	return &Reporter{
		w:       w,
		verbose: verbose,
		status:  paint(color.New(color.FgBlue), useColor),
		warn:    paint(color.New(color.FgYellow), useColor),
		fail:    paint(color.New(color.FgRed), useColor),
	}
}

func paint(c *color.Color, enabled bool) *color.Color {
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Statusf prints a progress line in verbose mode.
func (r *Reporter) Statusf(format string, args ...any) {
	if !r.verbose {
		return
	}
	r.status.Fprintf(r.w, format+"\n", args...)
}

// Warnf prints a warning.
func (r *Reporter) Warnf(format string, args ...any) {
	r.warn.Fprintf(r.w, "warning: "+format+"\n", args...)
}

// Error prints err with a label naming its class.
func (r *Reporter) Error(err error) {
	r.fail.Fprintf(r.w, "%s: %v\n", Label(err), err)
}

// Label names the class of a csvsed error for the user.
func Label(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, modifier.ErrGrammar), errors.Is(err, ErrMissingModifier):
		return "modifier error"
	case errors.Is(err, modifier.ErrPattern):
		return "pattern error"
	case errors.Is(err, column.ErrColumn):
		return "column error"
	case errors.Is(err, modifier.ErrExecute):
		return "command error"
	case errors.Is(err, engine.ErrFormat):
		return "format error"
	case errors.Is(err, csvsed.ErrConfigValidation), errors.Is(err, csvio.ErrUnknownEncoding):
		return "configuration error"
	default:
		return "error"
	}
}
