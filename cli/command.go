// Package cli implements the csvsed command.
package cli

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/shibukawa/csvsed"
	"github.com/shibukawa/csvsed/column"
	"github.com/shibukawa/csvsed/csvio"
	"github.com/shibukawa/csvsed/engine"
	"github.com/shibukawa/csvsed/executor"
	"github.com/shibukawa/csvsed/modifier"
)

// ErrMissingModifier is returned when neither --modifier nor -r is given.
var ErrMissingModifier = errors.New("a modifier is required (-m or --modifier)")

// Context carries the process environment into a command run.
type Context struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Vars returns the interpolation variables Command's tags refer to.
func Vars(version string) kong.Vars {
	return kong.Vars{
		"version":     version,
		"config_file": csvsed.DefaultConfigFile,
	}
}

// Command is the csvsed command line.
type Command struct {
	Columns  []string `short:"c" sep:"none" required:"" env:"CSVSED_COLUMNS" placeholder:"COLUMN" help:"Column name or zero-based index to modify. Repeat, or give a comma-separated list, to modify several columns."`
	Modifier string   `short:"m" aliases:"expr" env:"CSVSED_MODIFIER" placeholder:"EXPR" help:"Modifier expression: s/pattern/replacement/flags, y/from/to/flags or e/gate/command/."`
	Regex    string   `short:"r" hidden:"" help:"Alias of --modifier."`

	Delimiter   string `short:"d" env:"CSVSED_DELIMITER" help:"Field delimiter (use \\t or tab for a tab)."`
	Tabs        bool   `short:"t" help:"Input and output are tab-delimited."`
	QuoteChar   string `short:"q" name:"quotechar" env:"CSVSED_QUOTECHAR" help:"Quote character."`
	Encoding    string `short:"e" env:"CSVSED_ENCODING" help:"Character encoding of input and output (WHATWG label)."`
	NoHeaderRow bool   `short:"H" name:"no-header-row" help:"Input has no header row; columns are named a, b, c..."`
	Ragged      bool   `help:"Allow rows with differing numbers of fields."`

	ExecTimeout string `name:"exec-timeout" env:"CSVSED_EXEC_TIMEOUT" placeholder:"DURATION" help:"Timeout for each command run by an e modifier, e.g. 5s."`
	ExecRate    string `name:"exec-rate" env:"CSVSED_EXEC_RATE" placeholder:"N" help:"Maximum commands started per second."`
	ExecOnError string `name:"exec-on-error" env:"CSVSED_EXEC_ON_ERROR" placeholder:"abort|keep|empty" help:"What to do with a cell whose command fails."`

	Config  string           `default:"${config_file}" env:"CSVSED_CONFIG" help:"Configuration file path."`
	Verbose bool             `short:"v" help:"Report progress on stderr."`
	Version kong.VersionFlag `help:"Print version and exit."`
}

// Run executes the command: stdin is read as CSV and written to stdout with
// the bound columns rewritten.
func (c *Command) Run(ctx *Context) error {
	reporter := NewReporter(ctx.Stderr, c.Verbose)

	config, err := LoadConfig(c)
	if err != nil {
		return err
	}

	expr := c.Modifier
	if expr == "" {
		expr = c.Regex
	}
	if expr == "" {
		return ErrMissingModifier
	}

	spec, err := modifier.Parse(expr)
	if err != nil {
		return err
	}
	fn, err := modifier.Compile(spec, modifier.Options{
		Executor: executor.NewShell(config.Exec.Shell, config.Exec.Timeout, config.Exec.RateLimit),
	})
	if err != nil {
		return err
	}

	targets := make([]engine.Target, len(c.Columns))
	for i, token := range c.Columns {
		targets[i] = engine.Target{Column: column.NewBinding(token), Modify: fn}
	}

	reporter.Statusf("Applying %s modifier '%s' to %s", spec.Mode, spec.Raw, strings.Join(c.Columns, ", "))
	if spec.Mode == modifier.Execute {
		reporter.Statusf("Commands run with %s (timeout %s, on error: %s)",
			strings.Join(config.Exec.Shell, " "), timeoutLabel(config.Exec.Timeout), config.Exec.OnError)
	}

	source, err := csvio.NewSource(ctx.Stdin, config.CSV.Encoding)
	if err != nil {
		return err
	}
	reader := csvio.NewReader(source)
	reader.Comma = config.Comma()
	reader.Quote = config.QuoteChar()
	if config.CSV.Ragged {
		reader.FieldsPerRecord = -1
	}

	sink, err := csvio.NewSink(ctx.Stdout, config.CSV.Encoding, source.BOM)
	if err != nil {
		return err
	}
	writer := csvio.NewWriter(sink)
	writer.Comma = config.Comma()
	writer.Quote = config.QuoteChar()

	stats, runErr := engine.Run(ctx.Ctx, reader, writer, targets, engine.Options{
		NoHeader: config.CSV.NoHeader,
		OnError:  config.FailurePolicy(),
		Warn: func(f engine.Failure) {
			reporter.Warnf("row %d, column '%s': %v", f.Row, f.Column, f.Err)
		},
		Bound: func(name string, index int) {
			reporter.Statusf("Column '%s' is field %d", name, index)
		},
	})
	if closeErr := sink.Close(); runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return runErr
	}

	reporter.Statusf("Processed %d rows: %d cells changed, %d commands failed", stats.Rows, stats.Changed, stats.Failed)

	return nil
}

func timeoutLabel(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.String()
}
