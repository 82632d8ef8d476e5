package modifier

import (
	"context"
	"fmt"
)

// Func transforms the value of one cell.
type Func func(ctx context.Context, cell string) (string, error)

// Executor runs an external command with input on its standard input and
// returns everything the command wrote to standard output.
type Executor interface {
	Execute(ctx context.Context, command string, input string) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, command string, input string) (string, error)

func (f ExecutorFunc) Execute(ctx context.Context, command string, input string) (string, error) {
	return f(ctx, command, input)
}

// Options carries the capabilities some modes need.
type Options struct {
	// Executor is required by Execute mode.
	Executor Executor
}

// Compile turns a parsed expression into a cell transform.
func Compile(spec *Spec, opts Options) (Func, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil expression", ErrGrammar)
	}

	switch spec.Mode {
	case Substitute:
		return compileSubstitute(spec)
	case Transliterate:
		return compileTransliterate(spec)
	case Execute:
		return compileExecute(spec, opts.Executor)
	default:
		return nil, fmt.Errorf("%w '%s': unsupported mode %s", ErrGrammar, spec.Raw, spec.Mode)
	}
}

// New parses and compiles raw in one step.
func New(raw string, opts Options) (Func, error) {
	spec, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return Compile(spec, opts)
}

// Pure wraps a plain string function, for callers that build transforms in Go
// rather than from an expression.
func Pure(fn func(string) string) Func {
	return func(_ context.Context, cell string) (string, error) {
		return fn(cell), nil
	}
}
