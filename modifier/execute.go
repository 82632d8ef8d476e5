package modifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

func compileExecute(spec *Spec, executor Executor) (Func, error) {
	gate, err := compileRegexp(spec, spec.Parts[0], "")
	if err != nil {
		return nil, err
	}

	command := spec.Parts[1]
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("%w '%s': empty command", ErrGrammar, spec.Raw)
	}
	if executor == nil {
		return nil, fmt.Errorf("%w: no executor configured for '%s'", ErrExecute, spec.Raw)
	}

	return func(ctx context.Context, cell string) (string, error) {
		if !gate.MatchString(cell) {
			return cell, nil
		}
		out, err := executor.Execute(ctx, command, cell)
		if err != nil {
			if errors.Is(err, ErrExecute) {
				return "", err
			}
			return "", fmt.Errorf("%w: '%s': %w", ErrExecute, command, err)
		}
		return TrimOutput(out), nil
	}, nil
}

// TrimOutput removes exactly one trailing newline from command output.
// Any further trailing newlines are part of the value.
func TrimOutput(out string) string {
	return strings.TrimSuffix(out, "\n")
}
