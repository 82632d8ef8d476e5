package modifier

import "errors"

// Sentinel errors
var (
	// ErrGrammar indicates a malformed modifier expression (mode, delimiter, part count, flags, escapes).
	ErrGrammar = errors.New("invalid modifier")
	// ErrPattern indicates a regular expression or replacement template that cannot be compiled.
	ErrPattern = errors.New("invalid pattern")
	// ErrExecute indicates that an external command could not be run to completion.
	ErrExecute = errors.New("command execution failed")
)
