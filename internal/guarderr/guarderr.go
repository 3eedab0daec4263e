// Package guarderr defines the stable error taxonomy surfaced by
// cosmwasm-guard's CLI and analysis pipeline.
package guarderr

import "fmt"

// Code identifies the class of failure. Codes are stable across releases so
// callers (and tests) can match on them with errors.Is / a type switch.
type Code string

const (
	// Io covers filesystem failures: unreadable files, missing directories,
	// permission errors encountered while discovering or reading sources.
	Io Code = "IO"
	// Parse covers AST-provider failures: a source file that does not parse,
	// or parses to an unusable tree.
	Parse Code = "PARSE"
	// Config covers configuration failures: malformed TOML, an unknown
	// detector name in an allow/deny list, conflicting flags.
	Config Code = "CONFIG"
	// CacheCorrupted covers a cache artifact that fails to decompress or
	// decode. Always recovered internally by recomputing; exposed
	// here only so internal/cache can log it with a stable code.
	CacheCorrupted Code = "CACHE_CORRUPTED"
	// Internal covers invariant violations: a bug in this tool, not a
	// problem with the user's input.
	Internal Code = "INTERNAL"
)

// Error wraps a cause with a stable Code and a human-readable message,
// optionally anchored to a source file.
type Error struct {
	Code    Code
	Message string
	File    string
	cause   error
}

// New builds an Error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error around cause, preserving it for errors.Unwrap/Is/As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithFile returns a copy of e annotated with the file it concerns.
func (e *Error) WithFile(path string) *Error {
	out := *e
	out.File = path
	return &out
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.File != "" {
		prefix = fmt.Sprintf("%s %s", prefix, e.File)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.cause)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// ExitCode maps an error onto the process exit code: 0 for no error
// (callers never pass nil here) and 2 for any tool-level failure. Exit code
// 1, for findings surviving the severity gate, is set by the analyze command
// itself and never passes through here.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 2
}
