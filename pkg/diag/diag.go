// Package diag provides structured diagnostics for the mermaid parsers.
//
// This package defines the error and warning types shared by every parse
// phase (tokenizer, parser, tree assembler) so that callers get a consistent
// error shape regardless of which phase failed:
//   - Machine-readable error codes for programmatic handling
//   - 1-based line/column source positions
//   - The token kinds that were syntactically expected at the failure point
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Hard failures abort a parse and carry one of the Err* codes. Recoverable
// deviations never abort; they are collected as Warning values with a Warn*
// code and returned alongside the assembled diagram.
//
// # Usage
//
//	err := diag.New(diag.ErrCodeSyntax, pos, "unexpected token %q", tok)
//	if diag.Is(err, diag.ErrCodeSyntax) {
//	    // Handle syntax error
//	}
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable diagnostic code.
type Code string

// Hard-failure codes. An error with one of these codes aborts the parse.
const (
	// ErrCodeLex marks a lexical dead-end: a character sequence that matches
	// no token rule.
	ErrCodeLex Code = "LEX_ERROR"

	// ErrCodeSyntax marks a token sequence that matches no statement rule at
	// a point where skipping the line is not possible.
	ErrCodeSyntax Code = "SYNTAX_ERROR"

	// ErrCodeStructural marks an unbalanced construct: a bracket with no
	// matching close, a subgraph with no matching end, or a cyclic subgraph
	// containment relation.
	ErrCodeStructural Code = "STRUCTURAL_ERROR"

	// ErrCodeReference marks a directive that names a node identifier never
	// declared. Demotable to WarnCodeReference under a lenient policy.
	ErrCodeReference Code = "REFERENCE_ERROR"

	// ErrCodeEmptyInput marks input that is empty or contains only
	// whitespace and comments.
	ErrCodeEmptyInput Code = "EMPTY_INPUT"

	// ErrCodeUnknownDiagram marks input whose header matches no known
	// diagram grammar.
	ErrCodeUnknownDiagram Code = "UNKNOWN_DIAGRAM"

	// ErrCodeUnsupportedDiagram marks a recognized diagram grammar that has
	// no parser wired in.
	ErrCodeUnsupportedDiagram Code = "UNSUPPORTED_DIAGRAM"

	// ErrCodeInternal marks unexpected internal errors.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Recoverable-deviation codes, carried by Warning values.
const (
	// WarnCodeUnknownLine marks a line that matched no statement rule and
	// was skipped.
	WarnCodeUnknownLine Code = "UNKNOWN_LINE"

	// WarnCodeDuplicateShape marks a shape redeclaration for a node whose
	// shape was already set explicitly. The first declaration wins.
	WarnCodeDuplicateShape Code = "DUPLICATE_SHAPE"

	// WarnCodeReference is the demoted form of ErrCodeReference.
	WarnCodeReference Code = "UNRESOLVED_REFERENCE"

	// WarnCodeUnknownDirection marks a missing or unrecognized flow
	// direction; the parser falls back to top-down.
	WarnCodeUnknownDirection Code = "UNKNOWN_DIRECTION"

	// WarnCodeMisplacedDirection marks a direction statement outside a
	// subgraph body.
	WarnCodeMisplacedDirection Code = "MISPLACED_DIRECTION"

	// WarnCodeStrayEnd marks an end keyword with no open subgraph.
	WarnCodeStrayEnd Code = "STRAY_END"
)

// Pos is a 1-based source position.
type Pos struct {
	Line   int `json:"line" bson:"line"`
	Column int `json:"column" bson:"column"`
}

// String renders the position as "line:column".
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Error is a structured parse failure with a code, position and optional
// expectation context.
type Error struct {
	Code     Code     // Machine-readable diagnostic code
	Message  string   // Human-readable message
	Pos      Pos      // Source position of the failure (zero if not positional)
	Expected []string // Token kinds that were syntactically valid here
	Found    string   // The token or text actually encountered
	Cause    error    // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	if e.Pos.Line > 0 {
		fmt.Fprintf(&sb, " at %s", e.Pos)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if len(e.Expected) > 0 {
		fmt.Fprintf(&sb, " (expected %s", strings.Join(e.Expected, ", "))
		if e.Found != "" {
			fmt.Fprintf(&sb, ", found %s", e.Found)
		}
		sb.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code, position and formatted message.
func New(code Code, pos Pos, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// Expectation attaches expected/found context to the error and returns it.
func (e *Error) Expectation(found string, expected ...string) *Error {
	e.Expected = expected
	e.Found = found
	return e
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err carries the given diagnostic code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the diagnostic code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Warning is a recoverable deviation collected during a parse.
// Warnings never abort parsing; they accompany the assembled diagram.
type Warning struct {
	Code    Code   `json:"code" bson:"code"`
	Message string `json:"message" bson:"message"`
	Pos     Pos    `json:"pos" bson:"pos"`
}

// String renders the warning as "CODE at line:col: message".
func (w Warning) String() string {
	if w.Pos.Line > 0 {
		return fmt.Sprintf("%s at %s: %s", w.Code, w.Pos, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Warningf builds a Warning with a formatted message.
func Warningf(code Code, pos Pos, format string, args ...any) Warning {
	return Warning{Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
