package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/substratehq/substrate/internal/engine"
)

// Exit codes.
const (
	ExitSuccess      = 0 // Transition persisted / check passed
	ExitRejected     = 1 // Gate rejection, failed verification, validation issues
	ExitCommandError = 2 // Bad invocation: unreadable files, unknown flags, malformed input
)

// CLI error codes surfaced in JSON output.
const (
	ErrCodeGeneric   = "E001" // unclassified command error
	ErrCodeRejected  = "E002" // transition rejected by a gate
	ErrCodeState     = "E003" // governance document unreadable or corrupt
	ErrCodeDefs      = "E004" // definition document unreadable or invalid
	ErrCodeIntegrity = "E005" // audit chain verification failed
)

// ExitError carries a process exit code out of a command's RunE.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an underlying error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Non-ExitError
// values map to ExitCommandError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter renders command output as text or JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output; defaults to Writer
	Verbose   bool
}

// Response is the stable JSON envelope for every command.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError carries machine-readable failure details.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success renders a successful payload.
func (f *OutputFormatter) Success(message string, data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, message)
	return nil
}

// Failure renders an error payload. The returned ExitError propagates
// the exit code; rendering problems are ignored in its favor.
func (f *OutputFormatter) Failure(exitCode int, code, message string, details any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: message, Details: details},
		})
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
		if f.Verbose && details != nil {
			fmt.Fprintf(f.Writer, "Details: %v\n", details)
		}
	}
	return NewExitError(exitCode, message)
}

// Result renders an engine result: OK becomes a success payload,
// a rejection becomes an ExitRejected failure.
func (f *OutputFormatter) Result(res engine.Result) error {
	if res.OK {
		return f.Success(res.Message, map[string]any{
			"message": res.Message,
			"payload": res.Payload,
		})
	}
	return f.Failure(ExitRejected, ErrCodeRejected, res.Message, res.Payload)
}

// VerboseLog writes a diagnostic line when verbose mode is on. Always
// targets ErrWriter so JSON on stdout stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
