package stream

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExternalToolFailed matches every ToolError.
var ErrExternalToolFailed = errors.New("external tool failed")

// maxDiagnostic bounds how much stderr is carried in an error.
const maxDiagnostic = 2048

// ToolError reports a downloader, transcoder or search tool that could not be
// started, exited non-zero, or produced nothing.
type ToolError struct {
	Tool       string
	Diagnostic string
	Err        error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Tool)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Diagnostic != "" {
		fmt.Fprintf(&b, " (%s)", e.Diagnostic)
	}
	return b.String()
}

func (e *ToolError) Unwrap() error { return e.Err }

func (e *ToolError) Is(target error) bool { return target == ErrExternalToolFailed }

// NewToolError trims the captured stderr down to its tail.
func NewToolError(tool string, stderr []byte, err error) *ToolError {
	diag := strings.TrimSpace(string(stderr))
	if len(diag) > maxDiagnostic {
		diag = "..." + diag[len(diag)-maxDiagnostic:]
	}
	return &ToolError{Tool: tool, Diagnostic: diag, Err: err}
}
