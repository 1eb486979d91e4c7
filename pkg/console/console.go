package console

import (
	"fmt"
	"io"
	"os"
)

// Console prints operator-facing progress lines. Partial source failures and
// fallback switches must always reach the operator, independent of the
// structured log level.
type Console struct {
	out io.Writer
}

// New returns a console writing to stdout.
func New() *Console {
	return &Console{out: os.Stdout}
}

// NewWithWriter is used by tests to capture output.
func NewWithWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Step announces the start of a pipeline stage.
func (c *Console) Step(format string, args ...any) {
	fmt.Fprintf(c.out, "→ "+format+"\n", args...)
}

// OK reports a completed stage.
func (c *Console) OK(format string, args ...any) {
	fmt.Fprintf(c.out, "  ✓ "+format+"\n", args...)
}

// Fail reports a recoverable per-source failure.
func (c *Console) Fail(format string, args ...any) {
	fmt.Fprintf(c.out, "  ✗ "+format+"\n", args...)
}

// Note prints an indented informational line, e.g. manual-capture
// instructions after a source turned out to be blocked.
func (c *Console) Note(format string, args ...any) {
	fmt.Fprintf(c.out, "    "+format+"\n", args...)
}
