package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/parley-dev/parley/internal/output"
	"github.com/spf13/cobra"
)

// Printer writes command output. Messages go to out, warnings and errors
// to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
}

// NewPrinter creates a Printer with custom writers
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{
		out:    out,
		errOut: errOut,
	}
}

// printerFor returns a Printer bound to the command's writers.
func printerFor(cmd *cobra.Command) *Printer {
	return NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// Success prints a success message with an [OK] prefix
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.out, "[OK] %s\n", fmt.Sprintf(format, args...))
}

// Info prints an informational message
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, "%s\n", fmt.Sprintf(format, args...))
}

// Warn prints a warning message with a warning prefix
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.errOut, "[WARN] %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message with an error prefix
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintf(p.errOut, "[ERROR] %s\n", fmt.Sprintf(format, args...))
}

// JSON outputs data as indented JSON
func (p *Printer) JSON(data any) error {
	encoder := json.NewEncoder(p.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Render prints the text produced by one of the output.Formatter methods.
func (p *Printer) Render(text string, err error) error {
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err = io.WriteString(p.out, text)
	return err
}

// Table prints rows under headers, columns aligned with a tabwriter
func (p *Printer) Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)

	if len(headers) > 0 {
		fmt.Fprintln(w, strings.Join(headers, "\t"))
		separators := make([]string, len(headers))
		for i, h := range headers {
			separators[i] = strings.Repeat("-", len(h))
		}
		fmt.Fprintln(w, strings.Join(separators, "\t"))
	}

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
}

// formatter picks the output mode from the --json and --verbose flags.
func formatter() *output.Formatter {
	switch {
	case IsJSONOutput():
		return output.NewFormatter(output.FormatJSON)
	case IsVerbose():
		return output.NewFormatter(output.FormatVerbose)
	default:
		return output.NewFormatter(output.FormatNormal)
	}
}
