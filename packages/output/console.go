package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/core/runner"
	"github.com/abdul-hamid-achik/attest/packages/report"
	"github.com/fatih/color"
)

// Formatter is the common surface of the console, JSON, TAP and JUnit
// renderers.
type Formatter interface {
	FormatHeader(version string)
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	Flush(totalDuration time.Duration) error
}

// formatValue renders a value for display, truncating long ones.
func formatValue(v any, maxLen int) string {
	str := ast.FormatValue(v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s\n", bold("attest "+version))
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Suite: "+result.Suite))

	for _, r := range result.Results {
		if r.Skipped {
			fmt.Fprintf(f.writer, "  %s %s", yellow("-"), r.Name)
			if r.SkipReason != "" && r.SkipReason != "filtered out" {
				fmt.Fprintf(f.writer, " (%s)", r.SkipReason)
			}
			fmt.Fprintf(f.writer, "\n")
			continue
		}

		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

		for _, entry := range r.Failures {
			f.formatEntry(entry)
		}
	}

	fmt.Fprintf(f.writer, "\nTests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	total := result.Passed + result.Failed + result.Skipped
	fmt.Fprintf(f.writer, "%d total\n", total)
	fmt.Fprintf(f.writer, "Time:  %dms\n\n", result.Duration.Milliseconds())
}

// formatEntry lays out one failure according to its diagnostic context.
func (f *ConsoleFormatter) formatEntry(entry report.Entry) {
	red := color.New(color.FgRed).SprintFunc()

	var failure *report.Failure
	if !errors.As(entry.Err, &failure) {
		fmt.Fprintf(f.writer, "    %s [%s] %v\n", red("→"), entry.Kind, entry.Err)
		if !entry.Origin.IsZero() {
			fmt.Fprintf(f.writer, "      at: %s\n", entry.Origin)
		}
		return
	}

	fmt.Fprintf(f.writer, "    %s [%s] %s\n", red("→"), entry.Kind, failure.Message)
	if failure.Expr != "" {
		fmt.Fprintf(f.writer, "      code:    %s\n", failure.Expr)
	}
	if !entry.Origin.IsZero() {
		fmt.Fprintf(f.writer, "      at:      %s\n", entry.Origin)
	}

	switch failure.Context {
	case report.ContextEqual, report.ContextStrictEqual:
		if !report.IsNoValue(failure.Left) {
			fmt.Fprintf(f.writer, "      left:    %s\n", formatValue(failure.Left, 120))
		}
		if !report.IsNoValue(failure.Right) {
			fmt.Fprintf(f.writer, "      right:   %s\n", formatValue(failure.Right, 120))
		}
	case report.ContextMatch:
		fmt.Fprintf(f.writer, "      pattern: %s\n", formatValue(failure.Left, 120))
		if !report.IsNoValue(failure.Right) {
			fmt.Fprintf(f.writer, "      value:   %s\n", formatValue(failure.Right, 120))
		}
		f.formatPins(failure.Pins)
	case report.ContextMailbox:
		if !report.IsNoValue(failure.Left) {
			fmt.Fprintf(f.writer, "      message: %s\n", formatValue(failure.Left, 120))
		}
		f.formatPins(failure.Pins)
		if snap := failure.Snapshot; snap != nil {
			fmt.Fprintf(f.writer, "      mailbox: %d queued", snap.TotalCount)
			if snap.Truncated {
				fmt.Fprintf(f.writer, ", showing %d most recent", len(snap.Recent))
			}
			fmt.Fprintf(f.writer, "\n")
			for _, msg := range snap.Recent {
				fmt.Fprintf(f.writer, "        %s\n", formatValue(msg, 100))
			}
		}
	}

	if failure.HasArgs {
		fmt.Fprintf(f.writer, "      arguments:\n")
		for i, a := range failure.Args {
			fmt.Fprintf(f.writer, "        #%d: %s\n", i+1, formatValue(a, 100))
		}
	}
}

func (f *ConsoleFormatter) formatPins(pins []report.PinnedVar) {
	for _, pin := range pins {
		fmt.Fprintf(f.writer, "      pin:     ^%s = %s\n", pin.Name, formatValue(pin.Value, 100))
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) Flush(totalDuration time.Duration) error {
	return nil
}
