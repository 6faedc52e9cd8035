package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/attest/packages/output"
)

var (
	renderTapFlag     bool
	renderFollowFlag  bool
	renderNoColorFlag bool
)

// RenderDebounceDelay is how long to wait after a write event before
// re-rendering, to coalesce rapid successive writes.
const RenderDebounceDelay = 300 * time.Millisecond

var renderCmd = &cobra.Command{
	Use:   "render <report.json>",
	Short: "Render a JSON report document",
	Long: `Render a JSON report document written by the JSON formatter.

Examples:
  attest render report.json
  attest render report.json --tap
  attest render report.json --follow`,
	Args: cobra.ExactArgs(1),
	RunE: renderCommand,
}

func init() {
	renderCmd.Flags().BoolVar(&renderTapFlag, "tap", false, "Re-emit the report as TAP version 13")
	renderCmd.Flags().BoolVarP(&renderFollowFlag, "follow", "f", false, "Watch the report file and re-render on change")
	renderCmd.Flags().BoolVar(&renderNoColorFlag, "no-color", false, "Disable colored output")
}

func renderCommand(cmd *cobra.Command, args []string) error {
	if renderNoColorFlag {
		color.NoColor = true
	}
	path := args[0]

	failed, err := renderFile(cmd.OutOrStdout(), path)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStderr(), "Error: %v\n", err)
		os.Exit(ExitReportError)
	}

	if !renderFollowFlag {
		if failed {
			os.Exit(ExitTestFailure)
		}
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory; editors and formatters often replace the file
	// rather than writing it in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", path)

	var debounceTimer *time.Timer
	abs, _ := filepath.Abs(path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			eventAbs, _ := filepath.Abs(event.Name)
			if eventAbs != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(RenderDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nReport changed, re-rendering...\n")
				if _, err := renderFile(cmd.OutOrStdout(), path); err != nil {
					fmt.Fprintf(cmd.OutOrStderr(), "Error: %v\n", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStderr(), "watch error: %v\n", err)
		}
	}
}

// renderFile reads, sniffs and renders one report document. It returns
// whether the report contains failures.
func renderFile(w io.Writer, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return false, fmt.Errorf("%s is not valid JSON", path)
	}

	// Cheap shape check before committing to a full decode.
	if !gjson.GetBytes(data, "summary").Exists() || !gjson.GetBytes(data, "units").Exists() {
		return false, fmt.Errorf("%s does not look like an attest report (missing summary/units)", path)
	}

	var doc output.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if renderTapFlag {
		renderDocumentTAP(w, &doc)
	} else {
		renderDocument(w, &doc)
	}
	return doc.Summary.Failed > 0, nil
}

func renderDocument(w io.Writer, doc *output.Document) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "\n%s", bold("Suite: "+doc.Suite))
	if doc.RunID != "" {
		fmt.Fprintf(w, " %s", cyan("("+doc.RunID+")"))
	}
	fmt.Fprintf(w, "\n\n")

	for _, u := range doc.Units {
		if u.Skipped {
			fmt.Fprintf(w, "  %s %s", yellow("-"), u.Name)
			if u.SkipReason != "" && u.SkipReason != "filtered out" {
				fmt.Fprintf(w, " (%s)", u.SkipReason)
			}
			fmt.Fprintf(w, "\n")
			continue
		}

		symbol := green("✓")
		if !u.Passed {
			symbol = red("✗")
		}
		fmt.Fprintf(w, "  %s %s %s\n", symbol, u.Name, cyan(fmt.Sprintf("(%.0fms)", u.Duration)))

		for _, f := range u.Failures {
			fmt.Fprintf(w, "    %s [%s] %s\n", red("→"), f.Kind, f.Message)
			if f.Expr != "" {
				fmt.Fprintf(w, "      code:    %s\n", f.Expr)
			}
			if f.Origin != "" {
				fmt.Fprintf(w, "      at:      %s\n", f.Origin)
			}
			if f.Left != "" {
				fmt.Fprintf(w, "      left:    %s\n", f.Left)
			}
			if f.Right != "" {
				fmt.Fprintf(w, "      right:   %s\n", f.Right)
			}
			for _, pin := range f.Pins {
				fmt.Fprintf(w, "      pin:     ^%s = %s\n", pin.Name, pin.Value)
			}
			for i, a := range f.Args {
				fmt.Fprintf(w, "      arg #%d:  %s\n", i+1, a)
			}
			if f.Mailbox != nil {
				fmt.Fprintf(w, "      mailbox: %d queued", f.Mailbox.TotalCount)
				if f.Mailbox.Truncated {
					fmt.Fprintf(w, ", showing %d most recent", len(f.Mailbox.Recent))
				}
				fmt.Fprintf(w, "\n")
				for _, msg := range f.Mailbox.Recent {
					fmt.Fprintf(w, "        %s\n", msg)
				}
			}
		}
	}

	fmt.Fprintf(w, "\nTests: ")
	if doc.Summary.Passed > 0 {
		fmt.Fprintf(w, "%s, ", green(fmt.Sprintf("%d passed", doc.Summary.Passed)))
	}
	if doc.Summary.Failed > 0 {
		fmt.Fprintf(w, "%s, ", red(fmt.Sprintf("%d failed", doc.Summary.Failed)))
	}
	if doc.Summary.Skipped > 0 {
		fmt.Fprintf(w, "%s, ", yellow(fmt.Sprintf("%d skipped", doc.Summary.Skipped)))
	}
	fmt.Fprintf(w, "%d total\n", doc.Summary.Total)
	fmt.Fprintf(w, "Time:  %.0fms\n", doc.Duration)
}

func renderDocumentTAP(w io.Writer, doc *output.Document) {
	fmt.Fprintf(w, "TAP version 13\n")
	fmt.Fprintf(w, "1..%d\n", len(doc.Units))

	for i, u := range doc.Units {
		n := i + 1
		switch {
		case u.Skipped:
			reason := u.SkipReason
			if reason == "" {
				reason = "SKIP"
			}
			fmt.Fprintf(w, "ok %d - %s # SKIP %s\n", n, u.Name, reason)
		case u.Passed:
			fmt.Fprintf(w, "ok %d - %s\n", n, u.Name)
		default:
			fmt.Fprintf(w, "not ok %d - %s\n", n, u.Name)
			if len(u.Failures) > 0 {
				fmt.Fprintf(w, "  ---\n  failures:\n")
				for _, f := range u.Failures {
					fmt.Fprintf(w, "    - \"[%s] %s\"\n", f.Kind, f.Message)
				}
				fmt.Fprintf(w, "  ...\n")
			}
		}
	}
}
