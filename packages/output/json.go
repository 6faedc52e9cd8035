package output

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/core/runner"
	"github.com/abdul-hamid-achik/attest/packages/report"
)

// Document is the JSON report for one run, written by the JSON formatter
// and read back by `attest render`.
type Document struct {
	Suite    string    `json:"suite"`
	RunID    string    `json:"runId"`
	Summary  Summary   `json:"summary"`
	Units    []UnitDoc `json:"units"`
	Duration float64   `json:"duration"` // milliseconds
	Time     string    `json:"time"`
}

type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type UnitDoc struct {
	Name       string       `json:"name"`
	Passed     bool         `json:"passed"`
	Skipped    bool         `json:"skipped,omitempty"`
	SkipReason string       `json:"skipReason,omitempty"`
	Duration   float64      `json:"duration"` // milliseconds
	Failures   []FailureDoc `json:"failures,omitempty"`
}

type FailureDoc struct {
	Kind    string       `json:"kind"`
	Message string       `json:"message"`
	Context string       `json:"context,omitempty"`
	Expr    string       `json:"expr,omitempty"`
	Origin  string       `json:"origin,omitempty"`
	Left    string       `json:"left,omitempty"`
	Right   string       `json:"right,omitempty"`
	Pins    []PinDoc     `json:"pins,omitempty"`
	Args    []string     `json:"args,omitempty"`
	Mailbox *SnapshotDoc `json:"mailbox,omitempty"`
}

type PinDoc struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type SnapshotDoc struct {
	TotalCount int      `json:"totalCount"`
	Recent     []string `json:"recent"`
	Truncated  bool     `json:"truncated,omitempty"`
}

// BuildDocument flattens a run result into its report document. Values
// are rendered to strings here, once, so the document round-trips without
// type loss.
func BuildDocument(result *runner.RunResult) *Document {
	doc := &Document{
		Suite: result.Suite,
		RunID: result.RunID,
		Summary: Summary{
			Total:   len(result.Results),
			Passed:  result.Passed,
			Failed:  result.Failed,
			Skipped: result.Skipped,
		},
		Duration: float64(result.Duration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	for _, r := range result.Results {
		unit := UnitDoc{
			Name:       r.Name,
			Passed:     r.Passed,
			Skipped:    r.Skipped,
			SkipReason: r.SkipReason,
			Duration:   float64(r.Duration.Milliseconds()),
		}
		for _, entry := range r.Failures {
			unit.Failures = append(unit.Failures, buildFailureDoc(entry))
		}
		doc.Units = append(doc.Units, unit)
	}
	return doc
}

func buildFailureDoc(entry report.Entry) FailureDoc {
	fd := FailureDoc{Kind: entry.Kind}
	if !entry.Origin.IsZero() {
		fd.Origin = entry.Origin.String()
	}

	var failure *report.Failure
	if !errors.As(entry.Err, &failure) {
		fd.Message = entry.Err.Error()
		return fd
	}

	fd.Message = failure.Message
	fd.Context = failure.Context.String()
	fd.Expr = failure.Expr
	if !report.IsNoValue(failure.Left) {
		fd.Left = ast.FormatValue(failure.Left)
	}
	if !report.IsNoValue(failure.Right) {
		fd.Right = ast.FormatValue(failure.Right)
	}
	for _, pin := range failure.Pins {
		fd.Pins = append(fd.Pins, PinDoc{Name: pin.Name, Value: ast.FormatValue(pin.Value)})
	}
	if failure.HasArgs {
		for _, a := range failure.Args {
			fd.Args = append(fd.Args, ast.FormatValue(a))
		}
	}
	if failure.Snapshot != nil {
		snap := &SnapshotDoc{
			TotalCount: failure.Snapshot.TotalCount,
			Truncated:  failure.Snapshot.Truncated,
		}
		for _, msg := range failure.Snapshot.Recent {
			snap.Recent = append(snap.Recent, ast.FormatValue(msg))
		}
		fd.Mailbox = snap
	}
	return fd
}

// JSONFormatter accumulates run results and writes one report document.
type JSONFormatter struct {
	writer io.Writer
	doc    *Document
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatHeader(version string) {}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	next := BuildDocument(result)
	if f.doc == nil {
		f.doc = next
		return
	}
	// later runs fold into the first document
	f.doc.Units = append(f.doc.Units, next.Units...)
	f.doc.Summary.Total += next.Summary.Total
	f.doc.Summary.Passed += next.Summary.Passed
	f.doc.Summary.Failed += next.Summary.Failed
	f.doc.Summary.Skipped += next.Summary.Skipped
	f.doc.Duration += next.Duration
}

func (f *JSONFormatter) FormatError(err error) {
	// errors surface through unit failures
}

func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	if f.doc == nil {
		f.doc = &Document{Time: time.Now().Format(time.RFC3339)}
	}
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.doc)
}
