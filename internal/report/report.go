// Package report writes an optional, human-readable Markdown summary of
// one exploration run under the directory named by the driver's -r flag:
// every iteration's outcome, and the captured call stack of each injected
// failure.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/nutanix/larmier/internal/runner"
)

//go:embed templates/report.md.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/report.md.tmpl"))

// entry is one iteration's summary line.
type entry struct {
	Iteration int
	Outcome   string
	ExitCode  int
	Notes     string
}

// backtrace is one injected-failure's captured call stack, recovered from
// the child's captured output via runner.InjectedFailure (itself recovered
// through stubrt's textual side channel — see
// stubrt.ParseInjectedFailureLine).
type backtrace struct {
	Iteration int
	Call      string
	Stack     []string
}

// Report accumulates one run's iteration trace and writes it as Markdown.
type Report struct {
	dir        string
	entries    []entry
	backtraces []backtrace
}

// New creates dir (if needed) and returns a Report that will write into it.
func New(dir string) (*Report, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("report: mkdir %s: %w", dir, err)
	}
	return &Report{dir: dir}, nil
}

// Record appends one iteration's outcome. It never returns an error:
// reporting must not change exploration behavior.
func (r *Report) Record(iteration int, res runner.Result) {
	notes := ""
	if res.Err != nil {
		notes = res.Err.Error()
	}
	r.entries = append(r.entries, entry{
		Iteration: iteration,
		Outcome:   res.Outcome.String(),
		ExitCode:  res.ExitCode,
		Notes:     notes,
	})

	for _, inj := range res.Injected {
		r.backtraces = append(r.backtraces, backtrace{
			Iteration: iteration,
			Call:      inj.Call,
			Stack:     inj.Stack,
		})
	}
}

// Write renders the accumulated trace into <dir>/report.md.
func (r *Report) Write(status int) error {
	var buf bytes.Buffer
	data := struct {
		Status     int
		Entries    []entry
		Backtraces []backtrace
	}{Status: status, Entries: r.entries, Backtraces: r.backtraces}

	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}

	path := filepath.Join(r.dir, "report.md")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
