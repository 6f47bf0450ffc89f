// larmier is the driver binary: parse options, resolve the analyzer, drive
// the explorer through every fail/succeed schedule, optionally write a
// Markdown run report, and exit with the combined status byte.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nutanix/larmier/internal/explorer"
	"github.com/nutanix/larmier/internal/frontend"
	"github.com/nutanix/larmier/internal/report"
	"github.com/nutanix/larmier/internal/runner"
	"github.com/nutanix/larmier/internal/tracelog"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	opts, err := frontend.Parse(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, frontend.Usage)
		return explorer.ExitErrLarmier
	}
	// -h exits non-zero so scripted callers cannot mistake the help text
	// for a passing exploration.
	if opts.Help {
		fmt.Fprint(os.Stderr, frontend.Usage)
		return 1
	}

	console := frontend.NewConsole(opts.Debug)

	analyzerPath, err := frontend.ResolveAnalyzer(opts.Analyzer)
	if err != nil {
		console.Error(err)
		return explorer.ExitErrLarmier
	}

	argvFull := frontend.BuildArgv(analyzerPath, opts.StubsLib, opts.TestArgv)

	trace, err := tracelog.FromEnv()
	if err != nil {
		console.Error(err)
		return explorer.ExitErrLarmier
	}
	defer trace.Close()

	var rpt *report.Report
	if opts.ReportDir != "" {
		rpt, err = report.New(opts.ReportDir)
		if err != nil {
			console.Error(err)
			return explorer.ExitErrLarmier
		}
	}

	exp := explorer.New(trace)
	status, err := exp.Run(context.Background(), explorer.Config{
		Argv:                 argvFull,
		StubsLib:             opts.StubsLib,
		StubsDir:             opts.StubsDir,
		AnalyzerLeakExitCode: frontend.AnalyzerLeakExitCode,
		BCASize:              opts.BCASize,
		OnIteration: func(n int, res runner.Result) {
			console.Iteration(n, res)
			console.DumpOutput(res.Output)
			if rpt != nil {
				rpt.Record(n, res)
			}
		},
	})
	if err != nil {
		console.Error(err)
		return explorer.ExitErrLarmier
	}

	console.Status(status)

	if rpt != nil {
		if err := rpt.Write(status); err != nil {
			console.Error(err)
		}
	}

	return status & 0xFF
}
