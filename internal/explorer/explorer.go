// Package explorer owns the Branch Control Array across a full invocation
// and drives the runner through every prefix of the fail/succeed decision
// tree, exactly as the C implementation's larmier_loop/larmier() do.
package explorer

import (
	"context"
	"fmt"
	"os"

	"github.com/nutanix/larmier/bca"
	"github.com/nutanix/larmier/internal/runner"
	"github.com/nutanix/larmier/internal/tracelog"
)

// Config is everything one exploration run needs.
type Config struct {
	// Argv is the full analyzer+test argv, built by internal/frontend.
	Argv []string
	// StubsLib/StubsDir are forwarded to each iteration's child
	// environment; see runner.RunConfig.
	StubsLib string
	StubsDir string
	// AnalyzerLeakExitCode is the analyzer's own leak-detected sentinel
	// exit code (0xFE by default for Valgrind).
	AnalyzerLeakExitCode int
	// BCASize is the shared-memory region size in bytes (default
	// bca.DefaultSize).
	BCASize int
	// OnIteration, if non-nil, is called after every iteration — used by
	// internal/report to record a run trace. Errors from it are ignored;
	// reporting must never change exploration behavior.
	OnIteration func(iteration int, res runner.Result)
}

// Explorer runs one Config to completion.
type Explorer struct {
	runner *runner.Runner
	trace  *tracelog.Logger
}

func New(trace *tracelog.Logger) *Explorer {
	return &Explorer{runner: runner.New(trace), trace: trace}
}

// Run explores every schedule prefix, returning the combined exit status
// (ExitMaskTest|exitCode on a fully explored tree, ExitMaskSystem|sentinel
// on the first non-Normal iteration). err is non-nil only when creating the
// BCA fails; a failed detach at the end is logged to the trace log, not
// returned. Iteration-level driver errors are folded into the returned
// status, matching the original's single `err` accumulator.
func (e *Explorer) Run(ctx context.Context, cfg Config) (int, error) {
	size := cfg.BCASize
	if size <= 0 {
		size = bca.DefaultSize
	}

	name := fmt.Sprintf("larmier_%d", os.Getpid())
	region, err := bca.Create(name, size)
	if err != nil {
		return 0, fmt.Errorf("explorer: create bca: %w", err)
	}
	defer func() {
		if derr := region.Detach(); derr != nil {
			e.trace.Warn("bca detach failed", "error", derr)
		}
	}()

	runCfg := runner.RunConfig{
		Argv:                 cfg.Argv,
		BCAName:              name,
		BCASize:              size,
		StubsLib:             cfg.StubsLib,
		StubsDir:             cfg.StubsDir,
		AnalyzerLeakExitCode: cfg.AnalyzerLeakExitCode,
	}

	for iteration := 0; ; iteration++ {
		res := e.runner.Run(ctx, runCfg)
		if cfg.OnIteration != nil {
			cfg.OnIteration(iteration, res)
		}

		if res.Outcome != runner.Normal {
			e.trace.Debug("exploration stopped", "iteration", iteration, "outcome", res.Outcome.String())
			return ExitMaskSystem | sentinelFor(res.Outcome), nil
		}

		k := region.Count()
		if advanced := advanceSchedule(region, k); !advanced {
			e.trace.Debug("exploration exhausted", "iteration", iteration, "exitCode", res.ExitCode)
			return ExitMaskTest | (res.ExitCode & 0xFF), nil
		}
		e.trace.Debug("schedule advanced", "iteration", iteration, "count", k)
	}
}

// advanceSchedule scans map[k-1..0] for the first 0, flips it to 1, zeroes
// the suffix from there on, and resets count — the exact algorithm
// larmier_loop uses. It reports false when map[0:k] is all 1s (the all-succeed
// leaf), meaning exploration is exhausted.
func advanceSchedule(region *bca.BCA, k uint16) bool {
	m := region.Map()
	for i := int(k) - 1; i >= 0; i-- {
		if m[i] == 0 {
			m[i] = 1
			region.Reset(i + 1)
			return true
		}
	}
	return false
}
