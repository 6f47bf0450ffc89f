package frontend

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/nutanix/larmier/internal/runner"
)

// Console is the operator-facing progress/diagnostic output path (as
// distinct from internal/tracelog's structured trace log): leveled,
// colorized when attached to a real terminal, gated by the repeatable -d
// flag.
type Console struct {
	log   *logrus.Logger
	debug int
}

// NewConsole builds a Console at the given debug level (0..N, unclamped
// past 3 — extra -d beyond what the thresholds below use is simply a
// no-op).
func NewConsole(debug int) *Console {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:    !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()),
		FullTimestamp:    false,
		DisableTimestamp: true,
	})
	switch {
	case debug >= 3:
		log.SetLevel(logrus.TraceLevel)
	case debug == 2:
		log.SetLevel(logrus.DebugLevel)
	case debug == 1:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}
	return &Console{log: log, debug: debug}
}

// Iteration logs a one-line summary of each explorer iteration at debug
// level 1+.
func (c *Console) Iteration(n int, res runner.Result) {
	c.log.WithFields(logrus.Fields{
		"iteration": n,
		"outcome":   res.Outcome.String(),
		"exitCode":  res.ExitCode,
	}).Info("iteration complete")
}

// DumpOutput prints the full captured analyzer/test output at debug level
// >= 2, matching the original's vgbuf_dump (gated at the same threshold).
func (c *Console) DumpOutput(output []byte) {
	if c.debug < 2 {
		return
	}
	c.log.Debug("--- analyzer/test output ---")
	fmt.Fprintln(os.Stderr, string(output))
	c.log.Debug("--- end output ---")
}

// DumpBCA prints the first count schedule bytes at debug level >= 3,
// matching the original's bca_dump.
func (c *Console) DumpBCA(count uint16, schedule []byte) {
	if c.debug < 3 {
		return
	}
	c.log.WithFields(logrus.Fields{"count": count}).Tracef("bca map: %v", schedule[:count])
}

// Status prints the final combined exit status, unconditionally at debug
// level > 0, so a shell script can recover the full 0xNNN value the low
// byte returned to it was masked from.
func (c *Console) Status(status int) {
	if c.debug > 0 {
		c.log.Infof("final status: 0x%03x", status)
	}
}

// Error logs a driver-level error (DriverError outcomes, BCA ownership
// failures) unconditionally.
func (c *Console) Error(err error) {
	c.log.WithError(err).Error("larmier")
}
