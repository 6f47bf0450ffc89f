package stubrt

import (
	"fmt"
	"os"
	"strings"
)

// injectedFailureMarker prefixes every injected-failure line stubrt writes
// to the child's stderr. The BCA carries only the fail/succeed schedule, not
// error detail, so this textual line is the side channel that carries an
// InjectedFailure's call site and backtrace out of the child process and
// into the driver's own captured-output buffer (internal/runner already
// drains the child's combined stdout/stderr for every iteration).
const injectedFailureMarker = "LARMIER_INJECTED_FAILURE"

// fieldSep/frameSep keep the line single-line-parseable without escaping:
// neither byte occurs in ordinary text, matching the ASCII Unit/Record
// Separator characters' intended use.
const (
	fieldSep = "\x1f"
	frameSep = "\x1e"
)

// FormatInjectedFailureLine renders e as one marker line, the exact text
// emitInjectedFailure writes and ParseInjectedFailureLine reads back. It is
// exported so callers on either side of the process boundary (and their
// tests) share one encoding rather than duplicating the delimiter scheme.
func FormatInjectedFailureLine(e *InjectedFailure) string {
	return fmt.Sprintf("%s%s%s%s%s%s%s",
		injectedFailureMarker, fieldSep,
		e.Call, fieldSep,
		e.Err.Error(), fieldSep,
		strings.Join(e.Stack, frameSep))
}

// emitInjectedFailure writes e as one marker line on os.Stderr. Called only
// from the child process (by intercept, at the moment it decides to fail),
// never by the driver.
func emitInjectedFailure(e *InjectedFailure) {
	fmt.Fprintln(os.Stderr, FormatInjectedFailureLine(e))
}

// ParseInjectedFailureLine recovers one InjectedFailure's fields from a
// single line of a child's captured output, or reports ok=false if line is
// not one stubrt emitted. errMsg is a plain rendering of the original
// error's Error() text — the original error value's type does not survive
// the process boundary, only its message and call site do.
func ParseInjectedFailureLine(line string) (call, errMsg string, stack []string, ok bool) {
	fields := strings.Split(line, fieldSep)
	if len(fields) != 4 || fields[0] != injectedFailureMarker {
		return "", "", nil, false
	}
	call, errMsg = fields[1], fields[2]
	if fields[3] != "" {
		stack = strings.Split(fields[3], frameSep)
	}
	return call, errMsg, stack, true
}
