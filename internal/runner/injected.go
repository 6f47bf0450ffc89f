package runner

import (
	"bytes"

	"github.com/nutanix/larmier/stubrt"
)

// InjectedFailure is one fault stubrt injected during an iteration,
// recovered from the child's captured output through stubrt's textual side
// channel (stubrt.ParseInjectedFailureLine). The BCA itself never carries
// this — it is only the fail/succeed schedule — so this line-based channel
// is what carries a backtrace from the child process into the driver's
// failure report.
type InjectedFailure struct {
	Call  string
	Stack []string
	Err   string
}

// parseInjectedFailures scans an iteration's captured output for every line
// stubrt emitted while injecting a failure.
func parseInjectedFailures(output []byte) []InjectedFailure {
	var found []InjectedFailure
	for _, line := range bytes.Split(output, []byte("\n")) {
		call, errMsg, stack, ok := stubrt.ParseInjectedFailureLine(string(line))
		if !ok {
			continue
		}
		found = append(found, InjectedFailure{Call: call, Stack: stack, Err: errMsg})
	}
	return found
}
