package explorer

import "github.com/nutanix/larmier/internal/runner"

// Exit status bit encoding, carried over from the C implementation's
// larmier.h (EXIT_MASK_TEST/EXIT_MASK_SYSTEM and the EXIT_ERR_* sentinels).
const (
	ExitMaskTest   = 0x100
	ExitMaskSystem = 0x200

	ExitErrAbnormal = 0xFB
	ExitErrFDLeaks  = 0xFC
	ExitErrLarmier  = 0xFD
	ExitErrAnalyzer = 0xFE
)

// sentinelFor maps a non-Normal iteration outcome to its driver-detected
// sentinel byte, unchanged from the original.
func sentinelFor(o runner.Outcome) int {
	switch o {
	case runner.AbnormalTermination:
		return ExitErrAbnormal
	case runner.FdLeakDetected:
		return ExitErrFDLeaks
	case runner.AnalyzerLeakError:
		return ExitErrAnalyzer
	default:
		return ExitErrLarmier
	}
}
