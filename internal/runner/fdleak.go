package runner

import "bytes"

// fdLeakMarker is the Valgrind --track-fds=yes text for an unclosed
// descriptor, unchanged from the original's has_fd_leaks.
const fdLeakMarker = " Open file descriptor "

// ctestFalseLeak is a line fragment that, alongside fdLeakMarker on the same
// line, marks a known ctest false positive (a temp log file ctest itself
// leaves open) rather than a real leak in the test under analysis.
const ctestFalseLeak = "Testing/Temporary/LastTest.log.tmp"

// HasFDLeak reports whether output contains a real (non-ctest-false-positive)
// file-descriptor leak line. The original recurses once per match found in
// the remaining buffer; this walks line by line for the same result.
func HasFDLeak(output []byte) bool {
	for _, line := range bytes.Split(output, []byte("\n")) {
		if !bytes.Contains(line, []byte(fdLeakMarker)) {
			continue
		}
		if bytes.Contains(line, []byte(ctestFalseLeak)) {
			continue
		}
		return true
	}
	return false
}
