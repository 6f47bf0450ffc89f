package frontend

import (
	"fmt"
	"os/exec"
)

// defaultAnalyzerName is the literal binary name searched for on $PATH when
// -v is not given, unchanged from the original's valgrind_get().
const defaultAnalyzerName = "valgrind"

// AnalyzerLeakExitCode is the fixed --error-exitcode value the analyzer
// argv below always requests, matching EXIT_ERR_VALGRIND (0xFE).
const AnalyzerLeakExitCode = 0xFE

// ResolveAnalyzer finds the analyzer executable: the explicit path if one
// was given, or a $PATH search for "valgrind" otherwise.
func ResolveAnalyzer(explicit string) (string, error) {
	name := explicit
	if name == "" {
		name = defaultAnalyzerName
	}
	path, err := exec.LookPath(name)
	if err != nil {
		if explicit != "" {
			return "", fmt.Errorf("frontend: analyzer %q not found: %w", explicit, err)
		}
		return "", fmt.Errorf("frontend: %q not found on $PATH: %w", defaultAnalyzerName, err)
	}
	return path, nil
}

// BuildArgv constructs the full argv for one iteration: the analyzer, its
// fixed flag set (same flags, same order, as the C driver passes), and the
// test command.
func BuildArgv(analyzerPath, stubsLib string, testArgv []string) []string {
	argv := []string{
		analyzerPath,
		"--track-fds=yes",
		"--leak-check=full",
		"--show-leak-kinds=all",
		fmt.Sprintf("--error-exitcode=%d", AnalyzerLeakExitCode),
		"--suppressions=dlsym.supp",
		"--track-origins=yes",
		"--fair-sched=yes",
	}
	if stubsLib != "" {
		argv = append(argv, fmt.Sprintf("--soname-synonyms=somalloc=%s", stubsLib))
	}
	argv = append(argv, testArgv...)
	return argv
}
