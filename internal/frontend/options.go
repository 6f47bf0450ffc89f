// Package frontend is the CLI glue: option parsing, analyzer resolution,
// fixed analyzer argv construction, and debug-level-gated console output.
package frontend

import (
	"flag"
	"fmt"
	"path/filepath"
)

// Options holds everything parsed from argv.
type Options struct {
	Help      bool
	Debug     int
	Analyzer  string // -v: explicit analyzer path, empty means "search $PATH"
	StubsLib  string // -l: stubs shared library path
	StubsDir  string // containing directory of StubsLib, exported as LD_LIBRARY_PATH
	ReportDir string // -r: optional run-summary output directory (addition)
	BCASize   int    // -bca-size: BCA region size in bytes (addition)

	// TestArgv is the test binary and its own arguments, taken verbatim
	// from the remaining non-flag command line.
	TestArgv []string
}

const defaultBCASize = 4096

// countFlag implements flag.Value as a repeatable boolean: each occurrence
// of the flag increments the count by one, matching getopt's unclamped
// "-d -d -d" -> debug=3 behavior in the original.
type countFlag int

func (c *countFlag) String() string   { return fmt.Sprintf("%d", int(*c)) }
func (c *countFlag) Set(string) error { *c++; return nil }
func (c *countFlag) IsBoolFlag() bool { return true }

// Usage is the help text printed for -h.
const Usage = `larmier [-h] [-d [-d ...]] [-v <analyzer-path>] [-l <stubs-lib>] [-r <dir>] [-bca-size <bytes>] <test-cmd> [args...]

  -h               show this help
  -d               increase debug verbosity by one per -d (repeat as
                   -d -d -d; a bundled form such as -dd is not accepted)
  -v <path>        analyzer executable (default: search $PATH for "valgrind")
  -l <path>        stub shared library path, exported to the child as
                   LD_PRELOAD (for a non-Go or cgo-built stub library)
  -r <dir>         write a Markdown run summary under <dir>
  -bca-size <n>    Branch Control Array size in bytes (default 4096)
`

// Parse parses argv (excluding the program name, i.e. os.Args[1:]).
func Parse(argv []string) (*Options, error) {
	fs := flag.NewFlagSet("larmier", flag.ContinueOnError)
	fs.Usage = func() {}

	opts := &Options{}
	var debug countFlag
	fs.Var(&debug, "d", "increase debug verbosity (repeatable)")
	fs.BoolVar(&opts.Help, "h", false, "show help")
	fs.StringVar(&opts.Analyzer, "v", "", "analyzer executable path")
	fs.StringVar(&opts.StubsLib, "l", "", "stub shared library path")
	fs.StringVar(&opts.ReportDir, "r", "", "run-summary output directory")
	fs.IntVar(&opts.BCASize, "bca-size", defaultBCASize, "BCA region size in bytes")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	opts.Debug = int(debug)

	if opts.Help {
		return opts, nil
	}

	opts.TestArgv = fs.Args()
	if len(opts.TestArgv) == 0 {
		return nil, fmt.Errorf("frontend: missing <test-cmd>")
	}
	if opts.BCASize <= 2 {
		return nil, fmt.Errorf("frontend: -bca-size must exceed 2, got %d", opts.BCASize)
	}
	if opts.StubsLib != "" {
		opts.StubsDir = filepath.Dir(opts.StubsLib)
	}
	return opts, nil
}
