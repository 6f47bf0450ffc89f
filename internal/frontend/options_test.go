package frontend

import "testing"

func TestParseBasic(t *testing.T) {
	opts, err := Parse([]string{"-d", "-d", "-v", "/usr/bin/valgrind", "mytest", "--flag"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if opts.Debug != 2 {
		t.Fatalf("Debug = %d, want 2", opts.Debug)
	}
	if opts.Analyzer != "/usr/bin/valgrind" {
		t.Fatalf("Analyzer = %q, want /usr/bin/valgrind", opts.Analyzer)
	}
	if len(opts.TestArgv) != 2 || opts.TestArgv[0] != "mytest" || opts.TestArgv[1] != "--flag" {
		t.Fatalf("TestArgv = %v, want [mytest --flag]", opts.TestArgv)
	}
	if opts.BCASize != defaultBCASize {
		t.Fatalf("BCASize = %d, want default %d", opts.BCASize, defaultBCASize)
	}
}

func TestParseRequiresTestCommand(t *testing.T) {
	if _, err := Parse([]string{"-d"}); err == nil {
		t.Fatal("Parse succeeded with no test command, want error")
	}
}

func TestParseHelpSkipsTestCommandRequirement(t *testing.T) {
	opts, err := Parse([]string{"-h"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !opts.Help {
		t.Fatal("Help = false, want true")
	}
}

func TestParseDerivesStubsDirFromStubsLib(t *testing.T) {
	opts, err := Parse([]string{"-l", "/opt/stubs/libstubs.so", "mytest"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if opts.StubsDir != "/opt/stubs" {
		t.Fatalf("StubsDir = %q, want /opt/stubs", opts.StubsDir)
	}
}

func TestParseLeavesStubsDirEmptyWithoutStubsLib(t *testing.T) {
	opts, err := Parse([]string{"mytest"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if opts.StubsDir != "" {
		t.Fatalf("StubsDir = %q, want empty", opts.StubsDir)
	}
}

func TestParseRejectsUndersizedBCA(t *testing.T) {
	if _, err := Parse([]string{"-bca-size", "2", "mytest"}); err == nil {
		t.Fatal("Parse succeeded with -bca-size 2, want error")
	}
}

func TestBuildArgvOrderAndStubsLib(t *testing.T) {
	argv := BuildArgv("/usr/bin/valgrind", "/opt/stubs.so", []string{"mytest", "-x"})
	want := []string{
		"/usr/bin/valgrind",
		"--track-fds=yes",
		"--leak-check=full",
		"--show-leak-kinds=all",
		"--error-exitcode=254",
		"--suppressions=dlsym.supp",
		"--track-origins=yes",
		"--fair-sched=yes",
		"--soname-synonyms=somalloc=/opt/stubs.so",
		"mytest",
		"-x",
	}
	if len(argv) != len(want) {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestBuildArgvOmitsSonameSynonymsWithoutStubsLib(t *testing.T) {
	argv := BuildArgv("/usr/bin/valgrind", "", []string{"mytest"})
	for _, a := range argv {
		if a == "mytest" {
			break
		}
		if len(a) >= 18 && a[:18] == "--soname-synonyms=" {
			t.Fatalf("argv unexpectedly contains --soname-synonyms: %v", argv)
		}
	}
}

func TestResolveAnalyzerMissingExplicitPath(t *testing.T) {
	if _, err := ResolveAnalyzer("/no/such/analyzer-binary"); err == nil {
		t.Fatal("ResolveAnalyzer succeeded for a nonexistent path, want error")
	}
}
