package runner

import (
	"context"
	"testing"

	"github.com/nutanix/larmier/internal/tracelog"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	trace, err := tracelog.FromEnv()
	if err != nil {
		t.Fatalf("tracelog.FromEnv: %v", err)
	}
	return New(trace)
}

func TestRunClassifiesNormalExit(t *testing.T) {
	r := newTestRunner(t)
	res := r.Run(context.Background(), RunConfig{
		Argv:                 []string{"/bin/sh", "-c", "echo hello; exit 0"},
		BCAName:              "unused",
		AnalyzerLeakExitCode: 254,
	})
	if res.Outcome != Normal {
		t.Fatalf("got outcome %v, want Normal (err=%v)", res.Outcome, res.Err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("got exit code %d, want 0", res.ExitCode)
	}
}

func TestRunClassifiesNonZeroExit(t *testing.T) {
	r := newTestRunner(t)
	res := r.Run(context.Background(), RunConfig{
		Argv:                 []string{"/bin/sh", "-c", "exit 7"},
		AnalyzerLeakExitCode: 254,
	})
	if res.Outcome != Normal || res.ExitCode != 7 {
		t.Fatalf("got %v/%d, want Normal/7 (err=%v)", res.Outcome, res.ExitCode, res.Err)
	}
}

func TestRunClassifiesAnalyzerLeakExitCode(t *testing.T) {
	r := newTestRunner(t)
	res := r.Run(context.Background(), RunConfig{
		Argv:                 []string{"/bin/sh", "-c", "exit 254"},
		AnalyzerLeakExitCode: 254,
	})
	if res.Outcome != AnalyzerLeakError {
		t.Fatalf("got outcome %v, want AnalyzerLeakError", res.Outcome)
	}
}

func TestRunClassifiesFdLeakOverNormalExit(t *testing.T) {
	r := newTestRunner(t)
	res := r.Run(context.Background(), RunConfig{
		Argv:                 []string{"/bin/sh", "-c", "echo '==123== Open file descriptor 5: something'; exit 0"},
		AnalyzerLeakExitCode: 254,
	})
	if res.Outcome != FdLeakDetected {
		t.Fatalf("got outcome %v, want FdLeakDetected", res.Outcome)
	}
}

func TestRunClassifiesAbnormalTermination(t *testing.T) {
	r := newTestRunner(t)
	res := r.Run(context.Background(), RunConfig{
		Argv: []string{"/bin/sh", "-c", "kill -KILL $$"},
	})
	if res.Outcome != AbnormalTermination {
		t.Fatalf("got outcome %v, want AbnormalTermination (err=%v)", res.Outcome, res.Err)
	}
}

func TestRunReturnsDriverErrorForMissingBinary(t *testing.T) {
	r := newTestRunner(t)
	res := r.Run(context.Background(), RunConfig{
		Argv: []string{"/no/such/binary/larmier-test"},
	})
	if res.Outcome != DriverError {
		t.Fatalf("got outcome %v, want DriverError", res.Outcome)
	}
}

func TestRunExportsBCANameAndSizeToChild(t *testing.T) {
	r := newTestRunner(t)
	res := r.Run(context.Background(), RunConfig{
		Argv:                 []string{"/bin/sh", "-c", "echo \"$LARMIER_BCA $LARMIER_BCA_SIZE\""},
		BCAName:              "larmier_1234",
		BCASize:              8192,
		AnalyzerLeakExitCode: 254,
	})
	if res.Outcome != Normal {
		t.Fatalf("got outcome %v, want Normal (err=%v)", res.Outcome, res.Err)
	}
	want := "larmier_1234 8192\n"
	if string(res.Output) != want {
		t.Fatalf("child saw env %q, want %q", res.Output, want)
	}
}

func TestRunOmitsBCASizeWhenUnset(t *testing.T) {
	r := newTestRunner(t)
	res := r.Run(context.Background(), RunConfig{
		Argv:                 []string{"/bin/sh", "-c", "echo \"[$LARMIER_BCA_SIZE]\""},
		AnalyzerLeakExitCode: 254,
	})
	if res.Outcome != Normal {
		t.Fatalf("got outcome %v, want Normal (err=%v)", res.Outcome, res.Err)
	}
	if string(res.Output) != "[]\n" {
		t.Fatalf("child saw LARMIER_BCA_SIZE=%q, want unset", res.Output)
	}
}

func TestHasFDLeak(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"no marker", "all good here\n", false},
		{"real leak", "==1== Open file descriptor 3: /tmp/foo\n", true},
		{"ctest false positive", "==1== Open file descriptor 4: Testing/Temporary/LastTest.log.tmp\n", false},
		{"false positive then real leak", "==1== Open file descriptor 4: Testing/Temporary/LastTest.log.tmp\n==1== Open file descriptor 5: /tmp/bar\n", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := HasFDLeak([]byte(c.in)); got != c.want {
				t.Errorf("HasFDLeak(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}
