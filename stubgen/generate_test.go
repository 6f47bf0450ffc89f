package stubgen

import (
	"strings"
	"testing"
)

func TestParseRejectsMissingPackage(t *testing.T) {
	_, err := Parse([]byte("stubs: []\n"))
	if err == nil {
		t.Fatal("Parse succeeded, want error for missing package")
	}
}

func TestParseRejectsVariadicAndAllocatorTogether(t *testing.T) {
	_, err := Parse([]byte(`
package: stubs
stubs:
  - name: Bad
    returnType: int
    real: "0"
    failError: "nil"
    variadic: true
    allocator: true
`))
	if err == nil {
		t.Fatal("Parse succeeded, want error for variadic+allocator stub")
	}
}

func TestGenerateSimpleStub(t *testing.T) {
	m, err := Parse([]byte(`
package: s2stub
imports:
  - os
stubs:
  - name: Tmpfile
    returnType: "*os.File"
    real: "os.CreateTemp(\"\", \"larmier\")"
    realReturnsErr: true
    failError: "os.ErrPermission"
    zeroValue: "nil"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	src, err := Generate(m)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	for _, want := range []string{
		"package s2stub",
		`"github.com/nutanix/larmier/stubrt"`,
		`"os"`,
		"func Tmpfile(rt *stubrt.Runtime) (*os.File, error)",
		"stubrt.Intercept(rt,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated source missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateAllocatorStub(t *testing.T) {
	m, err := Parse([]byte(`
package: s1stub
stubs:
  - name: Calloc
    returnType: "[]byte"
    real: "make([]byte, n)"
    failError: "syscall.ENOMEM"
    allocator: true
    args:
      - name: n
        type: int
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src, err := Generate(m)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	if !strings.Contains(out, "stubrt.Alloc(rt, \"Calloc\", n,") {
		t.Errorf("generated source missing Alloc wiring:\n%s", out)
	}
}

func TestGenerateVariadicStub(t *testing.T) {
	m, err := Parse([]byte(`
package: s2stub
stubs:
  - name: Fprintf
    returnType: int
    real: "fmt.Fprintf(w, format, rest...)"
    realReturnsErr: true
    failError: "io.ErrClosedPipe"
    variadic: true
    args:
      - name: w
        type: "*os.File"
      - name: format
        type: string
      - name: rest
        type: "...any"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src, err := Generate(m)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := string(src)
	if !strings.Contains(out, "stubrt.InterceptVariadic(rt, \"Fprintf\", rest,") {
		t.Errorf("generated source missing InterceptVariadic wiring:\n%s", out)
	}
}
