// Package stubrt is the stub runtime: the small library linked into a test
// binary (or any binary that wants fault-injectable standard-library-shaped
// calls) implementing the interpose protocol.
//
// Unlike the C original (nutanix/larmier), which interposes libc symbols
// via LD_PRELOAD + dlsym(RTLD_NEXT, ...), Go binaries are statically linked
// and have no equivalent dynamic-interposition point. stubrt realizes the
// same protocol through Go's own call-interception idiom instead: code
// generated by stubgen calls Intercept/InterceptVariadic/Alloc in place of
// the function it is replacing. The real body a generated wrapper passes to
// Intercept takes the place of the function dlsym would have looked up.
//
// A Runtime is process-wide state, built once (FromEnv) and held explicitly
// by the test's entry point — never derived from package init() order.
// Runtime is not safe for concurrent use from multiple goroutines; this
// mirrors the single-threaded-test-process assumption the whole design
// rests on and is intentional, not an oversight.
package stubrt

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/nutanix/larmier/bca"
	"github.com/nutanix/larmier/internal/tracelog"
)

// Environment variables consumed by the stub runtime (set by the driver).
const (
	EnvBCAName    = "LARMIER_BCA"
	EnvBCASize    = "LARMIER_BCA_SIZE"
	EnvStubEnable = "LARMIER_STUB"
)

// Runtime holds the process-wide state a generated stub consults on every
// call: the BCA's name/size, the local "stubbing off" reentrancy flag, the
// allocator-special-case reentrancy guard, the cached owning-module
// resolver, and the trace logger.
type Runtime struct {
	bcaName        string
	bcaSize        int
	testModulePath string
	resolver       OriginResolver
	trace          *tracelog.Logger

	localStubOff atomic.Bool // guards the "resolve real F" / BCA-consult span
	inResolve    atomic.Bool // guards the allocator special case (4.2)
}

// FromEnv builds a Runtime from the environment variables the driver sets
// on the child process (LARMIER_BCA, LARMIER_BCA_SIZE) plus process build
// info (the test binary's own module path, standing in for the resolved
// executable path the C original compares against).
func FromEnv() (*Runtime, error) {
	trace, err := tracelog.FromEnv()
	if err != nil {
		return nil, err
	}

	size := bca.DefaultSize
	if s := os.Getenv(EnvBCASize); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("stubrt: invalid %s=%q: %w", EnvBCASize, s, err)
		}
		size = n
	}

	return &Runtime{
		bcaName:        os.Getenv(EnvBCAName),
		bcaSize:        size,
		testModulePath: mainModulePath(),
		resolver:       newModuleResolver(),
		trace:          trace,
	}, nil
}

// Close releases the trace log. Call once, from the test's entry point,
// after all intercepted calls have completed.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	rt.trace.Close()
}

// Stub flips LARMIER_STUB, enabling or disabling fault injection for
// subsequently-intercepted calls made by this process. It is the Go
// realization of the original's larmier_stub(bool) helper (larmier.h).
// Typical use wraps a narrow window of code under test:
//
//	stubrt.Stub(true)
//	defer stubrt.Stub(false)
//	... calls that should be fault-injectable ...
func Stub(on bool) {
	if on {
		_ = os.Setenv(EnvStubEnable, "1")
	} else {
		_ = os.Setenv(EnvStubEnable, "0")
	}
}

func stubEnabled() bool {
	return os.Getenv(EnvStubEnable) == "1"
}

// attachBCA attaches to the shared-memory region named by LARMIER_BCA. A
// false ok means "no fault injection requested" — callers
// must forward unconditionally.
func (rt *Runtime) attachBCA() (*bca.BCA, bool) {
	if rt.bcaName == "" {
		return nil, false
	}
	return bca.Attach(rt.bcaName, rt.bcaSize)
}

func mainModulePath() string {
	// Resolved once, at FromEnv, via debug.ReadBuildInfo in origin.go to keep this file
	// free of the reflection-adjacent build-info plumbing.
	return resolveMainModulePath()
}
