package stubrt

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// callDepth is the skip count (runtime.Callers semantics, 1-based from
// callerFrame's own call to runtime.Callers) that lands on the frame
// calling Intercept/InterceptVariadic/Alloc itself — the generated wrapper
// stubgen emits, or, with no wrapper in between, whatever called the entry
// point directly. This is the Go realization of "walk the stack two frames
// past the stub" (§4.2): callerFrame, dontStub and the shared intercept
// implementation are each one frame (3 total), and Intercept/
// InterceptVariadic/Alloc are themselves the fourth, so callDepth=5 is the
// fifth frame up — the one frame all three entry points share a uniform
// distance to, regardless of which of them was called. Landing one frame
// short (on Intercept/InterceptVariadic/Alloc's own frame) would always
// resolve to package stubrt's own module and never match a separately
// built test binary's module path.
const callDepth = 5

// intercept is the shared implementation of the six-step interpose
// protocol, called by Intercept, InterceptVariadic and
// Alloc at identical stack depth so callDepth above is correct for all
// three regardless of which one a generated wrapper calls.
func intercept[T any](rt *Runtime, name string, real, fail func() (T, error)) (T, error) {
	if rt.localStubOff.Load() {
		return real()
	}
	if rt.dontStub() {
		return real()
	}

	rt.localStubOff.Store(true)
	defer rt.localStubOff.Store(false)

	b, attached := rt.attachBCA()
	if !attached {
		return real()
	}
	defer b.Detach()

	idx := b.IncrementCount()
	if b.ScheduleBit(idx) == 0 {
		rt.trace.Debug("injecting failure", "call", name, "index", idx)
		val, err := fail()
		if err != nil {
			inj := &InjectedFailure{Call: name, Stack: captureStack(3), Err: err}
			emitInjectedFailure(inj)
			err = inj
		}
		return val, err
	}
	rt.trace.Debug("forwarding to real", "call", name, "index", idx)
	return real()
}

// dontStub implements the C original's dont_stub(): it returns true when
// the call must be forwarded to the real implementation unconditionally,
// either because fault injection is administratively off (LARMIER_STUB) or
// because the immediate caller is not part of the binary under test (the
// caller-origin filter).
func (rt *Runtime) dontStub() bool {
	if !stubEnabled() {
		return true
	}
	if rt.testModulePath == "" {
		// No build info to compare against; fail safe by forwarding.
		return true
	}

	rt.inResolve.Store(true)
	defer rt.inResolve.Store(false)

	frame, ok := callerFrame(callDepth)
	if !ok {
		return true
	}
	owner, ok := rt.resolver.Resolve(frame.PC)
	if !ok {
		return true
	}
	return !ownedByModule(owner, rt.testModulePath)
}

// ownedByModule reports whether importPath is the main module itself or one
// of its packages. The caller-origin filter treats both as "the test
// binary" — the distinction the original draws between the executable and
// shared libraries it links against.
func ownedByModule(importPath, modulePath string) bool {
	if modulePath == "" {
		return false
	}
	return importPath == modulePath || strings.HasPrefix(importPath, modulePath+"/")
}

// InjectedFailure wraps an error manufactured by a stub's fail body,
// carrying the call site so the driver and report package can show the
// reader exactly where a fault was injected.
type InjectedFailure struct {
	Call  string
	Stack []string
	Err   error
}

func (e *InjectedFailure) Error() string {
	return fmt.Sprintf("stubrt: injected failure in %s: %v", e.Call, e.Err)
}

func (e *InjectedFailure) Unwrap() error { return e.Err }

func captureStack(skip int) []string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		stack = append(stack, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return stack
}

// Intercept implements the six-step interpose protocol for a
// call shaped like `func() (T, error)`. name identifies the intercepted
// symbol for tracing and reporting; real and fail are the forwarding and
// fault bodies a generated wrapper supplies.
//
// Intercept must be called directly by the generated wrapper (see
// callDepth) — never from arbitrary caller depth — or the caller-origin
// filter will inspect the wrong frame.
func Intercept[T any](rt *Runtime, name string, real func() (T, error), fail func() (T, error)) (T, error) {
	return intercept(rt, name, real, fail)
}

// InterceptVariadic is Intercept's variadic special case (§4.2): the
// caller's variable arguments are collected into args exactly once by the
// generated wrapper and forwarded unchanged to whichever body runs,
// mirroring the C original's single va_start/va_copy discipline. It calls
// the shared intercept implementation directly, at the same stack depth as
// Intercept itself, rather than through Intercept — see callDepth.
func InterceptVariadic[T any](rt *Runtime, name string, args []any, real func([]any) (T, error), fail func([]any) (T, error)) (T, error) {
	return intercept(rt, name,
		func() (T, error) { return real(args) },
		func() (T, error) { return fail(args) },
	)
}

// AllocFunc is the shape of an allocator-like real/fail body: given a
// requested size, it returns the allocated buffer or an error.
type AllocFunc func(n int) ([]byte, error)

// ErrSynthesizedOutOfMemory is returned by Alloc when it is invoked
// reentrantly from within the caller-origin resolution step, mirroring the
// C original's LSDEF_calloc special case: calloc is used by dlsym's own
// implementation, so a calloc call arriving while resolution is already in
// flight cannot safely recurse and instead synthesizes ENOMEM.
var ErrSynthesizedOutOfMemory = errors.New("stubrt: synthesized allocation failure (reentrant resolution)")

// Alloc is Intercept's allocator special case (§4.2): a reentrancy guard
// short-circuits to a synthesized failure instead of recursing into the
// origin resolver, which in the C original is where the reentrancy hazard
// actually lives (dlsym itself calls calloc). It calls the shared intercept
// implementation directly, at the same stack depth as Intercept itself,
// rather than through Intercept — see callDepth.
func Alloc(rt *Runtime, name string, n int, real, fail AllocFunc) ([]byte, error) {
	if rt.inResolve.Load() {
		return nil, ErrSynthesizedOutOfMemory
	}
	return intercept(rt, name,
		func() ([]byte, error) { return real(n) },
		func() ([]byte, error) { return fail(n) },
	)
}
