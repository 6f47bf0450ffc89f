package stubrt

import (
	"runtime"
	"runtime/debug"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

// originCacheSize bounds the resolved-owner cache. Real test binaries call
// through a small, fixed set of call sites, so this never fills.
const originCacheSize = 256

// OriginResolver maps a return-address PC to the import path of the module
// that owns the function at that address. It stands in for the C original's
// dladdr(3)-based "which shared object owns this address" lookup.
type OriginResolver interface {
	Resolve(pc uintptr) (importPath string, ok bool)
}

type moduleResolver struct {
	cache *lru.Cache
}

func newModuleResolver() *moduleResolver {
	c, err := lru.New(originCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which originCacheSize
		// never is.
		panic("stubrt: lru.New: " + err.Error())
	}
	return &moduleResolver{cache: c}
}

func (r *moduleResolver) Resolve(pc uintptr) (string, bool) {
	if v, ok := r.cache.Get(pc); ok {
		return v.(string), true
	}

	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.Function == "" {
		return "", false
	}

	path := importPathFromFuncName(frame.Function)
	r.cache.Add(pc, path)
	return path, true
}

// importPathFromFuncName recovers the import path prefix of a fully
// qualified Go function name, e.g. "github.com/nutanix/larmier/examples/s1.
// main" -> "github.com/nutanix/larmier/examples/s1", or "fmt.Println" ->
// "fmt". Method and closure names ("pkg.(*T).Method", "pkg.Func.func1") are
// handled the same way: the package path ends at the first "." following the
// last "/".
func importPathFromFuncName(name string) string {
	slash := strings.LastIndex(name, "/")
	rest := name
	if slash >= 0 {
		rest = name[slash+1:]
	}
	dot := strings.Index(rest, ".")
	if dot < 0 {
		return name
	}
	if slash >= 0 {
		return name[:slash+1+dot]
	}
	return rest[:dot]
}

// resolveMainModulePath returns the module path of the binary's own main
// module, used as the "this is the test executable" comparison baseline
// that the C original gets from resolving its own /proc/self/exe path.
func resolveMainModulePath() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return bi.Main.Path
}

// callerFrame returns the frame at depth `skip` as runtime.Callers counts it
// from inside callerFrame (1 is callerFrame's own frame, 2 its caller).
// Intercept, InterceptVariadic and Alloc all call dontStub at the same
// depth, so a single fixed skip is correct for all three — see callDepth's
// doc comment.
func callerFrame(skip int) (runtime.Frame, bool) {
	pcs := make([]uintptr, 1)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return runtime.Frame{}, false
	}
	frames := runtime.CallersFrames(pcs[:n])
	frame, _ := frames.Next()
	return frame, true
}
