// Package stubgen is the code-generation facility: given a declarative
// YAML manifest describing a standard-library-shaped call to make
// fault-injectable, it emits Go source wiring stubrt.Intercept (or its
// variadic/allocator special cases) around a caller-supplied real/fail
// pair.
package stubgen

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// Manifest is one generated file's worth of stub declarations.
type Manifest struct {
	// Package is the generated file's package clause.
	Package string `yaml:"package"`
	// Imports lists additional import paths the Real/FailErr expressions
	// below reference (stubrt is added automatically).
	Imports []string    `yaml:"imports"`
	Stubs   []StubDecl  `yaml:"stubs"`
}

// Arg is one parameter of a stubbed function.
type Arg struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// StubDecl declares one fault-injectable call. It mirrors the shape of the
// original's LSDEF/LSDEFlib/LSDEFv/LSDEF_calloc macro family: a name, a
// return type, the forwarding expression to the real implementation, and
// the error produced on injected failure.
type StubDecl struct {
	// Name is the generated wrapper function's name, e.g. "Calloc".
	Name string `yaml:"name"`
	// ReturnType is the Go type of the non-error return value, e.g.
	// "[]byte" or "*os.File".
	ReturnType string `yaml:"returnType"`
	// Args are the wrapper's parameters, forwarded verbatim to Real.
	Args []Arg `yaml:"args"`
	// Real is a Go expression calling the genuine implementation, e.g.
	// "os.Open(path)" for a two-return-value call, or a single expression
	// assignable to ReturnType.
	Real string `yaml:"real"`
	// RealReturnsErr is true when Real itself already returns
	// (ReturnType, error) and can be forwarded as-is; false means Real
	// produces only a value and FailErr supplies the error half on the
	// success path (nil).
	RealReturnsErr bool `yaml:"realReturnsErr"`
	// FailErr is a Go expression for the error returned when this call is
	// scheduled to fail, e.g. "syscall.ENOMEM" or
	// `fmt.Errorf("stub: tmpfile failed")`.
	FailErr string `yaml:"failError"`
	// ZeroValue is the literal to return as the value half of a failed
	// call, e.g. "nil" or "0". Defaults to "nil" when empty.
	ZeroValue string `yaml:"zeroValue"`
	// Variadic marks this as the variadic special case (stubrt.
	// InterceptVariadic): Args must end in one entry whose Type starts
	// with "...".
	Variadic bool `yaml:"variadic"`
	// Allocator marks this as the allocator-shaped special case
	// (stubrt.Alloc), e.g. for a calloc-like call.
	Allocator bool `yaml:"allocator"`
}

// Parse decodes a YAML manifest and validates it well enough to generate
// from (full Go-expression validation is out of scope; a malformed Real/
// FailErr expression simply fails to compile in the generated file, same as
// a malformed C macro argument in the original).
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("stubgen: parse manifest: %w", err)
	}
	if m.Package == "" {
		return nil, fmt.Errorf("stubgen: manifest is missing package")
	}
	for i, s := range m.Stubs {
		if s.Name == "" {
			return nil, fmt.Errorf("stubgen: stub %d is missing name", i)
		}
		if s.Real == "" {
			return nil, fmt.Errorf("stubgen: stub %q is missing real", s.Name)
		}
		if s.FailErr == "" {
			return nil, fmt.Errorf("stubgen: stub %q is missing failError", s.Name)
		}
		if s.Variadic && s.Allocator {
			return nil, fmt.Errorf("stubgen: stub %q cannot be both variadic and allocator-shaped", s.Name)
		}
	}
	return &m, nil
}
