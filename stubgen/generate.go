package stubgen

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"strings"
	"text/template"
)

//go:embed templates/stub.go.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.New("stub.go.tmpl").Funcs(template.FuncMap{
	"argList":         argList,
	"zero":            zeroValue,
	"variadicArgName": variadicArgName,
	"allocSizeArg":    allocSizeArg,
}).ParseFS(templateFS, "templates/stub.go.tmpl"))

// Generate renders m into a complete Go source file. The result is passed
// through go/format before being returned; a manifest whose Real/FailErr
// expressions are not valid Go fails here with the formatter's error rather
// than producing unbuildable output silently.
func Generate(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "stub.go.tmpl", m); err != nil {
		return nil, fmt.Errorf("stubgen: render: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("stubgen: generated source does not compile: %w\n---\n%s", err, buf.String())
	}
	return formatted, nil
}

// argList renders a stub's full parameter list, including the leading
// *stubrt.Runtime every generated wrapper takes explicitly (stubrt's
// process-wide state is never derived from package init order — see the
// stubrt package doc comment).
func argList(args []Arg) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, "rt *stubrt.Runtime")
	for _, a := range args {
		parts = append(parts, a.Name+" "+a.Type)
	}
	return strings.Join(parts, ", ")
}

func zeroValue(z string) string {
	if z == "" {
		return "nil"
	}
	return z
}

// variadicArgName returns the name of the trailing "...any" parameter,
// which stubgen requires variadic stubs to declare so the collected
// arguments are already a []any and need no per-element conversion before
// being handed to stubrt.InterceptVariadic.
func variadicArgName(args []Arg) string {
	if len(args) == 0 {
		return "nil"
	}
	last := args[len(args)-1]
	return last.Name
}

// allocSizeArg returns the name of the allocator stub's size parameter,
// which stubgen requires to be the last declared argument, typed int.
func allocSizeArg(args []Arg) string {
	if len(args) == 0 {
		return "0"
	}
	return args[len(args)-1].Name
}
