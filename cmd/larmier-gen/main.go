// larmier-gen renders a stub manifest into a Go source file implementing
// the fault-injectable wrappers it declares.
// Run: go run ./cmd/larmier-gen -manifest <path> -out <path>
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nutanix/larmier/stubgen"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to a stub manifest (YAML)")
	outPath := flag.String("out", "", "output path for the generated Go source file")
	flag.Parse()

	if *manifestPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: larmier-gen -manifest <path> -out <path>")
		os.Exit(1)
	}

	if err := run(*manifestPath, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "larmier-gen: %v\n", err)
		os.Exit(1)
	}
}

func run(manifestPath, outPath string) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	m, err := stubgen.Parse(data)
	if err != nil {
		return err
	}

	src, err := stubgen.Generate(m)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(outPath, src, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Printf("wrote %s (%d stubs)\n", outPath, len(m.Stubs))
	return nil
}
