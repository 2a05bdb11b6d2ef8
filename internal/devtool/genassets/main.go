// Command genassets minifies internal/inject/assets/head_inject.js with
// esbuild and writes the result as a Go string constant to
// internal/inject/generated_assets.go. It is a build-time tool, not part of
// the proxy engine's runtime: esbuild is never imported by anything the
// running proxy executes.
//
// Run from the module root: go run ./internal/devtool/genassets
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/evanw/esbuild/pkg/api"
)

const (
	srcPath = "internal/inject/assets/head_inject.js"
	outPath = "internal/inject/generated_assets.go"
	outVar  = "fullscreenPolyfillScript"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "genassets:", err)
		os.Exit(1)
	}
}

func run() error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcPath, err)
	}

	result := api.Transform(string(src), api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Target:            api.ES2019,
	})
	if len(result.Errors) > 0 {
		return fmt.Errorf("esbuild: %v", result.Errors)
	}

	out := fmt.Sprintf(`// Code generated by internal/devtool/genassets from
// %s. DO NOT EDIT.

package inject

// %s is head_inject.js, minified.
const %s = %s
`, filepath.ToSlash(srcPath), outVar, outVar, strconv.Quote(string(result.Code)))

	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}
