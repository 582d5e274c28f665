// Package wahgex compiles regular expressions into standalone WebAssembly
// modules.
//
// Each compiled pattern becomes a self-contained core WASM 1.0 module
// exporting a single linear memory ("haystack") and two functions:
// prepare_input, which sizes the memory for a given haystack length, and
// is_match, which decides membership over a byte span. The module carries
// no host imports; once compiled, it runs in any WASM runtime without this
// package present.
//
// Basic usage:
//
//	mod, err := wahgex.Compile(`\d+-\d+`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	wasmBytes := mod.WasmBytes
//
// The module is a matcher, not a search engine: it reports whether the
// pattern matches within [start, end) of a haystack already written into
// its memory, it does not locate or extract submatches.
package wahgex

import (
	"github.com/wahgex/wahgex/compiler"
)

// Module is a compiled pattern: the encoded WASM bytes plus the
// diagnostics a caller needs without re-deriving them from the bytes.
type Module = compiler.CompileResult

// Config controls pattern parsing and module emission.
type Config = compiler.Config

// DefaultConfig returns the default configuration: UTF-8 mode on, no
// capture-offset tracking, WAT rendering off.
func DefaultConfig() Config {
	return compiler.DefaultConfig()
}

// Compile parses pattern and lowers it into a WASM module deciding
// membership via the module's is_match export.
//
// Syntax is Perl-compatible (the same dialect accepted by Go's stdlib
// regexp). Returns an error if the pattern is invalid or uses a feature
// this package cannot lower to WASM.
//
// Example:
//
//	mod, err := wahgex.Compile(`\d{3}-\d{4}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(pattern string) (*Module, error) {
	return compiler.Compile(pattern)
}

// MustCompile compiles pattern and panics if it fails. Useful for patterns
// known to be valid at compile time.
func MustCompile(pattern string) *Module {
	mod, err := Compile(pattern)
	if err != nil {
		panic("wahgex: Compile(`" + pattern + "`): " + err.Error())
	}
	return mod
}

// CompileWithConfig compiles pattern with explicit NFA construction and
// rendering options.
func CompileWithConfig(pattern string, cfg Config) (*Module, error) {
	return compiler.CompileWithConfig(pattern, cfg)
}
