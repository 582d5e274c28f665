package compiler

import (
	"fmt"

	"github.com/wahgex/wahgex/nfa"
)

// CompileResult is the product of compiling one pattern: the encoded WASM
// bytes plus the diagnostic statistics a caller needs without having to
// re-derive them from the bytes.
type CompileResult struct {
	WasmBytes []byte `json:"-"`

	ModuleSize int  `json:"module_size"`
	States     int  `json:"states"`
	PatternLen int  `json:"pattern_len"`
	HasCapture bool `json:"has_capture"`
	HasEmpty   bool `json:"has_empty"`
	IsUTF8     bool `json:"is_utf8"`
	IsReverse  bool `json:"is_reverse"`

	LooksetAny       uint32 `json:"lookset_any"`
	LooksetPrefixAny uint32 `json:"lookset_prefix_any"`

	// WatString is a best-effort textual rendering for diagnostics. It is
	// not guaranteed to round-trip through a WAT parser; see RenderWAT.
	WatString string `json:"wat_string,omitempty"`
}

// Config controls pattern parsing and WAT rendering; it is separate from
// nfa.CompilerConfig, which only concerns NFA construction.
type Config struct {
	NFA       nfa.CompilerConfig
	RenderWAT bool
}

// DefaultConfig returns sensible defaults: UTF-8 mode on, WAT rendering
// off (it costs extra work the caller may not want on every compile).
func DefaultConfig() Config {
	return Config{NFA: nfa.DefaultCompilerConfig()}
}

// UnsupportedFeatureError reports a pattern feature the emitter cannot
// lower, e.g. a request for capture offsets rather than match-only
// semantics.
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported feature: %s", e.Feature)
}

// InternalError indicates an emitter invariant was violated. It should
// never occur in a correct emitter; its presence indicates a bug.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Compile parses pattern, builds its NFA, and lowers it into a WASM module
// that decides membership via its `is_match` export.
func Compile(pattern string) (*CompileResult, error) {
	return CompileWithConfig(pattern, DefaultConfig())
}

// CompileWithConfig is Compile with explicit NFA and rendering options.
func CompileWithConfig(pattern string, cfg Config) (*CompileResult, error) {
	c := nfa.NewCompiler(cfg.NFA)
	n, err := c.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return compileNFA(pattern, n, cfg)
}

func compileNFA(pattern string, n *nfa.NFA, cfg Config) (*CompileResult, error) {
	enc := newEncoding(n)
	ct := newClosureTable(n, enc)

	layout := newMemoryLayout(enc.count)
	mb := newModuleBuilder(layout)

	usedMask := looksetAny(n)
	startClosure := ct.get(n.StartAnchored)
	prefixMask := looksetPrefixAny(startClosure)
	hasEmpty := startClosure.matchUnconditional || len(startClosure.matchConds) > 0

	prepareFB := emitPrepareInput(mb, usedMask)
	if _, err := mb.addFunc(mb.typeI64Void, "prepare_input", prepareFB); err != nil {
		return nil, &InternalError{Err: err}
	}

	isMatchFB := emitIsMatch(mb, n, enc, ct, usedMask)
	if _, err := mb.addFunc(mb.typeIsMatch, "is_match", isMatchFB); err != nil {
		return nil, &InternalError{Err: err}
	}

	wasmBytes := mb.mod.Encode()

	result := &CompileResult{
		WasmBytes:        wasmBytes,
		ModuleSize:       len(wasmBytes),
		States:           n.Len(),
		PatternLen:       len(pattern),
		HasCapture:       n.HasCaps,
		HasEmpty:         hasEmpty,
		IsUTF8:           n.UTF8,
		IsReverse:        n.Reverse,
		LooksetAny:       usedMask,
		LooksetPrefixAny: prefixMask,
	}
	if cfg.RenderWAT {
		result.WatString = RenderWAT(mb.mod, pattern)
	}
	return result, nil
}
