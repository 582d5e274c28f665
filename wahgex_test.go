package wahgex_test

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wahgex/wahgex"
)

// compiledModule wraps an instantiated WASM module under test, mirroring
// how a host embedding a compiled pattern would drive prepare_input and
// is_match.
type compiledModule struct {
	mod          api.Module
	memory       api.Memory
	prepareInput api.Function
	isMatch      api.Function
}

func instantiate(t *testing.T, ctx context.Context, r wazero.Runtime, wasmBytes []byte) *compiledModule {
	t.Helper()
	mod, err := r.Instantiate(ctx, wasmBytes)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	t.Cleanup(func() { _ = mod.Close(ctx) })

	return &compiledModule{
		mod:          mod,
		memory:       mod.Memory(),
		prepareInput: mod.ExportedFunction("prepare_input"),
		isMatch:      mod.ExportedFunction("is_match"),
	}
}

func (c *compiledModule) search(t *testing.T, ctx context.Context, haystack []byte, anchored bool) bool {
	t.Helper()
	if _, err := c.prepareInput.Call(ctx, uint64(len(haystack))); err != nil {
		t.Fatalf("prepare_input: %v", err)
	}

	haystackBase := uint32(c.mod.ExportedGlobal("HAYSTACK_BASE").Get())
	if len(haystack) > 0 && !c.memory.Write(haystackBase, haystack) {
		t.Fatalf("failed to write haystack into wasm memory at offset %d", haystackBase)
	}

	a := uint64(0)
	if anchored {
		a = 1
	}
	ret, err := c.isMatch.Call(ctx, a, a, 0, uint64(len(haystack)), uint64(len(haystack)))
	if err != nil {
		t.Fatalf("is_match: %v", err)
	}
	return ret[0] == 1
}

func TestIsMatch_Literal(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := wahgex.Compile("a")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	inst := instantiate(t, ctx, r, mod.WasmBytes)
	if !inst.search(t, ctx, []byte("a"), false) {
		t.Error("expected match on \"a\"")
	}
	if inst.search(t, ctx, []byte("b"), false) {
		t.Error("expected no match on \"b\"")
	}
}

func TestIsMatch_StarAllowsEmpty(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := wahgex.Compile("a*")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !mod.HasEmpty {
		t.Error("expected HasEmpty for a*")
	}

	inst := instantiate(t, ctx, r, mod.WasmBytes)
	if !inst.search(t, ctx, nil, false) {
		t.Error("expected match on empty haystack")
	}
}

func TestIsMatch_Alternation(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := wahgex.Compile("(ab|cd)+")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	inst := instantiate(t, ctx, r, mod.WasmBytes)
	cases := []struct {
		in    string
		match bool
	}{
		{"ab", true},
		{"cdab", true},
		{"abcdcd", true},
		{"ac", false},
		{"", false},
	}
	for _, c := range cases {
		if got := inst.search(t, ctx, []byte(c.in), false); got != c.match {
			t.Errorf("search(%q) = %v, want %v", c.in, got, c.match)
		}
	}
}

func TestIsMatch_WordBoundary(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := wahgex.Compile(`\bword\b`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	inst := instantiate(t, ctx, r, mod.WasmBytes)
	if !inst.search(t, ctx, []byte("a word here"), false) {
		t.Error("expected match on \"a word here\"")
	}
	if inst.search(t, ctx, []byte("swordfish"), false) {
		t.Error("expected no match on \"swordfish\"")
	}
}

func TestIsMatch_Anchored(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := wahgex.Compile("abc")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	inst := instantiate(t, ctx, r, mod.WasmBytes)
	if !inst.search(t, ctx, []byte("xabc"), false) {
		t.Error("unanchored search should find abc anywhere in the span")
	}
	if inst.search(t, ctx, []byte("xabc"), true) {
		t.Error("anchored search should not find abc when it doesn't start at span_start")
	}
}

func TestIsMatch_EndAnchor(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := wahgex.Compile("^abc$")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	inst := instantiate(t, ctx, r, mod.WasmBytes)
	if !inst.search(t, ctx, []byte("abc"), false) {
		t.Error("expected match on \"abc\" for pattern ^abc$")
	}
	if inst.search(t, ctx, []byte("abcd"), false) {
		t.Error("expected no match on \"abcd\" for pattern ^abc$: $ must not match before the last byte")
	}
	if inst.search(t, ctx, []byte("xabc"), false) {
		t.Error("expected no match on \"xabc\" for pattern ^abc$: ^ must not match after position 0")
	}
}

func TestIsMatch_TrailingWordBoundary(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := wahgex.Compile(`foo\b`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	inst := instantiate(t, ctx, r, mod.WasmBytes)
	if !inst.search(t, ctx, []byte("foo"), false) {
		t.Error("expected match on \"foo\": the word boundary at the very end of the haystack must be detected")
	}
	if inst.search(t, ctx, []byte("foobar"), false) {
		t.Error("expected no match on \"foobar\": no word boundary between \"foo\" and \"bar\"")
	}
}

func TestModuleSizeMatchesBytes(t *testing.T) {
	mod, err := wahgex.Compile(`[a-z]+\d{2,4}`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if mod.ModuleSize != len(mod.WasmBytes) {
		t.Errorf("ModuleSize = %d, len(WasmBytes) = %d", mod.ModuleSize, len(mod.WasmBytes))
	}
}

func TestCompileDeterministic(t *testing.T) {
	a, err := wahgex.Compile(`(foo|bar)[0-9]+`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	b, err := wahgex.Compile(`(foo|bar)[0-9]+`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(a.WasmBytes) != len(b.WasmBytes) {
		t.Fatalf("two compiles of the same pattern produced different sizes: %d vs %d", len(a.WasmBytes), len(b.WasmBytes))
	}
	for i := range a.WasmBytes {
		if a.WasmBytes[i] != b.WasmBytes[i] {
			t.Fatalf("two compiles of the same pattern diverged at byte %d", i)
		}
	}
}
