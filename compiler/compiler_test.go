package compiler

import (
	"regexp"
	"testing"

	"github.com/wahgex/wahgex/nfa"
)

func stdlibMustCompile(t *testing.T, pattern string) *regexp.Regexp {
	t.Helper()
	re, err := regexp.Compile(pattern)
	if err != nil {
		t.Fatalf("stdlib regexp.Compile(%q): %v", pattern, err)
	}
	return re
}

func TestCompile_Literal(t *testing.T) {
	result, err := Compile("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ModuleSize != len(result.WasmBytes) {
		t.Errorf("ModuleSize = %d, len(WasmBytes) = %d", result.ModuleSize, len(result.WasmBytes))
	}
	if result.States < 2 {
		t.Errorf("expected at least 2 states for pattern \"a\", got %d", result.States)
	}
	if result.HasEmpty {
		t.Error("expected HasEmpty = false for pattern \"a\"")
	}
}

func TestCompile_StarHasEmpty(t *testing.T) {
	result, err := Compile("a*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.HasEmpty {
		t.Error("expected HasEmpty = true for pattern \"a*\"")
	}
}

func TestCompile_WordBoundaryUsesLookset(t *testing.T) {
	result, err := Compile(`\bword\b`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.LooksetAny&nfa.LookWordBoundary.Bit() == 0 {
		t.Error("expected LooksetAny to include LookWordBoundary")
	}
}

func TestCompile_AnchorLookset(t *testing.T) {
	result, err := Compile("^abc$")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := nfa.LookStart.Bit() | nfa.LookEnd.Bit()
	if result.LooksetAny&want != want {
		t.Errorf("expected LooksetAny to include Start and End bits, got %#x", result.LooksetAny)
	}
	if result.LooksetPrefixAny&nfa.LookStart.Bit() == 0 {
		t.Error("expected LooksetPrefixAny to include LookStart (it gates the start closure)")
	}
}

func TestCompile_Deterministic(t *testing.T) {
	a, err := Compile("(ab|cd)+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Compile("(ab|cd)+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.WasmBytes) != len(b.WasmBytes) {
		t.Fatalf("two compiles diverged in size: %d vs %d", len(a.WasmBytes), len(b.WasmBytes))
	}
	for i := range a.WasmBytes {
		if a.WasmBytes[i] != b.WasmBytes[i] {
			t.Fatalf("two compiles diverged at byte %d", i)
		}
	}
}

func TestCompile_InvalidPattern(t *testing.T) {
	_, err := Compile("[a-")
	if err == nil {
		t.Fatal("expected an error for malformed pattern")
	}
}

func TestCompile_RenderWAT(t *testing.T) {
	result, err := CompileWithConfig("a+", Config{NFA: nfa.DefaultCompilerConfig(), RenderWAT: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.WatString == "" {
		t.Error("expected non-empty WatString when RenderWAT is set")
	}
}

func TestCompile_UTF8AnyChar(t *testing.T) {
	result, err := Compile(".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsUTF8 {
		t.Error("expected IsUTF8 = true by default")
	}
}

func TestCompile_WasmHeaderMagic(t *testing.T) {
	result, err := Compile("abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if len(result.WasmBytes) < len(want) {
		t.Fatalf("module too short: %d bytes", len(result.WasmBytes))
	}
	for i, b := range want {
		if result.WasmBytes[i] != b {
			t.Errorf("byte %d = %#x, want %#x", i, result.WasmBytes[i], b)
		}
	}
}

// referenceMatch is a direct epsilon-closure simulation over the NFA,
// independent of the WASM lowering: it implements the same two-set,
// restart-union algorithm emitIsMatch lowers into WASM control flow, in
// plain Go, for cross-checking closure/encoding logic without a runtime.
func referenceMatch(n *nfa.NFA, enc *encoding, ct *closureTable, haystack []byte, anchored bool) bool {
	startClosure := ct.get(n.StartAnchored)
	unionStart := func(set map[uint32]bool) bool {
		for _, m := range startClosure.members {
			if m.cond == 0 {
				set[m.dense] = true
			}
		}
		return startClosure.matchUnconditional
	}

	cur := make(map[uint32]bool)
	if unionStart(cur) {
		return true
	}

	for pos := 0; pos < len(haystack); pos++ {
		if !anchored {
			if unionStart(cur) {
				return true
			}
		}
		b := haystack[pos]
		next := make(map[uint32]bool)
		matched := false
		for i := 0; i < n.Len(); i++ {
			id := nfa.StateID(i)
			s := n.State(id)
			if s.Kind != nfa.StateByteRange || !cur[enc.dense(id)] {
				continue
			}
			if b < s.Lo || b > s.Hi || s.Next == nfa.InvalidState {
				continue
			}
			c := ct.get(s.Next)
			for _, m := range c.members {
				if m.cond == 0 {
					next[m.dense] = true
				}
			}
			if c.matchUnconditional {
				matched = true
			}
		}
		if matched {
			return true
		}
		cur = next
	}
	return false
}

// TestClosureTable_AgreesWithStdlibRegexp cross-checks the closure/encoding
// simulation against Go's stdlib regexp as an independent oracle, for
// patterns whose match-only (no capture, no Unicode look-around) semantics
// coincide with stdlib's.
func TestClosureTable_AgreesWithStdlibRegexp(t *testing.T) {
	patterns := []string{"a", "a*", "a+", "ab", "(ab|cd)+", "a?b", "[0-9]+", "foo|bar"}
	haystacks := []string{"", "a", "ab", "cdab", "aabb", "xfooy", "123abc"}

	for _, p := range patterns {
		t.Run(p, func(t *testing.T) {
			n, err := nfa.NewDefaultCompiler().Compile(p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			enc := newEncoding(n)
			ct := newClosureTable(n, enc)

			re := stdlibMustCompile(t, p)
			for _, h := range haystacks {
				want := re.MatchString(h)
				got := referenceMatch(n, enc, ct, []byte(h), false)
				if got != want {
					t.Errorf("pattern %q, haystack %q: got %v, want %v", p, h, got, want)
				}
			}
		})
	}
}

func TestClosureTable_AnchoredRestartSuppressed(t *testing.T) {
	n, err := nfa.NewDefaultCompiler().Compile("bc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	enc := newEncoding(n)
	ct := newClosureTable(n, enc)

	if !referenceMatch(n, enc, ct, []byte("abc"), false) {
		t.Error("unanchored search should find \"bc\" inside \"abc\"")
	}
	if referenceMatch(n, enc, ct, []byte("abc"), true) {
		t.Error("anchored search should not find \"bc\" when it doesn't start at position 0")
	}
}
