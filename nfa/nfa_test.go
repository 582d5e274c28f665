package nfa

import (
	"testing"
)

func TestCompile_Literal(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"hello", true},
		{"", true},
		{"a", true},
		{"test123", true},
		{"Hello World", true},
		{"привет", true},
		{"😀", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			c := NewDefaultCompiler()
			n, err := c.Compile(tt.pattern)
			if tt.want && err != nil {
				t.Fatalf("expected success, got error: %v", err)
			}
			if n != nil && n.Len() == 0 {
				t.Error("NFA has no states")
			}
			if n != nil && n.StartAnchored == InvalidState {
				t.Error("NFA has invalid anchored start state")
			}
		})
	}
}

func TestCompile_CharClass(t *testing.T) {
	tests := []string{"[a-z]", "[A-Z]", "[0-9]", "[a-zA-Z0-9]", "[abc]", "[^a-z]"}
	for _, p := range tests {
		t.Run(p, func(t *testing.T) {
			c := NewDefaultCompiler()
			if _, err := c.Compile(p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCompile_Quantifiers(t *testing.T) {
	tests := []string{"a*", "a+", "a?", "a{2,4}", "a{3}", "a{2,}", "(ab)*", "a*?"}
	for _, p := range tests {
		t.Run(p, func(t *testing.T) {
			c := NewDefaultCompiler()
			if _, err := c.Compile(p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCompile_Alternation(t *testing.T) {
	n, err := NewDefaultCompiler().Compile("cat|dog|bird")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Len() == 0 {
		t.Fatal("expected non-empty NFA")
	}
}

func TestCompile_Captures(t *testing.T) {
	n, err := NewDefaultCompiler().Compile("(a)(b)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !n.HasCaps {
		t.Error("expected HasCaps to be true")
	}
}

func TestCompile_LookAround(t *testing.T) {
	tests := []struct {
		pattern string
		kind    LookKind
	}{
		{"^abc$", LookStart},
		{`\bword\b`, LookWordBoundary},
		{`\Bfoo`, LookNotWordBoundary},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			c := NewDefaultCompiler()
			n, err := c.Compile(tt.pattern)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			found := false
			for i := 0; i < n.Len(); i++ {
				if s := n.State(StateID(i)); s.Kind == StateLook && s.Look == tt.kind {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a Look state of kind %v for pattern %q", tt.kind, tt.pattern)
			}
		})
	}
}

func TestCompile_EmptyMatch(t *testing.T) {
	n, err := NewDefaultCompiler().Compile("a*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Len() == 0 {
		t.Fatal("expected non-empty NFA")
	}
}

func TestCompile_MultiByteCharClass(t *testing.T) {
	n, err := NewDefaultCompiler().Compile("[α-ω]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Len() == 0 {
		t.Fatal("expected non-empty NFA")
	}
}

func TestCompile_InvalidPattern(t *testing.T) {
	_, err := NewDefaultCompiler().Compile("[a-")
	if err == nil {
		t.Fatal("expected an error for malformed pattern")
	}
	var ce *CompileError
	if _, ok := err.(*CompileError); !ok {
		t.Errorf("expected *CompileError, got %T", err)
	}
	_ = ce
}

func TestCompile_DeterminismStates(t *testing.T) {
	c1 := NewDefaultCompiler()
	c2 := NewDefaultCompiler()
	n1, err1 := c1.Compile("(ab|cd)+")
	n2, err2 := c2.Compile("(ab|cd)+")
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v %v", err1, err2)
	}
	if n1.Len() != n2.Len() {
		t.Errorf("expected identical state counts across compilations: %d vs %d", n1.Len(), n2.Len())
	}
}

func TestBuilder_Validate(t *testing.T) {
	b := NewBuilder()
	m := b.AddMatch()
	br := b.AddByteRange('a', 'a', m)
	if err := b.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if _, err := b.Build("a", br, br, true, false, false); err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
}

func TestBuilder_InvalidByteRange(t *testing.T) {
	b := NewBuilder()
	b.AddByteRange('z', 'a', InvalidState)
	if err := b.Validate(); err == nil {
		t.Fatal("expected validation error for empty byte range")
	}
}

func TestBuilder_PatchFragmentEnd(t *testing.T) {
	b := NewBuilder()
	eps := b.AddEpsilon(InvalidState)
	m := b.AddMatch()
	if err := b.PatchFragmentEnd(eps, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.states[eps].Targets[0] != m {
		t.Error("expected epsilon target to be patched to match state")
	}

	br := b.AddByteRange('x', 'x', InvalidState)
	if err := b.PatchFragmentEnd(br, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.states[br].Next != m {
		t.Error("expected byte range Next to be patched to match state")
	}
}

func TestStateKind_String(t *testing.T) {
	kinds := []StateKind{StateByteRange, StateEpsilon, StateLook, StateCaptureStart, StateCaptureEnd, StateMatch, StateFail}
	for _, k := range kinds {
		if k.String() == "" {
			t.Errorf("expected non-empty string for kind %d", k)
		}
	}
}

func TestLookKind_Bit(t *testing.T) {
	seen := make(map[uint32]bool)
	kinds := []LookKind{LookStart, LookEnd, LookStartLine, LookEndLine, LookWordBoundary, LookNotWordBoundary}
	for _, k := range kinds {
		bit := k.Bit()
		if seen[bit] {
			t.Errorf("duplicate bit %d for kind %v", bit, k)
		}
		seen[bit] = true
	}
}
