package nfa

import (
	"fmt"
	"regexp/syntax"
	"unicode/utf8"
)

// CompilerConfig configures NFA compilation behavior.
type CompilerConfig struct {
	// UTF8 is carried through to NFA.UTF8 as a passthrough flag. It does not
	// change how '.' is compiled: in either mode '.' matches exactly one byte.
	UTF8 bool

	// DotNewline determines whether '.' matches '\n'.
	DotNewline bool

	// Reverse requests that the NFA be built to read the pattern in reverse.
	// Carried through to NFA.Reverse as a passthrough flag; the core
	// compiler does not itself implement reverse construction.
	Reverse bool

	// MaxRecursionDepth limits recursion during compilation to prevent stack
	// overflow on pathological patterns. Default: 100.
	MaxRecursionDepth int
}

// DefaultCompilerConfig returns a compiler configuration with sensible
// defaults.
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		UTF8:              true,
		MaxRecursionDepth: 100,
	}
}

// Compiler compiles regexp/syntax.Regexp patterns into Thompson NFAs
// matching the data model consumed by the wasm compiler.
type Compiler struct {
	config  CompilerConfig
	builder *Builder
	depth   int
	hasCaps bool
}

// NewCompiler creates a new NFA compiler with the given configuration.
func NewCompiler(config CompilerConfig) *Compiler {
	if config.MaxRecursionDepth == 0 {
		config.MaxRecursionDepth = 100
	}
	return &Compiler{config: config}
}

// NewDefaultCompiler creates a new NFA compiler with default configuration.
func NewDefaultCompiler() *Compiler {
	return NewCompiler(DefaultCompilerConfig())
}

// Compile parses pattern with Perl syntax and compiles it into an NFA.
func (c *Compiler) Compile(pattern string) (*NFA, error) {
	flags := syntax.Perl
	if c.config.DotNewline {
		flags |= syntax.DotNL
	}
	re, err := syntax.Parse(pattern, flags)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	re = re.Simplify()
	return c.compileTop(pattern, re)
}

// CompileRegexp compiles an already-parsed syntax.Regexp into an NFA. The
// pattern string is carried through only for diagnostics.
func (c *Compiler) CompileRegexp(pattern string, re *syntax.Regexp) (*NFA, error) {
	return c.compileTop(pattern, re)
}

func (c *Compiler) compileTop(pattern string, re *syntax.Regexp) (*NFA, error) {
	c.builder = NewBuilder()
	c.depth = 0
	c.hasCaps = false

	start, end, err := c.compileRegexp(re)
	if err != nil {
		return nil, err
	}

	matchID := c.builder.AddMatch()
	if err := c.builder.PatchFragmentEnd(end, matchID); err != nil {
		return nil, &CompileError{Pattern: pattern, Err: fmt.Errorf("failed to connect match state: %w", err)}
	}

	// A single pattern has no distinct anchored-pattern start: "anchored" vs
	// "unanchored" matching is a search-time decision made entirely by the
	// driver (it re-unions the start closure on every step when unanchored),
	// not a structural difference in the NFA. Both starts therefore point at
	// the same state.
	nfa, err := c.builder.Build(pattern, start, start, c.config.UTF8, c.config.Reverse, c.hasCaps)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	return nfa, nil
}

// compileRegexp recursively compiles a syntax.Regexp node into a fragment,
// returning the fragment's start state and its "end" state: a state with one
// still-open slot which the caller patches to continue the automaton.
func (c *Compiler) compileRegexp(re *syntax.Regexp) (start, end StateID, err error) {
	c.depth++
	if c.depth > c.config.MaxRecursionDepth {
		return InvalidState, InvalidState, &CompileError{Err: ErrTooComplex}
	}
	defer func() { c.depth-- }()

	switch re.Op {
	case syntax.OpLiteral:
		return c.compileLiteral(re.Rune)
	case syntax.OpCharClass:
		return c.compileCharClass(re.Rune)
	case syntax.OpAnyChar:
		return c.compileAnyChar()
	case syntax.OpAnyCharNotNL:
		return c.compileAnyCharNotNL()
	case syntax.OpConcat:
		return c.compileConcat(re.Sub)
	case syntax.OpAlternate:
		return c.compileAlternate(re.Sub)
	case syntax.OpStar:
		return c.compileStar(re.Sub[0])
	case syntax.OpPlus:
		return c.compilePlus(re.Sub[0])
	case syntax.OpQuest:
		return c.compileQuest(re.Sub[0])
	case syntax.OpRepeat:
		return c.compileRepeat(re.Sub[0], re.Min, re.Max)
	case syntax.OpCapture:
		return c.compileCapture(re.Sub[0], uint32(re.Cap))
	case syntax.OpBeginText:
		return c.compileLook(LookStart)
	case syntax.OpEndText:
		return c.compileLook(LookEnd)
	case syntax.OpBeginLine:
		return c.compileLook(LookStartLine)
	case syntax.OpEndLine:
		return c.compileLook(LookEndLine)
	case syntax.OpWordBoundary:
		return c.compileLook(LookWordBoundary)
	case syntax.OpNoWordBoundary:
		return c.compileLook(LookNotWordBoundary)
	case syntax.OpEmptyMatch:
		return c.compileEmptyMatch()
	case syntax.OpNoMatch:
		return c.compileNoMatch()
	default:
		return InvalidState, InvalidState, &CompileError{Err: fmt.Errorf("unsupported regex operation: %v", re.Op)}
	}
}

func (c *Compiler) compileLiteral(runes []rune) (start, end StateID, err error) {
	if len(runes) == 0 {
		return c.compileEmptyMatch()
	}

	var prev, first = InvalidState, InvalidState
	buf := make([]byte, utf8.UTFMax)
	for _, r := range runes {
		n := utf8.EncodeRune(buf, r)
		for i := 0; i < n; i++ {
			b := buf[i]
			id := c.builder.AddByteRange(b, b, InvalidState)
			if first == InvalidState {
				first = id
			}
			if prev != InvalidState {
				if err := c.builder.Patch(prev, id); err != nil {
					return InvalidState, InvalidState, err
				}
			}
			prev = id
		}
	}
	return first, prev, nil
}

// compileCharClass compiles a character class such as [a-zA-Z0-9]. ASCII
// ranges lower directly to ByteRange states; any range touching non-ASCII
// code points is expanded into an alternation of literal runes, bounded to
// avoid state explosion.
func (c *Compiler) compileCharClass(ranges []rune) (start, end StateID, err error) {
	if len(ranges) == 0 {
		return c.compileEmptyMatch()
	}

	allASCII := true
	for i := 0; i < len(ranges); i += 2 {
		if ranges[i+1] > 0x7F {
			allASCII = false
			break
		}
	}
	if !allASCII {
		return c.compileUnicodeClass(ranges)
	}

	if len(ranges) == 2 {
		id := c.builder.AddByteRange(byte(ranges[0]), byte(ranges[1]), InvalidState)
		return id, id, nil
	}

	join := c.builder.AddEpsilon(InvalidState)
	starts := make([]StateID, 0, len(ranges)/2)
	for i := 0; i < len(ranges); i += 2 {
		id := c.builder.AddByteRange(byte(ranges[i]), byte(ranges[i+1]), join)
		starts = append(starts, id)
	}
	split := c.builder.AddEpsilon(starts...)
	return split, join, nil
}

// compileUnicodeClass expands a non-ASCII class into an alternation of
// individual literal runes. Inefficient, but correct, and bounded to avoid
// pathological blowup on huge classes.
func (c *Compiler) compileUnicodeClass(ranges []rune) (start, end StateID, err error) {
	var alts []*syntax.Regexp
	for i := 0; i < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		for r := lo; r <= hi; r++ {
			alts = append(alts, &syntax.Regexp{Op: syntax.OpLiteral, Rune: []rune{r}})
			if len(alts) > 1024 {
				return InvalidState, InvalidState, &CompileError{Err: fmt.Errorf("character class too large (>1024 code points)")}
			}
		}
	}
	if len(alts) == 0 {
		return c.compileEmptyMatch()
	}
	if len(alts) == 1 {
		return c.compileRegexp(alts[0])
	}
	return c.compileAlternate(alts)
}

// compileAnyChar compiles '.' when it may also match '\n'.
func (c *Compiler) compileAnyChar() (start, end StateID, err error) {
	id := c.builder.AddByteRange(0x00, 0xFF, InvalidState)
	return id, id, nil
}

// compileAnyCharNotNL compiles '.' excluding '\n'.
func (c *Compiler) compileAnyCharNotNL() (start, end StateID, err error) {
	join := c.builder.AddEpsilon(InvalidState)
	a := c.builder.AddByteRange(0x00, 0x09, join)
	b := c.builder.AddByteRange(0x0B, 0xFF, join)
	split := c.builder.AddEpsilon(a, b)
	return split, join, nil
}

func (c *Compiler) compileConcat(subs []*syntax.Regexp) (start, end StateID, err error) {
	if len(subs) == 0 {
		return c.compileEmptyMatch()
	}
	start, end, err = c.compileRegexp(subs[0])
	if err != nil {
		return InvalidState, InvalidState, err
	}
	for _, sub := range subs[1:] {
		nextStart, nextEnd, err := c.compileRegexp(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		if err := c.builder.PatchFragmentEnd(end, nextStart); err != nil {
			return InvalidState, InvalidState, err
		}
		end = nextEnd
	}
	return start, end, nil
}

func (c *Compiler) compileAlternate(subs []*syntax.Regexp) (start, end StateID, err error) {
	if len(subs) == 0 {
		return c.compileEmptyMatch()
	}
	if len(subs) == 1 {
		return c.compileRegexp(subs[0])
	}

	starts := make([]StateID, 0, len(subs))
	ends := make([]StateID, 0, len(subs))
	for _, sub := range subs {
		s, e, err := c.compileRegexp(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		starts = append(starts, s)
		ends = append(ends, e)
	}

	join := c.builder.AddEpsilon(InvalidState)
	for _, e := range ends {
		if err := c.builder.PatchFragmentEnd(e, join); err != nil {
			return InvalidState, InvalidState, err
		}
	}
	split := c.builder.AddEpsilon(starts...)
	return split, join, nil
}

// compileStar compiles a* (zero or more).
func (c *Compiler) compileStar(sub *syntax.Regexp) (start, end StateID, err error) {
	subStart, subEnd, err := c.compileRegexp(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	end = c.builder.AddEpsilon(InvalidState)
	split := c.builder.AddEpsilon(subStart, end)
	if err := c.builder.PatchFragmentEnd(subEnd, split); err != nil {
		return InvalidState, InvalidState, err
	}
	return split, end, nil
}

// compilePlus compiles a+ (one or more).
func (c *Compiler) compilePlus(sub *syntax.Regexp) (start, end StateID, err error) {
	subStart, subEnd, err := c.compileRegexp(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	end = c.builder.AddEpsilon(InvalidState)
	split := c.builder.AddEpsilon(subStart, end)
	if err := c.builder.PatchFragmentEnd(subEnd, split); err != nil {
		return InvalidState, InvalidState, err
	}
	return subStart, end, nil
}

// compileQuest compiles a? (zero or one).
func (c *Compiler) compileQuest(sub *syntax.Regexp) (start, end StateID, err error) {
	subStart, subEnd, err := c.compileRegexp(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	end = c.builder.AddEpsilon(InvalidState)
	split := c.builder.AddEpsilon(subStart, end)
	if err := c.builder.PatchFragmentEnd(subEnd, end); err != nil {
		return InvalidState, InvalidState, err
	}
	return split, end, nil
}

// compileRepeat compiles a{m,n}. Typically eliminated by Regexp.Simplify
// before compilation, but handled directly as a defensive fallback.
func (c *Compiler) compileRepeat(sub *syntax.Regexp, minCount, maxCount int) (start, end StateID, err error) {
	if maxCount == -1 {
		return c.compileRepeatMin(sub, minCount)
	}
	if minCount == maxCount {
		return c.compileRepeatExact(sub, minCount)
	}
	return c.compileRepeatRange(sub, minCount, maxCount)
}

func (c *Compiler) compileRepeatExact(sub *syntax.Regexp, n int) (start, end StateID, err error) {
	if n == 0 {
		return c.compileEmptyMatch()
	}
	if n == 1 {
		return c.compileRegexp(sub)
	}
	subs := make([]*syntax.Regexp, n)
	for i := range subs {
		subs[i] = sub
	}
	return c.compileConcat(subs)
}

func (c *Compiler) compileRepeatMin(sub *syntax.Regexp, minCount int) (start, end StateID, err error) {
	if minCount == 0 {
		return c.compileStar(sub)
	}
	subs := make([]*syntax.Regexp, minCount, minCount+1)
	for i := range subs {
		subs[i] = sub
	}
	subs = append(subs, &syntax.Regexp{Op: syntax.OpStar, Sub: []*syntax.Regexp{sub}})
	return c.compileConcat(subs)
}

func (c *Compiler) compileRepeatRange(sub *syntax.Regexp, minCount, maxCount int) (start, end StateID, err error) {
	if minCount > maxCount {
		return InvalidState, InvalidState, &CompileError{Err: fmt.Errorf("invalid repeat range {%d,%d}", minCount, maxCount)}
	}
	subs := make([]*syntax.Regexp, 0, maxCount)
	for i := 0; i < minCount; i++ {
		subs = append(subs, sub)
	}
	for i := 0; i < maxCount-minCount; i++ {
		subs = append(subs, &syntax.Regexp{Op: syntax.OpQuest, Sub: []*syntax.Regexp{sub}})
	}
	return c.compileConcat(subs)
}

func (c *Compiler) compileCapture(sub *syntax.Regexp, idx uint32) (start, end StateID, err error) {
	c.hasCaps = true
	subStart, subEnd, err := c.compileRegexp(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	startCap := c.builder.AddCaptureStart(idx, subStart)
	endCap := c.builder.AddCaptureEnd(idx, InvalidState)
	if err := c.builder.PatchFragmentEnd(subEnd, endCap); err != nil {
		return InvalidState, InvalidState, err
	}
	return startCap, endCap, nil
}

func (c *Compiler) compileLook(kind LookKind) (start, end StateID, err error) {
	id := c.builder.AddLook(kind, InvalidState)
	return id, id, nil
}

// compileEmptyMatch compiles a zero-width epsilon that matches without
// consuming input.
func (c *Compiler) compileEmptyMatch() (start, end StateID, err error) {
	id := c.builder.AddEpsilon(InvalidState)
	return id, id, nil
}

// compileNoMatch compiles a fragment that can never reach Match. The
// returned "end" is an unreachable epsilon placeholder: patching it is
// harmless since nothing ever flows into it from start.
func (c *Compiler) compileNoMatch() (start, end StateID, err error) {
	start = c.builder.AddFail()
	end = c.builder.AddEpsilon(InvalidState)
	return start, end, nil
}
