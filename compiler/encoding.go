package compiler

import "github.com/wahgex/wahgex/nfa"

// encoding assigns every StateByteRange state a dense bit position in
// [0, N). Non-consuming states (Epsilon, Look, Capture) and the terminal
// states (Match, Fail) get no bit: they are eliminated entirely by the
// epsilon closure precomputation before the bitmap is ever touched at
// runtime.
type encoding struct {
	denseOf map[nfa.StateID]uint32
	count   int
}

func newEncoding(n *nfa.NFA) *encoding {
	enc := &encoding{denseOf: make(map[nfa.StateID]uint32)}
	for i := 0; i < n.Len(); i++ {
		id := nfa.StateID(i)
		if n.State(id).Kind == nfa.StateByteRange {
			enc.denseOf[id] = uint32(enc.count)
			enc.count++
		}
	}
	return enc
}

// dense returns the bit position for a StateByteRange state. Callers must
// only query states of that kind.
func (e *encoding) dense(id nfa.StateID) uint32 {
	d, ok := e.denseOf[id]
	if !ok {
		panic("compiler: dense index requested for a non-ByteRange state")
	}
	return d
}
