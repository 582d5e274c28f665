package compiler

import "github.com/wahgex/wahgex/nfa"

// closureMember is one ByteRange leaf reachable from a state's epsilon
// closure, tagged with the look-around conditions required along the path
// that reached it. Cond is a bitmask of nfa.LookKind bits; 0 means the
// member is reachable unconditionally.
type closureMember struct {
	dense uint32
	cond  uint32
}

// closure is the precomputed epsilon-closure of one NFA state: the set of
// consuming (ByteRange) states and the Match state reachable without
// consuming input, each annotated with the look-around conditions (if any)
// required to take that path. Conditional members are kept as annotations
// rather than expanded away, so bitmap unions stay simple and look-around
// evaluation stays orthogonal to transition lowering.
type closure struct {
	members            []closureMember
	matchUnconditional bool
	matchConds         []uint32 // conditions under which Match is reachable
}

// closureTable computes E(s) for every state in the NFA via a worklist-free
// recursive descent with cycle protection: epsilon/capture edges are always
// followed; a Look edge adds its kind to the path condition before
// recursing into its target; ByteRange and Match are closure leaves.
type closureTable struct {
	n       *nfa.NFA
	enc     *encoding
	entries map[nfa.StateID]*closure
}

func newClosureTable(n *nfa.NFA, enc *encoding) *closureTable {
	ct := &closureTable{n: n, enc: enc, entries: make(map[nfa.StateID]*closure)}
	for i := 0; i < n.Len(); i++ {
		ct.compute(nfa.StateID(i))
	}
	return ct
}

func (ct *closureTable) get(id nfa.StateID) *closure {
	return ct.entries[id]
}

func (ct *closureTable) compute(start nfa.StateID) *closure {
	if c, ok := ct.entries[start]; ok {
		return c
	}
	c := &closure{}
	ct.entries[start] = c
	visiting := make(map[nfa.StateID]bool)
	ct.walk(start, 0, visiting, c)
	return c
}

func (ct *closureTable) walk(id nfa.StateID, cond uint32, visiting map[nfa.StateID]bool, out *closure) {
	if visiting[id] {
		return
	}
	visiting[id] = true
	defer func() { visiting[id] = false }()

	s := ct.n.State(id)
	switch s.Kind {
	case nfa.StateByteRange:
		out.addMember(ct.enc.dense(id), cond)
	case nfa.StateMatch:
		out.addMatch(cond)
	case nfa.StateFail:
		// dead end, contributes nothing
	case nfa.StateEpsilon:
		for _, t := range s.Targets {
			if t != nfa.InvalidState {
				ct.walk(t, cond, visiting, out)
			}
		}
	case nfa.StateLook:
		if s.Next != nfa.InvalidState {
			ct.walk(s.Next, cond|s.Look.Bit(), visiting, out)
		}
	case nfa.StateCaptureStart, nfa.StateCaptureEnd:
		if s.Next != nfa.InvalidState {
			ct.walk(s.Next, cond, visiting, out)
		}
	}
}

func (c *closure) addMember(dense uint32, cond uint32) {
	for _, m := range c.members {
		if m.dense == dense && m.cond == cond {
			return
		}
		if m.dense == dense && m.cond == 0 {
			return // already unconditionally present, a weaker condition adds nothing
		}
	}
	c.members = append(c.members, closureMember{dense: dense, cond: cond})
}

func (c *closure) addMatch(cond uint32) {
	if cond == 0 {
		c.matchUnconditional = true
		return
	}
	if c.matchUnconditional {
		return
	}
	for _, existing := range c.matchConds {
		if existing == cond {
			return
		}
	}
	c.matchConds = append(c.matchConds, cond)
}

// looksetAny is the union, across every state in the NFA, of look-around
// kinds appearing in a Look state.
func looksetAny(n *nfa.NFA) uint32 {
	var mask uint32
	for i := 0; i < n.Len(); i++ {
		if s := n.State(nfa.StateID(i)); s.Kind == nfa.StateLook {
			mask |= s.Look.Bit()
		}
	}
	return mask
}

// looksetPrefixAny is the subset of looksetAny reachable from the NFA's
// start state without consuming any input, i.e. the conditions annotating
// the start closure.
func looksetPrefixAny(start *closure) uint32 {
	var mask uint32
	for _, m := range start.members {
		mask |= m.cond
	}
	for _, c := range start.matchConds {
		mask |= c
	}
	return mask
}
