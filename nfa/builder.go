package nfa

import "fmt"

// Builder constructs NFAs incrementally using a low-level, patch-based API.
// Fragments are built bottom-up: each Add* method allocates a new state and
// returns its ID, and Patch/PatchEpsilon later fill in forward references
// once the target state is known.
type Builder struct {
	states []State
}

// NewBuilder creates a new NFA builder with default capacity.
func NewBuilder() *Builder {
	return NewBuilderWithCapacity(16)
}

// NewBuilderWithCapacity creates a new NFA builder with the given initial
// state capacity.
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{states: make([]State, 0, capacity)}
}

func (b *Builder) add(s State) StateID {
	id := StateID(len(b.states))
	b.states = append(b.states, s)
	return id
}

// AddMatch adds a match (accepting) state and returns its ID.
func (b *Builder) AddMatch() StateID {
	return b.add(State{Kind: StateMatch})
}

// AddFail adds a dead state with no transitions.
func (b *Builder) AddFail() StateID {
	return b.add(State{Kind: StateFail})
}

// AddByteRange adds a state that consumes a single byte in [lo,hi] and
// transitions to next. Pass InvalidState for next if it is not yet known;
// patch it later with Patch.
func (b *Builder) AddByteRange(lo, hi byte, next StateID) StateID {
	return b.add(State{Kind: StateByteRange, Lo: lo, Hi: hi, Next: next})
}

// AddEpsilon adds a non-consuming state branching to the given targets, in
// order. A single target represents a plain sequencing epsilon; more than
// one represents alternation/splitting.
func (b *Builder) AddEpsilon(targets ...StateID) StateID {
	ts := make([]StateID, len(targets))
	copy(ts, targets)
	return b.add(State{Kind: StateEpsilon, Targets: ts})
}

// AddLook adds a zero-width assertion state. next is taken only if kind
// holds at the current position.
func (b *Builder) AddLook(kind LookKind, next StateID) StateID {
	return b.add(State{Kind: StateLook, Look: kind, Next: next})
}

// AddCaptureStart adds the opening boundary of capture group idx.
func (b *Builder) AddCaptureStart(idx uint32, next StateID) StateID {
	return b.add(State{Kind: StateCaptureStart, Capture: idx, Next: next})
}

// AddCaptureEnd adds the closing boundary of capture group idx.
func (b *Builder) AddCaptureEnd(idx uint32, next StateID) StateID {
	return b.add(State{Kind: StateCaptureEnd, Capture: idx, Next: next})
}

// Patch sets the Next field of a single-target state (ByteRange, Look,
// CaptureStart, CaptureEnd).
func (b *Builder) Patch(id, target StateID) error {
	if int(id) >= len(b.states) {
		return &BuildError{Message: "state ID out of bounds", StateID: id}
	}
	s := &b.states[id]
	switch s.Kind {
	case StateByteRange, StateLook, StateCaptureStart, StateCaptureEnd:
		s.Next = target
		return nil
	default:
		return &BuildError{Message: fmt.Sprintf("cannot patch state of kind %s", s.Kind), StateID: id}
	}
}

// PatchEpsilon appends a target to an Epsilon state's target list, replacing
// the first InvalidState placeholder if one is present.
func (b *Builder) PatchEpsilon(id StateID, target StateID) error {
	if int(id) >= len(b.states) {
		return &BuildError{Message: "state ID out of bounds", StateID: id}
	}
	s := &b.states[id]
	if s.Kind != StateEpsilon {
		return &BuildError{Message: fmt.Sprintf("expected Epsilon state, got %s", s.Kind), StateID: id}
	}
	for i, t := range s.Targets {
		if t == InvalidState {
			s.Targets[i] = target
			return nil
		}
	}
	s.Targets = append(s.Targets, target)
	return nil
}

// PatchFragmentEnd patches the open slot of a fragment's "end" state,
// dispatching to Patch or PatchEpsilon depending on the state's kind. This
// is the operation compilation uses to stitch two fragments together.
func (b *Builder) PatchFragmentEnd(id, target StateID) error {
	if int(id) >= len(b.states) {
		return &BuildError{Message: "state ID out of bounds", StateID: id}
	}
	if b.states[id].Kind == StateEpsilon {
		return b.PatchEpsilon(id, target)
	}
	return b.Patch(id, target)
}

// States returns the current number of states.
func (b *Builder) States() int {
	return len(b.states)
}

// Validate checks that every state reference points to a valid or
// InvalidState target, and that no byte range is empty.
func (b *Builder) Validate() error {
	for i, s := range b.states {
		id := StateID(i)
		switch s.Kind {
		case StateByteRange:
			if s.Lo > s.Hi {
				return &BuildError{Message: "empty byte range", StateID: id}
			}
			if s.Next != InvalidState && int(s.Next) >= len(b.states) {
				return &BuildError{Message: fmt.Sprintf("invalid next state %d", s.Next), StateID: id}
			}
		case StateLook, StateCaptureStart, StateCaptureEnd:
			if s.Next != InvalidState && int(s.Next) >= len(b.states) {
				return &BuildError{Message: fmt.Sprintf("invalid next state %d", s.Next), StateID: id}
			}
		case StateEpsilon:
			for _, t := range s.Targets {
				if t != InvalidState && int(t) >= len(b.states) {
					return &BuildError{Message: fmt.Sprintf("invalid epsilon target %d", t), StateID: id}
				}
			}
			if len(s.Targets) == 0 {
				return &BuildError{Message: "epsilon state with no targets", StateID: id}
			}
		}
	}
	return nil
}

// Build finalizes the builder into an immutable NFA. startAnchored and
// startUnanchored must both be valid states already added to the builder.
func (b *Builder) Build(pattern string, startAnchored, startUnanchored StateID, utf8, reverse, hasCaps bool) (*NFA, error) {
	if startAnchored == InvalidState || int(startAnchored) >= len(b.states) {
		return nil, &BuildError{Message: "anchored start state not set", StateID: startAnchored}
	}
	if startUnanchored == InvalidState || int(startUnanchored) >= len(b.states) {
		return nil, &BuildError{Message: "unanchored start state not set", StateID: startUnanchored}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &NFA{
		Pattern:         pattern,
		States:          b.states,
		StartAnchored:   startAnchored,
		StartUnanchored: startUnanchored,
		UTF8:            utf8,
		Reverse:         reverse,
		HasCaps:         hasCaps,
	}, nil
}
