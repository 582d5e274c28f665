package compiler

import (
	"github.com/wahgex/wahgex/ir"
	"github.com/wahgex/wahgex/nfa"
	"github.com/wahgex/wahgex/wasmenc"
)

// emitPrepareInput builds the body of `prepare_input(len: i64)`: it grows
// memory to fit the haystack and, if the pattern uses look-around, the
// per-position look-around bit array, then zeroes every region a stale
// previous call might have left dirty.
func emitPrepareInput(mb *moduleBuilder, usedMask uint32) *ir.FuncBuilder {
	fb := ir.NewFuncBuilder([]byte{wasmenc.ValI64})
	lenParam := uint32(0)

	len32 := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(lenParam, wasmenc.ValI64)
	fb.I32WrapI64()
	fb.LocalSet(len32, wasmenc.ValI32)

	lookBase := fb.AddLocal(wasmenc.ValI32)
	fb.I32Const(mb.layout.haystackBase)
	fb.LocalGet(len32, wasmenc.ValI32)
	fb.I32Add()
	fb.LocalSet(lookBase, wasmenc.ValI32)

	// The look-around array holds one byte per position in [0, len], not
	// [0, len): position len is where End/EndLine/WordBoundary/
	// NotWordBoundary are evaluated at the end of the haystack, so it needs
	// a slot too.
	lookLen := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(len32, wasmenc.ValI32)
	fb.I32Const(1)
	fb.I32Add()
	fb.LocalSet(lookLen, wasmenc.ValI32)

	needed := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(lookBase, wasmenc.ValI32)
	if usedMask != 0 {
		fb.LocalGet(lookLen, wasmenc.ValI32)
		fb.I32Add()
	}
	fb.LocalSet(needed, wasmenc.ValI32)

	neededPages := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(needed, wasmenc.ValI32)
	fb.I32Const(wasmPageSize - 1)
	fb.I32Add()
	fb.I32Const(16) // log2(65536): bytes to pages via shift
	fb.I32ShrU()
	fb.LocalSet(neededPages, wasmenc.ValI32)

	curPages := fb.AddLocal(wasmenc.ValI32)
	fb.MemorySize()
	fb.LocalSet(curPages, wasmenc.ValI32)

	fb.LocalGet(neededPages, wasmenc.ValI32)
	fb.LocalGet(curPages, wasmenc.ValI32)
	fb.I32GtU()
	fb.If()

	grown := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(neededPages, wasmenc.ValI32)
	fb.LocalGet(curPages, wasmenc.ValI32)
	fb.I32Sub()
	fb.MemoryGrow()
	fb.LocalSet(grown, wasmenc.ValI32)

	fb.LocalGet(grown, wasmenc.ValI32)
	fb.I32Const(-1)
	fb.I32Eq()
	fb.If()
	fb.Unreachable()
	fb.End()

	fb.End()

	fb.ClearRegion(mb.layout.stateABase, uint32(mb.layout.stateRegionBytes))
	fb.ClearRegion(mb.layout.stateBBase, uint32(mb.layout.stateRegionBytes))

	fb.LocalGet(lenParam, wasmenc.ValI64)
	fb.GlobalSet(mb.globalHaystackLen, wasmenc.ValI64)

	fb.LocalGet(lookBase, wasmenc.ValI32)
	fb.GlobalSet(mb.globalLookBase, wasmenc.ValI32)

	if usedMask != 0 {
		fb.ClearRegionAtLocalDynamic(lookBase, lookLen)
		emitLookaroundPrescan(fb, mb.layout.haystackBase, lookBase, len32, usedMask)
	}

	return fb
}

// emitIsMatch builds the body of
// `is_match(anchored, anchored_pattern, span_start, span_end, haystack_len) -> i32`.
// anchored_pattern carries no distinct behavior from anchored here: with a
// single pattern the two are equivalent (§9's own resolution of that open
// question), so only `anchored` (restart suppression) affects control flow.
func emitIsMatch(mb *moduleBuilder, n *nfa.NFA, enc *encoding, ct *closureTable, usedMask uint32) *ir.FuncBuilder {
	fb := ir.NewFuncBuilder([]byte{
		wasmenc.ValI32, wasmenc.ValI32, wasmenc.ValI64, wasmenc.ValI64, wasmenc.ValI64,
	})
	anchored := uint32(0)
	spanStart := uint32(2)
	spanEnd := uint32(3)
	haystackLenParam := uint32(4)

	startI32 := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(spanStart, wasmenc.ValI64)
	fb.I32WrapI64()
	fb.LocalSet(startI32, wasmenc.ValI32)

	endI32 := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(spanEnd, wasmenc.ValI64)
	fb.I32WrapI64()
	fb.LocalSet(endI32, wasmenc.ValI32)

	lenI32 := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(haystackLenParam, wasmenc.ValI64)
	fb.I32WrapI64()
	fb.LocalSet(lenI32, wasmenc.ValI32)

	// Out-of-range spans are treated as an unconditional non-match, never a trap.
	fb.LocalGet(startI32, wasmenc.ValI32)
	fb.LocalGet(endI32, wasmenc.ValI32)
	fb.I32GtU()
	fb.LocalGet(endI32, wasmenc.ValI32)
	fb.LocalGet(lenI32, wasmenc.ValI32)
	fb.I32GtU()
	fb.I32Or()
	fb.If()
	fb.I32Const(0)
	fb.Return(wasmenc.ValI32)
	fb.End()

	lookBase := fb.AddLocal(wasmenc.ValI32)
	fb.GlobalGet(mb.globalLookBase, wasmenc.ValI32)
	fb.LocalSet(lookBase, wasmenc.ValI32)

	// The host writes the haystack after prepare_input returns, so the
	// look-around bytes are computed here, once the bytes are in place.
	emitLookaroundPrescan(fb, mb.layout.haystackBase, lookBase, lenI32, usedMask)

	curBase := fb.AddLocal(wasmenc.ValI32)
	fb.I32Const(mb.layout.stateABase)
	fb.LocalSet(curBase, wasmenc.ValI32)
	nextBase := fb.AddLocal(wasmenc.ValI32)
	fb.I32Const(mb.layout.stateBBase)
	fb.LocalSet(nextBase, wasmenc.ValI32)

	fb.ClearRegionAtLocal(curBase, uint32(mb.layout.stateRegionBytes))
	fb.ClearRegionAtLocal(nextBase, uint32(mb.layout.stateRegionBytes))

	matched := fb.AddLocal(wasmenc.ValI32)
	fb.I32Const(0)
	fb.LocalSet(matched, wasmenc.ValI32)

	pos := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(startI32, wasmenc.ValI32)
	fb.LocalSet(pos, wasmenc.ValI32)

	lookByte := fb.AddLocal(wasmenc.ValI32)
	emitLoadLookByte(fb, lookBase, pos, usedMask)
	fb.LocalSet(lookByte, wasmenc.ValI32)

	startClosure := ct.get(n.StartAnchored)
	emitUnionClosure(fb, startClosure, curBase, lookByte, matched)

	fb.LocalGet(matched, wasmenc.ValI32)
	fb.If()
	fb.I32Const(1)
	fb.Return(wasmenc.ValI32)
	fb.End()

	byteLocal := fb.AddLocal(wasmenc.ValI32)
	anyNext := fb.AddLocal(wasmenc.ValI32)

	fb.Block()
	fb.Loop()

	fb.LocalGet(pos, wasmenc.ValI32)
	fb.LocalGet(endI32, wasmenc.ValI32)
	fb.I32Eq()
	fb.BrIf(1)

	fb.LocalGet(anchored, wasmenc.ValI32)
	fb.I32Eqz()
	fb.If()
	emitLoadLookByte(fb, lookBase, pos, usedMask)
	fb.LocalSet(lookByte, wasmenc.ValI32)
	emitUnionClosure(fb, startClosure, curBase, lookByte, matched)
	fb.End()

	fb.I32Const(mb.layout.haystackBase)
	fb.LocalGet(pos, wasmenc.ValI32)
	fb.I32Add()
	fb.I32Load8U(0, 0)
	fb.LocalSet(byteLocal, wasmenc.ValI32)

	fb.I32Const(0)
	fb.LocalSet(anyNext, wasmenc.ValI32)
	fb.ClearRegionAtLocal(nextBase, uint32(mb.layout.stateRegionBytes))

	nextPos := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(pos, wasmenc.ValI32)
	fb.I32Const(1)
	fb.I32Add()
	fb.LocalSet(nextPos, wasmenc.ValI32)

	nextLookByte := fb.AddLocal(wasmenc.ValI32)
	emitLoadLookByte(fb, lookBase, nextPos, usedMask)
	fb.LocalSet(nextLookByte, wasmenc.ValI32)

	emitByteStepTracked(fb, n, enc, ct, curBase, byteLocal, nextBase, nextLookByte, matched, anyNext)

	fb.LocalGet(anyNext, wasmenc.ValI32)
	fb.I32Eqz()
	fb.LocalGet(anchored, wasmenc.ValI32)
	fb.I32And()
	fb.If()
	fb.I32Const(0)
	fb.Return(wasmenc.ValI32)
	fb.End()

	// Swap current/next by swapping the addresses the locals hold.
	tmp := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(curBase, wasmenc.ValI32)
	fb.LocalSet(tmp, wasmenc.ValI32)
	fb.LocalGet(nextBase, wasmenc.ValI32)
	fb.LocalSet(curBase, wasmenc.ValI32)
	fb.LocalGet(tmp, wasmenc.ValI32)
	fb.LocalSet(nextBase, wasmenc.ValI32)

	fb.LocalGet(matched, wasmenc.ValI32)
	fb.If()
	fb.I32Const(1)
	fb.Return(wasmenc.ValI32)
	fb.End()

	fb.LocalGet(nextPos, wasmenc.ValI32)
	fb.LocalSet(pos, wasmenc.ValI32)

	fb.Br(0)
	fb.End() // loop
	fb.End() // block

	fb.LocalGet(matched, wasmenc.ValI32)
	fb.Return(wasmenc.ValI32)

	return fb
}

// emitLoadLookByte pushes the look-around byte at position posLocal, or a
// constant 0 if the pattern uses no look-around kind at all.
func emitLoadLookByte(fb *ir.FuncBuilder, lookBaseLocal, posLocal uint32, usedMask uint32) {
	if usedMask == 0 {
		fb.I32Const(0)
		return
	}
	fb.LocalGet(lookBaseLocal, wasmenc.ValI32)
	fb.LocalGet(posLocal, wasmenc.ValI32)
	fb.I32Add()
	fb.I32Load8U(0, 0)
}

// emitByteStepTracked emits one unrolled `if` block per ByteRange state:
// when the state is active in the current bitmap and byteLocal lies in its
// range, the closure of its successor is ORed into the next bitmap, and
// anyNextLocal is set to 1 whenever any transition is actually taken this step.
func emitByteStepTracked(
	fb *ir.FuncBuilder,
	n *nfa.NFA,
	enc *encoding,
	ct *closureTable,
	curBaseLocal, byteLocal, nextBaseLocal, nextLookByteLocal, matchedLocal, anyNextLocal uint32,
) {
	for i := 0; i < n.Len(); i++ {
		id := nfa.StateID(i)
		s := n.State(id)
		if s.Kind != nfa.StateByteRange {
			continue
		}
		dense := enc.dense(id)

		loadBitAtLocal(fb, curBaseLocal, dense)
		fb.If()

		fb.LocalGet(byteLocal, wasmenc.ValI32)
		fb.I32Const(int32(s.Lo))
		fb.I32GeU()
		fb.LocalGet(byteLocal, wasmenc.ValI32)
		fb.I32Const(int32(s.Hi))
		fb.I32LeU()
		fb.I32And()
		fb.If()

		fb.I32Const(1)
		fb.LocalSet(anyNextLocal, wasmenc.ValI32)
		if s.Next != nfa.InvalidState {
			emitUnionClosure(fb, ct.get(s.Next), nextBaseLocal, nextLookByteLocal, matchedLocal)
		}

		fb.End()
		fb.End()
	}
}
