package compiler

import (
	"github.com/wahgex/wahgex/ir"
	"github.com/wahgex/wahgex/nfa"
	"github.com/wahgex/wahgex/wasmenc"
)

// emitIsWordByte pushes an i32 0/1 for whether the byte held in local
// byteVal is an ASCII word byte ([0-9A-Za-z_]). Unicode word classes are
// explicitly unsupported; the emitted module is not Unicode-correct for
// \b/\B on non-ASCII input.
func emitIsWordByte(fb *ir.FuncBuilder, byteVal uint32) {
	result := fb.AddLocal(wasmenc.ValI32)
	fb.I32Const(0)
	fb.LocalSet(result, wasmenc.ValI32)

	inRange := func(lo, hi int32) {
		fb.LocalGet(byteVal, wasmenc.ValI32)
		fb.I32Const(lo)
		fb.I32GeU()
		fb.LocalGet(byteVal, wasmenc.ValI32)
		fb.I32Const(hi)
		fb.I32LeU()
		fb.I32And()
		fb.If()
		fb.I32Const(1)
		fb.LocalSet(result, wasmenc.ValI32)
		fb.End()
	}
	inRange('0', '9')
	inRange('A', 'Z')
	inRange('a', 'z')

	fb.LocalGet(byteVal, wasmenc.ValI32)
	fb.I32Const('_')
	fb.I32Eq()
	fb.If()
	fb.I32Const(1)
	fb.LocalSet(result, wasmenc.ValI32)
	fb.End()

	fb.LocalGet(result, wasmenc.ValI32)
}

// haystackAddr returns a fresh local holding base + offsetLocal.
func haystackAddr(fb *ir.FuncBuilder, base int32, offsetLocal uint32) uint32 {
	addr := fb.AddLocal(wasmenc.ValI32)
	fb.I32Const(base)
	fb.LocalGet(offsetLocal, wasmenc.ValI32)
	fb.I32Add()
	fb.LocalSet(addr, wasmenc.ValI32)
	return addr
}

// emitLookaroundPrescan appends a dynamic-length loop to fb that computes,
// for every position i in [0, lenLocal], a byte holding one bit per used
// look-around kind (nfa.LookKind.Bit()), storing it at lookBaseLocal+i.
// Only kinds present in usedMask are computed. The closed interval matters:
// End and the pos==len disjunct of EndLine are only ever true at i==lenLocal.
func emitLookaroundPrescan(fb *ir.FuncBuilder, haystackBase int32, lookBaseLocal, lenLocal uint32, usedMask uint32) {
	if usedMask == 0 {
		return
	}

	i := fb.AddLocal(wasmenc.ValI32)
	fb.I32Const(0)
	fb.LocalSet(i, wasmenc.ValI32)

	fb.Block()
	fb.Loop()
	fb.LocalGet(i, wasmenc.ValI32)
	fb.LocalGet(lenLocal, wasmenc.ValI32)
	fb.I32GtU()
	fb.BrIf(1)

	bits := fb.AddLocal(wasmenc.ValI32)
	fb.I32Const(0)
	fb.LocalSet(bits, wasmenc.ValI32)

	curAddr := haystackAddr(fb, haystackBase, i)
	curByte := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(curAddr, wasmenc.ValI32)
	fb.I32Load8U(0, 0)
	fb.LocalSet(curByte, wasmenc.ValI32)

	prevByte := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(i, wasmenc.ValI32)
	fb.I32Const(0)
	fb.I32Eq()
	fb.If()
	fb.I32Const(0)
	fb.LocalSet(prevByte, wasmenc.ValI32)
	fb.Else()
	fb.LocalGet(curAddr, wasmenc.ValI32)
	fb.I32Const(1)
	fb.I32Sub()
	fb.I32Load8U(0, 0)
	fb.LocalSet(prevByte, wasmenc.ValI32)
	fb.End()

	setBitIf := func(kind nfa.LookKind, emitCond func()) {
		if usedMask&kind.Bit() == 0 {
			return
		}
		emitCond()
		fb.If()
		fb.LocalGet(bits, wasmenc.ValI32)
		fb.I32Const(int32(kind.Bit()))
		fb.I32Or()
		fb.LocalSet(bits, wasmenc.ValI32)
		fb.End()
	}

	setBitIf(nfa.LookStart, func() {
		fb.LocalGet(i, wasmenc.ValI32)
		fb.I32Const(0)
		fb.I32Eq()
	})
	setBitIf(nfa.LookEnd, func() {
		fb.LocalGet(i, wasmenc.ValI32)
		fb.LocalGet(lenLocal, wasmenc.ValI32)
		fb.I32Eq()
	})
	setBitIf(nfa.LookStartLine, func() {
		fb.LocalGet(i, wasmenc.ValI32)
		fb.I32Const(0)
		fb.I32Eq()
		fb.LocalGet(prevByte, wasmenc.ValI32)
		fb.I32Const('\n')
		fb.I32Eq()
		fb.I32Or()
	})
	setBitIf(nfa.LookEndLine, func() {
		fb.LocalGet(i, wasmenc.ValI32)
		fb.LocalGet(lenLocal, wasmenc.ValI32)
		fb.I32Eq()
		fb.LocalGet(curByte, wasmenc.ValI32)
		fb.I32Const('\n')
		fb.I32Eq()
		fb.I32Or()
	})
	if usedMask&(nfa.LookWordBoundary.Bit()|nfa.LookNotWordBoundary.Bit()) != 0 {
		prevWord := fb.AddLocal(wasmenc.ValI32)
		emitIsWordByte(fb, prevByte)
		fb.LocalSet(prevWord, wasmenc.ValI32)

		curWord := fb.AddLocal(wasmenc.ValI32)
		emitIsWordByte(fb, curByte)
		fb.LocalSet(curWord, wasmenc.ValI32)

		setBitIf(nfa.LookWordBoundary, func() {
			fb.LocalGet(prevWord, wasmenc.ValI32)
			fb.LocalGet(curWord, wasmenc.ValI32)
			fb.I32Ne()
		})
		setBitIf(nfa.LookNotWordBoundary, func() {
			fb.LocalGet(prevWord, wasmenc.ValI32)
			fb.LocalGet(curWord, wasmenc.ValI32)
			fb.I32Eq()
		})
	}

	fb.LocalGet(lookBaseLocal, wasmenc.ValI32)
	fb.LocalGet(i, wasmenc.ValI32)
	fb.I32Add()
	fb.LocalGet(bits, wasmenc.ValI32)
	fb.I32Store8(0, 0)

	fb.LocalGet(i, wasmenc.ValI32)
	fb.I32Const(1)
	fb.I32Add()
	fb.LocalSet(i, wasmenc.ValI32)
	fb.Br(0)
	fb.End() // loop
	fb.End() // block
}
