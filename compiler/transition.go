package compiler

import (
	"github.com/wahgex/wahgex/ir"
	"github.com/wahgex/wahgex/wasmenc"
)

// emitUnionClosure ORs the members of c into the bitmap region starting at
// baseLocal (an i32 local holding the region's address), gating
// conditional members on the look-around byte held in lookByteLocal. It
// also ORs into matchedLocal (an i32 0/1) whenever Match becomes reachable.
//
// baseLocal is a local rather than a compile-time constant because the
// driver ping-pongs between the two state regions by swapping which local
// holds "current" and which holds "next", rather than copying memory.
func emitUnionClosure(fb *ir.FuncBuilder, c *closure, baseLocal uint32, lookByteLocal uint32, matchedLocal uint32) {
	for _, m := range c.members {
		emitGated(fb, m.cond, lookByteLocal, func() {
			setBitAtLocal(fb, baseLocal, m.dense)
		})
	}
	if c.matchUnconditional {
		fb.I32Const(1)
		fb.LocalSet(matchedLocal, wasmenc.ValI32)
	}
	for _, cond := range c.matchConds {
		emitGated(fb, cond, lookByteLocal, func() {
			fb.I32Const(1)
			fb.LocalSet(matchedLocal, wasmenc.ValI32)
		})
	}
}

// emitGated runs thenEmit unconditionally if cond == 0, otherwise only
// when every bit in cond is set in the look-around byte local.
func emitGated(fb *ir.FuncBuilder, cond uint32, lookByteLocal uint32, thenEmit func()) {
	if cond == 0 {
		thenEmit()
		return
	}
	fb.LocalGet(lookByteLocal, wasmenc.ValI32)
	fb.I32Const(int32(cond))
	fb.I32And()
	fb.I32Const(int32(cond))
	fb.I32Eq()
	fb.If()
	thenEmit()
	fb.End()
}

// setBitAtLocal ORs bit `dense` into the byte-packed bitmap whose region
// address is held in baseLocal.
func setBitAtLocal(fb *ir.FuncBuilder, baseLocal uint32, dense uint32) {
	byteOff := int32(dense / 8)
	mask := int32(1) << (dense % 8)

	addr := fb.AddLocal(wasmenc.ValI32)
	fb.LocalGet(baseLocal, wasmenc.ValI32)
	fb.I32Const(byteOff)
	fb.I32Add()
	fb.LocalSet(addr, wasmenc.ValI32)

	fb.LocalGet(addr, wasmenc.ValI32)
	fb.LocalGet(addr, wasmenc.ValI32)
	fb.I32Load8U(0, 0)
	fb.I32Const(mask)
	fb.I32Or()
	fb.I32Store8(0, 0)
}

// loadBitAtLocal pushes an i32 0/1: bit `dense` of the bitmap whose region
// address is held in baseLocal.
func loadBitAtLocal(fb *ir.FuncBuilder, baseLocal uint32, dense uint32) {
	byteOff := int32(dense / 8)
	bit := dense % 8

	fb.LocalGet(baseLocal, wasmenc.ValI32)
	fb.I32Const(byteOff)
	fb.I32Add()
	fb.I32Load8U(0, 0)
	fb.I32Const(int32(bit))
	fb.I32ShrU()
	fb.I32Const(1)
	fb.I32And()
}

