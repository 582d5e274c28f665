package ir

import "github.com/wahgex/wahgex/wasmenc"

// LoadBit emits code that pushes an i32 0/1: the value of bit `stateID`
// within the byte-packed bitmap starting at the compile-time-fixed address
// base. Both base and stateID are known at compile time, since every NFA
// state has a fixed bit position assigned during state encoding.
func (f *FuncBuilder) LoadBit(base int32, stateID uint32) {
	addr := base + int32(stateID/8)
	bit := stateID % 8
	f.I32Const(addr)
	f.I32Load8U(0, 0)
	f.I32Const(int32(bit))
	f.I32ShrU()
	f.I32Const(1)
	f.I32And()
}

// SetBit emits code that ORs bit `stateID` into the byte-packed bitmap at
// base, leaving any other bit in that byte untouched.
func (f *FuncBuilder) SetBit(base int32, stateID uint32) {
	addr := base + int32(stateID/8)
	mask := int32(1) << (stateID % 8)
	f.I32Const(addr)
	f.I32Const(addr)
	f.I32Load8U(0, 0)
	f.I32Const(mask)
	f.I32Or()
	f.I32Store8(0, 0)
}

// ClearRegion emits a loop that stores zero across [base, base+length)
// byte-by-byte. Used to reset bitmap regions between searches; core WASM
// 1.0 has no bulk-memory fill instruction, so this is spelled out as a loop
// over a scratch local.
func (f *FuncBuilder) ClearRegion(base int32, length uint32) {
	if length == 0 {
		return
	}
	i := f.AddLocal(wasmenc.ValI32)
	f.I32Const(base)
	f.LocalSet(i, wasmenc.ValI32)

	f.Block()
	f.Loop()
	f.LocalGet(i, wasmenc.ValI32)
	f.I32Const(base + int32(length))
	f.I32GeU()
	f.BrIf(1)

	f.LocalGet(i, wasmenc.ValI32)
	f.I32Const(0)
	f.I32Store8(0, 0)

	f.LocalGet(i, wasmenc.ValI32)
	f.I32Const(1)
	f.I32Add()
	f.LocalSet(i, wasmenc.ValI32)
	f.Br(0)
	f.End() // loop
	f.End() // block
}

// ClearRegionAtLocal emits a loop that stores zero across
// [baseLocal, baseLocal+length), where the region's start address is held
// in a local rather than known at compile time.
func (f *FuncBuilder) ClearRegionAtLocal(baseLocal uint32, length uint32) {
	if length == 0 {
		return
	}
	i := f.AddLocal(wasmenc.ValI32)
	f.I32Const(0)
	f.LocalSet(i, wasmenc.ValI32)

	f.Block()
	f.Loop()
	f.LocalGet(i, wasmenc.ValI32)
	f.I32Const(int32(length))
	f.I32GeU()
	f.BrIf(1)

	f.LocalGet(baseLocal, wasmenc.ValI32)
	f.LocalGet(i, wasmenc.ValI32)
	f.I32Add()
	f.I32Const(0)
	f.I32Store8(0, 0)

	f.LocalGet(i, wasmenc.ValI32)
	f.I32Const(1)
	f.I32Add()
	f.LocalSet(i, wasmenc.ValI32)
	f.Br(0)
	f.End()
	f.End()
}

// ClearRegionDynamic emits a loop that stores zero across [base, base+len)
// where len is a runtime-computed local, not a compile-time constant.
func (f *FuncBuilder) ClearRegionDynamic(base int32, lenLocal uint32) {
	i := f.AddLocal(wasmenc.ValI32)
	f.I32Const(0)
	f.LocalSet(i, wasmenc.ValI32)

	f.Block()
	f.Loop()
	f.LocalGet(i, wasmenc.ValI32)
	f.LocalGet(lenLocal, wasmenc.ValI32)
	f.I32GeU()
	f.BrIf(1)

	f.I32Const(base)
	f.LocalGet(i, wasmenc.ValI32)
	f.I32Add()
	f.I32Const(0)
	f.I32Store8(0, 0)

	f.LocalGet(i, wasmenc.ValI32)
	f.I32Const(1)
	f.I32Add()
	f.LocalSet(i, wasmenc.ValI32)
	f.Br(0)
	f.End() // loop
	f.End() // block
}

// ClearRegionAtLocalDynamic emits a loop that stores zero across
// [baseLocal, baseLocal+lenLocal), where both the start address and length
// are runtime-computed locals.
func (f *FuncBuilder) ClearRegionAtLocalDynamic(baseLocal, lenLocal uint32) {
	i := f.AddLocal(wasmenc.ValI32)
	f.I32Const(0)
	f.LocalSet(i, wasmenc.ValI32)

	f.Block()
	f.Loop()
	f.LocalGet(i, wasmenc.ValI32)
	f.LocalGet(lenLocal, wasmenc.ValI32)
	f.I32GeU()
	f.BrIf(1)

	f.LocalGet(baseLocal, wasmenc.ValI32)
	f.LocalGet(i, wasmenc.ValI32)
	f.I32Add()
	f.I32Const(0)
	f.I32Store8(0, 0)

	f.LocalGet(i, wasmenc.ValI32)
	f.I32Const(1)
	f.I32Add()
	f.LocalSet(i, wasmenc.ValI32)
	f.Br(0)
	f.End()
	f.End()
}
