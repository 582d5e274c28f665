// Package compiler lowers a Thompson NFA (github.com/wahgex/wahgex/nfa)
// into a self-contained WASM module whose exports decide, for a given
// input byte sequence, whether a pattern matches. It does not interpret
// the NFA at match time: the emitted module's control flow is itself the
// two-set (current/next) NFA simulation.
package compiler

import (
	"github.com/wahgex/wahgex/ir"
	"github.com/wahgex/wahgex/wasmenc"
)

const wasmPageSize = 65536

// memoryLayout pins every region's base address for one compiled module.
// Regions are laid out back to back in the module's single linear memory
// (core WASM 1.0 permits exactly one), in the order: two state bitmaps,
// then the user-visible haystack region, then the look-around bit array.
//
// The haystack region does not start at offset 0. The open question the
// playground's JS raised — reading `haystack.buffer` from offset 0 — is
// outside this core's scope (the playground is an external collaborator,
// §1); HAYSTACK_BASE is exported as a global specifically so any host can
// locate the region without assuming it starts at 0.
type memoryLayout struct {
	stateRegionBytes int32 // size of exactly one of the two bitmaps
	stateABase       int32
	stateBBase       int32
	haystackBase     int32
}

func newMemoryLayout(activeStates int) memoryLayout {
	regionBytes := int32((activeStates + 7) / 8)
	if regionBytes == 0 {
		regionBytes = 1
	}
	return memoryLayout{
		stateRegionBytes: regionBytes,
		stateABase:       0,
		stateBBase:        regionBytes,
		haystackBase:      2 * regionBytes,
	}
}

// moduleBuilder assembles the fixed skeleton described by the module
// layout component: memory, globals, function types, and exports. The
// driver and look-around emitters append function bodies into it.
type moduleBuilder struct {
	mod    *wasmenc.Module
	layout memoryLayout

	typeI64Void     uint32
	typeIsMatch     uint32
	globalHaystackLen uint32
	globalLookBase    uint32
	globalHaystackBase uint32
}

func newModuleBuilder(layout memoryLayout) *moduleBuilder {
	mod := &wasmenc.Module{}
	mod.AddMemory(1, 0, false)
	mod.AddExport("haystack", wasmenc.ExportKindMemory, 0)

	mb := &moduleBuilder{mod: mod, layout: layout}
	mb.globalHaystackLen = mod.AddGlobal(wasmenc.ValI64, true, 0)
	mod.AddExport("haystack_len", wasmenc.ExportKindGlobal, mb.globalHaystackLen)

	mb.globalLookBase = mod.AddGlobal(wasmenc.ValI32, true, int64(layout.haystackBase))

	mb.globalHaystackBase = mod.AddGlobal(wasmenc.ValI32, false, int64(layout.haystackBase))
	mod.AddExport("HAYSTACK_BASE", wasmenc.ExportKindGlobal, mb.globalHaystackBase)

	mb.typeI64Void = mod.AddType([]byte{wasmenc.ValI64}, nil)
	mb.typeIsMatch = mod.AddType(
		[]byte{wasmenc.ValI32, wasmenc.ValI32, wasmenc.ValI64, wasmenc.ValI64, wasmenc.ValI64},
		[]byte{wasmenc.ValI32},
	)
	return mb
}

func (mb *moduleBuilder) addFunc(typeIdx uint32, name string, fb *ir.FuncBuilder) (uint32, error) {
	body, err := fb.Finish()
	if err != nil {
		return 0, err
	}
	idx := mb.mod.AddFunc(typeIdx, fb.Locals(), body)
	mb.mod.AddExport(name, wasmenc.ExportKindFunc, idx)
	return idx, nil
}
