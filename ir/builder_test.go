package ir

import (
	"testing"

	"github.com/wahgex/wahgex/wasmenc"
)

func TestFuncBuilder_SimpleArithmetic(t *testing.T) {
	f := NewFuncBuilder([]byte{wasmenc.ValI32, wasmenc.ValI32})
	f.LocalGet(0, wasmenc.ValI32)
	f.LocalGet(1, wasmenc.ValI32)
	f.I32Add()
	f.Return(wasmenc.ValI32)
	body, err := f.Finish()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("expected non-empty body")
	}
}

func TestFuncBuilder_StackMismatch(t *testing.T) {
	f := NewFuncBuilder(nil)
	f.I32Const(1)
	f.I64Const(2)
	f.I32Add()
	if f.Err() == nil {
		t.Fatal("expected a type mismatch error")
	}
}

func TestFuncBuilder_BlockLoopIf(t *testing.T) {
	f := NewFuncBuilder([]byte{wasmenc.ValI32})
	f.Block()
	f.Loop()
	f.LocalGet(0, wasmenc.ValI32)
	f.I32Eqz()
	f.BrIf(1)
	f.Br(0)
	f.End()
	f.End()
	if _, err := f.Finish(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFuncBuilder_BranchOutOfScope(t *testing.T) {
	f := NewFuncBuilder(nil)
	f.Block()
	f.Br(5)
	if f.Err() == nil {
		t.Fatal("expected out-of-scope branch error")
	}
}

func TestFuncBuilder_IfElse(t *testing.T) {
	f := NewFuncBuilder([]byte{wasmenc.ValI32})
	f.LocalGet(0, wasmenc.ValI32)
	f.If()
	f.I32Const(1)
	f.Drop(wasmenc.ValI32)
	f.Else()
	f.I32Const(0)
	f.Drop(wasmenc.ValI32)
	f.End()
	if _, err := f.Finish(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFuncBuilder_LoadSetBit(t *testing.T) {
	f := NewFuncBuilder(nil)
	f.LoadBit(0, 9)
	f.Drop(wasmenc.ValI32)
	f.SetBit(0, 9)
	if _, err := f.Finish(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFuncBuilder_ClearRegion(t *testing.T) {
	f := NewFuncBuilder(nil)
	f.ClearRegion(100, 16)
	if _, err := f.Finish(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFuncBuilder_LocalAllocation(t *testing.T) {
	f := NewFuncBuilder([]byte{wasmenc.ValI32})
	a := f.AddLocal(wasmenc.ValI64)
	b := f.AddLocal(wasmenc.ValI32)
	if a == b {
		t.Error("expected distinct local indices")
	}
	if len(f.Locals()) != 2 {
		t.Errorf("expected 2 declared locals, got %d", len(f.Locals()))
	}
}
