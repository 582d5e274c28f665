// Package ir is a small typed builder for WASM function bodies: it tracks
// the operand stack statically while instructions are emitted, manages
// lexically scoped control labels (block/loop/if/else), and allocates local
// variables by type. It has no notion of regexes, NFAs, or bitmaps; the
// compiler package uses it to emit the instruction streams those components
// need.
package ir

import (
	"fmt"

	"github.com/wahgex/wahgex/wasmenc"
)

// labelKind distinguishes the three structured control constructs, since
// `br` targets a loop's *start* but a block's or if's *end*.
type labelKind byte

const (
	labelBlock labelKind = iota
	labelLoop
	labelIf
)

type label struct {
	kind       labelKind
	stackDepth int // operand stack depth at entry, for validation
}

// FuncBuilder builds a single WASM function body, tracking operand stack
// types and scoped branch targets as instructions are appended.
type FuncBuilder struct {
	body   []byte
	stack  []byte // operand type stack
	locals []byte // declared types of locals beyond parameters, in order
	nextLocal uint32
	labels []label
	err    error
}

// NewFuncBuilder creates a builder for a function with the given parameter
// types; params occupy local indices [0, len(params)).
func NewFuncBuilder(params []byte) *FuncBuilder {
	return &FuncBuilder{nextLocal: uint32(len(params))}
}

// Err returns the first internal error encountered during emission, if any.
// A correct emitter never triggers one; it exists so mismatched operand
// types surface as errors instead of corrupting the byte stream silently.
func (f *FuncBuilder) Err() error {
	return f.err
}

func (f *FuncBuilder) fail(format string, args ...interface{}) {
	if f.err == nil {
		f.err = fmt.Errorf(format, args...)
	}
}

// AddLocal declares a new local variable of type t and returns its index.
func (f *FuncBuilder) AddLocal(t byte) uint32 {
	idx := f.nextLocal
	f.nextLocal++
	f.locals = append(f.locals, t)
	return idx
}

// Locals returns the declared additional-local types, for passing to
// wasmenc.Func.
func (f *FuncBuilder) Locals() []byte {
	return f.locals
}

// Body returns the encoded instruction stream built so far. The caller is
// responsible for ensuring the function is properly terminated (the final
// top-level End is supplied by Finish).
func (f *FuncBuilder) Body() []byte {
	return f.body
}

func (f *FuncBuilder) push(t byte) {
	f.stack = append(f.stack, t)
}

func (f *FuncBuilder) pop(want byte) {
	if len(f.stack) == 0 {
		f.fail("operand stack underflow, wanted %#x", want)
		return
	}
	got := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	if got != want {
		f.fail("operand type mismatch: wanted %#x, got %#x", want, got)
	}
}

func (f *FuncBuilder) emit(b ...byte) {
	f.body = append(f.body, b...)
}

// Finish appends the closing End opcode for the function body itself and
// returns the completed instruction stream.
func (f *FuncBuilder) Finish() ([]byte, error) {
	if len(f.labels) != 0 {
		f.fail("function ended with %d open control blocks", len(f.labels))
	}
	f.emit(wasmenc.OpEnd)
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

// --- Control flow ---

// Block opens a block construct with an empty result type.
func (f *FuncBuilder) Block() {
	f.emit(wasmenc.OpBlock, wasmenc.BlockTypeEmpty)
	f.labels = append(f.labels, label{kind: labelBlock, stackDepth: len(f.stack)})
}

// Loop opens a loop construct with an empty result type. `br 0` inside the
// loop body jumps back to its start, not past its end.
func (f *FuncBuilder) Loop() {
	f.emit(wasmenc.OpLoop, wasmenc.BlockTypeEmpty)
	f.labels = append(f.labels, label{kind: labelLoop, stackDepth: len(f.stack)})
}

// If pops an i32 condition and opens an if construct with an empty result
// type.
func (f *FuncBuilder) If() {
	f.pop(wasmenc.ValI32)
	f.emit(wasmenc.OpIf, wasmenc.BlockTypeEmpty)
	f.labels = append(f.labels, label{kind: labelIf, stackDepth: len(f.stack)})
}

// Else emits the else branch of the innermost if construct.
func (f *FuncBuilder) Else() {
	if len(f.labels) == 0 || f.labels[len(f.labels)-1].kind != labelIf {
		f.fail("else outside of if")
		return
	}
	f.stack = f.stack[:f.labels[len(f.labels)-1].stackDepth]
	f.emit(wasmenc.OpElse)
}

// End closes the innermost open control construct.
func (f *FuncBuilder) End() {
	if len(f.labels) == 0 {
		f.fail("end with no open control block")
		return
	}
	l := f.labels[len(f.labels)-1]
	f.labels = f.labels[:len(f.labels)-1]
	f.stack = f.stack[:l.stackDepth]
	f.emit(wasmenc.OpEnd)
}

// Br branches to the control construct depth levels out (0 = innermost).
func (f *FuncBuilder) Br(depth uint32) {
	if int(depth) >= len(f.labels) {
		f.fail("branch to out-of-scope label at depth %d", depth)
		return
	}
	f.emit(wasmenc.OpBr)
	f.emit(wasmenc.EncodeU32(depth)...)
}

// BrIf pops an i32 condition and conditionally branches to the construct
// depth levels out.
func (f *FuncBuilder) BrIf(depth uint32) {
	f.pop(wasmenc.ValI32)
	if int(depth) >= len(f.labels) {
		f.fail("branch to out-of-scope label at depth %d", depth)
		return
	}
	f.emit(wasmenc.OpBrIf)
	f.emit(wasmenc.EncodeU32(depth)...)
}

// BrTable pops an i32 index and branches to targets[index], or to def if
// index is out of range.
func (f *FuncBuilder) BrTable(targets []uint32, def uint32) {
	f.pop(wasmenc.ValI32)
	f.emit(wasmenc.OpBrTable)
	f.emit(wasmenc.EncodeU32(uint32(len(targets)))...)
	for _, t := range targets {
		f.emit(wasmenc.EncodeU32(t)...)
	}
	f.emit(wasmenc.EncodeU32(def)...)
}

// Return pops the given result types (usually 0 or 1 value) and emits a
// return instruction.
func (f *FuncBuilder) Return(results ...byte) {
	for i := len(results) - 1; i >= 0; i-- {
		f.pop(results[i])
	}
	f.emit(wasmenc.OpReturn)
}

// Unreachable emits the trap instruction.
func (f *FuncBuilder) Unreachable() {
	f.emit(wasmenc.OpUnreachable)
}

// --- Locals / globals ---

func (f *FuncBuilder) LocalGet(idx uint32, t byte) {
	f.emit(wasmenc.OpLocalGet)
	f.emit(wasmenc.EncodeU32(idx)...)
	f.push(t)
}

func (f *FuncBuilder) LocalSet(idx uint32, t byte) {
	f.pop(t)
	f.emit(wasmenc.OpLocalSet)
	f.emit(wasmenc.EncodeU32(idx)...)
}

func (f *FuncBuilder) LocalTee(idx uint32, t byte) {
	f.pop(t)
	f.emit(wasmenc.OpLocalTee)
	f.emit(wasmenc.EncodeU32(idx)...)
	f.push(t)
}

func (f *FuncBuilder) GlobalGet(idx uint32, t byte) {
	f.emit(wasmenc.OpGlobalGet)
	f.emit(wasmenc.EncodeU32(idx)...)
	f.push(t)
}

func (f *FuncBuilder) GlobalSet(idx uint32, t byte) {
	f.pop(t)
	f.emit(wasmenc.OpGlobalSet)
	f.emit(wasmenc.EncodeU32(idx)...)
}

// --- Constants ---

func (f *FuncBuilder) I32Const(v int32) {
	f.emit(wasmenc.OpI32Const)
	f.emit(wasmenc.EncodeI32(v)...)
	f.push(wasmenc.ValI32)
}

func (f *FuncBuilder) I64Const(v int64) {
	f.emit(wasmenc.OpI64Const)
	f.emit(wasmenc.EncodeI64(v)...)
	f.push(wasmenc.ValI64)
}

// --- Drop ---

func (f *FuncBuilder) Drop(t byte) {
	f.pop(t)
	f.emit(wasmenc.OpDrop)
}

// --- i32/i64 arithmetic, comparison, bitwise ---

func (f *FuncBuilder) binOp(op byte, operand, result byte) {
	f.pop(operand)
	f.pop(operand)
	f.emit(op)
	f.push(result)
}

func (f *FuncBuilder) unOp(op byte, operand, result byte) {
	f.pop(operand)
	f.emit(op)
	f.push(result)
}

func (f *FuncBuilder) I32Add() { f.binOp(wasmenc.OpI32Add, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32Sub() { f.binOp(wasmenc.OpI32Sub, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32Mul() { f.binOp(wasmenc.OpI32Mul, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32And() { f.binOp(wasmenc.OpI32And, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32Or() { f.binOp(wasmenc.OpI32Or, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32Xor() { f.binOp(wasmenc.OpI32Xor, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32Shl() { f.binOp(wasmenc.OpI32Shl, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32ShrU() { f.binOp(wasmenc.OpI32ShrU, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32Eq() { f.binOp(wasmenc.OpI32Eq, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32Ne() { f.binOp(wasmenc.OpI32Ne, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32LeU() { f.binOp(wasmenc.OpI32LeU, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32LtU() { f.binOp(wasmenc.OpI32LtU, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32GeU() { f.binOp(wasmenc.OpI32GeU, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32GtU() { f.binOp(wasmenc.OpI32GtU, wasmenc.ValI32, wasmenc.ValI32) }
func (f *FuncBuilder) I32Eqz() { f.unOp(wasmenc.OpI32Eqz, wasmenc.ValI32, wasmenc.ValI32) }

func (f *FuncBuilder) I64Add() { f.binOp(wasmenc.OpI64Add, wasmenc.ValI64, wasmenc.ValI64) }
func (f *FuncBuilder) I64Sub() { f.binOp(wasmenc.OpI64Sub, wasmenc.ValI64, wasmenc.ValI64) }
func (f *FuncBuilder) I64Eq()  { f.binOp(wasmenc.OpI64Eq, wasmenc.ValI64, wasmenc.ValI32) }
func (f *FuncBuilder) I64Ne()  { f.binOp(wasmenc.OpI64Ne, wasmenc.ValI64, wasmenc.ValI32) }
func (f *FuncBuilder) I64LtU() { f.binOp(wasmenc.OpI64LtU, wasmenc.ValI64, wasmenc.ValI32) }
func (f *FuncBuilder) I64LeU() { f.binOp(wasmenc.OpI64LeU, wasmenc.ValI64, wasmenc.ValI32) }
func (f *FuncBuilder) I64GtU() { f.binOp(wasmenc.OpI64GtU, wasmenc.ValI64, wasmenc.ValI32) }
func (f *FuncBuilder) I64GeU() { f.binOp(wasmenc.OpI64GeU, wasmenc.ValI64, wasmenc.ValI32) }

func (f *FuncBuilder) I32WrapI64() { f.unOp(wasmenc.OpI32WrapI64, wasmenc.ValI64, wasmenc.ValI32) }
func (f *FuncBuilder) I64ExtendI32U() { f.unOp(wasmenc.OpI64ExtendI32U, wasmenc.ValI32, wasmenc.ValI64) }

// --- Memory ---

// I32Load8U pops an i32 address and pushes the zero-extended byte at it.
func (f *FuncBuilder) I32Load8U(align, offset uint32) {
	f.pop(wasmenc.ValI32)
	f.emit(wasmenc.OpI32Load8U)
	f.emit(wasmenc.EncodeU32(align)...)
	f.emit(wasmenc.EncodeU32(offset)...)
	f.push(wasmenc.ValI32)
}

// I32Store8 pops an i32 value and an i32 address, storing the low byte.
func (f *FuncBuilder) I32Store8(align, offset uint32) {
	f.pop(wasmenc.ValI32)
	f.pop(wasmenc.ValI32)
	f.emit(wasmenc.OpI32Store8)
	f.emit(wasmenc.EncodeU32(align)...)
	f.emit(wasmenc.EncodeU32(offset)...)
}

// MemoryGrow pops a delta page count and pushes the previous page count (or
// -1 on failure).
func (f *FuncBuilder) MemoryGrow() {
	f.pop(wasmenc.ValI32)
	f.emit(wasmenc.OpMemoryGrow)
	f.emit(0x00)
	f.push(wasmenc.ValI32)
}

// MemorySize pushes the current page count.
func (f *FuncBuilder) MemorySize() {
	f.emit(wasmenc.OpMemorySize)
	f.emit(0x00)
	f.push(wasmenc.ValI32)
}
