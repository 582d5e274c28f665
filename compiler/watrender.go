package compiler

import (
	"fmt"
	"strings"

	"github.com/wahgex/wahgex/wasmenc"
)

// RenderWAT produces a best-effort, human-readable textual rendering of
// mod for diagnostics (debugging a compiled pattern, inspecting layout
// decisions). It disassembles the subset of opcodes this package ever
// emits; it is not a general WASM disassembler and does not aim to
// round-trip through a WAT parser.
func RenderWAT(mod *wasmenc.Module, pattern string) string {
	var b strings.Builder
	fmt.Fprintf(&b, ";; pattern: %q\n", pattern)
	fmt.Fprintf(&b, "(module\n")
	for i, mem := range mod.Memories {
		if mem.HasMax {
			fmt.Fprintf(&b, "  (memory (;%d;) %d %d)\n", i, mem.Min, mem.Max)
		} else {
			fmt.Fprintf(&b, "  (memory (;%d;) %d)\n", i, mem.Min)
		}
	}
	for i, g := range mod.Globals {
		mut := ""
		if g.Mutable {
			mut = "mut "
		}
		fmt.Fprintf(&b, "  (global (;%d;) (%s%s) (i32.const %d))\n", i, mut, valTypeName(g.Type), g.Init)
	}
	for _, e := range mod.Exports {
		fmt.Fprintf(&b, "  (export %q (%s %d))\n", e.Name, exportKindName(e.Kind), e.Idx)
	}
	for i, f := range mod.Funcs {
		t := mod.Types[f.TypeIdx]
		fmt.Fprintf(&b, "  (func (;%d;) (param %s) (result %s)\n", i, valTypeNames(t.Params), valTypeNames(t.Results))
		disassemble(&b, f.Body, "    ")
		fmt.Fprintf(&b, "  )\n")
	}
	fmt.Fprintf(&b, ")\n")
	return b.String()
}

func valTypeName(t byte) string {
	switch t {
	case wasmenc.ValI32:
		return "i32"
	case wasmenc.ValI64:
		return "i64"
	case wasmenc.ValF32:
		return "f32"
	case wasmenc.ValF64:
		return "f64"
	default:
		return "?"
	}
}

func valTypeNames(ts []byte) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = valTypeName(t)
	}
	return strings.Join(names, " ")
}

func exportKindName(k byte) string {
	switch k {
	case wasmenc.ExportKindFunc:
		return "func"
	case wasmenc.ExportKindMemory:
		return "memory"
	case wasmenc.ExportKindGlobal:
		return "global"
	case wasmenc.ExportKindTable:
		return "table"
	default:
		return "?"
	}
}

// disassemble renders body as one mnemonic per line, indenting nested
// blocks. Unknown opcodes are rendered as a raw hex byte so the output
// degrades gracefully rather than panicking.
func disassemble(b *strings.Builder, body []byte, indent string) {
	depth := 0
	pos := 0
	for pos < len(body) {
		op := body[pos]
		pos++
		line, consumed := decodeOne(op, body[pos:])
		pos += consumed

		cur := indent + strings.Repeat("  ", depth)
		switch op {
		case wasmenc.OpEnd:
			if depth > 0 {
				depth--
				cur = indent + strings.Repeat("  ", depth)
			}
		case wasmenc.OpBlock, wasmenc.OpLoop, wasmenc.OpIf:
			defer func() {}() // no-op, depth increases after printing this line
		}
		fmt.Fprintf(b, "%s%s\n", cur, line)
		switch op {
		case wasmenc.OpBlock, wasmenc.OpLoop, wasmenc.OpIf:
			depth++
		}
	}
}

// decodeOne returns a mnemonic for a single instruction at body[0] (the
// opcode already consumed by the caller) and how many immediate bytes it
// read from body.
func decodeOne(op byte, body []byte) (string, int) {
	switch op {
	case wasmenc.OpEnd:
		return "end", 0
	case wasmenc.OpElse:
		return "else", 0
	case wasmenc.OpUnreachable:
		return "unreachable", 0
	case wasmenc.OpReturn:
		return "return", 0
	case wasmenc.OpDrop:
		return "drop", 0
	case wasmenc.OpBlock:
		return "block", 1
	case wasmenc.OpLoop:
		return "loop", 1
	case wasmenc.OpIf:
		return "if", 1
	case wasmenc.OpBr, wasmenc.OpBrIf:
		v, n := decodeULEB(body)
		name := "br"
		if op == wasmenc.OpBrIf {
			name = "br_if"
		}
		return fmt.Sprintf("%s %d", name, v), n
	case wasmenc.OpLocalGet, wasmenc.OpLocalSet, wasmenc.OpLocalTee:
		v, n := decodeULEB(body)
		name := map[byte]string{wasmenc.OpLocalGet: "local.get", wasmenc.OpLocalSet: "local.set", wasmenc.OpLocalTee: "local.tee"}[op]
		return fmt.Sprintf("%s %d", name, v), n
	case wasmenc.OpGlobalGet, wasmenc.OpGlobalSet:
		v, n := decodeULEB(body)
		name := "global.get"
		if op == wasmenc.OpGlobalSet {
			name = "global.set"
		}
		return fmt.Sprintf("%s %d", name, v), n
	case wasmenc.OpI32Const:
		v, n := decodeSLEB(body)
		return fmt.Sprintf("i32.const %d", v), n
	case wasmenc.OpI64Const:
		v, n := decodeSLEB(body)
		return fmt.Sprintf("i64.const %d", v), n
	case wasmenc.OpI32Load8U, wasmenc.OpI32Store8:
		a, na := decodeULEB(body)
		o, no := decodeULEB(body[na:])
		name := "i32.load8_u"
		if op == wasmenc.OpI32Store8 {
			name = "i32.store8"
		}
		return fmt.Sprintf("%s align=%d offset=%d", name, a, o), na + no
	case wasmenc.OpMemoryGrow, wasmenc.OpMemorySize:
		_, n := decodeULEB(body)
		name := "memory.grow"
		if op == wasmenc.OpMemorySize {
			name = "memory.size"
		}
		return name, n
	case wasmenc.OpBrTable:
		count, n := decodeULEB(body)
		total := n
		for i := uint64(0); i < count; i++ {
			_, m := decodeULEB(body[total:])
			total += m
		}
		_, m := decodeULEB(body[total:])
		total += m
		return "br_table ...", total
	default:
		if name, ok := simpleMnemonics[op]; ok {
			return name, 0
		}
		return fmt.Sprintf("??0x%02x", op), 0
	}
}

var simpleMnemonics = map[byte]string{
	wasmenc.OpI32Add: "i32.add", wasmenc.OpI32Sub: "i32.sub", wasmenc.OpI32Mul: "i32.mul",
	wasmenc.OpI32And: "i32.and", wasmenc.OpI32Or: "i32.or", wasmenc.OpI32Xor: "i32.xor",
	wasmenc.OpI32Shl: "i32.shl", wasmenc.OpI32ShrU: "i32.shr_u",
	wasmenc.OpI32Eq: "i32.eq", wasmenc.OpI32Ne: "i32.ne", wasmenc.OpI32Eqz: "i32.eqz",
	wasmenc.OpI32LeU: "i32.le_u", wasmenc.OpI32LtU: "i32.lt_u", wasmenc.OpI32GeU: "i32.ge_u", wasmenc.OpI32GtU: "i32.gt_u",
	wasmenc.OpI64Add: "i64.add", wasmenc.OpI64Sub: "i64.sub",
	wasmenc.OpI64Eq: "i64.eq", wasmenc.OpI64Ne: "i64.ne",
	wasmenc.OpI64LeU: "i64.le_u", wasmenc.OpI64LtU: "i64.lt_u", wasmenc.OpI64GeU: "i64.ge_u", wasmenc.OpI64GtU: "i64.gt_u",
	wasmenc.OpI32WrapI64: "i32.wrap_i64", wasmenc.OpI64ExtendI32U: "i64.extend_i32_u",
}

func decodeULEB(body []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i, b := range body {
		v |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	return v, len(body)
}

func decodeSLEB(body []byte) (int64, int) {
	var v int64
	var shift uint
	for i, b := range body {
		v |= int64(b&0x7F) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				v |= -1 << shift
			}
			return v, i + 1
		}
	}
	return v, len(body)
}
