package wasmenc

var (
	wasmMagic   = []byte{0x00, 0x61, 0x73, 0x6D}
	wasmVersion = []byte{0x01, 0x00, 0x00, 0x00}
)

// FuncType is a function signature: parameter and result value types.
type FuncType struct {
	Params  []byte
	Results []byte
}

// Export describes a single export entry.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Memory describes a linear memory's page limits.
type Memory struct {
	Min uint32
	Max uint32 // 0 with HasMax=false means unbounded
	HasMax bool
}

// DataSegment is an active data segment. Core WASM 1.0 (the version this
// encoder targets) permits at most one memory per module, so segments are
// always implicitly against memory 0.
type DataSegment struct {
	Offset int32
	Bytes  []byte
}

// Global describes a single mutable or immutable global of the given type,
// initialized with a constant i64 (the only kind this compiler needs).
type Global struct {
	Type    byte
	Mutable bool
	Init    int64
}

// Func is a function's body: declared locals (beyond its parameters) and
// its encoded instruction stream, terminated by an explicit End opcode.
type Func struct {
	TypeIdx uint32
	Locals  []byte // value type per additional local, in declaration order
	Body    []byte
}

// Module is an assembled, encodable description of a WASM core module.
// Fields are populated directly by the caller; Encode serializes them in
// the section order the spec requires.
type Module struct {
	Types    []FuncType
	Funcs    []Func
	Memories []Memory
	Globals  []Global
	Exports  []Export
	Data     []DataSegment
}

// AddType registers a function signature and returns its type index,
// deduplicating identical signatures.
func (m *Module) AddType(params, results []byte) uint32 {
	for i, t := range m.Types {
		if sigEqual(t.Params, params) && sigEqual(t.Results, results) {
			return uint32(i)
		}
	}
	idx := uint32(len(m.Types))
	m.Types = append(m.Types, FuncType{Params: append([]byte{}, params...), Results: append([]byte{}, results...)})
	return idx
}

func sigEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AddFunc registers a function body and returns its function index.
func (m *Module) AddFunc(typeIdx uint32, locals []byte, body []byte) uint32 {
	idx := uint32(len(m.Funcs))
	m.Funcs = append(m.Funcs, Func{TypeIdx: typeIdx, Locals: locals, Body: body})
	return idx
}

// AddMemory registers a linear memory and returns its memory index.
func (m *Module) AddMemory(min, max uint32, hasMax bool) uint32 {
	idx := uint32(len(m.Memories))
	m.Memories = append(m.Memories, Memory{Min: min, Max: max, HasMax: hasMax})
	return idx
}

// AddGlobal registers a global and returns its global index.
func (m *Module) AddGlobal(valType byte, mutable bool, init int64) uint32 {
	idx := uint32(len(m.Globals))
	m.Globals = append(m.Globals, Global{Type: valType, Mutable: mutable, Init: init})
	return idx
}

// AddExport registers an export entry.
func (m *Module) AddExport(name string, kind byte, idx uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Idx: idx})
}

// AddData registers an active data segment against memory 0.
func (m *Module) AddData(offset int32, data []byte) {
	m.Data = append(m.Data, DataSegment{Offset: offset, Bytes: data})
}

// Encode serializes the module to the binary WASM core module format.
func (m *Module) Encode() []byte {
	var out []byte
	out = append(out, wasmMagic...)
	out = append(out, wasmVersion...)

	if len(m.Types) > 0 {
		out = append(out, m.encodeTypeSection()...)
	}
	if len(m.Funcs) > 0 {
		out = append(out, m.encodeFunctionSection()...)
	}
	if len(m.Memories) > 0 {
		out = append(out, m.encodeMemorySection()...)
	}
	if len(m.Globals) > 0 {
		out = append(out, m.encodeGlobalSection()...)
	}
	if len(m.Exports) > 0 {
		out = append(out, m.encodeExportSection()...)
	}
	if len(m.Funcs) > 0 {
		out = append(out, m.encodeCodeSection()...)
	}
	if len(m.Data) > 0 {
		out = append(out, m.encodeDataSection()...)
	}
	return out
}

func encodeSection(id byte, body []byte) []byte {
	out := []byte{id}
	out = append(out, EncodeU32(uint32(len(body)))...)
	return append(out, body...)
}

func (m *Module) encodeTypeSection() []byte {
	var body []byte
	for _, t := range m.Types {
		body = append(body, 0x60)
		body = append(body, EncodeVec(len(t.Params), t.Params)...)
		body = append(body, EncodeVec(len(t.Results), t.Results)...)
	}
	return encodeSection(SecType, EncodeVec(len(m.Types), body))
}

func (m *Module) encodeFunctionSection() []byte {
	var body []byte
	for _, f := range m.Funcs {
		body = append(body, EncodeU32(f.TypeIdx)...)
	}
	return encodeSection(SecFunction, EncodeVec(len(m.Funcs), body))
}

func (m *Module) encodeMemorySection() []byte {
	var body []byte
	for _, mem := range m.Memories {
		if mem.HasMax {
			body = append(body, 0x01)
			body = append(body, EncodeU32(mem.Min)...)
			body = append(body, EncodeU32(mem.Max)...)
		} else {
			body = append(body, 0x00)
			body = append(body, EncodeU32(mem.Min)...)
		}
	}
	return encodeSection(SecMemory, EncodeVec(len(m.Memories), body))
}

func (m *Module) encodeGlobalSection() []byte {
	var body []byte
	for _, g := range m.Globals {
		body = append(body, g.Type)
		if g.Mutable {
			body = append(body, 0x01)
		} else {
			body = append(body, 0x00)
		}
		switch g.Type {
		case ValI32:
			body = append(body, OpI32Const)
			body = append(body, EncodeI32(int32(g.Init))...)
		default:
			body = append(body, OpI64Const)
			body = append(body, EncodeI64(g.Init)...)
		}
		body = append(body, OpEnd)
	}
	return encodeSection(SecGlobal, EncodeVec(len(m.Globals), body))
}

func (m *Module) encodeExportSection() []byte {
	var body []byte
	for _, e := range m.Exports {
		body = append(body, EncodeName(e.Name)...)
		body = append(body, e.Kind)
		body = append(body, EncodeU32(e.Idx)...)
	}
	return encodeSection(SecExport, EncodeVec(len(m.Exports), body))
}

func (m *Module) encodeCodeSection() []byte {
	var body []byte
	for _, f := range m.Funcs {
		encoded := encodeFuncBody(f)
		body = append(body, EncodeU32(uint32(len(encoded)))...)
		body = append(body, encoded...)
	}
	return encodeSection(SecCode, EncodeVec(len(m.Funcs), body))
}

func encodeFuncBody(f Func) []byte {
	groups := compactLocals(f.Locals)
	var out []byte
	out = append(out, EncodeU32(uint32(len(groups)))...)
	for _, g := range groups {
		out = append(out, EncodeU32(uint32(g.count))...)
		out = append(out, g.valType)
	}
	out = append(out, f.Body...)
	return out
}

type localGroup struct {
	count   int
	valType byte
}

func compactLocals(types []byte) []localGroup {
	if len(types) == 0 {
		return nil
	}
	groups := []localGroup{{count: 1, valType: types[0]}}
	for _, t := range types[1:] {
		last := &groups[len(groups)-1]
		if last.valType == t {
			last.count++
		} else {
			groups = append(groups, localGroup{count: 1, valType: t})
		}
	}
	return groups
}

func (m *Module) encodeDataSection() []byte {
	var body []byte
	for _, d := range m.Data {
		body = append(body, 0x00)
		body = append(body, OpI32Const)
		body = append(body, EncodeI32(d.Offset)...)
		body = append(body, OpEnd)
		body = append(body, EncodeVec(len(d.Bytes), d.Bytes)...)
	}
	return encodeSection(SecData, EncodeVec(len(m.Data), body))
}
