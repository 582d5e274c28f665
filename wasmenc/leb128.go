// Package wasmenc encodes an abstract WASM module description into the
// binary core module format. It has no notion of regexes or NFAs; it is a
// general-purpose primitive for turning typed sections, instruction bytes,
// and data segments into a valid `.wasm` byte string.
package wasmenc

// EncodeU32 encodes v as an unsigned LEB128 varint.
func EncodeU32(v uint32) []byte {
	return EncodeU64(uint64(v))
}

// EncodeU64 encodes v as an unsigned LEB128 varint.
func EncodeU64(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

// EncodeI32 encodes v as a signed LEB128 varint.
func EncodeI32(v int32) []byte {
	return EncodeI64(int64(v))
}

// EncodeI64 encodes v as a signed LEB128 varint.
func EncodeI64(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7F)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

// EncodeVec prepends a ULEB128 element count to contents.
func EncodeVec(count int, contents []byte) []byte {
	out := EncodeU32(uint32(count))
	return append(out, contents...)
}

// EncodeName encodes a UTF-8 name as a length-prefixed byte vector.
func EncodeName(s string) []byte {
	return EncodeVec(len(s), []byte(s))
}
