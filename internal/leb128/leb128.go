// Package leb128 implements the variable-length integer encoding used
// throughout the WebAssembly binary format: LEB128, bounded to the decode
// widths the binary format spec requires for each integer kind.
package leb128

import (
	"fmt"
	"io"
)

// decodeWidths are the maximum number of LEB128 bytes for value types the
// binary format uses. An encoding that does not terminate within this many
// bytes is malformed.
const (
	u32Bytes = 5
	u64Bytes = 10
	i32Bytes = 5
	i64Bytes = 10
)

func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// DecodeUint32 decodes an unsigned LEB128 value bounded to 32 bits, reading
// at most 5 bytes. The final continuation byte must not carry bits beyond
// bit 31 (non-canonical encodings are rejected).
func DecodeUint32(r io.Reader) (uint32, uint64, error) {
	v, n, err := decodeUint(r, 32, u32Bytes)
	return uint32(v), n, err
}

// DecodeUint64 decodes an unsigned LEB128 value bounded to 64 bits, reading
// at most 10 bytes.
func DecodeUint64(r io.Reader) (uint64, uint64, error) {
	return decodeUint(r, 64, u64Bytes)
}

func decodeUint(r io.Reader, width int, maxBytes int) (uint64, uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxBytes; i++ {
		b, err := readByte(r)
		if err != nil {
			return 0, 0, err
		}
		n := uint64(i + 1)
		if i == maxBytes-1 {
			// Last allowed byte: any bit at or above `width` must be zero.
			allowed := byte(0)
			if rem := width - int(shift); rem > 0 && rem < 8 {
				allowed = byte(1<<uint(rem)) - 1
			} else if rem >= 8 {
				allowed = 0x7f
			}
			if b&0x80 != 0 {
				return 0, 0, fmt.Errorf("leb128: too many continuation bytes, exceeds %d-byte limit", maxBytes)
			}
			if b&^allowed != 0 {
				return 0, 0, fmt.Errorf("leb128: integer representation too large for %d bits", width)
			}
			result |= uint64(b) << shift
			return result, n, nil
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, n, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("leb128: exceeds %d-byte limit", maxBytes)
}

// LoadUint32 decodes an unsigned LEB128 value bounded to 32 bits directly
// from a byte slice, avoiding the io.Reader indirection on the hot path
// used when a section's raw bytes are already materialized.
func LoadUint32(b []byte) (uint32, uint64, error) {
	v, n, err := loadUint(b, 32, u32Bytes)
	return uint32(v), n, err
}

// LoadUint64 decodes an unsigned LEB128 value bounded to 64 bits directly
// from a byte slice.
func LoadUint64(b []byte) (uint64, uint64, error) {
	return loadUint(b, 64, u64Bytes)
}

func loadUint(b []byte, width int, maxBytes int) (uint64, uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxBytes; i++ {
		if i >= len(b) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		c := b[i]
		n := uint64(i + 1)
		if i == maxBytes-1 {
			allowed := byte(0)
			if rem := width - int(shift); rem > 0 && rem < 8 {
				allowed = byte(1<<uint(rem)) - 1
			} else if rem >= 8 {
				allowed = 0x7f
			}
			if c&0x80 != 0 {
				return 0, 0, fmt.Errorf("leb128: too many continuation bytes, exceeds %d-byte limit", maxBytes)
			}
			if c&^allowed != 0 {
				return 0, 0, fmt.Errorf("leb128: integer representation too large for %d bits", width)
			}
			result |= uint64(c) << shift
			return result, n, nil
		}
		result |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return result, n, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("leb128: exceeds %d-byte limit", maxBytes)
}

// LoadInt32 decodes a signed LEB128 value bounded to 32 bits directly from a
// byte slice.
func LoadInt32(b []byte) (int32, uint64, error) {
	v, n, err := loadInt(b, 32, i32Bytes)
	return int32(v), n, err
}

// LoadInt64 decodes a signed LEB128 value bounded to 64 bits directly from a
// byte slice.
func LoadInt64(b []byte) (int64, uint64, error) {
	return loadInt(b, 64, i64Bytes)
}

func loadInt(b []byte, width int, maxBytes int) (int64, uint64, error) {
	var result int64
	var shift uint
	for i := 0; i < maxBytes; i++ {
		if i >= len(b) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		c := b[i]
		n := uint64(i + 1)
		if i == maxBytes-1 {
			if c&0x80 != 0 {
				return 0, 0, fmt.Errorf("leb128: too many continuation bytes, exceeds %d-byte limit", maxBytes)
			}
			rem := width - int(shift)
			if !signExtensionConsistent(c, rem) {
				return 0, 0, fmt.Errorf("leb128: integer representation too large for %d bits", width)
			}
			result |= int64(c&0x7f) << shift
			shift += 7
			return signExtend(result, shift), n, nil
		}
		result |= int64(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			return signExtend(result, shift), n, nil
		}
	}
	return 0, 0, fmt.Errorf("leb128: exceeds %d-byte limit", maxBytes)
}

// DecodeInt32 decodes a signed LEB128 value bounded to 32 bits, reading at
// most 5 bytes.
func DecodeInt32(r io.Reader) (int32, uint64, error) {
	v, n, err := decodeInt(r, 32, i32Bytes)
	return int32(v), n, err
}

// DecodeInt33AsInt64 decodes a signed 33-bit LEB128 value (used for Wasm
// block-type immediates, which are a signed 32-bit type index squeezed into
// the sign-extended s33 encoding) and sign-extends it into an int64.
func DecodeInt33AsInt64(r io.Reader) (int64, uint64, error) {
	return decodeInt(r, 33, 5)
}

// DecodeInt64 decodes a signed LEB128 value bounded to 64 bits, reading at
// most 10 bytes.
func DecodeInt64(r io.Reader) (int64, uint64, error) {
	return decodeInt(r, 64, i64Bytes)
}

func decodeInt(r io.Reader, width int, maxBytes int) (int64, uint64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	var i int
	for i = 0; i < maxBytes; i++ {
		b, err = readByte(r)
		if err != nil {
			return 0, 0, err
		}
		n := uint64(i + 1)
		if i == maxBytes-1 {
			if b&0x80 != 0 {
				return 0, 0, fmt.Errorf("leb128: too many continuation bytes, exceeds %d-byte limit", maxBytes)
			}
			// Validate the high bits of the final byte are a sign-consistent
			// extension of the represented value.
			rem := width - int(shift)
			if !signExtensionConsistent(b, rem) {
				return 0, 0, fmt.Errorf("leb128: integer representation too large for %d bits", width)
			}
			result |= int64(b&0x7f) << shift
			shift += 7
			return signExtend(result, shift), n, nil
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			return signExtend(result, shift), n, nil
		}
	}
	return 0, 0, fmt.Errorf("leb128: exceeds %d-byte limit", maxBytes)
}

// signExtensionConsistent reports whether the filler bits of a final LEB128
// byte (the bits beyond the `rem` value bits still needed at the target
// width) form a valid sign extension of the last real value bit.
func signExtensionConsistent(c byte, rem int) bool {
	if rem >= 7 {
		return true
	}
	if rem <= 0 {
		return c&0x7f == 0 || c&0x7f == 0x7f
	}
	fillerMask := byte(0x7f &^ ((1 << uint(rem)) - 1))
	signBit := (c >> uint(rem-1)) & 1
	if signBit == 0 {
		return c&fillerMask == 0
	}
	return c&fillerMask == fillerMask
}

func signExtend(v int64, shift uint) int64 {
	if shift < 64 && v&(1<<(shift-1)) != 0 {
		v |= -1 << shift
	}
	return v
}

// EncodeUint32 encodes v as unsigned LEB128.
func EncodeUint32(v uint32) []byte {
	return EncodeUint64(uint64(v))
}

// EncodeUint64 encodes v as unsigned LEB128.
func EncodeUint64(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			return out
		}
	}
}

// EncodeInt32 encodes v as signed LEB128.
func EncodeInt32(v int32) []byte {
	return EncodeInt64(int64(v))
}

// EncodeInt64 encodes v as signed LEB128.
func EncodeInt64(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}
