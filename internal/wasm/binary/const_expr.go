package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/api"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// readVarintBytes reads a LEB128-encoded integer from r one byte at a time,
// returning every byte consumed including the terminal byte whose
// continuation bit is clear. It works for both signed and unsigned
// encodings since the termination condition is the same for both.
func readVarintBytes(r io.Reader) ([]byte, error) {
	var buf [1]byte
	var data []byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		data = append(data, buf[0])
		if buf[0]&0x80 == 0 {
			return data, nil
		}
	}
}

func readFixedBytes(r io.Reader, n int) ([]byte, error) {
	data := make([]byte, n)
	read, err := io.ReadFull(r, data)
	if err != nil {
		if read == 0 {
			return nil, err
		}
		return nil, fmt.Errorf("needs %d bytes but was %d bytes", n, read)
	}
	return data, nil
}

// decodeConstantExpression reads one of the instructions valid as a global
// initializer or an element/data segment offset: an i32/i64/f32/f64 const,
// a global.get, or, when the relevant proposal is enabled, a ref.null,
// ref.func or v128.const.
func decodeConstantExpression(r io.Reader, features api.CoreFeatures, target *wasm.ConstantExpression) error {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return fmt.Errorf("read opcode: %w", err)
	}
	op := b[0]

	var data []byte
	switch op {
	case wasm.OpcodeI32Const, wasm.OpcodeI64Const, wasm.OpcodeGlobalGet:
		var err error
		data, err = readVarintBytes(r)
		if err != nil {
			return fmt.Errorf("read immediate: %w", err)
		}
	case wasm.OpcodeF32Const:
		var err error
		data, err = readFixedBytes(r, 4)
		if err != nil {
			return fmt.Errorf("read f32.const immediate: %w", err)
		}
	case wasm.OpcodeF64Const:
		var err error
		data, err = readFixedBytes(r, 8)
		if err != nil {
			return fmt.Errorf("read f64.const immediate: %w", err)
		}
	case wasm.OpcodeRefFunc:
		if err := features.RequireEnabled(api.CoreFeatureBulkMemoryOperations); err != nil {
			return fmt.Errorf("ref.func is not supported as %w", err)
		}
		var err error
		data, err = readVarintBytes(r)
		if err != nil {
			return fmt.Errorf("read ref.func immediate: %w", err)
		}
	case wasm.OpcodeRefNull:
		if err := features.RequireEnabled(api.CoreFeatureBulkMemoryOperations); err != nil {
			return fmt.Errorf("ref.null is not supported as %w", err)
		}
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return fmt.Errorf("read reference type for ref.null: %w", err)
		}
		if b[0] != wasm.RefTypeFuncref && b[0] != wasm.RefTypeExternref {
			return fmt.Errorf("invalid type for ref.null: %#x", b[0])
		}
		data = []byte{b[0]}
	case wasm.OpcodeVecPrefix:
		if err := features.RequireEnabled(api.CoreFeatureSIMD); err != nil {
			return fmt.Errorf("vector instructions are not supported as %w", err)
		}
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return fmt.Errorf("read vector instruction opcode suffix: %w", err)
		}
		if b[0] != wasm.OpcodeVecV128Const {
			return fmt.Errorf("invalid vector opcode for const expression: %#x", b[0])
		}
		op = wasm.OpcodeVecV128Const
		var err error
		data, err = readFixedBytes(r, 16)
		if err != nil {
			return fmt.Errorf("read vector const instruction immediates: %w", err)
		}
	default:
		return fmt.Errorf("invalid opcode for const expression: %#x", op)
	}

	if _, err := io.ReadFull(r, b[:]); err != nil {
		return fmt.Errorf("look for end opcode: %w", err)
	}
	if b[0] != wasm.OpcodeEnd {
		return fmt.Errorf("constant expression has been not terminated")
	}

	target.Opcode = op
	target.Data = data
	return nil
}
