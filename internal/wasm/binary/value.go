package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

func decodeValueType(b byte) error {
	switch b {
	case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64,
		wasm.ValueTypeFuncref, wasm.ValueTypeExternref:
		return nil
	default:
		return fmt.Errorf("invalid value type: %d", b)
	}
}

func decodeValueTypes(r io.Reader, count uint32) ([]wasm.ValueType, error) {
	if count == 0 {
		return nil, nil
	}
	ret := make([]wasm.ValueType, count)
	buf := make([]byte, count)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	for i, b := range buf {
		if err := decodeValueType(b); err != nil {
			return nil, err
		}
		ret[i] = b
	}
	return ret, nil
}

// decodeUTF8 reads a length-prefixed UTF-8 string, returning the string
// and the total number of bytes consumed including the length prefix.
// context is included in any error so callers need not wrap it further.
func decodeUTF8(r io.Reader, context string) (string, uint32, error) {
	size, sizeLen, err := leb128.DecodeUint32(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s size: %w", context, err)
	}
	if size == 0 {
		return "", uint32(sizeLen), nil
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", context, err)
	}
	return string(buf), uint32(sizeLen) + size, nil
}
