package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/api"
	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// decodeDataSegment reads one entry of the data section, per the
// bulk-memory-operations proposal's three-way segment prefix: 0 is active
// against memory 0 (the only form the MVP itself defines), 1 is passive,
// and 2 is active against an explicit memory index.
func decodeDataSegment(r io.Reader, features api.CoreFeatures, target *wasm.DataSegment) error {
	prefix, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("read data segment prefix: %w", err)
	}

	switch prefix {
	case 0, 1, 2:
	default:
		return fmt.Errorf("invalid data segment prefix: %#x", prefix)
	}

	if prefix != 0 {
		if err := features.RequireEnabled(api.CoreFeatureBulkMemoryOperations); err != nil {
			return fmt.Errorf("non-zero prefix for data segment is invalid as %w", err)
		}
	}

	if prefix == 1 {
		target.Passive = true
	} else {
		if prefix == 2 {
			memIdx, _, err := leb128.DecodeUint32(r)
			if err != nil {
				return fmt.Errorf("read memory index: %w", err)
			}
			if memIdx != 0 {
				return fmt.Errorf("memory index must be zero but was %d", memIdx)
			}
			target.MemoryIndex = memIdx
		}
		if err := decodeConstantExpression(r, features, &target.OffsetExpression); err != nil {
			return fmt.Errorf("read offset expression: %w", err)
		}
	}

	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("read data segment size: %w", err)
	}
	init := make([]byte, vs)
	if _, err := io.ReadFull(r, init); err != nil {
		return fmt.Errorf("read data segment init: %w", err)
	}
	target.Init = init
	return nil
}

func decodeDataSection(r io.Reader, features api.CoreFeatures) ([]*wasm.DataSegment, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	ret := make([]*wasm.DataSegment, count)
	for i := range ret {
		d := &wasm.DataSegment{}
		if err := decodeDataSegment(r, features, d); err != nil {
			return nil, fmt.Errorf("data[%d]: %w", i, err)
		}
		ret[i] = d
	}
	return ret, nil
}
