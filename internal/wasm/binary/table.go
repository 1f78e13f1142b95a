package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

func encodeTable(t *wasm.TableType) []byte {
	return append([]byte{t.ElemType}, encodeLimitsType(t.Limit)...)
}

func decodeTable(r io.Reader) (*wasm.TableType, error) {
	b, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}
	if b != wasm.ElemTypeFuncref {
		return nil, fmt.Errorf("invalid element type %#x != funcref(0x70)", b)
	}

	limit, err := decodeLimitsType(r)
	if err != nil {
		return nil, fmt.Errorf("read limits: %w", err)
	}
	if limit.Max != nil && limit.Min > *limit.Max {
		return nil, fmt.Errorf("table size minimum must not be greater than maximum")
	}
	if limit.Min > wasm.MaximumFunctionIndex {
		return nil, fmt.Errorf("table min must be at most %d", wasm.MaximumFunctionIndex)
	}
	if limit.Max != nil && *limit.Max > wasm.MaximumFunctionIndex {
		return nil, fmt.Errorf("table max must be at most %d", wasm.MaximumFunctionIndex)
	}

	return &wasm.TableType{ElemType: b, Limit: limit}, nil
}

func decodeTableSection(r io.Reader) ([]*wasm.TableType, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	if count > 1 {
		return nil, fmt.Errorf("at most one table allowed in module, but read %d", count)
	}

	ret := make([]*wasm.TableType, count)
	for i := range ret {
		t, err := decodeTable(r)
		if err != nil {
			return nil, fmt.Errorf("read table: %w", err)
		}
		ret[i] = t
	}
	return ret, nil
}

func encodeTableSection(tables []*wasm.TableType) []byte {
	cnt := leb128.EncodeUint32(uint32(len(tables)))
	var contents []byte
	for _, t := range tables {
		contents = append(contents, encodeTable(t)...)
	}
	return encodeSection(wasm.SectionIDTable, append(cnt, contents...))
}
