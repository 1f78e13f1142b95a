package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// encodeSection prefixes contents with its section ID and LEB128 byte length.
func encodeSection(id wasm.SectionID, contents []byte) []byte {
	return append(append([]byte{id}, leb128.EncodeUint32(uint32(len(contents)))...), contents...)
}

func decodeFunctionSection(r io.Reader) ([]wasm.Index, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	ret := make([]wasm.Index, count)
	for i := range ret {
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("function[%d]: %w", i, err)
		}
		ret[i] = idx
	}
	return ret, nil
}

func encodeFunctionSection(typeIndices []wasm.Index) []byte {
	cnt := leb128.EncodeUint32(uint32(len(typeIndices)))
	contents := cnt
	for _, idx := range typeIndices {
		contents = append(contents, leb128.EncodeUint32(idx)...)
	}
	return encodeSection(wasm.SectionIDFunction, contents)
}

func decodeStartSection(r io.Reader) (*wasm.Index, error) {
	idx, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get function index: %w", err)
	}
	return &idx, nil
}

func encodeStartSection(functionIndex wasm.Index) []byte {
	return encodeSection(wasm.SectionIDStart, leb128.EncodeUint32(functionIndex))
}
