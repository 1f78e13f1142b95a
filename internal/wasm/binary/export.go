package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

func encodeExport(e *wasm.Export) []byte {
	data := encodeSizePrefixed([]byte(e.Name))
	data = append(data, e.Type)
	return append(data, leb128.EncodeUint32(e.Index)...)
}

func decodeExport(r io.Reader) (*wasm.Export, error) {
	name, _, err := decodeUTF8(r, "export name")
	if err != nil {
		return nil, fmt.Errorf("error decoding export name: %w", err)
	}
	b, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("error decoding export type: %w", err)
	}
	idx, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("error decoding export index: %w", err)
	}
	return &wasm.Export{Name: name, Type: b, Index: idx}, nil
}

func decodeExportSection(r io.Reader) (map[string]*wasm.Export, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	ret := make(map[string]*wasm.Export, count)
	for i := uint32(0); i < count; i++ {
		e, err := decodeExport(r)
		if err != nil {
			return nil, fmt.Errorf("export[%d]: %w", i, err)
		}
		if _, ok := ret[e.Name]; ok {
			return nil, fmt.Errorf("export[%d] duplicates name %q", i, e.Name)
		}
		ret[e.Name] = e
	}
	return ret, nil
}

func encodeExportSection(exports map[string]*wasm.Export) []byte {
	cnt := leb128.EncodeUint32(uint32(len(exports)))
	contents := cnt
	for _, e := range exports {
		contents = append(contents, encodeExport(e)...)
	}
	return encodeSection(wasm.SectionIDExport, contents)
}
