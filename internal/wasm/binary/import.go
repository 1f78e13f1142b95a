package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/api"
	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

func encodeImport(i *wasm.Import) []byte {
	data := encodeSizePrefixed([]byte(i.Module))
	data = append(data, encodeSizePrefixed([]byte(i.Name))...)
	data = append(data, i.Type)
	switch i.Type {
	case wasm.ExternTypeFunc:
		data = append(data, leb128.EncodeUint32(i.DescFunc)...)
	case wasm.ExternTypeTable:
		data = append(data, encodeTable(i.DescTable)...)
	case wasm.ExternTypeMemory:
		data = append(data, encodeMemory(i.DescMem)...)
	case wasm.ExternTypeGlobal:
		data = append(data, encodeGlobalType(i.DescGlobal)...)
	}
	return data
}

func encodeSizePrefixed(b []byte) []byte {
	return append(leb128.EncodeUint32(uint32(len(b))), b...)
}

func decodeImport(r io.Reader, idx int, features api.CoreFeatures) (*wasm.Import, error) {
	i := &wasm.Import{}
	var err error
	if i.Module, _, err = decodeUTF8(r, "import module"); err != nil {
		return nil, fmt.Errorf("import[%d] error decoding module: %w", idx, err)
	}
	if i.Name, _, err = decodeUTF8(r, "import name"); err != nil {
		return nil, fmt.Errorf("import[%d] error decoding name: %w", idx, err)
	}
	b, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("import[%d] error decoding type: %w", idx, err)
	}
	i.Type = b
	switch i.Type {
	case wasm.ExternTypeFunc:
		i.DescFunc, _, err = leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("import[%d] error decoding function index: %w", idx, err)
		}
	case wasm.ExternTypeTable:
		i.DescTable, err = decodeTable(r)
		if err != nil {
			return nil, fmt.Errorf("import[%d] error decoding table: %w", idx, err)
		}
	case wasm.ExternTypeMemory:
		i.DescMem, err = decodeMemory(r, wasm.MemoryLimitPages)
		if err != nil {
			return nil, fmt.Errorf("import[%d] error decoding memory: %w", idx, err)
		}
	case wasm.ExternTypeGlobal:
		i.DescGlobal, err = decodeGlobalType(r)
		if err != nil {
			return nil, fmt.Errorf("import[%d] error decoding global: %w", idx, err)
		}
	default:
		return nil, fmt.Errorf("import[%d] invalid external kind %#x", idx, i.Type)
	}
	return i, nil
}

func decodeImportSection(r io.Reader, features api.CoreFeatures) ([]*wasm.Import, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	ret := make([]*wasm.Import, count)
	for i := range ret {
		imp, err := decodeImport(r, i, features)
		if err != nil {
			return nil, err
		}
		ret[i] = imp
	}
	return ret, nil
}

func encodeImportSection(imports []*wasm.Import) []byte {
	cnt := leb128.EncodeUint32(uint32(len(imports)))
	contents := cnt
	for _, i := range imports {
		contents = append(contents, encodeImport(i)...)
	}
	return encodeSection(wasm.SectionIDImport, contents)
}
