package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/api"
	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// functionTypeTag distinguishes a function type from other binary-format
// types that could in principle follow it in the type section; wasm only
// ever defines this one.
const functionTypeTag = 0x60

func encodeFunctionType(t *wasm.FunctionType) []byte {
	data := []byte{functionTypeTag}
	data = append(data, leb128.EncodeUint32(uint32(len(t.Params)))...)
	data = append(data, t.Params...)
	data = append(data, leb128.EncodeUint32(uint32(len(t.Results)))...)
	data = append(data, t.Results...)
	return data
}

func decodeFunctionType(enabledFeatures api.CoreFeatures, r io.Reader, target *wasm.FunctionType) error {
	b, err := readByte(r)
	if err != nil {
		return fmt.Errorf("read leading byte: %w", err)
	}
	if b != functionTypeTag {
		return fmt.Errorf("%#x != 0x60", b)
	}

	paramCount, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("could not read parameter count: %w", err)
	}
	paramTypes, err := decodeValueTypes(r, paramCount)
	if err != nil {
		return fmt.Errorf("could not read parameter types: %w", err)
	}

	resultCount, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("could not read result count: %w", err)
	}
	if resultCount > 1 {
		if err := enabledFeatures.RequireEnabled(api.CoreFeatureMultiValue); err != nil {
			return fmt.Errorf("multiple result types invalid as %w", err)
		}
	}
	resultTypes, err := decodeValueTypes(r, resultCount)
	if err != nil {
		return fmt.Errorf("could not read result types: %w", err)
	}

	target.Params = paramTypes
	target.Results = resultTypes
	return nil
}

func decodeTypeSection(enabledFeatures api.CoreFeatures, r io.Reader) ([]*wasm.FunctionType, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	ret := make([]*wasm.FunctionType, count)
	for i := range ret {
		t := &wasm.FunctionType{}
		if err := decodeFunctionType(enabledFeatures, r, t); err != nil {
			return nil, fmt.Errorf("read type[%d]: %w", i, err)
		}
		ret[i] = t
	}
	return ret, nil
}

func encodeTypeSection(types []*wasm.FunctionType) []byte {
	cnt := leb128.EncodeUint32(uint32(len(types)))
	contents := cnt
	for _, t := range types {
		contents = append(contents, encodeFunctionType(t)...)
	}
	return encodeSection(wasm.SectionIDType, contents)
}
