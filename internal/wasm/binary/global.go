package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/api"
	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

func encodeGlobalType(t *wasm.GlobalType) []byte {
	mut := byte(0)
	if t.Mutable {
		mut = 1
	}
	return []byte{t.ValType, mut}
}

func decodeGlobalType(r io.Reader) (*wasm.GlobalType, error) {
	vt, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("read value type: %w", err)
	}
	if err := decodeValueType(vt); err != nil {
		return nil, err
	}
	mut, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("read mutability: %w", err)
	}
	return &wasm.GlobalType{ValType: vt, Mutable: mut == 1}, nil
}

func encodeGlobal(g *wasm.Global) []byte {
	ret := encodeGlobalType(g.Type)
	ret = append(ret, g.Init.Opcode)
	ret = append(ret, g.Init.Data...)
	return append(ret, wasm.OpcodeEnd)
}

func decodeGlobal(r io.Reader, features api.CoreFeatures) (*wasm.Global, error) {
	gt, err := decodeGlobalType(r)
	if err != nil {
		return nil, fmt.Errorf("read global type: %w", err)
	}
	var init wasm.ConstantExpression
	if err := decodeConstantExpression(r, features, &init); err != nil {
		return nil, fmt.Errorf("read global init: %w", err)
	}
	return &wasm.Global{Type: gt, Init: &init}, nil
}

func decodeGlobalSection(r io.Reader, features api.CoreFeatures) ([]*wasm.Global, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	ret := make([]*wasm.Global, count)
	for i := range ret {
		g, err := decodeGlobal(r, features)
		if err != nil {
			return nil, fmt.Errorf("global[%d]: %w", i, err)
		}
		ret[i] = g
	}
	return ret, nil
}

func encodeGlobalSection(globals []*wasm.Global) []byte {
	cnt := leb128.EncodeUint32(uint32(len(globals)))
	var contents []byte
	for _, g := range globals {
		contents = append(contents, encodeGlobal(g)...)
	}
	return encodeSection(wasm.SectionIDGlobal, append(cnt, contents...))
}
