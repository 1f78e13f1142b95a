// Package binaryencoding re-implements just enough of the binary module
// encoder to build test fixtures for internal/wasm/binary's decoders,
// without those decoders depending on an encoder of their own.
package binaryencoding

import (
	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// EncodeValTypes encodes a vector of value types: a LEB128 count followed
// by one byte per type.
func EncodeValTypes(vt []wasm.ValueType) []byte {
	return append(leb128.EncodeUint32(uint32(len(vt))), vt...)
}

// EncodeFunctionType encodes t as 0x60 followed by its param and result
// vectors.
func EncodeFunctionType(t *wasm.FunctionType) []byte {
	data := []byte{0x60}
	data = append(data, EncodeValTypes(t.Params)...)
	data = append(data, EncodeValTypes(t.Results)...)
	return data
}

func encodeSizePrefixed(b []byte) []byte {
	return append(leb128.EncodeUint32(uint32(len(b))), b...)
}

const (
	subsectionIDModuleName = iota
	subsectionIDFunctionNames
	subsectionIDLocalNames
)

// EncodeNameSectionData encodes ns's module/function/local-name
// subsections, without the enclosing custom section's "name" tag or
// section framing: exactly the slice a decodeNameSection test feeds
// straight to the decoder under its own declared limit.
func EncodeNameSectionData(ns *wasm.NameSection) []byte {
	var data []byte
	if ns.ModuleName != "" {
		nameData := encodeSizePrefixed([]byte(ns.ModuleName))
		data = append(data, subsectionIDModuleName)
		data = append(data, leb128.EncodeUint32(uint32(len(nameData)))...)
		data = append(data, nameData...)
	}
	if len(ns.FunctionNames) > 0 {
		var sub []byte
		sub = append(sub, leb128.EncodeUint32(uint32(len(ns.FunctionNames)))...)
		for _, f := range ns.FunctionNames {
			sub = append(sub, leb128.EncodeUint32(f.Index)...)
			sub = append(sub, encodeSizePrefixed([]byte(f.Name))...)
		}
		data = append(data, subsectionIDFunctionNames)
		data = append(data, leb128.EncodeUint32(uint32(len(sub)))...)
		data = append(data, sub...)
	}
	if len(ns.LocalNames) > 0 {
		var sub []byte
		sub = append(sub, leb128.EncodeUint32(uint32(len(ns.LocalNames)))...)
		for _, fn := range ns.LocalNames {
			sub = append(sub, leb128.EncodeUint32(fn.Index)...)
			sub = append(sub, leb128.EncodeUint32(uint32(len(fn.NameMap)))...)
			for _, l := range fn.NameMap {
				sub = append(sub, leb128.EncodeUint32(l.Index)...)
				sub = append(sub, encodeSizePrefixed([]byte(l.Name))...)
			}
		}
		data = append(data, subsectionIDLocalNames)
		data = append(data, leb128.EncodeUint32(uint32(len(sub)))...)
		data = append(data, sub...)
	}
	return data
}
