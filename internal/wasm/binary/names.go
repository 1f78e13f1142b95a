package binary

import (
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// Subsection IDs of the "name" custom section.
const (
	subsectionIDModuleName = iota
	subsectionIDFunctionNames
	subsectionIDLocalNames
)

// decodeNameSection parses the contents of the "name" custom section up to
// limit bytes. Unknown subsection IDs are skipped by their declared size;
// known subsections ignore their own declared size and read their contents
// directly, matching how a name section written by a nonconforming
// producer is still tolerated by most consumers.
func decodeNameSection(r io.Reader, limit uint64) (*wasm.NameSection, error) {
	ret := &wasm.NameSection{}

	for {
		id, err := readByte(r)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to read subsection ID: %w", err)
		}

		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read the size of subsection[%d]: %w", id, err)
		}

		switch id {
		case subsectionIDModuleName:
			name, _, err := decodeUTF8(r, "module name")
			if err != nil {
				return nil, err
			}
			ret.ModuleName = name
		case subsectionIDFunctionNames:
			count, _, err := leb128.DecodeUint32(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read the function count of subsection[1]: %w", err)
			}
			names := make(wasm.NameMap, count)
			for i := range names {
				idx, _, err := leb128.DecodeUint32(r)
				if err != nil {
					return nil, fmt.Errorf("failed to read a function index in subsection[1]: %w", err)
				}
				name, _, err := decodeUTF8(r, fmt.Sprintf("function[%d] name", idx))
				if err != nil {
					return nil, err
				}
				names[i].Index, names[i].Name = idx, name
			}
			ret.FunctionNames = names
		case subsectionIDLocalNames:
			count, _, err := leb128.DecodeUint32(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read the function count of subsection[2]: %w", err)
			}
			entries := make(wasm.IndirectNameMap, count)
			for i := range entries {
				funcIdx, _, err := leb128.DecodeUint32(r)
				if err != nil {
					return nil, fmt.Errorf("failed to read a function index in subsection[2]: %w", err)
				}
				localCount, _, err := leb128.DecodeUint32(r)
				if err != nil {
					return nil, fmt.Errorf("failed to read the local count for function[%d]: %w", funcIdx, err)
				}
				locals := make(wasm.NameMap, localCount)
				for j := range locals {
					localIdx, _, err := leb128.DecodeUint32(r)
					if err != nil {
						return nil, fmt.Errorf("failed to read a local index of function[%d]: %w", funcIdx, err)
					}
					name, _, err := decodeUTF8(r, fmt.Sprintf("function[%d] local[%d] name", funcIdx, localIdx))
					if err != nil {
						return nil, err
					}
					locals[j].Index, locals[j].Name = localIdx, name
				}
				entries[i].Index, entries[i].NameMap = funcIdx, locals
			}
			ret.LocalNames = entries
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return nil, fmt.Errorf("failed to skip subsection[%d]: %w", id, err)
			}
		}
	}
	return ret, nil
}
