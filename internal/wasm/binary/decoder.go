package binary

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/uwvmgo/uwvmgo/api"
	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// Magic is the 4-byte preamble every binary module starts with: "\0asm".
var Magic = []byte{0x00, 0x61, 0x73, 0x6d}

// version is the only binary format version this module decodes.
var version = []byte{0x01, 0x00, 0x00, 0x00}

// DecodeModule decodes a binary-encoded module with every core feature
// enabled and no per-category resource limit.
func DecodeModule(binary []byte) (*wasm.Module, error) {
	return DecodeModuleWithConfig(binary, api.CoreFeaturesV2, nil)
}

// DecodeModuleWithConfig decodes a binary-encoded module gating proposal
// opcodes on enabledFeatures and, when limits is non-nil, rejecting a
// module whose section element counts exceed a configured ceiling.
func DecodeModuleWithConfig(binary []byte, enabledFeatures api.CoreFeatures, limits *Limits) (*wasm.Module, error) {
	r := bytes.NewReader(binary)

	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil || !bytes.Equal(buf, Magic) {
		return nil, errors.New("invalid magic number")
	}
	if _, err := io.ReadFull(r, buf); err != nil || !bytes.Equal(buf, version) {
		return nil, errors.New("invalid version header")
	}

	m := &wasm.Module{}
	for {
		sectionID, err := readByte(r)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("read section id: %w", err)
		}

		sectionSize, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("get size of section %s: %w", wasm.SectionIDName(sectionID), err)
		}

		sectionContentStart := r.Len()
		switch sectionID {
		case wasm.SectionIDCustom:
			name, nameSize, decodeErr := decodeUTF8(r, "custom section name")
			if decodeErr != nil {
				err = decodeErr
				break
			}
			if sectionSize < nameSize {
				err = fmt.Errorf("malformed custom section %s", name)
				break
			}
			limit := sectionSize - nameSize
			if name == "name" {
				if m.NameSection != nil {
					err = fmt.Errorf("redundant custom section name")
					break
				}
				m.NameSection, err = decodeNameSection(io.LimitReader(r, int64(limit)), uint64(limit))
			} else if _, err = io.CopyN(io.Discard, r, int64(limit)); err != nil {
				return nil, fmt.Errorf("failed to skip custom section %s: %w", name, err)
			}
		case wasm.SectionIDType:
			m.TypeSection, err = decodeTypeSection(enabledFeatures, r)
		case wasm.SectionIDImport:
			m.ImportSection, err = decodeImportSection(r, enabledFeatures)
		case wasm.SectionIDFunction:
			m.FunctionSection, err = decodeFunctionSection(r)
		case wasm.SectionIDTable:
			m.TableSection, err = decodeTableSection(r)
		case wasm.SectionIDMemory:
			m.MemorySection, err = decodeMemorySection(r, wasm.MemoryLimitPages)
		case wasm.SectionIDGlobal:
			m.GlobalSection, err = decodeGlobalSection(r, enabledFeatures)
		case wasm.SectionIDExport:
			m.ExportSection, err = decodeExportSection(r)
		case wasm.SectionIDStart:
			if m.StartSection != nil {
				return nil, errors.New("multiple start sections are invalid")
			}
			m.StartSection, err = decodeStartSection(r)
		case wasm.SectionIDElement:
			m.ElementSection, err = decodeElementSection(r)
		case wasm.SectionIDCode:
			m.CodeSection, m.CodeSectionOffsets, err = decodeCodeSection(r)
		case wasm.SectionIDData:
			m.DataSection, err = decodeDataSection(r, enabledFeatures)
		default:
			err = fmt.Errorf("invalid section id: %#x", sectionID)
		}

		if err == nil {
			if readBytes := sectionContentStart - r.Len(); int(sectionSize) != readBytes {
				err = fmt.Errorf("invalid section length: expected to be %d but got %d", sectionSize, readBytes)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", wasm.SectionIDName(sectionID), err)
		}
	}

	if functionCount, codeCount := m.SectionElementCount(wasm.SectionIDFunction), m.SectionElementCount(wasm.SectionIDCode); functionCount != codeCount {
		return nil, fmt.Errorf("function and code section have inconsistent lengths: %d != %d", functionCount, codeCount)
	}

	if err := limits.CheckModule(m); err != nil {
		return nil, err
	}
	return m, nil
}
