package binary

import (
	"github.com/uwvmgo/uwvmgo/internal/leb128"
	"github.com/uwvmgo/uwvmgo/internal/wasm"
)

// EncodeModule serializes m back to the binary format DecodeModule reads,
// in section-ID order, followed by the "name" custom section if present.
// Used by round-trip tests and nothing in the production decode path.
func EncodeModule(m *wasm.Module) []byte {
	data := append([]byte{}, Magic...)
	data = append(data, version...)

	if len(m.TypeSection) > 0 {
		data = append(data, encodeTypeSection(m.TypeSection)...)
	}
	if len(m.ImportSection) > 0 {
		data = append(data, encodeImportSection(m.ImportSection)...)
	}
	if len(m.FunctionSection) > 0 {
		data = append(data, encodeFunctionSection(m.FunctionSection)...)
	}
	if len(m.TableSection) > 0 {
		data = append(data, encodeTableSection(m.TableSection)...)
	}
	if len(m.MemorySection) > 0 {
		data = append(data, encodeMemorySection(m.MemorySection)...)
	}
	if len(m.GlobalSection) > 0 {
		data = append(data, encodeGlobalSection(m.GlobalSection)...)
	}
	if len(m.ExportSection) > 0 {
		data = append(data, encodeExportSection(m.ExportSection)...)
	}
	if m.StartSection != nil {
		data = append(data, encodeStartSection(*m.StartSection)...)
	}
	if len(m.ElementSection) > 0 {
		data = append(data, encodeElementSection(m.ElementSection)...)
	}
	if len(m.CodeSection) > 0 {
		data = append(data, encodeCodeSection(m.CodeSection)...)
	}
	if len(m.DataSection) > 0 {
		data = append(data, encodeDataSection(m.DataSection)...)
	}
	if m.NameSection != nil {
		data = append(data, encodeNameSection(m.NameSection)...)
	}
	return data
}

func encodeElementSection(elements []*wasm.ElementSegment) []byte {
	cnt := leb128.EncodeUint32(uint32(len(elements)))
	contents := cnt
	for _, e := range elements {
		contents = append(contents, encodeElementSegment(e)...)
	}
	return encodeSection(wasm.SectionIDElement, contents)
}

func encodeElementSegment(e *wasm.ElementSegment) []byte {
	data := []byte{0x00} // active, implicit table 0
	data = append(data, e.OffsetExpr.Opcode)
	data = append(data, e.OffsetExpr.Data...)
	data = append(data, wasm.OpcodeEnd)
	data = append(data, 0x00) // elemkind funcref
	data = append(data, leb128.EncodeUint32(uint32(len(e.Init)))...)
	for _, idx := range e.Init {
		data = append(data, leb128.EncodeUint32(idx)...)
	}
	return data
}

func encodeDataSection(segments []*wasm.DataSegment) []byte {
	cnt := leb128.EncodeUint32(uint32(len(segments)))
	contents := cnt
	for _, d := range segments {
		contents = append(contents, encodeDataSegment(d)...)
	}
	return encodeSection(wasm.SectionIDData, contents)
}

func encodeDataSegment(d *wasm.DataSegment) []byte {
	var data []byte
	switch {
	case d.Passive:
		data = append(data, leb128.EncodeUint32(1)...)
	case d.MemoryIndex != 0:
		data = append(data, leb128.EncodeUint32(2)...)
		data = append(data, leb128.EncodeUint32(d.MemoryIndex)...)
	default:
		data = append(data, leb128.EncodeUint32(0)...)
	}
	if !d.Passive {
		data = append(data, d.OffsetExpression.Opcode)
		data = append(data, d.OffsetExpression.Data...)
		data = append(data, wasm.OpcodeEnd)
	}
	data = append(data, leb128.EncodeUint32(uint32(len(d.Init)))...)
	return append(data, d.Init...)
}

func encodeNameSection(ns *wasm.NameSection) []byte {
	var contents []byte
	if ns.ModuleName != "" {
		nameData := encodeSizePrefixed([]byte(ns.ModuleName))
		contents = append(contents, subsectionIDModuleName)
		contents = append(contents, leb128.EncodeUint32(uint32(len(nameData)))...)
		contents = append(contents, nameData...)
	}
	if len(ns.FunctionNames) > 0 {
		var sub []byte
		sub = append(sub, leb128.EncodeUint32(uint32(len(ns.FunctionNames)))...)
		for _, f := range ns.FunctionNames {
			sub = append(sub, leb128.EncodeUint32(f.Index)...)
			sub = append(sub, encodeSizePrefixed([]byte(f.Name))...)
		}
		contents = append(contents, subsectionIDFunctionNames)
		contents = append(contents, leb128.EncodeUint32(uint32(len(sub)))...)
		contents = append(contents, sub...)
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
		contents = append(contents, subsectionIDLocalNames)
		contents = append(contents, leb128.EncodeUint32(uint32(len(sub)))...)
		contents = append(contents, sub...)
	}

	nameBytes := encodeSizePrefixed([]byte("name"))
	full := append(nameBytes, contents...)
	return encodeSection(wasm.SectionIDCustom, full)
}
