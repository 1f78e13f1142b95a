package wasm

import (
	"fmt"

	"github.com/uwvmgo/uwvmgo/internal/leb128"
)

// TableInstance is the runtime backing of a table: a slice of opaque
// references (funcref or externref), each either nil or an index into the
// owning instance's function slice, established either by an element
// segment or by table.init/table.set at runtime.
type TableInstance struct {
	Table []interface{}
	Min   uint32
	Max   *uint32
}

// validatedElementSegment is the validated, not-yet-instantiated form of an
// ElementSegment: its offset instruction (still symbolic when the offset is
// an imported global, resolved only once the global's actual value is
// known) and its function indices as plain uint32s.
type validatedElementSegment struct {
	opcode Opcode
	arg0   uint32 // meaningful only when opcode == OpcodeI32Const or OpcodeGlobalGet
	init   []uint32
}

// validateTables checks the module has at most one table (the multi-table
// proposal is out of this module's scope) and that every element segment
// targets an in-range table with a well-formed offset and in-range function
// indices. On success it caches its per-segment results on the module so
// buildTableInstance/applyElementSegments don't re-derive them.
func (m *Module) validateTables(tables []*TableType, globals []*GlobalType) error {
	if len(tables) > maxTables {
		return fmt.Errorf("multiple tables are not supported")
	}

	imported := m.ImportGlobalCount()
	importedGlobals := globals
	if uint32(len(globals)) > imported {
		importedGlobals = globals[:imported]
	}

	totalFuncs := m.ImportFuncCount() + uint32(len(m.FunctionSection))

	result := make([]*validatedElementSegment, 0, len(m.ElementSection))
	for i, seg := range m.ElementSection {
		if len(tables) == 0 {
			return fmt.Errorf("element was defined, but not table")
		}
		if seg.TableIndex >= uint32(len(tables)) {
			return fmt.Errorf("table index out of range")
		}

		ves := &validatedElementSegment{opcode: seg.OffsetExpr.Opcode, init: make([]uint32, len(seg.Init))}
		for j, idx := range seg.Init {
			if idx >= totalFuncs {
				return fmt.Errorf("element[%d].init[%d] funcidx %d out of range", i, j, idx)
			}
			ves.init[j] = idx
		}

		switch seg.OffsetExpr.Opcode {
		case OpcodeI32Const:
			offset, _, err := leb128.LoadInt32(seg.OffsetExpr.Data)
			if err != nil {
				return fmt.Errorf("element[%d] couldn't read i32.const parameter: overflows a 32-bit integer", i)
			}
			ves.arg0 = uint32(offset)
			if t := tables[seg.TableIndex]; t != nil && t.Limit != nil && uint32(offset)+uint32(len(seg.Init)) > t.Limit.Min {
				return fmt.Errorf("element[%d].init exceeds min table size", i)
			}
		case OpcodeGlobalGet:
			idx, _, err := leb128.LoadUint32(seg.OffsetExpr.Data)
			if err != nil {
				return fmt.Errorf("element[%d] couldn't read global.get parameter: overflows a 32-bit integer", i)
			}
			if idx >= uint32(len(importedGlobals)) {
				return fmt.Errorf("element[%d] (global.get %d): out of range of imported globals", i, idx)
			}
			if importedGlobals[idx].ValType != ValueTypeI32 {
				return fmt.Errorf("element[%d] (global.get %d): import[%d].global.ValType != i32", i, idx, idx)
			}
			ves.arg0 = idx
		default:
			if err := validateConstExpression(importedGlobals, seg.OffsetExpr, valueTypeUnknown); err != nil {
				return fmt.Errorf("element[%d] %w", i, err)
			}
			return fmt.Errorf("element[%d] has an invalid const expression: %s", i, InstructionName(seg.OffsetExpr.Opcode))
		}
		result = append(result, ves)
	}

	m.validatedElementSegments = result
	return nil
}

// buildTableInstance builds the runtime table for this module's first
// declared table, or nil if the module declares none. Applying element
// segments onto an imported or freshly built table is a separate step
// (applyElementSegments) since it additionally needs the resolved imported
// globals a global-derived offset may reference.
func (m *Module) buildTableInstance() *TableInstance {
	for _, t := range m.TableSection {
		size := t.Limit.Min
		return &TableInstance{Table: make([]interface{}, size), Min: size, Max: t.Limit.Max}
	}
	return nil
}

// applyElementSegments writes every validated element segment's function
// indices into table, resolving global-derived offsets against
// importedGlobals.
func (m *Module) applyElementSegments(table *TableInstance, importedGlobals []*GlobalInstance) error {
	for i, ves := range m.validatedElementSegments {
		var offset uint32
		switch ves.opcode {
		case OpcodeI32Const:
			offset = ves.arg0
		case OpcodeGlobalGet:
			offset = uint32(importedGlobals[ves.arg0].Val)
		}
		if offset+uint32(len(ves.init)) > uint32(len(table.Table)) {
			return fmt.Errorf("element[%d].init exceeds min table size", i)
		}
		for j, funcIdx := range ves.init {
			table.Table[offset+uint32(j)] = funcIdx
		}
	}
	return nil
}
