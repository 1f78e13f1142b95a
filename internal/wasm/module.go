// Package wasm holds the module data model decoded by internal/wasm/binary
// and the structural validator that checks it before any function body
// reaches internal/wazeroir. It deliberately stops at validation: resolving
// imports against a host, building a running instance, and exporting values
// back to an embedder are instantiation-runtime concerns this module leaves
// to its caller.
package wasm

import (
	"fmt"
	"strings"

	"github.com/uwvmgo/uwvmgo/api"
	"github.com/uwvmgo/uwvmgo/internal/bitpack"
)

// Index is a position within one of a Module's sections: a type, function,
// table, memory or global index depending on context.
type Index = uint32

// ValueType, ExternType and their *Name helpers are re-exported from api so
// this package's own tests and call sites don't need two import paths for
// what's conceptually one small vocabulary.
type ValueType = api.ValueType

const (
	ValueTypeI32       = api.ValueTypeI32
	ValueTypeI64       = api.ValueTypeI64
	ValueTypeF32       = api.ValueTypeF32
	ValueTypeF64       = api.ValueTypeF64
	ValueTypeFuncref   = api.ValueTypeFuncref
	ValueTypeExternref = api.ValueTypeExternref
)

// valueTypeUnknown is used internally by the validator's abstract stack to
// represent a value produced by unreachable code, whose type is unconstrained
// until it's popped against a concrete expectation.
const valueTypeUnknown ValueType = 0x00

type ExternType = api.ExternType

const (
	ExternTypeFunc   = api.ExternTypeFunc
	ExternTypeTable  = api.ExternTypeTable
	ExternTypeMemory = api.ExternTypeMemory
	ExternTypeGlobal = api.ExternTypeGlobal
)

// ExternTypeName returns et's Text Format field name, or its hex value if
// et isn't one of the four extern kinds.
func ExternTypeName(et ExternType) string {
	return api.ExternTypeName(et)
}

// SectionID identifies one of the eleven core sections of a binary module,
// plus the repeatable custom section.
type SectionID = byte

const (
	SectionIDCustom SectionID = iota
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData
)

var sectionIDNames = [...]string{
	SectionIDCustom:   "custom",
	SectionIDType:     "type",
	SectionIDImport:   "import",
	SectionIDFunction: "function",
	SectionIDTable:    "table",
	SectionIDMemory:   "memory",
	SectionIDGlobal:   "global",
	SectionIDExport:   "export",
	SectionIDStart:    "start",
	SectionIDElement:  "element",
	SectionIDCode:     "code",
	SectionIDData:     "data",
}

// SectionIDName returns id's section name, or "unknown" if id isn't a
// section this module recognizes.
func SectionIDName(id SectionID) string {
	if int(id) < len(sectionIDNames) {
		return sectionIDNames[id]
	}
	return "unknown"
}

// FunctionType is a function signature, either declared in the type section
// or implied by an imported/exported function.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// String renders params and results each as a concatenated run of type
// abbreviations, joined by an underscore, with "null" standing in for an
// empty side. Tests use it to name their cases.
func (t *FunctionType) String() string {
	ps, rs := valueTypesString(t.Params), valueTypesString(t.Results)
	return ps + "_" + rs
}

func valueTypesString(vs []ValueType) string {
	if len(vs) == 0 {
		return "null"
	}
	var sb strings.Builder
	for _, v := range vs {
		sb.WriteString(api.ValueTypeName(v))
	}
	return sb.String()
}

// LimitsType bounds a table or memory's element/page count.
type LimitsType struct {
	Min uint32
	Max *uint32
}

// ElemTypeFuncref is the only table element type this module recognizes;
// the reference-types proposal's externref tables are out of scope.
const ElemTypeFuncref = 0x70

// TableType is the element type and size limits of one table. Only
// ValueTypeFuncref is valid without the reference-types proposal enabled.
type TableType struct {
	ElemType byte
	Limit    *LimitsType
}

// MemoryType mirrors LimitsType; kept distinct so a future memory-specific
// field (shared, for the threads proposal) doesn't have to perturb table
// validation call sites.
type MemoryType = LimitsType

// MaximumFunctionIndex and MemoryLimitPages bound a table's element count
// and a memory's page count respectively; both mirror the limits the
// binary decoder enforces while reading a table or memory type.
const (
	MaximumFunctionIndex = uint32(1 << 27)
	MemoryLimitPages     = uint32(1 << 16) // 4GiB addressable, 65536 pages of 64KiB
)

// GlobalType is a global's value type and mutability, known without running
// its initializer.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Global is a declared (non-imported) global: its type and constant
// initializer.
type Global struct {
	Type *GlobalType
	Init *ConstantExpression
}

// GlobalInstance is the runtime representation of a global after its
// initializer has been evaluated: a type plus the encoded uint64 value.
type GlobalInstance struct {
	Type *GlobalType
	Val  uint64
}

// Import describes one entry of the import section. Exactly one of
// DescFunc/DescTable/DescMem/DescGlobal is meaningful, selected by Type.
type Import struct {
	Type       ExternType
	Module     string
	Name       string
	DescFunc   Index
	DescTable  *TableType
	DescMem    *MemoryType
	DescGlobal *GlobalType
}

// Export describes one entry of the export section: the exported name, the
// kind of thing exported, and its index within the combined
// (imports-then-locals) declaration space of that kind.
type Export struct {
	Name  string
	Type  ExternType
	Index Index
}

// Code is a decoded function body: the declared locals, expanded to one
// ValueType per slot, and the raw instruction byte stream up to and
// including the terminal OpcodeEnd.
type Code struct {
	LocalTypes []ValueType
	Body       []byte
}

// DataSegment initializes a byte range of linear memory at instantiation
// time. A passive segment (the bulk-memory-operations proposal) has no
// offset and is applied only by an explicit memory.init instruction, which
// this module does not yet execute; it is still decoded and validated so a
// module using the proposal doesn't fail to load outright.
type DataSegment struct {
	MemoryIndex      uint32
	Passive          bool
	OffsetExpression ConstantExpression
	Init             []byte
}

// ElementSegment initializes a byte range of a table with function indices
// at instantiation time.
type ElementSegment struct {
	TableIndex uint32
	OffsetExpr *ConstantExpression
	Init       []Index
}

// NameMap is an index-to-name association from the custom "name" section,
// used only for diagnostics: an absent or malformed name section never
// blocks validation.
type NameMap []struct {
	Index Index
	Name  string
}

func (m NameMap) find(idx Index) (string, bool) {
	for _, e := range m {
		if e.Index == idx {
			return e.Name, true
		}
	}
	return "", false
}

// IndirectNameMap associates each entry with the function index whose
// locals it names, since local names are only meaningful per-function.
type IndirectNameMap []struct {
	Index   Index
	NameMap NameMap
}

// NameSection is the decoded custom "name" section.
type NameSection struct {
	ModuleName    string
	FunctionNames NameMap
	LocalNames    IndirectNameMap
}

// ConstantExpression is a restricted instruction sequence usable as a
// global initializer or as an element/data segment offset: exactly one of
// the four *.const instructions, or a global.get of an imported immutable
// global of the same type.
type ConstantExpression struct {
	Opcode Opcode
	Data   []byte
}

// Module is the fully decoded, not-yet-instantiated contents of a binary
// module: every section as emitted by internal/wasm/binary, unvalidated
// until Validate is called.
type Module struct {
	TypeSection     []*FunctionType
	ImportSection   []*Import
	FunctionSection []Index // index into TypeSection, one per locally defined function
	TableSection    []*TableType
	MemorySection   []*MemoryType
	GlobalSection   []*Global
	ExportSection   map[string]*Export
	StartSection    *Index
	ElementSection  []*ElementSegment
	CodeSection     []*Code
	DataSection     []*DataSegment
	NameSection     *NameSection

	// CodeSectionOffsets holds, for each entry of CodeSection, the byte
	// offset of its body relative to the start of the code section in the
	// original binary. Diagnostics report it alongside a function index so
	// a compile or validation error can be traced back to its bytes without
	// keeping the whole binary around. Function body offsets are
	// non-decreasing in declaration order, which is exactly the access
	// pattern bitpack.OffsetArray compresses well.
	CodeSectionOffsets bitpack.OffsetArray

	// validatedElementSegments caches the per-segment result of
	// validateTables's offset evaluation, so a Store building more than
	// one table instance from the same Module (once instantiation exists
	// upstream) doesn't re-run constant-expression evaluation.
	validatedElementSegments []*validatedElementSegment
}

// SectionElementCount returns how many entries the given section declares,
// without distinguishing imported vs. local for the kinds that combine
// both (function/table/memory/global report only their own section size
// here; use the Import*Count family for the imported share).
func (m *Module) SectionElementCount(id SectionID) uint32 {
	switch id {
	case SectionIDType:
		return uint32(len(m.TypeSection))
	case SectionIDImport:
		return uint32(len(m.ImportSection))
	case SectionIDFunction:
		return uint32(len(m.FunctionSection))
	case SectionIDTable:
		return uint32(len(m.TableSection))
	case SectionIDMemory:
		return uint32(len(m.MemorySection))
	case SectionIDGlobal:
		return uint32(len(m.GlobalSection))
	case SectionIDExport:
		return uint32(len(m.ExportSection))
	case SectionIDElement:
		return uint32(len(m.ElementSection))
	case SectionIDCode:
		return uint32(len(m.CodeSection))
	case SectionIDData:
		return uint32(len(m.DataSection))
	case SectionIDStart:
		if m.StartSection != nil {
			return 1
		}
	case SectionIDCustom:
		if m.NameSection != nil {
			return 1
		}
	}
	return 0
}

// ImportFuncCount, ImportTableCount, ImportMemoryCount and ImportGlobalCount
// count only the imports of their respective kind; the validators and
// instance builders use them to find where locally declared
// functions/tables/memories/globals start in the combined
// (imports-then-locals) index space.
func (m *Module) ImportFuncCount() (n uint32) {
	return m.importCount(ExternTypeFunc)
}

func (m *Module) ImportTableCount() (n uint32) {
	return m.importCount(ExternTypeTable)
}

func (m *Module) ImportMemoryCount() (n uint32) {
	return m.importCount(ExternTypeMemory)
}

func (m *Module) ImportGlobalCount() (n uint32) {
	return m.importCount(ExternTypeGlobal)
}

func (m *Module) importCount(t ExternType) (n uint32) {
	for _, i := range m.ImportSection {
		if i.Type == t {
			n++
		}
	}
	return
}

// allDeclarations returns the combined (imports-then-locals) function type
// indices, global types, memory limits and table types a module declares.
// Index expressions elsewhere in the module (global.get, call, table.get,
// memory.grow targeting memory 0, ...) are positions into these combined
// lists.
func (m *Module) allDeclarations() (functions []Index, globals []*GlobalType, memories []*MemoryType, tables []*TableType) {
	for _, imp := range m.ImportSection {
		switch imp.Type {
		case ExternTypeFunc:
			functions = append(functions, imp.DescFunc)
		case ExternTypeGlobal:
			globals = append(globals, imp.DescGlobal)
		case ExternTypeMemory:
			memories = append(memories, imp.DescMem)
		case ExternTypeTable:
			tables = append(tables, imp.DescTable)
		}
	}
	functions = append(functions, m.FunctionSection...)
	for _, g := range m.GlobalSection {
		globals = append(globals, g.Type)
	}
	memories = append(memories, m.MemorySection...)
	tables = append(tables, m.TableSection...)
	return
}

// Validate runs every structural check a module must pass before any of
// its function bodies are handed to the lowering pass: well-formed
// sections, in-range indices, a correctly shaped start function, and every
// function body's instruction stream.
func (m *Module) Validate(enabledFeatures api.CoreFeatures) error {
	functions, globals, memories, tables := m.allDeclarations()

	if err := m.validateGlobals(globals, maxGlobals); err != nil {
		return err
	}
	if err := m.validateFunctions(functions, globals, memories, tables); err != nil {
		return err
	}
	if err := m.validateMemories(memories, globals); err != nil {
		return err
	}
	if err := m.validateTables(tables, globals); err != nil {
		return err
	}
	if err := m.validateExports(functions, globals, memories, tables); err != nil {
		return err
	}
	return m.validateStartSection()
}

const (
	maxGlobals  = 1 << 27
	maxTables   = 1
	maxMemories = 1
)

// validateStartSection requires the start function, if present, to have
// no parameters and no results.
func (m *Module) validateStartSection() error {
	if m.StartSection == nil {
		return nil
	}
	functions, _, _, _ := m.allDeclarations()
	idx := *m.StartSection
	if idx >= uint32(len(functions)) {
		return fmt.Errorf("invalid start function: func[%d] out of range", idx)
	}
	ft := m.TypeSection[functions[idx]]
	if len(ft.Params) > 0 || len(ft.Results) > 0 {
		return fmt.Errorf("invalid start function: func[%d] must have an empty (param) (result)", idx)
	}
	return nil
}

// validateGlobals checks each declared global's initializer is a valid
// constant expression of the global's own type, and that the total global
// count fits max.
func (m *Module) validateGlobals(globalDeclarations []*GlobalType, max int) error {
	if len(globalDeclarations) > max {
		return fmt.Errorf("too many globals")
	}
	imported := m.ImportGlobalCount()
	for i, g := range m.GlobalSection {
		idx := imported + uint32(i)
		if idx >= uint32(len(globalDeclarations)) {
			return fmt.Errorf("global index out of range")
		}
		if err := validateConstExpression(globalDeclarations[:imported], g.Init, g.Type.ValType); err != nil {
			return fmt.Errorf("global[%d] %w", idx, err)
		}
	}
	return nil
}

// validateExports checks every exported index is in range for its kind and
// that no name is exported twice (guaranteed by ExportSection being keyed
// on name) from more than one entry.
func (m *Module) validateExports(functions []Index, globals []*GlobalType, memories []*MemoryType, tables []*TableType) error {
	for name, exp := range m.ExportSection {
		var count int
		switch exp.Type {
		case ExternTypeFunc:
			count = len(functions)
		case ExternTypeGlobal:
			count = len(globals)
		case ExternTypeMemory:
			count = len(memories)
			if count > maxMemories {
				count = maxMemories // only memory 0 can be exported
			}
		case ExternTypeTable:
			count = len(tables)
		default:
			return fmt.Errorf("export[%s] has an invalid type %#x", name, exp.Type)
		}
		if exp.Index >= uint32(count) {
			return fmt.Errorf("export[%s] index %d out of range", name, exp.Index)
		}
	}
	return nil
}

// buildGlobalInstances evaluates every declared global's initializer into a
// runtime GlobalInstance, appending after the already-resolved imported
// globals passed in.
func (m *Module) buildGlobalInstances(importedGlobals []*GlobalInstance) []*GlobalInstance {
	instances := make([]*GlobalInstance, 0, len(importedGlobals)+len(m.GlobalSection))
	instances = append(instances, importedGlobals...)
	for _, g := range m.GlobalSection {
		instances = append(instances, &GlobalInstance{
			Type: g.Type,
			Val:  evalConstExpression(instances, g.Init),
		})
	}
	return instances
}

// buildFunctionInstances builds one FunctionInstance per locally defined
// function, naming each from the custom name section when present and
// falling back to "unknown".
func (m *Module) buildFunctionInstances() []*FunctionInstance {
	instances := make([]*FunctionInstance, len(m.FunctionSection))
	imported := m.ImportFuncCount()
	for i, typeIdx := range m.FunctionSection {
		name := "unknown"
		if m.NameSection != nil {
			if n, ok := m.NameSection.FunctionNames.find(imported + Index(i)); ok {
				name = n
			}
		}
		instances[i] = &FunctionInstance{
			Name: name,
			Type: m.TypeSection[typeIdx],
			Body: m.CodeSection[i].Body,
		}
	}
	return instances
}

// FunctionInstance is a locally defined function after its type and name
// have been resolved, ready for internal/wazeroir to lower.
type FunctionInstance struct {
	Name string
	Type *FunctionType
	Body []byte
}
