package wasm

import (
	"fmt"

	"github.com/uwvmgo/uwvmgo/internal/leb128"
)

// controlFrame tracks one nested block/loop/if/function body while
// validateFunction walks a function's instruction stream.
type controlFrame struct {
	op          Opcode
	blockType   *FunctionType
	startHeight int
	unreachable bool
}

// validateFunctions walks every locally defined function's body through
// validateFunction, reporting the (function index/type index) pair of the
// first one to fail.
func (m *Module) validateFunctions(functions []Index, globals []*GlobalType, memories []*MemoryType, tables []*TableType) error {
	for i, typeIdx := range m.FunctionSection {
		if int(typeIdx) >= len(m.TypeSection) {
			return fmt.Errorf("invalid function: function type index out of range")
		}
		if i >= len(m.CodeSection) {
			return fmt.Errorf("invalid function: code index out of range")
		}
		ft := m.TypeSection[typeIdx]
		code := m.CodeSection[i]
		if err := validateFunction(ft, code.Body, code.LocalTypes, functions, globals, memories, tables, m.TypeSection, maxStackValues); err != nil {
			return fmt.Errorf("invalid function (%d/%d): %w", i, typeIdx, err)
		}
	}
	return nil
}

const maxStackValues = 1 << 20

// validateFunction is an abstract interpreter over a function body: it
// simulates the operand stack and nested control frames one opcode at a
// time, without evaluating any value, so it can reject a malformed body
// before the lowering pass in internal/wazeroir ever sees it.
func validateFunction(
	functionType *FunctionType,
	body []byte,
	localTypes []ValueType,
	functions []Index,
	globals []*GlobalType,
	memories []*MemoryType,
	tables []*TableType,
	types []*FunctionType,
	maxStackValues int,
) error {
	locals := append(append([]ValueType{}, functionType.Params...), localTypes...)

	v := &funcValidator{
		locals:   locals,
		globals:  globals,
		memories: memories,
		tables:   tables,
		types:    types,
		functions: functions,
		max:      maxStackValues,
		frames:   []controlFrame{{blockType: functionType, startHeight: 0}},
	}

	pc := 0
	for pc < len(body) {
		op := body[pc]
		pc++
		n, err := v.visit(op, body, &pc)
		if err != nil {
			return err
		}
		_ = n
		if op == OpcodeEnd && len(v.frames) == 0 {
			break
		}
	}
	if len(v.frames) != 0 {
		return fmt.Errorf("missing end instruction")
	}
	return nil
}

type funcValidator struct {
	locals    []ValueType
	globals   []*GlobalType
	memories  []*MemoryType
	tables    []*TableType
	types     []*FunctionType
	functions []Index

	stack  []ValueType
	frames []controlFrame
	max    int
}

func (v *funcValidator) top() *controlFrame { return &v.frames[len(v.frames)-1] }

func (v *funcValidator) push(t ValueType) error {
	v.stack = append(v.stack, t)
	if len(v.stack) > v.max {
		return fmt.Errorf("function may have %d stack values, which exceeds limit %d", len(v.stack), v.max)
	}
	return nil
}

func (v *funcValidator) pop(want ValueType, pos int) (ValueType, error) {
	f := v.top()
	if len(v.stack) <= f.startHeight {
		if f.unreachable {
			return valueTypeUnknown, nil
		}
		return valueTypeUnknown, fmt.Errorf("cannot pop the %s %s operand", ordinal(pos), ValueTypeName(want))
	}
	got := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	if want != valueTypeUnknown && got != valueTypeUnknown && got != want {
		return valueTypeUnknown, fmt.Errorf("cannot pop the %s %s operand", ordinal(pos), ValueTypeName(want))
	}
	return got, nil
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}

// signature describes how many of which type an instruction pops and
// pushes. Most numeric instructions fit this shape exactly; instructions
// with variable arity (call, call_indirect, block-structured opcodes) are
// handled directly in visit instead of through this table.
type signature struct {
	in  []ValueType
	out []ValueType
}

var unaryI32 = signature{[]ValueType{ValueTypeI32}, []ValueType{ValueTypeI32}}
var binaryI32 = signature{[]ValueType{ValueTypeI32, ValueTypeI32}, []ValueType{ValueTypeI32}}
var compareI32 = binaryI32
var unaryI64 = signature{[]ValueType{ValueTypeI64}, []ValueType{ValueTypeI64}}
var binaryI64 = signature{[]ValueType{ValueTypeI64, ValueTypeI64}, []ValueType{ValueTypeI64}}
var compareI64ToI32 = signature{[]ValueType{ValueTypeI64, ValueTypeI64}, []ValueType{ValueTypeI32}}
var unaryF32 = signature{[]ValueType{ValueTypeF32}, []ValueType{ValueTypeF32}}
var binaryF32 = signature{[]ValueType{ValueTypeF32, ValueTypeF32}, []ValueType{ValueTypeF32}}
var compareF32 = signature{[]ValueType{ValueTypeF32, ValueTypeF32}, []ValueType{ValueTypeI32}}
var unaryF64 = signature{[]ValueType{ValueTypeF64}, []ValueType{ValueTypeF64}}
var binaryF64 = signature{[]ValueType{ValueTypeF64, ValueTypeF64}, []ValueType{ValueTypeF64}}
var compareF64 = signature{[]ValueType{ValueTypeF64, ValueTypeF64}, []ValueType{ValueTypeI32}}

var opcodeSignatures = map[Opcode]signature{
	OpcodeI32Eqz:  {[]ValueType{ValueTypeI32}, []ValueType{ValueTypeI32}},
	OpcodeI32Eq:   compareI32, OpcodeI32Ne: compareI32,
	OpcodeI32LtS: compareI32, OpcodeI32LtU: compareI32, OpcodeI32GtS: compareI32, OpcodeI32GtU: compareI32,
	OpcodeI32LeS: compareI32, OpcodeI32LeU: compareI32, OpcodeI32GeS: compareI32, OpcodeI32GeU: compareI32,
	OpcodeI32Clz: unaryI32, OpcodeI32Ctz: unaryI32, OpcodeI32Popcnt: unaryI32,
	OpcodeI32Add: binaryI32, OpcodeI32Sub: binaryI32, OpcodeI32Mul: binaryI32,
	OpcodeI32DivS: binaryI32, OpcodeI32DivU: binaryI32, OpcodeI32RemS: binaryI32, OpcodeI32RemU: binaryI32,
	OpcodeI32And: binaryI32, OpcodeI32Or: binaryI32, OpcodeI32Xor: binaryI32,
	OpcodeI32Shl: binaryI32, OpcodeI32ShrS: binaryI32, OpcodeI32ShrU: binaryI32,
	OpcodeI32Rotl: binaryI32, OpcodeI32Rotr: binaryI32,
	OpcodeI32Extend8S: unaryI32, OpcodeI32Extend16S: unaryI32,

	OpcodeI64Eqz: {[]ValueType{ValueTypeI64}, []ValueType{ValueTypeI32}},
	OpcodeI64Eq:  compareI64ToI32, OpcodeI64Ne: compareI64ToI32,
	OpcodeI64LtS: compareI64ToI32, OpcodeI64LtU: compareI64ToI32, OpcodeI64GtS: compareI64ToI32, OpcodeI64GtU: compareI64ToI32,
	OpcodeI64LeS: compareI64ToI32, OpcodeI64LeU: compareI64ToI32, OpcodeI64GeS: compareI64ToI32, OpcodeI64GeU: compareI64ToI32,
	OpcodeI64Clz: unaryI64, OpcodeI64Ctz: unaryI64, OpcodeI64Popcnt: unaryI64,
	OpcodeI64Add: binaryI64, OpcodeI64Sub: binaryI64, OpcodeI64Mul: binaryI64,
	OpcodeI64DivS: binaryI64, OpcodeI64DivU: binaryI64, OpcodeI64RemS: binaryI64, OpcodeI64RemU: binaryI64,
	OpcodeI64And: binaryI64, OpcodeI64Or: binaryI64, OpcodeI64Xor: binaryI64,
	OpcodeI64Shl: binaryI64, OpcodeI64ShrS: binaryI64, OpcodeI64ShrU: binaryI64,
	OpcodeI64Rotl: binaryI64, OpcodeI64Rotr: binaryI64,
	OpcodeI64Extend8S: unaryI64, OpcodeI64Extend16S: unaryI64, OpcodeI64Extend32S: unaryI64,

	OpcodeF32Eq: compareF32, OpcodeF32Ne: compareF32, OpcodeF32Lt: compareF32, OpcodeF32Gt: compareF32,
	OpcodeF32Le: compareF32, OpcodeF32Ge: compareF32,
	OpcodeF32Abs: unaryF32, OpcodeF32Neg: unaryF32, OpcodeF32Ceil: unaryF32, OpcodeF32Floor: unaryF32,
	OpcodeF32Trunc: unaryF32, OpcodeF32Nearest: unaryF32, OpcodeF32Sqrt: unaryF32,
	OpcodeF32Add: binaryF32, OpcodeF32Sub: binaryF32, OpcodeF32Mul: binaryF32, OpcodeF32Div: binaryF32,
	OpcodeF32Min: binaryF32, OpcodeF32Max: binaryF32, OpcodeF32Copysign: binaryF32,

	OpcodeF64Eq: compareF64, OpcodeF64Ne: compareF64, OpcodeF64Lt: compareF64, OpcodeF64Gt: compareF64,
	OpcodeF64Le: compareF64, OpcodeF64Ge: compareF64,
	OpcodeF64Abs: unaryF64, OpcodeF64Neg: unaryF64, OpcodeF64Ceil: unaryF64, OpcodeF64Floor: unaryF64,
	OpcodeF64Trunc: unaryF64, OpcodeF64Nearest: unaryF64, OpcodeF64Sqrt: unaryF64,
	OpcodeF64Add: binaryF64, OpcodeF64Sub: binaryF64, OpcodeF64Mul: binaryF64, OpcodeF64Div: binaryF64,
	OpcodeF64Min: binaryF64, OpcodeF64Max: binaryF64, OpcodeF64Copysign: binaryF64,

	OpcodeI32WrapI64:        {[]ValueType{ValueTypeI64}, []ValueType{ValueTypeI32}},
	OpcodeI32TruncF32S:      {[]ValueType{ValueTypeF32}, []ValueType{ValueTypeI32}},
	OpcodeI32TruncF32U:      {[]ValueType{ValueTypeF32}, []ValueType{ValueTypeI32}},
	OpcodeI32TruncF64S:      {[]ValueType{ValueTypeF64}, []ValueType{ValueTypeI32}},
	OpcodeI32TruncF64U:      {[]ValueType{ValueTypeF64}, []ValueType{ValueTypeI32}},
	OpcodeI64ExtendI32S:     {[]ValueType{ValueTypeI32}, []ValueType{ValueTypeI64}},
	OpcodeI64ExtendI32U:     {[]ValueType{ValueTypeI32}, []ValueType{ValueTypeI64}},
	OpcodeI64TruncF32S:      {[]ValueType{ValueTypeF32}, []ValueType{ValueTypeI64}},
	OpcodeI64TruncF32U:      {[]ValueType{ValueTypeF32}, []ValueType{ValueTypeI64}},
	OpcodeI64TruncF64S:      {[]ValueType{ValueTypeF64}, []ValueType{ValueTypeI64}},
	OpcodeI64TruncF64U:      {[]ValueType{ValueTypeF64}, []ValueType{ValueTypeI64}},
	OpcodeF32ConvertI32S:    {[]ValueType{ValueTypeI32}, []ValueType{ValueTypeF32}},
	OpcodeF32ConvertI32U:    {[]ValueType{ValueTypeI32}, []ValueType{ValueTypeF32}},
	OpcodeF32ConvertI64S:    {[]ValueType{ValueTypeI64}, []ValueType{ValueTypeF32}},
	OpcodeF32ConvertI64U:    {[]ValueType{ValueTypeI64}, []ValueType{ValueTypeF32}},
	OpcodeF32DemoteF64:      {[]ValueType{ValueTypeF64}, []ValueType{ValueTypeF32}},
	OpcodeF64ConvertI32S:    {[]ValueType{ValueTypeI32}, []ValueType{ValueTypeF64}},
	OpcodeF64ConvertI32U:    {[]ValueType{ValueTypeI32}, []ValueType{ValueTypeF64}},
	OpcodeF64ConvertI64S:    {[]ValueType{ValueTypeI64}, []ValueType{ValueTypeF64}},
	OpcodeF64ConvertI64U:    {[]ValueType{ValueTypeI64}, []ValueType{ValueTypeF64}},
	OpcodeF64PromoteF32:     {[]ValueType{ValueTypeF32}, []ValueType{ValueTypeF64}},
	OpcodeI32ReinterpretF32: {[]ValueType{ValueTypeF32}, []ValueType{ValueTypeI32}},
	OpcodeI64ReinterpretF64: {[]ValueType{ValueTypeF64}, []ValueType{ValueTypeI64}},
	OpcodeF32ReinterpretI32: {[]ValueType{ValueTypeI32}, []ValueType{ValueTypeF32}},
	OpcodeF64ReinterpretI64: {[]ValueType{ValueTypeI64}, []ValueType{ValueTypeF64}},
}

var loadResultType = map[Opcode]ValueType{
	OpcodeI32Load: ValueTypeI32, OpcodeI32Load8S: ValueTypeI32, OpcodeI32Load8U: ValueTypeI32,
	OpcodeI32Load16S: ValueTypeI32, OpcodeI32Load16U: ValueTypeI32,
	OpcodeI64Load: ValueTypeI64, OpcodeI64Load8S: ValueTypeI64, OpcodeI64Load8U: ValueTypeI64,
	OpcodeI64Load16S: ValueTypeI64, OpcodeI64Load16U: ValueTypeI64,
	OpcodeI64Load32S: ValueTypeI64, OpcodeI64Load32U: ValueTypeI64,
	OpcodeF32Load: ValueTypeF32, OpcodeF64Load: ValueTypeF64,
}

var storeOperandType = map[Opcode]ValueType{
	OpcodeI32Store: ValueTypeI32, OpcodeI32Store8: ValueTypeI32, OpcodeI32Store16: ValueTypeI32,
	OpcodeI64Store: ValueTypeI64, OpcodeI64Store8: ValueTypeI64, OpcodeI64Store16: ValueTypeI64, OpcodeI64Store32: ValueTypeI64,
	OpcodeF32Store: ValueTypeF32, OpcodeF64Store: ValueTypeF64,
}

// visit applies one instruction's effect to the validator's value stack and
// control-frame stack, advancing *pc past any LEB128 immediates the
// instruction carries.
func (v *funcValidator) visit(op Opcode, body []byte, pc *int) (int, error) {
	switch op {
	case OpcodeUnreachable:
		v.top().unreachable = true
		v.stack = v.stack[:v.top().startHeight]
		return 0, nil
	case OpcodeNop:
		return 0, nil
	case OpcodeEnd:
		f := v.frames[len(v.frames)-1]
		for i := len(f.blockType.Results) - 1; i >= 0; i-- {
			if _, err := v.pop(f.blockType.Results[i], len(f.blockType.Results)-i); err != nil {
				return 0, err
			}
		}
		v.frames = v.frames[:len(v.frames)-1]
		for _, rt := range f.blockType.Results {
			if err := v.push(rt); err != nil {
				return 0, err
			}
		}
		return 0, nil
	case OpcodeElse:
		f := v.top()
		for i := len(f.blockType.Results) - 1; i >= 0; i-- {
			if _, err := v.pop(f.blockType.Results[i], len(f.blockType.Results)-i); err != nil {
				return 0, err
			}
		}
		v.stack = v.stack[:f.startHeight]
		f.unreachable = false
		for _, p := range f.blockType.Params {
			if err := v.push(p); err != nil {
				return 0, err
			}
		}
		return 0, nil
	case OpcodeBlock, OpcodeLoop, OpcodeIf:
		bt, n, err := decodeBlockType(body[*pc:], v.types)
		if err != nil {
			return 0, err
		}
		*pc += n
		if op == OpcodeIf {
			if _, err := v.pop(ValueTypeI32, 1); err != nil {
				return 0, err
			}
		}
		for i := len(bt.Params) - 1; i >= 0; i-- {
			if _, err := v.pop(bt.Params[i], i+1); err != nil {
				return 0, err
			}
		}
		v.frames = append(v.frames, controlFrame{op: op, blockType: bt, startHeight: len(v.stack)})
		for _, p := range bt.Params {
			if err := v.push(p); err != nil {
				return 0, err
			}
		}
		return 0, nil
	case OpcodeBr, OpcodeBrIf:
		idx, n, err := leb128.LoadUint32(body[*pc:])
		if err != nil {
			return 0, fmt.Errorf("couldn't read the label index of br: %w", err)
		}
		*pc += int(n)
		if op == OpcodeBrIf {
			if _, err := v.pop(ValueTypeI32, 1); err != nil {
				return 0, err
			}
		}
		if int(idx) >= len(v.frames) {
			return 0, fmt.Errorf("invalid branch target: %d", idx)
		}
		return 0, nil
	case OpcodeBrTable:
		count, n, err := leb128.LoadUint32(body[*pc:])
		if err != nil {
			return 0, fmt.Errorf("couldn't read the vector length of br_table: %w", err)
		}
		*pc += int(n)
		for i := uint32(0); i < count+1; i++ {
			_, n, err := leb128.LoadUint32(body[*pc:])
			if err != nil {
				return 0, fmt.Errorf("couldn't read labels of br_table: %w", err)
			}
			*pc += int(n)
		}
		if _, err := v.pop(ValueTypeI32, 1); err != nil {
			return 0, err
		}
		v.top().unreachable = true
		return 0, nil
	case OpcodeReturn:
		v.top().unreachable = true
		return 0, nil
	case OpcodeCall:
		idx, n, err := leb128.LoadUint32(body[*pc:])
		if err != nil {
			return 0, fmt.Errorf("couldn't read the function index of call: %w", err)
		}
		*pc += int(n)
		if idx >= uint32(len(v.functions)) {
			return 0, fmt.Errorf("invalid function index for call: %d", idx)
		}
		ft := v.types[v.functions[idx]]
		return 0, v.applyCall(ft)
	case OpcodeCallIndirect:
		typeIdx, n, err := leb128.LoadUint32(body[*pc:])
		if err != nil {
			return 0, fmt.Errorf("couldn't read the type index of call_indirect: %w", err)
		}
		*pc += int(n)
		_, n, err = leb128.LoadUint32(body[*pc:]) // table index, always zero in this module
		if err != nil {
			return 0, fmt.Errorf("couldn't read the table index of call_indirect: %w", err)
		}
		*pc += int(n)
		if len(v.tables) == 0 {
			return 0, fmt.Errorf("call_indirect requires a table")
		}
		if _, err := v.pop(ValueTypeI32, 1); err != nil {
			return 0, err
		}
		if int(typeIdx) >= len(v.types) {
			return 0, fmt.Errorf("invalid type index for call_indirect: %d", typeIdx)
		}
		return 0, v.applyCall(v.types[typeIdx])
	case OpcodeDrop:
		_, err := v.pop(valueTypeUnknown, 1)
		return 0, err
	case OpcodeSelect:
		if _, err := v.pop(ValueTypeI32, 1); err != nil {
			return 0, err
		}
		t2, err := v.pop(valueTypeUnknown, 2)
		if err != nil {
			return 0, err
		}
		if _, err := v.pop(t2, 3); err != nil {
			return 0, err
		}
		return 0, v.push(t2)
	case OpcodeLocalGet, OpcodeLocalSet, OpcodeLocalTee:
		idx, n, err := leb128.LoadUint32(body[*pc:])
		if err != nil {
			return 0, fmt.Errorf("couldn't read the local index: %w", err)
		}
		*pc += int(n)
		if idx >= uint32(len(v.locals)) {
			return 0, fmt.Errorf("invalid local index: %d", idx)
		}
		lt := v.locals[idx]
		switch op {
		case OpcodeLocalGet:
			return 0, v.push(lt)
		case OpcodeLocalSet:
			_, err := v.pop(lt, 1)
			return 0, err
		default: // OpcodeLocalTee
			t, err := v.pop(lt, 1)
			if err != nil {
				return 0, err
			}
			return 0, v.push(t)
		}
	case OpcodeGlobalGet, OpcodeGlobalSet:
		idx, n, err := leb128.LoadUint32(body[*pc:])
		if err != nil {
			return 0, fmt.Errorf("couldn't read the global index: %w", err)
		}
		*pc += int(n)
		if idx >= uint32(len(v.globals)) {
			return 0, fmt.Errorf("invalid global index: %d", idx)
		}
		gt := v.globals[idx]
		if op == OpcodeGlobalGet {
			return 0, v.push(gt.ValType)
		}
		if !gt.Mutable {
			return 0, fmt.Errorf("global.set to an immutable global: %d", idx)
		}
		_, err = v.pop(gt.ValType, 1)
		return 0, err
	case OpcodeMemorySize:
		*pc++ // reserved byte
		if len(v.memories) == 0 {
			return 0, fmt.Errorf("memory.size requires a memory")
		}
		return 0, v.push(ValueTypeI32)
	case OpcodeMemoryGrow:
		*pc++ // reserved byte
		if len(v.memories) == 0 {
			return 0, fmt.Errorf("memory.grow requires a memory")
		}
		if _, err := v.pop(ValueTypeI32, 1); err != nil {
			return 0, err
		}
		return 0, v.push(ValueTypeI32)
	case OpcodeI32Const:
		_, n, err := leb128.LoadInt32(body[*pc:])
		if err != nil {
			return 0, fmt.Errorf("couldn't read i32.const parameter: %w", err)
		}
		*pc += int(n)
		return 0, v.push(ValueTypeI32)
	case OpcodeI64Const:
		_, n, err := leb128.LoadInt64(body[*pc:])
		if err != nil {
			return 0, fmt.Errorf("couldn't read i64.const parameter: %w", err)
		}
		*pc += int(n)
		return 0, v.push(ValueTypeI64)
	case OpcodeF32Const:
		*pc += 4
		return 0, v.push(ValueTypeF32)
	case OpcodeF64Const:
		*pc += 8
		return 0, v.push(ValueTypeF64)
	case OpcodeMiscPrefix:
		sub := body[*pc]
		*pc++
		return 0, v.visitMisc(sub)
	default:
		if sig, ok := opcodeSignatures[op]; ok {
			return 0, v.applySignature(sig)
		}
		_, isLoad := loadResultType[op]
		_, isStore := storeOperandType[op]
		if isLoad || isStore {
			for i := 0; i < 2; i++ { // memarg: alignment, then offset
				_, n, err := leb128.LoadUint32(body[*pc:])
				if err != nil {
					return 0, fmt.Errorf("couldn't read the memory access immediate: %w", err)
				}
				*pc += int(n)
			}
		}
		if rt, ok := loadResultType[op]; ok {
			return 0, v.applyMemAccess(rt, nil)
		}
		if at, ok := storeOperandType[op]; ok {
			return 0, v.applyMemAccess(valueTypeUnknown, &at)
		}
		return 0, fmt.Errorf("invalid instruction: %#x", op)
	}
}

func (v *funcValidator) applySignature(sig signature) error {
	for i := len(sig.in) - 1; i >= 0; i-- {
		if _, err := v.pop(sig.in[i], i+1); err != nil {
			return err
		}
	}
	for _, o := range sig.out {
		if err := v.push(o); err != nil {
			return err
		}
	}
	return nil
}

// applyMemAccess pops the address operand (visit has already read past the
// alignment/offset LEB128 pair, which is not tracked as values) and, for
// loads, pushes the result type; store is signaled by passing storeType
// non-nil.
func (v *funcValidator) applyMemAccess(loadType ValueType, storeType *ValueType) error {
	if len(v.memories) == 0 {
		return fmt.Errorf("memory access requires a memory")
	}
	if storeType != nil {
		if _, err := v.pop(*storeType, 2); err != nil {
			return err
		}
	}
	if _, err := v.pop(ValueTypeI32, 1); err != nil {
		return err
	}
	if storeType == nil {
		return v.push(loadType)
	}
	return nil
}

func (v *funcValidator) applyCall(ft *FunctionType) error {
	for i := len(ft.Params) - 1; i >= 0; i-- {
		if _, err := v.pop(ft.Params[i], i+1); err != nil {
			return err
		}
	}
	for _, r := range ft.Results {
		if err := v.push(r); err != nil {
			return err
		}
	}
	return nil
}

var satTruncTypes = map[Opcode]signature{
	OpcodeMiscI32TruncSatF32S: {[]ValueType{ValueTypeF32}, []ValueType{ValueTypeI32}},
	OpcodeMiscI32TruncSatF32U: {[]ValueType{ValueTypeF32}, []ValueType{ValueTypeI32}},
	OpcodeMiscI32TruncSatF64S: {[]ValueType{ValueTypeF64}, []ValueType{ValueTypeI32}},
	OpcodeMiscI32TruncSatF64U: {[]ValueType{ValueTypeF64}, []ValueType{ValueTypeI32}},
	OpcodeMiscI64TruncSatF32S: {[]ValueType{ValueTypeF32}, []ValueType{ValueTypeI64}},
	OpcodeMiscI64TruncSatF32U: {[]ValueType{ValueTypeF32}, []ValueType{ValueTypeI64}},
	OpcodeMiscI64TruncSatF64S: {[]ValueType{ValueTypeF64}, []ValueType{ValueTypeI64}},
	OpcodeMiscI64TruncSatF64U: {[]ValueType{ValueTypeF64}, []ValueType{ValueTypeI64}},
}

func (v *funcValidator) visitMisc(sub byte) error {
	sig, ok := satTruncTypes[sub]
	if !ok {
		return fmt.Errorf("invalid misc instruction: %#x", sub)
	}
	return v.applySignature(sig)
}

// decodeBlockType reads a block's type: either the single-byte "empty" or
// value-type encodings, or a signed LEB128 index into types for a
// multi-value block signature.
func decodeBlockType(b []byte, types []*FunctionType) (*FunctionType, int, error) {
	if len(b) == 0 {
		return nil, 0, fmt.Errorf("couldn't read block type")
	}
	switch b[0] {
	case 0x40:
		return &FunctionType{}, 1, nil
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64, ValueTypeFuncref, ValueTypeExternref:
		return &FunctionType{Results: []ValueType{b[0]}}, 1, nil
	}
	idx, n, err := leb128.LoadInt32(b)
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't read block type: %w", err)
	}
	if idx < 0 || int(idx) >= len(types) {
		return nil, 0, fmt.Errorf("invalid block type index: %d", idx)
	}
	return types[idx], int(n), nil
}
