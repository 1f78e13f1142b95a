package wasm

import (
	"fmt"

	"github.com/uwvmgo/uwvmgo/api"
	"github.com/uwvmgo/uwvmgo/internal/leb128"
)

// ValueTypeName is re-exported from api so call sites inside this package
// (and its tests) can use the unqualified vocabulary without importing api
// directly for just this one helper.
func ValueTypeName(t ValueType) string {
	return api.ValueTypeName(t)
}

// validateConstExpression checks expr is one of the instructions allowed in
// a global initializer or segment offset: one of the four *.const
// instructions matching expectedType, or a global.get referencing an
// already-available global of that type. expectedType of valueTypeUnknown
// skips the type match.
func validateConstExpression(globals []*GlobalType, expr *ConstantExpression, expectedType ValueType) error {
	switch expr.Opcode {
	case OpcodeI32Const:
		if _, _, err := leb128.LoadInt32(expr.Data); err != nil {
			return fmt.Errorf("couldn't read i32.const parameter: overflows a 32-bit integer")
		}
		return requireConstType(ValueTypeI32, expectedType)
	case OpcodeI64Const:
		if _, _, err := leb128.LoadInt64(expr.Data); err != nil {
			return fmt.Errorf("couldn't read i64.const parameter: overflows a 64-bit integer")
		}
		return requireConstType(ValueTypeI64, expectedType)
	case OpcodeF32Const:
		if len(expr.Data) < 4 {
			return fmt.Errorf("couldn't read f32.const parameter: need 4 bytes")
		}
		return requireConstType(ValueTypeF32, expectedType)
	case OpcodeF64Const:
		if len(expr.Data) < 8 {
			return fmt.Errorf("couldn't read f64.const parameter: need 8 bytes")
		}
		return requireConstType(ValueTypeF64, expectedType)
	case OpcodeGlobalGet:
		idx, _, err := leb128.LoadUint32(expr.Data)
		if err != nil {
			return fmt.Errorf("couldn't read global.get parameter: overflows a 32-bit integer")
		}
		if idx >= uint32(len(globals)) {
			return fmt.Errorf("global.get %d: out of range of imported globals", idx)
		}
		g := globals[idx]
		if expectedType != valueTypeUnknown && g.ValType != expectedType {
			return fmt.Errorf("global.get %d: import global.ValType != %s", idx, ValueTypeName(expectedType))
		}
		return nil
	default:
		return fmt.Errorf("invalid opcode for const expression: %#x", expr.Opcode)
	}
}

func requireConstType(got, want ValueType) error {
	if want != valueTypeUnknown && got != want {
		return fmt.Errorf("invalid const expression: %s", InstructionName(constOpcodeFor(got)))
	}
	return nil
}

func constOpcodeFor(vt ValueType) Opcode {
	switch vt {
	case ValueTypeI32:
		return OpcodeI32Const
	case ValueTypeI64:
		return OpcodeI64Const
	case ValueTypeF32:
		return OpcodeF32Const
	default:
		return OpcodeF64Const
	}
}

// evalConstExpression computes the uint64-encoded value of an already
// validated constant expression, resolving global.get against the globals
// resolved so far.
func evalConstExpression(globals []*GlobalInstance, expr *ConstantExpression) uint64 {
	switch expr.Opcode {
	case OpcodeI32Const:
		v, _, _ := leb128.LoadInt32(expr.Data)
		return uint64(uint32(v))
	case OpcodeI64Const:
		v, _, _ := leb128.LoadInt64(expr.Data)
		return uint64(v)
	case OpcodeF32Const, OpcodeF64Const:
		var v uint64
		for i, b := range expr.Data {
			v |= uint64(b) << (8 * uint(i))
		}
		return v
	case OpcodeGlobalGet:
		idx, _, _ := leb128.LoadUint32(expr.Data)
		return globals[idx].Val
	}
	return 0
}
